package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"material-recon/internal/config"
	"material-recon/internal/fileio"
	"material-recon/internal/middleware"
	"material-recon/internal/reconcile/model"
	recSvc "material-recon/internal/reconcile/service"
)

// Reconcile возвращает http.HandlerFunc, чтобы вы могли вызвать его как
// r.Post("/reconcile", recHnd.Reconcile(cfg, logger)) в роутере.
// Принимает multipart с двумя таблицами: pdfFile (таблица, извлечённая из PDF) и excelFile.
func Reconcile(cfg config.Config, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		log := logger.With().Str("rid", middleware.GetRequestID(r)).Logger()

		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed", nil)
			return
		}
		defer r.Body.Close()
		if err := r.ParseMultipartForm(int64(cfg.MaxUploadMB) << 20); err != nil {
			writeError(w, http.StatusBadRequest, "bad multipart form: "+err.Error(), nil)
			return
		}

		pdf, err := readSide(r, "pdfFile", mappingFromForm(r, "pdf"))
		if err != nil {
			log.Warn().Err(err).Msg("read pdf side")
			writeError(w, http.StatusBadRequest, err.Error(), nil)
			return
		}
		excel, err := readSide(r, "excelFile", mappingFromForm(r, "excel"))
		if err != nil {
			log.Warn().Err(err).Msg("read excel side")
			writeError(w, http.StatusBadRequest, err.Error(), nil)
			return
		}

		opt := optionsFromForm(r, cfg.Options())
		log.Debug().
			Int("pdf_items", len(pdf)).
			Int("excel_items", len(excel)).
			Float64("threshold", opt.MatchThreshold).
			Bool("normalize_units", opt.NormalizeUnits).
			Msg("parsed inputs")

		runAndRespond(w, r, log, pdf, excel, opt, start)
	}
}

type itemsRequest struct {
	PDFItems   []model.LineItem `json:"pdfItems"`
	ExcelItems []model.LineItem `json:"excelItems"`
	Options    model.Options    `json:"options"`
}

// ReconcileItems — тот же движок, но позиции приходят готовым JSON.
func ReconcileItems(cfg config.Config, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		log := logger.With().Str("rid", middleware.GetRequestID(r)).Logger()

		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed", nil)
			return
		}
		defer r.Body.Close()

		// опции, которых нет в теле, берём из конфига
		req := itemsRequest{Options: cfg.Options()}
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "bad json: "+err.Error(), nil)
			return
		}

		runAndRespond(w, r, log, req.PDFItems, req.ExcelItems, req.Options, start)
	}
}

func runAndRespond(w http.ResponseWriter, r *http.Request, log zerolog.Logger, pdf, excel []model.LineItem, opt model.Options, start time.Time) {
	format, err := exportFormat(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	rep, err := recSvc.Reconcile(pdf, excel, opt)
	if err != nil {
		var verr *model.ValidationError
		if errors.As(err, &verr) {
			log.Info().Int("issues", len(verr.Issues)).Msg("rejected input")
			writeError(w, http.StatusUnprocessableEntity, "invalid input", verr.Issues)
			return
		}
		log.Error().Err(err).Msg("reconcile")
		writeError(w, http.StatusInternalServerError, "internal", nil)
		return
	}

	if err := writeReport(w, format, rep); err != nil {
		log.Error().Err(err).Msg("write report")
		return
	}

	log.Info().
		Int("pdf_items", len(pdf)).
		Int("excel_items", len(excel)).
		Int("match", rep.Summary.Match).
		Int("mismatch", rep.Summary.Mismatch).
		Int("missing", rep.Summary.Missing).
		Int("extra", rep.Summary.Extra).
		Str("format", format).
		Dur("elapsed", time.Since(start)).
		Msg("reconcile done")
}

func readSide(r *http.Request, field string, m model.Mapping) ([]model.LineItem, error) {
	f, hdr, err := r.FormFile(field)
	if err != nil {
		return nil, errors.Wrapf(err, "missing %s", field)
	}
	defer f.Close()

	items, err := fileio.ReadLineItems(f, hdr.Filename, m)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", field)
	}
	return items, nil
}
