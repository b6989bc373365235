package handler

import (
	"bytes"
	"encoding/json"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"material-recon/internal/fileio"
	"material-recon/internal/reconcile/model"
)

const (
	formatJSON = "json"
	formatXLSX = "xlsx"

	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// маппинг колонок стороны: pdf_desc, pdf_qty, pdf_unit, pdf_header_row (и excel_*)
func mappingFromForm(r *http.Request, side string) model.Mapping {
	m := model.DefaultMapping()
	if v := strings.TrimSpace(r.FormValue(side + "_desc")); v != "" {
		m.DescKey = v
	}
	if v := strings.TrimSpace(r.FormValue(side + "_qty")); v != "" {
		m.QtyKey = v
	}
	if v := strings.TrimSpace(r.FormValue(side + "_unit")); v != "" {
		m.UnitKey = v
	}
	m.HeaderRow = atoi(r.FormValue(side+"_header_row"), 1)
	return m
}

// Опции: пусто или мусор → дефолт из конфига. Порог вне [0,1] не режем:
// пусть валидация вернёт 422 с причиной.
func optionsFromForm(r *http.Request, def model.Options) model.Options {
	return model.Options{
		MatchThreshold: toFloat(r.FormValue("match_threshold"), def.MatchThreshold),
		NormalizeUnits: toBool(r.FormValue("normalize_units"), def.NormalizeUnits),
	}
}

func exportFormat(r *http.Request) (string, error) {
	switch f := strings.ToLower(strings.TrimSpace(r.FormValue("format"))); f {
	case "", formatJSON:
		return formatJSON, nil
	case formatXLSX:
		return formatXLSX, nil
	default:
		return "", errors.Errorf("unsupported format %q", f)
	}
}

func writeReport(w http.ResponseWriter, format string, rep model.Report) error {
	w.Header().Set("Cache-Control", "no-store")
	if format == formatXLSX {
		// сначала в буфер: если excelize упадёт, ещё можно ответить 500
		var buf bytes.Buffer
		if err := fileio.WriteReportXLSX(&buf, rep); err != nil {
			writeError(w, http.StatusInternalServerError, "internal", nil)
			return err
		}
		w.Header().Set("Content-Type", xlsxContentType)
		w.Header().Set("Content-Disposition", `attachment; filename="reconciliation.xlsx"`)
		_, err := w.Write(buf.Bytes())
		return err
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rep)
}

type errorBody struct {
	Error  string        `json:"error"`
	Issues []model.Issue `json:"issues,omitempty"`
}

func writeError(w http.ResponseWriter, status int, msg string, issues []model.Issue) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorBody{Error: msg, Issues: issues})
}

func atoi(s string, def int) int {
	if s == "" {
		return def
	}
	i, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || i < 1 {
		return def
	}
	return i
}

func toBool(s string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "y", "on", "sim":
		return true
	case "0", "false", "no", "n", "off", "nao", "não":
		return false
	default:
		return def
	}
}

func toFloat(s string, def float64) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	f, err := strconv.ParseFloat(strings.Replace(s, ",", ".", 1), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return def
	}
	return f
}
