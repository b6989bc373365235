package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v3"

	"material-recon/internal/config"
	"material-recon/internal/fileio"
	"material-recon/internal/reconcile/model"
	recSvc "material-recon/internal/reconcile/service"
)

func main() {
	if err := newCommand(os.Stdout).Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "reconcile:", err)
		os.Exit(1)
	}
}

func newCommand(stdout io.Writer) *cli.Command {
	def := model.DefaultMapping()
	return &cli.Command{
		Name:  "reconcile",
		Usage: "Reconcile material lists from a PDF table and a spreadsheet",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "pdf",
				Usage:    "Items extracted from the PDF (.csv, .xlsx, .xls or .json)",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "excel",
				Usage:    "Spreadsheet items (.csv, .xlsx, .xls or .json)",
				Required: true,
			},
			&cli.FloatFlag{
				Name:  "threshold",
				Usage: "Minimum similarity for a pair, 0..1",
				Value: model.DefaultMatchThreshold,
			},
			&cli.BoolFlag{
				Name:  "normalize-units",
				Usage: "Canonicalize unit spellings inside descriptions",
				Value: true,
			},
			&cli.StringFlag{
				Name:  "format",
				Usage: "Report format: json or xlsx",
				Value: "json",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output file path (default: stdout)",
			},
			&cli.StringFlag{Name: "pdf-desc", Value: def.DescKey, Usage: "PDF description column"},
			&cli.StringFlag{Name: "pdf-qty", Value: def.QtyKey, Usage: "PDF quantity column"},
			&cli.StringFlag{Name: "pdf-unit", Value: def.UnitKey, Usage: "PDF unit column"},
			&cli.IntFlag{Name: "pdf-header-row", Value: int64(def.HeaderRow), Usage: "PDF header row (1-based)"},
			&cli.StringFlag{Name: "excel-desc", Value: def.DescKey, Usage: "Spreadsheet description column"},
			&cli.StringFlag{Name: "excel-qty", Value: def.QtyKey, Usage: "Spreadsheet quantity column"},
			&cli.StringFlag{Name: "excel-unit", Value: def.UnitKey, Usage: "Spreadsheet unit column"},
			&cli.IntFlag{Name: "excel-header-row", Value: int64(def.HeaderRow), Usage: "Spreadsheet header row (1-based)"},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "debug, info, warn or error",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return runReconcile(ctx, cmd, stdout)
		},
	}
}

func runReconcile(_ context.Context, cmd *cli.Command, stdout io.Writer) error {
	logger := config.SetupCLILogger(cmd.String("log-level"))

	format := strings.ToLower(cmd.String("format"))
	if format != "json" && format != "xlsx" {
		return errors.Errorf("unsupported format %q", format)
	}

	pdf, err := readItems(cmd.String("pdf"), mappingFromFlags(cmd, "pdf"))
	if err != nil {
		return errors.Wrap(err, "pdf")
	}
	excel, err := readItems(cmd.String("excel"), mappingFromFlags(cmd, "excel"))
	if err != nil {
		return errors.Wrap(err, "excel")
	}

	opt := model.Options{
		MatchThreshold: cmd.Float("threshold"),
		NormalizeUnits: cmd.Bool("normalize-units"),
	}
	logger.Debug().
		Int("pdf_items", len(pdf)).
		Int("excel_items", len(excel)).
		Float64("threshold", opt.MatchThreshold).
		Msg("inputs loaded")

	rep, err := recSvc.Reconcile(pdf, excel, opt)
	if err != nil {
		return err
	}
	logSummary(logger, rep.Summary)

	out := stdout
	if path := cmd.String("output"); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return errors.Wrap(err, "create output")
		}
		defer f.Close()
		out = f
	}

	if format == "xlsx" {
		return fileio.WriteReportXLSX(out, rep)
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return errors.Wrap(enc.Encode(rep), "write json")
}

func mappingFromFlags(cmd *cli.Command, side string) model.Mapping {
	return model.Mapping{
		DescKey:   cmd.String(side + "-desc"),
		QtyKey:    cmd.String(side + "-qty"),
		UnitKey:   cmd.String(side + "-unit"),
		HeaderRow: int(cmd.Int(side + "-header-row")),
	}
}

// .json — готовый массив позиций; остальное читается как таблица.
func readItems(path string, m model.Mapping) ([]model.LineItem, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open")
	}
	defer f.Close()

	if strings.EqualFold(filepath.Ext(path), ".json") {
		var items []model.LineItem
		if err := json.NewDecoder(f).Decode(&items); err != nil {
			return nil, errors.Wrapf(err, "decode %s", filepath.Base(path))
		}
		return items, nil
	}
	return fileio.ReadLineItems(f, filepath.Base(path), m)
}

func logSummary(logger zerolog.Logger, s model.Summary) {
	ev := logger.Info()
	if s.NeedsAttention > 0 || s.Mismatch > 0 {
		ev = logger.Warn()
	}
	ev.Int("total", s.Total).
		Int("match", s.Match).
		Int("mismatch", s.Mismatch).
		Int("missing", s.Missing).
		Int("extra", s.Extra).
		Msg("reconciliation done")
}
