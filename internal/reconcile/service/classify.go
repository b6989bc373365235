package service

import (
	"github.com/shopspring/decimal"

	"material-recon/internal/reconcile/model"
)

// Classify превращает пару (или одиночку) в строку отчёта.
// difference всегда excel - pdf; считаем в decimal, чтобы 0.3-0.1 не давало хвостов.
func Classify(p model.CandidatePair, pdf, excel []model.LineItem) model.ReconciledRow {
	switch {
	case p.Matched():
		a, b := pdf[p.PDF], excel[p.Excel]
		diff := quantity(b.Quantity).Sub(quantity(a.Quantity))
		st := model.StatusMismatch
		if diff.IsZero() {
			st = model.StatusMatch
		}
		return model.ReconciledRow{
			Description:   pick(a.Description, b.Description),
			PDFQuantity:   ptr(a.Quantity),
			PDFUnit:       a.Unit,
			ExcelQuantity: ptr(b.Quantity),
			ExcelUnit:     b.Unit,
			Status:        st,
			Similarity:    p.Similarity,
			Difference:    diff.InexactFloat64(),
		}

	case p.PDF >= 0:
		a := pdf[p.PDF]
		return model.ReconciledRow{
			Description: a.Description,
			PDFQuantity: ptr(a.Quantity),
			PDFUnit:     a.Unit,
			Status:      model.StatusMissing,
			Difference:  quantity(a.Quantity).Neg().InexactFloat64(),
		}

	default:
		b := excel[p.Excel]
		return model.ReconciledRow{
			Description:   b.Description,
			ExcelQuantity: ptr(b.Quantity),
			ExcelUnit:     b.Unit,
			Status:        model.StatusExtra,
			Difference:    quantity(b.Quantity).InexactFloat64(),
		}
	}
}

func quantity(f float64) decimal.Decimal { return decimal.NewFromFloat(f) }

func ptr(f float64) *float64 { return &f }

// pick — первое непустое; описание из PDF приоритетнее
func pick(a, b string) string {
	if a != "" {
		return a
	}
	return b
}
