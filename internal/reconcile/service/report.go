package service

import (
	"sort"

	"material-recon/internal/reconcile/model"
)

// Build собирает отчёт. rows[k] — результат Classify(pairs[k]).
// Порядок: строки с PDF-стороной по порядку PDF, затем extra по порядку таблицы.
func Build(pairs []model.CandidatePair, rows []model.ReconciledRow) model.Report {
	idx := make([]int, len(rows))
	for k := range idx {
		idx[k] = k
	}
	sort.SliceStable(idx, func(x, y int) bool {
		a, b := pairs[idx[x]], pairs[idx[y]]
		aPDF, bPDF := a.PDF >= 0, b.PDF >= 0
		switch {
		case aPDF && bPDF:
			return a.PDF < b.PDF
		case aPDF != bPDF:
			return aPDF
		default:
			return a.Excel < b.Excel
		}
	})

	ordered := make([]model.ReconciledRow, len(rows))
	for k, i := range idx {
		ordered[k] = rows[i]
	}
	return model.Report{Rows: ordered, Summary: Summarize(ordered)}
}

func Summarize(rows []model.ReconciledRow) model.Summary {
	var s model.Summary
	for _, r := range rows {
		s.Total++
		switch r.Status {
		case model.StatusMatch:
			s.Match++
		case model.StatusMismatch:
			s.Mismatch++
		case model.StatusMissing:
			s.Missing++
		case model.StatusExtra:
			s.Extra++
		}
	}
	s.NeedsAttention = s.Missing + s.Extra
	return s
}
