package service

import (
	"sort"

	"github.com/shopspring/decimal"

	"material-recon/internal/reconcile/model"
)

type edge struct {
	pdf, excel int
	sim        float64
	qtyDist    decimal.Decimal // |Δqty| без хвостов float: 0.5-0.3 == 0.3-0.1
	sameUnit   bool
}

// Match — жадное паросочетание максимального веса.
//
// Считаем полную матрицу схожести, оставляем пары с sim >= порога и
// забираем их от лучшей к худшей. При равной схожести выигрывает пара с
// меньшей |Δqty|, затем с совпадающей единицей, затем более ранняя в PDF
// (и в таблице, чтобы порядок был полностью определён).
// Несопоставленные позиции возвращаются парами с -1 на пустой стороне:
// сначала PDF по порядку, потом таблица по порядку.
func Match(pdf, excel []model.LineItem, opt model.Options) []model.CandidatePair {
	keysA := make([]string, len(pdf))
	unitsA := make([]string, len(pdf))
	for i, it := range pdf {
		keysA[i] = Normalize(it.Description, opt.NormalizeUnits)
		unitsA[i] = NormalizeUnit(it.Unit, opt.NormalizeUnits)
	}
	keysB := make([]string, len(excel))
	unitsB := make([]string, len(excel))
	for j, it := range excel {
		keysB[j] = Normalize(it.Description, opt.NormalizeUnits)
		unitsB[j] = NormalizeUnit(it.Unit, opt.NormalizeUnits)
	}

	// 1) матрица + отсев по порогу (ровно порог — проходит)
	var eligible []edge
	for i := range pdf {
		for j := range excel {
			s := Score(keysA[i], keysB[j])
			if s < opt.MatchThreshold {
				continue
			}
			eligible = append(eligible, edge{
				pdf:      i,
				excel:    j,
				sim:      s,
				qtyDist:  quantity(excel[j].Quantity).Sub(quantity(pdf[i].Quantity)).Abs(),
				sameUnit: unitsA[i] == unitsB[j],
			})
		}
	}

	// 2) порядок жадного выбора
	sort.SliceStable(eligible, func(x, y int) bool {
		a, b := eligible[x], eligible[y]
		switch {
		case a.sim != b.sim:
			return a.sim > b.sim
		case !a.qtyDist.Equal(b.qtyDist):
			return a.qtyDist.LessThan(b.qtyDist)
		case a.sameUnit != b.sameUnit:
			return a.sameUnit
		case a.pdf != b.pdf:
			return a.pdf < b.pdf
		default:
			return a.excel < b.excel
		}
	})

	// 3) забираем пары, пока есть свободные
	usedA := make([]bool, len(pdf))
	usedB := make([]bool, len(excel))
	out := make([]model.CandidatePair, 0, len(pdf)+len(excel))
	for _, e := range eligible {
		if usedA[e.pdf] || usedB[e.excel] {
			continue
		}
		usedA[e.pdf], usedB[e.excel] = true, true
		out = append(out, model.CandidatePair{PDF: e.pdf, Excel: e.excel, Similarity: e.sim})
	}

	// 4) остатки
	for i := range pdf {
		if !usedA[i] {
			out = append(out, model.CandidatePair{PDF: i, Excel: -1})
		}
	}
	for j := range excel {
		if !usedB[j] {
			out = append(out, model.CandidatePair{PDF: -1, Excel: j})
		}
	}
	return out
}
