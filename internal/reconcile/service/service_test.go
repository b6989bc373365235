package service

import (
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"material-recon/internal/reconcile/model"
)

func item(desc string, qty float64, unit string) model.LineItem {
	return model.LineItem{Description: desc, Quantity: qty, Unit: unit}
}

func TestRun_ExactMatch(t *testing.T) {
	rep := Run(
		[]model.LineItem{item("CABO PP 3X1,5MM2", 312.4, "m")},
		[]model.LineItem{item("CABO PP 3X1,5MM2", 312.4, "m")},
		model.DefaultOptions(),
	)
	require.Len(t, rep.Rows, 1)
	r := rep.Rows[0]
	assert.Equal(t, model.StatusMatch, r.Status)
	assert.Equal(t, 0.0, r.Difference)
	assert.GreaterOrEqual(t, r.Similarity, 0.9)
	assert.Equal(t, 1, rep.Summary.Match)
}

func TestRun_QuantityMismatch(t *testing.T) {
	rep := Run(
		[]model.LineItem{item("PLUGUE FEMEA LED", 268, "un")},
		[]model.LineItem{item("PLUGUE FEMEA LED", 250, "un")},
		model.DefaultOptions(),
	)
	require.Len(t, rep.Rows, 1)
	assert.Equal(t, model.StatusMismatch, rep.Rows[0].Status)
	assert.Equal(t, -18.0, rep.Rows[0].Difference)
}

func TestRun_MissingOnly(t *testing.T) {
	rep := Run([]model.LineItem{item("TOMADA DE PISO", 51, "un")}, nil, model.DefaultOptions())
	require.Len(t, rep.Rows, 1)
	r := rep.Rows[0]
	assert.Equal(t, model.StatusMissing, r.Status)
	assert.Equal(t, -51.0, r.Difference)
	assert.Equal(t, 0.0, r.Similarity)
	assert.Nil(t, r.ExcelQuantity)
	require.NotNil(t, r.PDFQuantity)
	assert.Equal(t, 51.0, *r.PDFQuantity)
}

func TestRun_ExtraOnly(t *testing.T) {
	rep := Run(nil, []model.LineItem{item("ITEM EXTRA", 10, "un")}, model.DefaultOptions())
	require.Len(t, rep.Rows, 1)
	r := rep.Rows[0]
	assert.Equal(t, model.StatusExtra, r.Status)
	assert.Equal(t, 10.0, r.Difference)
	assert.Equal(t, 0.0, r.Similarity)
	assert.Nil(t, r.PDFQuantity)
}

func TestRun_BothEmpty(t *testing.T) {
	rep := Run(nil, nil, model.DefaultOptions())
	assert.Empty(t, rep.Rows)
	assert.Equal(t, model.Summary{}, rep.Summary)

	b, err := json.Marshal(rep)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"rows":[]`)
}

func TestRun_TwoCandidatesForOneItem(t *testing.T) {
	pdf := []model.LineItem{
		item("PLUGUE FEMEA LED 10A", 30, "un"),
		item("PLUGUE FEMEA LED", 268, "un"),
	}
	excel := []model.LineItem{item("PLUGUE FEMEA LED", 250, "un")}

	// обе позиции PDF проходят порог
	require.GreaterOrEqual(t, Score(Normalize(pdf[0].Description, true), Normalize(excel[0].Description, true)), 0.6)

	rep := Run(pdf, excel, model.DefaultOptions())
	require.Len(t, rep.Rows, 2)
	assert.Equal(t, "PLUGUE FEMEA LED 10A", rep.Rows[0].Description)
	assert.Equal(t, model.StatusMissing, rep.Rows[0].Status)
	assert.Equal(t, "PLUGUE FEMEA LED", rep.Rows[1].Description)
	assert.Equal(t, model.StatusMismatch, rep.Rows[1].Status)
	assert.Equal(t, 1.0, rep.Rows[1].Similarity)
}

func TestMatch_TieBreakByQuantity(t *testing.T) {
	pdf := []model.LineItem{
		item("TOMADA DE PISO", 51, "un"),
		item("TOMADA DE PISO", 40, "un"),
	}
	excel := []model.LineItem{item("TOMADA DE PISO", 41, "un")}

	pairs := Match(pdf, excel, model.DefaultOptions())
	require.Len(t, pairs, 2)
	assert.Equal(t, model.CandidatePair{PDF: 1, Excel: 0, Similarity: 1}, pairs[0])
	assert.Equal(t, model.CandidatePair{PDF: 0, Excel: -1}, pairs[1])
}

func TestMatch_TieBreakByUnit(t *testing.T) {
	pdf := []model.LineItem{
		item("ELETRODUTO 3/4", 10, "m"),
		item("ELETRODUTO 3/4", 10, "pc"),
	}
	excel := []model.LineItem{item("Eletroduto 3/4", 10, "Pç")}

	pairs := Match(pdf, excel, model.DefaultOptions())
	require.Len(t, pairs, 2)
	assert.Equal(t, 1, pairs[0].PDF)
	assert.Equal(t, 0, pairs[0].Excel)
}

func TestMatch_TieBreakByUnitFractionalQuantities(t *testing.T) {
	// 0.5-0.3 и 0.3-0.1 во float64 различаются, а расхождение одинаковое
	pdf := []model.LineItem{item("CABO PP", 0.3, "m")}
	excel := []model.LineItem{
		item("CABO PP", 0.1, "un"),
		item("CABO PP", 0.5, "m"),
	}

	pairs := Match(pdf, excel, model.DefaultOptions())
	require.Len(t, pairs, 2)
	assert.Equal(t, model.CandidatePair{PDF: 0, Excel: 1, Similarity: 1}, pairs[0])
	assert.Equal(t, model.CandidatePair{PDF: -1, Excel: 0}, pairs[1])

	// и в обратном порядке таблицы выигрывает та же единица
	excel[0], excel[1] = excel[1], excel[0]
	pairs = Match(pdf, excel, model.DefaultOptions())
	assert.Equal(t, model.CandidatePair{PDF: 0, Excel: 0, Similarity: 1}, pairs[0])
}

func TestMatch_TieBreakByPDFOrder(t *testing.T) {
	pdf := []model.LineItem{
		item("LUMINARIA LED", 5, "un"),
		item("LUMINARIA LED", 5, "un"),
	}
	excel := []model.LineItem{item("LUMINARIA LED", 5, "un")}

	pairs := Match(pdf, excel, model.DefaultOptions())
	require.Len(t, pairs, 2)
	assert.Equal(t, 0, pairs[0].PDF)
	assert.Equal(t, model.CandidatePair{PDF: 1, Excel: -1}, pairs[1])
}

func TestMatch_ThresholdBoundary(t *testing.T) {
	pdf := []model.LineItem{item("PLUGUE FEMEA LED 10A", 1, "un")}
	excel := []model.LineItem{item("PLUGUE FEMEA LED", 1, "un")}
	s := Score(Normalize(pdf[0].Description, true), Normalize(excel[0].Description, true))
	require.Less(t, s, 1.0)

	opt := model.DefaultOptions()
	opt.MatchThreshold = s
	pairs := Match(pdf, excel, opt)
	require.Len(t, pairs, 1, "similarity equal to the threshold is eligible")
	assert.True(t, pairs[0].Matched())

	opt.MatchThreshold = math.Nextafter(s, 1)
	pairs = Match(pdf, excel, opt)
	require.Len(t, pairs, 2, "one step above the similarity is not")
	assert.False(t, pairs[0].Matched())
	assert.False(t, pairs[1].Matched())
}

func TestMatch_NormalizeUnitsOption(t *testing.T) {
	pdf := []model.LineItem{item("Cabo flexivel 10 metros", 1, "m")}
	excel := []model.LineItem{item("Cabo flexivel 10m", 1, "m")}

	on := Match(pdf, excel, model.Options{MatchThreshold: 1, NormalizeUnits: true})
	assert.Len(t, on, 1)

	off := Match(pdf, excel, model.Options{MatchThreshold: 1, NormalizeUnits: false})
	assert.Len(t, off, 2)
}

func TestRun_UnitsStillDiscriminateWithoutNormalization(t *testing.T) {
	opt := model.Options{MatchThreshold: 0.6, NormalizeUnits: false}
	mm2, m := Normalize("CABO 2,5 MM2", false), Normalize("CABO 2,5 M", false)
	require.NotEqual(t, mm2, m)
	assert.Less(t, Score(mm2, m), 1.0)

	rep := Run(
		[]model.LineItem{item("CABO 2,5 MM2", 100, "m")},
		[]model.LineItem{item("CABO 2,5 M", 100, "m")},
		opt,
	)
	for _, r := range rep.Rows {
		assert.NotEqual(t, 1.0, r.Similarity)
	}

	// точное написание совпадает и без нормализации
	rep = Run(
		[]model.LineItem{item("CABO 2,5 MM2", 100, "m")},
		[]model.LineItem{item("cabo 2.5 mm2", 100, "m")},
		opt,
	)
	require.Len(t, rep.Rows, 1)
	assert.Equal(t, model.StatusMatch, rep.Rows[0].Status)
	assert.Equal(t, 1.0, rep.Rows[0].Similarity)
}

func TestClassify_DifferenceWithoutFloatNoise(t *testing.T) {
	pdf := []model.LineItem{item("fita isolante", 0.1, "rl")}
	excel := []model.LineItem{item("fita isolante", 0.3, "rl")}
	row := Classify(model.CandidatePair{PDF: 0, Excel: 0, Similarity: 1}, pdf, excel)
	assert.Equal(t, model.StatusMismatch, row.Status)
	assert.Equal(t, 0.2, row.Difference)
}

func TestClassify_SimilarityIsCarried(t *testing.T) {
	pdf := []model.LineItem{item("tomada de piso", 3, "un")}
	excel := []model.LineItem{item("tomada de pisso", 3, "un")}
	row := Classify(model.CandidatePair{PDF: 0, Excel: 0, Similarity: 0.93}, pdf, excel)
	assert.Equal(t, model.StatusMatch, row.Status)
	assert.Equal(t, 0.93, row.Similarity)
	assert.Equal(t, "tomada de piso", row.Description)
	assert.Equal(t, "un", row.ExcelUnit)
}

func TestBuild_Order(t *testing.T) {
	pdf := []model.LineItem{
		item("DISJUNTOR 32A", 4, "un"),
		item("TOMADA DE PISO", 51, "un"),
		item("CABO PP 3X1,5MM2", 312.4, "m"),
	}
	excel := []model.LineItem{
		item("ITEM EXTRA", 10, "un"),
		item("CABO PP 3X1,5MM2", 312.4, "m"),
		item("OUTRO EXTRA", 2, "pc"),
		item("DISJUNTOR 32A", 5, "un"),
	}
	rep := Run(pdf, excel, model.DefaultOptions())
	require.Len(t, rep.Rows, 5)

	got := make([]string, len(rep.Rows))
	for i, r := range rep.Rows {
		got[i] = fmt.Sprintf("%s/%s", r.Description, r.Status)
	}
	assert.Equal(t, []string{
		"DISJUNTOR 32A/mismatch",
		"TOMADA DE PISO/missing",
		"CABO PP 3X1,5MM2/match",
		"ITEM EXTRA/extra",
		"OUTRO EXTRA/extra",
	}, got)
	assert.Equal(t, model.Summary{Total: 5, Match: 1, Mismatch: 1, Missing: 1, Extra: 2, NeedsAttention: 3}, rep.Summary)
}

func randomItems(rng *rand.Rand, n int) []model.LineItem {
	words := []string{"cabo", "tomada", "plugue", "femea", "led", "piso", "pvc", "3/4\"", "2,5mm2", "10a", "curva", "luva"}
	units := []string{"m", "un", "pç", ""}
	out := make([]model.LineItem, n)
	for i := range out {
		k := 1 + rng.Intn(4)
		desc := ""
		for w := 0; w < k; w++ {
			desc += words[rng.Intn(len(words))] + " "
		}
		out[i] = item(desc, float64(rng.Intn(50)), units[rng.Intn(len(units))])
	}
	return out
}

func TestRun_CoverageAndSignConvention(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for round := 0; round < 50; round++ {
		pdf := randomItems(rng, rng.Intn(12))
		excel := randomItems(rng, rng.Intn(12))
		opt := model.Options{MatchThreshold: rng.Float64(), NormalizeUnits: rng.Intn(2) == 0}

		pairs := Match(pdf, excel, opt)
		seenA := make([]int, len(pdf))
		seenB := make([]int, len(excel))
		for _, p := range pairs {
			if p.PDF >= 0 {
				seenA[p.PDF]++
			}
			if p.Excel >= 0 {
				seenB[p.Excel]++
			}
		}
		for i, n := range seenA {
			require.Equal(t, 1, n, "round %d pdf item %d", round, i)
		}
		for j, n := range seenB {
			require.Equal(t, 1, n, "round %d excel item %d", round, j)
		}

		rep := Run(pdf, excel, opt)
		require.Len(t, rep.Rows, len(pairs))
		for _, r := range rep.Rows {
			var a, b float64
			if r.PDFQuantity != nil {
				a = *r.PDFQuantity
			}
			if r.ExcelQuantity != nil {
				b = *r.ExcelQuantity
			}
			require.InDelta(t, b-a, r.Difference, 1e-9)
		}
	}
}

func TestRun_Deterministic(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	pdf := randomItems(rng, 30)
	excel := randomItems(rng, 30)

	first, err := json.Marshal(Run(pdf, excel, model.DefaultOptions()))
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := json.Marshal(Run(pdf, excel, model.DefaultOptions()))
		require.NoError(t, err)
		require.Equal(t, string(first), string(again))
	}
}

func TestReconcile_Validation(t *testing.T) {
	_, err := Reconcile(
		[]model.LineItem{item("  ", 1, "un"), item("ok", -2, "un")},
		[]model.LineItem{item("ok", math.NaN(), "")},
		model.Options{MatchThreshold: 1.5},
	)
	require.Error(t, err)

	var verr *model.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Len(t, verr.Issues, 4)
	assert.Equal(t, "matchThreshold", verr.Issues[0].Field)
	assert.Equal(t, model.Issue{Side: model.SidePDF, Index: 0, Field: "description", Reason: "empty description"}, verr.Issues[1])
	assert.Equal(t, model.SidePDF, verr.Issues[2].Side)
	assert.Equal(t, "quantity", verr.Issues[2].Field)
	assert.Equal(t, model.SideExcel, verr.Issues[3].Side)
}

func TestReconcile_Valid(t *testing.T) {
	rep, err := Reconcile(
		[]model.LineItem{item("TOMADA DE PISO", 51, "un")},
		[]model.LineItem{item("Tomada de piso", 51, "UN")},
		model.DefaultOptions(),
	)
	require.NoError(t, err)
	require.Len(t, rep.Rows, 1)
	assert.Equal(t, model.StatusMatch, rep.Rows[0].Status)
}
