package model

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// SimilarityPlaces — сколько знаков similarity уходит наружу (проценты с двумя знаками).
const SimilarityPlaces = 4

// MarshalJSON фиксирует точность similarity, остальные поля как есть.
func (r ReconciledRow) MarshalJSON() ([]byte, error) {
	type plain ReconciledRow
	out := plain(r)
	out.Similarity = RoundSimilarity(r.Similarity)
	return json.Marshal(out)
}

func RoundSimilarity(s float64) float64 {
	return decimal.NewFromFloat(s).Round(SimilarityPlaces).InexactFloat64()
}

// SimilarityPercent — similarity для отображения: проценты с двумя знаками.
func SimilarityPercent(s float64) float64 {
	return decimal.NewFromFloat(s).Shift(2).Round(SimilarityPlaces - 2).InexactFloat64()
}
