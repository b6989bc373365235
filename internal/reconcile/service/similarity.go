package service

import (
	"sort"
	"strings"
	"unicode"
)

const (
	// частичный зачёт только для буквенных токенов от такой длины
	softMinLen = 4
	// и только если они достаточно похожи (опечатки, окончания: "femea"/"femeas")
	softMinSim = 0.75
)

// Score — схожесть двух нормализованных ключей в [0..1].
//
// Каждый токен (вес = длина) получает зачёт по лучшему партнёру с другой
// стороны: 1 за точное совпадение, схожесть по Дамерау–Левенштейну для
// похожих буквенных токенов, иначе 0. Доля зачтённого веса d переводится
// в шкалу Жаккара: d / (2 - d); без частичных зачётов это ровно
// взвешенный Жаккар. Токены с цифрами совпадают только точно:
// "1.5mm2" и "2.5mm2" — разные.
//
// Лучший партнёр токена от добавления токенов может только улучшиться,
// поэтому общий токен score не уменьшает, а несвязанный — не увеличивает.
func Score(a, b string) float64 {
	if a == b {
		return 1
	}
	ta, tb := tokens(a), tokens(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}

	// bestA[i] — лучший партнёр ta[i] в tb, bestB[j] — наоборот
	bestA := make([]float64, len(ta))
	bestB := make([]float64, len(tb))
	for i, x := range ta {
		for j, y := range tb {
			s := tokenSim(x, y)
			bestA[i] = max(bestA[i], s)
			bestB[j] = max(bestB[j], s)
		}
	}

	credit := weighted(ta, bestA) + weighted(tb, bestB)
	total := weighted(ta, nil) + weighted(tb, nil)
	d := credit / total
	return d / (2 - d)
}

func tokenSim(a, b string) float64 {
	if a == b {
		return 1
	}
	if !softEligible(a) || !softEligible(b) {
		return 0
	}
	if s := editSimilarity(a, b); s >= softMinSim {
		return s
	}
	return 0
}

// сумма весов токенов, умноженных на зачёт (nil — полный вес);
// порядок слагаемых фиксирован, чтобы Score(a,b) == Score(b,a) бит в бит
func weighted(toks []string, credit []float64) float64 {
	var sum float64
	for i, t := range toks {
		w := weight(t)
		if credit != nil {
			w *= credit[i]
		}
		sum += w
	}
	return sum
}

func softEligible(t string) bool {
	n := 0
	for _, r := range t {
		if !unicode.IsLetter(r) {
			return false
		}
		n++
	}
	return n >= softMinLen
}

// уникальные токены в отсортированном порядке
func tokens(s string) []string {
	fs := strings.Fields(s)
	sort.Strings(fs)
	out := fs[:0]
	for _, t := range fs {
		if len(out) == 0 || t != out[len(out)-1] {
			out = append(out, t)
		}
	}
	return out
}

func weight(t string) float64 { return float64(len([]rune(t))) }
