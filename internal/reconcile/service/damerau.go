package service

// damerauLevenshtein — расстояние с транспозицией соседних символов (OSA).
// Держим только три строки матрицы: prev2, prev, cur.
func damerauLevenshtein(a, b []rune) int {
	al, bl := len(a), len(b)
	if al == 0 {
		return bl
	}
	if bl == 0 {
		return al
	}

	prev2 := make([]int, bl+1)
	prev := make([]int, bl+1)
	cur := make([]int, bl+1)
	for j := 0; j <= bl; j++ {
		prev[j] = j
	}

	for i := 1; i <= al; i++ {
		cur[0] = i
		for j := 1; j <= bl; j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			// вставка / удаление / замена
			cur[j] = min(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)

			// транспозиция
			if i > 1 && j > 1 && a[i-1] == b[j-2] && a[i-2] == b[j-1] {
				cur[j] = min(cur[j], prev2[j-2]+1)
			}
		}
		prev2, prev, cur = prev, cur, prev2
	}
	return prev[bl]
}

// editSimilarity — нормированная схожесть в [0..1]; симметрична.
func editSimilarity(a, b string) float64 {
	if a == b {
		return 1
	}
	ra, rb := []rune(a), []rune(b)
	m := max(len(ra), len(rb))
	if m == 0 {
		return 1
	}
	return 1 - float64(damerauLevenshtein(ra, rb))/float64(m)
}
