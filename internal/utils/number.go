package utils

import (
	"regexp"
	"strconv"
	"strings"
)

var rxKeepNums = regexp.MustCompile(`[^\d\.,\-]`)

// число заканчивается на первой букве после цифры: "10 m2" → "10"
var rxNumEnd = regexp.MustCompile(`\d\p{L}`)

// ParseQuantity парсит количества из смет и выгрузок:
// "312,4", "1.234,56" (pt-BR), "1,234.56" (en), "1 234,50" (NBSP/NNBSP), "(12)" как -12.
// Десятичный разделитель — последний из '.' и ','; второй считается разделителем тысяч.
func ParseQuantity(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	neg := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		neg = true
		s = s[1 : len(s)-1]
	}
	// убрать неразрывные/узкие пробелы и обычные пробелы
	s = strings.NewReplacer("\u00A0", "", "\u202F", "", "\u2009", "", " ", "", "\t", "").Replace(s)
	if loc := rxNumEnd.FindStringIndex(s); loc != nil {
		s = s[:loc[0]+1]
	}
	// оставить только цифры, разделители и минус (единицы, валюта и прочий мусор)
	s = rxKeepNums.ReplaceAllString(s, "")

	dot, comma := strings.LastIndex(s, "."), strings.LastIndex(s, ",")
	switch {
	case dot >= 0 && comma >= 0:
		if comma > dot {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case comma >= 0:
		if strings.Count(s, ",") > 1 {
			s = strings.ReplaceAll(s, ",", "")
		} else {
			s = strings.Replace(s, ",", ".", 1)
		}
	case dot >= 0 && strings.Count(s, ".") > 1:
		// "1.234.567" — только тысячи
		s = strings.ReplaceAll(s, ".", "")
	}

	if s == "" || s == "-" || s == "." {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	if neg {
		f = -f
	}
	return f, true
}
