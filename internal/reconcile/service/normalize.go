package service

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Синонимы единиц → каноническая форма. Ключи уже без диакритики и в нижнем регистре.
var unitAliases = map[string]string{
	"m": "m", "mt": "m", "mts": "m", "metro": "m", "metros": "m",
	"mm": "mm", "cm": "cm", "km": "km",
	"m2": "m2", "mm2": "mm2", "cm2": "cm2", "m3": "m3",
	"kg": "kg", "g": "g", "gr": "g",
	"l": "l", "lt": "l", "litro": "l", "litros": "l", "ml": "ml",
	"un": "un", "und": "un", "unid": "un", "unidade": "un", "unidades": "un",
	"pc": "pc", "pcs": "pc", "peca": "pc", "pecas": "pc",
	"pol": "pol", "polegada": "pol", "polegadas": "pol", `"`: "pol",
	"cx": "cx", "rl": "rl", "br": "br", "cj": "cj", "jg": "jg",
	"v": "v", "kv": "kv", "w": "w", "kw": "kw", "kva": "kva", "hz": "hz",
	"%": "%",
}

// 1,5 → 1.5
var decComma = regexp.MustCompile(`(\d),(\d)`)

// 3x1.5 / 3 X 1.5 / 3×1.5 → "3 x 1.5"
var dimSep = regexp.MustCompile(`(\d)\s*[x×*]\s*(\d)`)

// Разрешаем буквы/цифры/пробелы + . / % " (дроби, дюймы, проценты)
var punct = regexp.MustCompile(`[^\p{L}\p{N}\s./%"]+`)

// число (включая 1.5 и 3/4), сразу за которым идёт единица: "1.5mts", "3/4""
var reNumSuffix = regexp.MustCompile(`^(\d+(?:[./]\d+)*)([\p{L}%"]+)$`)

var reNumber = regexp.MustCompile(`^\d+(?:[./]\d+)*$`)

// Normalize превращает описание в ключ для сравнения. Чистая функция,
// никогда не падает: мусор на входе даёт пустой или короткий ключ.
func Normalize(s string, normalizeUnits bool) string {
	if s == "" {
		return ""
	}

	// 1) диакритика и совместимые формы: "ç"→"c", "²"→"2"
	out := strings.ToLower(foldMarks(s))

	// 2) десятичная запятая, до чистки пунктуации
	out = decComma.ReplaceAllString(out, "$1.$2")

	// 3) разделитель размеров отдельным токеном
	out = isolateDimensions(out)

	// 4) пунктуация → пробел
	out = punct.ReplaceAllString(out, " ")
	if normalizeUnits {
		out = strings.ReplaceAll(out, `"`, ` " `)
	}

	tokens := make([]string, 0, 8)
	for _, t := range strings.Fields(out) {
		if t = cleanToken(t); t != "" {
			tokens = append(tokens, t)
		}
	}

	// 5) единицы: канонизируем и приклеиваем к числу; без опции оставляем как написаны
	if normalizeUnits {
		tokens = canonUnits(tokens)
	}
	return strings.Join(tokens, " ")
}

// NormalizeUnit приводит поле unit позиции к виду, пригодному для сравнения.
func NormalizeUnit(u string, normalizeUnits bool) string {
	u = strings.Trim(strings.ToLower(foldMarks(strings.TrimSpace(u))), ". ")
	if !normalizeUnits {
		return u
	}
	if c, ok := unitAliases[u]; ok {
		return c
	}
	return u
}

// ===== helpers =====

func foldMarks(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	// дробная черта из "½" после NFKD
	return strings.ReplaceAll(out, "⁄", "/")
}

// итеративно, т.к. regexp не ловит перекрывающиеся "3x4x5"
func isolateDimensions(s string) string {
	prev := ""
	out := s
	for out != prev {
		prev = out
		out = dimSep.ReplaceAllString(out, "$1 x $2")
	}
	return out
}

// точки и слэши имеют смысл только внутри чисел
func cleanToken(t string) string {
	t = strings.Trim(t, "./")
	if !strings.ContainsFunc(t, unicode.IsDigit) {
		t = strings.NewReplacer(".", "", "/", "").Replace(t)
	}
	return t
}

func canonUnits(tokens []string) []string {
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if c, ok := unitAliases[t]; ok {
			// "1.5 mm2" → "1.5mm2"
			if n := len(out); n > 0 && reNumber.MatchString(out[n-1]) {
				out[n-1] += c
				continue
			}
			out = append(out, c)
			continue
		}
		// "1.5mts" → "1.5m"
		if m := reNumSuffix.FindStringSubmatch(t); m != nil {
			if c, ok := unitAliases[m[2]]; ok {
				t = m[1] + c
			}
		}
		out = append(out, t)
	}
	return out
}
