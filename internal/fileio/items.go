package fileio

import (
	"io"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/pkg/errors"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"material-recon/internal/reconcile/model"
	"material-recon/internal/utils"
)

// ReadLineItems читает таблицу и раскладывает её строки в позиции по маппингу.
func ReadLineItems(r io.Reader, filename string, m model.Mapping) ([]model.LineItem, error) {
	maps, err := ReadAnyMaps(r, filename, m.HeaderRow)
	if err != nil {
		return nil, err
	}
	return ToLineItems(maps, m)
}

// ErrColumnNotFound — в таблице нет колонки наименования или количества.
var ErrColumnNotFound = errors.New("column not found")

// ToLineItems — строки без наименования или без числа в колонке количества
// (заголовки разделов, подытоги) пропускаются. Отрицательные количества
// не отбрасываются: их отклонит валидация с понятной ошибкой.
func ToLineItems(maps []map[string]string, m model.Mapping) ([]model.LineItem, error) {
	items := make([]model.LineItem, 0, len(maps))
	if len(maps) == 0 {
		return items, nil
	}
	// заголовки одинаковые во всех записях — резолвим один раз
	descKey := resolveKey(maps[0], m.DescKey)
	if descKey == "" {
		return nil, errors.Wrapf(ErrColumnNotFound, "description %q", m.DescKey)
	}
	qtyKey := resolveKey(maps[0], m.QtyKey)
	if qtyKey == "" {
		return nil, errors.Wrapf(ErrColumnNotFound, "quantity %q", m.QtyKey)
	}
	unitKey := resolveKey(maps[0], m.UnitKey)

	for _, rec := range maps {
		// пропуск повторных шапок и итогов
		if looksLikeHeaderMap(rec) {
			continue
		}
		desc := strings.TrimSpace(rec[descKey])
		if desc == "" || looksLikeTotal(desc) {
			continue
		}
		qty, ok := utils.ParseQuantity(rec[qtyKey])
		if !ok {
			continue
		}
		unit := ""
		if unitKey != "" {
			unit = strings.TrimSpace(rec[unitKey])
		}
		items = append(items, model.LineItem{Description: desc, Quantity: qty, Unit: unit})
	}
	return items, nil
}

var reNonWord = regexp.MustCompile(`[^\p{L}\p{N}]+`)

// нормализуем имя колонки: нижний регистр, без диакритики, служ.символы → пробел
func normHeaderKey(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if out, _, err := transform.String(t, s); err == nil {
		s = out
	}
	s = strings.ToLower(normalizeCell(s))
	s = reNonWord.ReplaceAllString(s, " ")
	return strings.Join(strings.Fields(s), " ")
}

// ищем реальный ключ в записи по желаемому имени.
// Поддерживает варианты через "|" (например: "Descrição|Material")
func resolveKey(rec map[string]string, want string) string {
	want = strings.TrimSpace(want)
	if want == "" {
		return ""
	}
	alts := strings.Split(want, "|")
	for i := range alts {
		alts[i] = strings.TrimSpace(alts[i])
	}

	// 1) точное совпадение (как есть), в порядке альтернатив
	for _, a := range alts {
		if _, ok := rec[a]; ok {
			return a
		}
	}

	nAlts := make([]string, 0, len(alts))
	for _, a := range alts {
		if n := normHeaderKey(a); n != "" {
			nAlts = append(nAlts, n)
		}
	}

	// 2) точное по нормализованному, тоже в порядке альтернатив
	for _, n := range nAlts {
		for k := range rec {
			if normHeaderKey(k) == n {
				return k
			}
		}
	}

	// 3) частичное: "quantidade total" содержит "quantidade".
	// Ключи перебираем в детерминированном порядке, лучший — самое длинное вхождение.
	bestKey, bestScore := "", 0
	for _, k := range sortedKeys(rec) {
		nk := normHeaderKey(k)
		for _, n := range nAlts {
			// короткие "un"/"qtd" частично не ищем: "valor unitario" — не единица
			if len(n) < 5 {
				continue
			}
			if strings.Contains(nk, n) && len(n) > bestScore {
				bestScore, bestKey = len(n), k
			}
		}
	}
	return bestKey
}

func looksLikeHeaderMap(m map[string]string) bool {
	cnt := 0
	for _, v := range m {
		s := normHeaderKey(v)
		if strings.Contains(s, "descri") || strings.Contains(s, "quantidade") ||
			strings.Contains(s, "unidade") || s == "qtd" || s == "qtde" || s == "item" {
			cnt++
		}
	}
	return cnt >= 2
}

// итоги и подытоги по разделам — не материал
func looksLikeTotal(desc string) bool {
	s := normHeaderKey(desc)
	return strings.HasPrefix(s, "total") || strings.HasPrefix(s, "subtotal") || strings.HasPrefix(s, "sub total")
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
