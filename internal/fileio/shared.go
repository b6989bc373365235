package fileio

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// ErrUnsupported — расширение файла не поддерживается.
var ErrUnsupported = errors.New("unsupported file type")

// ReadAnyMaps — выберет парсер по расширению и вернёт строки как срез map[header]value.
// headerRow — номер строки заголовков (1-based).
func ReadAnyMaps(r io.Reader, filename string, headerRow int) ([]map[string]string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	var (
		rows []map[string]string
		err  error
	)
	switch ext {
	case ".xlsx":
		rows, err = readXLSX(r, headerRow)
	case ".xls":
		rows, err = readXLS(r, headerRow)
	case ".csv", ".txt":
		rows, err = readCSV(r, headerRow)
	default:
		return nil, errors.Wrapf(ErrUnsupported, "%s", filename)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", filename)
	}
	return rows, nil
}

// pickHeader — берёт строку заголовков и подставляет Column N для пустых.
func pickHeader(rows [][]string, headerRow int) []string {
	idx := headerRow - 1
	if idx < 0 || idx >= len(rows) {
		idx = 0
	}
	h := rows[idx]
	out := make([]string, len(h))
	for i, v := range h {
		v = normalizeCell(strings.TrimPrefix(v, "\ufeff"))
		if v == "" {
			v = fmt.Sprintf("Column %d", i+1)
		}
		out[i] = v
	}
	return out
}

// rowsToMaps — конвертирует AoA в []map по заголовкам, пропуская полностью пустые строки.
func rowsToMaps(rows [][]string, headers []string, headerRow int) []map[string]string {
	start := max(headerRow, 1) // первая строка после заголовков
	var out []map[string]string
	for r := start; r < len(rows); r++ {
		rec := rows[r]
		m := make(map[string]string, len(headers))
		empty := true
		for c := range headers {
			var v string
			if c < len(rec) {
				v = normalizeCell(rec[c])
			}
			if v != "" {
				empty = false
			}
			m[headers[c]] = v
		}
		if !empty {
			out = append(out, m)
		}
	}
	return out
}

// normalizeCell — NBSP и прочие спец-пробелы → пробел, обрезка краёв.
func normalizeCell(s string) string {
	s = strings.NewReplacer("\u00A0", " ", "\u202F", " ", "\u2009", " ", "\r", " ", "\n", " ").Replace(s)
	return strings.TrimSpace(s)
}
