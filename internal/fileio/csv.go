package fileio

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// readCSV reads CSV with headerRow (1-based), auto-detecting encoding and converting to UTF-8.
// Spreadsheets exported on pt-BR machines are usually Windows-1252 and ';'-separated.
func readCSV(r io.Reader, headerRow int) ([]map[string]string, error) {
	br := bufio.NewReader(r)

	// Peek a bit to detect encoding and delimiter
	peek, _ := br.Peek(4096)
	cs := "utf-8"
	if !validUTF8Prefix(peek) {
		cs = "windows-1252"
		if det, err := chardet.NewTextDetector().DetectBest(peek); err == nil && det != nil {
			cs = strings.ToLower(det.Charset)
		}
	}

	var dec io.Reader = br
	if enc := legacyCharset(cs); enc != nil {
		dec = transform.NewReader(br, enc.NewDecoder())
	}

	cr := csv.NewReader(dec)
	cr.Comma = sniffDelimiter(peek)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	var rows [][]string
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		rows = append(rows, rec)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	h := pickHeader(rows, headerRow)
	return rowsToMaps(rows, h, headerRow), nil
}

// legacyCharset — однобайтовые кодировки, которые реально встречаются в выгрузках.
// nil означает UTF-8. Всё не-UTF-8 и не кириллическое читаем как 1252:
// chardet на коротких файлах путает латинские кодировки между собой.
func legacyCharset(cs string) encoding.Encoding {
	switch cs {
	case "utf-8":
		return nil
	case "iso-8859-15":
		return charmap.ISO8859_15
	case "windows-1251", "cp1251":
		return charmap.Windows1251
	case "koi8-r":
		return charmap.KOI8R
	default:
		return charmap.Windows1252
	}
}

// validUTF8Prefix — как utf8.Valid, но терпит руну, обрезанную границей Peek.
func validUTF8Prefix(b []byte) bool {
	for i := 0; i < utf8.UTFMax && len(b) > 0; i++ {
		if utf8.Valid(b) {
			return true
		}
		if utf8.FullRune(b[len(b)-1:]) && b[len(b)-1] < utf8.RuneSelf {
			return false
		}
		b = b[:len(b)-1]
	}
	return len(b) == 0
}

// sniffDelimiter — по первой строке: ';' если его больше, чем ',' (Excel pt-BR), иначе ','.
// Табуляция тоже встречается при копировании из PDF.
func sniffDelimiter(peek []byte) rune {
	line := peek
	if i := bytes.IndexByte(peek, '\n'); i >= 0 {
		line = peek[:i]
	}
	semi := bytes.Count(line, []byte{';'})
	comma := bytes.Count(line, []byte{','})
	tab := bytes.Count(line, []byte{'\t'})
	switch {
	case tab > semi && tab > comma:
		return '\t'
	case semi > comma:
		return ';'
	default:
		return ','
	}
}
