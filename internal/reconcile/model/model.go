package model

import (
	"fmt"
	"math"
	"strings"
)

// Side — из какого источника пришла позиция
type Side string

const (
	SidePDF   Side = "pdf"
	SideExcel Side = "excel"
)

type Status string

const (
	StatusMatch    Status = "match"    // пара найдена, количества равны
	StatusMismatch Status = "mismatch" // пара найдена, количества расходятся
	StatusMissing  Status = "missing"  // есть только в PDF
	StatusExtra    Status = "extra"    // есть только в таблице
)

// Mapping описывает, из каких колонок таблицы брать позицию.
// Ключи поддерживают альтернативы через "|" (например "Descrição|Material").
type Mapping struct {
	DescKey   string // колонка с наименованием
	QtyKey    string // колонка с количеством
	UnitKey   string // колонка с единицей (опционально)
	HeaderRow int    // строка заголовков (1-based)
}

// DefaultMapping — заголовки, которые встречаются в сметах и выгрузках.
func DefaultMapping() Mapping {
	return Mapping{
		DescKey:   "Descrição|Descricao|Material|Item|Description",
		QtyKey:    "Quantidade|Qtde|Qtd|Quant|Quantity|Qty",
		UnitKey:   "Unidade|Und|Un|Unid|Unit",
		HeaderRow: 1,
	}
}

type Options struct {
	MatchThreshold float64 `json:"matchThreshold"` // минимальная схожесть для пары (0..1)
	NormalizeUnits bool    `json:"normalizeUnits"` // канонизировать единицы в описании
}

const DefaultMatchThreshold = 0.6

func DefaultOptions() Options {
	return Options{MatchThreshold: DefaultMatchThreshold, NormalizeUnits: true}
}

// LineItem — одна позиция из PDF или из таблицы. После чтения не меняется.
type LineItem struct {
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	Unit        string  `json:"unit"`
}

// Validate проверяет позицию на границе, до запуска сверки.
// Сторону и индекс заполняет вызывающий.
func (li LineItem) Validate() []Issue {
	var out []Issue
	if strings.TrimSpace(li.Description) == "" {
		out = append(out, Issue{Field: "description", Reason: "empty description"})
	}
	switch {
	case math.IsNaN(li.Quantity) || math.IsInf(li.Quantity, 0):
		out = append(out, Issue{Field: "quantity", Reason: "not a finite number"})
	case li.Quantity < 0:
		out = append(out, Issue{Field: "quantity", Reason: fmt.Sprintf("negative quantity %v", li.Quantity)})
	}
	return out
}

// CandidatePair — индексы в исходных списках; -1 означает отсутствующую сторону.
type CandidatePair struct {
	PDF        int
	Excel      int
	Similarity float64
}

func (p CandidatePair) Matched() bool { return p.PDF >= 0 && p.Excel >= 0 }

type ReconciledRow struct {
	Description   string   `json:"description"`
	PDFQuantity   *float64 `json:"pdfQuantity,omitempty"`
	PDFUnit       string   `json:"pdfUnit,omitempty"`
	ExcelQuantity *float64 `json:"excelQuantity,omitempty"`
	ExcelUnit     string   `json:"excelUnit,omitempty"`
	Status        Status   `json:"status"`
	Similarity    float64  `json:"similarity"`
	Difference    float64  `json:"difference"` // excel - pdf
}

type Summary struct {
	Total          int `json:"total"`
	Match          int `json:"match"`
	Mismatch       int `json:"mismatch"`
	Missing        int `json:"missing"`
	Extra          int `json:"extra"`
	NeedsAttention int `json:"needsAttention"` // missing + extra, для UI
}

type Report struct {
	Rows    []ReconciledRow `json:"rows"`
	Summary Summary         `json:"summary"`
}
