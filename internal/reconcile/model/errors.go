package model

import (
	"fmt"
	"strings"
)

// Issue — одна проблема во входных данных.
type Issue struct {
	Side   Side   `json:"side,omitempty"`
	Index  int    `json:"index"` // 0-based позиция в списке; -1 для опций
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// ValidationError собирает все проблемы входа сразу, а не первую попавшуюся.
type ValidationError struct {
	Issues []Issue `json:"issues"`
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Issues))
	for _, is := range e.Issues {
		if is.Side != "" {
			parts = append(parts, fmt.Sprintf("%s[%d].%s: %s", is.Side, is.Index, is.Field, is.Reason))
		} else {
			parts = append(parts, fmt.Sprintf("%s: %s", is.Field, is.Reason))
		}
	}
	return "invalid input: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Add(is Issue) { e.Issues = append(e.Issues, is) }

func (e *ValidationError) Empty() bool { return len(e.Issues) == 0 }
