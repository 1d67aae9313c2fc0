package layout

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

const DefaultMaxButtonsPerLine = 8

const (
	MsgLineMustBeArray   = "Each line in layout must be an array."
	MsgTooManyButtons    = "A line cannot have more than %d buttons."
	MsgInvalidButtonID   = "Button ID must be a positive integer or a string with prefix (button_, category_, product_) followed by a positive integer."
	MsgInvalidCellType   = "Button ID must be a string or integer."
	MsgLayoutMustBeArray = "Layout must be an array of lines."
)

// Layout is the authored keyboard grid: rows of raw cells.
type Layout [][]Cell

// UnmarshalJSON decodes row by row so that a malformed row is reported with
// its position instead of a generic type mismatch.
func (l *Layout) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*l = nil
		return nil
	}

	var rows []json.RawMessage
	if err := json.Unmarshal(data, &rows); err != nil {
		return ValidationErrors{{Path: "layout", Message: MsgLayoutMustBeArray}}
	}

	var errs ValidationErrors
	out := make(Layout, 0, len(rows))
	for i, raw := range rows {
		raw = bytes.TrimSpace(raw)
		if len(raw) == 0 || raw[0] != '[' {
			errs = append(errs, Violation{Path: fmt.Sprintf("layout[%d]", i), Message: MsgLineMustBeArray})
			continue
		}

		var cells []json.RawMessage
		if err := json.Unmarshal(raw, &cells); err != nil {
			errs = append(errs, Violation{Path: fmt.Sprintf("layout[%d]", i), Message: MsgLineMustBeArray})
			continue
		}

		row := make([]Cell, 0, len(cells))
		for j, rawCell := range cells {
			cell, err := decodeCell(rawCell)
			if err != nil {
				errs = append(errs, Violation{Path: fmt.Sprintf("layout[%d][%d]", i, j), Message: MsgInvalidCellType})
				continue
			}
			row = append(row, cell)
		}
		out = append(out, row)
	}

	if len(errs) > 0 {
		return errs
	}
	*l = out
	return nil
}

// Violation is one write-time layout problem.
type Violation struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

type ValidationErrors []Violation

func (v ValidationErrors) Error() string {
	parts := make([]string, 0, len(v))
	for _, e := range v {
		parts = append(parts, e.Path+": "+e.Message)
	}
	return strings.Join(parts, "; ")
}

// Validate checks a layout before it is persisted. The formatter itself never
// rejects anything; this is where authors get told about bad cells.
func Validate(rows Layout, maxPerLine int) error {
	if maxPerLine <= 0 {
		maxPerLine = DefaultMaxButtonsPerLine
	}

	var errs ValidationErrors
	for i, row := range rows {
		if len(row) > maxPerLine {
			errs = append(errs, Violation{
				Path:    fmt.Sprintf("layout[%d]", i),
				Message: fmt.Sprintf(MsgTooManyButtons, maxPerLine),
			})
		}
		for j, cell := range row {
			if _, ok := Resolve(cell); !ok {
				errs = append(errs, Violation{
					Path:    fmt.Sprintf("layout[%d][%d]", i, j),
					Message: MsgInvalidButtonID,
				})
			}
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// Refs lists every resolvable reference in the layout, in grid order.
func (l Layout) Refs() []Ref {
	var refs []Ref
	for _, row := range l {
		for _, cell := range row {
			if ref, ok := Resolve(cell); ok {
				refs = append(refs, ref)
			}
		}
	}
	return refs
}
