package layout

type FormattedLayout [][]FormattedButton

// Format resolves every cell through refs by its raw key. Cells with no entry
// are dropped in place and rows left empty are dropped. The result is never nil.
func Format(rows Layout, refs ReferenceMap) FormattedLayout {
	out := make(FormattedLayout, 0, len(rows))
	for _, row := range rows {
		line := make([]FormattedButton, 0, len(row))
		for _, cell := range row {
			if btn, ok := refs[cell.Key()]; ok {
				line = append(line, btn)
			}
		}
		if len(line) > 0 {
			out = append(out, line)
		}
	}
	return out
}
