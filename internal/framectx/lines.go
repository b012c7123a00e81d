package framectx

import "github.com/pvann/faultline/internal/event"

// SelectLines returns the ordered subset of a frame's context window to
// render. Expanded returns the full window unchanged; collapsed returns only
// the entries matching activeLine. An empty result is a valid, silent outcome
// (the active line may fall outside the fetched window).
func SelectLines(lines []event.ContextLine, activeLine int, expanded bool) []event.ContextLine {
	if expanded {
		return lines
	}
	var selected []event.ContextLine
	for _, line := range lines {
		if line.Lineno == activeLine {
			selected = append(selected, line)
		}
	}
	return selected
}

// StartLine returns the line-numbering origin for an expanded selection:
// the first selected line's number, or 0 when collapsed or empty.
func StartLine(selected []event.ContextLine, expanded bool) int {
	if !expanded || len(selected) == 0 {
		return 0
	}
	return selected[0].Lineno
}
