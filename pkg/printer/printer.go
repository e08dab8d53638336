// Package printer renders a module after a set of byte-range edits.
//
// Edits never reformat surviving code: everything outside an edit range is
// copied verbatim, so statement order and formatting are preserved.
package printer

import (
	"bytes"
	"errors"
	"fmt"
	"sort"
)

var (
	// ErrOverlap is returned when two edits partially overlap.
	ErrOverlap = errors.New("overlapping edits")
	// ErrOutOfRange is returned when an edit falls outside the source.
	ErrOutOfRange = errors.New("edit out of range")
)

// Edit replaces source[Start:End] with Text. An empty Text deletes the range.
type Edit struct {
	Start uint32
	End   uint32
	Text  string
}

// Delete returns an edit removing source[start:end].
func Delete(start, end uint32) Edit {
	return Edit{Start: start, End: end}
}

// Replace returns an edit substituting text for source[start:end].
func Replace(start, end uint32, text string) Edit {
	return Edit{Start: start, End: end, Text: text}
}

// Len returns the number of source bytes covered by the edit.
func (e Edit) Len() uint32 {
	return e.End - e.Start
}

// contains reports whether o lies inside e. An insertion only lies inside
// when it is strictly between e's bounds.
func (e Edit) contains(o Edit) bool {
	if e.Len() == 0 {
		return false
	}
	if o.Len() == 0 {
		return e.Start < o.Start && o.Start < e.End
	}
	return e.Start <= o.Start && o.End <= e.End
}

// Sort orders edits by start ascending. On ties insertions come first, then
// wider edits.
func Sort(edits []Edit) {
	sort.SliceStable(edits, func(i, j int) bool {
		a, b := edits[i], edits[j]
		if a.Start != b.Start {
			return a.Start < b.Start
		}
		if (a.Len() == 0) != (b.Len() == 0) {
			return a.Len() == 0
		}
		return a.End > b.End
	})
}

// Normalize sorts edits and drops any edit fully contained in an earlier one.
// Partial overlaps are reported as ErrOverlap.
func Normalize(edits []Edit, size int) ([]Edit, error) {
	sorted := make([]Edit, len(edits))
	copy(sorted, edits)
	Sort(sorted)

	out := sorted[:0]
	for _, e := range sorted {
		if e.Start > e.End || int(e.End) > size {
			return nil, fmt.Errorf("%w: [%d,%d) in %d bytes", ErrOutOfRange, e.Start, e.End, size)
		}
		if len(out) > 0 {
			last := out[len(out)-1]
			if last.contains(e) {
				continue
			}
			if e.Start < last.End {
				return nil, fmt.Errorf("%w: [%d,%d) and [%d,%d)", ErrOverlap, last.Start, last.End, e.Start, e.End)
			}
		}
		out = append(out, e)
	}
	return out, nil
}

// Apply returns source with edits applied. The input slice is not modified.
func Apply(source []byte, edits []Edit) ([]byte, error) {
	if len(edits) == 0 {
		out := make([]byte, len(source))
		copy(out, source)
		return out, nil
	}

	normalized, err := Normalize(edits, len(source))
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.Grow(len(source))
	var cursor uint32
	for _, e := range normalized {
		buf.Write(source[cursor:e.Start])
		buf.WriteString(e.Text)
		cursor = e.End
	}
	buf.Write(source[cursor:])
	return buf.Bytes(), nil
}
