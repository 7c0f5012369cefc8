// Package edit queues byte-span replacements against a source text and
// applies them in a single pass.
package edit

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrOverlap is returned when two queued edits cover overlapping spans.
	ErrOverlap = errors.New("overlapping edits")
	// ErrOutOfRange is returned when an edit span falls outside the source.
	ErrOutOfRange = errors.New("edit out of range")
)

// Edit replaces source[Start:End] with Text. Offsets are bytes into the
// text the edit was computed against.
type Edit struct {
	Start int
	End   int
	Text  string
}

// Batch accumulates edits for one source text.
type Batch struct {
	edits []Edit
}

// Add queues edits as-is.
func (b *Batch) Add(edits ...Edit) {
	b.edits = append(b.edits, edits...)
}

// Replace queues a replacement of [start, end) with text.
func (b *Batch) Replace(start, end int, text string) {
	b.Add(Edit{Start: start, End: end, Text: text})
}

// Insert queues text at offset. Inserts at the same offset keep their
// queue order.
func (b *Batch) Insert(offset int, text string) {
	b.Replace(offset, offset, text)
}

// Delete queues removal of [start, end).
func (b *Batch) Delete(start, end int) {
	b.Replace(start, end, "")
}

// Len returns the number of queued edits.
func (b *Batch) Len() int {
	return len(b.edits)
}

// Commit applies every queued edit to source. changed is false when no edits
// were queued; it is true whenever at least one edit was applied, even if the
// result happens to equal the input. Either all edits apply or none do.
func (b *Batch) Commit(source []byte) (out string, changed bool, err error) {
	if len(b.edits) == 0 {
		return "", false, nil
	}

	sorted := make([]Edit, len(b.edits))
	copy(sorted, b.edits)
	// Inserts sort before a replacement starting at the same offset.
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Start != sorted[j].Start {
			return sorted[i].Start < sorted[j].Start
		}
		return sorted[i].End < sorted[j].End
	})

	var sb strings.Builder
	sb.Grow(len(source))
	pos := 0
	for i, e := range sorted {
		if e.Start < 0 || e.End < e.Start || e.End > len(source) {
			return "", false, fmt.Errorf("%w: [%d,%d) in %d bytes", ErrOutOfRange, e.Start, e.End, len(source))
		}
		if i > 0 && e.Start < sorted[i-1].End {
			prev := sorted[i-1]
			return "", false, fmt.Errorf("%w: [%d,%d) and [%d,%d)", ErrOverlap, prev.Start, prev.End, e.Start, e.End)
		}
		sb.Write(source[pos:e.Start])
		sb.WriteString(e.Text)
		pos = e.End
	}
	sb.Write(source[pos:])
	return sb.String(), true, nil
}
