// Package textnorm accumulates streamed assistant output.
package textnorm

import "strings"

// Accumulator appends streamed deltas and hands back the whole value so far.
// With TrimLeading set, blank lines before the first visible content are
// dropped; code accumulators keep every byte.
type Accumulator struct {
	TrimLeading bool

	seenContent bool
	pending     strings.Builder
	value       strings.Builder
}

// NewTextAccumulator returns an accumulator for assistant prose.
func NewTextAccumulator() *Accumulator {
	return &Accumulator{TrimLeading: true}
}

// NewCodeAccumulator returns an accumulator for generated code.
func NewCodeAccumulator() *Accumulator {
	return &Accumulator{}
}

// Push ingests one delta. It returns the accumulated value and whether the
// delta changed it.
func (a *Accumulator) Push(delta string) (string, bool) {
	if delta == "" {
		return a.value.String(), false
	}
	if !a.TrimLeading || a.seenContent {
		a.value.WriteString(delta)
		return a.value.String(), true
	}

	a.pending.WriteString(delta)
	pending := a.pending.String()
	if strings.TrimSpace(pending) == "" {
		return a.value.String(), false
	}

	a.value.WriteString(TrimLeadingBlankLines(pending))
	a.pending.Reset()
	a.seenContent = true
	return a.value.String(), true
}

// String returns the accumulated value.
func (a *Accumulator) String() string {
	return a.value.String()
}

// Len returns the accumulated length in bytes.
func (a *Accumulator) Len() int {
	return a.value.Len()
}

// Reset empties the accumulator for the next turn.
func (a *Accumulator) Reset() {
	a.seenContent = false
	a.pending.Reset()
	a.value.Reset()
}

// TrimLeadingBlankLines removes leading blank lines while preserving
// intentional leading spaces on the first non-empty line.
func TrimLeadingBlankLines(text string) string {
	i := 0
	for i < len(text) {
		j := i
		for j < len(text) && (text[j] == ' ' || text[j] == '\t') {
			j++
		}
		if j >= len(text) {
			return text
		}

		switch text[j] {
		case '\n':
			i = j + 1
		case '\r':
			if j+1 < len(text) && text[j+1] == '\n' {
				i = j + 2
			} else {
				i = j + 1
			}
		default:
			return text[i:]
		}
	}
	return text[i:]
}
