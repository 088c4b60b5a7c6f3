package redaction

import (
	"unicode/utf8"

	"github.com/jonathan/sop-question-agent/internal/types"
)

// Span offsets leave this package as character (rune) offsets, which is what
// the analyzer service reports and what clients highlight with. Internally
// text is sliced by byte.

// runeToByte converts character-offset spans into byte-offset spans for text.
// Spans that fall outside text are dropped.
func runeToByte(text string, spans []types.PiiSpan) []types.PiiSpan {
	byteAt := make([]int, 0, utf8.RuneCountInString(text)+1)
	for i := range text {
		byteAt = append(byteAt, i)
	}
	byteAt = append(byteAt, len(text))

	out := make([]types.PiiSpan, 0, len(spans))
	for _, s := range spans {
		if s.Start < 0 || s.End >= len(byteAt) || s.Start >= s.End {
			continue
		}
		s.Start, s.End = byteAt[s.Start], byteAt[s.End]
		out = append(out, s)
	}
	return out
}

// byteToRune converts byte-offset spans into character-offset spans for text.
func byteToRune(text string, spans []types.PiiSpan) []types.PiiSpan {
	out := make([]types.PiiSpan, 0, len(spans))
	for _, s := range spans {
		s.Start, s.End = utf8.RuneCountInString(text[:s.Start]), utf8.RuneCountInString(text[:s.End])
		out = append(out, s)
	}
	return out
}
