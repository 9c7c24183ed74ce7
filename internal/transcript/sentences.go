package transcript

import (
	"iter"
	"strings"

	"github.com/rivo/uniseg"
)

// Sentences yields the trimmed, non-empty sentences of text using Unicode
// sentence boundaries. The sequence is lazy and can be ranged over repeatedly.
func Sentences(text string) iter.Seq[string] {
	return func(yield func(string) bool) {
		rest := text
		state := -1
		var sentence string
		for len(rest) > 0 {
			sentence, rest, state = uniseg.FirstSentenceInString(rest, state)
			trimmed := strings.TrimSpace(sentence)
			if trimmed == "" {
				continue
			}
			if !yield(trimmed) {
				return
			}
		}
	}
}
