package translate

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/rivo/uniseg"
)

// Limit bounds a chunk by rune count, byte length or both. Zero fields are
// unbounded.
type Limit struct {
	Runes int
	Bytes int
}

func (l Limit) unbounded() bool {
	return l.Runes <= 0 && l.Bytes <= 0
}

func (l Limit) fits(runes, bytes int) bool {
	return (l.Runes <= 0 || runes <= l.Runes) && (l.Bytes <= 0 || bytes <= l.Bytes)
}

// Split breaks text into pieces of at most limit runes, preferring sentence
// boundaries, then word boundaries, then plain rune offsets. Whitespace stays
// attached to the end of the piece it follows, so strings.Join(pieces, "")
// always equals text. A non-positive limit returns text unchanged.
func Split(text string, limit int) []string {
	return SplitLimit(text, Limit{Runes: limit})
}

// SplitLimit is Split with a rune and byte budget. A single rune wider than
// the byte budget still gets a piece of its own.
func SplitLimit(text string, limit Limit) []string {
	if limit.unbounded() || limit.fits(utf8.RuneCountInString(text), len(text)) {
		return []string{text}
	}
	return pack(sentencePieces(text), limit, func(sentence string) []string {
		return pack(wordPieces(sentence), limit, func(word string) []string {
			return runePieces(word, limit)
		})
	})
}

// pack greedily joins adjacent pieces while they fit in limit; pieces that are
// too long on their own are handed to refine.
func pack(pieces []string, limit Limit, refine func(string) []string) []string {
	var out []string
	var current strings.Builder
	runes := 0
	flush := func() {
		if current.Len() > 0 {
			out = append(out, current.String())
			current.Reset()
			runes = 0
		}
	}
	for _, piece := range pieces {
		n := utf8.RuneCountInString(piece)
		if !limit.fits(n, len(piece)) {
			flush()
			out = append(out, refine(piece)...)
			continue
		}
		if !limit.fits(runes+n, current.Len()+len(piece)) {
			flush()
		}
		current.WriteString(piece)
		runes += n
	}
	flush()
	return out
}

func sentencePieces(text string) []string {
	var pieces []string
	state := -1
	var sentence string
	for len(text) > 0 {
		sentence, text, state = uniseg.FirstSentenceInString(text, state)
		pieces = append(pieces, sentence)
	}
	return pieces
}

// wordPieces cuts text after each run of whitespace.
func wordPieces(text string) []string {
	var pieces []string
	start := 0
	inSpace := false
	for i, r := range text {
		space := unicode.IsSpace(r)
		if inSpace && !space {
			pieces = append(pieces, text[start:i])
			start = i
		}
		inSpace = space
	}
	if start < len(text) {
		pieces = append(pieces, text[start:])
	}
	return pieces
}

func runePieces(text string, limit Limit) []string {
	var pieces []string
	for len(text) > 0 {
		_, end := utf8.DecodeRuneInString(text)
		for count := 1; end < len(text); count++ {
			_, size := utf8.DecodeRuneInString(text[end:])
			if !limit.fits(count+1, end+size) {
				break
			}
			end += size
		}
		pieces = append(pieces, text[:end])
		text = text[end:]
	}
	return pieces
}

// splitPadding separates leading and trailing whitespace from the core text.
func splitPadding(text string) (lead, core, trail string) {
	trimmedLeft := strings.TrimLeftFunc(text, unicode.IsSpace)
	lead = text[:len(text)-len(trimmedLeft)]
	core = strings.TrimRightFunc(trimmedLeft, unicode.IsSpace)
	trail = trimmedLeft[len(core):]
	return lead, core, trail
}
