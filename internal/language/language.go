package language

import (
	"errors"
	"fmt"
	"strings"

	xlanguage "golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// ErrUnknown reports input that does not name a language.
var ErrUnknown = errors.New("unknown language")

// Undetermined is the ISO 639-2 code for an unknown language.
const Undetermined = "und"

// bibliographic maps ISO 639-2/B codes that x/text does not canonicalize.
var bibliographic = map[string]string{
	"alb": "sq",
	"arm": "hy",
	"baq": "eu",
	"chi": "zh",
	"cze": "cs",
	"dut": "nl",
	"fre": "fr",
	"geo": "ka",
	"ger": "de",
	"gre": "el",
	"ice": "is",
	"mac": "mk",
	"per": "fa",
	"rum": "ro",
	"slo": "sk",
	"wel": "cy",
}

// namedCodes seeds the English-name index ("italian" -> "it").
var namedCodes = []string{
	"ar", "bg", "ca", "cs", "cy", "da", "de", "el", "en", "es", "et", "eu",
	"fa", "fi", "fr", "ga", "he", "hi", "hr", "hu", "hy", "id", "is", "it",
	"ja", "ka", "ko", "lt", "lv", "mk", "ms", "nl", "no", "pl", "pt", "ro",
	"ru", "sk", "sl", "sq", "sr", "sv", "sw", "th", "tr", "uk", "ur", "vi", "zh",
}

var byName map[string]string

func init() {
	namer := display.English.Languages()
	byName = make(map[string]string, len(namedCodes))
	for _, code := range namedCodes {
		base := xlanguage.MustParseBase(code)
		if name := strings.ToLower(namer.Name(base)); name != "" {
			byName[name] = code
		}
	}
}

func parseBase(code string) (xlanguage.Base, error) {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" || code == Undetermined {
		return xlanguage.Base{}, ErrUnknown
	}
	if alias, ok := bibliographic[code]; ok {
		code = alias
	} else if named, ok := byName[code]; ok {
		code = named
	}
	tag, err := xlanguage.Parse(strings.ReplaceAll(code, "_", "-"))
	if err != nil {
		return xlanguage.Base{}, fmt.Errorf("%w: %q", ErrUnknown, code)
	}
	base, confidence := tag.Base()
	if confidence == xlanguage.No || base.String() == Undetermined {
		return xlanguage.Base{}, fmt.Errorf("%w: %q", ErrUnknown, code)
	}
	return base, nil
}

// Normalize returns the shortest canonical code (ISO 639-1 where one exists)
// for a tag, ISO 639-2/3 code or English language name.
func Normalize(code string) (string, error) {
	base, err := parseBase(code)
	if err != nil {
		return "", err
	}
	return base.String(), nil
}

// ToISO2 converts any recognized input to ISO 639-1. Returns an empty string
// when the language is unknown or has no two-letter code.
func ToISO2(code string) string {
	base, err := parseBase(code)
	if err != nil {
		return ""
	}
	if short := base.String(); len(short) == 2 {
		return short
	}
	return ""
}

// ToISO3 converts any recognized input to ISO 639-2/T. Unknown input maps to
// "und" so the result is always safe to write into container metadata.
func ToISO3(code string) string {
	base, err := parseBase(code)
	if err != nil {
		return Undetermined
	}
	return base.ISO3()
}

// DisplayName returns the English name for a language code.
// Returns "Unknown" for empty input, or the uppercased code for unrecognized input.
func DisplayName(code string) string {
	if strings.TrimSpace(code) == "" {
		return "Unknown"
	}
	base, err := parseBase(code)
	if err != nil {
		return strings.ToUpper(strings.TrimSpace(code))
	}
	if name := display.English.Languages().Name(base); name != "" {
		return name
	}
	return strings.ToUpper(base.String())
}

// Equal reports whether two codes name the same base language.
func Equal(a, b string) bool {
	left, errA := parseBase(a)
	right, errB := parseBase(b)
	if errA != nil || errB != nil {
		return false
	}
	return left == right
}
