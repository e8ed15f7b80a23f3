package language

import (
	"strings"

	xlang "golang.org/x/text/language"
)

// Undetermined is the ISO 639-2 code for an unknown language.
const Undetermined = "und"

type entry struct {
	code2   string
	code3   string
	alt3    string
	display string
}

var languages = []entry{
	{"en", "eng", "", "English"},
	{"es", "spa", "", "Spanish"},
	{"fr", "fra", "fre", "French"},
	{"de", "deu", "ger", "German"},
	{"it", "ita", "", "Italian"},
	{"pt", "por", "", "Portuguese"},
	{"ja", "jpn", "", "Japanese"},
	{"ko", "kor", "", "Korean"},
	{"zh", "zho", "chi", "Chinese"},
	{"ru", "rus", "", "Russian"},
	{"ar", "ara", "", "Arabic"},
	{"hi", "hin", "", "Hindi"},
	{"nl", "nld", "dut", "Dutch"},
	{"pl", "pol", "", "Polish"},
	{"sv", "swe", "", "Swedish"},
	{"da", "dan", "", "Danish"},
	{"no", "nor", "", "Norwegian"},
	{"fi", "fin", "", "Finnish"},
	{"cs", "ces", "cze", "Czech"},
	{"el", "ell", "gre", "Greek"},
	{"he", "heb", "", "Hebrew"},
	{"hu", "hun", "", "Hungarian"},
	{"tr", "tur", "", "Turkish"},
	{"uk", "ukr", "", "Ukrainian"},
}

var index = func() map[string]*entry {
	m := make(map[string]*entry, len(languages)*4)
	for i := range languages {
		e := &languages[i]
		m[e.code2] = e
		m[e.code3] = e
		if e.alt3 != "" {
			m[e.alt3] = e
		}
		m[strings.ToLower(e.display)] = e
	}
	return m
}()

// Normalize converts any recognized code, word, or BCP 47 tag to ISO 639-2.
// It returns "" for empty, undetermined, or unrecognized input.
func Normalize(code string) string {
	code = strings.ToLower(strings.TrimSpace(strings.ReplaceAll(code, "\u0000", "")))
	if code == "" || code == Undetermined {
		return ""
	}
	if e, ok := index[code]; ok {
		return e.code3
	}
	tag, err := xlang.Parse(code)
	if err != nil {
		return ""
	}
	base, confidence := tag.Base()
	if confidence == xlang.No {
		return ""
	}
	iso3 := base.ISO3()
	if iso3 == "" || iso3 == Undetermined {
		return ""
	}
	return iso3
}

// DisplayName returns a human-readable language name, "Unknown" for empty
// input, or the upper-cased code for unrecognized input.
func DisplayName(code string) string {
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return "Unknown"
	}
	if e, ok := index[strings.ToLower(trimmed)]; ok {
		return e.display
	}
	if iso3 := Normalize(trimmed); iso3 != "" {
		if e, ok := index[iso3]; ok {
			return e.display
		}
	}
	return strings.ToUpper(trimmed)
}

// FromTags extracts and normalizes the language from stream metadata tags.
func FromTags(tags map[string]string) string {
	for _, key := range []string{"language", "language_ietf", "lang"} {
		for k, v := range tags {
			if strings.EqualFold(k, key) {
				if lang := Normalize(v); lang != "" {
					return lang
				}
			}
		}
	}
	return ""
}

// FromFilename reads the language suffix of a sidecar file name such as
// "movie.eng.srt", "movie.en.forced.srt" or "movie.pt-BR.vtt" given the media
// base name "movie".
func FromFilename(name, base string) string {
	stem := strings.TrimSuffix(name, extOf(name))
	rest := strings.Trim(strings.TrimPrefix(stem, base), "._- ")
	if rest == "" {
		return ""
	}
	segments := strings.FieldsFunc(rest, func(r rune) bool { return r == '.' || r == '_' })
	for i := len(segments) - 1; i >= 0; i-- {
		if _, flag := subtitleFlags[strings.ToLower(segments[i])]; flag {
			continue
		}
		return Normalize(segments[i])
	}
	return ""
}

var subtitleFlags = map[string]struct{}{
	"forced":  {},
	"sdh":     {},
	"cc":      {},
	"default": {},
}

// Compare orders two track languages case-insensitively with the empty
// language first.
func Compare(a, b string) int {
	a, b = strings.ToLower(a), strings.ToLower(b)
	switch {
	case a == b:
		return 0
	case a == "":
		return -1
	case b == "":
		return 1
	case a < b:
		return -1
	default:
		return 1
	}
}

func extOf(name string) string {
	if idx := strings.LastIndex(name, "."); idx >= 0 {
		return name[idx:]
	}
	return ""
}
