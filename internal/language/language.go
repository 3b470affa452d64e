package language

import "strings"

type entry struct {
	code    string   // ISO 639-1
	code3   string   // ISO 639-2
	display string   // Human-readable name
	words   []string // Full word forms
}

var languages = []entry{
	{"en", "eng", "English", []string{"english"}},
	{"es", "spa", "Spanish", []string{"spanish", "espanol", "español"}},
	{"fr", "fra", "French", []string{"french", "francais", "français"}},
	{"de", "deu", "German", []string{"german", "deutsch"}},
	{"it", "ita", "Italian", []string{"italian"}},
	{"pt", "por", "Portuguese", []string{"portuguese"}},
	{"ja", "jpn", "Japanese", []string{"japanese"}},
	{"ko", "kor", "Korean", []string{"korean"}},
	{"zh", "zho", "Chinese", []string{"chinese"}},
	{"ru", "rus", "Russian", []string{"russian"}},
	{"ar", "ara", "Arabic", []string{"arabic"}},
	{"hi", "hin", "Hindi", []string{"hindi"}},
	{"id", "ind", "Indonesian", []string{"indonesian", "bahasa"}},
	{"nl", "nld", "Dutch", []string{"dutch"}},
	{"pl", "pol", "Polish", []string{"polish"}},
	{"tr", "tur", "Turkish", []string{"turkish"}},
	{"vi", "vie", "Vietnamese", []string{"vietnamese"}},
	{"sv", "swe", "Swedish", []string{"swedish"}},
}

var (
	byCode  = make(map[string]*entry, len(languages))
	byCode3 = make(map[string]*entry, len(languages))
	byWord  = make(map[string]*entry, len(languages)*2)
)

func init() {
	for i := range languages {
		e := &languages[i]
		byCode[e.code] = e
		byCode3[e.code3] = e
		for _, w := range e.words {
			byWord[w] = e
		}
	}
}

func lookup(value string) *entry {
	value = strings.ToLower(strings.TrimSpace(value))
	if e, ok := byCode[value]; ok {
		return e
	}
	if e, ok := byCode3[value]; ok {
		return e
	}
	return byWord[value]
}

// Normalize maps a language name, ISO 639-1/639-2 code, or region tag to the
// tag form speech endpoints expect: "english" and "eng" become "en",
// "pt_br" becomes "pt-BR". Unrecognized values are lowercased and returned
// so providers with wider coverage still receive them.
func Normalize(value string) string {
	value = strings.TrimSpace(strings.ReplaceAll(value, "_", "-"))
	if value == "" {
		return ""
	}
	base, region, hasRegion := strings.Cut(value, "-")
	code := strings.ToLower(base)
	if e := lookup(base); e != nil {
		code = e.code
	}
	if hasRegion && region != "" {
		return code + "-" + strings.ToUpper(region)
	}
	return code
}

// Known reports whether value resolves to a language in the built-in table.
func Known(value string) bool {
	base, _, _ := strings.Cut(Normalize(value), "-")
	_, ok := byCode[base]
	return ok
}

// DisplayName returns a readable name such as "Portuguese (BR)". Empty input
// yields "Unknown"; unrecognized codes are uppercased.
func DisplayName(value string) string {
	tag := Normalize(value)
	if tag == "" {
		return "Unknown"
	}
	base, region, _ := strings.Cut(tag, "-")
	name := strings.ToUpper(base)
	if e, ok := byCode[base]; ok {
		name = e.display
	}
	if region != "" {
		name += " (" + region + ")"
	}
	return name
}
