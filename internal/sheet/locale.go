package sheet

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Locale holds the printed strings of a sheet.
type Locale struct {
	// Code is the locale identifier, e.g. "en".
	Code string `json:"code"`

	// DefaultTitle is printed when the caller gives no title.
	DefaultTitle string `json:"default_title"`

	NameLabel string `json:"name_label"`
	CodeLabel string `json:"code_label"`
}

// English is the default locale.
var English = Locale{
	Code:         "en",
	DefaultTitle: "Exam",
	NameLabel:    "Name:",
	CodeLabel:    "Code:",
}

// Spanish prints Spanish labels.
var Spanish = Locale{
	Code:         "es",
	DefaultTitle: "Examen",
	NameLabel:    "Nombre:",
	CodeLabel:    "Código:",
}

var locales = map[string]Locale{
	English.Code: English,
	Spanish.Code: Spanish,
}

// LookupLocale returns the locale with the given code. An empty code selects
// English.
func LookupLocale(code string) (Locale, error) {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return English, nil
	}
	if l, ok := locales[code]; ok {
		return l, nil
	}
	return Locale{}, fmt.Errorf("unknown locale %q (available: %s)", code, strings.Join(LocaleCodes(), ", "))
}

// LocaleCodes lists the supported locale codes in sorted order.
func LocaleCodes() []string {
	codes := make([]string, 0, len(locales))
	for c := range locales {
		codes = append(codes, c)
	}
	sort.Strings(codes)
	return codes
}

// ChoiceLabel returns the printed label of choice row i: A through Z, then
// the 1-based row number.
func ChoiceLabel(i int) string {
	if i >= 0 && i < 26 {
		return string(rune('A' + i))
	}
	return strconv.Itoa(i + 1)
}
