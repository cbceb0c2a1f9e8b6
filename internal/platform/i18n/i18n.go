// Package i18n provides localized user-facing messages for error codes.
package i18n

import (
	"bytes"
	"sort"
	"strings"
	"text/template"

	"golang.org/x/text/language"
)

// BaseLocale is the canonical source locale for catalogs.
const BaseLocale = "en-US"

// Catalog maps error codes to message templates for a specific locale.
type Catalog struct {
	locale   string
	messages map[string]string
}

var catalogs = map[string]*Catalog{
	"en-US": {locale: "en-US", messages: enUS},
	"ja-JP": {locale: "ja-JP", messages: jaJP},
}

var matchLocales, matcher = newMatcher()

func newMatcher() ([]string, language.Matcher) {
	sorted := make([]string, 0, len(catalogs))
	for locale := range catalogs {
		sorted = append(sorted, locale)
	}
	sort.Strings(sorted)

	// The base locale must be the first tag so it wins as the fallback.
	locales := []string{BaseLocale}
	for _, locale := range sorted {
		if locale != BaseLocale {
			locales = append(locales, locale)
		}
	}
	tags := make([]language.Tag, 0, len(locales))
	for _, locale := range locales {
		tags = append(tags, language.MustParse(locale))
	}
	return locales, language.NewMatcher(tags)
}

// GetCatalog returns the catalog best matching the requested locale.
// Falls back to en-US when the locale is unknown or blank.
func GetCatalog(locale string) *Catalog {
	requested := strings.TrimSpace(locale)
	if requested == "" {
		requested = BaseLocale
	}

	if c, ok := catalogs[requested]; ok {
		return c
	}

	tag, err := language.Parse(requested)
	if err != nil {
		return catalogs[BaseLocale]
	}
	_, index, confidence := matcher.Match(tag)
	if confidence == language.No || index < 0 || index >= len(matchLocales) {
		return catalogs[BaseLocale]
	}
	return catalogs[matchLocales[index]]
}

// Locale returns the locale of this catalog.
func (c *Catalog) Locale() string {
	return c.locale
}

// Format renders the message template for code with the given metadata.
// Falls back to the code itself if no template is found. Templates are
// always executed even with nil metadata so template variables without
// metadata render as empty.
func (c *Catalog) Format(code string, metadata map[string]string) string {
	tmpl, ok := c.messages[code]
	if !ok {
		return code
	}

	if metadata == nil {
		metadata = map[string]string{}
	}

	t, err := template.New("msg").Parse(tmpl)
	if err != nil {
		return tmpl
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, metadata); err != nil {
		return tmpl
	}
	return buf.String()
}
