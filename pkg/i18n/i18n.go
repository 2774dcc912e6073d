// Package i18n holds the help texts of the shell verbs. Catalogs are YAML
// files embedded from the locales directory and loaded with go-i18n.
package i18n

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

//go:embed locales/*.yaml
var localeFS embed.FS

// Catalog translates message ids for one language, English being the
// fallback.
type Catalog struct {
	lang      language.Tag
	localizer *i18n.Localizer
}

// New loads every embedded locale and selects lang ("" means English).
func New(lang string) (*Catalog, error) {
	tag := language.English
	if lang != "" {
		var err error
		if tag, err = language.Parse(lang); err != nil {
			return nil, fmt.Errorf("invalid language %q: %w", lang, err)
		}
	}

	bundle := i18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc("yaml", yaml.Unmarshal)

	files, err := fs.ReadDir(localeFS, "locales")
	if err != nil {
		return nil, err
	}
	for _, f := range files {
		if f.IsDir() {
			continue
		}
		data, err := localeFS.ReadFile(path.Join("locales", f.Name()))
		if err != nil {
			return nil, err
		}
		if _, err := bundle.ParseMessageFileBytes(data, f.Name()); err != nil {
			return nil, fmt.Errorf("locale %s: %w", f.Name(), err)
		}
	}

	return &Catalog{
		lang:      tag,
		localizer: i18n.NewLocalizer(bundle, tag.String(), language.English.String()),
	}, nil
}

// English returns the English catalog. The embedded files are part of the
// binary, so a failure here is a build defect.
func English() *Catalog {
	c, err := New("en")
	if err != nil {
		panic(err)
	}
	return c
}

// Language returns the requested language.
func (c *Catalog) Language() language.Tag {
	return c.lang
}

// T returns the text of id, or id itself when no locale defines it.
func (c *Catalog) T(id string) string {
	msg, err := c.localizer.Localize(&i18n.LocalizeConfig{MessageID: id})
	if err != nil {
		return id
	}
	return msg
}

// Help returns the help line of verb in shell ("main", "card" or "crypto").
func (c *Catalog) Help(shell, verb string) string {
	return c.T("help." + shell + "." + verb)
}

// Languages lists the embedded locales.
func Languages() []string {
	files, _ := fs.ReadDir(localeFS, "locales")
	var langs []string
	for _, f := range files {
		langs = append(langs, strings.TrimSuffix(f.Name(), path.Ext(f.Name())))
	}
	sort.Strings(langs)
	return langs
}
