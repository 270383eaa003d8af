// Package i18n provides the message catalog for rescuer flavor text, severity
// labels and the incident summary.
package i18n

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
	"gopkg.in/yaml.v3"
)

// Summary template key. Arguments: rescuer, gold, items, xp, severity.
const KeySummary = "message.summary"

var english = map[string]string{
	"rescuer.harvey":  "Harvey found you passed out and carried you to the clinic.",
	"rescuer.linus":   "Linus found you in the dark and kept you warm by his fire.",
	"rescuer.joja":    "Joja Security found you and filed a loitering report.",
	"rescuer.guild":   "The Adventurer's Guild dragged you out of the depths.",
	"rescuer.spouse":  "Your spouse found you and tucked you into bed.",
	"rescuer.junimos": "The Junimos carried you home in the night.",
	"rescuer.wake":    "You woke up right where you fell.",

	"severity.mild":   "mild",
	"severity.severe": "severe",

	"buff.harvey":  "Clinic care",
	"buff.linus":   "Campfire stories",
	"buff.guild":   "Guild grit",
	"buff.spouse":  "Loved",
	"buff.junimos": "Junimo luck",
	"buff.wake":    "Stiff back",

	KeySummary: "%[1]s Lost %[2]dg, %[3]d item(s) and %[4]d XP (%[5]s collapse).",
}

// Catalog resolves keys for one locale, falling back to English.
type Catalog struct {
	builder *catalog.Builder
	tag     language.Tag
	known   map[string]bool
	local   map[string]bool // Keys translated for tag

	printer *message.Printer
	base    *message.Printer
}

// New creates a catalog for the given BCP 47 locale with the built-in English
// strings registered.
func New(locale string) (*Catalog, error) {
	tag := language.English
	if strings.TrimSpace(locale) != "" {
		parsed, err := language.Parse(locale)
		if err != nil {
			return nil, fmt.Errorf("parse locale %q: %w", locale, err)
		}
		tag = parsed
	}

	b := catalog.NewBuilder(catalog.Fallback(language.English))
	c := &Catalog{
		builder: b,
		tag:     tag,
		known:   make(map[string]bool),
		local:   make(map[string]bool),
		base:    message.NewPrinter(language.English, message.Catalog(b)),
	}
	for k, v := range english {
		if err := c.set(language.English, k, v); err != nil {
			return nil, err
		}
	}
	c.printer = c.base
	return c, nil
}

// Default returns the English catalog.
func Default() *Catalog {
	c, err := New("")
	if err != nil {
		panic(err)
	}
	return c
}

// Locale returns the catalog's language tag.
func (c *Catalog) Locale() string {
	return c.tag.String()
}

// Load adds translations from a YAML document of the form
// `locale: <tag>` plus `messages: {key: text}`.
func (c *Catalog) Load(r io.Reader) error {
	var doc struct {
		Locale   string            `yaml:"locale"`
		Messages map[string]string `yaml:"messages"`
	}
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return fmt.Errorf("decode catalog: %w", err)
	}
	tag, err := language.Parse(doc.Locale)
	if err != nil {
		return fmt.Errorf("catalog locale %q: %w", doc.Locale, err)
	}
	for k, v := range doc.Messages {
		if err := c.set(tag, k, v); err != nil {
			return err
		}
		if tag == c.tag {
			c.local[k] = true
		}
	}
	if len(c.local) > 0 {
		c.printer = message.NewPrinter(c.tag, message.Catalog(c.builder))
	}
	return nil
}

// set registers a string. Only the summary template is a format string;
// every other entry is stored with '%' escaped so it prints verbatim.
func (c *Catalog) set(tag language.Tag, key, text string) error {
	if key != KeySummary {
		text = strings.ReplaceAll(text, "%", "%%")
	}
	if err := c.builder.SetString(tag, key, text); err != nil {
		return fmt.Errorf("register %s: %w", key, err)
	}
	c.known[key] = true
	return nil
}

func (c *Catalog) printerFor(key string) *message.Printer {
	if c.local[key] {
		return c.printer
	}
	return c.base
}

// Text returns the string for key. Unknown keys come back unchanged.
func (c *Catalog) Text(key string) string {
	if !c.known[key] {
		return key
	}
	return c.printerFor(key).Sprintf(key)
}

// Summary renders the incident summary template. Numbers are grouped per
// locale.
func (c *Catalog) Summary(rescuer string, gold, items, xp int, severity string) string {
	return c.printerFor(KeySummary).Sprintf(KeySummary, rescuer, gold, items, xp, severity)
}
