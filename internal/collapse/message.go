package collapse

import (
	"github.com/talgya/collapse-rescue/internal/rescue"
)

// Translator resolves catalog keys; *i18n.Catalog satisfies it.
type Translator interface {
	Text(key string) string
	Summary(rescuer string, gold, items, xp int, severity string) string
}

// MessageBuilder formats the player-facing summary of an incident.
type MessageBuilder struct {
	Translator Translator
}

// Build returns the rescuer's flavor text followed by what was lost and the
// severity label.
func (b MessageBuilder) Build(p *rescue.Profile, gold, items, xp int, sev Severity) string {
	return b.Translator.Summary(
		b.Translator.Text(p.FlavorKey),
		gold, items, xp,
		b.Translator.Text(sev.LabelKey()),
	)
}
