// Package collapse captures agents who never made it to bed at the close of a
// day and resolves each incident exactly once at the start of the next one:
// a rescuer is chosen, penalties are taken, rewards are handed out and a
// summary is shown.
package collapse

import (
	"fmt"
	"strings"

	"github.com/talgya/collapse-rescue/internal/agents"
	"github.com/talgya/collapse-rescue/internal/world"
)

// SevereTime is the clock time (2:00) at or after which a collapse is Severe.
const SevereTime = 2600

// Severity tiers how late the collapse happened.
type Severity uint8

const (
	SeverityMild Severity = iota
	SeveritySevere
)

// SeverityAt returns the severity of a collapse at the given clock time.
func SeverityAt(timeOfDay int) Severity {
	if timeOfDay < SevereTime {
		return SeverityMild
	}
	return SeveritySevere
}

// String returns "Mild" or "Severe".
func (s Severity) String() string {
	switch s {
	case SeverityMild:
		return "Mild"
	case SeveritySevere:
		return "Severe"
	}
	return fmt.Sprintf("Severity(%d)", uint8(s))
}

// LabelKey returns the catalog key of the severity label.
func (s Severity) LabelKey() string {
	if s == SeveritySevere {
		return "severity.severe"
	}
	return "severity.mild"
}

// MarshalText encodes the severity by name.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a severity name.
func (s *Severity) UnmarshalText(b []byte) error {
	switch strings.ToLower(string(b)) {
	case "mild":
		*s = SeverityMild
	case "severe":
		*s = SeveritySevere
	default:
		return fmt.Errorf("unknown severity %q", string(b))
	}
	return nil
}

// Record is the pending (or resolved) incident of one agent.
type Record struct {
	AgentID   agents.AgentID `json:"agent_id"`
	Zone      world.Zone     `json:"zone"`
	Severity  Severity       `json:"severity"`
	Day       int            `json:"day"`
	Processed bool           `json:"processed"`
}

// DueOn reports whether the record should be resolved on the given day: it
// was captured the day before and has not been resolved yet.
func (r Record) DueOn(day int) bool {
	return !r.Processed && r.Day == day-1
}
