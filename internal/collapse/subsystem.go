package collapse

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/talgya/collapse-rescue/internal/agents"
	"github.com/talgya/collapse-rescue/internal/config"
	"github.com/talgya/collapse-rescue/internal/entropy"
	"github.com/talgya/collapse-rescue/internal/rescue"
)

// IncidentLog receives every resolved outcome. Failures are logged and never
// undo a resolution.
type IncidentLog interface {
	AppendIncident(o Outcome) error
}

// Options wires a Subsystem.
type Options struct {
	Config     config.Config
	Blob       Blob
	Registry   *rescue.Registry // Defaults to rescue.DefaultRegistry
	Rand       entropy.Source   // Defaults to entropy.Crypto
	Host       Host
	Translator Translator
	History    IncidentLog // Optional
}

// Subsystem owns the per-session collapse state and exposes the host hooks:
// OnSaveLoaded, OnSaving, OnTimeChanged, OnDayEnding and OnDayStarted. Hooks
// are called sequentially by the host and never overlap.
type Subsystem struct {
	Config   config.Config
	Store    *Store
	Recorder *Recorder
	Applier  *Applier
	Tracker  *Tracker // Nil unless last-awake tracking is enabled
	History  IncidentLog
}

// New builds a Subsystem from options.
func New(opts Options) *Subsystem {
	reg := opts.Registry
	if reg == nil {
		reg = rescue.DefaultRegistry()
	}
	rng := opts.Rand
	if rng == nil {
		rng = entropy.Crypto{}
	}

	store := NewStore(opts.Blob)
	s := &Subsystem{
		Config:   opts.Config,
		Store:    store,
		Recorder: &Recorder{Store: store},
		Applier: &Applier{
			Config:   opts.Config,
			Selector: rescue.NewSelector(reg, rng, opts.Host),
			Rand:     rng,
			Host:     opts.Host,
			Messages: MessageBuilder{Translator: opts.Translator},
		},
		History: opts.History,
	}
	if opts.Config.TrackLastAwakeZone {
		s.Tracker = NewTracker()
		s.Recorder.Tracker = s.Tracker
	}
	return s
}

// OnSaveLoaded resets the session state from the save file.
func (s *Subsystem) OnSaveLoaded() error {
	if s.Tracker != nil {
		s.Tracker.Reset()
	}
	sd, err := s.Store.Load()
	if err != nil {
		return err
	}
	slog.Info("collapse data loaded", "records", len(sd.CollapseByAgent))
	return nil
}

// OnSaving persists the session state.
func (s *Subsystem) OnSaving() error {
	return s.Store.Save()
}

// OnTimeChanged feeds the last-awake tracker.
func (s *Subsystem) OnTimeChanged(d Day) {
	if !s.Config.EnableMod || s.Tracker == nil {
		return
	}
	s.Tracker.Observe(d.TimeOfDay, d.Agents)
}

// OnDayEnding records a pending incident for every agent not in bed.
func (s *Subsystem) OnDayEnding(d Day) int {
	if !s.Config.EnableMod {
		return 0
	}
	n := s.Recorder.Record(d)
	if n > 0 {
		slog.Info("collapses recorded", "day", d.Index, "time", d.TimeOfDay, "count", n)
	}
	return n
}

// OnDayStarted resolves every record captured on the previous day that has
// not been resolved yet. A fault while resolving one agent is logged and
// leaves that record pending; the rest of the batch still runs.
func (s *Subsystem) OnDayStarted(d Day) []Outcome {
	if s.Tracker != nil {
		s.Tracker.Reset()
	}
	if !s.Config.EnableMod {
		return nil
	}

	var outcomes []Outcome
	for _, a := range d.Agents {
		r, ok := s.Store.Get(a.ID)
		if !ok || !r.DueOn(d.Index) {
			continue
		}

		out, err := s.resolve(a, r, d.Index)
		if err != nil {
			slog.Error("collapse resolution failed", "agent", a.ID, "day", d.Index, "error", err)
			continue
		}

		r.Processed = true
		s.Store.Put(a.ID, r)
		outcomes = append(outcomes, out)

		if s.Config.LogToConsole {
			slog.Info("collapse story",
				"incident", out.ID,
				"agent", a.Name,
				"profile", out.ProfileID,
				"zone", out.Zone,
				"severity", out.Severity,
				"gold_lost", out.GoldLost,
				"items_lost", out.ItemsLost,
				"xp_lost", out.XPLost,
				"skill", out.Skill,
			)
		}
		if s.History != nil {
			if err := s.History.AppendIncident(out); err != nil {
				slog.Warn("incident history append failed", "incident", out.ID, "error", err)
			}
		}
	}
	return outcomes
}

// resolve applies one record. A panic rolls the agent back to its state
// before the call.
func (s *Subsystem) resolve(a *agents.Agent, r Record, today int) (out Outcome, err error) {
	before := snapshot(a)
	defer func() {
		if p := recover(); p != nil {
			before.restore(a)
			err = fmt.Errorf("resolve agent %d: %v", a.ID, p)
		}
	}()
	return s.Applier.Apply(a, r, today), nil
}

type fanout []IncidentLog

// Fanout returns an IncidentLog that appends to every non-nil log in turn.
// All logs are tried; their errors are joined.
func Fanout(logs ...IncidentLog) IncidentLog {
	var f fanout
	for _, l := range logs {
		if l != nil {
			f = append(f, l)
		}
	}
	return f
}

func (f fanout) AppendIncident(o Outcome) error {
	var errs []error
	for _, l := range f {
		if err := l.AppendIncident(o); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
