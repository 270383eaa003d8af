// Package config holds the flat option set of the collapse subsystem: which
// penalty categories run, the per-zone base amounts, the intensity selector and
// the currency loss cap.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/talgya/collapse-rescue/internal/world"
)

// EnvPrefix is prepended to every environment override.
const EnvPrefix = "COLLAPSE_"

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid config")

// Intensity scales every profile's penalty parameters.
type Intensity uint8

const (
	IntensitySoft Intensity = iota
	IntensityHard
)

// String returns "Soft" or "Hard".
func (i Intensity) String() string {
	switch i {
	case IntensitySoft:
		return "Soft"
	case IntensityHard:
		return "Hard"
	}
	return fmt.Sprintf("Intensity(%d)", uint8(i))
}

// MarshalText encodes the intensity by name.
func (i Intensity) MarshalText() ([]byte, error) {
	return []byte(i.String()), nil
}

// UnmarshalText accepts "soft" or "hard" in any case.
func (i *Intensity) UnmarshalText(b []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(b))) {
	case "soft":
		*i = IntensitySoft
	case "hard":
		*i = IntensityHard
	default:
		return fmt.Errorf("%w: unknown intensity %q", ErrInvalid, string(b))
	}
	return nil
}

// Config is the full option set.
type Config struct {
	EnableMod bool      `yaml:"enable_mod" env:"ENABLE_MOD"`
	Intensity Intensity `yaml:"intensity" env:"INTENSITY"`

	EnableGoldPenalties     bool `yaml:"enable_gold_penalties" env:"ENABLE_GOLD_PENALTIES"`
	EnableItemPenalties     bool `yaml:"enable_item_penalties" env:"ENABLE_ITEM_PENALTIES"`
	EnableXPPenalties       bool `yaml:"enable_xp_penalties" env:"ENABLE_XP_PENALTIES"`
	EnableBuffs             bool `yaml:"enable_buffs" env:"ENABLE_BUFFS"`
	EnableFriendshipEffects bool `yaml:"enable_friendship_effects" env:"ENABLE_FRIENDSHIP_EFFECTS"`

	MaxGoldLoss int `yaml:"max_gold_loss" env:"MAX_GOLD_LOSS"`

	// Fraction of the agent's money lost per zone, before severity and profile.
	BaseGoldLossFarm   float64 `yaml:"base_gold_loss_farm" env:"BASE_GOLD_LOSS_FARM"`
	BaseGoldLossTown   float64 `yaml:"base_gold_loss_town" env:"BASE_GOLD_LOSS_TOWN"`
	BaseGoldLossMines  float64 `yaml:"base_gold_loss_mines" env:"BASE_GOLD_LOSS_MINES"`
	BaseGoldLossDesert float64 `yaml:"base_gold_loss_desert" env:"BASE_GOLD_LOSS_DESERT"`
	BaseGoldLossHome   float64 `yaml:"base_gold_loss_home" env:"BASE_GOLD_LOSS_HOME"`
	BaseGoldLossOther  float64 `yaml:"base_gold_loss_other" env:"BASE_GOLD_LOSS_OTHER"`

	BaseXPLossFarming  int `yaml:"base_xp_loss_farming" env:"BASE_XP_LOSS_FARMING"`
	BaseXPLossCombat   int `yaml:"base_xp_loss_combat" env:"BASE_XP_LOSS_COMBAT"`
	BaseXPLossForaging int `yaml:"base_xp_loss_foraging" env:"BASE_XP_LOSS_FORAGING"`
	BaseXPLossGeneric  int `yaml:"base_xp_loss_generic" env:"BASE_XP_LOSS_GENERIC"`

	BaseExtraItemsLostMines  int `yaml:"base_extra_items_lost_mines" env:"BASE_EXTRA_ITEMS_LOST_MINES"`
	BaseExtraItemsLostDesert int `yaml:"base_extra_items_lost_desert" env:"BASE_EXTRA_ITEMS_LOST_DESERT"`

	LogToConsole bool `yaml:"log_to_console" env:"LOG_TO_CONSOLE"`

	// Use the last zone an agent was seen awake in before 2:00 instead of the
	// zone they collapsed in.
	TrackLastAwakeZone bool `yaml:"track_last_awake_zone" env:"TRACK_LAST_AWAKE_ZONE"`
}

// Default returns the reference configuration.
func Default() Config {
	return Config{
		EnableMod:                true,
		Intensity:                IntensitySoft,
		EnableGoldPenalties:      true,
		EnableItemPenalties:      true,
		EnableXPPenalties:        true,
		EnableBuffs:              true,
		EnableFriendshipEffects:  true,
		MaxGoldLoss:              5000,
		BaseGoldLossFarm:         0.03,
		BaseGoldLossTown:         0.04,
		BaseGoldLossMines:        0.06,
		BaseGoldLossDesert:       0.08,
		BaseGoldLossHome:         0.00,
		BaseGoldLossOther:        0.04,
		BaseXPLossFarming:        15,
		BaseXPLossCombat:         25,
		BaseXPLossForaging:       15,
		BaseXPLossGeneric:        10,
		BaseExtraItemsLostMines:  1,
		BaseExtraItemsLostDesert: 1,
		LogToConsole:             true,
	}
}

// Load builds a Config from defaults, then the YAML file at path (skipped when
// path is empty or the file does not exist), then COLLAPSE_* environment
// variables. The result is validated.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return cfg, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config %s: %w", path, err)
			}
			unknown, _ := UnknownKeys(data)
			for _, u := range unknown {
				slog.Warn("ignoring config option", "path", path, "detail", u.String())
			}
		}
	}

	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate reports every out-of-range option.
func (c Config) Validate() error {
	var errs []error

	if c.Intensity != IntensitySoft && c.Intensity != IntensityHard {
		errs = append(errs, fmt.Errorf("intensity: unknown value %d", c.Intensity))
	}
	if c.MaxGoldLoss < 0 {
		errs = append(errs, fmt.Errorf("max_gold_loss: must be >= 0, got %d", c.MaxGoldLoss))
	}

	percents := map[string]float64{
		"base_gold_loss_farm":   c.BaseGoldLossFarm,
		"base_gold_loss_town":   c.BaseGoldLossTown,
		"base_gold_loss_mines":  c.BaseGoldLossMines,
		"base_gold_loss_desert": c.BaseGoldLossDesert,
		"base_gold_loss_home":   c.BaseGoldLossHome,
		"base_gold_loss_other":  c.BaseGoldLossOther,
	}
	for _, k := range sortedKeys(percents) {
		if v := percents[k]; !(v >= 0 && v <= 1) {
			errs = append(errs, fmt.Errorf("%s: must be within [0, 1], got %g", k, v))
		}
	}

	amounts := map[string]int{
		"base_xp_loss_farming":         c.BaseXPLossFarming,
		"base_xp_loss_combat":          c.BaseXPLossCombat,
		"base_xp_loss_foraging":        c.BaseXPLossForaging,
		"base_xp_loss_generic":         c.BaseXPLossGeneric,
		"base_extra_items_lost_mines":  c.BaseExtraItemsLostMines,
		"base_extra_items_lost_desert": c.BaseExtraItemsLostDesert,
	}
	for _, k := range sortedKeys(amounts) {
		if v := amounts[k]; v < 0 {
			errs = append(errs, fmt.Errorf("%s: must be >= 0, got %d", k, v))
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
}

// ZoneBase is the per-zone starting point for every penalty calculator.
type ZoneBase struct {
	GoldPercent float64
	XP          int
	Items       int
}

// Base returns the configured base amounts for a zone. This is the only place
// zone-keyed options are resolved.
func (c Config) Base(z world.Zone) ZoneBase {
	switch z {
	case world.ZoneFarm:
		return ZoneBase{GoldPercent: c.BaseGoldLossFarm, XP: c.BaseXPLossFarming}
	case world.ZoneHome:
		return ZoneBase{GoldPercent: c.BaseGoldLossHome, XP: c.BaseXPLossGeneric}
	case world.ZoneTown:
		return ZoneBase{GoldPercent: c.BaseGoldLossTown, XP: c.BaseXPLossForaging}
	case world.ZoneMines:
		return ZoneBase{GoldPercent: c.BaseGoldLossMines, XP: c.BaseXPLossCombat, Items: c.BaseExtraItemsLostMines}
	case world.ZoneDesert:
		return ZoneBase{GoldPercent: c.BaseGoldLossDesert, XP: c.BaseXPLossCombat, Items: c.BaseExtraItemsLostDesert}
	case world.ZoneOtherOutdoors:
		return ZoneBase{GoldPercent: c.BaseGoldLossOther, XP: c.BaseXPLossForaging}
	}
	return ZoneBase{GoldPercent: c.BaseGoldLossOther, XP: c.BaseXPLossGeneric}
}
