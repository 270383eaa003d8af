package config

import (
	"fmt"
	"sort"

	"github.com/agnivade/levenshtein"
	"gopkg.in/yaml.v3"
)

// Keys lists every recognized option name.
var Keys = []string{
	"enable_mod",
	"intensity",
	"enable_gold_penalties",
	"enable_item_penalties",
	"enable_xp_penalties",
	"enable_buffs",
	"enable_friendship_effects",
	"max_gold_loss",
	"base_gold_loss_farm",
	"base_gold_loss_town",
	"base_gold_loss_mines",
	"base_gold_loss_desert",
	"base_gold_loss_home",
	"base_gold_loss_other",
	"base_xp_loss_farming",
	"base_xp_loss_combat",
	"base_xp_loss_foraging",
	"base_xp_loss_generic",
	"base_extra_items_lost_mines",
	"base_extra_items_lost_desert",
	"log_to_console",
	"track_last_awake_zone",
}

// UnknownKey is a YAML key that no option recognizes.
type UnknownKey struct {
	Key        string
	Suggestion string // Closest known key, empty if nothing is close
}

// String renders the key with its suggestion, if any.
func (u UnknownKey) String() string {
	if u.Suggestion == "" {
		return fmt.Sprintf("unknown option %q", u.Key)
	}
	return fmt.Sprintf("unknown option %q (did you mean %q?)", u.Key, u.Suggestion)
}

// UnknownKeys returns the top-level keys in a YAML document that are not
// options, sorted by key.
func UnknownKeys(data []byte) ([]UnknownKey, error) {
	var doc map[string]yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	known := make(map[string]bool, len(Keys))
	for _, k := range Keys {
		known[k] = true
	}

	var out []UnknownKey
	for k := range doc {
		if known[k] {
			continue
		}
		out = append(out, UnknownKey{Key: k, Suggestion: suggest(k)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func suggest(key string) string {
	best := ""
	bestDist := -1
	for _, k := range Keys {
		dist := levenshtein.ComputeDistance(key, k)
		if dist > levenshteinLimit(len(k)) {
			continue
		}
		if bestDist < 0 || dist < bestDist {
			best, bestDist = k, dist
		}
	}
	return best
}

// levenshteinLimit grows with the option name.
func levenshteinLimit(length int) int {
	if length <= 4 {
		return 2
	}
	return length / 2
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
