package fillblank

import (
	"fmt"
	"sort"
)

// TextBlankConfig holds author-facing metadata for a free-text blank.
type TextBlankConfig struct {
	BlankID     int     `json:"blank_id"`
	Placeholder *string `json:"placeholder,omitempty"`
	Label       *string `json:"label,omitempty"`
}

// DropdownBlankConfig holds author-facing metadata for a dropdown blank.
type DropdownBlankConfig struct {
	BlankID int     `json:"blank_id"`
	Label   *string `json:"label,omitempty"`
}

func (c TextBlankConfig) blankID() int     { return c.BlankID }
func (c DropdownBlankConfig) blankID() int { return c.BlankID }

// DefaultTextConfig is the entry created for a newly detected free-text blank.
func DefaultTextConfig(id int) TextBlankConfig {
	placeholder := fmt.Sprintf("Enter answer for blank %d", id)
	label := fmt.Sprintf("Blank %d", id)
	return TextBlankConfig{BlankID: id, Placeholder: &placeholder, Label: &label}
}

// DefaultDropdownConfig is the entry created for a newly detected dropdown blank.
func DefaultDropdownConfig(id int) DropdownBlankConfig {
	label := fmt.Sprintf("Dropdown %d", id)
	return DropdownBlankConfig{BlankID: id, Label: &label}
}

// SyncTextConfigs returns exactly one config per blank id of t. Entries for ids that
// survive are returned unchanged, entries for vanished ids are dropped and missing
// ids get DefaultTextConfig. The result is sorted by blank id.
func SyncTextConfigs(t Template, existing []TextBlankConfig) []TextBlankConfig {
	return syncConfigs(BlankIDs(t), existing, DefaultTextConfig)
}

// SyncDropdownConfigs is SyncTextConfigs for dropdown questions.
func SyncDropdownConfigs(t Template, existing []DropdownBlankConfig) []DropdownBlankConfig {
	return syncConfigs(BlankIDs(t), existing, DefaultDropdownConfig)
}

type blankKeyed interface {
	blankID() int
}

func syncConfigs[C blankKeyed](ids []int, existing []C, newConfig func(int) C) []C {
	byID := make(map[int]C, len(existing))
	for _, cfg := range existing {
		// first entry wins when the stored set carries duplicates
		if _, dup := byID[cfg.blankID()]; !dup {
			byID[cfg.blankID()] = cfg
		}
	}

	synced := make([]C, 0, len(ids))
	for _, id := range ids {
		if cfg, ok := byID[id]; ok {
			synced = append(synced, cfg)
			continue
		}
		synced = append(synced, newConfig(id))
	}
	return synced
}

// Prune splits items into those whose blank still exists in t and those left
// orphaned by a text edit. Order is preserved in both slices.
func Prune[T any](t Template, items []T, blankOf func(T) int) (kept, orphaned []T) {
	live := idSet(t)
	for _, item := range items {
		if _, ok := live[blankOf(item)]; ok {
			kept = append(kept, item)
		} else {
			orphaned = append(orphaned, item)
		}
	}
	return kept, orphaned
}

// OrphanedBlankIDs returns the sorted distinct blank ids referenced by refs that are
// not present in t.
func OrphanedBlankIDs(t Template, refs []int) []int {
	live := idSet(t)
	seen := make(map[int]struct{})
	var out []int
	for _, id := range refs {
		if _, ok := live[id]; ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Ints(out)
	return out
}

func idSet(t Template) map[int]struct{} {
	ids := BlankIDs(t)
	set := make(map[int]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
