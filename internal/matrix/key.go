package matrix

import (
	"sort"
	"strings"

	"github.com/jbonatakis/reqmatrix/internal/location"
)

const (
	// Separator joins a location id and a requirement id into a selection key.
	Separator = "___"
	// LegacySeparator is the older single-hyphen key format, migrated on load.
	LegacySeparator = "-"
)

func Key(locationID, requirementID string) string {
	return locationID + Separator + requirementID
}

// SplitKey splits a canonical key at its first separator.
func SplitKey(key string) (locationID, requirementID string, ok bool) {
	idx := strings.Index(key, Separator)
	if idx < 0 {
		return "", "", false
	}
	return key[:idx], key[idx+len(Separator):], true
}

// IsRootKey reports whether a selection key belongs to the synthetic root.
func IsRootKey(key string) bool {
	return key == location.RootID || strings.HasPrefix(key, location.RootID+Separator)
}

// Migration describes what NormalizeKeys did to a mapping set.
type Migration struct {
	// Migrated counts legacy keys rewritten to the canonical format.
	Migrated int
	// Ambiguous lists legacy keys no split of which matched a known location
	// and requirement; they were split at their first hyphen.
	Ambiguous []string
	// Unresolved lists keys with no separator at all; they are kept verbatim.
	Unresolved []string
	// Shadowed lists legacy keys dropped because the canonical key for the
	// same pair was already present.
	Shadowed []string
}

func (m Migration) Changed() bool {
	return m.Migrated > 0 || len(m.Shadowed) > 0
}

// NormalizeKeys rewrites legacy hyphen keys into the triple-underscore format.
// Location and requirement ids may themselves contain hyphens, so each hyphen
// position is tried and the first split naming a known location and a known
// requirement wins. Canonical keys take precedence over legacy keys for the
// same pair. The input map is not modified.
func NormalizeKeys(mappings map[string]bool, h *location.Hierarchy, requirementIDs []string) (map[string]bool, Migration) {
	known := make(map[string]bool, len(requirementIDs))
	for _, id := range requirementIDs {
		known[id] = true
	}

	keys := make([]string, 0, len(mappings))
	for k := range mappings {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make(map[string]bool, len(mappings))
	var migration Migration
	var legacy []string
	for _, k := range keys {
		if strings.Contains(k, Separator) {
			out[k] = mappings[k]
			continue
		}
		legacy = append(legacy, k)
	}

	for _, k := range legacy {
		if !strings.Contains(k, LegacySeparator) {
			out[k] = mappings[k]
			migration.Unresolved = append(migration.Unresolved, k)
			continue
		}
		locID, reqID, resolved := splitLegacy(k, h, known)
		if !resolved {
			migration.Ambiguous = append(migration.Ambiguous, k)
		}
		canonical := Key(locID, reqID)
		if _, exists := out[canonical]; exists {
			migration.Shadowed = append(migration.Shadowed, k)
			continue
		}
		out[canonical] = mappings[k]
		migration.Migrated++
	}
	return out, migration
}

func splitLegacy(key string, h *location.Hierarchy, knownRequirements map[string]bool) (string, string, bool) {
	for i := 0; i < len(key); i++ {
		if key[i] != LegacySeparator[0] {
			continue
		}
		locID, reqID := key[:i], key[i+1:]
		if h != nil && h.Contains(locID) && knownRequirements[reqID] {
			return locID, reqID, true
		}
	}
	idx := strings.Index(key, LegacySeparator)
	return key[:idx], key[idx+1:], false
}
