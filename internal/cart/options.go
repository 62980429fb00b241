package cart

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// keySeparator joins option ids inside an options key.
const keySeparator = ":"

// Selection expresses the three-way option intent on cart operations:
// resolve the product's default options, use no options at all, or use
// an explicit set. The zero value means "defaults", so a caller that
// does not care gets the storefront behaviour a shopper expects.
type Selection struct {
	explicit bool
	ids      []int64
}

// DefaultOptions selects the product's default options.
func DefaultOptions() Selection {
	return Selection{}
}

// NoOptions selects an explicitly empty option set, bypassing defaults.
func NoOptions() Selection {
	return Selection{explicit: true}
}

// WithOptions selects an explicit set of option ids.
func WithOptions(ids ...int64) Selection {
	return Selection{explicit: true, ids: append([]int64(nil), ids...)}
}

// Explicit reports whether the selection was stated by the caller, as
// opposed to asking for default resolution.
func (s Selection) Explicit() bool { return s.explicit }

// IDs returns the explicitly selected option ids.
func (s Selection) IDs() []int64 { return s.ids }

// OptionsKey builds the canonical grouping key for a set of option ids:
// sorted ascending, deduplicated, joined with ":". The empty set maps
// to the empty string. The key is a grouping token only; ids are not
// validated against the catalog here.
func OptionsKey(ids []int64) string {
	if len(ids) == 0 {
		return ""
	}
	unique := uniqueIDs(ids)

	parts := make([]string, len(unique))
	for i, id := range unique {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, keySeparator)
}

// uniqueIDs returns the ids sorted ascending with duplicates dropped.
// An option set is a set: submitting the same id twice must neither
// fork the key nor double the price contribution, so every path that
// resolves or prices a selection goes through this.
func uniqueIDs(ids []int64) []int64 {
	unique := make([]int64, 0, len(ids))
	seen := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}
	sort.Slice(unique, func(i, j int) bool { return unique[i] < unique[j] })
	return unique
}

// OptionIDsFromKey parses an options key back into option ids.
func OptionIDsFromKey(key string) ([]int64, error) {
	if key == "" {
		return nil, nil
	}
	parts := strings.Split(key, keySeparator)
	ids := make([]int64, 0, len(parts))
	for _, part := range parts {
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse options key %q: %w", key, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
