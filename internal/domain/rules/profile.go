package rules

import "strings"

const (
	MinAge            = 18
	MaxAge            = 120
	MaxInterests      = 3
	MaxInterestLength = 64
	MinPasswordLength = 6
	MaxBioLength      = 1000
)

func ValidAge(age int) bool {
	return age >= MinAge && age <= MaxAge
}

// NormalizeInterests trims, drops empties and case-insensitive duplicates,
// keeping first-seen order. ok is false when the result exceeds MaxInterests
// or any tag is longer than MaxInterestLength.
func NormalizeInterests(raw []string) ([]string, bool) {
	out := make([]string, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for _, item := range raw {
		tag := strings.TrimSpace(item)
		if tag == "" {
			continue
		}
		if len([]rune(tag)) > MaxInterestLength {
			return nil, false
		}
		key := strings.ToLower(tag)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, tag)
	}
	if len(out) > MaxInterests {
		return nil, false
	}
	return out, true
}

func NormalizeEmail(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}
