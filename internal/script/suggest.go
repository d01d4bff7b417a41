package script

import (
	"fmt"

	"github.com/agnivade/levenshtein"
	"pkt.systems/tabstack/schema"
)

// maxSuggestDistance bounds how far a typo may be from a known tab id.
const maxSuggestDistance = 3

// Suggest returns the known id closest to name, or "" when none is close.
func Suggest(name string, known []string) string {
	best := ""
	bestDist := maxSuggestDistance + 1
	for _, candidate := range known {
		dist := levenshtein.ComputeDistance(name, candidate)
		if dist < bestDist {
			best = candidate
			bestDist = dist
		}
	}
	return best
}

func checkTab(known []string, name string) error {
	for _, id := range known {
		if id == name {
			return nil
		}
	}
	if hint := Suggest(name, known); hint != "" {
		return fmt.Errorf("%w: %q (did you mean %q?)", schema.ErrTabNotFound, name, hint)
	}
	return fmt.Errorf("%w: %q", schema.ErrTabNotFound, name)
}
