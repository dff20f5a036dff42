// Package resolve maps a user-supplied library identifier to a catalog entry.
package resolve

import (
	"strings"

	"golang.org/x/text/cases"

	"jellysweep/internal/services/jellyfin"
)

// Kind classifies a resolution outcome.
type Kind int

const (
	// Found means exactly one library matched.
	Found Kind = iota
	// NotFound means nothing matched.
	NotFound
	// Ambiguous means several libraries matched; Candidates lists them so the
	// caller can ask for the exact ID.
	Ambiguous
)

// Resolution is the outcome of resolving one argument.
type Resolution struct {
	Kind       Kind
	Library    jellyfin.Library
	Candidates []jellyfin.Library
}

// Resolve matches the argument against the library catalog. Matching order,
// first hit wins: exact ID (primary or alias item ID), caseless exact name,
// caseless substring of the name. Name stages report ambiguity instead of
// picking silently.
func Resolve(arg string, catalog jellyfin.Catalog) Resolution {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return Resolution{Kind: NotFound}
	}

	for _, lib := range catalog.Libraries {
		if lib.ID == arg {
			return Resolution{Kind: Found, Library: lib}
		}
	}
	if primary, ok := catalog.Resolve(arg); ok {
		for _, lib := range catalog.Libraries {
			if lib.ID == primary {
				return Resolution{Kind: Found, Library: lib}
			}
		}
	}

	fold := cases.Fold()
	folded := fold.String(arg)

	var exact []jellyfin.Library
	for _, lib := range catalog.Libraries {
		if fold.String(lib.Name) == folded {
			exact = append(exact, lib)
		}
	}
	if outcome, done := fromMatches(exact); done {
		return outcome
	}

	var partial []jellyfin.Library
	for _, lib := range catalog.Libraries {
		if strings.Contains(fold.String(lib.Name), folded) {
			partial = append(partial, lib)
		}
	}
	if outcome, done := fromMatches(partial); done {
		return outcome
	}

	return Resolution{Kind: NotFound}
}

func fromMatches(matches []jellyfin.Library) (Resolution, bool) {
	switch len(matches) {
	case 0:
		return Resolution{}, false
	case 1:
		return Resolution{Kind: Found, Library: matches[0]}, true
	default:
		return Resolution{Kind: Ambiguous, Candidates: matches}, true
	}
}
