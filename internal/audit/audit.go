package audit

import (
	"context"
	"slices"
	"sort"

	"golang.org/x/text/cases"

	"jellysweep/internal/services/jellyfin"
)

// Row is one cell of the access matrix in row form.
type Row struct {
	User    string
	Library string
	Access  bool
}

// Entry pairs a user with their fetched policy.
type Entry struct {
	User   jellyfin.User
	Policy jellyfin.Policy
}

// Matrix is the full user × library access report for one run.
type Matrix struct {
	Rows []Row
	// UnknownFolderIDs lists enabled folder IDs that could not be resolved to
	// a library name even through the item lookup.
	UnknownFolderIDs []string
}

// ItemResolver resolves item IDs to display names; the Jellyfin client
// satisfies it.
type ItemResolver interface {
	ItemNames(ctx context.Context, ids []string) (map[string]string, error)
}

// BuildMatrix cross-references every user against every library. Policies may
// reference folder IDs missing from the catalog (libraries deleted or renamed
// server-side); those are resolved through the item lookup and appended to
// the matrix as extra columns, and whatever still cannot be named is reported
// in UnknownFolderIDs. Rows come back sorted by user then library, caseless.
func BuildMatrix(ctx context.Context, entries []Entry, catalog jellyfin.Catalog, resolver ItemResolver) (*Matrix, error) {
	libraries := slices.Clone(catalog.Libraries)
	aliases := make(map[string]string, len(catalog.Aliases))
	for alias, id := range catalog.Aliases {
		aliases[alias] = id
	}

	var unknown []string
	seen := make(map[string]struct{})
	for _, entry := range entries {
		for _, id := range entry.Policy.EnabledFolders() {
			if _, known := aliases[id]; known {
				continue
			}
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			unknown = append(unknown, id)
		}
	}

	if len(unknown) > 0 && resolver != nil {
		names, err := resolver.ItemNames(ctx, unknown)
		if err != nil {
			return nil, err
		}
		var unresolved []string
		for _, id := range unknown {
			name, ok := names[id]
			if !ok {
				unresolved = append(unresolved, id)
				continue
			}
			libraries = append(libraries, jellyfin.Library{ID: id, Name: name})
			aliases[id] = id
		}
		unknown = unresolved
	}
	sort.Strings(unknown)

	matrix := &Matrix{UnknownFolderIDs: unknown}
	for _, entry := range entries {
		allowed := make(map[string]struct{})
		for _, id := range entry.Policy.EnabledFolders() {
			if canonical, ok := aliases[id]; ok {
				allowed[canonical] = struct{}{}
			}
		}
		all := entry.Policy.EnableAllFolders()

		for _, lib := range libraries {
			_, granted := allowed[lib.ID]
			matrix.Rows = append(matrix.Rows, Row{
				User:    entry.User.Name,
				Library: lib.Name,
				Access:  all || granted,
			})
		}
	}

	fold := cases.Fold()
	sort.SliceStable(matrix.Rows, func(i, j int) bool {
		a, b := matrix.Rows[i], matrix.Rows[j]
		if ua, ub := fold.String(a.User), fold.String(b.User); ua != ub {
			return ua < ub
		}
		return fold.String(a.Library) < fold.String(b.Library)
	})

	return matrix, nil
}
