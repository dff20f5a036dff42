package jellyfin

import (
	"encoding/json"
	"maps"
	"slices"
	"strconv"
)

// Policy is a user's raw access policy as returned by the server. It stays a
// loose map so every field the server sent survives the read-modify-write
// cycle unchanged; only the folder allow-list keys are ever touched.
type Policy map[string]any

// The server has shipped the allow-list under both of these keys over time.
// Reads take the union; writes keep both in sync.
var folderListKeys = []string{"EnabledFolders", "EnabledFolderIds"}

// EnableAllFolders reports whether the policy grants every library.
func (p Policy) EnableAllFolders() bool {
	enabled, _ := p["EnableAllFolders"].(bool)
	return enabled
}

// EnabledFolders returns the union of the allow-list keys, normalized to
// strings, first occurrence order preserved.
func (p Policy) EnabledFolders() []string {
	var ids []string
	seen := make(map[string]struct{})
	for _, key := range folderListKeys {
		for _, id := range stringList(p[key]) {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	return ids
}

// HasFolder reports whether the given library ID appears in either
// allow-list key.
func (p Policy) HasFolder(id string) bool {
	for _, key := range folderListKeys {
		for _, existing := range stringList(p[key]) {
			if existing == id {
				return true
			}
		}
	}
	return false
}

// WithFolder returns a copy of the policy with the library ID appended to
// both allow-list keys. The receiver is not modified.
func (p Policy) WithFolder(id string) Policy {
	next := p.clone()
	for _, key := range folderListKeys {
		ids := stringList(next[key])
		if !slices.Contains(ids, id) {
			ids = append(ids, id)
		}
		next[key] = ids
	}
	return next
}

// WithoutFolder returns a copy of the policy with the library ID removed from
// whichever allow-list keys are present. The receiver is not modified.
func (p Policy) WithoutFolder(id string) Policy {
	next := p.clone()
	for _, key := range folderListKeys {
		if _, present := next[key]; !present {
			continue
		}
		ids := stringList(next[key])
		filtered := make([]string, 0, len(ids))
		for _, existing := range ids {
			if existing != id {
				filtered = append(filtered, existing)
			}
		}
		next[key] = filtered
	}
	return next
}

func (p Policy) clone() Policy {
	if p == nil {
		return Policy{}
	}
	return maps.Clone(p)
}

// stringList normalizes a decoded JSON value into a string slice. The server
// reports allow-lists as arrays; anything else is treated as empty. Emby-style
// servers report numeric folder IDs, so non-string scalars are kept in their
// string form rather than dropped.
func stringList(value any) []string {
	switch list := value.(type) {
	case []string:
		out := make([]string, 0, len(list))
		for _, v := range list {
			if v != "" {
				out = append(out, v)
			}
		}
		return out
	case []any:
		out := make([]string, 0, len(list))
		for _, v := range list {
			if s := scalarString(v); s != "" {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

func scalarString(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	default:
		return ""
	}
}
