package jellyfin

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// Library is a virtual folder configured on the server.
type Library struct {
	ID   string
	Name string
}

// Catalog is the library list for one run, fetched once at startup. Aliases
// maps every item ID known to refer to a library (including the extra
// LibraryOptions item IDs some server versions report) to its primary ID.
type Catalog struct {
	Libraries []Library
	Aliases   map[string]string
}

// Resolve maps an item ID to the primary library ID, when known.
func (c Catalog) Resolve(itemID string) (string, bool) {
	id, ok := c.Aliases[itemID]
	return id, ok
}

// Name returns the display name for a primary library ID.
func (c Catalog) Name(libraryID string) (string, bool) {
	for _, lib := range c.Libraries {
		if lib.ID == libraryID {
			return lib.Name, true
		}
	}
	return "", false
}

type virtualFolder struct {
	Name           string `json:"Name"`
	ItemID         string `json:"ItemId"`
	ID             string `json:"Id"`
	LibraryOptions struct {
		ItemIDs []string `json:"ItemIds"`
	} `json:"LibraryOptions"`
}

type itemContainer struct {
	Items []struct {
		ID   string `json:"Id"`
		Name string `json:"Name"`
	} `json:"Items"`
}

// Libraries fetches the virtual folder catalog. It understands both the bare
// array and the {"Items": [...]} container forms of /Library/VirtualFolders
// and falls back to /Library/MediaFolders when the primary listing comes back
// empty, matching the variance between Jellyfin server versions.
func (c *Client) Libraries(ctx context.Context) (Catalog, error) {
	catalog, primaryErr := c.virtualFolders(ctx)
	if primaryErr == nil && len(catalog.Libraries) > 0 {
		return catalog, nil
	}

	fallback, fallbackErr := c.mediaFolders(ctx)
	if fallbackErr == nil && len(fallback.Libraries) > 0 {
		return fallback, nil
	}

	if primaryErr != nil {
		return Catalog{}, primaryErr
	}
	if fallbackErr != nil {
		return Catalog{}, fallbackErr
	}
	return Catalog{}, fmt.Errorf("jellyfin reported no libraries")
}

func (c *Client) virtualFolders(ctx context.Context) (Catalog, error) {
	var raw json.RawMessage
	if err := c.doJSON(ctx, http.MethodGet, "/Library/VirtualFolders", nil, nil, &raw); err != nil {
		return Catalog{}, err
	}

	folders, err := decodeVirtualFolders(raw)
	if err != nil {
		return Catalog{}, fmt.Errorf("decode virtual folders: %w", err)
	}

	catalog := Catalog{Aliases: make(map[string]string)}
	for _, folder := range folders {
		id := folder.ItemID
		if id == "" {
			id = folder.ID
		}
		if id == "" || folder.Name == "" {
			continue
		}
		catalog.Libraries = append(catalog.Libraries, Library{ID: id, Name: folder.Name})
		catalog.Aliases[id] = id
		for _, alias := range folder.LibraryOptions.ItemIDs {
			if alias == "" {
				continue
			}
			if _, exists := catalog.Aliases[alias]; !exists {
				catalog.Aliases[alias] = id
			}
		}
	}
	return catalog, nil
}

func decodeVirtualFolders(raw json.RawMessage) ([]virtualFolder, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	var folders []virtualFolder
	if err := json.Unmarshal(raw, &folders); err == nil {
		return folders, nil
	}

	var container struct {
		Items          []virtualFolder `json:"Items"`
		VirtualFolders []virtualFolder `json:"VirtualFolders"`
	}
	if err := json.Unmarshal(raw, &container); err != nil {
		return nil, err
	}
	if len(container.Items) > 0 {
		return container.Items, nil
	}
	return container.VirtualFolders, nil
}

func (c *Client) mediaFolders(ctx context.Context) (Catalog, error) {
	var container itemContainer
	if err := c.doJSON(ctx, http.MethodGet, "/Library/MediaFolders", nil, nil, &container); err != nil {
		return Catalog{}, err
	}

	catalog := Catalog{Aliases: make(map[string]string)}
	for _, item := range container.Items {
		if item.ID == "" || item.Name == "" {
			continue
		}
		catalog.Libraries = append(catalog.Libraries, Library{ID: item.ID, Name: item.Name})
		catalog.Aliases[item.ID] = item.ID
	}
	return catalog, nil
}

const itemLookupChunk = 50

// ItemNames resolves arbitrary item IDs to display names via /Items. Lookup
// failures are logged and skipped so an audit keeps going when a stale ID no
// longer resolves.
func (c *Client) ItemNames(ctx context.Context, ids []string) (map[string]string, error) {
	names := make(map[string]string, len(ids))
	for start := 0; start < len(ids); start += itemLookupChunk {
		end := min(start+itemLookupChunk, len(ids))
		batch := ids[start:end]

		query := url.Values{"Ids": []string{strings.Join(batch, ",")}}
		var container itemContainer
		if err := c.doJSON(ctx, http.MethodGet, "/Items", query, nil, &container); err != nil {
			c.logger.Debug("item lookup failed", "count", len(batch), "error", err)
			continue
		}
		for _, item := range container.Items {
			if item.ID != "" && item.Name != "" {
				names[item.ID] = item.Name
			}
		}
	}
	return names, nil
}
