// Package jellyfin is the HTTP client for the Jellyfin management API.
//
// It covers the endpoints the audit and grant commands need: the virtual
// folder catalog (with the media-folder fallback older servers require),
// the user list, and per-user access policies including the PUT-then-POST
// write strategy some server versions demand. All requests carry the API key
// as X-Emby-Token plus a MediaBrowser identity header.
package jellyfin
