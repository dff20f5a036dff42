// Package grants plans and applies library allow-list changes across every
// user on the server. Users whose policy already grants all libraries are
// skipped rather than converted to an explicit list, and each user's update
// is independent and best-effort.
package grants
