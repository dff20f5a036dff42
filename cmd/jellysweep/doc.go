// Package main hosts the jellysweep CLI entrypoint and command graph.
//
// The Cobra-based command tree translates terminal invocations into Jellyfin
// API calls: listing libraries, auditing per-user access, and granting or
// revoking one library across every account. It centralizes configuration
// resolution, client construction, and structured logging setup so
// subcommands can focus on user experience instead of wiring.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
