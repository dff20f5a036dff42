// Package audit builds the user × library access matrix and serializes it
// for console or CSV output.
package audit
