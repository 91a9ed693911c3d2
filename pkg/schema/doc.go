// Package schema checks tree and conversation documents against the
// structural contract of the decision-tree format.
//
// Validation is deliberately side-effect free: it returns a Result
// listing every violation with a path and a message, and never panics
// on malformed input, since malformed input is exactly what it exists to
// report. Checks short-circuit within a section (metadata, flow,
// references, options, history) but accumulate across sections, so a
// document with a missing metadata field and a dangling node reference
// reports both.
//
// The same validator runs at load time (rejecting unusable trees before
// a conversation starts) and inside the offline batch checker.
package schema
