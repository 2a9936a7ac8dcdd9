// Package common holds the small set of types shared by every layer of the
// Papyrus core: the closed error taxonomy (§7) and the game-variant flags
// that thread through the decoder, re-encoder, and auditor.
package common

import "fmt"

// Truncated is returned when a primitive read would exceed the buffer. A
// Truncated error never propagates past the parse boundary: the decoder
// records it on the graph's Truncated flag and keeps the partial result.
type Truncated struct {
	Where string // name of the field/section being read when the buffer ran out
}

func (e *Truncated) Error() string {
	return fmt.Sprintf("truncated: %s", e.Where)
}

// FormatError reports a magic mismatch, an invalid tag ordinal, an invalid
// variable count, an invalid opcode, or an invalid type code. Recoverable
// per-entry; fatal per-block (the auditor marks the whole block broken).
type FormatError struct {
	Where  string
	Detail string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("format error at %s: %s", e.Where, e.Detail)
}

// ListError wraps a failure that occurred while decoding one element of a
// length-prefixed collection. It always carries the partially built
// container so callers can keep going.
type ListError struct {
	Index    int
	Count    int
	Cause    error
	Partial  interface{}
}

func (e *ListError) Error() string {
	return fmt.Sprintf("list error: element %d/%d: %v", e.Index, e.Count, e.Cause)
}

func (e *ListError) Unwrap() error { return e.Cause }

// ElementError wraps a failure that occurred while decoding one node,
// carrying the partial node so the caller can still inspect it.
type ElementError struct {
	Element interface{}
	Cause   error
}

func (e *ElementError) Error() string {
	return fmt.Sprintf("element error: %v", e.Cause)
}

func (e *ElementError) Unwrap() error { return e.Cause }

// ErrZeroIndex is returned by "set variable" operations for index <= 0,
// including index 0. This mirrors a long-standing quirk in the source VM
// that forbids mutating the first variable slot; see the Open Questions in
// SPEC_FULL.md / DESIGN.md. Kept distinct from ErrIndexOutOfBounds so a
// future change in behavior shows up in tests instead of being absorbed.
var ErrZeroIndex = &FormatError{Where: "variable index", Detail: "index <= 0 is rejected"}

// ErrIndexOutOfBounds is returned when a variable or parameter index is
// outside the bounds of its owning collection.
var ErrIndexOutOfBounds = &FormatError{Where: "index", Detail: "index out of bounds"}

// ErrUnresolvedElement indicates a referenced EID does not resolve to any
// known node and is not the zero sentinel either — a global invariant
// violation (§3).
var ErrUnresolvedElement = &FormatError{Where: "EID", Detail: "unresolved, non-zero element reference"}
