package papyrus

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/probechain/papyrus-core/codec"
	"github.com/probechain/papyrus-core/common"
)

// EID is a tagged element identifier (§3). It is interned per load so equal
// numeric values compare by identity: two EIDs obtained from the same
// Interner for the same number are the same *EID pointer, which makes
// EID comparable with == and usable as a map key by identity.
//
// Zero is the sentinel meaning "no object" (Interner.Zero always returns
// the same instance).
type EID struct {
	value   uint64
	wide    bool // true if this save uses 64-bit EIDs (Fallout 4)
	interner *Interner
}

// Value returns the raw numeric identifier.
func (e *EID) Value() uint64 { return e.value }

// IsZero reports whether this is the "no object" sentinel.
func (e *EID) IsZero() bool { return e.value == 0 }

// Wide reports whether this EID was read/written in the 64-bit form.
func (e *EID) Wide() bool { return e.wide }

func (e *EID) String() string {
	if e.wide {
		return fmt.Sprintf("0x%016X", e.value)
	}
	return fmt.Sprintf("0x%08X", e.value)
}

// Interner interns EIDs per loaded save (§3, §5: "owned by the enclosing
// Papyrus block"). A fresh Interner must be created per load; interners are
// never shared across loads, which is what makes pointer identity a valid
// equality check.
type Interner struct {
	loadID uuid.UUID
	wide   bool
	table  map[uint64]*EID
	zero   *EID
}

// NewInterner creates an interner scoped to one load. wide selects the
// 32-bit vs. 64-bit EID encoding (§3 "Game variant dictates EID width").
func NewInterner(wide bool) *Interner {
	in := &Interner{
		loadID: uuid.New(),
		wide:   wide,
		table:  make(map[uint64]*EID),
	}
	in.zero = &EID{value: 0, wide: wide, interner: in}
	in.table[0] = in.zero
	return in
}

// LoadID returns the interner's load-scoped UUID. The core's own log lines
// do not include it.
func (in *Interner) LoadID() uuid.UUID { return in.loadID }

// Zero returns the shared "no object" sentinel EID for this load.
func (in *Interner) Zero() *EID { return in.zero }

// Intern returns the canonical *EID for value, creating it on first use.
// Reading the same numeric value twice through the same Interner yields
// identical handles (§8 property 3).
func (in *Interner) Intern(value uint64) *EID {
	if e, ok := in.table[value]; ok {
		return e
	}
	e := &EID{value: value, wide: in.wide, interner: in}
	in.table[value] = e
	return e
}

// ReadEID32 reads a 32-bit EID from the cursor and interns it.
func (in *Interner) ReadEID32(c *codec.Cursor, where string) (*EID, error) {
	v, err := c.ReadU32(where)
	if err != nil {
		return nil, err
	}
	return in.Intern(uint64(v)), nil
}

// ReadEID64 reads a 64-bit EID from the cursor and interns it.
func (in *Interner) ReadEID64(c *codec.Cursor, where string) (*EID, error) {
	v, err := c.ReadU64(where)
	if err != nil {
		return nil, err
	}
	return in.Intern(v), nil
}

// ReadEID reads an EID using this interner's configured width.
func (in *Interner) ReadEID(c *codec.Cursor, where string) (*EID, error) {
	if in.wide {
		return in.ReadEID64(c, where)
	}
	return in.ReadEID32(c, where)
}

// WriteEID writes e using this interner's configured width, regardless of
// the width e itself was created with (re-encoding always follows the
// owning save's declared width).
func (in *Interner) WriteEID(w *codec.Writer, e *EID) {
	if e == nil {
		e = in.zero
	}
	if in.wide {
		w.WriteU64(e.value)
	} else {
		w.WriteU32(uint32(e.value))
	}
}

// SizeOfEID returns the serialized width of an EID for this interner: 4 or
// 8 bytes.
func (in *Interner) SizeOfEID() int {
	if in.wide {
		return 8
	}
	return 4
}

// WriteEID32 writes e in the fixed 32-bit form, regardless of the
// interner's configured width (§6 row 11: "papyrus_runtime | EID32 |
// always" — a handful of fields are fixed-width 32-bit EIDs even under the
// Fallout 4 variant).
func (in *Interner) WriteEID32(w *codec.Writer, e *EID) {
	if e == nil {
		e = in.zero
	}
	w.WriteU32(uint32(e.value))
}

// SizeOfEID32 returns the fixed 4-byte size of a WriteEID32 field.
func (in *Interner) SizeOfEID32() int { return 4 }

// Resolve looks e up against a resolver function (typically a node map's
// lookup-by-EID), returning common.ErrUnresolvedElement if e is non-zero and
// unresolved (§3 global invariant).
func Resolve[T any](e *EID, lookup func(*EID) (T, bool)) (T, error) {
	var zero T
	if e == nil || e.IsZero() {
		return zero, nil
	}
	if v, ok := lookup(e); ok {
		return v, nil
	}
	return zero, common.ErrUnresolvedElement
}
