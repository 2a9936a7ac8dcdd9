package papyrus

import (
	"golang.org/x/text/cases"

	"github.com/probechain/papyrus-core/codec"
	"github.com/probechain/papyrus-core/common"
	"github.com/probechain/papyrus-core/log"
)

var foldCaser = cases.Fold()

func foldKey(s string) string { return foldCaser.String(s) }

// TString is a case-insensitive interned string (§3). Equality is by index
// when both operands are indexed (came from the same table); by
// case-folded content otherwise.
type TString struct {
	Index   int // -1 if this string was created outside of the table (e.g. a literal used for comparison only)
	Content string
	folded  string
}

func newTString(index int, content string) *TString {
	return &TString{Index: index, Content: content, folded: foldKey(content)}
}

// Equal implements §3's TString equality rule.
func (t *TString) Equal(o *TString) bool {
	if t == nil || o == nil {
		return t == o
	}
	if t.Index >= 0 && o.Index >= 0 {
		return t.Index == o.Index
	}
	return t.folded == o.folded
}

func (t *TString) String() string { return t.Content }

// FoldedKey returns the case-folded comparison key, suitable for use as a
// map key when two TStrings must compare equal regardless of index origin
// (e.g. resolving a script's parent by name across separately-read entries).
func (t *TString) FoldedKey() string { return t.folded }

// StringTable is the growing, dedup-on-intern table described in §4.2.
type StringTable struct {
	WideIndices bool // index width discipline; mirrors the write path too
	STBFlag     bool // "string-table-bug" flag (§4.2, §4.3 via game/count combination)
	Truncated   bool
	Writable    bool // false once STBFlag is set

	declared int // count declared in the stream
	entries  []*TString
	byFold   map[string]*TString
}

// NewStringTable creates an empty, writable table using the given index
// width discipline.
func NewStringTable(wideIndices bool) *StringTable {
	return &StringTable{
		WideIndices: wideIndices,
		Writable:    true,
		byFold:      make(map[string]*TString),
	}
}

// Len returns the number of strings actually present (may be less than
// Declared() if the table was truncated).
func (st *StringTable) Len() int { return len(st.entries) }

// Declared returns the count declared in the stream.
func (st *StringTable) Declared() int { return st.declared }

// MissingCount returns declared - present, per §4.2.
func (st *StringTable) MissingCount() int { return st.declared - len(st.entries) }

// Get returns the TString at index, or (nil, false) if out of range.
func (st *StringTable) Get(index int) (*TString, bool) {
	if index < 0 || index >= len(st.entries) {
		return nil, false
	}
	return st.entries[index], true
}

// Intern adds str to the table if an equal (case-folded) entry doesn't
// already exist, returning the canonical TString either way. O(1)
// amortized via byFold.
func (st *StringTable) Intern(str string) *TString {
	key := foldKey(str)
	if existing, ok := st.byFold[key]; ok {
		return existing
	}
	t := newTString(len(st.entries), str)
	st.entries = append(st.entries, t)
	st.byFold[key] = t
	return t
}

// DecodeStringTable reads the string table per §4.2: a length prefix whose
// width depends on wideIndices, with the 0xFFFF legacy escape, and the
// string-table-bug detection for the given variant.
//
// STB condition: §4.2 describes the trigger only as "specific game/count
// combinations," and §8 scenario S3 gives exactly one concrete instance (a
// 16-bit count of 100 under the Skyrim variant, aliasing to a true count of
// 65636). Treating every nonzero narrow-index Skyrim count as buggy would
// condemn virtually every real classic-Skyrim save, which contradicts
// "specific ... combinations." skyrimSTBCounts is therefore a closed set of
// known-bad declared counts, seeded with S3's value; see DESIGN.md's Open
// Question decision for the reasoning and how to extend this set.
// skyrimSTBCounts is the closed set of declared narrow-index counts this
// decoder treats as the string-table bug under the Skyrim variant. 100 is
// §8 scenario S3's value; extend this set only from a concretely observed
// (game, count) pair, not a range or parity guess.
var skyrimSTBCounts = map[uint16]bool{
	100: true,
}

func DecodeStringTable(c *codec.Cursor, variant common.GameVariant, wideIndices bool) (*StringTable, error) {
	st := NewStringTable(wideIndices)

	var count uint32
	if wideIndices {
		v, err := c.ReadU32("string table count")
		if err != nil {
			st.Truncated = true
			return st, nil
		}
		count = v
	} else {
		v16, err := c.ReadU16("string table count")
		if err != nil {
			st.Truncated = true
			return st, nil
		}
		if v16 == 0xFFFF {
			v32, err := c.ReadU32("string table extended count")
			if err != nil {
				st.Truncated = true
				return st, nil
			}
			count = v32
		} else {
			count = uint32(v16)
			if variant == common.VariantSkyrim && skyrimSTBCounts[v16] {
				st.STBFlag = true
				st.Writable = false
				count |= 0x10000
				log.Warn("string-table-bug detected, declared count %d treated as %d", v16, count)
			}
		}
	}
	st.declared = int(count)

	for i := uint32(0); i < count; i++ {
		s, err := c.ReadWString("string table entry")
		if err != nil {
			st.Truncated = true
			log.Warn("truncated string-table, %d strings missing", int(count-i))
			return st, nil
		}
		st.Intern(s)
	}
	return st, nil
}

// ReadIndex reads a string-table index from the cursor using this table's
// width discipline, including the 0xFFFF escape when the table isn't in STB
// mode, and resolves it to the corresponding TString.
func (st *StringTable) ReadIndex(c *codec.Cursor, where string) (*TString, error) {
	var idx uint32
	if st.WideIndices {
		v, err := c.ReadU32(where)
		if err != nil {
			return nil, err
		}
		idx = v
	} else {
		v16, err := c.ReadU16(where)
		if err != nil {
			return nil, err
		}
		if v16 == 0xFFFF && !st.STBFlag {
			v32, err := c.ReadU32(where)
			if err != nil {
				return nil, err
			}
			idx = v32
		} else {
			idx = uint32(v16)
		}
	}
	t, ok := st.Get(int(idx))
	if !ok {
		return nil, &common.FormatError{Where: where, Detail: "invalid string-table index"}
	}
	return t, nil
}

// WriteIndex writes t's index using this table's width discipline.
func (st *StringTable) WriteIndex(w *codec.Writer, t *TString) {
	idx := uint32(0)
	if t != nil {
		idx = uint32(t.Index)
	}
	if st.WideIndices {
		w.WriteU32(idx)
		return
	}
	if idx >= 0xFFFF {
		w.WriteU16(0xFFFF)
		w.WriteU32(idx)
		return
	}
	w.WriteU16(uint16(idx))
}

// SizeOfIndex returns the serialized size of a string-table index for t.
func (st *StringTable) SizeOfIndex(t *TString) int {
	idx := 0
	if t != nil {
		idx = t.Index
	}
	if st.WideIndices {
		return 4
	}
	if idx >= 0xFFFF {
		return 6
	}
	return 2
}

// Encode writes the table back to the stream. Per §4.2, writing the table
// is a no-op semantically unless new strings were added: the bytes differ
// from the original only if Len() != Declared() (or the content changed).
func (st *StringTable) Encode(w *codec.Writer) error {
	if st.STBFlag || !st.Writable {
		return &common.FormatError{Where: "string table", Detail: "string-table-bug: table is read-only"}
	}
	n := uint32(len(st.entries))
	if st.WideIndices {
		w.WriteU32(n)
	} else {
		if n >= 0xFFFF {
			w.WriteU16(0xFFFF)
			w.WriteU32(n)
		} else {
			w.WriteU16(uint16(n))
		}
	}
	for _, s := range st.entries {
		w.WriteWString(s.Content)
	}
	return nil
}

// CalculateSize returns the serialized size of the table.
func (st *StringTable) CalculateSize() int {
	size := 0
	if st.WideIndices {
		size += 4
	} else if len(st.entries) >= 0xFFFF {
		size += 6
	} else {
		size += 2
	}
	for _, s := range st.entries {
		size += codec.SizeOfWString(s.Content)
	}
	return size
}
