package papyrus

import (
	"github.com/probechain/papyrus-core/codec"
	"github.com/probechain/papyrus-core/log"
)

// otherDataTableCount is the fixed number of heterogeneous tables OtherData
// reparses from the trailer (§4.3 step 18, §9 Open Question).
const otherDataTableCount = 14

// otherDataKnownTables is how many of the fourteen tables this decoder
// actually knows how to read; the remainder are unconditionally null, per
// the documented Open Question (§9, DESIGN.md).
const otherDataKnownTables = 7

// GeneralField is one (name, value) pair read by the "general element"
// helper (§4.3 "OtherData ... decoded with a 'general element' helper that
// reads named fields sequentially and stores them by tag").
type GeneralField struct {
	Name  *TString
	Value *Variable
}

// GeneralElement is one entry of an OtherData table: a sequence of named,
// tagged fields, order-preserved for later introspection.
type GeneralElement struct {
	Fields []GeneralField
}

func decodeGeneralElement(c *codec.Cursor, in *Interner, st *StringTable) (*GeneralElement, error) {
	count, err := c.ReadU16("general element field count")
	if err != nil {
		return nil, err
	}
	e := &GeneralElement{Fields: make([]GeneralField, 0, count)}
	for i := uint16(0); i < count; i++ {
		name, err := st.ReadIndex(c, "general element field name")
		if err != nil {
			return e, listErrorf(int(i), int(count), err)
		}
		val, err := decodeVariable(c, in, st)
		if err != nil {
			return e, listErrorf(int(i), int(count), err)
		}
		e.Fields = append(e.Fields, GeneralField{Name: name, Value: val})
	}
	return e, nil
}

func (e *GeneralElement) encode(w *codec.Writer, in *Interner, st *StringTable) {
	w.WriteU16(uint16(len(e.Fields)))
	for _, f := range e.Fields {
		st.WriteIndex(w, f.Name)
		f.Value.encode(w, in, st)
	}
}

func (e *GeneralElement) calculateSize(in *Interner, st *StringTable) int {
	size := 2
	for _, f := range e.Fields {
		size += st.SizeOfIndex(f.Name) + f.Value.calculateSize(in, st)
	}
	return size
}

// OtherDataTable is one of the fourteen slots; nil means "not present/not
// decoded". The tail seven are always nil. When one of the first seven fails
// best effort, its slot holds the elements read before the failure (nil if
// its count could not be read) and the slots after it stay nil.
type OtherDataTable struct {
	Elements []*GeneralElement
}

func decodeOtherDataTable(c *codec.Cursor, in *Interner, st *StringTable) (*OtherDataTable, error) {
	count, err := c.ReadU32("other data table count")
	if err != nil {
		return nil, err
	}
	t := &OtherDataTable{Elements: make([]*GeneralElement, 0, count)}
	for i := uint32(0); i < count; i++ {
		e, err := decodeGeneralElement(c, in, st)
		if err != nil {
			return t, listErrorf(int(i), int(count), err)
		}
		t.Elements = append(t.Elements, e)
	}
	return t, nil
}

func (t *OtherDataTable) encode(w *codec.Writer, in *Interner, st *StringTable) {
	w.WriteU32(uint32(len(t.Elements)))
	for _, e := range t.Elements {
		e.encode(w, in, st)
	}
}

func (t *OtherDataTable) calculateSize(in *Interner, st *StringTable) int {
	size := 4
	for _, e := range t.Elements {
		size += e.calculateSize(in, st)
	}
	return size
}

// OtherData holds the best-effort reparse of the arrays trailer into
// fourteen heterogeneous tables (§4.3 step 18, §9). It is never fatal: any
// decode failure simply stops filling the remaining slots.
type OtherData struct {
	Tables [otherDataTableCount]*OtherDataTable
}

// decodeOtherData reparses trailer with its own bounded cursor. Errors are
// swallowed after logging; OtherData is explicitly best-effort (§4.3, §9).
func decodeOtherData(trailer []byte, in *Interner, st *StringTable) *OtherData {
	od := &OtherData{}
	c := codec.NewCursor(trailer)
	for i := 0; i < otherDataKnownTables; i++ {
		t, err := decodeOtherDataTable(c, in, st)
		if err != nil {
			log.Warn("other-data table %d: best-effort decode stopped: %v", i, err)
			od.Tables[i] = t
			return od
		}
		od.Tables[i] = t
	}
	// The remaining seven are unconditionally null: the format's knowledge
	// of their layout is incomplete (§9 Open Question).
	return od
}
