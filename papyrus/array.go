package papyrus

import "github.com/probechain/papyrus-core/codec"

// ArrayInfo is a heap array (§3 "Heap array"). Its preamble (element type,
// optional element class name, declared length) is read in step 9; its
// data blob (exactly DeclaredLength Variables) is read in the data-blob
// pass, step 12.
type ArrayInfo struct {
	EID            *EID
	ElemType       TypeTag
	ElemClassName  *TString // present iff ElemType is Ref or Struct
	DeclaredLength uint32

	Vars []*Variable // populated by the data-blob pass
}

func (a *ArrayInfo) NodeEID() *EID { return a.EID }

func decodeArrayPreamble(c *codec.Cursor, in *Interner, st *StringTable) (*ArrayInfo, error) {
	eid, err := in.ReadEID(c, "array eid")
	if err != nil {
		return nil, err
	}
	tag, err := decodeTypeTag(c, "array elem type")
	if err != nil {
		return nil, err
	}
	a := &ArrayInfo{EID: eid, ElemType: tag}
	if tag == TagRef || tag == TagStruct {
		cn, err := st.ReadIndex(c, "array elem class name")
		if err != nil {
			return nil, err
		}
		a.ElemClassName = cn
	}
	length, err := c.ReadU32("array declared length")
	if err != nil {
		return nil, err
	}
	a.DeclaredLength = length
	return a, nil
}

func (a *ArrayInfo) encodePreamble(w *codec.Writer, in *Interner, st *StringTable) {
	in.WriteEID(w, a.EID)
	w.WriteU8(uint8(a.ElemType))
	if a.ElemType == TagRef || a.ElemType == TagStruct {
		st.WriteIndex(w, a.ElemClassName)
	}
	w.WriteU32(a.DeclaredLength)
}

func (a *ArrayInfo) calculateSizePreamble(in *Interner, st *StringTable) int {
	size := in.SizeOfEID() + 1 + 4
	if a.ElemType == TagRef || a.ElemType == TagStruct {
		size += st.SizeOfIndex(a.ElemClassName)
	}
	return size
}

func decodeArrayData(c *codec.Cursor, in *Interner, st *StringTable, a *ArrayInfo) error {
	vars := make([]*Variable, 0, a.DeclaredLength)
	for i := uint32(0); i < a.DeclaredLength; i++ {
		v, err := decodeVariable(c, in, st)
		if err != nil {
			a.Vars = vars
			return listErrorf(int(i), int(a.DeclaredLength), err)
		}
		vars = append(vars, v)
	}
	a.Vars = vars
	return nil
}

func (a *ArrayInfo) encodeData(w *codec.Writer, in *Interner, st *StringTable) {
	for _, v := range a.Vars {
		v.encode(w, in, st)
	}
}

func (a *ArrayInfo) calculateSizeData(in *Interner, st *StringTable) int {
	size := 0
	for _, v := range a.Vars {
		size += v.calculateSize(in, st)
	}
	return size
}
