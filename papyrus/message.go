package papyrus

import "github.com/probechain/papyrus-core/codec"

// FunctionMessageData is the shared payload shape of FunctionMessage and
// SuspendedStack (§3 "Function message", "Suspended stack"): one unknown
// byte, script-name, event-name, an owner Variable, and a length-prefixed
// variable vector.
type FunctionMessageData struct {
	Unk        byte
	ScriptName *TString
	EventName  *TString
	Owner      *Variable
	Vars       []*Variable
}

func decodeFunctionMessageData(c *codec.Cursor, in *Interner, st *StringTable) (*FunctionMessageData, error) {
	d := &FunctionMessageData{}
	var err error
	if d.Unk, err = c.ReadU8("message data unknown byte"); err != nil {
		return nil, err
	}
	if d.ScriptName, err = st.ReadIndex(c, "message data script name"); err != nil {
		return nil, err
	}
	if d.EventName, err = st.ReadIndex(c, "message data event name"); err != nil {
		return nil, err
	}
	owner, err := decodeVariable(c, in, st)
	if err != nil {
		return d, err
	}
	d.Owner = owner
	count, err := c.ReadU32("message data variable count")
	if err != nil {
		return d, err
	}
	vars := make([]*Variable, 0, count)
	for i := uint32(0); i < count; i++ {
		v, err := decodeVariable(c, in, st)
		if err != nil {
			d.Vars = vars
			return d, listErrorf(int(i), int(count), err)
		}
		vars = append(vars, v)
	}
	d.Vars = vars
	return d, nil
}

func (d *FunctionMessageData) encode(w *codec.Writer, in *Interner, st *StringTable) {
	w.WriteU8(d.Unk)
	st.WriteIndex(w, d.ScriptName)
	st.WriteIndex(w, d.EventName)
	d.Owner.encode(w, in, st)
	w.WriteU32(uint32(len(d.Vars)))
	for _, v := range d.Vars {
		v.encode(w, in, st)
	}
}

func (d *FunctionMessageData) calculateSize(in *Interner, st *StringTable) int {
	size := 1 + st.SizeOfIndex(d.ScriptName) + st.SizeOfIndex(d.EventName) + 4
	size += d.Owner.calculateSize(in, st)
	for _, v := range d.Vars {
		size += v.calculateSize(in, st)
	}
	return size
}

// FunctionMessage is a queued inter-thread message (§3 "Function message").
// Function-messages form an ordered sequence by index, not an EID-keyed map
// (§5 "Ordering guarantees").
type FunctionMessage struct {
	Flag   byte
	EID    *EID // present iff Flag <= 2
	DataFlag byte
	Data   *FunctionMessageData // present iff DataFlag != 0
}

func decodeFunctionMessage(c *codec.Cursor, in *Interner, st *StringTable) (*FunctionMessage, error) {
	m := &FunctionMessage{}
	var err error
	if m.Flag, err = c.ReadU8("message flag"); err != nil {
		return nil, err
	}
	if m.Flag <= 2 {
		eid, err := in.ReadEID(c, "message eid")
		if err != nil {
			return m, err
		}
		m.EID = eid
	}
	if m.DataFlag, err = c.ReadU8("message data flag"); err != nil {
		return m, err
	}
	if m.DataFlag != 0 {
		data, err := decodeFunctionMessageData(c, in, st)
		if err != nil {
			return m, elementErrorf(m, err)
		}
		m.Data = data
	}
	return m, nil
}

func (m *FunctionMessage) encode(w *codec.Writer, in *Interner, st *StringTable) {
	w.WriteU8(m.Flag)
	if m.Flag <= 2 {
		in.WriteEID(w, m.EID)
	}
	w.WriteU8(m.DataFlag)
	if m.DataFlag != 0 {
		m.Data.encode(w, in, st)
	}
}

func (m *FunctionMessage) calculateSize(in *Interner, st *StringTable) int {
	size := 1
	if m.Flag <= 2 {
		size += in.SizeOfEID()
	}
	size += 1
	if m.DataFlag != 0 {
		size += m.Data.calculateSize(in, st)
	}
	return size
}
