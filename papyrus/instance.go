package papyrus

import (
	"github.com/probechain/papyrus-core/codec"
)

// instancePreamble holds the fields common to every "preamble" read in
// §4.3 steps 6-8 (ScriptInstance, Reference, StructInstance): a class-name
// lookup, a 16-bit unknown whose low two bits gate a conditional trailing
// byte under Fallout 4, a game-native RefID, and a trailing unknown byte.
type instancePreamble struct {
	EID       *EID
	ClassName *TString
	Unk16     uint16
	RefID     uint32 // opaque game-native RefID (§6 "consumed as an opaque handle")
	Unk8      byte
	ExtraByte *byte // present under Fallout 4 iff Unk16&0x3 == 3
}

func decodeInstancePreamble(c *codec.Cursor, in *Interner, st *StringTable, variant interface {
	HasStructs() bool
}) (*instancePreamble, error) {
	eid, err := in.ReadEID(c, "instance eid")
	if err != nil {
		return nil, err
	}
	className, err := st.ReadIndex(c, "instance class name")
	if err != nil {
		return nil, err
	}
	unk16, err := c.ReadU16("instance unk16")
	if err != nil {
		return nil, err
	}
	refID, err := c.ReadU32("instance refid")
	if err != nil {
		return nil, err
	}
	unk8, err := c.ReadU8("instance unk8")
	if err != nil {
		return nil, err
	}
	p := &instancePreamble{EID: eid, ClassName: className, Unk16: unk16, RefID: refID, Unk8: unk8}
	if variant.HasStructs() && unk16&0x3 == 3 {
		extra, err := c.ReadU8("instance extra byte")
		if err != nil {
			return nil, err
		}
		p.ExtraByte = &extra
	}
	return p, nil
}

func (p *instancePreamble) encode(w *codec.Writer, in *Interner, st *StringTable) {
	in.WriteEID(w, p.EID)
	st.WriteIndex(w, p.ClassName)
	w.WriteU16(p.Unk16)
	w.WriteU32(p.RefID)
	w.WriteU8(p.Unk8)
	if p.ExtraByte != nil {
		w.WriteU8(*p.ExtraByte)
	}
}

func (p *instancePreamble) calculateSize(in *Interner, st *StringTable) int {
	size := in.SizeOfEID() + st.SizeOfIndex(p.ClassName) + 2 + 4 + 1
	if p.ExtraByte != nil {
		size++
	}
	return size
}

// instanceData is the shared shape of the "separately-loaded data blob"
// every defined instance carries (§3 "Defined instances"): flag byte,
// state, two unknown integers, and the ordered variable vector.
type instanceData struct {
	Flag  byte
	State *TString
	Unk1  uint32
	Unk2  uint32
	Vars  []*Variable
}

func decodeInstanceData(c *codec.Cursor, in *Interner, st *StringTable) (*instanceData, error) {
	flag, err := c.ReadU8("instance data flag")
	if err != nil {
		return nil, err
	}
	state, err := st.ReadIndex(c, "instance data state")
	if err != nil {
		return nil, err
	}
	unk1, err := c.ReadU32("instance data unk1")
	if err != nil {
		return nil, err
	}
	unk2, err := c.ReadU32("instance data unk2")
	if err != nil {
		return nil, err
	}
	count, err := c.ReadU32("instance data var count")
	if err != nil {
		return nil, err
	}
	d := &instanceData{Flag: flag, State: state, Unk1: unk1, Unk2: unk2}
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

func (d *instanceData) encode(w *codec.Writer, in *Interner, st *StringTable) {
	w.WriteU8(d.Flag)
	st.WriteIndex(w, d.State)
	w.WriteU32(d.Unk1)
	w.WriteU32(d.Unk2)
	w.WriteU32(uint32(len(d.Vars)))
	for _, v := range d.Vars {
		v.encode(w, in, st)
	}
}

func (d *instanceData) calculateSize(in *Interner, st *StringTable) int {
	size := 1 + st.SizeOfIndex(d.State) + 4 + 4 + 4
	for _, v := range d.Vars {
		size += v.calculateSize(in, st)
	}
	return size
}

// ScriptInstance is a defined instance of a Script (§3).
type ScriptInstance struct {
	*instancePreamble
	*instanceData
	Class         *Script // resolved post-preamble; nil means undefined
	QueuedUnbinds []*QueuedUnbind
}

func (s *ScriptInstance) NodeEID() *EID { return s.EID }

// IsUndefined reports whether the instance's class name failed to resolve.
func (s *ScriptInstance) IsUndefined() bool { return s.Class == nil }

// IsUnattached reports whether the instance's game-native RefID is the zero
// sentinel (§4.6, §GLOSSARY "Unattached").
func (s *ScriptInstance) IsUnattached() bool { return s.RefID == 0 }

// IsMemberless reports the "variables.len()==0 but descriptors non-empty"
// warning condition (§4.6).
func (s *ScriptInstance) IsMemberless() bool {
	return s.Class != nil && len(s.Vars) == 0 && len(s.Class.ExtendedMembers()) > 0
}

// IsDefinitionMismatch reports the "variables.length != descriptors.length"
// warning condition (§4.6), which requires Vars to be non-empty (an empty
// Vars is the distinct "memberless" condition instead).
func (s *ScriptInstance) IsDefinitionMismatch() bool {
	return s.Class != nil && len(s.Vars) != 0 && len(s.Vars) != len(s.Class.ExtendedMembers())
}

// Reference is a defined instance that refers to a placed object (§3). It
// shares the same preamble/data shape as ScriptInstance but is not itself a
// script instance (no queued unbinds, no class-member alignment semantics
// beyond the shared invariant).
type Reference struct {
	*instancePreamble
	*instanceData
	Class *Script
}

func (r *Reference) NodeEID() *EID      { return r.EID }
func (r *Reference) IsUndefined() bool  { return r.Class == nil }

// StructInstance is a defined instance of a Struct (Fallout 4 only, §3).
type StructInstance struct {
	*instancePreamble
	*instanceData
	Class *Struct
}

func (s *StructInstance) NodeEID() *EID     { return s.EID }
func (s *StructInstance) IsUndefined() bool { return s.Class == nil }
