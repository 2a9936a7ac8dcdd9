package papyrus

import (
	"github.com/probechain/papyrus-core/codec"
)

// Script is a class definition (§3 "Class definitions"). Scripts form a
// single-inheritance chain resolved after load by looking up Parent's name.
type Script struct {
	Name       *TString
	ParentName *TString
	Members    []*MemberDescriptor

	Parent         *Script // resolved post-load; nil if unresolved
	MissingParent  bool    // set when ParentName didn't resolve to a known Script
	extended       []*MemberDescriptor
	extendedCached bool
}

// ExtendedMembers returns Parent's extended members followed by this
// script's own members (§3). Computed lazily and cached; Parent must
// already be resolved.
func (s *Script) ExtendedMembers() []*MemberDescriptor {
	if s.extendedCached {
		return s.extended
	}
	if s.Parent != nil {
		s.extended = append(append([]*MemberDescriptor{}, s.Parent.ExtendedMembers()...), s.Members...)
	} else {
		s.extended = s.Members
	}
	s.extendedCached = true
	return s.extended
}

func decodeScript(c *codec.Cursor, st *StringTable) (*Script, error) {
	name, err := st.ReadIndex(c, "script name")
	if err != nil {
		return nil, err
	}
	parentName, err := st.ReadIndex(c, "script parent name")
	if err != nil {
		return nil, err
	}
	count, err := c.ReadU16("script member count")
	if err != nil {
		return nil, err
	}
	members := make([]*MemberDescriptor, 0, count)
	for i := uint16(0); i < count; i++ {
		m, err := decodeMemberDescriptor(c, st)
		if err != nil {
			return &Script{Name: name, ParentName: parentName, Members: members},
				listErrorf(int(i), int(count), err)
		}
		members = append(members, m)
	}
	return &Script{Name: name, ParentName: parentName, Members: members}, nil
}

func (s *Script) encode(w *codec.Writer, st *StringTable) {
	st.WriteIndex(w, s.Name)
	st.WriteIndex(w, s.ParentName)
	w.WriteU16(uint16(len(s.Members)))
	for _, m := range s.Members {
		m.encode(w, st)
	}
}

func (s *Script) calculateSize(st *StringTable) int {
	size := st.SizeOfIndex(s.Name) + st.SizeOfIndex(s.ParentName) + 2
	for _, m := range s.Members {
		size += m.calculateSize(st)
	}
	return size
}

// Struct is a struct definition (§3), available only for the Fallout 4
// variant.
type Struct struct {
	Name    *TString
	Members []*MemberDescriptor
}

func decodeStruct(c *codec.Cursor, st *StringTable) (*Struct, error) {
	name, err := st.ReadIndex(c, "struct name")
	if err != nil {
		return nil, err
	}
	count, err := c.ReadU16("struct member count")
	if err != nil {
		return nil, err
	}
	members := make([]*MemberDescriptor, 0, count)
	for i := uint16(0); i < count; i++ {
		m, err := decodeMemberDescriptor(c, st)
		if err != nil {
			return &Struct{Name: name, Members: members}, listErrorf(int(i), int(count), err)
		}
		members = append(members, m)
	}
	return &Struct{Name: name, Members: members}, nil
}

func (s *Struct) encode(w *codec.Writer, st *StringTable) {
	st.WriteIndex(w, s.Name)
	w.WriteU16(uint16(len(s.Members)))
	for _, m := range s.Members {
		m.encode(w, st)
	}
}

func (s *Struct) calculateSize(st *StringTable) int {
	size := st.SizeOfIndex(s.Name) + 2
	for _, m := range s.Members {
		size += m.calculateSize(st)
	}
	return size
}
