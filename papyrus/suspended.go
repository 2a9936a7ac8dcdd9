package papyrus

import "github.com/probechain/papyrus-core/codec"

// SuspendedStack is a paused thread waiting to resume (§3, §GLOSSARY
// "Suspended stack"). The graph holds two EID-keyed maps of these (§4.3
// step 14) that are semantically unioned when resolving a thread's
// suspension state (§4.3 "attach the matching suspended stack (if any) from
// the union of the two stack maps").
type SuspendedStack struct {
	EID  *EID
	Flag byte
	Data *FunctionMessageData // present iff Flag != 0
}

func (s *SuspendedStack) NodeEID() *EID { return s.EID }

func decodeSuspendedStack(c *codec.Cursor, in *Interner, st *StringTable) (*SuspendedStack, error) {
	s := &SuspendedStack{}
	var err error
	if s.EID, err = in.ReadEID(c, "suspended stack eid"); err != nil {
		return nil, err
	}
	if s.Flag, err = c.ReadU8("suspended stack flag"); err != nil {
		return s, err
	}
	if s.Flag != 0 {
		data, err := decodeFunctionMessageData(c, in, st)
		if err != nil {
			return s, elementErrorf(s, err)
		}
		s.Data = data
	}
	return s, nil
}

func (s *SuspendedStack) encode(w *codec.Writer, in *Interner, st *StringTable) {
	in.WriteEID(w, s.EID)
	w.WriteU8(s.Flag)
	if s.Flag != 0 {
		s.Data.encode(w, in, st)
	}
}

func (s *SuspendedStack) calculateSize(in *Interner, st *StringTable) int {
	size := in.SizeOfEID() + 1
	if s.Flag != 0 {
		size += s.Data.calculateSize(in, st)
	}
	return size
}

// suspendedStackMaps is the union-at-query-time pair of EID-keyed suspended
// stack maps the graph owns (§4.3 step 14).
type suspendedStackMaps struct {
	first  *orderedMap[uint64, *SuspendedStack]
	second *orderedMap[uint64, *SuspendedStack]
}

func newSuspendedStackMaps() *suspendedStackMaps {
	return &suspendedStackMaps{
		first:  newOrderedMap[uint64, *SuspendedStack](0),
		second: newOrderedMap[uint64, *SuspendedStack](0),
	}
}

// lookup returns the suspended stack for eid from either map, preferring the
// first map on a (should-not-happen) collision between the two.
func (m *suspendedStackMaps) lookup(eid *EID) (*SuspendedStack, bool) {
	if eid == nil {
		return nil, false
	}
	if s, ok := m.first.Get(eid.Value()); ok {
		return s, true
	}
	return m.second.Get(eid.Value())
}
