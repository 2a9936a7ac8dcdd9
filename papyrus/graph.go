package papyrus

import "github.com/probechain/papyrus-core/common"

// Papyrus is the complete in-memory object graph produced by Decode (§2,
// §3). Every primary keyed collection preserves insertion order (§5
// "Ordering guarantees"), which is read order and (on re-encode) write
// order.
type Papyrus struct {
	Header  uint16
	Variant common.GameVariant

	Strings  *StringTable
	Interner *Interner

	Scripts *orderedMap[string, *Script] // keyed by folded name
	Structs *orderedMap[string, *Struct] // Fallout 4 only

	ScriptInstances *orderedMap[uint64, *ScriptInstance]
	References      *orderedMap[uint64, *Reference]
	StructInstances *orderedMap[uint64, *StructInstance] // Fallout 4 only
	Arrays          *orderedMap[uint64, *ArrayInfo]
	Runtime         *EID
	ActiveScripts   *orderedMap[uint64, *ActiveScript]

	FunctionMessages []*FunctionMessage
	Suspended        *suspendedStackMaps

	Unk1    uint32
	Unk2    uint32
	HasUnk2 bool

	UnknownIDs []*EID

	Unbinds *orderedMap[uint64, *QueuedUnbind]

	SaveFileVersion    uint16
	HasSaveFileVersion bool

	ArraysTrailer []byte
	OtherData     *OtherData

	StringTableTruncated bool
	Truncated            bool // any section truncated
	Broken               bool // a FormatError was hit at block granularity
}

// initEmptyCollections gives every keyed collection an empty, non-nil value
// up front, so a graph returned from any early-truncation exit in Decode is
// still safe to range over (§6 "parse ... always returns something even on
// failure") instead of panicking on a nil orderedMap. The normal decode path
// overwrites most of these with appropriately-sized maps once it reaches
// each section; this only matters for sections decode never got to.
func (p *Papyrus) initEmptyCollections() {
	p.Scripts = newOrderedMap[string, *Script](0)
	p.ScriptInstances = newOrderedMap[uint64, *ScriptInstance](0)
	p.References = newOrderedMap[uint64, *Reference](0)
	p.Arrays = newOrderedMap[uint64, *ArrayInfo](0)
	p.ActiveScripts = newOrderedMap[uint64, *ActiveScript](0)
	p.Unbinds = newOrderedMap[uint64, *QueuedUnbind](0)
	p.Suspended = newSuspendedStackMaps()
	if p.Variant.HasStructs() {
		p.Structs = newOrderedMap[string, *Struct](0)
		p.StructInstances = newOrderedMap[uint64, *StructInstance](0)
	}
}

// linkScriptParents resolves every script's parent pointer by name lookup
// (§4.3 step 4: "After all are read, every script resolves parent by
// lookup"), called immediately after the scripts map is fully populated.
func (p *Papyrus) linkScriptParents() {
	p.Scripts.Each(func(_ string, s *Script) {
		if s.ParentName == nil || s.ParentName.Content == "" {
			return
		}
		if parent, ok := p.Scripts.Get(s.ParentName.FoldedKey()); ok {
			s.Parent = parent
		} else {
			s.MissingParent = true
		}
	})
}

// linkReferences performs the remaining post-decode linking §4.3 describes:
// defined-instance class resolution, Variable resolved-target population,
// active-script owner/suspended-stack attachment, and queued-unbind owner
// resolution. Called once, after step 18 completes.
func (p *Papyrus) linkReferences() {
	p.ScriptInstances.Each(func(_ uint64, inst *ScriptInstance) {
		if cls, ok := p.Scripts.Get(inst.ClassName.FoldedKey()); ok {
			inst.Class = cls
		}
	})
	p.References.Each(func(_ uint64, ref *Reference) {
		if cls, ok := p.Scripts.Get(ref.ClassName.FoldedKey()); ok {
			ref.Class = cls
		}
	})
	if p.Structs != nil {
		p.StructInstances.Each(func(_ uint64, inst *StructInstance) {
			if cls, ok := p.Structs.Get(inst.ClassName.FoldedKey()); ok {
				inst.Class = cls
			}
		})
	}

	resolveVar := func(v *Variable) {
		if v == nil {
			return
		}
		switch v.Tag {
		case TagRef:
			if n, ok := p.lookupScriptInstanceOrReference(v.Target); ok {
				v.resolved = n
			}
		case TagStruct:
			if n, ok := p.StructInstances.Get(v.Target.Value()); ok {
				v.resolved = n
			}
		default:
			if v.Tag.IsArray() {
				if n, ok := p.Arrays.Get(v.ArrayEID.Value()); ok {
					v.resolved = n
				}
			}
		}
	}
	p.eachVariable(resolveVar)

	// §4.3: "resolve each active script's owner (first frame's owner
	// variable) and attach the matching suspended stack (if any)".
	p.ActiveScripts.Each(func(_ uint64, a *ActiveScript) {
		if len(a.Frames) > 0 && a.Frames[0].Owner != nil {
			a.attachedOwner = a.Frames[0].Owner.ResolvedTarget()
		}
		if s, ok := p.Suspended.lookup(a.EID); ok {
			a.suspended = s
		}
	})

	p.Unbinds.Each(func(_ uint64, u *QueuedUnbind) {
		if owner, ok := p.ScriptInstances.Get(u.EID.Value()); ok {
			u.Owner = owner
		}
		// else: unresolved target, demoted to an auditor warning (§9 Open
		// Question), not a fatal format error.
	})
}

// EachSuspendedStack iterates every suspended stack from both EID-keyed
// maps, in insertion order within each map (§5 "Ordering guarantees"); a
// stack present in both (should not happen in practice) is visited twice.
// Exported for the cross-reference engine, which walks suspended-stack
// edges from outside this package.
func (p *Papyrus) EachSuspendedStack(fn func(uint64, *SuspendedStack)) {
	p.Suspended.first.Each(fn)
	p.Suspended.second.Each(fn)
}

func (p *Papyrus) lookupScriptInstanceOrReference(eid *EID) (Node, bool) {
	if eid == nil {
		return nil, false
	}
	if n, ok := p.ScriptInstances.Get(eid.Value()); ok {
		return n, true
	}
	if n, ok := p.References.Get(eid.Value()); ok {
		return n, true
	}
	return nil, false
}

// eachVariable walks every Variable reachable from the graph: instance/
// reference/struct-instance data vectors, array elements, frame owners and
// variables, function message variables, suspended-stack variables.
func (p *Papyrus) eachVariable(fn func(*Variable)) {
	p.ScriptInstances.Each(func(_ uint64, i *ScriptInstance) {
		for _, v := range i.Vars {
			fn(v)
		}
	})
	p.References.Each(func(_ uint64, r *Reference) {
		for _, v := range r.Vars {
			fn(v)
		}
	})
	if p.StructInstances != nil {
		p.StructInstances.Each(func(_ uint64, i *StructInstance) {
			for _, v := range i.Vars {
				fn(v)
			}
		})
	}
	p.Arrays.Each(func(_ uint64, a *ArrayInfo) {
		for _, v := range a.Vars {
			fn(v)
		}
	})
	p.ActiveScripts.Each(func(_ uint64, a *ActiveScript) {
		fn(a.Owner)
		for _, f := range a.Frames {
			fn(f.Owner)
			for _, v := range f.Vars {
				fn(v)
			}
		}
	})
	for _, m := range p.FunctionMessages {
		if m.Data != nil {
			fn(m.Data.Owner)
			for _, v := range m.Data.Vars {
				fn(v)
			}
		}
	}
	walkSuspended := func(_ uint64, s *SuspendedStack) {
		if s.Data != nil {
			fn(s.Data.Owner)
			for _, v := range s.Data.Vars {
				fn(v)
			}
		}
	}
	p.Suspended.first.Each(walkSuspended)
	p.Suspended.second.Each(walkSuspended)
}
