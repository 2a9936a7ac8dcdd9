package papyrus

import "github.com/probechain/papyrus-core/common"

// Graph-mutation operations (§4.7). These are contracts only: the core
// never calls them during decode or encode; the hosting application invokes
// them explicitly. All three must leave the graph re-encodable, and any
// mutation invalidates the cross-reference indices (the caller's
// responsibility to rebuild, per §5).

// RemoveUnattachedInstances removes every ScriptInstance whose RefID is the
// zero sentinel, cascading to queued unbinds that refer to those instances
// (§4.7).
func (p *Papyrus) RemoveUnattachedInstances() []*ScriptInstance {
	var removed []*ScriptInstance
	for _, key := range append([]uint64{}, p.ScriptInstances.Keys()...) {
		inst, _ := p.ScriptInstances.Get(key)
		if !inst.IsUnattached() {
			continue
		}
		removed = append(removed, inst)
		p.ScriptInstances.Delete(key)
	}
	if len(removed) == 0 {
		return nil
	}
	removedSet := make(map[*ScriptInstance]bool, len(removed))
	for _, r := range removed {
		removedSet[r] = true
	}
	for _, key := range append([]uint64{}, p.Unbinds.Keys()...) {
		u, _ := p.Unbinds.Get(key)
		if u.Owner != nil && removedSet[u.Owner] {
			p.Unbinds.Delete(key)
		}
	}
	return removed
}

// RemoveUndefinedElements removes every script/struct/instance/reference
// whose class is unresolved, and zeroes every active-script whose class is
// unresolved and not terminated (§4.7). Returns the set of removed
// elements.
func (p *Papyrus) RemoveUndefinedElements() []Node {
	var removed []Node

	for _, key := range append([]uint64{}, p.ScriptInstances.Keys()...) {
		inst, _ := p.ScriptInstances.Get(key)
		if inst.IsUndefined() {
			removed = append(removed, inst)
			p.ScriptInstances.Delete(key)
		}
	}
	for _, key := range append([]uint64{}, p.References.Keys()...) {
		ref, _ := p.References.Get(key)
		if ref.IsUndefined() {
			removed = append(removed, ref)
			p.References.Delete(key)
		}
	}
	if p.StructInstances != nil {
		for _, key := range append([]uint64{}, p.StructInstances.Keys()...) {
			inst, _ := p.StructInstances.Get(key)
			if inst.IsUndefined() {
				removed = append(removed, inst)
				p.StructInstances.Delete(key)
			}
		}
	}
	for _, key := range append([]string{}, p.Scripts.Keys()...) {
		s, _ := p.Scripts.Get(key)
		if s.MissingParent {
			removed = append(removed, scriptNode{s})
			p.Scripts.Delete(key)
		}
	}

	p.ActiveScripts.Each(func(_ uint64, a *ActiveScript) {
		if a.IsUndefined() && !a.IsTerminated() {
			terminateThread(a)
		}
	})

	return removed
}

// scriptNode adapts *Script to the Node interface for RemoveUndefinedElements'
// uniform return type; Script itself has no EID (it's keyed by name).
type scriptNode struct{ *Script }

func (scriptNode) NodeEID() *EID { return nil }

// TerminateUndefinedThreads replaces every opcode in every frame of each
// matching thread with the shared NOP sentinel (§4.7, §9 "Stack-frame
// opcode stream").
func (p *Papyrus) TerminateUndefinedThreads() []*ActiveScript {
	var terminated []*ActiveScript
	p.ActiveScripts.Each(func(_ uint64, a *ActiveScript) {
		if a.IsUndefined() && !a.IsTerminated() {
			terminateThread(a)
			terminated = append(terminated, a)
		}
	})
	return terminated
}

// SetVariable replaces the Variable at index (§9: "several 'set variable'
// operations reject index <= 0, rejecting index 0 as well"). The rejection
// of index 0 itself, not just negative indices, is preserved verbatim
// rather than normalized away, so a future correction is visible as a test
// diff instead of a silent behavior change.
func (d *instanceData) SetVariable(index int, v *Variable) error {
	if index <= 0 {
		return common.ErrZeroIndex
	}
	if index >= len(d.Vars) {
		return common.ErrIndexOutOfBounds
	}
	d.Vars[index] = v
	return nil
}

// SetElement replaces the Variable at index in the array's data blob,
// applying the same index <= 0 rejection as SetVariable (§9).
func (a *ArrayInfo) SetElement(index int, v *Variable) error {
	if index <= 0 {
		return common.ErrZeroIndex
	}
	if index >= len(a.Vars) {
		return common.ErrIndexOutOfBounds
	}
	a.Vars[index] = v
	return nil
}

func terminateThread(a *ActiveScript) {
	for _, f := range a.Frames {
		for i := range f.Opcodes {
			f.Opcodes[i] = nopInstruction()
		}
	}
}
