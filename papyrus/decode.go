package papyrus

import (
	"github.com/probechain/papyrus-core/codec"
	"github.com/probechain/papyrus-core/common"
	"github.com/probechain/papyrus-core/log"
)

// Decode reads a full Papyrus block per the fixed recipe in §4.3. It always
// returns a non-nil, usable graph: on the first Truncated it stops reading
// further sections, marks the graph Truncated, and returns the partial
// graph with a nil error, so truncation is reported only through the
// graph's flags. Any other failure returns the partial graph together with
// the triggering error (§6 "parse ... always returns something even on
// failure").
func Decode(buf []byte, ctx EssContext) (p *Papyrus, err error) {
	p = &Papyrus{Variant: ctx.GameVariant()}
	defer func() {
		if err != nil && p.Truncated && isTruncated(err) {
			err = nil
		}
	}()
	p.initEmptyCollections()
	c := codec.NewCursor(buf)

	header, err := c.ReadU16("header")
	if err != nil {
		p.Truncated = true
		return p, &common.ElementError{Element: p, Cause: err}
	}
	p.Header = header

	strings, err := DecodeStringTable(c, p.Variant, ctx.StringIndexIs32Bit())
	p.Strings = strings
	if err != nil {
		p.Truncated = true
		return p, &common.ElementError{Element: p, Cause: err}
	}
	if strings.Truncated {
		p.StringTableTruncated = true
		p.Truncated = true
		return p, nil
	}

	p.Interner = NewInterner(ctx.EidIs64Bit())

	scriptCount, err := c.ReadU32("script count")
	if err != nil {
		p.Truncated = true
		return p, &common.ElementError{Element: p, Cause: err}
	}
	var structCount uint32
	if p.Variant.HasStructs() {
		if structCount, err = c.ReadU32("struct count"); err != nil {
			p.Truncated = true
			return p, &common.ElementError{Element: p, Cause: err}
		}
	}

	// Step 4: scripts, keyed by folded name.
	p.Scripts = newOrderedMap[string, *Script](int(scriptCount))
	for i := uint32(0); i < scriptCount; i++ {
		s, err := decodeScript(c, p.Strings)
		if s != nil && s.Name != nil {
			p.Scripts.Set(s.Name.FoldedKey(), s)
		}
		if err != nil {
			p.Truncated = isTruncated(err)
			p.Broken = !p.Truncated
			log.Warn("script %d/%d: %v", i, scriptCount, err)
			p.linkScriptParents()
			return p, listErrorf(int(i), int(scriptCount), err)
		}
	}
	p.linkScriptParents()

	// Step 5: structs (Fallout 4 only).
	if p.Variant.HasStructs() {
		p.Structs = newOrderedMap[string, *Struct](int(structCount))
		for i := uint32(0); i < structCount; i++ {
			s, err := decodeStruct(c, p.Strings)
			if s != nil && s.Name != nil {
				p.Structs.Set(s.Name.FoldedKey(), s)
			}
			if err != nil {
				p.Truncated = isTruncated(err)
				p.Broken = !p.Truncated
				return p, listErrorf(int(i), int(structCount), err)
			}
		}
	}

	variantHasStructs := p.Variant

	// Steps 6-8: preamble maps.
	p.ScriptInstances = newOrderedMap[uint64, *ScriptInstance](0)
	if err := decodePreambleMap(c, "script instances", func() (*instancePreamble, error) {
		return decodeInstancePreamble(c, p.Interner, p.Strings, variantHasStructs)
	}, func(pre *instancePreamble) {
		p.ScriptInstances.Set(pre.EID.Value(), &ScriptInstance{instancePreamble: pre})
	}); err != nil {
		p.Truncated = isTruncated(err)
		p.Broken = !p.Truncated
		return p, err
	}

	p.References = newOrderedMap[uint64, *Reference](0)
	if err := decodePreambleMap(c, "references", func() (*instancePreamble, error) {
		return decodeInstancePreamble(c, p.Interner, p.Strings, variantHasStructs)
	}, func(pre *instancePreamble) {
		p.References.Set(pre.EID.Value(), &Reference{instancePreamble: pre})
	}); err != nil {
		p.Truncated = isTruncated(err)
		p.Broken = !p.Truncated
		return p, err
	}

	if p.Variant.HasStructs() {
		p.StructInstances = newOrderedMap[uint64, *StructInstance](0)
		if err := decodePreambleMap(c, "struct instances", func() (*instancePreamble, error) {
			return decodeInstancePreamble(c, p.Interner, p.Strings, variantHasStructs)
		}, func(pre *instancePreamble) {
			p.StructInstances.Set(pre.EID.Value(), &StructInstance{instancePreamble: pre})
		}); err != nil {
			p.Truncated = isTruncated(err)
			p.Broken = !p.Truncated
			return p, err
		}
	}

	// Step 9: arrays preamble map.
	p.Arrays = newOrderedMap[uint64, *ArrayInfo](0)
	arrCount, err := c.ReadU32("array count")
	if err != nil {
		p.Truncated = true
		return p, &common.ElementError{Element: p, Cause: err}
	}
	for i := uint32(0); i < arrCount; i++ {
		a, err := decodeArrayPreamble(c, p.Interner, p.Strings)
		if a != nil {
			p.Arrays.Set(a.EID.Value(), a)
		}
		if err != nil {
			p.Truncated = isTruncated(err)
			p.Broken = !p.Truncated
			return p, listErrorf(int(i), int(arrCount), err)
		}
	}

	// Step 10: papyrus_runtime.
	runtime, err := p.Interner.ReadEID32(c, "papyrus runtime")
	if err != nil {
		p.Truncated = true
		return p, &common.ElementError{Element: p, Cause: err}
	}
	p.Runtime = runtime

	// Step 11: active_scripts preamble map.
	p.ActiveScripts = newOrderedMap[uint64, *ActiveScript](0)
	asCount, err := c.ReadU32("active script count")
	if err != nil {
		p.Truncated = true
		return p, &common.ElementError{Element: p, Cause: err}
	}
	for i := uint32(0); i < asCount; i++ {
		a, err := decodeActiveScriptPreamble(c, p.Interner)
		if a != nil {
			p.ActiveScripts.Set(a.EID.Value(), a)
		}
		if err != nil {
			p.Truncated = isTruncated(err)
			p.Broken = !p.Truncated
			return p, listErrorf(int(i), int(asCount), err)
		}
	}

	// Step 12: data-blob pass, same order as 7-11 (6,7,8,9,11 per spec's
	// enumeration "script_instances, references, struct_instances if
	// present, arrays, active_scripts").
	if err := p.decodeInstanceDataBlobs(c, p.ScriptInstances, "script instance"); err != nil {
		p.Truncated = isTruncated(err)
		p.Broken = !p.Truncated
		return p, err
	}
	if err := p.decodeReferenceDataBlobs(c); err != nil {
		p.Truncated = isTruncated(err)
		p.Broken = !p.Truncated
		return p, err
	}
	if p.Variant.HasStructs() {
		if err := p.decodeStructInstanceDataBlobs(c); err != nil {
			p.Truncated = isTruncated(err)
			p.Broken = !p.Truncated
			return p, err
		}
	}
	if err := p.decodeArrayDataBlobs(c); err != nil {
		p.Truncated = isTruncated(err)
		p.Broken = !p.Truncated
		return p, err
	}
	if err := p.decodeActiveScriptDataBlobs(c); err != nil {
		p.Truncated = isTruncated(err)
		p.Broken = !p.Truncated
		return p, err
	}

	// Step 13: function_messages.
	fmCount, err := c.ReadU32("function message count")
	if err != nil {
		p.Truncated = true
		return p, &common.ElementError{Element: p, Cause: err}
	}
	p.FunctionMessages = make([]*FunctionMessage, 0, fmCount)
	for i := uint32(0); i < fmCount; i++ {
		m, err := decodeFunctionMessage(c, p.Interner, p.Strings)
		if m != nil {
			p.FunctionMessages = append(p.FunctionMessages, m)
		}
		if err != nil {
			p.Truncated = isTruncated(err)
			p.Broken = !p.Truncated
			return p, listErrorf(int(i), int(fmCount), err)
		}
	}

	// Step 14: two suspended_stacks maps.
	p.Suspended = newSuspendedStackMaps()
	for _, target := range []*orderedMap[uint64, *SuspendedStack]{p.Suspended.first, p.Suspended.second} {
		count, err := c.ReadU32("suspended stack count")
		if err != nil {
			p.Truncated = true
			return p, &common.ElementError{Element: p, Cause: err}
		}
		for i := uint32(0); i < count; i++ {
			s, err := decodeSuspendedStack(c, p.Interner, p.Strings)
			if s != nil {
				target.Set(s.EID.Value(), s)
			}
			if err != nil {
				p.Truncated = isTruncated(err)
				p.Broken = !p.Truncated
				return p, listErrorf(int(i), int(count), err)
			}
		}
	}

	// Step 15: unk1, conditional unk2, unknown_ids.
	if p.Unk1, err = c.ReadU32("unk1"); err != nil {
		p.Truncated = true
		return p, &common.ElementError{Element: p, Cause: err}
	}
	if p.Unk1 != 0 {
		if p.Unk2, err = c.ReadU32("unk2"); err != nil {
			p.Truncated = true
			return p, &common.ElementError{Element: p, Cause: err}
		}
		p.HasUnk2 = true
	}
	idCount, err := c.ReadU32("unknown id count")
	if err != nil {
		p.Truncated = true
		return p, &common.ElementError{Element: p, Cause: err}
	}
	p.UnknownIDs = make([]*EID, 0, idCount)
	for i := uint32(0); i < idCount; i++ {
		eid, err := p.Interner.ReadEID(c, "unknown id")
		if err != nil {
			p.Truncated = true
			return p, listErrorf(int(i), int(idCount), err)
		}
		p.UnknownIDs = append(p.UnknownIDs, eid)
	}

	// Step 16: unbinds.
	p.Unbinds = newOrderedMap[uint64, *QueuedUnbind](0)
	unbindCount, err := c.ReadU32("unbind count")
	if err != nil {
		p.Truncated = true
		return p, &common.ElementError{Element: p, Cause: err}
	}
	for i := uint32(0); i < unbindCount; i++ {
		u, err := decodeQueuedUnbind(c, p.Interner)
		if u != nil {
			p.Unbinds.Set(u.EID.Value(), u)
		}
		if err != nil {
			p.Truncated = isTruncated(err)
			p.Broken = !p.Truncated
			return p, listErrorf(int(i), int(unbindCount), err)
		}
	}

	// Step 17: Skyrim-only trailing save-file-version.
	if p.Variant.HasSaveFileVersionTrailer() {
		v, err := c.ReadU16("save file version")
		if err != nil {
			p.Truncated = true
			return p, &common.ElementError{Element: p, Cause: err}
		}
		p.SaveFileVersion = v
		p.HasSaveFileVersion = true
	}

	// Step 18: arrays trailer, captured verbatim then best-effort reparsed.
	trailer, err := c.ReadBytes("arrays trailer", c.Remaining())
	if err != nil {
		p.Truncated = true
		return p, &common.ElementError{Element: p, Cause: err}
	}
	p.ArraysTrailer = trailer
	p.OtherData = decodeOtherData(trailer, p.Interner, p.Strings)

	p.linkReferences()

	return p, nil
}

// isTruncated reports whether err is (or wraps) a *common.Truncated.
func isTruncated(err error) bool {
	for err != nil {
		if _, ok := err.(*common.Truncated); ok {
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

// decodePreambleMap reads a u32-length-prefixed preamble map generically
// (§6 rows 7-9): read the count, then that many preambles via decodeOne,
// storing each through store.
func decodePreambleMap(c *codec.Cursor, where string, decodeOne func() (*instancePreamble, error), store func(*instancePreamble)) error {
	count, err := c.ReadU32(where + " count")
	if err != nil {
		return &common.ElementError{Element: where, Cause: err}
	}
	for i := uint32(0); i < count; i++ {
		pre, err := decodeOne()
		if pre != nil {
			store(pre)
		}
		if err != nil {
			return listErrorf(int(i), int(count), err)
		}
	}
	return nil
}

// decodeInstanceDataBlobs reads step 12's data pass for any preamble map
// keyed uint64->*ScriptInstance-ish (EID must match a known entry).
func (p *Papyrus) decodeInstanceDataBlobs(c *codec.Cursor, m *orderedMap[uint64, *ScriptInstance], where string) error {
	for _, key := range append([]uint64{}, m.Keys()...) {
		inst, _ := m.Get(key)
		eid, err := p.Interner.ReadEID(c, where+" data eid")
		if err != nil {
			return &common.ElementError{Element: inst, Cause: err}
		}
		if eid.Value() != key {
			return &common.FormatError{Where: where, Detail: "data-blob eid does not match a known preamble entry"}
		}
		data, err := decodeInstanceData(c, p.Interner, p.Strings)
		if data != nil {
			inst.instanceData = data
		}
		if err != nil {
			return elementErrorf(inst, err)
		}
	}
	return nil
}

func (p *Papyrus) decodeReferenceDataBlobs(c *codec.Cursor) error {
	for _, key := range append([]uint64{}, p.References.Keys()...) {
		ref, _ := p.References.Get(key)
		eid, err := p.Interner.ReadEID(c, "reference data eid")
		if err != nil {
			return &common.ElementError{Element: ref, Cause: err}
		}
		if eid.Value() != key {
			return &common.FormatError{Where: "reference data", Detail: "data-blob eid does not match a known preamble entry"}
		}
		data, err := decodeInstanceData(c, p.Interner, p.Strings)
		if data != nil {
			ref.instanceData = data
		}
		if err != nil {
			return elementErrorf(ref, err)
		}
	}
	return nil
}

func (p *Papyrus) decodeStructInstanceDataBlobs(c *codec.Cursor) error {
	for _, key := range append([]uint64{}, p.StructInstances.Keys()...) {
		inst, _ := p.StructInstances.Get(key)
		eid, err := p.Interner.ReadEID(c, "struct instance data eid")
		if err != nil {
			return &common.ElementError{Element: inst, Cause: err}
		}
		if eid.Value() != key {
			return &common.FormatError{Where: "struct instance data", Detail: "data-blob eid does not match a known preamble entry"}
		}
		data, err := decodeInstanceData(c, p.Interner, p.Strings)
		if data != nil {
			inst.instanceData = data
		}
		if err != nil {
			return elementErrorf(inst, err)
		}
	}
	return nil
}

func (p *Papyrus) decodeArrayDataBlobs(c *codec.Cursor) error {
	for _, key := range append([]uint64{}, p.Arrays.Keys()...) {
		a, _ := p.Arrays.Get(key)
		eid, err := p.Interner.ReadEID(c, "array data eid")
		if err != nil {
			return &common.ElementError{Element: a, Cause: err}
		}
		if eid.Value() != key {
			return &common.FormatError{Where: "array data", Detail: "data-blob eid does not match a known preamble entry"}
		}
		if err := decodeArrayData(c, p.Interner, p.Strings, a); err != nil {
			return elementErrorf(a, err)
		}
	}
	return nil
}

func (p *Papyrus) decodeActiveScriptDataBlobs(c *codec.Cursor) error {
	for _, key := range append([]uint64{}, p.ActiveScripts.Keys()...) {
		a, _ := p.ActiveScripts.Get(key)
		eid, err := p.Interner.ReadEID(c, "active script data eid")
		if err != nil {
			return &common.ElementError{Element: a, Cause: err}
		}
		if eid.Value() != key {
			return &common.FormatError{Where: "active script data", Detail: "data-blob eid does not match a known preamble entry"}
		}
		if err := decodeActiveScriptData(c, p.Interner, p.Strings, p.Variant, a); err != nil {
			return elementErrorf(a, err)
		}
	}
	return nil
}
