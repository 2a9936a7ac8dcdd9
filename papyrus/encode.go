package papyrus

import "github.com/probechain/papyrus-core/codec"

// Encode writes p back to bytes, mirroring Decode's read order exactly
// (§4.4). It asserts bytes_written == CalculateSize() at the end; a
// mismatch is a decoder/encoder bug, not a data error, so it panics rather
// than returning a data-shaped error.
func Encode(p *Papyrus) []byte {
	w := codec.NewWriter(p.CalculateSize())

	w.WriteU16(p.Header)
	if err := p.Strings.Encode(w); err != nil {
		panic(err)
	}

	w.WriteU32(uint32(p.Scripts.Len()))
	if p.Variant.HasStructs() {
		w.WriteU32(uint32(p.Structs.Len()))
	}

	p.Scripts.Each(func(_ string, s *Script) { s.encode(w, p.Strings) })
	if p.Variant.HasStructs() {
		p.Structs.Each(func(_ string, s *Struct) { s.encode(w, p.Strings) })
	}

	w.WriteU32(uint32(p.ScriptInstances.Len()))
	p.ScriptInstances.Each(func(_ uint64, i *ScriptInstance) { i.instancePreamble.encode(w, p.Interner, p.Strings) })

	w.WriteU32(uint32(p.References.Len()))
	p.References.Each(func(_ uint64, r *Reference) { r.instancePreamble.encode(w, p.Interner, p.Strings) })

	if p.Variant.HasStructs() {
		w.WriteU32(uint32(p.StructInstances.Len()))
		p.StructInstances.Each(func(_ uint64, i *StructInstance) { i.instancePreamble.encode(w, p.Interner, p.Strings) })
	}

	w.WriteU32(uint32(p.Arrays.Len()))
	p.Arrays.Each(func(_ uint64, a *ArrayInfo) { a.encodePreamble(w, p.Interner, p.Strings) })

	p.Interner.WriteEID32(w, p.Runtime)

	w.WriteU32(uint32(p.ActiveScripts.Len()))
	p.ActiveScripts.Each(func(_ uint64, a *ActiveScript) { a.encodePreamble(w, p.Interner) })

	// Step 12: data blobs, same order.
	p.ScriptInstances.Each(func(_ uint64, i *ScriptInstance) {
		p.Interner.WriteEID(w, i.EID)
		i.instanceData.encode(w, p.Interner, p.Strings)
	})
	p.References.Each(func(_ uint64, r *Reference) {
		p.Interner.WriteEID(w, r.EID)
		r.instanceData.encode(w, p.Interner, p.Strings)
	})
	if p.Variant.HasStructs() {
		p.StructInstances.Each(func(_ uint64, i *StructInstance) {
			p.Interner.WriteEID(w, i.EID)
			i.instanceData.encode(w, p.Interner, p.Strings)
		})
	}
	p.Arrays.Each(func(_ uint64, a *ArrayInfo) {
		p.Interner.WriteEID(w, a.EID)
		a.encodeData(w, p.Interner, p.Strings)
	})
	p.ActiveScripts.Each(func(_ uint64, a *ActiveScript) {
		p.Interner.WriteEID(w, a.EID)
		a.encodeData(w, p.Interner, p.Strings, p.Variant)
	})

	w.WriteU32(uint32(len(p.FunctionMessages)))
	for _, m := range p.FunctionMessages {
		m.encode(w, p.Interner, p.Strings)
	}

	w.WriteU32(uint32(p.Suspended.first.Len()))
	p.Suspended.first.Each(func(_ uint64, s *SuspendedStack) { s.encode(w, p.Interner, p.Strings) })
	w.WriteU32(uint32(p.Suspended.second.Len()))
	p.Suspended.second.Each(func(_ uint64, s *SuspendedStack) { s.encode(w, p.Interner, p.Strings) })

	w.WriteU32(p.Unk1)
	if p.Unk1 != 0 {
		w.WriteU32(p.Unk2)
	}
	w.WriteU32(uint32(len(p.UnknownIDs)))
	for _, eid := range p.UnknownIDs {
		p.Interner.WriteEID(w, eid)
	}

	w.WriteU32(uint32(p.Unbinds.Len()))
	p.Unbinds.Each(func(_ uint64, u *QueuedUnbind) { u.encode(w, p.Interner) })

	if p.Variant.HasSaveFileVersionTrailer() {
		w.WriteU16(p.SaveFileVersion)
	}

	w.WriteBytes(p.ArraysTrailer)

	out := w.Bytes()
	if len(out) != p.CalculateSize() {
		panic("papyrus: encoded length does not match calculate_size")
	}
	return out
}

// CalculateSize returns the total serialized size of p (§4.4, §8 property
// 2): the sum of every sub-component's own calculate_size.
func (p *Papyrus) CalculateSize() int {
	size := 2 // header
	size += p.Strings.CalculateSize()

	size += 4
	if p.Variant.HasStructs() {
		size += 4
	}

	p.Scripts.Each(func(_ string, s *Script) { size += s.calculateSize(p.Strings) })
	if p.Variant.HasStructs() {
		p.Structs.Each(func(_ string, s *Struct) { size += s.calculateSize(p.Strings) })
	}

	size += 4
	p.ScriptInstances.Each(func(_ uint64, i *ScriptInstance) {
		size += i.instancePreamble.calculateSize(p.Interner, p.Strings)
	})
	size += 4
	p.References.Each(func(_ uint64, r *Reference) {
		size += r.instancePreamble.calculateSize(p.Interner, p.Strings)
	})
	if p.Variant.HasStructs() {
		size += 4
		p.StructInstances.Each(func(_ uint64, i *StructInstance) {
			size += i.instancePreamble.calculateSize(p.Interner, p.Strings)
		})
	}
	size += 4
	p.Arrays.Each(func(_ uint64, a *ArrayInfo) { size += a.calculateSizePreamble(p.Interner, p.Strings) })

	size += p.Interner.SizeOfEID32() // papyrus_runtime: always fixed-width (§6 row 11)

	size += 4
	p.ActiveScripts.Each(func(_ uint64, a *ActiveScript) { size += a.calculateSizePreamble(p.Interner) })

	p.ScriptInstances.Each(func(_ uint64, i *ScriptInstance) {
		size += p.Interner.SizeOfEID() + i.instanceData.calculateSize(p.Interner, p.Strings)
	})
	p.References.Each(func(_ uint64, r *Reference) {
		size += p.Interner.SizeOfEID() + r.instanceData.calculateSize(p.Interner, p.Strings)
	})
	if p.Variant.HasStructs() {
		p.StructInstances.Each(func(_ uint64, i *StructInstance) {
			size += p.Interner.SizeOfEID() + i.instanceData.calculateSize(p.Interner, p.Strings)
		})
	}
	p.Arrays.Each(func(_ uint64, a *ArrayInfo) {
		size += p.Interner.SizeOfEID() + a.calculateSizeData(p.Interner, p.Strings)
	})
	p.ActiveScripts.Each(func(_ uint64, a *ActiveScript) {
		size += p.Interner.SizeOfEID() + a.calculateSizeData(p.Interner, p.Strings, p.Variant)
	})

	size += 4
	for _, m := range p.FunctionMessages {
		size += m.calculateSize(p.Interner, p.Strings)
	}

	size += 4
	p.Suspended.first.Each(func(_ uint64, s *SuspendedStack) { size += s.calculateSize(p.Interner, p.Strings) })
	size += 4
	p.Suspended.second.Each(func(_ uint64, s *SuspendedStack) { size += s.calculateSize(p.Interner, p.Strings) })

	size += 4
	if p.Unk1 != 0 {
		size += 4
	}
	size += 4
	size += len(p.UnknownIDs) * p.Interner.SizeOfEID()

	size += 4
	p.Unbinds.Each(func(_ uint64, u *QueuedUnbind) { size += u.calculateSize(p.Interner) })

	if p.Variant.HasSaveFileVersionTrailer() {
		size += 2
	}

	size += len(p.ArraysTrailer)

	return size
}
