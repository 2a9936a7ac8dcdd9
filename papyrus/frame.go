package papyrus

import (
	"github.com/probechain/papyrus-core/codec"
	"github.com/probechain/papyrus-core/common"
)

// maxFrameVariables is the sanity ceiling on a frame's declared variable
// count (§4.3, §8 property 7).
const maxFrameVariables = 50000

// StackFrame is one frame of a suspended or running script thread (§3 "Stack
// frame"). The decode order below follows §4.3 exactly: declared variable
// count first, then flag, function-type tag, names, optional status,
// opcode-version pair, return type, docstring, flags, parameter/local/opcode
// vectors, instruction pointer, owner, and finally exactly that many
// variables. Shaped on the teacher's VM frame (call depth + locals + program
// counter), generalized to the much richer on-disk StackFrame layout.
type StackFrame struct {
	VarCount   uint32
	Flag       byte
	FnType     TypeTag
	ScriptName *TString
	BaseName   *TString
	EventName  *TString
	Status     *TString // present iff Flag&0x1 == 0 and FnType == TagNull
	OpcodeMajor byte
	OpcodeMinor byte
	ReturnType *TString
	Docstring  *TString
	UserFlags  uint32
	FnFlags    byte
	Params     []*FunctionParam
	Locals     []*FunctionLocal
	Opcodes    []*OpcodeData
	IP         uint32
	Owner      *Variable
	Vars       []*Variable
}

// IsStatic reports whether the frame's function-flags mark it static (no
// implicit self), per bit 0 of FnFlags.
func (f *StackFrame) IsStatic() bool { return f.FnFlags&0x1 != 0 }

// IsNative reports whether the frame's function-flags mark it native (no
// opcode body; call dispatches into engine-provided code), per bit 1.
func (f *StackFrame) IsNative() bool { return f.FnFlags&0x2 != 0 }

func hasStatusString(flag byte, fnType TypeTag) bool {
	return flag&0x1 == 0 && fnType == TagNull
}

func decodeStackFrame(c *codec.Cursor, in *Interner, st *StringTable) (*StackFrame, error) {
	f := &StackFrame{}
	var err error

	varCount, err := c.ReadU32("frame variable count")
	if err != nil {
		return nil, err
	}
	if varCount > maxFrameVariables {
		return nil, &common.FormatError{Where: "frame variable count", Detail: "declared variable count exceeds sanity ceiling"}
	}
	f.VarCount = varCount

	if f.Flag, err = c.ReadU8("frame flag"); err != nil {
		return f, err
	}
	if f.FnType, err = decodeTypeTag(c, "frame function type"); err != nil {
		return f, err
	}
	if f.ScriptName, err = st.ReadIndex(c, "frame script name"); err != nil {
		return f, err
	}
	if f.BaseName, err = st.ReadIndex(c, "frame base name"); err != nil {
		return f, err
	}
	if f.EventName, err = st.ReadIndex(c, "frame event name"); err != nil {
		return f, err
	}
	if hasStatusString(f.Flag, f.FnType) {
		if f.Status, err = st.ReadIndex(c, "frame status"); err != nil {
			return f, err
		}
	}
	if f.OpcodeMajor, err = c.ReadU8("frame opcode major version"); err != nil {
		return f, err
	}
	if f.OpcodeMinor, err = c.ReadU8("frame opcode minor version"); err != nil {
		return f, err
	}
	if f.ReturnType, err = st.ReadIndex(c, "frame return type"); err != nil {
		return f, err
	}
	if f.Docstring, err = st.ReadIndex(c, "frame docstring"); err != nil {
		return f, err
	}
	if f.UserFlags, err = c.ReadU32("frame user flags"); err != nil {
		return f, err
	}
	if f.FnFlags, err = c.ReadU8("frame function flags"); err != nil {
		return f, err
	}

	paramCount, err := c.ReadU16("frame param count")
	if err != nil {
		return f, err
	}
	f.Params = make([]*FunctionParam, 0, paramCount)
	for i := uint16(0); i < paramCount; i++ {
		md, err := decodeMemberDescriptor(c, st)
		if err != nil {
			return f, listErrorf(int(i), int(paramCount), err)
		}
		f.Params = append(f.Params, &FunctionParam{MemberDescriptor: *md})
	}

	localCount, err := c.ReadU16("frame local count")
	if err != nil {
		return f, err
	}
	f.Locals = make([]*FunctionLocal, 0, localCount)
	for i := uint16(0); i < localCount; i++ {
		md, err := decodeMemberDescriptor(c, st)
		if err != nil {
			return f, listErrorf(int(i), int(localCount), err)
		}
		f.Locals = append(f.Locals, &FunctionLocal{MemberDescriptor: *md})
	}

	opCount, err := c.ReadU16("frame opcode count")
	if err != nil {
		return f, err
	}
	f.Opcodes = make([]*OpcodeData, 0, opCount)
	for i := uint16(0); i < opCount; i++ {
		op, err := decodeOpcode(c, st)
		if err != nil {
			return f, listErrorf(int(i), int(opCount), err)
		}
		f.Opcodes = append(f.Opcodes, op)
	}

	if f.IP, err = c.ReadU32("frame instruction pointer"); err != nil {
		return f, err
	}

	owner, err := decodeVariable(c, in, st)
	if err != nil {
		return f, err
	}
	f.Owner = owner

	vars := make([]*Variable, 0, f.VarCount)
	for i := uint32(0); i < f.VarCount; i++ {
		v, err := decodeVariable(c, in, st)
		if err != nil {
			f.Vars = vars
			return f, listErrorf(int(i), int(f.VarCount), err)
		}
		vars = append(vars, v)
	}
	f.Vars = vars

	return f, nil
}

func (f *StackFrame) encode(w *codec.Writer, in *Interner, st *StringTable) {
	w.WriteU32(uint32(len(f.Vars)))
	w.WriteU8(f.Flag)
	w.WriteU8(uint8(f.FnType))
	st.WriteIndex(w, f.ScriptName)
	st.WriteIndex(w, f.BaseName)
	st.WriteIndex(w, f.EventName)
	if hasStatusString(f.Flag, f.FnType) {
		st.WriteIndex(w, f.Status)
	}
	w.WriteU8(f.OpcodeMajor)
	w.WriteU8(f.OpcodeMinor)
	st.WriteIndex(w, f.ReturnType)
	st.WriteIndex(w, f.Docstring)
	w.WriteU32(f.UserFlags)
	w.WriteU8(f.FnFlags)

	w.WriteU16(uint16(len(f.Params)))
	for _, p := range f.Params {
		p.MemberDescriptor.encode(w, st)
	}
	w.WriteU16(uint16(len(f.Locals)))
	for _, l := range f.Locals {
		l.MemberDescriptor.encode(w, st)
	}
	w.WriteU16(uint16(len(f.Opcodes)))
	for _, op := range f.Opcodes {
		op.encode(w, st)
	}
	w.WriteU32(f.IP)
	f.Owner.encode(w, in, st)
	for _, v := range f.Vars {
		v.encode(w, in, st)
	}
}

func (f *StackFrame) calculateSize(in *Interner, st *StringTable) int {
	size := 4 + 1 + 1
	size += st.SizeOfIndex(f.ScriptName) + st.SizeOfIndex(f.BaseName) + st.SizeOfIndex(f.EventName)
	if hasStatusString(f.Flag, f.FnType) {
		size += st.SizeOfIndex(f.Status)
	}
	size += 1 + 1
	size += st.SizeOfIndex(f.ReturnType) + st.SizeOfIndex(f.Docstring)
	size += 4 + 1

	size += 2
	for _, p := range f.Params {
		size += p.MemberDescriptor.calculateSize(st)
	}
	size += 2
	for _, l := range f.Locals {
		size += l.MemberDescriptor.calculateSize(st)
	}
	size += 2
	for _, op := range f.Opcodes {
		size += op.calculateSize(st)
	}
	size += 4
	size += f.Owner.calculateSize(in, st)
	for _, v := range f.Vars {
		size += v.calculateSize(in, st)
	}
	return size
}
