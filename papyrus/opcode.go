package papyrus

import (
	"fmt"

	"github.com/probechain/papyrus-core/codec"
	"github.com/probechain/papyrus-core/common"
)

// Opcode is the one-byte instruction code of the decoded bytecode stream
// (§3 "Opcode instruction"). The table shape (name + fixed operand count,
// plus a "has extra terms" flag for variadic call/search instructions) is
// grounded directly on the teacher's VM opcode table.
type Opcode uint8

const (
	OpNop Opcode = iota
	OpIAdd
	OpFAdd
	OpISub
	OpFSub
	OpIMul
	OpFMul
	OpIDiv
	OpFDiv
	OpIMod
	OpNot
	OpINeg
	OpFNeg
	OpAssign
	OpCast
	OpCmpEq
	OpCmpLt
	OpCmpLte
	OpCmpGt
	OpCmpGte
	OpJmp
	OpJmpT
	OpJmpF
	OpCallMethod
	OpCallParent
	OpCallStatic
	OpReturn
	OpStrCat
	OpPropGet
	OpPropSet
	OpArrayCreate
	OpArrayLength
	OpArrayGetElement
	OpArraySetElement
	OpArrayFindElement
	OpArrayRFindElement
	OpIs
	OpStructCreate
	OpStructGet
	OpStructSet
	OpArrayFindStruct
	OpArrayRFindStruct
	OpArrayAdd
	OpArrayInsert
	OpArrayRemoveLast
	OpArrayRemove
	OpArrayClear
	OpCallMethodNamedArgs
	OpCallParentNamedArgs
	OpCallStaticNamedArgs

	opcodeCount
)

type opcodeInfo struct {
	name          string
	operands      int
	hasExtraTerms bool // last fixed operand is an integer count of trailing operands
}

var opcodeTable = [opcodeCount]opcodeInfo{
	OpNop:                 {"Nop", 0, false},
	OpIAdd:                {"IAdd", 3, false},
	OpFAdd:                {"FAdd", 3, false},
	OpISub:                {"ISub", 3, false},
	OpFSub:                {"FSub", 3, false},
	OpIMul:                {"IMul", 3, false},
	OpFMul:                {"FMul", 3, false},
	OpIDiv:                {"IDiv", 3, false},
	OpFDiv:                {"FDiv", 3, false},
	OpIMod:                {"IMod", 3, false},
	OpNot:                 {"Not", 2, false},
	OpINeg:                {"INeg", 2, false},
	OpFNeg:                {"FNeg", 2, false},
	OpAssign:              {"Assign", 2, false},
	OpCast:                {"Cast", 2, false},
	OpCmpEq:               {"CmpEq", 3, false},
	OpCmpLt:               {"CmpLt", 3, false},
	OpCmpLte:              {"CmpLte", 3, false},
	OpCmpGt:               {"CmpGt", 3, false},
	OpCmpGte:              {"CmpGte", 3, false},
	OpJmp:                 {"Jmp", 1, false},
	OpJmpT:                {"JmpT", 2, false},
	OpJmpF:                {"JmpF", 2, false},
	OpCallMethod:          {"CallMethod", 4, true},
	OpCallParent:          {"CallParent", 3, true},
	OpCallStatic:          {"CallStatic", 3, true},
	OpReturn:              {"Return", 1, false},
	OpStrCat:              {"StrCat", 3, false},
	OpPropGet:             {"PropGet", 3, false},
	OpPropSet:             {"PropSet", 3, false},
	OpArrayCreate:         {"ArrayCreate", 2, false},
	OpArrayLength:         {"ArrayLength", 2, false},
	OpArrayGetElement:     {"ArrayGetElement", 3, false},
	OpArraySetElement:     {"ArraySetElement", 3, false},
	OpArrayFindElement:    {"ArrayFindElement", 4, false},
	OpArrayRFindElement:   {"ArrayRFindElement", 4, false},
	OpIs:                  {"Is", 3, false},
	OpStructCreate:        {"StructCreate", 2, false},
	OpStructGet:           {"StructGet", 3, false},
	OpStructSet:           {"StructSet", 3, false},
	OpArrayFindStruct:     {"ArrayFindStruct", 5, false},
	OpArrayRFindStruct:    {"ArrayRFindStruct", 5, false},
	OpArrayAdd:            {"ArrayAdd", 3, false},
	OpArrayInsert:         {"ArrayInsert", 3, false},
	OpArrayRemoveLast:     {"ArrayRemoveLast", 1, false},
	OpArrayRemove:         {"ArrayRemove", 3, false},
	OpArrayClear:          {"ArrayClear", 1, false},
	OpCallMethodNamedArgs: {"CallMethodNamedArgs", 5, true},
	OpCallParentNamedArgs: {"CallParentNamedArgs", 4, true},
	OpCallStaticNamedArgs: {"CallStaticNamedArgs", 4, true},
}

func (op Opcode) String() string {
	if int(op) < len(opcodeTable) {
		return opcodeTable[op].name
	}
	return "Invalid"
}

func (op Opcode) Operands() int {
	if int(op) < len(opcodeTable) {
		return opcodeTable[op].operands
	}
	return 0
}

func (op Opcode) HasExtraTerms() bool {
	if int(op) < len(opcodeTable) {
		return opcodeTable[op].hasExtraTerms
	}
	return false
}

// ParamTag discriminates Parameter payloads (§3).
type ParamTag uint8

const (
	ParamNull ParamTag = iota
	ParamIdentifier
	ParamString
	ParamInteger
	ParamFloat
	ParamBoolean
	ParamUnknown8
	// ParamTerm is never serialized; it exists only so the pretty-printer
	// can substitute a resolved, human-readable token in place of a raw
	// Identifier/String when rendering disassembly.
	ParamTerm
)

// Parameter is a single tagged opcode operand (§3).
type Parameter struct {
	Tag   ParamTag
	Int   int32
	Float float32
	Bool  bool
	Str   *TString // Identifier or String payload
	U8    byte     // Unknown8 payload
	Term  string   // ParamTerm payload; set only by the pretty-printer, never decoded
}

func (p *Parameter) String() string {
	switch p.Tag {
	case ParamNull:
		return "null"
	case ParamIdentifier, ParamString:
		if p.Str != nil {
			return p.Str.Content
		}
		return ""
	case ParamInteger:
		return fmt.Sprintf("%d", p.Int)
	case ParamFloat:
		return fmt.Sprintf("%g", p.Float)
	case ParamBoolean:
		return fmt.Sprintf("%t", p.Bool)
	case ParamUnknown8:
		return fmt.Sprintf("0x%02X", p.U8)
	case ParamTerm:
		return p.Term
	default:
		return "?"
	}
}

func decodeParameter(c *codec.Cursor, st *StringTable) (*Parameter, error) {
	tagByte, err := c.ReadU8("parameter tag")
	if err != nil {
		return nil, err
	}
	if tagByte > uint8(ParamUnknown8) {
		return nil, &common.FormatError{Where: "parameter tag", Detail: fmt.Sprintf("invalid parameter tag %d", tagByte)}
	}
	tag := ParamTag(tagByte)
	p := &Parameter{Tag: tag}
	switch tag {
	case ParamNull:
	case ParamIdentifier, ParamString:
		s, err := st.ReadIndex(c, "parameter string")
		if err != nil {
			return nil, err
		}
		p.Str = s
	case ParamInteger:
		v, err := c.ReadI32("parameter int")
		if err != nil {
			return nil, err
		}
		p.Int = v
	case ParamFloat:
		v, err := c.ReadF32("parameter float")
		if err != nil {
			return nil, err
		}
		p.Float = v
	case ParamBoolean:
		v, err := c.ReadU8("parameter bool")
		if err != nil {
			return nil, err
		}
		p.Bool = v != 0
	case ParamUnknown8:
		v, err := c.ReadU8("parameter unknown8")
		if err != nil {
			return nil, err
		}
		p.U8 = v
	}
	return p, nil
}

func (p *Parameter) encode(w *codec.Writer, st *StringTable) {
	w.WriteU8(uint8(p.Tag))
	switch p.Tag {
	case ParamNull:
	case ParamIdentifier, ParamString:
		st.WriteIndex(w, p.Str)
	case ParamInteger:
		w.WriteI32(p.Int)
	case ParamFloat:
		w.WriteF32(p.Float)
	case ParamBoolean:
		if p.Bool {
			w.WriteU8(1)
		} else {
			w.WriteU8(0)
		}
	case ParamUnknown8:
		w.WriteU8(p.U8)
	case ParamTerm:
		// never serialized
	}
}

func (p *Parameter) calculateSize(st *StringTable) int {
	size := 1
	switch p.Tag {
	case ParamIdentifier, ParamString:
		size += st.SizeOfIndex(p.Str)
	case ParamInteger, ParamFloat:
		size += 4
	case ParamBoolean, ParamUnknown8:
		size += 1
	}
	return size
}

// OpcodeData is one decoded bytecode instruction: the opcode byte plus its
// operand Parameters, including any trailing "extra terms" (§3).
type OpcodeData struct {
	Op     Opcode
	Params []*Parameter
}

// nopInstruction is the single shared NOP sentinel value used by
// terminate_undefined_threads (§4.7, §9 "Stack-frame opcode stream").
func nopInstruction() *OpcodeData { return nopSentinel }

var nopSentinel = &OpcodeData{Op: OpNop}

func decodeOpcode(c *codec.Cursor, st *StringTable) (*OpcodeData, error) {
	opByte, err := c.ReadU8("opcode byte")
	if err != nil {
		return nil, err
	}
	if opByte >= uint8(opcodeCount) {
		return nil, &common.FormatError{Where: "opcode byte", Detail: fmt.Sprintf("invalid opcode %d", opByte)}
	}
	op := Opcode(opByte)
	fixed := op.Operands()
	params := make([]*Parameter, 0, fixed)
	for i := 0; i < fixed; i++ {
		p, err := decodeParameter(c, st)
		if err != nil {
			return &OpcodeData{Op: op, Params: params}, elementErrorf(params, err)
		}
		params = append(params, p)
	}
	if op.HasExtraTerms() && len(params) > 0 {
		extra := int(params[len(params)-1].Int)
		for i := 0; i < extra; i++ {
			p, err := decodeParameter(c, st)
			if err != nil {
				return &OpcodeData{Op: op, Params: params}, elementErrorf(params, err)
			}
			params = append(params, p)
		}
	}
	return &OpcodeData{Op: op, Params: params}, nil
}

func (o *OpcodeData) encode(w *codec.Writer, st *StringTable) {
	w.WriteU8(uint8(o.Op))
	for _, p := range o.Params {
		p.encode(w, st)
	}
}

func (o *OpcodeData) calculateSize(st *StringTable) int {
	size := 1
	for _, p := range o.Params {
		size += p.calculateSize(st)
	}
	return size
}

func (o *OpcodeData) String() string {
	s := o.Op.String()
	for _, p := range o.Params {
		s += " " + p.String()
	}
	return s
}
