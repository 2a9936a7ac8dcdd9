package papyrus

import (
	"fmt"

	"github.com/probechain/papyrus-core/codec"
	"github.com/probechain/papyrus-core/common"
)

// TypeTag is the scalar/array type discriminant (§3 "Type tag"). Ordinal 7
// (Struct) is the last scalar; ordinals 8-14 are the array-of-T
// counterparts of Ref..Struct, each offset by +7 from its scalar ordinal.
type TypeTag uint8

const (
	TagNull TypeTag = iota
	TagRef
	TagString
	TagInteger
	TagFloat
	TagBoolean
	TagVariant
	TagStruct // ordinal 7: last scalar tag

	TagArrayRef     // 8
	TagArrayString  // 9
	TagArrayInteger // 10
	TagArrayFloat   // 11
	TagArrayBoolean // 12
	TagArrayVariant // 13
	TagArrayStruct  // 14
)

var tagNames = [...]string{
	TagNull: "Null", TagRef: "Ref", TagString: "String", TagInteger: "Integer",
	TagFloat: "Float", TagBoolean: "Boolean", TagVariant: "Variant", TagStruct: "Struct",
	TagArrayRef: "Ref[]", TagArrayString: "String[]", TagArrayInteger: "Integer[]",
	TagArrayFloat: "Float[]", TagArrayBoolean: "Boolean[]", TagArrayVariant: "Variant[]",
	TagArrayStruct: "Struct[]",
}

func (t TypeTag) String() string {
	if int(t) < len(tagNames) {
		return tagNames[t]
	}
	return "Invalid"
}

// IsArray reports whether the tag is one of the seven array-of-T kinds.
func (t TypeTag) IsArray() bool { return t > TagStruct }

// ElementType returns the scalar element tag of an array tag (undefined for
// scalar tags).
func (t TypeTag) ElementType() TypeTag {
	if t.IsArray() {
		return t - 7
	}
	return t
}

// ArrayOf returns the array tag for a scalar element tag (undefined for
// TagNull, which has no array counterpart per §3).
func ArrayOf(elem TypeTag) TypeTag { return elem + 7 }

func decodeTypeTag(c *codec.Cursor, where string) (TypeTag, error) {
	v, err := c.ReadU8(where)
	if err != nil {
		return 0, err
	}
	if v > uint8(TagArrayStruct) {
		return 0, &common.FormatError{Where: where, Detail: fmt.Sprintf("invalid type tag ordinal %d", v)}
	}
	return TypeTag(v), nil
}

// Variable is the polymorphic value cell held by every container (§3).
type Variable struct {
	Tag TypeTag

	Int   int32
	Float float32
	Bool  bool
	Str   *TString

	// Ref / Struct payload.
	ClassName *TString
	Target    *EID
	resolved  Node // populated by Papyrus.linkReferences() once the graph is complete

	// Array-handle payload.
	ElemType  TypeTag
	ArrayEID  *EID

	// Nested Variant payload.
	Inner *Variable
}

// Node is implemented by every EID-addressable graph element (§3).
type Node interface {
	NodeEID() *EID
}

// ResolvedTarget returns the graph node Target/ArrayEID resolves to, or nil
// if the variable isn't a reference/array-handle kind, targets the zero
// sentinel, or the graph hasn't been linked yet.
func (v *Variable) ResolvedTarget() Node { return v.resolved }

func decodeVariable(c *codec.Cursor, in *Interner, st *StringTable) (*Variable, error) {
	tag, err := decodeTypeTag(c, "variable tag")
	if err != nil {
		return nil, err
	}
	v := &Variable{Tag: tag}
	switch tag {
	case TagNull:
		// no payload
	case TagInteger:
		n, err := c.ReadI32("variable int")
		if err != nil {
			return nil, err
		}
		v.Int = n
	case TagFloat:
		f, err := c.ReadF32("variable float")
		if err != nil {
			return nil, err
		}
		v.Float = f
	case TagBoolean:
		b, err := c.ReadU8("variable bool")
		if err != nil {
			return nil, err
		}
		v.Bool = b != 0
	case TagString:
		s, err := st.ReadIndex(c, "variable string")
		if err != nil {
			return nil, err
		}
		v.Str = s
	case TagRef, TagStruct:
		cn, err := st.ReadIndex(c, "variable class name")
		if err != nil {
			return nil, err
		}
		target, err := in.ReadEID(c, "variable target")
		if err != nil {
			return nil, err
		}
		v.ClassName = cn
		v.Target = target
	case TagVariant:
		inner, err := decodeVariable(c, in, st)
		if err != nil {
			return nil, err
		}
		v.Inner = inner
	default: // array kinds
		elem := tag.ElementType()
		v.ElemType = elem
		if elem == TagRef || elem == TagStruct {
			cn, err := st.ReadIndex(c, "array element class name")
			if err != nil {
				return nil, err
			}
			v.ClassName = cn
		}
		arrEID, err := in.ReadEID(c, "variable array eid")
		if err != nil {
			return nil, err
		}
		v.ArrayEID = arrEID
	}
	return v, nil
}

func (v *Variable) encode(w *codec.Writer, in *Interner, st *StringTable) {
	w.WriteU8(uint8(v.Tag))
	switch v.Tag {
	case TagNull:
	case TagInteger:
		w.WriteI32(v.Int)
	case TagFloat:
		w.WriteF32(v.Float)
	case TagBoolean:
		if v.Bool {
			w.WriteU8(1)
		} else {
			w.WriteU8(0)
		}
	case TagString:
		st.WriteIndex(w, v.Str)
	case TagRef, TagStruct:
		st.WriteIndex(w, v.ClassName)
		in.WriteEID(w, v.Target)
	case TagVariant:
		v.Inner.encode(w, in, st)
	default:
		if v.ElemType == TagRef || v.ElemType == TagStruct {
			st.WriteIndex(w, v.ClassName)
		}
		in.WriteEID(w, v.ArrayEID)
	}
}

func (v *Variable) calculateSize(in *Interner, st *StringTable) int {
	size := 1
	switch v.Tag {
	case TagNull:
	case TagInteger:
		size += 4
	case TagFloat:
		size += 4
	case TagBoolean:
		size += 1
	case TagString:
		size += st.SizeOfIndex(v.Str)
	case TagRef, TagStruct:
		size += st.SizeOfIndex(v.ClassName)
		size += in.SizeOfEID()
	case TagVariant:
		size += v.Inner.calculateSize(in, st)
	default:
		if v.ElemType == TagRef || v.ElemType == TagStruct {
			size += st.SizeOfIndex(v.ClassName)
		}
		size += in.SizeOfEID()
	}
	return size
}

// MemberDescriptor is a (name, type-name) pair owned by a class definition
// (§3).
type MemberDescriptor struct {
	Name     *TString
	TypeName *TString
}

func (m *MemberDescriptor) String() string {
	return fmt.Sprintf("%s %s", m.TypeName, m.Name)
}

func decodeMemberDescriptor(c *codec.Cursor, st *StringTable) (*MemberDescriptor, error) {
	name, err := st.ReadIndex(c, "member name")
	if err != nil {
		return nil, err
	}
	typeName, err := st.ReadIndex(c, "member type name")
	if err != nil {
		return nil, err
	}
	return &MemberDescriptor{Name: name, TypeName: typeName}, nil
}

func (m *MemberDescriptor) encode(w *codec.Writer, st *StringTable) {
	st.WriteIndex(w, m.Name)
	st.WriteIndex(w, m.TypeName)
}

func (m *MemberDescriptor) calculateSize(st *StringTable) int {
	return st.SizeOfIndex(m.Name) + st.SizeOfIndex(m.TypeName)
}

// FunctionParam is a function parameter descriptor; same wire shape as
// MemberDescriptor but a distinct toString (§4.3 stack frame decode order).
type FunctionParam struct{ MemberDescriptor }

func (p *FunctionParam) String() string { return fmt.Sprintf("Param(%s: %s)", p.Name, p.TypeName) }

// FunctionLocal is a local-variable descriptor; same wire shape as
// MemberDescriptor.
type FunctionLocal struct{ MemberDescriptor }

func (l *FunctionLocal) String() string { return fmt.Sprintf("Local(%s: %s)", l.Name, l.TypeName) }
