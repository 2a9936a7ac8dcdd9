package papyrus

import (
	"testing"

	fuzz "github.com/google/gofuzz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/probechain/papyrus-core/codec"
	"github.com/probechain/papyrus-core/common"
)

type roundTripContext struct{}

func (roundTripContext) GameVariant() common.GameVariant                 { return common.VariantSkyrim }
func (roundTripContext) EidIs64Bit() bool                                { return false }
func (roundTripContext) StringIndexIs32Bit() bool                        { return true }
func (roundTripContext) LookupChangeForm(uint32) (ChangeFormRef, bool)   { return nil, false }
func (roundTripContext) PluginForRefID(uint32) (string, bool)            { return "", false }
func (roundTripContext) BroadSpectrumSearch(uint64) []ChangeFormRef      { return nil }

type fallout4Context struct{}

func (fallout4Context) GameVariant() common.GameVariant               { return common.VariantFallout4 }
func (fallout4Context) EidIs64Bit() bool                              { return true }
func (fallout4Context) StringIndexIs32Bit() bool                      { return true }
func (fallout4Context) LookupChangeForm(uint32) (ChangeFormRef, bool) { return nil, false }
func (fallout4Context) PluginForRefID(uint32) (string, bool)          { return "", false }
func (fallout4Context) BroadSpectrumSearch(uint64) []ChangeFormRef    { return nil }

// buildFallout4Graph writes a minimal Fallout 4 block carrying one struct
// definition, one struct instance of it, and one active script whose
// fragment task is the Type2 kind (§8 scenario S6: a fixed-width 32-bit EID
// payload even though the save's own EIDs are 64-bit), and decodes it.
func buildFallout4Graph(t *testing.T) (*Papyrus, []byte) {
	t.Helper()

	st := NewStringTable(true)
	structName := st.Intern("MyStruct")
	empty := st.Intern("")
	memberName := st.Intern("Field")
	memberType := st.Intern("Int")

	in := NewInterner(true)
	structInstanceEID := in.Intern(1)
	activeScriptEID := in.Intern(2)
	type2EID := in.Intern(0x9999)

	w := codec.NewWriter(0)
	w.WriteU16(0)
	require.NoError(t, st.Encode(w))

	w.WriteU32(0) // script_count
	w.WriteU32(1) // struct_count
	st.WriteIndex(w, structName)
	w.WriteU16(1) // struct member count
	st.WriteIndex(w, memberName)
	st.WriteIndex(w, memberType)

	w.WriteU32(0) // script instances preamble
	w.WriteU32(0) // references preamble

	w.WriteU32(1) // struct instances preamble
	in.WriteEID(w, structInstanceEID)
	st.WriteIndex(w, structName)
	w.WriteU16(0) // unk16
	w.WriteU32(0x5000)
	w.WriteU8(0) // unk8

	w.WriteU32(0) // arrays preamble
	in.WriteEID32(w, nil) // papyrus_runtime: fixed 32-bit even under Fallout 4

	w.WriteU32(1) // active_scripts preamble
	in.WriteEID(w, activeScriptEID)
	w.WriteU8(0) // kind

	// Step 12 data blobs: script instances (none), references (none),
	// struct instances, arrays (none), active scripts.
	in.WriteEID(w, structInstanceEID)
	w.WriteU8(0)            // flag
	st.WriteIndex(w, empty) // state
	w.WriteU32(0)           // unk1
	w.WriteU32(0)           // unk2
	w.WriteU32(0)           // var count

	in.WriteEID(w, activeScriptEID)
	w.WriteU8(1) // version major
	w.WriteU8(0) // version minor
	w.WriteU8(uint8(TagNull))
	w.WriteU8(0) // flag
	w.WriteU8(0) // unk
	w.WriteU8(1) // has fragment
	w.WriteU8(uint8(FragType2))
	in.WriteEID32(w, type2EID)
	w.WriteU16(0) // frame count

	w.WriteU32(0) // function_messages
	w.WriteU32(0) // suspended first
	w.WriteU32(0) // suspended second
	w.WriteU32(0) // unk1
	w.WriteU32(0) // unknown ids
	w.WriteU32(0) // unbinds
	// Fallout 4 has no trailing save-file-version field.

	buf := w.Bytes()
	graph, err := Decode(buf, fallout4Context{})
	require.NoError(t, err)
	require.False(t, graph.Truncated)
	require.False(t, graph.Broken)
	return graph, buf
}

// TestRoundTripFallout4 covers §8 scenario S6: a Fallout 4 block carrying a
// struct, a struct instance, and a fragment-task Type2 payload round-trips
// byte-exact, exercising the fixed-width-32-bit-EID fields (papyrus_runtime,
// Type2) alongside the save's otherwise-64-bit EID width.
func TestRoundTripFallout4(t *testing.T) {
	graph, original := buildFallout4Graph(t)

	require.Equal(t, 1, graph.StructInstances.Len())
	graph.StructInstances.Each(func(_ uint64, inst *StructInstance) {
		require.NotNil(t, inst.Class, "struct instance class must resolve")
		assert.Equal(t, "MyStruct", inst.Class.Name.Content)
	})

	require.Equal(t, 1, graph.ActiveScripts.Len())
	graph.ActiveScripts.Each(func(_ uint64, a *ActiveScript) {
		require.NotNil(t, a.Fragment)
		assert.Equal(t, FragType2, a.Fragment.Kind)
		require.NotNil(t, a.Fragment.Type2EID)
		assert.Equal(t, uint64(0x9999), a.Fragment.Type2EID.Value())
	})

	encoded := Encode(graph)
	assert.Equal(t, original, encoded, "Fallout 4 round-trip must be byte-exact")
	assert.Equal(t, len(original), graph.CalculateSize())
}

// buildInstanceGraph writes a minimal block with n script instances of a
// single class, each carrying one integer variable seeded with its own
// refID/canary pair, and decodes it.
func buildInstanceGraph(t *testing.T, refIDs []uint32, canaries []int32) (*Papyrus, []byte) {
	t.Helper()
	require.Equal(t, len(refIDs), len(canaries))

	st := NewStringTable(true)
	className := st.Intern("FuzzScript")
	empty := st.Intern("")
	memberName := st.Intern("Value")
	memberType := st.Intern("Int")

	in := NewInterner(false)
	eids := make([]*EID, len(refIDs))
	for i := range refIDs {
		eids[i] = in.Intern(uint64(i + 1))
	}

	w := codec.NewWriter(0)
	w.WriteU16(0)
	require.NoError(t, st.Encode(w))

	w.WriteU32(1) // script_count
	st.WriteIndex(w, className)
	st.WriteIndex(w, empty)
	w.WriteU16(1) // member count
	st.WriteIndex(w, memberName)
	st.WriteIndex(w, memberType)

	w.WriteU32(uint32(len(refIDs)))
	for i, refID := range refIDs {
		in.WriteEID(w, eids[i])
		st.WriteIndex(w, className)
		w.WriteU16(0)
		w.WriteU32(refID)
		w.WriteU8(0)
	}

	w.WriteU32(0) // references
	w.WriteU32(0) // arrays
	w.WriteU32(0) // papyrus_runtime
	w.WriteU32(0) // active_scripts

	for i, canary := range canaries {
		in.WriteEID(w, eids[i])
		w.WriteU8(0)
		st.WriteIndex(w, empty)
		w.WriteU32(0)
		w.WriteU32(0)
		w.WriteU32(1)
		w.WriteU8(uint8(TagInteger))
		w.WriteI32(canary)
	}

	w.WriteU32(0) // function_messages
	w.WriteU32(0) // suspended first
	w.WriteU32(0) // suspended second
	w.WriteU32(0) // unk1
	w.WriteU32(0) // unknown ids
	w.WriteU32(0) // unbinds
	w.WriteU16(0) // Skyrim trailer

	buf := w.Bytes()
	graph, err := Decode(buf, roundTripContext{})
	require.NoError(t, err)
	require.False(t, graph.Truncated)
	require.False(t, graph.Broken)
	return graph, buf
}

// TestRoundTripByteExact covers §8 property 1: decoding then re-encoding an
// untouched graph reproduces the exact input bytes.
func TestRoundTripByteExact(t *testing.T) {
	f := fuzz.New().NilChance(0)

	for i := 0; i < 20; i++ {
		var count uint8
		f.Fuzz(&count)
		n := int(count)%6 + 1

		refIDs := make([]uint32, n)
		canaries := make([]int32, n)
		for j := 0; j < n; j++ {
			var refID uint32
			var canary int32
			f.Fuzz(&refID)
			f.Fuzz(&canary)
			refIDs[j] = refID
			canaries[j] = canary
		}

		graph, original := buildInstanceGraph(t, refIDs, canaries)

		encoded := Encode(graph)
		assert.Equal(t, original, encoded, "round %d: byte-exact re-encode", i)

		// §8 property 2: calculated size matches bytes actually written.
		assert.Equal(t, len(original), graph.CalculateSize())

		// §8 property 5: variable-list length is preserved per instance.
		graph.ScriptInstances.Each(func(_ uint64, inst *ScriptInstance) {
			assert.Len(t, inst.Vars, 1)
		})

		// Re-decoding the re-encoded bytes reproduces the same RefID set
		// (§8 property 3: EID interning is stable across a load).
		again, err := Decode(encoded, roundTripContext{})
		require.NoError(t, err)
		gotRefIDs := map[uint32]bool{}
		again.ScriptInstances.Each(func(_ uint64, inst *ScriptInstance) {
			gotRefIDs[inst.RefID] = true
		})
		for _, refID := range refIDs {
			assert.True(t, gotRefIDs[refID], "round %d: refID %d preserved", i, refID)
		}
	}
}

// TestStringTableInternIdempotent covers §8 property 4: interning the same
// content twice returns the same TString.
func TestStringTableInternIdempotent(t *testing.T) {
	f := fuzz.New().NilChance(0)
	st := NewStringTable(true)

	for i := 0; i < 10; i++ {
		var n uint8
		f.Fuzz(&n)
		name := "Script" + string(rune('A'+int(n)%26))

		a := st.Intern(name)
		b := st.Intern(name)
		assert.True(t, a.Equal(b))
		assert.Equal(t, a.Index, b.Index)
	}
}
