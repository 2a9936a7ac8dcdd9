package xref_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/probechain/papyrus-core/codec"
	"github.com/probechain/papyrus-core/common"
	"github.com/probechain/papyrus-core/papyrus"
	"github.com/probechain/papyrus-core/xref"
)

// fakeContext is a minimal EssContext sufficient to decode a graph and
// exercise the plugin-reachability index. Hooks the cross-reference engine
// never calls return zero values.
type fakeContext struct {
	plugins map[uint32]string
}

func (c *fakeContext) GameVariant() common.GameVariant { return common.VariantSkyrim }
func (c *fakeContext) EidIs64Bit() bool                { return false }
func (c *fakeContext) StringIndexIs32Bit() bool        { return true } // avoid the narrow-index STB path

func (c *fakeContext) LookupChangeForm(uint32) (papyrus.ChangeFormRef, bool) { return nil, false }

func (c *fakeContext) PluginForRefID(refID uint32) (string, bool) {
	p, ok := c.plugins[refID]
	return p, ok
}

func (c *fakeContext) BroadSpectrumSearch(uint64) []papyrus.ChangeFormRef { return nil }

// buildGraph hand-assembles a byte-exact minimal Papyrus block using the
// same StringTable/Interner/codec primitives the real encoder uses, then
// decodes it. This is the only way to obtain a *papyrus.Papyrus from
// outside the package: its keyed collections are built internally by
// Decode, not exposed as constructible types.
//
// Graph shape: four ScriptInstances of the same class. A (plugin A) and B
// (plugin B) both hold a reference to C; A additionally holds a reference
// to D, which no plugin owns directly. C is therefore reachable from both
// plugins and must be eliminated as shared; D is reachable only through A.
func buildGraph(t *testing.T) (*papyrus.Papyrus, *fakeContext) {
	t.Helper()

	ctx := &fakeContext{
		plugins: map[uint32]string{
			0x1000: "PluginA.esp",
			0x2000: "PluginB.esp",
		},
	}

	st := papyrus.NewStringTable(true)
	className := st.Intern("QuestScript")
	empty := st.Intern("")

	in := papyrus.NewInterner(false)
	eidA := in.Intern(10)
	eidB := in.Intern(20)
	eidC := in.Intern(30)
	eidD := in.Intern(40)

	w := codec.NewWriter(0)
	w.WriteU16(0) // header
	require.NoError(t, st.Encode(w))

	w.WriteU32(1) // script_count
	st.WriteIndex(w, className)
	st.WriteIndex(w, empty) // parent name
	w.WriteU16(0)           // member count

	writePreamble := func(eid *papyrus.EID, refID uint32) {
		in.WriteEID(w, eid)
		st.WriteIndex(w, className)
		w.WriteU16(0) // unk16
		w.WriteU32(refID)
		w.WriteU8(0) // unk8
	}

	w.WriteU32(4) // script_instances preamble count
	writePreamble(eidA, 0x1000)
	writePreamble(eidB, 0x2000)
	writePreamble(eidC, 0x3000)
	writePreamble(eidD, 0x4000)

	w.WriteU32(0) // references preamble map
	w.WriteU32(0) // arrays preamble map
	w.WriteU32(0) // papyrus_runtime (fixed-width EID32, zero sentinel)
	w.WriteU32(0) // active_scripts preamble map

	writeRefVar := func(target *papyrus.EID) {
		w.WriteU8(uint8(papyrus.TagRef))
		st.WriteIndex(w, className)
		in.WriteEID(w, target)
	}
	writeData := func(eid *papyrus.EID, vars []*papyrus.EID) {
		in.WriteEID(w, eid)
		w.WriteU8(0) // flag
		st.WriteIndex(w, empty) // state
		w.WriteU32(0)           // unk1
		w.WriteU32(0)           // unk2
		w.WriteU32(uint32(len(vars)))
		for _, v := range vars {
			writeRefVar(v)
		}
	}

	writeData(eidA, []*papyrus.EID{eidC, eidD})
	writeData(eidB, []*papyrus.EID{eidC})
	writeData(eidC, nil)
	writeData(eidD, nil)

	w.WriteU32(0) // function_messages
	w.WriteU32(0) // suspended_stacks first
	w.WriteU32(0) // suspended_stacks second
	w.WriteU32(0) // unk1
	w.WriteU32(0) // unknown id count
	w.WriteU32(0) // unbinds
	w.WriteU16(0) // Skyrim trailing save-file-version

	graph, err := papyrus.Decode(w.Bytes(), ctx)
	require.NoError(t, err)
	require.False(t, graph.Truncated)
	require.False(t, graph.Broken)
	return graph, ctx
}

func TestFindRefereesReturnsDirectReferrers(t *testing.T) {
	graph, ctx := buildGraph(t)
	e := xref.NewEngine(graph, ctx)

	a, _ := graph.ScriptInstances.Get(10)
	b, _ := graph.ScriptInstances.Get(20)
	c, _ := graph.ScriptInstances.Get(30)
	d, _ := graph.ScriptInstances.Get(40)

	referees := e.FindReferees(c)
	assert.ElementsMatch(t, []papyrus.Node{a, b}, referees)

	referees = e.FindReferees(d)
	assert.ElementsMatch(t, []papyrus.Node{a}, referees)

	assert.Empty(t, e.FindReferees(a))
}

func TestPluginReachabilityCleanExtendIsDisjoint(t *testing.T) {
	graph, ctx := buildGraph(t)
	e := xref.NewEngine(graph, ctx)

	a, _ := graph.ScriptInstances.Get(10)
	b, _ := graph.ScriptInstances.Get(20)
	c, _ := graph.ScriptInstances.Get(30)
	d, _ := graph.ScriptInstances.Get(40)

	pluginA := e.PluginSet("PluginA.esp")
	pluginB := e.PluginSet("PluginB.esp")
	require.NotNil(t, pluginA)
	require.NotNil(t, pluginB)

	assert.True(t, pluginA.Contains(a))
	assert.True(t, pluginA.Contains(d))
	assert.False(t, pluginA.Contains(c))
	assert.False(t, pluginA.Contains(b))

	assert.True(t, pluginB.Contains(b))
	assert.False(t, pluginB.Contains(c))
	assert.False(t, pluginB.Contains(a))

	// Pairwise disjoint: no element survives in two plugin sets at once.
	assert.Equal(t, 0, pluginA.Intersect(pluginB).Cardinality())

	assert.True(t, e.Eliminated().Contains(c))
}

func TestInvalidateForcesRebuild(t *testing.T) {
	graph, ctx := buildGraph(t)
	e := xref.NewEngine(graph, ctx)

	c, _ := graph.ScriptInstances.Get(30)
	first := e.FindReferees(c)
	require.Len(t, first, 2)

	e.Invalidate()
	graph.ScriptInstances.Delete(10)

	second := e.FindReferees(c)
	assert.Len(t, second, 1, "after removing A, only B should still reference C")
}
