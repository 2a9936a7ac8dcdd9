// Package xref builds the two lazy, cached indices described in §4.5: the
// general referrer index over every graph edge, and the plugin-reachability
// index used to attribute shared game objects to a single owning plugin (or
// to none, when genuinely shared). Both are built once per load and
// invalidated by any graph mutation — the caller's responsibility, per §5.
package xref

import (
	"sync"

	mapset "github.com/deckarep/golang-set"
	lru "github.com/hashicorp/golang-lru"
	"github.com/holiman/bloomfilter/v2"
	"golang.org/x/sync/errgroup"

	"github.com/probechain/papyrus-core/log"
	"github.com/probechain/papyrus-core/papyrus"
)

// refereeCacheSize bounds the findReferees memoization cache; a single load
// rarely queries more distinct elements than this, and eviction is cheap
// insurance rather than a hard ceiling on correctness.
const refereeCacheSize = 4096

// Engine holds the two cross-reference indices for one decoded graph. It is
// built once, lazily, via Build, and is safe to discard and rebuild after
// any graph mutation (§4.7 "After any mutation the cross-reference indices
// are discarded").
type Engine struct {
	graph *papyrus.Papyrus
	ctx   papyrus.EssContext

	once        sync.Once
	referrers   map[papyrus.Node]mapset.Set // a -> {b, c, ...} a references each of these
	nonNodeRefs map[interface{}]mapset.Set  // referrers keyed by non-Node elements (function messages)

	plugins         map[string]mapset.Set // plugin name -> reachable node set
	eliminated      mapset.Set             // nodes attributed to no single plugin
	eliminatedBloom *bloomfilter.Filter

	refereeCache *lru.ARCCache
}

// NewEngine creates an engine over graph, using ctx to resolve plugin
// origins for the reachability index (§6 EssContext.PluginForRefID).
func NewEngine(graph *papyrus.Papyrus, ctx papyrus.EssContext) *Engine {
	cache, err := lru.NewARC(refereeCacheSize)
	if err != nil {
		// Only returns an error for a non-positive size, which never
		// happens here; a nil cache degrades to uncached queries.
		log.Warn("xref: referee cache disabled: %v", err)
	}
	return &Engine{graph: graph, ctx: ctx, refereeCache: cache}
}

// Build constructs both indices if they haven't been built yet. Safe to
// call repeatedly; the work happens exactly once per Engine lifetime.
func (e *Engine) Build() {
	e.once.Do(func() {
		e.buildReferrerIndex()
		e.buildPluginIndex()
	})
}

// Invalidate discards both indices and the referee-query cache, forcing the
// next Build to recompute from scratch. Call this after any graph mutation
// (§4.7).
func (e *Engine) Invalidate() {
	e.once = sync.Once{}
	e.referrers = nil
	e.nonNodeRefs = nil
	e.plugins = nil
	e.eliminated = nil
	e.eliminatedBloom = nil
	if e.refereeCache != nil {
		e.refereeCache.Purge()
	}
}

// edge is one referrer-index entry produced by a shard of buildReferrerIndex.
type edge struct {
	from interface{}
	to   papyrus.Node
}

// buildReferrerIndex walks every edge kind §4.5 enumerates, sharded over
// node-kind buckets and fanned out with errgroup — the data-parallel form §5
// explicitly permits, since each shard only reads its own immutable
// sub-collection and returns a pure slice of edges.
func (e *Engine) buildReferrerIndex() {
	e.referrers = make(map[papyrus.Node]mapset.Set)
	e.nonNodeRefs = make(map[interface{}]mapset.Set)

	shards := []func() []edge{
		e.edgesFromVariables,
		e.edgesFromInstanceClasses,
		e.edgesFromThreads,
		e.edgesFromSuspendedStacks,
		e.edgesFromArrays,
		e.edgesFromFunctionMessages,
	}

	results := make([][]edge, len(shards))
	var g errgroup.Group
	for i, shard := range shards {
		i, shard := i, shard
		g.Go(func() error {
			results[i] = shard()
			return nil
		})
	}
	_ = g.Wait() // shards are pure and never return an error

	for _, shard := range results {
		for _, ed := range shard {
			e.addEdge(ed.from, ed.to)
		}
	}
}

func (e *Engine) addEdge(from interface{}, to papyrus.Node) {
	if to == nil {
		return
	}
	if n, ok := from.(papyrus.Node); ok && n != nil {
		set, ok := e.referrers[n]
		if !ok {
			set = mapset.NewSet()
			e.referrers[n] = set
		}
		set.Add(to)
		return
	}
	set, ok := e.nonNodeRefs[from]
	if !ok {
		set = mapset.NewSet()
		e.nonNodeRefs[from] = set
	}
	set.Add(to)
}

// edgesFromVariables covers "every Variable with a resolved referent".
func (e *Engine) edgesFromVariables() []edge {
	var edges []edge
	e.graph.ScriptInstances.Each(func(_ uint64, i *papyrus.ScriptInstance) {
		for _, v := range i.Vars {
			if t := v.ResolvedTarget(); t != nil {
				edges = append(edges, edge{i, t})
			}
		}
	})
	e.graph.References.Each(func(_ uint64, r *papyrus.Reference) {
		for _, v := range r.Vars {
			if t := v.ResolvedTarget(); t != nil {
				edges = append(edges, edge{r, t})
			}
		}
	})
	if e.graph.StructInstances != nil {
		e.graph.StructInstances.Each(func(_ uint64, i *papyrus.StructInstance) {
			for _, v := range i.Vars {
				if t := v.ResolvedTarget(); t != nil {
					edges = append(edges, edge{i, t})
				}
			}
		})
	}
	return edges
}

// edgesFromInstanceClasses produces no edges. A class is a *papyrus.Script
// or *papyrus.Struct, which has no EID and so is not a Node; the
// instance-to-class relationship is not recorded in the referrer index, and
// findReferees never reaches a class.
func (e *Engine) edgesFromInstanceClasses() []edge {
	// No Node-typed target is available for a Script; these relationships
	// are exposed directly via ScriptInstance.Class / Reference.Class /
	// StructInstance.Class instead of the referrer index.
	return nil
}

// edgesFromThreads covers every thread to its attached element, its owner,
// and every frame's owner and variables. A frame's script name is a string,
// not a Node, and adds no edge.
func (e *Engine) edgesFromThreads() []edge {
	var edges []edge
	e.graph.ActiveScripts.Each(func(_ uint64, a *papyrus.ActiveScript) {
		if owner := a.AttachedOwner(); owner != nil {
			edges = append(edges, edge{a, owner})
		}
		if a.Owner != nil {
			if t := a.Owner.ResolvedTarget(); t != nil {
				edges = append(edges, edge{a, t})
			}
		}
		for _, f := range a.Frames {
			if f.Owner != nil {
				if t := f.Owner.ResolvedTarget(); t != nil {
					edges = append(edges, edge{a, t})
				}
			}
			for _, v := range f.Vars {
				if t := v.ResolvedTarget(); t != nil {
					edges = append(edges, edge{a, t})
				}
			}
		}
	})
	return edges
}

// edgesFromSuspendedStacks covers "every suspended stack to its script/
// thread/message variables".
func (e *Engine) edgesFromSuspendedStacks() []edge {
	var edges []edge
	walk := func(_ uint64, s *papyrus.SuspendedStack) {
		if s.Data == nil {
			return
		}
		if s.Data.Owner != nil {
			if t := s.Data.Owner.ResolvedTarget(); t != nil {
				edges = append(edges, edge{s, t})
			}
		}
		for _, v := range s.Data.Vars {
			if t := v.ResolvedTarget(); t != nil {
				edges = append(edges, edge{s, t})
			}
		}
	}
	e.graph.EachSuspendedStack(walk)
	return edges
}

// edgesFromArrays covers "every array's element variables (only when the
// array's element type is a reference type)".
func (e *Engine) edgesFromArrays() []edge {
	var edges []edge
	e.graph.Arrays.Each(func(_ uint64, a *papyrus.ArrayInfo) {
		if a.ElemType != papyrus.TagRef && a.ElemType != papyrus.TagStruct {
			return
		}
		for _, v := range a.Vars {
			if t := v.ResolvedTarget(); t != nil {
				edges = append(edges, edge{a, t})
			}
		}
	})
	return edges
}

// edgesFromFunctionMessages covers "every function message's message
// variables". A FunctionMessage has no EID — it is ordered by sequence
// index, not keyed (§5) — so it is recorded via nonNodeRefs rather than the
// Node-keyed referrers map; findReferees never needs to recurse through it
// since it can't itself be a referee.
func (e *Engine) edgesFromFunctionMessages() []edge {
	var edges []edge
	for _, m := range e.graph.FunctionMessages {
		if m.Data == nil {
			continue
		}
		if m.Data.Owner != nil {
			if t := m.Data.Owner.ResolvedTarget(); t != nil {
				edges = append(edges, edge{m, t})
			}
		}
		for _, v := range m.Data.Vars {
			if t := v.ResolvedTarget(); t != nil {
				edges = append(edges, edge{m, t})
			}
		}
	}
	return edges
}

// buildPluginIndex implements the Clean/Extend fixed point (§4.5). Plugin
// roots are every defined instance/reference whose game-native RefID
// resolves (via ctx.PluginForRefID) to an owning plugin; from there it
// iterates one-hop extension through the referrer index until a pass
// removes no intersections and adds no new reachability.
func (e *Engine) buildPluginIndex() {
	e.plugins = make(map[string]mapset.Set)
	e.eliminated = mapset.NewSet()

	root := func(plugin string, n papyrus.Node) {
		set, ok := e.plugins[plugin]
		if !ok {
			set = mapset.NewSet()
			e.plugins[plugin] = set
		}
		set.Add(n)
	}
	e.graph.ScriptInstances.Each(func(_ uint64, i *papyrus.ScriptInstance) {
		if plugin, ok := e.ctx.PluginForRefID(i.RefID); ok {
			root(plugin, i)
		}
	})
	e.graph.References.Each(func(_ uint64, r *papyrus.Reference) {
		if plugin, ok := e.ctx.PluginForRefID(r.RefID); ok {
			root(plugin, r)
		}
	})

	for {
		removedAny := e.cleanPass()
		addedAny := e.extendPass()
		if !removedAny && !addedAny {
			break
		}
	}

	e.rebuildEliminatedBloom()
}

// cleanPass computes, for every unordered pair of plugin sets, their
// intersection, removes the shared elements from both sets and from every
// other plugin's set, and records them as eliminated. Reports whether
// anything was removed this pass.
func (e *Engine) cleanPass() bool {
	names := make([]string, 0, len(e.plugins))
	for name := range e.plugins {
		names = append(names, name)
	}

	removedAny := false
	for i := 0; i < len(names); i++ {
		for j := i + 1; j < len(names); j++ {
			a, b := e.plugins[names[i]], e.plugins[names[j]]
			shared := a.Intersect(b)
			if shared.Cardinality() == 0 {
				continue
			}
			removedAny = true
			for elem := range shared.Iter() {
				e.eliminated.Add(elem)
				for _, name := range names {
					e.plugins[name].Remove(elem)
				}
			}
		}
	}
	if removedAny {
		e.rebuildEliminatedBloom()
	}
	return removedAny
}

// extendPass adds, to every plugin-rooted set, every element reachable in
// one further hop via the referrer index, skipping anything already
// eliminated. Reports whether anything new was added this pass.
func (e *Engine) extendPass() bool {
	addedAny := false
	for _, set := range e.plugins {
		var frontier []papyrus.Node
		for elem := range set.Iter() {
			n, ok := elem.(papyrus.Node)
			if !ok {
				continue
			}
			frontier = append(frontier, n)
		}
		for _, n := range frontier {
			referents, ok := e.referrers[n]
			if !ok {
				continue
			}
			for elem := range referents.Iter() {
				if set.Contains(elem) {
					continue
				}
				// The bloom filter gives a cheap negative answer in the common
				// case (most referents were never eliminated), skipping the
				// authoritative Contains lookup against the full eliminated set.
				if e.maybeEliminated(elem) && e.eliminated.Contains(elem) {
					continue
				}
				set.Add(elem)
				addedAny = true
			}
		}
	}
	return addedAny
}

// rebuildEliminatedBloom refreshes the probabilistic membership pre-check
// extendPass's referent scan uses to skip an authoritative eliminated-set
// lookup when an element almost certainly was never eliminated (§4.5).
func (e *Engine) rebuildEliminatedBloom() {
	n := uint64(e.eliminated.Cardinality())
	if n == 0 {
		n = 1
	}
	f, err := bloomfilter.New(n*10, 6)
	if err != nil {
		log.Warn("xref: eliminated-set bloom filter disabled: %v", err)
		e.eliminatedBloom = nil
		return
	}
	for elem := range e.eliminated.Iter() {
		f.Add(bloomHash(elem))
	}
	e.eliminatedBloom = f
}

// maybeEliminated is the cheap pre-check: a negative answer is
// authoritative, a positive one still requires the real set lookup.
func (e *Engine) maybeEliminated(elem interface{}) bool {
	if e.eliminatedBloom == nil {
		return true
	}
	return e.eliminatedBloom.Contains(bloomHash(elem))
}

func bloomHash(elem interface{}) bloomfilter.Hash {
	n, ok := elem.(papyrus.Node)
	if !ok || n == nil || n.NodeEID() == nil {
		return bloomfilter.Hash(0)
	}
	return bloomfilter.Hash(n.NodeEID().Value())
}

// FindReferees returns the union of x's direct referrers and its one-hop
// secondary referrers (referrers of those referrers), filtered to
// defined-instance types, per §4.5. Results are memoized per x until the
// next Invalidate.
func (e *Engine) FindReferees(x papyrus.Node) []papyrus.Node {
	e.Build()

	if e.refereeCache != nil {
		if cached, ok := e.refereeCache.Get(x); ok {
			return cached.([]papyrus.Node)
		}
	}

	seen := mapset.NewSet()
	var out []papyrus.Node
	add := func(n papyrus.Node) {
		if n == nil || !isDefinedInstance(n) || seen.Contains(n) {
			return
		}
		seen.Add(n)
		out = append(out, n)
	}

	direct := e.directReferrers(x)
	for _, d := range direct {
		add(d)
	}
	for _, d := range direct {
		for _, secondary := range e.directReferrers(d) {
			add(secondary)
		}
	}

	if e.refereeCache != nil {
		e.refereeCache.Add(x, out)
	}
	return out
}

// directReferrers scans the referrer index for every a such that a -> x.
func (e *Engine) directReferrers(x papyrus.Node) []papyrus.Node {
	var out []papyrus.Node
	for from, set := range e.referrers {
		if set.Contains(x) {
			out = append(out, from)
		}
	}
	return out
}

func isDefinedInstance(n papyrus.Node) bool {
	switch v := n.(type) {
	case *papyrus.ScriptInstance:
		return !v.IsUndefined()
	case *papyrus.Reference:
		return !v.IsUndefined()
	case *papyrus.StructInstance:
		return !v.IsUndefined()
	default:
		return false
	}
}

// MessageReferents returns the graph nodes m's owner/variables resolve to
// (§4.5 "every function message's message variables"). Unlike Node-keyed
// elements, a FunctionMessage has no EID to recurse on, so this is exposed
// directly rather than through FindReferees.
func (e *Engine) MessageReferents(m *papyrus.FunctionMessage) []papyrus.Node {
	e.Build()
	set, ok := e.nonNodeRefs[m]
	if !ok {
		return nil
	}
	out := make([]papyrus.Node, 0, set.Cardinality())
	for elem := range set.Iter() {
		if n, ok := elem.(papyrus.Node); ok {
			out = append(out, n)
		}
	}
	return out
}

// PluginSet returns the reachability set computed for plugin (after Build),
// or nil if the plugin has no rooted elements.
func (e *Engine) PluginSet(plugin string) mapset.Set {
	e.Build()
	return e.plugins[plugin]
}

// Eliminated returns the set of elements attributed to no single plugin.
func (e *Engine) Eliminated() mapset.Set {
	e.Build()
	return e.eliminated
}
