// Package worrier implements the structural-integrity auditor (§4.6): it
// consumes a decoded Papyrus graph plus a handful of facts the outer ESS
// reader owns (plugin count, outer truncation flags, prior-save snapshot)
// and classifies the save as healthy, suspect, or unrecoverable.
package worrier

import (
	"fmt"

	"golang.org/x/crypto/sha3"

	"github.com/probechain/papyrus-core/log"
	"github.com/probechain/papyrus-core/papyrus"
)

// canaryMemberName is the per-instance integer field the game itself uses to
// detect script-data corruption (§4.6).
const canaryMemberName = "::iPapyrusDataVerification_var"

// EssFacts carries the outer-layer facts the core never decodes itself
// (§1 "the outer savegame header ... appears here only as collaborators")
// but that the auditor's Fatal/Warning classifiers need: plugin count and
// truncation flags that live above the Papyrus block, plus the identifying
// triple used for sequential-save comparison.
type EssFacts struct {
	PluginCount   int
	EssTruncated  bool
	FormIDArrayTruncated bool

	GameName   string // in-world save name, e.g. the character/slot name
	SaveNumber int
	DataSize   int // total on-disk size of the save, for shrink comparison
}

// Report is the auditor's output (§4.6).
type Report struct {
	DisableSaving bool
	ShouldWorry   bool
	Fatal         []string
	Warning       []string
}

func (r *Report) fatal(format string, args ...interface{}) {
	r.DisableSaving = true
	r.Fatal = append(r.Fatal, fmt.Sprintf(format, args...))
}

func (r *Report) warn(format string, args ...interface{}) {
	r.ShouldWorry = true
	r.Warning = append(r.Warning, fmt.Sprintf(format, args...))
}

// Snapshot is the subset of a prior Audit's inputs retained for the next
// sequential-save comparison (§4.6). Audit returns one alongside the
// Report; callers thread it into the next call as `previous`.
type Snapshot struct {
	facts EssFacts

	// canaries maps a RefID to the instance's canary value at the time of
	// this snapshot, keyed across every ScriptInstance whose class carries
	// the canary member.
	canaries map[uint32]int32

	// namespaces maps a plugin name to the set of RefIDs it has resident
	// script instances for, used by the "canary namespace loss" classifier.
	namespaces map[string]map[uint32]bool

	fingerprint [32]byte
}

// Audit runs every Fatal and Warning classifier in §4.6 against graph,
// using facts for the ESS-layer inputs the core doesn't decode, and ctx to
// resolve plugin ownership. previous may be nil (no sequential comparison).
// Returns the report plus a snapshot for the next call.
func Audit(graph *papyrus.Papyrus, ctx papyrus.EssContext, facts EssFacts, previous *Snapshot) (*Report, *Snapshot) {
	r := &Report{}

	auditFatal(r, graph, facts)
	auditWarnings(r, graph, ctx, facts, previous)

	snap := &Snapshot{
		facts:       facts,
		canaries:    collectCanaries(graph),
		namespaces:  collectNamespaces(graph, ctx),
		fingerprint: fingerprintTrailer(graph.ArraysTrailer),
	}

	if r.DisableSaving {
		log.Error("worrier: disable_saving set, %d fatal condition(s)", len(r.Fatal))
	} else if r.ShouldWorry {
		log.Warn("worrier: should_worry set, %d warning(s)", len(r.Warning))
	}

	return r, snap
}

func auditFatal(r *Report, graph *papyrus.Papyrus, facts EssFacts) {
	if graph.Broken {
		r.fatal("block marked broken")
	}
	if facts.PluginCount == 255 || facts.PluginCount == 256 {
		r.fatal("plugin count is exactly %d", facts.PluginCount)
	}
	if facts.EssTruncated {
		r.fatal("ESS container truncated")
	}
	if graph.StringTableTruncated {
		r.fatal("string table truncated")
	}
	if graph.Truncated {
		r.fatal("Papyrus block truncated")
	}
	if facts.FormIDArrayTruncated {
		r.fatal("formID array truncated")
	}
	if isStringTableBug(graph) {
		r.fatal("string-table-bug flag set")
	}
}

// isStringTableBug reports whether DecodeStringTable set the table's STBFlag,
// which it does only for a narrow declared count listed in skyrimSTBCounts
// under the Skyrim variant.
func isStringTableBug(graph *papyrus.Papyrus) bool {
	return graph.Strings != nil && graph.Strings.STBFlag
}

func auditWarnings(r *Report, graph *papyrus.Papyrus, ctx papyrus.EssContext, facts EssFacts, previous *Snapshot) {
	threshold := graph.Variant.UnattachedThreshold()
	unattached := 0
	memberless := 0
	defMismatch := 0
	graph.ScriptInstances.Each(func(_ uint64, inst *papyrus.ScriptInstance) {
		if inst.IsUnattached() {
			unattached++
		}
		if inst.IsUndefined() {
			return
		}
		if inst.IsMemberless() {
			memberless++
		}
		if inst.IsDefinitionMismatch() {
			defMismatch++
		}
	})
	if unattached > threshold {
		r.warn("%d unattached script instance(s) (threshold %d)", unattached, threshold)
	}
	if memberless > 0 {
		r.warn("%d memberless script instance(s)", memberless)
	}
	if defMismatch > 0 {
		r.warn("%d definition-mismatch script instance(s)", defMismatch)
	}

	undefined := countUndefinedElements(graph)
	if undefined > 0 {
		r.warn("%d undefined element(s)", undefined)
	}

	dangling := 0
	graph.Unbinds.Each(func(_ uint64, u *papyrus.QueuedUnbind) {
		if u.Owner == nil {
			dangling++
		}
	})
	if dangling > 0 {
		r.warn("%d dangling unbind(s)", dangling)
	}

	auditThreads(r, graph)
	auditScripts(r, graph)

	if previous != nil && isSequential(previous.facts, facts) {
		auditSequential(r, graph, ctx, facts, previous)
	}
}

func countUndefinedElements(graph *papyrus.Papyrus) int {
	n := 0
	graph.ScriptInstances.Each(func(_ uint64, i *papyrus.ScriptInstance) {
		if i.IsUndefined() {
			n++
		}
	})
	graph.References.Each(func(_ uint64, r *papyrus.Reference) {
		if r.IsUndefined() {
			n++
		}
	})
	if graph.StructInstances != nil {
		graph.StructInstances.Each(func(_ uint64, i *papyrus.StructInstance) {
			if i.IsUndefined() {
				n++
			}
		})
	}
	return n
}

func auditThreads(r *Report, graph *papyrus.Papyrus) {
	totalFrames := 0
	stackCount := 0
	undefinedThreads := 0
	bigThreads := 0
	graph.ActiveScripts.Each(func(_ uint64, a *papyrus.ActiveScript) {
		stackCount++
		totalFrames += len(a.Frames)
		if len(a.Frames) >= 100 {
			bigThreads++
		}
		if a.IsUndefined() && !a.IsTerminated() {
			undefinedThreads++
		}
	})
	if stackCount > 50 || totalFrames > 150 {
		r.warn("%d stack(s), %d total frame(s) (limits 50/150)", stackCount, totalFrames)
	}
	if bigThreads > 0 {
		r.warn("%d thread(s) with >= 100 frames", bigThreads)
	}
	if undefinedThreads > 0 {
		r.warn("%d undefined non-terminated thread(s)", undefinedThreads)
	}
}

func auditScripts(r *Report, graph *papyrus.Papyrus) {
	missingParent := 0
	emptyParentName := 0
	graph.Scripts.Each(func(_ string, s *papyrus.Script) {
		if s.MissingParent {
			missingParent++
		}
		if s.ParentName != nil && s.ParentName.Content == "" {
			emptyParentName++
		}
	})
	if missingParent > 0 {
		r.warn("%d script(s) with missing parent", missingParent)
	}
	if emptyParentName > 0 {
		r.warn("%d script(s) with empty parent name", emptyParentName)
	}
}

// isSequential reports whether cur follows prev: the same in-world name, a
// strictly increasing save number, and a difference of less than 10. The
// game variant of the two saves is not compared.
func isSequential(prev, cur EssFacts) bool {
	if prev.GameName != cur.GameName {
		return false
	}
	diff := cur.SaveNumber - prev.SaveNumber
	return diff > 0 && diff < 10
}

func auditSequential(r *Report, graph *papyrus.Papyrus, ctx papyrus.EssContext, facts EssFacts, previous *Snapshot) {
	if previous.facts.DataSize > 0 {
		shrink := float64(previous.facts.DataSize-facts.DataSize) / float64(previous.facts.DataSize)
		if shrink >= 0.05 {
			r.warn("savefile shrank %.1f%% against the prior sequential save", shrink*100)
		}
	}

	auditCanaries(r, graph, previous)
	auditNamespaceLoss(r, graph, ctx, previous)
}

func collectCanaries(graph *papyrus.Papyrus) map[uint32]int32 {
	out := make(map[uint32]int32)
	graph.ScriptInstances.Each(func(_ uint64, inst *papyrus.ScriptInstance) {
		idx, ok := canaryIndex(inst)
		if !ok || idx >= len(inst.Vars) {
			return
		}
		v := inst.Vars[idx]
		if v != nil && v.Tag == papyrus.TagInteger {
			out[inst.RefID] = v.Int
		}
	})
	return out
}

// canaryIndex finds the position of the canary member in inst's class's
// extended member list, which is the same position its value occupies in
// Vars (§3 "variables align positionally with extended members").
func canaryIndex(inst *papyrus.ScriptInstance) (int, bool) {
	if inst.Class == nil {
		return 0, false
	}
	for i, m := range inst.Class.ExtendedMembers() {
		if m.Name != nil && m.Name.Content == canaryMemberName {
			return i, true
		}
	}
	return 0, false
}

func auditCanaries(r *Report, graph *papyrus.Papyrus, previous *Snapshot) {
	zeroed := 0
	var example string
	graph.ScriptInstances.Each(func(_ uint64, inst *papyrus.ScriptInstance) {
		idx, ok := canaryIndex(inst)
		if !ok || idx >= len(inst.Vars) {
			return
		}
		prior, had := previous.canaries[inst.RefID]
		if !had || prior == 0 {
			return
		}
		v := inst.Vars[idx]
		if v != nil && v.Tag == papyrus.TagInteger && v.Int == 0 {
			zeroed++
			if example == "" && inst.Class != nil {
				example = fmt.Sprintf("%s: 0x%x->0", inst.Class.Name, prior)
			}
		}
	})
	if zeroed > 0 {
		if example != "" {
			r.warn("%d zeroed canary (%s)", zeroed, example)
		} else {
			r.warn("%d zeroed canary", zeroed)
		}
	}
}

// collectNamespaces maps every plugin name to the RefIDs of the script
// instances it owns, via ctx.PluginForRefID — the only way the core can
// learn a RefID's owning plugin (§4.6 "canary namespace loss").
func collectNamespaces(graph *papyrus.Papyrus, ctx papyrus.EssContext) map[string]map[uint32]bool {
	out := make(map[string]map[uint32]bool)
	graph.ScriptInstances.Each(func(_ uint64, inst *papyrus.ScriptInstance) {
		plugin, ok := ctx.PluginForRefID(inst.RefID)
		if !ok {
			return
		}
		set := out[plugin]
		if set == nil {
			set = make(map[uint32]bool)
			out[plugin] = set
		}
		set[inst.RefID] = true
	})
	return out
}

// auditNamespaceLoss flags a plugin that had resident script instances in
// the prior save but has none reachable via a live change-form now, while
// at least one of its former RefIDs still resolves to a change-form
// (§4.6: "resident change-forms but namespace absent now").
func auditNamespaceLoss(r *Report, graph *papyrus.Papyrus, ctx papyrus.EssContext, previous *Snapshot) {
	current := collectNamespaces(graph, ctx)
	lost := 0
	for plugin, refIDs := range previous.namespaces {
		if len(current[plugin]) > 0 {
			continue
		}
		stillResident := false
		for refID := range refIDs {
			if _, ok := ctx.LookupChangeForm(refID); ok {
				stillResident = true
				break
			}
		}
		if stillResident {
			lost++
			log.Warn("worrier: namespace %q lost but change-forms remain resident", plugin)
		}
	}
	if lost > 0 {
		r.warn("%d namespace(s) lost resident ownership", lost)
	}
}

// fingerprintTrailer hashes the opaque arrays-trailer bytes so two saves can
// be compared without a byte-for-byte dump in diagnostic output.
func fingerprintTrailer(trailer []byte) [32]byte {
	h := sha3.NewLegacyKeccak256()
	h.Write(trailer)
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// Fingerprint exposes the trailer fingerprint computed for snap, formatted
// for inclusion in a diagnostic report.
func (s *Snapshot) Fingerprint() string {
	return fmt.Sprintf("%x", s.fingerprint)
}
