package papyrus

import "github.com/probechain/papyrus-core/common"

// EssContext is the collaborator interface the core consumes from the
// outer savegame reader (§6 "Collaborator interfaces (consumed by the
// core)"). The core never reaches for globals; every variance point in
// §4.3 threads through this small, immutable object.
type EssContext interface {
	GameVariant() common.GameVariant
	EidIs64Bit() bool
	StringIndexIs32Bit() bool

	// LookupChangeForm resolves a game-native RefID to its owning
	// change-form record, outside the core's own graph.
	LookupChangeForm(refID uint32) (ChangeFormRef, bool)
	// PluginForRefID returns the originating plugin name for a RefID, used
	// by the cross-reference engine's plugin-reachability index.
	PluginForRefID(refID uint32) (string, bool)
	// BroadSpectrumSearch is the auditor's fallback identifier search used
	// when building HTML hyperlinks; the core only forwards to it.
	BroadSpectrumSearch(number uint64) []ChangeFormRef
}

// ChangeFormRef is an opaque handle to an outer-layer change-form record;
// the core never inspects its fields, only threads it through to the
// cross-reference engine and the auditor's reporting.
type ChangeFormRef interface {
	RefID() uint32
	Plugin() string
}

// ModelBuilder receives the constructed sub-collections for downstream
// presentation (§6). The core only invokes named add_* hooks with
// read-only collections; it never retains a reference back into the
// builder.
type ModelBuilder interface {
	AddScripts(scripts []*Script)
	AddStructs(structs []*Struct)
	AddScriptInstances(instances []*ScriptInstance)
	AddReferences(refs []*Reference)
	AddStructInstances(instances []*StructInstance)
	AddArrays(arrays []*ArrayInfo)
	AddActiveScripts(threads []*ActiveScript)
	AddFunctionMessages(messages []*FunctionMessage)
	AddUnbinds(unbinds []*QueuedUnbind)
}

// ArchiveReader is the BSA/BA2 package-format collaborator (§6). It is not
// consumed during decode; only the auditor's mod-origin annotations touch
// it, so the core only needs the shape, not an implementation.
type ArchiveReader interface {
	HasFile(virtualPath string) bool
	OriginPlugin(virtualPath string) (string, bool)
}
