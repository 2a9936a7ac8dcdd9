package papyrus

import (
	"github.com/probechain/papyrus-core/codec"
	"github.com/probechain/papyrus-core/common"
)

// FragmentKind discriminates the auxiliary fragment-task payload an active
// script may carry (§GLOSSARY "Fragment task"). The exact per-kind payload
// shape is underspecified beyond Type2's 32-bit EID (§8 scenario S6); the
// remaining shapes are this decoder's documented interpretation (see
// DESIGN.md "Open Question decisions").
type FragmentKind uint8

const (
	FragQuestStage FragmentKind = iota
	FragScenePhaseResults
	FragSceneActionResults
	FragSceneResults
	FragTerminalRunResults
	FragTopicInfo
	FragType2
)

var fragmentKindNames = [...]string{
	FragQuestStage: "QuestStage", FragScenePhaseResults: "ScenePhaseResults",
	FragSceneActionResults: "SceneActionResults", FragSceneResults: "SceneResults",
	FragTerminalRunResults: "TerminalRunResults", FragTopicInfo: "TopicInfo",
	FragType2: "Type2",
}

func (k FragmentKind) String() string {
	if int(k) < len(fragmentKindNames) {
		return fragmentKindNames[k]
	}
	return "Invalid"
}

// fragmentAttachesEID reports whether this fragment kind carries the
// conditional attached-EID under the Fallout 4 variant.
func fragmentAttachesEID(k FragmentKind) bool {
	switch k {
	case FragQuestStage, FragScenePhaseResults, FragSceneActionResults, FragSceneResults:
		return true
	default:
		return false
	}
}

// FragmentTask is an active script's auxiliary quest/scene/terminal/dialogue
// payload (§GLOSSARY). Only the fields relevant to Kind are populated.
type FragmentTask struct {
	Kind FragmentKind

	QuestStageIndex     uint16 // QuestStage
	QuestStageItemIndex uint16 // QuestStage

	PhaseIndex byte // ScenePhaseResults

	ActionIndex uint32 // SceneActionResults

	ResultFlags byte // SceneResults, TerminalRunResults

	TopicInfoEID *EID // TopicInfo

	Type2EID *EID // Type2 (§8 scenario S6: "reads a 32-bit EID")
}

func decodeFragmentTask(c *codec.Cursor, in *Interner) (*FragmentTask, error) {
	kindByte, err := c.ReadU8("fragment task kind")
	if err != nil {
		return nil, err
	}
	if kindByte > uint8(FragType2) {
		return nil, &common.FormatError{Where: "fragment task kind", Detail: "invalid fragment kind"}
	}
	t := &FragmentTask{Kind: FragmentKind(kindByte)}
	switch t.Kind {
	case FragQuestStage:
		if t.QuestStageIndex, err = c.ReadU16("quest stage index"); err != nil {
			return nil, err
		}
		if t.QuestStageItemIndex, err = c.ReadU16("quest stage item index"); err != nil {
			return nil, err
		}
	case FragScenePhaseResults:
		if t.PhaseIndex, err = c.ReadU8("scene phase index"); err != nil {
			return nil, err
		}
	case FragSceneActionResults:
		if t.ActionIndex, err = c.ReadU32("scene action index"); err != nil {
			return nil, err
		}
	case FragSceneResults, FragTerminalRunResults:
		if t.ResultFlags, err = c.ReadU8("fragment result flags"); err != nil {
			return nil, err
		}
	case FragTopicInfo:
		eid, err := in.ReadEID32(c, "topic info eid")
		if err != nil {
			return nil, err
		}
		t.TopicInfoEID = eid
	case FragType2:
		eid, err := in.ReadEID32(c, "fragment type2 eid")
		if err != nil {
			return nil, err
		}
		t.Type2EID = eid
	}
	return t, nil
}

func (t *FragmentTask) encode(w *codec.Writer, in *Interner) {
	w.WriteU8(uint8(t.Kind))
	switch t.Kind {
	case FragQuestStage:
		w.WriteU16(t.QuestStageIndex)
		w.WriteU16(t.QuestStageItemIndex)
	case FragScenePhaseResults:
		w.WriteU8(t.PhaseIndex)
	case FragSceneActionResults:
		w.WriteU32(t.ActionIndex)
	case FragSceneResults, FragTerminalRunResults:
		w.WriteU8(t.ResultFlags)
	case FragTopicInfo:
		in.WriteEID32(w, t.TopicInfoEID)
	case FragType2:
		in.WriteEID32(w, t.Type2EID)
	}
}

func (t *FragmentTask) calculateSize() int {
	size := 1
	switch t.Kind {
	case FragQuestStage:
		size += 4
	case FragScenePhaseResults:
		size += 1
	case FragSceneActionResults:
		size += 4
	case FragSceneResults, FragTerminalRunResults:
		size += 1
	case FragTopicInfo, FragType2:
		size += 4
	}
	return size
}

// ActiveScript is a running VM thread (§3, §GLOSSARY "Active script").
type ActiveScript struct {
	EID         *EID
	Kind        byte
	VersionMaj  byte
	VersionMin  byte
	Owner       *Variable
	Flag        byte
	Unk         byte
	Fragment    *FragmentTask // optional
	AttachedEID *EID          // optional, FO4 only, gated on Fragment's kind
	Frames      []*StackFrame
	Trailing    *byte // present iff len(Frames) > 0

	attachedOwner Node // resolved post-decode (§4.3 step-after-12 linking)
	suspended     *SuspendedStack
}

func (a *ActiveScript) NodeEID() *EID { return a.EID }

// IsTerminated reports whether every opcode in every frame has been
// replaced with the NOP sentinel (§GLOSSARY "Terminated thread").
func (a *ActiveScript) IsTerminated() bool {
	if len(a.Frames) == 0 {
		return false
	}
	for _, f := range a.Frames {
		for _, op := range f.Opcodes {
			if op.Op != OpNop {
				return false
			}
		}
	}
	return true
}

// IsUndefined reports whether the thread's owner failed to resolve and the
// first frame's owner did not resolve either — the thread has nothing live attaching it
// to the graph (§4.6 "undefined non-terminated thread").
func (a *ActiveScript) IsUndefined() bool {
	return a.attachedOwner == nil && (a.Owner == nil || a.Owner.ResolvedTarget() == nil)
}

// AttachedOwner returns the resolved owning graph node, populated by
// Papyrus.linkReferences after full decode.
func (a *ActiveScript) AttachedOwner() Node { return a.attachedOwner }

// SuspendedStack returns the matching suspended stack attached post-decode
// (§4.3: "attach the matching suspended stack (if any) from the union of
// the two stack maps"), or nil.
func (a *ActiveScript) SuspendedStack() *SuspendedStack { return a.suspended }

// decodeActiveScriptPreamble reads step-11's preamble: EID + one kind byte
// (§4.3, §6 row 12).
func decodeActiveScriptPreamble(c *codec.Cursor, in *Interner) (*ActiveScript, error) {
	a := &ActiveScript{}
	var err error
	if a.EID, err = in.ReadEID(c, "active script eid"); err != nil {
		return nil, err
	}
	if a.Kind, err = c.ReadU8("active script kind"); err != nil {
		return a, err
	}
	return a, nil
}

func (a *ActiveScript) encodePreamble(w *codec.Writer, in *Interner) {
	in.WriteEID(w, a.EID)
	w.WriteU8(a.Kind)
}

func (a *ActiveScript) calculateSizePreamble(in *Interner) int {
	return in.SizeOfEID() + 1
}

// decodeActiveScriptData reads step-12's data blob: version bytes, owner
// Variable, flag/unknown bytes, optional fragment task, stack frame vector,
// and the trailing byte iff frames is non-empty.
func decodeActiveScriptData(c *codec.Cursor, in *Interner, st *StringTable, variant common.GameVariant, a *ActiveScript) error {
	var err error
	if a.VersionMaj, err = c.ReadU8("active script version major"); err != nil {
		return err
	}
	if a.VersionMin, err = c.ReadU8("active script version minor"); err != nil {
		return err
	}
	owner, err := decodeVariable(c, in, st)
	if err != nil {
		return err
	}
	a.Owner = owner
	if a.Flag, err = c.ReadU8("active script flag"); err != nil {
		return err
	}
	if a.Unk, err = c.ReadU8("active script unknown"); err != nil {
		return err
	}

	hasFragment, err := c.ReadU8("active script has fragment")
	if err != nil {
		return err
	}
	if hasFragment != 0 {
		frag, err := decodeFragmentTask(c, in)
		if err != nil {
			return elementErrorf(a, err)
		}
		a.Fragment = frag
		if variant.EidIs64Bit() && fragmentAttachesEID(frag.Kind) {
			attached, err := in.ReadEID64(c, "active script attached eid")
			if err != nil {
				return err
			}
			a.AttachedEID = attached
		}
	}

	frameCount, err := c.ReadU16("active script frame count")
	if err != nil {
		return err
	}
	a.Frames = make([]*StackFrame, 0, frameCount)
	for i := uint16(0); i < frameCount; i++ {
		f, err := decodeStackFrame(c, in, st)
		if err != nil {
			return listErrorf(int(i), int(frameCount), err)
		}
		a.Frames = append(a.Frames, f)
	}
	if len(a.Frames) > 0 {
		trailing, err := c.ReadU8("active script trailing byte")
		if err != nil {
			return err
		}
		a.Trailing = &trailing
	}

	return nil
}

func (a *ActiveScript) encodeData(w *codec.Writer, in *Interner, st *StringTable, variant common.GameVariant) {
	w.WriteU8(a.VersionMaj)
	w.WriteU8(a.VersionMin)
	a.Owner.encode(w, in, st)
	w.WriteU8(a.Flag)
	w.WriteU8(a.Unk)

	if a.Fragment != nil {
		w.WriteU8(1)
		a.Fragment.encode(w, in)
		if variant.EidIs64Bit() && fragmentAttachesEID(a.Fragment.Kind) {
			in.WriteEID(w, a.AttachedEID)
		}
	} else {
		w.WriteU8(0)
	}

	w.WriteU16(uint16(len(a.Frames)))
	for _, f := range a.Frames {
		f.encode(w, in, st)
	}
	if len(a.Frames) > 0 {
		w.WriteU8(*a.Trailing)
	}
}

func (a *ActiveScript) calculateSizeData(in *Interner, st *StringTable, variant common.GameVariant) int {
	size := 1 + 1
	size += a.Owner.calculateSize(in, st)
	size += 1 + 1

	size += 1
	if a.Fragment != nil {
		size += a.Fragment.calculateSize()
		if variant.EidIs64Bit() && fragmentAttachesEID(a.Fragment.Kind) {
			size += in.SizeOfEID()
		}
	}

	size += 2
	for _, f := range a.Frames {
		size += f.calculateSize(in, st)
	}
	if len(a.Frames) > 0 {
		size++
	}
	return size
}
