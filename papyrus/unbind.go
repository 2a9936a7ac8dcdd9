package papyrus

import "github.com/probechain/papyrus-core/codec"

// QueuedUnbind is a pending instance-unbind notification (§3, §GLOSSARY
// "Queued unbind"). Its EID is asserted to resolve to a known ScriptInstance
// (§9 Open Question) — this decoder treats an unresolved target as a
// warning rather than a fatal format error; see DESIGN.md.
type QueuedUnbind struct {
	EID   *EID
	Field uint32

	Owner *ScriptInstance // resolved post-decode; nil if unresolved
}

func (u *QueuedUnbind) NodeEID() *EID { return u.EID }

func decodeQueuedUnbind(c *codec.Cursor, in *Interner) (*QueuedUnbind, error) {
	eid, err := in.ReadEID(c, "queued unbind eid")
	if err != nil {
		return nil, err
	}
	field, err := c.ReadU32("queued unbind field")
	if err != nil {
		return nil, err
	}
	return &QueuedUnbind{EID: eid, Field: field}, nil
}

func (u *QueuedUnbind) encode(w *codec.Writer, in *Interner) {
	in.WriteEID(w, u.EID)
	w.WriteU32(u.Field)
}

func (u *QueuedUnbind) calculateSize(in *Interner) int {
	return in.SizeOfEID() + 4
}
