package types

import "encoding/json"

// Snapshot is a value-only capture of one target at one time. It carries no
// ref, so the same snapshot can be restored onto any target of the same
// shape. The set of shapes is closed: TransformSnapshot, ScalarSnapshot and
// TriggerSnapshot.
type Snapshot interface {
	// Kind returns the ref kind of the targets this snapshot fits.
	Kind() RefKind
	isSnapshot()
}

// TransformSnapshot holds the position (x, y, z) and rotation (x, y, z, w)
// keyframes of a controller at one time.
type TransformSnapshot struct {
	Position [3]Keyframe `json:"position"`
	Rotation [4]Keyframe `json:"rotation"`
}

// ScalarSnapshot holds the keyframe of a float parameter at one time.
type ScalarSnapshot struct {
	Keyframe Keyframe `json:"keyframe"`
}

// TriggerSnapshot holds the opaque payload of a trigger track at one time.
type TriggerSnapshot struct {
	Payload json.RawMessage `json:"payload"`
}

func (TransformSnapshot) Kind() RefKind { return RefKindController }
func (ScalarSnapshot) Kind() RefKind    { return RefKindParam }
func (TriggerSnapshot) Kind() RefKind   { return RefKindTrigger }

func (TransformSnapshot) isSnapshot() {}
func (ScalarSnapshot) isSnapshot()    {}
func (TriggerSnapshot) isSnapshot()   {}

// CloneSnapshot returns a copy of s that shares no memory with it.
func CloneSnapshot(s Snapshot) Snapshot {
	if t, ok := s.(TriggerSnapshot); ok {
		return TriggerSnapshot{Payload: clonePayload(t.Payload)}
	}
	return s
}

func clonePayload(p json.RawMessage) json.RawMessage {
	if p == nil {
		return nil
	}
	cp := make(json.RawMessage, len(p))
	copy(cp, p)
	return cp
}
