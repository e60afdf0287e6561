package refs

import (
	"fmt"

	"github.com/mesh-intelligence/timeline/pkg/types"
)

// TriggerRef identifies a trigger track on a layer. It carries no value;
// its targets store discrete payloads.
type TriggerRef struct {
	base
}

func newTriggerRef(key Key) *TriggerRef {
	t := &TriggerRef{base: base{key: key}}
	t.self = t
	return t
}

// Layer returns the layer id.
func (t *TriggerRef) Layer() string { return t.key.Owner }

// Name returns the track name.
func (t *TriggerRef) Name() string { return t.key.Name }

func (t *TriggerRef) ShortName() string { return t.key.Name }

func (t *TriggerRef) LongName() string {
	return fmt.Sprintf("%s %s", t.key.Owner, t.key.Name)
}

func (t *TriggerRef) Record() types.RefRecord { return t.record() }

func (t *TriggerRef) Restore(rec types.RefRecord) { t.restore(rec) }
