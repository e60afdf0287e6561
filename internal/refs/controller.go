package refs

import (
	"fmt"

	"github.com/mesh-intelligence/timeline/pkg/types"
)

// Controller is the host side of a transform controller.
type Controller interface {
	Position() types.Vec3
	Rotation() types.Quat
	SetPosition(p types.Vec3)
	SetRotation(q types.Quat)
}

// ControllerRef identifies a transform controller. Position and rotation
// channels are selected independently; the ref is selected when either is.
type ControllerRef struct {
	base
	positionSelected bool
	rotationSelected bool
	host             Controller
	position         types.Vec3
	rotation         types.Quat
}

func newControllerRef(key Key) *ControllerRef {
	c := &ControllerRef{base: base{key: key}, rotation: types.IdentityQuat}
	c.self = c
	return c
}

// ID returns the controller id.
func (c *ControllerRef) ID() string { return c.key.Name }

func (c *ControllerRef) ShortName() string { return c.key.Name }

func (c *ControllerRef) LongName() string {
	return fmt.Sprintf("controller %s", c.key.Name)
}

// Selected reports whether either channel is selected.
func (c *ControllerRef) Selected() bool {
	return c.positionSelected || c.rotationSelected
}

// SetSelected selects or deselects both channels.
func (c *ControllerRef) SetSelected(selected bool) {
	c.setChannels(selected, selected)
}

// PositionSelected reports whether the position channel is selected.
func (c *ControllerRef) PositionSelected() bool { return c.positionSelected }

// SetPositionSelected selects the position channel only.
func (c *ControllerRef) SetPositionSelected(selected bool) {
	c.setChannels(selected, c.rotationSelected)
}

// RotationSelected reports whether the rotation channel is selected.
func (c *ControllerRef) RotationSelected() bool { return c.rotationSelected }

// SetRotationSelected selects the rotation channel only.
func (c *ControllerRef) SetRotationSelected(selected bool) {
	c.setChannels(c.positionSelected, selected)
}

func (c *ControllerRef) setChannels(position, rotation bool) {
	if c.positionSelected == position && c.rotationSelected == rotation {
		return
	}
	c.positionSelected, c.rotationSelected = position, rotation
	c.selected = c.Selected()
	c.selection.Emit(SelectionChanged{Ref: c, Selected: c.selected})
}

// Bind attaches the host controller. A nil host detaches it and keeps the
// last transform read from it.
func (c *ControllerRef) Bind(host Controller) {
	if c.host != nil && host == nil {
		c.position, c.rotation = c.host.Position(), c.host.Rotation()
	}
	c.host = host
}

// Bound reports whether a host controller is attached.
func (c *ControllerRef) Bound() bool { return c.host != nil }

// Position returns the live position.
func (c *ControllerRef) Position() types.Vec3 {
	if c.host != nil {
		return c.host.Position()
	}
	return c.position
}

// Rotation returns the live rotation.
func (c *ControllerRef) Rotation() types.Quat {
	if c.host != nil {
		return c.host.Rotation()
	}
	return c.rotation
}

// SetTransform writes position and rotation to the host when bound.
func (c *ControllerRef) SetTransform(p types.Vec3, q types.Quat) {
	if c.host != nil {
		c.host.SetPosition(p)
		c.host.SetRotation(q)
		return
	}
	c.position, c.rotation = p, q
}

func (c *ControllerRef) Record() types.RefRecord {
	rec := c.record()
	rec.Selected = c.Selected()
	rec.PositionSelected = c.positionSelected
	rec.RotationSelected = c.rotationSelected
	return rec
}

func (c *ControllerRef) Restore(rec types.RefRecord) {
	position, rotation := rec.PositionSelected, rec.RotationSelected
	if rec.Selected && !position && !rotation {
		position, rotation = true, true
	}
	c.setChannels(position, rotation)
	c.collapsed = rec.Collapsed
}
