package refs

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mesh-intelligence/timeline/pkg/types"
)

type fakeParam struct{ v float64 }

func (f *fakeParam) Value() float64     { return f.v }
func (f *fakeParam) SetValue(v float64) { f.v = v }

type fakeController struct {
	p types.Vec3
	q types.Quat
}

func (f *fakeController) Position() types.Vec3     { return f.p }
func (f *fakeController) Rotation() types.Quat     { return f.q }
func (f *fakeController) SetPosition(p types.Vec3) { f.p = p }
func (f *fakeController) SetRotation(q types.Quat) { f.q = q }

func TestParamRef_ClampAndHost(t *testing.T) {
	p := newParamRef(ParamKey("atom", "geometry", "morph"), WithBounds(-1, 1))

	p.SetValue(3)
	assert.Equal(t, 1.0, p.Value())

	host := &fakeParam{v: 0.25}
	p.Bind(host)
	assert.True(t, p.Bound())
	assert.Equal(t, 0.25, p.Value())

	p.SetValue(-4)
	assert.Equal(t, -1.0, host.v)

	host.v = 0.5
	p.Bind(nil)
	assert.False(t, p.Bound())
	assert.Equal(t, 0.5, p.Value())
}

func TestParamRef_OpenBounds(t *testing.T) {
	p := newParamRef(ParamKey("a", "b", "c"), WithMin(0))
	assert.Equal(t, 0.0, p.Clamp(-2))
	assert.Equal(t, 100.0, p.Clamp(100))

	min, max := p.Bounds()
	assert.NotNil(t, min)
	assert.Nil(t, max)
}

func TestRef_Names(t *testing.T) {
	tests := []struct {
		name      string
		ref       Ref
		short     string
		long      string
		kind      Kind
		keyString string
	}{
		{"param", newParamRef(ParamKey("atom", "geometry", "morph")), "morph", "atom geometry.morph", KindParam, "param:atom/geometry/morph"},
		{"controller", newControllerRef(ControllerKey("hand")), "hand", "controller hand", KindController, "controller:hand"},
		{"trigger", newTriggerRef(TriggerKey("main", "footstep")), "footstep", "main footstep", KindTrigger, "trigger:main/footstep"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.short, tt.ref.ShortName())
			assert.Equal(t, tt.long, tt.ref.LongName())
			assert.Equal(t, tt.kind, tt.ref.Kind())
			assert.Equal(t, tt.keyString, tt.ref.Key().String())
		})
	}
}

func TestControllerRef_ChannelSelection(t *testing.T) {
	c := newControllerRef(ControllerKey("hand"))
	var got []bool
	c.SelectionChanged().Subscribe(func(ev SelectionChanged) { got = append(got, ev.Selected) })

	c.SetPositionSelected(true)
	assert.True(t, c.Selected())
	assert.False(t, c.RotationSelected())

	c.SetRotationSelected(true)
	c.SetSelected(false)
	assert.False(t, c.PositionSelected())
	assert.False(t, c.RotationSelected())

	c.SetSelected(false)
	assert.Equal(t, []bool{true, true, false}, got)
}

func TestControllerRef_Transform(t *testing.T) {
	c := newControllerRef(ControllerKey("hand"))
	assert.Equal(t, types.IdentityQuat, c.Rotation())

	c.SetTransform(types.Vec3{X: 1}, types.Quat{Y: 1})
	assert.Equal(t, types.Vec3{X: 1}, c.Position())

	host := &fakeController{q: types.IdentityQuat}
	c.Bind(host)
	c.SetTransform(types.Vec3{Z: 2}, types.Quat{X: 1})
	assert.Equal(t, types.Vec3{Z: 2}, host.p)
	assert.Equal(t, types.Quat{X: 1}, c.Rotation())
}

func TestRef_UsersNeverNegative(t *testing.T) {
	tr := newTriggerRef(TriggerKey("main", "x"))
	tr.Release()
	assert.Equal(t, 0, tr.Users())
	tr.Acquire()
	tr.Acquire()
	tr.Release()
	assert.Equal(t, 1, tr.Users())
}
