package mapping

import (
	"errors"
	"os"
	"testing"
	"time"

	"github.com/Adicc/macea-mapping/internal/pkg/engine"
	"github.com/Adicc/macea-mapping/internal/pkg/engine/memory"
	"github.com/Adicc/macea-mapping/internal/pkg/mapping/config"
	"github.com/Adicc/macea-mapping/internal/pkg/midi"
	"github.com/Adicc/macea-mapping/internal/pkg/scheduler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	ch1 = "[Channel1]"
	ch2 = "[Channel2]"

	unit1 = "[EffectRack1_EffectUnit1]"

	down = midi.Down
	up   = midi.Off
)

type recorder struct {
	msgs [][3]byte
}

func (r *recorder) SendShortMsg(status, data1, data2 byte) {
	r.msgs = append(r.msgs, [3]byte{status, data1, data2})
}

// last returns the most recent value sent to LED address.
func (r *recorder) last(addr byte) (byte, bool) {
	for i := len(r.msgs) - 1; i >= 0; i-- {
		if r.msgs[i][1] == addr {
			return r.msgs[i][2], true
		}
	}
	return 0, false
}

func (r *recorder) count(addr byte) int {
	var n int
	for _, msg := range r.msgs {
		if msg[1] == addr {
			n++
		}
	}
	return n
}

func (r *recorder) reset() {
	r.msgs = nil
}

type fixture struct {
	t     *testing.T
	e     *memory.Engine
	out   *recorder
	sched *scheduler.Manual
	m     *Mapper
}

func factoryConfig(t *testing.T) config.Config {
	data, err := os.ReadFile("../../../cmd/mixage/mixage-config/factory/reloop_mixage.toml")
	require.Nil(t, err)
	cfg, err := config.ParseData(data, config.FormatTOML)
	require.Nil(t, err)
	return cfg
}

func newFixtureWithConfig(t *testing.T, cfg config.Config) *fixture {
	f := &fixture{
		t:     t,
		e:     memory.New(),
		out:   &recorder{},
		sched: scheduler.NewManual(),
	}
	m, err := New(cfg, f.e, f.out, f.sched, zap.NewNop(), Settings{NoLogs: true})
	require.Nil(t, err)
	f.m = m
	f.m.Init()
	return f
}

func newFixture(t *testing.T) *fixture {
	return newFixtureWithConfig(t, factoryConfig(t))
}

func (f *fixture) invoke(id config.ControlID, value uint8, group string) {
	require.Nil(f.t, f.m.Invoke(id, value, group))
}

func (f *fixture) tap(id config.ControlID, group string) {
	f.invoke(id, down, group)
	f.invoke(id, up, group)
}

func (f *fixture) get(group, key string) float64 {
	return f.e.GetValue(group, key)
}

func (f *fixture) led(addr byte) byte {
	v, ok := f.out.last(addr)
	require.True(f.t, ok, "no message for led 0x%02X", addr)
	return v
}

func (f *fixture) setLoop(group string, start, end float64) {
	f.e.SetValue(group, "loop_start_position", start)
	f.e.SetValue(group, "loop_end_position", end)
}

// modeLEDsMatch checks that at most one mode LED is lit and it agrees with channel mode.
func (f *fixture) modeLEDsMatch(group string, scratchAddr, scrollAddr byte) {
	ch := f.m.Channel(group)
	assert.Equal(f.t, engine.Bool(ch.Mode() == ModeScratch)*127, float64(f.led(scratchAddr)))
	assert.Equal(f.t, engine.Bool(ch.Mode() == ModeScroll)*127, float64(f.led(scrollAddr)))
}

func TestInit(t *testing.T) {
	f := newFixture(t)

	require.True(t, len(f.out.msgs) > 128)
	for i := 0; i < 128; i++ {
		assert.Equal(t, [3]byte{0x90, byte(i), 0}, f.out.msgs[i])
	}

	for unit := 1; unit <= 4; unit++ {
		group := engine.EffectUnitGroup(unit)
		assert.Equal(t, 1.0, f.get(group, "show_focus"), group)
		assert.True(t, f.e.SoftTakeoverEnabled(group, "super1"), group)
	}
	for slot := 1; slot <= 3; slot++ {
		assert.True(t, f.e.SoftTakeoverEnabled(engine.EffectSlotGroup(1, slot), "meta"))
		assert.True(t, f.e.SoftTakeoverEnabled(engine.EffectSlotGroup(2, slot), "meta"))
	}
	assert.True(t, f.e.SoftTakeoverEnabled("[QuickEffectRack1_[Channel1]]", "super1"))
	assert.True(t, f.e.SoftTakeoverEnabled("[QuickEffectRack1_[Channel2]]", "super1"))

	assert.Equal(t, 1, f.e.ConnectionCount(ch1, "play_indicator"))
	assert.Equal(t, 1, f.e.ConnectionCount(ch2, "eject"))
	assert.Equal(t, 1, f.e.ConnectionCount(unit1, "group_[Channel1]_enable"))
	assert.Equal(t, 1, f.e.ConnectionCount(unit1, "group_[Channel2]_enable"))
	assert.Equal(t, 1, f.e.ConnectionCount(unit1, "focused_effect"))

	// second Init is a no-op
	n := f.e.TotalConnections()
	f.m.Init()
	assert.Equal(t, n, f.e.TotalConnections())
}

func TestShutdown(t *testing.T) {
	f := newFixture(t)

	f.setLoop(ch1, 1000, 5000)
	f.invoke(config.BeatLoopPress, down, ch1)
	f.invoke(config.TraxxPress, down, ch1)
	f.invoke(config.DryWetPress, down, ch2)
	f.tap(config.ScratchToggle, ch2)
	f.invoke(config.WheelTouch, down, ch2)
	require.True(t, f.e.Scratch(2).Enabled)
	require.True(t, f.sched.Armed() > 0)

	f.out.reset()
	f.m.Shutdown()

	assert.Equal(t, 0, f.e.TotalConnections())
	assert.Equal(t, 0, f.sched.Armed())
	assert.False(t, f.e.Scratch(2).Enabled)

	require.True(t, len(f.out.msgs) >= 128)
	tail := f.out.msgs[len(f.out.msgs)-128:]
	for i, msg := range tail {
		assert.Equal(t, [3]byte{0x90, byte(i), 0}, msg)
	}

	// pending press timer was cancelled, nothing fires later
	f.sched.Advance(time.Second)
	assert.Equal(t, 0, f.e.Writes(engine.PreviewGroup, "LoadSelectedTrackAndPlay"))

	f.m.Shutdown()
}

func TestNewRejectsBrokenConfig(t *testing.T) {
	cfg := config.Config{
		Options: config.DefaultOptions(),
		Decks:   []config.Deck{{Group: "[Master]"}},
	}
	_, err := New(cfg, memory.New(), &recorder{}, scheduler.NewManual(), nil, Settings{})
	assert.True(t, errors.Is(err, ErrUnknownGroup))

	cfg.Decks = []config.Deck{{
		Group:    ch1,
		Controls: map[config.Binding]config.ControlID{{Status: 0x90, Data1: 1}: "rewind"},
	}}
	_, err = New(cfg, memory.New(), &recorder{}, scheduler.NewManual(), nil, Settings{})
	assert.True(t, errors.Is(err, config.ErrUnknownControl))

	cfg.Decks = []config.Deck{
		{Group: ch1, Controls: map[config.Binding]config.ControlID{{Status: 0x90, Data1: 1}: config.Play}},
		{Group: ch2, Direct: map[config.Binding]config.Direct{{Status: 0x90, Data1: 1}: {Group: ch2, Key: "pfl", Mode: config.DirectToggle}}},
	}
	_, err = New(cfg, memory.New(), &recorder{}, scheduler.NewManual(), nil, Settings{})
	assert.True(t, errors.Is(err, config.ErrDuplicateBinding))
}

func TestInvokeErrors(t *testing.T) {
	f := newFixture(t)
	assert.True(t, errors.Is(f.m.Invoke("rewind", down, ch1), config.ErrUnknownControl))
	assert.True(t, errors.Is(f.m.Invoke(config.Play, down, "[Channel9]"), ErrUnknownGroup))
}

func TestHandleEventDispatch(t *testing.T) {
	f := newFixture(t)

	f.m.HandleEvent(midi.Event{0x90, 0x0C, 0x7F})
	assert.Equal(t, 1.0, f.get(ch1, "play"))
	f.m.HandleEvent(midi.Event{0x80, 0x0C, 0x40})
	assert.Equal(t, 1.0, f.get(ch1, "play"))

	// note-off release makes a tap
	f.m.HandleEvent(midi.Event{0x90, 0x12, 0x7F})
	f.m.HandleEvent(midi.Event{0x80, 0x12, 0x40})
	assert.Equal(t, ModeScratch, f.m.Channel(ch2).Mode())

	f.m.HandleEvent(midi.Event{0xB0, 0x37, 0x41})
	assert.Equal(t, 1.0, f.get(engine.PlaylistGroup, "SelectPlaylist"))
	f.m.HandleEvent(midi.Event{0xB0, 0x27, 0x3E})
	assert.Equal(t, -2.0, f.get(engine.PlaylistGroup, "SelectTrackKnob"))

	before := f.e.Controls()
	f.m.HandleEvent(midi.Event{0x90, 0x7E, 0x7F})
	f.m.HandleEvent(midi.Event{0x90})
	f.m.HandleEvent(nil)
	assert.Equal(t, before, f.e.Controls())
}

func TestDirectBindings(t *testing.T) {
	f := newFixture(t)

	f.m.HandleEvent(midi.Event{0xB0, 0x01, 127})
	assert.Equal(t, 1.0, f.get(ch1, "volume"))
	f.m.HandleEvent(midi.Event{0xB0, 0x11, 0})
	assert.Equal(t, 0.0, f.get(ch2, "volume"))

	for _, tc := range []struct {
		value    byte
		expected float64
	}{
		{0, -1},
		{64, 0},
		{127, 1},
		{32, -0.5},
	} {
		f.m.HandleEvent(midi.Event{0xB0, 0x08, tc.value})
		assert.Equal(t, tc.expected, f.get(engine.MasterGroup, "crossfader"), tc.value)
	}

	f.m.HandleEvent(midi.Event{0xB0, 0x03, 127})
	assert.Equal(t, 1.0, f.get("[EqualizerRack1_[Channel1]_Effect1]", "parameter3"))

	// toggle flips on press only
	f.m.HandleEvent(midi.Event{0x90, 0x0E, 0x7F})
	f.m.HandleEvent(midi.Event{0x80, 0x0E, 0x00})
	assert.Equal(t, 1.0, f.get(ch1, "pfl"))
	assert.Equal(t, byte(0x7F), f.led(0x0E))
	f.m.HandleEvent(midi.Event{0x90, 0x0E, 0x7F})
	assert.Equal(t, 0.0, f.get(ch1, "pfl"))
	assert.Equal(t, byte(0x00), f.led(0x0E))

	// button follows press and release
	f.m.HandleEvent(midi.Event{0x90, 0x0A, 0x7F})
	assert.Equal(t, 1.0, f.get(ch1, "cue_default"))
	f.m.HandleEvent(midi.Event{0x90, 0x0A, 0x00})
	assert.Equal(t, 0.0, f.get(ch1, "cue_default"))
}

func TestLEDMirrors(t *testing.T) {
	f := newFixture(t)
	f.out.reset()

	f.e.SetValue(ch1, "play_indicator", 1)
	assert.Equal(t, byte(0x7F), f.led(0x0C))
	assert.Equal(t, byte(0x7F), f.led(0x0D))

	f.e.SetValue(ch2, "cue_indicator", 1)
	assert.Equal(t, byte(0x7F), f.led(0x18))
	f.e.SetValue(ch2, "cue_indicator", 0)
	assert.Equal(t, byte(0x00), f.led(0x18))

	f.e.SetValue(ch1, "sync_enabled", 1)
	assert.Equal(t, byte(0x7F), f.led(0x09))

	f.e.SetValue(ch1, "vu_meter", 0.5)
	assert.Equal(t, byte(3), f.led(0x1D))
	f.e.SetValue(ch2, "vu_meter", 1)
	assert.Equal(t, byte(7), f.led(0x1E))
}

func TestSnapshot(t *testing.T) {
	f := newFixture(t)
	f.tap(config.ScrollToggle, ch2)
	f.invoke(config.WheelTouch, down, ch2)

	states := f.m.Snapshot()
	require.Len(t, states, 2)
	assert.Equal(t, DeckState{Group: ch1}, states[0])
	assert.Equal(t, DeckState{Group: ch2, Mode: ModeScroll, WheelTouched: true}, states[1])
	assert.Equal(t, "Reloop Mixage", f.m.Name())
}
