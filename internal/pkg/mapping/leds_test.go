package mapping

import (
	"testing"
	"time"

	"github.com/Adicc/macea-mapping/internal/pkg/scheduler"
	"github.com/stretchr/testify/assert"
)

func TestBlinkCycles(t *testing.T) {
	f := newFixture(t)
	ch := f.m.Channel(ch1)

	ch.blinkLED(ledReloop, time.Second)
	assert.Equal(t, byte(0x00), f.led(reloopLED1))
	f.out.reset()

	for i := 0; i < 3; i++ {
		f.e.Tick()
	}
	assert.Equal(t, 0, f.out.count(reloopLED1))
	f.e.Tick()
	assert.Equal(t, byte(0x7F), f.led(reloopLED1))
	for i := 0; i < 4; i++ {
		f.e.Tick()
	}
	assert.Equal(t, byte(0x00), f.led(reloopLED1))
	assert.Equal(t, 2, f.out.count(reloopLED1))

	// retrigger restarts counting from a dark LED
	f.e.Tick()
	f.e.Tick()
	ch.blinkLED(ledReloop, 500*time.Millisecond)
	assert.Equal(t, byte(0x00), f.led(reloopLED1))
	f.out.reset()
	f.e.Tick()
	assert.Equal(t, 0, f.out.count(reloopLED1))
	f.e.Tick()
	assert.Equal(t, byte(0x7F), f.led(reloopLED1))
	assert.Equal(t, 1, f.e.ConnectionCount("[App]", "indicator_250ms"))

	// cancel forces the LED off and drops the subscription
	ch.blinkLED(ledReloop, 0)
	assert.Equal(t, byte(0x00), f.led(reloopLED1))
	assert.False(t, ch.blinking(ledReloop))
	assert.Equal(t, 0, f.e.ConnectionCount("[App]", "indicator_250ms"))

	// cancel without blink still darkens the LED
	f.out.reset()
	ch.blinkLED(ledLoop, 0)
	assert.Equal(t, [][3]byte{{0x90, loopLED1, 0x00}}, f.out.msgs)
}

func TestBlinkShortPeriod(t *testing.T) {
	f := newFixture(t)
	ch := f.m.Channel(ch2)

	ch.blinkLED(ledScratch, 100*time.Millisecond)
	f.out.reset()
	f.e.Tick()
	f.e.Tick()
	assert.Equal(t, [][3]byte{{0x90, 0x12, 0x7F}, {0x90, 0x12, 0x00}}, f.out.msgs)
}

func TestBlinksAreIndependentPerDeck(t *testing.T) {
	f := newFixture(t)
	f.m.Channel(ch1).blinkLED(ledReloop, time.Second)
	f.m.Channel(ch2).blinkLED(ledReloop, time.Second)
	f.m.Channel(ch1).blinkLED(ledReloop, 0)

	assert.False(t, f.m.Channel(ch1).blinking(ledReloop))
	assert.True(t, f.m.Channel(ch2).blinking(ledReloop))
}

func TestReloopLED(t *testing.T) {
	f := newFixture(t)
	ch := f.m.Channel(ch1)

	f.setLoop(ch1, 1000, 5000)
	f.e.SetValue(ch1, "loop_enabled", 1)
	assert.False(t, ch.blinking(ledReloop))
	assert.Equal(t, byte(0x7F), f.led(loopLED1))
	assert.Equal(t, byte(0x7F), f.led(reloopLED1))

	f.e.SetValue(ch1, "loop_enabled", 0)
	assert.True(t, ch.blinking(ledReloop))
	assert.Equal(t, byte(0x00), f.led(loopLED1))

	// a new track without loop stops blinking
	f.setLoop(ch1, -1, -1)
	f.e.SetValue(ch1, "track_loaded", 1)
	assert.False(t, ch.blinking(ledReloop))
	assert.Equal(t, byte(0x00), f.led(reloopLED1))
}

func TestLoopInOutLightLEDs(t *testing.T) {
	f := newFixture(t)

	f.e.SetValue(ch1, "loop_start_position", 1000)
	f.e.SetValue(ch1, "loop_in", 1)
	assert.Equal(t, byte(0x7F), f.led(loopLED1))
	assert.Equal(t, byte(0x00), f.led(reloopLED1))

	f.e.SetValue(ch1, "loop_end_position", 3000)
	f.e.SetValue(ch1, "loop_out", 1)
	assert.Equal(t, byte(0x7F), f.led(reloopLED1))
}

func TestPressClassification(t *testing.T) {
	s := scheduler.NewManual()
	var p press
	var expired int

	p.arm(s, 400*time.Millisecond, func() { expired++ })
	assert.True(t, p.pending())
	s.Advance(100 * time.Millisecond)
	assert.True(t, p.release(s))
	assert.False(t, p.pending())
	assert.False(t, p.release(s))
	s.Advance(time.Second)
	assert.Equal(t, 0, expired)

	p.arm(s, 400*time.Millisecond, func() { expired++ })
	s.Advance(400 * time.Millisecond)
	assert.Equal(t, 1, expired)
	assert.False(t, p.pending())
	assert.False(t, p.release(s))

	// re-arming replaces the pending timer
	p.arm(s, 400*time.Millisecond, func() { expired++ })
	s.Advance(300 * time.Millisecond)
	p.arm(s, 400*time.Millisecond, nil)
	s.Advance(300 * time.Millisecond)
	assert.True(t, p.pending())
	assert.Equal(t, 1, expired)
	p.cancel(s)
	assert.Equal(t, 0, s.Armed())
}
