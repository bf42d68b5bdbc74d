package mapping

import (
	"time"

	"github.com/Adicc/macea-mapping/internal/pkg/engine"
	"github.com/Adicc/macea-mapping/internal/pkg/scheduler"
)

// Mode is the jog wheel interpretation of a channel, at most one is active at a time.
type Mode int

const (
	ModeNone Mode = iota
	ModeScratch
	ModeScroll
	ModeLoopAdjust
)

func (m Mode) String() string {
	switch m {
	case ModeScratch:
		return "scratch"
	case ModeScroll:
		return "scroll"
	case ModeLoopAdjust:
		return "loop adjust"
	}
	return "jog"
}

// Bound selects loop boundaries moved by the wheel in loop adjust mode.
type Bound uint8

const (
	AdjustIn Bound = 1 << iota
	AdjustOut

	AdjustBoth = AdjustIn | AdjustOut
)

func (b Bound) In() bool {
	return b&AdjustIn != 0
}

func (b Bound) Out() bool {
	return b&AdjustOut != 0
}

func (b Bound) String() string {
	switch b {
	case AdjustIn:
		return "in"
	case AdjustOut:
		return "out"
	case AdjustBoth:
		return "both"
	}
	return "-"
}

// press classifies a button press as a tap or a hold using one-shot timer armed on press.
type press struct {
	timer scheduler.TimerID
}

func (p *press) pending() bool {
	return p.timer != scheduler.NotArmed
}

// arm starts the hold window, onExpire is called when it elapses without release.
func (p *press) arm(s scheduler.Scheduler, window time.Duration, onExpire func()) {
	p.cancel(s)
	var id scheduler.TimerID
	id = s.BeginTimer(window, func() {
		if p.timer == id {
			p.timer = scheduler.NotArmed
		}
		if onExpire != nil {
			onExpire()
		}
	}, true)
	p.timer = id
}

// release reports whether the press ended inside the hold window (a tap).
func (p *press) release(s scheduler.Scheduler) bool {
	if !p.pending() {
		return false
	}
	p.cancel(s)
	return true
}

func (p *press) cancel(s scheduler.Scheduler) {
	if p.timer == scheduler.NotArmed {
		return
	}
	s.StopTimer(p.timer)
	p.timer = scheduler.NotArmed
}

// Channel holds per-deck state, it is the context every control handler operates on.
type Channel struct {
	m     *Mapper
	group string
	deck  int
	unit  int
	leds  map[string]byte

	mode   Mode
	adjust Bound // valid in ModeLoopAdjust only

	wheelTouched      bool
	scratching        bool // host scratch is enabled for the deck
	scratchPressed    bool
	dryWetPressed     bool
	loopLengthPressed bool

	traxx      press
	dryWet     press
	scratch    press
	loopLength press

	blinks      map[byte]*blink
	connections []engine.Connection
}

func newChannel(m *Mapper, group string, leds map[string]byte) *Channel {
	deck := engine.DeckFromGroup(group)
	unit := deck
	if units := m.cfg.Options.EffectUnits; units > 0 {
		unit = (deck-1)%units + 1
	}
	return &Channel{
		m:      m,
		group:  group,
		deck:   deck,
		unit:   unit,
		leds:   leds,
		blinks: make(map[byte]*blink),
	}
}

func (ch *Channel) Group() string {
	return ch.group
}

func (ch *Channel) Mode() Mode {
	return ch.mode
}

// LoopAdjust returns adjusted bounds, zero when loop adjust mode is not active.
func (ch *Channel) LoopAdjust() Bound {
	if ch.mode != ModeLoopAdjust {
		return 0
	}
	return ch.adjust
}

func (ch *Channel) unitGroup() string {
	return engine.EffectUnitGroup(ch.unit)
}

func (ch *Channel) get(key string) float64 {
	return ch.m.engine.GetValue(ch.group, key)
}

func (ch *Channel) set(key string, value float64) {
	ch.m.engine.SetValue(ch.group, key, value)
}

func (ch *Channel) connect(group, key string, callback engine.Callback) engine.Connection {
	c := ch.m.engine.MakeConnection(group, key, callback)
	ch.connections = append(ch.connections, c)
	return c
}

func (ch *Channel) shutdown() {
	for _, c := range ch.connections {
		c.Disconnect()
	}
	ch.connections = nil
	for addr, b := range ch.blinks {
		b.conn.Disconnect()
		delete(ch.blinks, addr)
	}
	s := ch.m.sched
	ch.traxx.cancel(s)
	ch.dryWet.cancel(s)
	ch.scratch.cancel(s)
	ch.loopLength.cancel(s)
	if ch.scratching {
		ch.m.engine.ScratchDisable(ch.deck)
		ch.scratching = false
	}
}

// DeckState is a point-in-time copy of channel state.
type DeckState struct {
	Group             string
	Mode              Mode
	Adjust            Bound
	WheelTouched      bool
	Scratching        bool
	ScratchPressed    bool
	DryWetPressed     bool
	LoopLengthPressed bool
	Blinking          int
}

func (ch *Channel) state() DeckState {
	return DeckState{
		Group:             ch.group,
		Mode:              ch.mode,
		Adjust:            ch.LoopAdjust(),
		WheelTouched:      ch.wheelTouched,
		Scratching:        ch.scratching,
		ScratchPressed:    ch.scratchPressed,
		DryWetPressed:     ch.dryWetPressed,
		LoopLengthPressed: ch.loopLengthPressed,
		Blinking:          len(ch.blinks),
	}
}
