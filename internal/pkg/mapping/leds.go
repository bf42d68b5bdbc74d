package mapping

import (
	"math"
	"time"

	"github.com/Adicc/macea-mapping/internal/pkg/engine"
	"github.com/Adicc/macea-mapping/internal/pkg/midi"
)

// IndicatorPeriod is the interval of the host indicator tick blinking is synchronized to.
const IndicatorPeriod = 250 * time.Millisecond

const (
	ledCueIndicator  = "cue_indicator"
	ledCueDefault    = "cue_default"
	ledPlayIndicator = "play_indicator"
	ledLoadIndicator = "load_indicator"
	ledPfl           = "pfl"
	ledLoop          = "loop"
	ledReloop        = "reloop"
	ledSync          = "sync_enabled"
	ledFxOn          = "fx_on"
	ledFxSel         = "fx_sel"
	ledScratch       = "scratch_active"
	ledScroll        = "scroll_active"
	ledVuMeter       = "vu_meter"
)

type blink struct {
	cycles  int
	counter int
	lit     bool
	conn    engine.Connection
}

func (ch *Channel) send(addr, value byte) {
	ch.m.out.SendShortMsg(ch.m.cfg.Options.LEDStatus, addr, value)
}

// setLED writes logical LED state, LEDs missing in the mapping are skipped.
func (ch *Channel) setLED(name string, on bool) {
	addr, ok := ch.leds[name]
	if !ok {
		return
	}
	if on {
		ch.send(addr, midi.On)
	} else {
		ch.send(addr, midi.Off)
	}
}

// blinkLED makes LED blink with given period, toggling on indicator ticks.
// Calling it again restarts the blink, period <= 0 stops it. The LED goes dark in both cases.
func (ch *Channel) blinkLED(name string, period time.Duration) {
	addr, ok := ch.leds[name]
	if !ok {
		return
	}

	if b, ok := ch.blinks[addr]; ok {
		b.conn.Disconnect()
		delete(ch.blinks, addr)
	}
	ch.send(addr, midi.Off)

	if period <= 0 {
		return
	}

	cycles := int(math.Round(float64(period) / float64(IndicatorPeriod)))
	if cycles < 1 {
		cycles = 1
	}
	b := &blink{cycles: cycles}
	b.conn = ch.m.engine.MakeConnection(engine.AppGroup, engine.Indicator250ms, func(float64, string, string) {
		b.counter++
		if b.counter < b.cycles {
			return
		}
		b.counter = 0
		b.lit = !b.lit
		if b.lit {
			ch.send(addr, midi.On)
		} else {
			ch.send(addr, midi.Off)
		}
	})
	ch.blinks[addr] = b
}

func (ch *Channel) blinking(name string) bool {
	addr, ok := ch.leds[name]
	if !ok {
		return false
	}
	_, ok = ch.blinks[addr]
	return ok
}

// updateReloopLED mirrors loop state: a disabled loop with both bounds blinks reloop,
// an enabled loop lights both loop LEDs according to its bounds. Loop adjust mode owns these LEDs while active.
func (ch *Channel) updateReloopLED() {
	if ch.mode == ModeLoopAdjust {
		return
	}
	if ch.get("loop_enabled") == 0 {
		ch.setLED(ledLoop, false)
		ch.setLED(ledReloop, false)
		if ch.get("loop_start_position") != -1 && ch.get("loop_end_position") != -1 {
			ch.blinkLED(ledReloop, 4*IndicatorPeriod)
		} else {
			ch.blinkLED(ledReloop, 0)
		}
		return
	}
	ch.blinkLED(ledReloop, 0)
	ch.updateLoopLEDs()
}

func (ch *Channel) updateLoopLEDs() {
	if ch.mode == ModeLoopAdjust {
		return
	}
	ch.setLED(ledLoop, ch.get("loop_start_position") != -1)
	ch.setLED(ledReloop, ch.get("loop_end_position") != -1)
}

// updateFxOnLED lights fx LED when the channel is routed through any effect unit.
func (ch *Channel) updateFxOnLED() {
	on := false
	for unit := 1; unit <= ch.m.cfg.Options.EffectUnits; unit++ {
		if ch.m.engine.GetValue(engine.EffectUnitGroup(unit), engine.UnitEnableKey(ch.group)) != 0 {
			on = true
			break
		}
	}
	ch.setLED(ledFxOn, on)
}

func (ch *Channel) updateModeLEDs() {
	ch.setLED(ledScratch, ch.mode == ModeScratch)
	ch.setLED(ledScroll, ch.mode == ModeScroll)
}

func (ch *Channel) connectLEDs() {
	mirror := func(key string, leds ...string) {
		ch.connect(ch.group, key, func(value float64, _, _ string) {
			for _, led := range leds {
				ch.setLED(led, value != 0)
			}
		}).Trigger()
	}
	mirror("cue_indicator", ledCueIndicator)
	mirror("cue_default", ledCueDefault)
	mirror("play_indicator", ledPlayIndicator, ledLoadIndicator)
	mirror("pfl", ledPfl)
	mirror("sync_enabled", ledSync)

	ch.connect(ch.group, "loop_enabled", func(float64, string, string) { ch.updateReloopLED() })
	ch.connect(ch.group, "track_loaded", func(float64, string, string) { ch.updateReloopLED() })
	for _, key := range []string{"loop_in", "loop_out"} {
		ch.connect(ch.group, key, func(value float64, _, _ string) {
			if value == 1 {
				ch.updateLoopLEDs()
			}
		})
	}
	ch.connect(ch.group, "eject", func(float64, string, string) { ch.onEject() })

	if addr, ok := ch.leds[ledVuMeter]; ok {
		ch.connect(ch.group, "vu_meter", func(value float64, _, _ string) {
			ch.send(addr, byte(math.Max(0, math.Min(127, value*7))))
		})
	}

	for unit := 1; unit <= ch.m.cfg.Options.EffectUnits; unit++ {
		ch.connect(engine.EffectUnitGroup(unit), engine.UnitEnableKey(ch.group), func(float64, string, string) {
			ch.updateFxOnLED()
		})
	}
	ch.connect(ch.unitGroup(), "focused_effect", func(value float64, _, _ string) {
		ch.onFocusedEffect(int(value))
	}).Trigger()
	ch.updateFxOnLED()
}
