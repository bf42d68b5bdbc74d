package mapping

import (
	"fmt"

	"github.com/Adicc/macea-mapping/internal/pkg/logger"
	"github.com/Adicc/macea-mapping/internal/pkg/midi"
)

const adjustBlinkPeriod = IndicatorPeriod

func isDown(value uint8) bool {
	return value != midi.Off
}

// startLoopAdjust enters loop adjust mode or changes adjusted bounds, leaving scratch and scroll modes.
func (ch *Channel) startLoopAdjust(bound Bound) {
	prev := ch.LoopAdjust()
	prevMode := ch.mode
	ch.stopScratching()
	ch.mode = ModeLoopAdjust
	ch.adjust = bound

	if bound.In() {
		ch.blinkLED(ledLoop, adjustBlinkPeriod)
	} else if prev.In() {
		ch.blinkLED(ledLoop, 0)
		ch.setLED(ledLoop, true)
	}
	if bound.Out() {
		ch.blinkLED(ledReloop, adjustBlinkPeriod)
	} else if prev.Out() {
		ch.blinkLED(ledReloop, 0)
		ch.setLED(ledReloop, true)
	}

	if prevMode == ModeScratch || prevMode == ModeScroll {
		ch.updateModeLEDs()
	}
	ch.m.logAction(ch, fmt.Sprintf("loop adjust (%s)", bound))
}

// stopLoopAdjust leaves loop adjust mode and re-evaluates every LED it touched.
// It is safe to call when the mode is not active.
func (ch *Channel) stopLoopAdjust() {
	wasActive := ch.mode == ModeLoopAdjust
	ch.blinkLED(ledLoop, 0)
	ch.blinkLED(ledReloop, 0)
	if wasActive {
		ch.mode = ModeNone
		ch.adjust = 0
	}
	ch.updateModeLEDs()
	ch.updateReloopLED()
	if wasActive {
		ch.m.logAction(ch, "loop adjust off")
	}
}

// selectLoopIn handles loop-in side buttons in loop adjust mode: pressing while out is adjusted switches to in,
// pressing again adjusts both bounds.
func (ch *Channel) selectLoopIn() {
	switch {
	case ch.adjust.Out():
		ch.startLoopAdjust(AdjustIn)
	case ch.adjust.In():
		ch.startLoopAdjust(AdjustBoth)
	}
}

func (ch *Channel) selectLoopOut() {
	switch {
	case ch.adjust.In():
		ch.startLoopAdjust(AdjustOut)
	case ch.adjust.Out():
		ch.startLoopAdjust(AdjustBoth)
	}
}

func (ch *Channel) passButton(key string, value uint8) {
	if isDown(value) {
		ch.set(key, 1)
	} else {
		ch.set(key, 0)
	}
}

func handleLoop(ch *Channel, value uint8) {
	if ch.mode == ModeLoopAdjust {
		if isDown(value) {
			ch.selectLoopIn()
		}
		return
	}
	ch.passButton("beatloop_activate", value)
}

func handleLoopIn(ch *Channel, value uint8) {
	if ch.mode == ModeLoopAdjust {
		if isDown(value) {
			ch.selectLoopIn()
		}
		return
	}
	ch.passButton("loop_in", value)
}

func handleReloop(ch *Channel, value uint8) {
	if ch.mode == ModeLoopAdjust {
		if isDown(value) {
			ch.selectLoopOut()
		}
		return
	}
	ch.passButton("reloop_toggle", value)
}

func handleLoopOut(ch *Channel, value uint8) {
	if ch.mode == ModeLoopAdjust {
		if isDown(value) {
			ch.selectLoopOut()
		}
		return
	}
	ch.passButton("loop_out", value)
}

// clearLoop removes both loop bounds, end first so start never exceeds it.
func (ch *Channel) clearLoop() {
	ch.set("loop_end_position", -1)
	ch.set("loop_start_position", -1)
	ch.updateReloopLED()
	ch.m.logAction(ch, "loop cleared")
}

func handleClearLoop(ch *Channel, value uint8) {
	if !isDown(value) {
		return
	}
	ch.stopLoopAdjust()
	ch.clearLoop()
}

// handleBeatLoopPress toggles loop adjust mode, entering needs a loop with both bounds.
func handleBeatLoopPress(ch *Channel, value uint8) {
	if !isDown(value) {
		return
	}
	if ch.mode == ModeLoopAdjust {
		ch.stopLoopAdjust()
		return
	}
	if ch.get("loop_start_position") != -1 && ch.get("loop_end_position") != -1 {
		ch.startLoopAdjust(AdjustBoth)
		return
	}
	if !ch.m.noLogs {
		ch.m.log.Info("loop adjust needs both loop bounds", ch.m.logFields(ch, logger.Debug)...)
	}
}

func handleLoopLengthPress(ch *Channel, value uint8) {
	if isDown(value) {
		ch.loopLengthPressed = true
		ch.loopLength.arm(ch.m.sched, ch.m.pressWindow, nil)
		return
	}
	ch.loopLengthPressed = false
	if ch.loopLength.release(ch.m.sched) {
		ch.stopLoopAdjust()
		ch.clearLoop()
	}
}

// handleLoopLength changes beat jump size while its button is held, loop size otherwise.
func handleLoopLength(ch *Channel, value uint8) {
	diff := int(value) - 64
	if diff == 0 {
		return
	}
	if ch.loopLengthPressed {
		size := ch.get("beatjump_size")
		if diff > 0 {
			ch.set("beatjump_size", size*2)
		} else {
			ch.set("beatjump_size", size/2)
		}
		ch.m.logAction(ch, fmt.Sprintf("beat jump size %g", ch.get("beatjump_size")))
		return
	}
	if diff > 0 {
		ch.set("loop_double", 1)
		ch.set("loop_double", 0)
	} else {
		ch.set("loop_halve", 1)
		ch.set("loop_halve", 0)
	}
}

func handleBeatMove(ch *Channel, value uint8) {
	diff := int(value) - 64
	if diff == 0 {
		return
	}
	ch.set("beatjump", float64(diff)*ch.get("beatjump_size"))
}

// onEject resets loop indication of a stopped deck.
func (ch *Channel) onEject() {
	if ch.get("play") != 0 {
		return
	}
	if ch.mode == ModeLoopAdjust {
		ch.stopLoopAdjust()
		return
	}
	ch.blinkLED(ledReloop, 0)
	ch.setLED(ledLoop, false)
}
