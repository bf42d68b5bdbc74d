package mapping

const (
	adjustStep        = 33
	adjustStepTouched = 100

	scrollStep        = 0.000066
	scrollStepTouched = 0.00020
)

// stopScratching releases a scratch engaged by wheel touch, the wheel stays touched.
func (ch *Channel) stopScratching() {
	if !ch.scratching {
		return
	}
	ch.m.engine.ScratchDisable(ch.deck)
	ch.scratching = false
}

func (ch *Channel) scratchToggle() {
	ch.stopLoopAdjust()
	if ch.mode == ModeScratch {
		ch.stopScratching()
		ch.mode = ModeNone
	} else {
		ch.mode = ModeScratch
	}
	ch.updateModeLEDs()
	ch.m.logAction(ch, "jog mode: "+ch.mode.String())
}

func (ch *Channel) scrollToggle() {
	ch.stopLoopAdjust()
	ch.stopScratching()
	if ch.mode == ModeScroll {
		ch.mode = ModeNone
	} else {
		ch.mode = ModeScroll
	}
	ch.updateModeLEDs()
	ch.m.logAction(ch, "jog mode: "+ch.mode.String())
}

// handleScratchToggle toggles scratch mode on tap, holding the button modifies play instead.
func handleScratchToggle(ch *Channel, value uint8) {
	if isDown(value) {
		ch.scratchPressed = true
		ch.scratch.arm(ch.m.sched, ch.m.pressWindow, nil)
		return
	}
	ch.scratchPressed = false
	if ch.scratch.release(ch.m.sched) {
		ch.scratchToggle()
	}
}

func handleScrollToggle(ch *Channel, value uint8) {
	if isDown(value) {
		ch.scrollToggle()
	}
}

func handleWheelTouch(ch *Channel, value uint8) {
	ch.wheelTouched = isDown(value)
	opts := ch.m.cfg.Options

	if ch.wheelTouched {
		if ch.mode == ModeScratch || (opts.ScratchByWheelTouch && ch.mode == ModeNone) {
			ch.m.engine.ScratchEnable(ch.deck, opts.ScratchTicksPerRevolution, opts.ScratchRPM, opts.ScratchAlpha, opts.ScratchBeta)
			ch.scratching = true
		}
		return
	}
	ch.stopScratching()
}

// handleWheelTurn interprets relative wheel movement according to the active mode.
func handleWheelTurn(ch *Channel, value uint8) {
	diff := int(value) - 64
	if diff == 0 {
		return
	}

	switch {
	case ch.mode == ModeLoopAdjust:
		ch.nudgeLoop(diff)
	case ch.mode == ModeScroll:
		step := scrollStep
		if ch.wheelTouched {
			step = scrollStepTouched
		}
		speed := ch.m.cfg.Options.JogWheelScrollSpeed
		ch.set("playposition", ch.get("playposition")+step*float64(diff)*speed)
	case ch.scratching:
		ch.m.engine.ScratchTick(ch.deck, diff)
	case ch.wheelTouched:
		// touched wheel without scratch does nothing
	default:
		ch.set("jog", float64(diff))
	}
}

// nudgeLoop moves adjusted loop bounds by diff steps, a move that would cross the other bound is rejected.
func (ch *Channel) nudgeLoop(diff int) {
	step := adjustStep
	if ch.wheelTouched {
		step = adjustStepTouched
	}
	delta := float64(diff * step)

	if ch.adjust.In() {
		start := ch.get("loop_start_position") + delta
		if start < ch.get("loop_end_position") {
			ch.set("loop_start_position", start)
		}
	}
	if ch.adjust.Out() {
		end := ch.get("loop_end_position") + delta
		if end > ch.get("loop_start_position") {
			ch.set("loop_end_position", end)
		}
	}
}
