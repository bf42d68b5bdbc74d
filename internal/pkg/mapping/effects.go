package mapping

import (
	"fmt"
	"math"

	"github.com/Adicc/macea-mapping/internal/pkg/engine"
)

func (ch *Channel) focusedEffect() int {
	return int(ch.m.engine.GetValue(ch.unitGroup(), "focused_effect"))
}

// slotMemory returns remembered enable pattern of unit slots, all enabled until first mute.
func (m *Mapper) slotMemory(unitGroup string) []bool {
	mem, ok := m.effectSlots[unitGroup]
	if !ok {
		mem = make([]bool, m.cfg.Options.EffectSlots)
		for i := range mem {
			mem[i] = true
		}
		m.effectSlots[unitGroup] = mem
	}
	return mem
}

// toggleEffects mutes every slot of the deck unit remembering the pattern, or restores it when all are muted.
// With a focused slot only that slot is toggled.
func (ch *Channel) toggleEffects() {
	unit := ch.unitGroup()
	focused := ch.focusedEffect()
	e := ch.m.engine

	if focused != 0 {
		engine.ToggleControl(e, engine.EffectSlotGroup(ch.unit, focused), "enabled")
		return
	}

	slots := ch.m.cfg.Options.EffectSlots
	var enabled = make([]bool, slots)
	anyEnabled := false
	for i := 0; i < slots; i++ {
		enabled[i] = e.GetValue(engine.EffectSlotGroup(ch.unit, i+1), "enabled") != 0
		anyEnabled = anyEnabled || enabled[i]
	}

	mem := ch.m.slotMemory(unit)
	if anyEnabled {
		copy(mem, enabled)
		for i := 0; i < slots; i++ {
			e.SetValue(engine.EffectSlotGroup(ch.unit, i+1), "enabled", 0)
		}
		ch.m.logAction(ch, fmt.Sprintf("%s muted", unit))
		return
	}
	for i := 0; i < slots; i++ {
		e.SetValue(engine.EffectSlotGroup(ch.unit, i+1), "enabled", engine.Bool(mem[i]))
	}
	ch.m.logAction(ch, fmt.Sprintf("%s restored", unit))
}

// handleDryWetPress mutes/restores effects on tap, holding it makes the dry/wet knob select chain presets.
func handleDryWetPress(ch *Channel, value uint8) {
	if isDown(value) {
		ch.dryWetPressed = true
		ch.dryWet.arm(ch.m.sched, ch.m.pressWindow, nil)
		return
	}
	ch.dryWetPressed = false
	if ch.dryWet.release(ch.m.sched) {
		ch.toggleEffects()
	}
}

func handleEffectDryWet(ch *Channel, value uint8) {
	diff := int(value) - 64
	if diff == 0 {
		return
	}
	e := ch.m.engine
	unit := ch.unitGroup()

	if ch.dryWetPressed {
		e.SetValue(unit, "chain_preset_selector", float64(diff))
		return
	}
	focused := ch.focusedEffect()
	if focused == 0 {
		mix := e.GetValue(unit, "mix") + float64(diff)/16
		e.SetValue(unit, "mix", math.Max(0, math.Min(1, mix)))
		return
	}
	e.SetValue(engine.EffectSlotGroup(ch.unit, focused), "effect_selector", float64(diff))
}

func handleFxAmount(ch *Channel, value uint8) {
	v := float64(value) / 127
	focused := ch.focusedEffect()
	if focused == 0 {
		ch.m.engine.SetValue(ch.unitGroup(), "super1", v)
		return
	}
	ch.m.engine.SetValue(engine.EffectSlotGroup(ch.unit, focused), "meta", v)
}

// handleNextEffect focuses the next slot, wrapping to the unit itself after the last one.
func handleNextEffect(ch *Channel, value uint8) {
	if !isDown(value) {
		return
	}
	e := ch.m.engine
	unit := ch.unitGroup()
	slots := ch.m.cfg.Options.EffectSlots

	focused := ch.focusedEffect()
	if focused >= slots {
		for i := 1; i <= slots; i++ {
			e.SoftTakeoverIgnoreNextValue(engine.EffectSlotGroup(ch.unit, i), "meta")
		}
		e.SoftTakeoverIgnoreNextValue(unit, "super1")
		e.SetValue(unit, "focused_effect", 0)
		return
	}
	e.SetValue(unit, "focused_effect", float64(focused+1))
}

// handleFxPress routes the channel through its effect unit, or out of every unit when it is routed anywhere.
func handleFxPress(ch *Channel, value uint8) {
	if !isDown(value) {
		return
	}
	e := ch.m.engine
	key := engine.UnitEnableKey(ch.group)

	anyEnabled := false
	for unit := 1; unit <= ch.m.cfg.Options.EffectUnits; unit++ {
		if e.GetValue(engine.EffectUnitGroup(unit), key) != 0 {
			anyEnabled = true
			break
		}
	}
	if anyEnabled {
		for unit := 1; unit <= ch.m.cfg.Options.EffectUnits; unit++ {
			e.SetValue(engine.EffectUnitGroup(unit), key, 0)
		}
		return
	}
	e.SetValue(ch.unitGroup(), key, 1)
}

func handleFilter(ch *Channel, value uint8) {
	ch.m.engine.SetValue(engine.QuickEffectGroup(ch.group), "super1", float64(value)/127)
}

// handleShift makes knobs shared between layers pick up smoothly after the layer change.
func handleShift(ch *Channel, value uint8) {
	if !isDown(value) {
		return
	}
	ch.m.engine.SoftTakeoverIgnoreNextValue(engine.QuickEffectGroup(ch.group), "super1")
	ch.m.engine.SoftTakeoverIgnoreNextValue(ch.unitGroup(), "super1")
}

// onFocusedEffect mirrors slot focus on fx select LED.
func (ch *Channel) onFocusedEffect(focused int) {
	if focused == 0 {
		ch.setLED(ledFxSel, false)
		ch.m.engine.SoftTakeoverIgnoreNextValue(ch.unitGroup(), "super1")
		return
	}
	ch.setLED(ledFxSel, true)
	ch.m.engine.SoftTakeoverIgnoreNextValue(engine.EffectSlotGroup(ch.unit, focused), "meta")
}
