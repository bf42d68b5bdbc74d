package main

import (
	"testing"

	"github.com/Adicc/macea-mapping/internal/pkg/mapping"
	"github.com/Adicc/macea-mapping/internal/pkg/midi"
	"github.com/logrusorgru/aurora"
	"github.com/stretchr/testify/assert"
)

func TestOverviewLines(t *testing.T) {
	au := aurora.NewAurora(false)
	stats := &midi.Stats{EventsIn: 12, EventsOut: 300}
	ov := Overview{
		Mapping: "Reloop Mixage",
		File:    "mixage-config/factory/reloop_mixage.toml",
		Decks: []mapping.DeckState{
			{Group: "[Channel1]", Mode: mapping.ModeLoopAdjust, Adjust: mapping.AdjustIn, Blinking: 1},
			{Group: "[Channel2]", Mode: mapping.ModeScratch, WheelTouched: true, Scratching: true, DryWetPressed: true},
		},
	}

	assert.Equal(t, []string{
		"mapping: Reloop Mixage (mixage-config/factory/reloop_mixage.toml), events in: 12, out: 300, last: -",
		"[Channel1]: mode: loop adjust, loop adjust: in, blinking leds: 1",
		"└ wheel touched: no, scratching: no, held: -",
		"[Channel2]: mode: scratch, loop adjust: -, blinking leds: 0",
		"└ wheel touched: yes, scratching: yes, held: dry/wet",
	}, overviewLines(au, ov, "", stats))
}

func TestHeldButtons(t *testing.T) {
	assert.Equal(t, "scratch, loop length", heldButtons(mapping.DeckState{ScratchPressed: true, LoopLengthPressed: true}))
}
