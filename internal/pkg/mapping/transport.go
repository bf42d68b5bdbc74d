package mapping

import (
	"github.com/Adicc/macea-mapping/internal/pkg/engine"
)

const (
	softStartFactor = 1.5
	brakeFactor     = 0.75
)

// handlePlay toggles playback, with scratch button held it spins the platter up or brakes it instead.
func handlePlay(ch *Channel, value uint8) {
	if !isDown(value) {
		return
	}
	if ch.scratchPressed {
		if ch.get("play") == 0 {
			ch.m.engine.SoftStart(ch.deck, true, softStartFactor)
			ch.m.logAction(ch, "soft start")
		} else {
			ch.m.engine.Brake(ch.deck, true, brakeFactor)
			ch.m.logAction(ch, "brake")
		}
		return
	}
	engine.ToggleControl(ch.m.engine, ch.group, "play")
}

// handleTraxxPress previews selected track on single press, double press toggles maximized library.
func handleTraxxPress(ch *Channel, value uint8) {
	if !isDown(value) {
		return
	}
	if ch.traxx.pending() {
		ch.traxx.cancel(ch.m.sched)
		engine.ToggleControl(ch.m.engine, engine.MasterGroup, "maximize_library")
		ch.m.logAction(ch, "library maximize toggled")
		return
	}
	ch.traxx.arm(ch.m.sched, ch.m.pressWindow, func() {
		e := ch.m.engine
		if e.GetValue(engine.PreviewGroup, "play") != 0 {
			e.SetValue(engine.PreviewGroup, "stop", 1)
			ch.m.logAction(ch, "preview stopped")
			return
		}
		e.SetValue(engine.PreviewGroup, "LoadSelectedTrackAndPlay", 1)
		ch.m.logAction(ch, "preview started")
	})
}

func handleSelectTrack(ch *Channel, value uint8) {
	diff := int(value) - 64
	if diff == 0 {
		return
	}
	ch.m.engine.SetValue(engine.PlaylistGroup, "SelectTrackKnob", float64(diff))
}

func handleSelectPlaylist(ch *Channel, value uint8) {
	diff := int(value) - 64
	if diff == 0 {
		return
	}
	ch.m.engine.SetValue(engine.PlaylistGroup, "SelectPlaylist", float64(diff))
}

func handleLoadTrack(ch *Channel, value uint8) {
	if !isDown(value) {
		return
	}
	ch.m.engine.SetValue(engine.PreviewGroup, "stop", 1)
	ch.set("LoadSelectedTrack", 1)
	ch.m.logAction(ch, "track loaded")
}
