// Package engine describes the mixing engine control surface the mapper talks to.
//
// Every value lives in the host and is addressed by a (group, key) pair, eg. ("[Channel1]", "play").
// The mapper never owns mixing state, it only reads, writes and subscribes.
package engine

import (
	"fmt"
	"regexp"
	"strconv"
)

type Callback func(value float64, group, key string)

// Connection is a disposable subscription handle returned by MakeConnection.
type Connection interface {
	// Disconnect removes the subscription, calling it more than once is a no-op.
	Disconnect()
	// Trigger invokes the callback with the current value.
	Trigger()
}

type Engine interface {
	GetValue(group, key string) float64
	SetValue(group, key string, value float64)

	MakeConnection(group, key string, callback Callback) Connection

	SoftTakeover(group, key string, enable bool)
	SoftTakeoverIgnoreNextValue(group, key string)

	ScratchEnable(deck, ticksPerRevolution int, rpm, alpha, beta float64)
	ScratchDisable(deck int)
	ScratchTick(deck, ticks int)
	Brake(deck int, enable bool, factor float64)
	SoftStart(deck int, enable bool, factor float64)
}

// Output sends raw short messages to the controller, mostly LED updates.
type Output interface {
	SendShortMsg(status, data1, data2 byte)
}

type OutputFunc func(status, data1, data2 byte)

func (f OutputFunc) SendShortMsg(status, data1, data2 byte) {
	f(status, data1, data2)
}

const (
	AppGroup      = "[App]"
	MasterGroup   = "[Master]"
	PlaylistGroup = "[Playlist]"
	PreviewGroup  = "[PreviewDeck1]"

	Indicator250ms = "indicator_250ms"
)

// ToggleControl flips a boolean control.
func ToggleControl(e Engine, group, key string) {
	if e.GetValue(group, key) == 0 {
		e.SetValue(group, key, 1)
	} else {
		e.SetValue(group, key, 0)
	}
}

func Bool(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

var deckGroupRegex = regexp.MustCompile(`^\[(?:Channel|Sampler|PreviewDeck)(\d+)]$`)

// DeckFromGroup returns deck number for a deck group, 0 when group does not name a deck.
func DeckFromGroup(group string) int {
	match := deckGroupRegex.FindStringSubmatch(group)
	if len(match) == 0 {
		return 0
	}
	n, err := strconv.Atoi(match[1])
	if err != nil {
		return 0
	}
	return n
}

func ChannelGroup(deck int) string {
	return fmt.Sprintf("[Channel%d]", deck)
}

func EffectUnitGroup(unit int) string {
	return fmt.Sprintf("[EffectRack1_EffectUnit%d]", unit)
}

func EffectSlotGroup(unit, slot int) string {
	return fmt.Sprintf("[EffectRack1_EffectUnit%d_Effect%d]", unit, slot)
}

func QuickEffectGroup(group string) string {
	return fmt.Sprintf("[QuickEffectRack1_%s]", group)
}

// UnitEnableKey is the effect unit control routing a channel through the unit.
func UnitEnableKey(group string) string {
	return fmt.Sprintf("group_%s_enable", group)
}
