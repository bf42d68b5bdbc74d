// Package mapping translates Reloop Mixage controls into mixing engine calls and mirrors engine state on the
// controller LEDs.
//
// Mapper is not safe for concurrent use. HandleEvent, Invoke, scheduler callbacks and engine callbacks
// have to be serialized by the caller, typically with a single event loop goroutine.
package mapping

import (
	"errors"
	"fmt"
	"time"

	"github.com/Adicc/macea-mapping/internal/pkg/engine"
	"github.com/Adicc/macea-mapping/internal/pkg/logger"
	"github.com/Adicc/macea-mapping/internal/pkg/mapping/config"
	"github.com/Adicc/macea-mapping/internal/pkg/midi"
	"github.com/Adicc/macea-mapping/internal/pkg/scheduler"
	"go.uber.org/zap"
)

// DefaultPressHoldWindow separates a tap from a hold, it is also the double press window.
const DefaultPressHoldWindow = 400 * time.Millisecond

var ErrUnknownGroup = errors.New("unknown group")

type handler func(ch *Channel, value uint8)

var handlers = map[config.ControlID]handler{
	config.Loop:            handleLoop,
	config.Reloop:          handleReloop,
	config.LoopIn:          handleLoopIn,
	config.LoopOut:         handleLoopOut,
	config.ClearLoop:       handleClearLoop,
	config.Play:            handlePlay,
	config.TraxxPress:      handleTraxxPress,
	config.SelectTrack:     handleSelectTrack,
	config.SelectPlaylist:  handleSelectPlaylist,
	config.LoadTrack:       handleLoadTrack,
	config.NextEffect:      handleNextEffect,
	config.EffectDryWet:    handleEffectDryWet,
	config.DryWetPress:     handleDryWetPress,
	config.FxAmount:        handleFxAmount,
	config.FxPress:         handleFxPress,
	config.Filter:          handleFilter,
	config.Shift:           handleShift,
	config.ScratchToggle:   handleScratchToggle,
	config.ScrollToggle:    handleScrollToggle,
	config.WheelTouch:      handleWheelTouch,
	config.WheelTurn:       handleWheelTurn,
	config.BeatLoopPress:   handleBeatLoopPress,
	config.BeatMove:        handleBeatMove,
	config.LoopLengthPress: handleLoopLengthPress,
	config.LoopLength:      handleLoopLength,
}

type Settings struct {
	PressHoldWindow time.Duration
	NoLogs          bool // skips producing per-event log entries
}

type binding struct {
	ch      *Channel
	id      config.ControlID
	handler handler
}

type directBinding struct {
	ch     *Channel
	direct config.Direct
}

type Mapper struct {
	log         *zap.Logger
	noLogs      bool
	cfg         config.Config
	engine      engine.Engine
	out         engine.Output
	sched       scheduler.Scheduler
	pressWindow time.Duration

	channels []*Channel
	byGroup  map[string]*Channel
	bindings map[config.Binding]binding
	direct   map[config.Binding]directBinding

	// remembered slot enable pattern per effect unit, restored after mute
	effectSlots map[string][]bool
	initialized bool
}

func New(
	cfg config.Config, e engine.Engine, out engine.Output, s scheduler.Scheduler,
	log *zap.Logger, settings Settings,
) (*Mapper, error) {
	if settings.PressHoldWindow <= 0 {
		settings.PressHoldWindow = DefaultPressHoldWindow
	}
	if log == nil {
		log = zap.NewNop()
	}

	m := &Mapper{
		log:         log,
		noLogs:      settings.NoLogs,
		cfg:         cfg,
		engine:      e,
		out:         out,
		sched:       s,
		pressWindow: settings.PressHoldWindow,
		byGroup:     make(map[string]*Channel),
		bindings:    make(map[config.Binding]binding),
		direct:      make(map[config.Binding]directBinding),
		effectSlots: make(map[string][]bool),
	}

	for _, deck := range cfg.Decks {
		if engine.DeckFromGroup(deck.Group) == 0 {
			return nil, fmt.Errorf("%w: %s does not name a deck", ErrUnknownGroup, deck.Group)
		}
		if _, ok := m.byGroup[deck.Group]; ok {
			return nil, fmt.Errorf("deck %s defined more than once", deck.Group)
		}
		ch := newChannel(m, deck.Group, deck.LEDs)
		m.channels = append(m.channels, ch)
		m.byGroup[deck.Group] = ch

		for b, id := range deck.Controls {
			h, ok := handlers[id]
			if !ok {
				return nil, fmt.Errorf("%s: %w: %s", deck.Group, config.ErrUnknownControl, id)
			}
			if _, ok := m.bindings[b]; ok {
				return nil, fmt.Errorf("%w: %s", config.ErrDuplicateBinding, b)
			}
			m.bindings[b] = binding{ch: ch, id: id, handler: h}
		}
		for b, d := range deck.Direct {
			if _, ok := m.bindings[b]; ok {
				return nil, fmt.Errorf("%w: %s", config.ErrDuplicateBinding, b)
			}
			if _, ok := m.direct[b]; ok {
				return nil, fmt.Errorf("%w: %s", config.ErrDuplicateBinding, b)
			}
			m.direct[b] = directBinding{ch: ch, direct: d}
		}
	}

	return m, nil
}

func (m *Mapper) logFields(ch *Channel, fields ...zap.Field) []zap.Field {
	return append(fields, zap.String("deck", ch.group))
}

func (m *Mapper) logAction(ch *Channel, msg string) {
	if m.noLogs {
		return
	}
	m.log.Info(msg, m.logFields(ch, logger.Action)...)
}

func (m *Mapper) allLEDsOff() {
	for addr := byte(0); addr < 128; addr++ {
		m.out.SendShortMsg(m.cfg.Options.LEDStatus, addr, midi.Off)
	}
}

// Init darkens the controller, enables soft takeover and subscribes to every engine control mirrored on LEDs.
func (m *Mapper) Init() {
	if m.initialized {
		return
	}
	m.allLEDsOff()

	opts := m.cfg.Options
	for unit := 1; unit <= opts.EffectUnits; unit++ {
		group := engine.EffectUnitGroup(unit)
		m.engine.SetValue(group, "show_focus", 1)
		m.engine.SoftTakeover(group, "super1", true)
	}

	for _, ch := range m.channels {
		for slot := 1; slot <= opts.EffectSlots; slot++ {
			m.engine.SoftTakeover(engine.EffectSlotGroup(ch.unit, slot), "meta", true)
		}
		m.engine.SoftTakeover(engine.QuickEffectGroup(ch.group), "super1", true)
		ch.connectLEDs()
		ch.updateModeLEDs()
		ch.updateReloopLED()
	}
	m.initialized = true

	m.log.Info(fmt.Sprintf("mapping \"%s\" initialized, %d decks", m.cfg.Name, len(m.channels)), logger.Info)
}

// Shutdown disposes every subscription and pending timer and turns all LEDs off.
func (m *Mapper) Shutdown() {
	if !m.initialized {
		return
	}
	for _, ch := range m.channels {
		ch.shutdown()
	}
	m.allLEDsOff()
	m.initialized = false

	m.log.Info(fmt.Sprintf("mapping \"%s\" shut down", m.cfg.Name), logger.Info)
}

// HandleEvent dispatches incoming controller message. Note-off is treated as note-on with zero velocity.
func (m *Mapper) HandleEvent(ev midi.Event) {
	if len(ev) < 3 {
		return
	}
	status, value := ev.Status(), ev.Value()
	if ev.Type() == midi.NoteOff {
		status = midi.NoteOn | ev.Channel()
		value = 0
	}
	key := config.Binding{Status: status, Data1: ev.Control()}

	if b, ok := m.bindings[key]; ok {
		if !m.noLogs {
			level := logger.Keys
			if b.id.Analog() {
				level = logger.Analog
			}
			m.log.Info(ev.String(), m.logFields(b.ch, level, zap.String("control", string(b.id)))...)
		}
		b.handler(b.ch, value)
		return
	}

	if d, ok := m.direct[key]; ok {
		if !m.noLogs {
			m.log.Info(ev.String(), m.logFields(d.ch, logger.Analog, zap.String("control", d.direct.Group+","+d.direct.Key))...)
		}
		m.handleDirect(d.direct, value)
		return
	}

	if !m.noLogs {
		m.log.Info(ev.String(), logger.KeysNotAssigned)
	}
}

// Invoke runs control handler of a deck directly, bypassing midi bindings.
func (m *Mapper) Invoke(id config.ControlID, value uint8, group string) error {
	h, ok := handlers[id]
	if !ok {
		return fmt.Errorf("%w: %s", config.ErrUnknownControl, id)
	}
	ch, ok := m.byGroup[group]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownGroup, group)
	}
	h(ch, value)
	return nil
}

func bipolar(value uint8) float64 {
	diff := float64(value) - 64
	if diff <= 0 {
		return diff / 64
	}
	return diff / 63
}

func (m *Mapper) handleDirect(d config.Direct, value uint8) {
	switch d.Mode {
	case config.DirectAbsolute:
		m.engine.SetValue(d.Group, d.Key, float64(value)/127)
	case config.DirectBipolar:
		m.engine.SetValue(d.Group, d.Key, bipolar(value))
	case config.DirectButton:
		m.engine.SetValue(d.Group, d.Key, engine.Bool(isDown(value)))
	case config.DirectToggle:
		if isDown(value) {
			engine.ToggleControl(m.engine, d.Group, d.Key)
		}
	case config.DirectRelative:
		if diff := int(value) - 64; diff != 0 {
			m.engine.SetValue(d.Group, d.Key, float64(diff))
		}
	}
}

// Snapshot copies state of every deck, in mapping order.
func (m *Mapper) Snapshot() []DeckState {
	states := make([]DeckState, 0, len(m.channels))
	for _, ch := range m.channels {
		states = append(states, ch.state())
	}
	return states
}

// Channel returns deck state holder, nil for unknown group.
func (m *Mapper) Channel(group string) *Channel {
	return m.byGroup[group]
}

func (m *Mapper) Name() string {
	return m.cfg.Name
}
