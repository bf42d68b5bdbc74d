// Package memory implements engine.Engine as an in-process control registry.
//
// The registry is confined to a single goroutine (the mapper event loop), nothing is locked.
// Connection callbacks run synchronously inside SetValue, on change only.
package memory

import (
	"fmt"
	"sort"

	"github.com/Adicc/macea-mapping/internal/pkg/engine"
	"github.com/google/uuid"
)

type controlKey struct {
	group, key string
}

func (k controlKey) String() string {
	return fmt.Sprintf("%s,%s", k.group, k.key)
}

var defaults = map[string]float64{
	"loop_start_position": -1,
	"loop_end_position":   -1,
	"beatjump_size":       4,
	"mix":                 1,
}

const (
	minBeatjumpSize = 1.0 / 32.0
	maxBeatjumpSize = 512.0
)

type connection struct {
	id       uuid.UUID
	key      controlKey
	callback engine.Callback
	engine   *Engine
	active   bool
}

func (c *connection) Disconnect() {
	if !c.active {
		return
	}
	c.active = false
	c.engine.removeConnection(c.id)
}

func (c *connection) Trigger() {
	if !c.active {
		return
	}
	c.callback(c.engine.GetValue(c.key.group, c.key.key), c.key.group, c.key.key)
}

// ID identifies the connection inside its engine.
func (c *connection) ID() uuid.UUID {
	return c.id
}

type ScratchState struct {
	Enabled            bool
	TicksPerRevolution int
	RPM, Alpha, Beta   float64
	Ticks              int // sum of all ticks received while enabled
}

type RampState struct {
	Enabled bool
	Factor  float64
	Calls   int
}

type Engine struct {
	values      map[controlKey]float64
	writes      map[controlKey]int
	connections map[uuid.UUID]*connection
	subscribers map[controlKey][]uuid.UUID // connection order per control

	softTakeover map[controlKey]bool
	ignoreNext   map[controlKey]int

	scratch   map[int]*ScratchState
	brake     map[int]*RampState
	softStart map[int]*RampState
}

func New() *Engine {
	return &Engine{
		values:       make(map[controlKey]float64, 64),
		writes:       make(map[controlKey]int, 64),
		connections:  make(map[uuid.UUID]*connection, 64),
		subscribers:  make(map[controlKey][]uuid.UUID, 64),
		softTakeover: make(map[controlKey]bool),
		ignoreNext:   make(map[controlKey]int),
		scratch:      make(map[int]*ScratchState),
		brake:        make(map[int]*RampState),
		softStart:    make(map[int]*RampState),
	}
}

func (e *Engine) GetValue(group, key string) float64 {
	v, ok := e.values[controlKey{group, key}]
	if !ok {
		return defaults[key]
	}
	return v
}

func (e *Engine) SetValue(group, key string, value float64) {
	if key == "beatjump_size" {
		if value < minBeatjumpSize {
			value = minBeatjumpSize
		}
		if value > maxBeatjumpSize {
			value = maxBeatjumpSize
		}
	}

	k := controlKey{group, key}
	old := e.GetValue(group, key)
	e.values[k] = value
	e.writes[k]++
	if old == value {
		return
	}

	ids := make([]uuid.UUID, len(e.subscribers[k]))
	copy(ids, e.subscribers[k])
	for _, id := range ids {
		c, ok := e.connections[id]
		if !ok || !c.active {
			continue
		}
		c.callback(value, group, key)
	}
}

func (e *Engine) MakeConnection(group, key string, callback engine.Callback) engine.Connection {
	c := &connection{
		id:       uuid.New(),
		key:      controlKey{group, key},
		callback: callback,
		engine:   e,
		active:   true,
	}
	e.connections[c.id] = c
	e.subscribers[c.key] = append(e.subscribers[c.key], c.id)
	return c
}

func (e *Engine) removeConnection(id uuid.UUID) {
	c, ok := e.connections[id]
	if !ok {
		return
	}
	delete(e.connections, id)

	ids := e.subscribers[c.key]
	for i, other := range ids {
		if other == id {
			e.subscribers[c.key] = append(ids[:i:i], ids[i+1:]...)
			break
		}
	}
	if len(e.subscribers[c.key]) == 0 {
		delete(e.subscribers, c.key)
	}
}

func (e *Engine) SoftTakeover(group, key string, enable bool) {
	e.softTakeover[controlKey{group, key}] = enable
}

func (e *Engine) SoftTakeoverIgnoreNextValue(group, key string) {
	e.ignoreNext[controlKey{group, key}]++
}

func (e *Engine) ScratchEnable(deck, ticksPerRevolution int, rpm, alpha, beta float64) {
	e.scratch[deck] = &ScratchState{
		Enabled:            true,
		TicksPerRevolution: ticksPerRevolution,
		RPM:                rpm,
		Alpha:              alpha,
		Beta:               beta,
	}
}

func (e *Engine) ScratchDisable(deck int) {
	s, ok := e.scratch[deck]
	if !ok {
		return
	}
	s.Enabled = false
}

func (e *Engine) ScratchTick(deck, ticks int) {
	s, ok := e.scratch[deck]
	if !ok || !s.Enabled {
		return
	}
	s.Ticks += ticks
}

func (e *Engine) Brake(deck int, enable bool, factor float64) {
	e.ramp(e.brake, deck, enable, factor)
}

func (e *Engine) SoftStart(deck int, enable bool, factor float64) {
	e.ramp(e.softStart, deck, enable, factor)
}

func (e *Engine) ramp(m map[int]*RampState, deck int, enable bool, factor float64) {
	r, ok := m[deck]
	if !ok {
		r = &RampState{}
		m[deck] = r
	}
	r.Enabled = enable
	r.Factor = factor
	r.Calls++
}

// Tick flips the 250ms indicator, that is what drives every blinking LED.
func (e *Engine) Tick() {
	engine.ToggleControl(e, engine.AppGroup, engine.Indicator250ms)
}

// Inspection helpers.

func (e *Engine) ConnectionCount(group, key string) int {
	return len(e.subscribers[controlKey{group, key}])
}

// ConnectionIDs lists live connections of a control in connection order.
func (e *Engine) ConnectionIDs(group, key string) []uuid.UUID {
	return append([]uuid.UUID(nil), e.subscribers[controlKey{group, key}]...)
}

// Writes counts SetValue calls for a control, including ones that did not change the value.
func (e *Engine) Writes(group, key string) int {
	return e.writes[controlKey{group, key}]
}

func (e *Engine) TotalConnections() int {
	return len(e.connections)
}

func (e *Engine) SoftTakeoverEnabled(group, key string) bool {
	return e.softTakeover[controlKey{group, key}]
}

func (e *Engine) IgnoreNextCount(group, key string) int {
	return e.ignoreNext[controlKey{group, key}]
}

func (e *Engine) Scratch(deck int) ScratchState {
	s, ok := e.scratch[deck]
	if !ok {
		return ScratchState{}
	}
	return *s
}

func (e *Engine) BrakeState(deck int) RampState {
	r, ok := e.brake[deck]
	if !ok {
		return RampState{}
	}
	return *r
}

func (e *Engine) SoftStartState(deck int) RampState {
	r, ok := e.softStart[deck]
	if !ok {
		return RampState{}
	}
	return *r
}

// Controls returns "group,key" names of every control written so far, sorted.
func (e *Engine) Controls() []string {
	names := make([]string, 0, len(e.values))
	for k := range e.values {
		names = append(names, k.String())
	}
	sort.Strings(names)
	return names
}
