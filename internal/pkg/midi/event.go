package midi

import (
	"fmt"
)

const (
	// message types
	NoteOff               uint8 = 0b1000 << 4
	NoteOn                uint8 = 0b1001 << 4
	PolyphonicKeyPressure uint8 = 0b1010 << 4 // After-touch
	ControlChange         uint8 = 0b1011 << 4
	ProgramChange         uint8 = 0b1100 << 4
	ChannelPressure       uint8 = 0b1101 << 4 // After-touch
	PitchWheelChange      uint8 = 0b1110 << 4

	// Controller values
	Off  uint8 = 0x00
	On   uint8 = 0x7F
	Down uint8 = 0x7F
)

type Event []byte

// Type returns the message type nibble, zero for malformed events.
func (e Event) Type() uint8 {
	if len(e) == 0 {
		return 0
	}
	return e[0] & 0b11110000
}

// Channel returns zero-indexed midi channel.
func (e Event) Channel() uint8 {
	if len(e) == 0 {
		return 0
	}
	return e[0] & 0b1111
}

func (e Event) Status() uint8 {
	if len(e) == 0 {
		return 0
	}
	return e[0]
}

// Control returns the first data byte (note or controller number).
func (e Event) Control() uint8 {
	if len(e) < 2 {
		return 0
	}
	return e[1]
}

// Value returns the second data byte, a note off is reported as value 0 regardless of its velocity.
func (e Event) Value() uint8 {
	if len(e) < 3 || e.Type() == NoteOff {
		return 0
	}
	return e[2]
}

func (e Event) String() string {
	if len(e) == 0 {
		return fmt.Sprintf("Warning: empty Midi event, it should be not emitted")
	}
	channel := e.Channel() + 1
	switch x := e.Type(); x {
	case NoteOff:
		var velocity uint8
		if len(e) == 3 {
			velocity = e[2]
		}
		return fmt.Sprintf("Note Off: 0x%02X (channel: %2d, velocity: %3d)", e.Control(), channel, velocity)
	case NoteOn:
		return fmt.Sprintf("Note On : 0x%02X (channel: %2d, velocity: %3d)", e.Control(), channel, e.Value())
	case PolyphonicKeyPressure:
		return fmt.Sprintf("Polyphonic Key Pressure: 0x%02X (channel: %2d, pressure: %3d)", e.Control(), channel, e.Value())
	case ControlChange:
		var value string
		if len(e) == 3 {
			value = fmt.Sprintf("%3d", e[2])
		} else {
			value = "---"
		}
		return fmt.Sprintf("Control Change: 0x%02X, value: %s (channel: %2d)", e.Control(), value, channel)
	case ProgramChange:
		return fmt.Sprintf("Program Change: %3d (channel: %2d)", e.Control(), channel)
	case ChannelPressure:
		return fmt.Sprintf("Channel Pressure: %3d (channel: %2d)", e.Control(), channel)
	case PitchWheelChange:
		if len(e) < 3 {
			break
		}
		val := float64((int(e[2])<<7)+int(e[1])-8192) / 8192 // max value: 16383, middle value (no pitch change): 8192
		return fmt.Sprintf("Pitch Bend: %4.0f%% (channel: %2d)", val*100, channel)
	}
	msg := "Oof, unexpected event format: "
	for _, v := range e {
		msg += fmt.Sprintf("0x%02x ", v)
	}
	return msg
}

func NoteEvent(messageType, channel, note, velocity uint8) Event {
	return Event{messageType | channel, note, velocity}
}

func ControlChangeEvent(channel, function, value uint8) Event {
	return Event{ControlChange | channel, function, value}
}
