package midi

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEventAccessors(t *testing.T) {
	for i, tc := range []struct {
		event   Event
		typ     uint8
		channel uint8
		control uint8
		value   uint8
	}{
		{event: Event{0x90, 0x0A, 0x7F}, typ: NoteOn, channel: 0, control: 0x0A, value: 0x7F},
		{event: Event{0x91, 0x18, 0x00}, typ: NoteOn, channel: 1, control: 0x18, value: 0x00},
		{event: Event{0x80, 0x0A, 0x40}, typ: NoteOff, channel: 0, control: 0x0A, value: 0x00},
		{event: Event{0xB0, 0x21, 0x41}, typ: ControlChange, channel: 0, control: 0x21, value: 0x41},
		{event: Event{0xB3, 0x21}, typ: ControlChange, channel: 3, control: 0x21, value: 0x00},
		{event: Event{}, typ: 0, channel: 0, control: 0, value: 0},
	} {
		t.Run(fmt.Sprintf("%d", i), func(t *testing.T) {
			assert.Equal(t, tc.typ, tc.event.Type())
			assert.Equal(t, tc.channel, tc.event.Channel())
			assert.Equal(t, tc.control, tc.event.Control())
			assert.Equal(t, tc.value, tc.event.Value())
		})
	}
}

func TestEventString(t *testing.T) {
	for _, tc := range []struct {
		event    Event
		expected string
	}{
		{event: NoteEvent(NoteOn, 0, 0x0A, 0x7F), expected: "Note On : 0x0A (channel:  1, velocity: 127)"},
		{event: NoteEvent(NoteOff, 1, 0x18, 0), expected: "Note Off: 0x18 (channel:  2, velocity:   0)"},
		{event: ControlChangeEvent(0, 0x21, 65), expected: "Control Change: 0x21, value:  65 (channel:  1)"},
		{event: Event{0xB0, 0x21}, expected: "Control Change: 0x21, value: --- (channel:  1)"},
		{event: Event{0xE0, 0x00, 0x40}, expected: "Pitch Bend:    0% (channel:  1)"},
		{event: Event{0xF8}, expected: "Oof, unexpected event format: 0xf8 "},
	} {
		t.Run(tc.expected, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.event.String())
		})
	}
}
