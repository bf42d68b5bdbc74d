package midi

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Adicc/macea-mapping/internal/pkg/midi/driver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeIn struct {
	c      chan []byte
	opened bool
	closed bool
}

func (f *fakeIn) Name() string { return "Reloop Mixage MIDI 1" }
func (f *fakeIn) Open() error { f.opened = true; return nil }
func (f *fakeIn) Close() error { f.closed = true; return nil }
func (f *fakeIn) ReceiveChannel() <-chan []byte { return f.c }

type fakeOut struct {
	c      chan []byte
	closed bool
}

func (f *fakeOut) Name() string { return "Reloop Mixage MIDI 2" }
func (f *fakeOut) Open() error { return nil }
func (f *fakeOut) Close() error { f.closed = true; return nil }
func (f *fakeOut) SendChannel() chan<- []byte { return f.c }

func TestProcessMidiEvents(t *testing.T) {
	in := &fakeIn{c: make(chan []byte, 4)}
	out := &fakeOut{c: make(chan []byte, 8)}
	port := driver.Port{Input: in, Output: out}
	assert.Equal(t, "Reloop Mixage MIDI  (Input/Output)", port.String())

	ctx, cancel := context.WithCancel(context.Background())
	wg := sync.WaitGroup{}
	eventsOut := make(chan Event, 8)
	eventsIn := make(chan Event, 8)
	var stats Stats

	err := ProcessMidiEvents(ctx, &wg, zap.NewNop(), port, eventsOut, eventsIn, &stats)
	require.NoError(t, err)
	assert.True(t, in.opened)

	in.c <- []byte{0x90, 0x0C, 0x7F}
	select {
	case ev := <-eventsIn:
		assert.Equal(t, Event{0x90, 0x0C, 0x7F}, ev)
	case <-time.After(time.Second):
		t.Fatal("input event not forwarded")
	}

	// output keeps flushing after cancel until the channel is closed
	cancel()
	eventsOut <- Event{0x90, 0x05, 0x00}
	eventsOut <- Event{0x90, 0x06, 0x00}
	close(eventsOut)
	wg.Wait()

	assert.Equal(t, []byte{0x90, 0x05, 0x00}, <-out.c)
	assert.Equal(t, []byte{0x90, 0x06, 0x00}, <-out.c)
	assert.Equal(t, uint64(1), stats.In())
	assert.Equal(t, uint64(2), stats.Out())
	assert.True(t, in.closed)
	assert.True(t, out.closed)

	_, ok := <-eventsIn
	assert.False(t, ok)
}

func TestProcessMidiEventsWithoutPorts(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	wg := sync.WaitGroup{}
	eventsOut := make(chan Event, 1)
	eventsIn := make(chan Event, 1)
	var stats Stats

	err := ProcessMidiEvents(ctx, &wg, zap.NewNop(), driver.Port{}, eventsOut, eventsIn, &stats)
	require.NoError(t, err)

	eventsOut <- Event{0x90, 0x05, 0x7F}
	close(eventsOut)
	cancel()
	wg.Wait()
	assert.Equal(t, uint64(0), stats.Out())
}
