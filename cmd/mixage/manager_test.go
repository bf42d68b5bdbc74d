package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Adicc/macea-mapping/internal/pkg/mapping"
	"github.com/Adicc/macea-mapping/internal/pkg/midi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapperRun struct {
	configDir string
	in        chan midi.Event
	out       chan midi.Event
	overview  atomic.Value
	cancel    context.CancelFunc
	result    chan error
}

func startMapper(t *testing.T) *mapperRun {
	t.Helper()
	configDir := filepath.Join(t.TempDir(), "mixage-config")
	require.NoError(t, createConfigDirectoryIfNeeded(configDir))
	cfg, err := LoadMixageConfig(filepath.Join(configDir, configFile))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	r := &mapperRun{
		configDir: configDir,
		in:        make(chan midi.Event, 8),
		out:       make(chan midi.Event, 4096),
		cancel:    cancel,
		result:    make(chan error, 1),
	}
	go func() {
		r.result <- runMapper(ctx, cfg, configDir, false, r.in, r.out, &r.overview)
	}()
	t.Cleanup(cancel)

	require.Eventually(t, func() bool {
		_, ok := r.overview.Load().(Overview)
		return ok
	}, time.Second, time.Millisecond*10)
	return r
}

func (r *mapperRun) deck(i int) mapping.DeckState {
	ov := r.overview.Load().(Overview)
	return ov.Decks[i]
}

func (r *mapperRun) drain() []midi.Event {
	var events []midi.Event
	for {
		select {
		case ev := <-r.out:
			events = append(events, ev)
		default:
			return events
		}
	}
}

func TestRunMapper(t *testing.T) {
	r := startMapper(t)

	ov := r.overview.Load().(Overview)
	assert.Equal(t, "Reloop Mixage", ov.Mapping)
	assert.Len(t, ov.Decks, 2)
	assert.Equal(t, "[Channel1]", ov.Decks[0].Group)

	initial := r.drain()
	require.GreaterOrEqual(t, len(initial), 128)
	assert.Equal(t, midi.Event{0x90, 0x00, 0x00}, initial[0])

	// scratch button tap on deck 1
	r.in <- midi.Event{0x90, 0x04, 0x7F}
	r.in <- midi.Event{0x80, 0x04, 0x00}
	require.Eventually(t, func() bool {
		return r.deck(0).Mode == mapping.ModeScratch
	}, time.Second, time.Millisecond*10)
	assert.Contains(t, r.drain(), midi.Event{0x90, 0x04, 0x7F})
	assert.Equal(t, mapping.ModeNone, r.deck(1).Mode)

	r.cancel()
	select {
	case err := <-r.result:
		require.NoError(t, err)
	case <-time.After(time.Second * 2):
		t.Fatal("mapper did not stop")
	}

	final := r.drain()
	require.GreaterOrEqual(t, len(final), 128)
	assert.Equal(t, midi.Event{0x90, 0x7F, 0x00}, final[len(final)-1])
	assert.Equal(t, mapping.ModeNone, r.deck(0).Mode)
}

func TestRunMapperReloadsChangedMapping(t *testing.T) {
	r := startMapper(t)

	factory, err := os.ReadFile(filepath.Join(r.configDir, "factory", "reloop_mixage.toml"))
	require.NoError(t, err)
	user := strings.Replace(string(factory), `name = "Reloop Mixage"`, `name = "Reloop Mixage (user)"`, 1)
	require.NoError(t, os.WriteFile(filepath.Join(r.configDir, "user", "reloop_mixage.toml"), []byte(user), 0o666))

	require.Eventually(t, func() bool {
		return r.overview.Load().(Overview).Mapping == "Reloop Mixage (user)"
	}, time.Second*3, time.Millisecond*20)

	// broken user file is skipped, factory mapping takes over again
	require.NoError(t, os.WriteFile(filepath.Join(r.configDir, "user", "reloop_mixage.toml"), []byte("name = 1"), 0o666))
	require.Eventually(t, func() bool {
		return r.overview.Load().(Overview).Mapping == "Reloop Mixage"
	}, time.Second*3, time.Millisecond*20)
}

func TestRunMapperUnknownMapping(t *testing.T) {
	configDir := filepath.Join(t.TempDir(), "mixage-config")
	require.NoError(t, createConfigDirectoryIfNeeded(configDir))
	cfg, err := LoadMixageConfig(filepath.Join(configDir, configFile))
	require.NoError(t, err)
	cfg.MIDI.Mapping = "nope"

	var overview atomic.Value
	err = runMapper(context.Background(), cfg, configDir, true, make(chan midi.Event), make(chan midi.Event, 1), &overview)
	assert.ErrorContains(t, err, "reloop_mixage")
	assert.Nil(t, overview.Load())
}
