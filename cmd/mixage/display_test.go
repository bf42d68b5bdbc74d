package main

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Adicc/macea-mapping/internal/pkg/display"
	"github.com/Adicc/macea-mapping/internal/pkg/mapping"
	"github.com/Adicc/macea-mapping/internal/pkg/midi"
	"github.com/d2r2/go-hd44780"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBarGraph(t *testing.T) {
	assert.Equal(t, "", barGraph(nil))
	assert.Equal(t, " ▁▄█", barGraph([]uint64{0, 1, 4, 8}))
	assert.Equal(t, "▁█", barGraph([]uint64{10, 100}))
}

func TestScreenLines(t *testing.T) {
	ov := Overview{
		Mapping: "Reloop Mixage",
		Decks: []mapping.DeckState{
			{Group: "[Channel1]", Mode: mapping.ModeScratch, Scratching: true},
			{Group: "[Channel2]", Mode: mapping.ModeLoopAdjust, Adjust: mapping.AdjustBoth},
		},
	}
	rates := []uint64{0, 0, 8, 8}

	assert.Equal(t, [4]string{"Reloop Mixage", "1 SCRATCH *", "2 LOOP BOTH", " ██"}, screenLines(ov, rates, 3))
	assert.Equal(t, [4]string{}, screenLines(Overview{}, nil, 20))
}

func TestExitLines(t *testing.T) {
	cfg := display.ScreenConfig{}
	assert.Equal(t, "  mixage mapper", exitLines(cfg)[1])
	cfg.ExitMessage[0] = "good night"
	assert.Equal(t, [4]string{"good night"}, exitLines(cfg))
}

func TestGenerateDisplayData(t *testing.T) {
	var overview atomic.Value
	overview.Store(Overview{Mapping: "Reloop Mixage"})
	stats := &midi.Stats{}
	cfg := display.ScreenConfig{LcdType: hd44780.LCD_16x2, UpdateRate: time.Millisecond * 10}

	ctx, cancel := context.WithCancel(context.Background())
	wg := sync.WaitGroup{}
	wg.Add(1)
	frames := GenerateDisplayData(ctx, &wg, cfg, &overview, stats)

	first := <-frames
	assert.Equal(t, "Reloop Mixage", first.Lines[0])
	assert.False(t, first.LastMsg)

	cancel()
	var last display.DisplayData
	for frame := range frames {
		last = frame
	}
	wg.Wait()
	require.True(t, last.LastMsg)
	assert.Equal(t, exitLines(cfg), last.Lines)
}
