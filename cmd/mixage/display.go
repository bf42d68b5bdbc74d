package main

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Adicc/macea-mapping/internal/pkg/display"
	"github.com/Adicc/macea-mapping/internal/pkg/mapping"
	"github.com/Adicc/macea-mapping/internal/pkg/midi"
)

// barGraph renders values as block characters scaled to the biggest one, zero is a blank.
func barGraph(values []uint64) string {
	maxValue := uint64(8)
	for _, v := range values {
		if v > maxValue {
			maxValue = v
		}
	}

	var sb strings.Builder
	for _, v := range values {
		if v == 0 {
			sb.WriteRune(' ')
			continue
		}
		sb.WriteRune(display.Blocks[int(float64(v)/float64(maxValue+1)*float64(len(display.Blocks)))])
	}
	return sb.String()
}

func shortMode(d mapping.DeckState) string {
	switch d.Mode {
	case mapping.ModeScratch:
		return "SCRATCH"
	case mapping.ModeScroll:
		return "SCROLL"
	case mapping.ModeLoopAdjust:
		return "LOOP " + strings.ToUpper(d.Adjust.String())
	}
	return "JOG"
}

func deckScreenLine(i int, d mapping.DeckState) string {
	line := fmt.Sprintf("%d %s", i+1, shortMode(d))
	if d.Scratching {
		line += " *"
	}
	return line
}

// screenLines builds one frame: mapping name, first two decks and inbound event rate graph.
func screenLines(ov Overview, rates []uint64, cols int) [4]string {
	var lines [4]string
	lines[0] = ov.Mapping
	for i := 0; i < 2 && i < len(ov.Decks); i++ {
		lines[i+1] = deckScreenLine(i, ov.Decks[i])
	}

	if len(rates) > cols {
		rates = rates[len(rates)-cols:]
	}
	lines[3] = barGraph(rates)
	return lines
}

func exitLines(cfg display.ScreenConfig) [4]string {
	if cfg.HaveExitMessage() {
		return cfg.ExitMessage
	}
	return [4]string{"", "  mixage mapper", "    stopped", ""}
}

// GenerateDisplayData produces screen frames every update period until ctx is done, the last frame is exit message.
func GenerateDisplayData(
	ctx context.Context, wg *sync.WaitGroup, cfg display.ScreenConfig,
	overview *atomic.Value, stats *midi.Stats,
) <-chan display.DisplayData {
	data := make(chan display.DisplayData)
	cols, _ := cfg.Size()

	go func() {
		defer wg.Done()
		defer close(data)

		ticker := time.NewTicker(cfg.UpdateRate)
		defer ticker.Stop()

		rates := make([]uint64, 0, cols)
		lastIn := stats.In()

	root:
		for {
			in := stats.In()
			rates = append(rates, in-lastIn)
			if len(rates) > cols {
				rates = rates[1:]
			}
			lastIn = in

			ov, _ := overview.Load().(Overview)
			select {
			case data <- display.DisplayData{Lines: screenLines(ov, rates, cols)}:
			case <-ctx.Done():
				break root
			}

			select {
			case <-ctx.Done():
				break root
			case <-ticker.C:
			}
		}

		data <- display.DisplayData{Lines: exitLines(cfg), LastMsg: true}
	}()

	return data
}
