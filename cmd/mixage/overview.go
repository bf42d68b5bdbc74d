package main

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/Adicc/macea-mapping/internal/pkg/logger"
	"github.com/Adicc/macea-mapping/internal/pkg/mapping"
	"github.com/Adicc/macea-mapping/internal/pkg/midi"
	"github.com/awesome-gocui/gocui"
	"github.com/logrusorgru/aurora"
)

func yesNo(au aurora.Aurora, b bool) string {
	if b {
		return au.Green("yes").String()
	}
	return au.Gray(12, "no").String()
}

func heldButtons(d mapping.DeckState) string {
	var held []string
	if d.ScratchPressed {
		held = append(held, "scratch")
	}
	if d.DryWetPressed {
		held = append(held, "dry/wet")
	}
	if d.LoopLengthPressed {
		held = append(held, "loop length")
	}
	if len(held) == 0 {
		return "-"
	}
	return strings.Join(held, ", ")
}

// deckLines renders two lines per deck.
func deckLines(au aurora.Aurora, d mapping.DeckState) []string {
	header := fmt.Sprintf(
		"%s: mode: %s, loop adjust: %s, blinking leds: %d",
		colorForString(au, d.Group).String(),
		colorForString(au, d.Mode.String()).String(),
		d.Adjust.String(),
		d.Blinking,
	)
	description := fmt.Sprintf(
		"└ wheel touched: %s, scratching: %s, held: %s",
		yesNo(au, d.WheelTouched), yesNo(au, d.Scratching), heldButtons(d),
	)
	return []string{header, description}
}

func overviewLines(au aurora.Aurora, ov Overview, lastEvent string, stats *midi.Stats) []string {
	if lastEvent == "" {
		lastEvent = "-"
	}
	lines := []string{
		fmt.Sprintf(
			"mapping: %s (%s), events in: %d, out: %d, last: %s",
			colorForString(au, ov.Mapping).String(), ov.File, stats.In(), stats.Out(), lastEvent,
		),
	}
	for _, d := range ov.Decks {
		lines = append(lines, deckLines(au, d)...)
	}
	return lines
}

func overviewView(g *gocui.Gui, colors bool, overview, lastEvent *atomic.Value, stats *midi.Stats) {
	view, err := g.View(ViewOverview)
	if err != nil {
		panic(err)
	}

	au := aurora.NewAurora(colors)

	for {
		ov, _ := overview.Load().(Overview)
		last, _ := lastEvent.Load().(string)
		viewData := overviewLines(au, ov, last, stats)

		x, y := view.Size()

		view.Rewind()
		for i := 0; i < y; i++ {
			var line string
			if i < len(viewData) {
				line = viewData[i]
			}
			freeSpace := x - rawStringLen(line)
			if freeSpace < 0 {
				freeSpace = 0
			}
			view.Write([]byte(line + strings.Repeat(" ", freeSpace)))
			view.Write([]byte{'\n'})
		}
		time.Sleep(time.Millisecond * 100)
	}
}

func notify(c chan<- bool) {
	select {
	case c <- true:
	default:
	}
}

func logView(g *gocui.Gui, color bool, logLevel, bufSize int) {
	feeder, err := NewFeeder(g, ViewLogs, logLevel, aurora.NewAurora(color))
	if err != nil {
		panic(err)
	}

	buf := newLogBuffer(bufSize)
	refresh := make(chan bool, 1)
	done := make(chan struct{})

	go func() {
		var lastX, lastY int
		for {
			x, y := feeder.view.Size()
			if x != lastX || y != lastY {
				lastX, lastY = x, y
				notify(refresh)
			}
			time.Sleep(time.Millisecond * 100)
		}
	}()

	go func() {
		defer close(done)
		for msg := range logger.Messages {
			buf.WriteMessage(msg)
			notify(refresh)
		}
	}()

	for {
		select {
		case <-done:
			return
		case <-refresh:
		}
		feeder.view.Rewind()
		_, y := feeder.view.Size()
		for _, msg := range buf.ReadLastMessages(y) {
			feeder.Write(msg)
		}
	}
}
