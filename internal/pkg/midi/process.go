package midi

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/Adicc/macea-mapping/internal/pkg/logger"
	"github.com/Adicc/macea-mapping/internal/pkg/midi/driver"
	gomidi "gitlab.com/gomidi/midi/v2"
	"go.uber.org/zap"
)

type Stats struct {
	EventsIn  uint64
	EventsOut uint64
}

func (s *Stats) In() uint64 {
	return atomic.LoadUint64(&s.EventsIn)
}

func (s *Stats) Out() uint64 {
	return atomic.LoadUint64(&s.EventsOut)
}

// ProcessMidiEvents moves events from midiEventsOut into the port output and from the port input into midiEventsIn.
// Either side of the port may be nil. The input side stops with ctx and closes midiEventsIn, the output side
// keeps writing until midiEventsOut is closed so the last LED updates still reach the controller.
func ProcessMidiEvents(ctx context.Context, wg *sync.WaitGroup, log *zap.Logger, port driver.Port,
	midiEventsOut <-chan Event, midiEventsIn chan<- Event, stats *Stats) error {

	if port.Output != nil {
		err := port.Output.Open()
		if err != nil {
			return fmt.Errorf("output port: %w", err)
		}
	}
	if port.Input != nil {
		err := port.Input.Open()
		if err != nil {
			if port.Output != nil {
				port.Output.Close()
			}
			return fmt.Errorf("input port: %w", err)
		}
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		var portOut chan<- []byte
		if port.Output != nil {
			defer port.Output.Close()
			portOut = port.Output.SendChannel()
		}

		for ev := range midiEventsOut {
			if portOut == nil {
				continue
			}
			portOut <- ev
			atomic.AddUint64(&stats.EventsOut, 1)
		}

		log.Info("Processing output midi events stopped", logger.Debug)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer close(midiEventsIn)
		if port.Input == nil {
			<-ctx.Done()
			return
		}
		defer port.Input.Close()
		received := port.Input.ReceiveChannel()

	root:
		for {
			select {
			case <-ctx.Done():
				break root
			case ev, ok := <-received:
				if !ok {
					break root
				}
				atomic.AddUint64(&stats.EventsIn, 1)
				log.Info(fmt.Sprintf("input event: %s", gomidi.Message(ev).String()), logger.Debug)
				select {
				case midiEventsIn <- ev:
				case <-ctx.Done():
					break root
				}
			}
		}

		log.Info("Processing input midi events stopped", logger.Debug)
	}()

	return nil
}
