package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/Adicc/macea-mapping/internal/pkg/display"
	"github.com/Adicc/macea-mapping/internal/pkg/logger"
	"github.com/Adicc/macea-mapping/internal/pkg/midi"
	"github.com/Adicc/macea-mapping/internal/pkg/midi/driver"
	"github.com/Adicc/macea-mapping/internal/pkg/midi/driver/rtmidi"
	"github.com/Adicc/macea-mapping/internal/pkg/utils"
	"github.com/awesome-gocui/gocui"
	"github.com/logrusorgru/aurora"
)

var log = logger.GetLogger()

func handleSigs(wg *sync.WaitGroup, sigs <-chan os.Signal, cancel func(), g *gocui.Gui) {
	defer wg.Done()
	var counter int
	for sig := range sigs {
		if counter > 0 {
			fmt.Println("Dirty exit")
			os.Exit(1)
		}
		log.Info(fmt.Sprintf("signal received: %v", sig), logger.Debug)
		cancel()
		if g != nil {
			g.Update(quitUI)
		}
		counter++
	}
}

// runUI starts gocui main loop, returned channel is closed once the ui is torn down.
func runUI(cfg MixageConfig, ui bool, stop func()) (*gocui.Gui, <-chan struct{}) {
	done := make(chan struct{})
	if !ui {
		close(done)
		return nil, done
	}

	g, err := GetCli()
	if err != nil {
		panic(err)
	}

	go func() {
		defer close(done)
		if err := g.MainLoop(); err != nil {
			if !errors.Is(err, gocui.ErrQuit) {
				panic(err)
			}
		}
		g.Close()
		stop() // exit from gui stops the program like a signal
	}()

	go func() {
		ticker := time.NewTicker(cfg.Mixage.LogViewRate)
		defer ticker.Stop()
		for range ticker.C {
			g.Update(Layout)
		}
	}()

	time.Sleep(time.Millisecond * 500) // waiting for view init
	return g, done
}

// runConsole prints log messages until logger.Messages gets closed.
func runConsole(done chan<- struct{}) {
	defer close(done)
	if *silent {
		for range logger.Messages {
		}
		return
	}

	au := aurora.NewAurora(!*nocolor)
	for data := range logger.Messages {
		msg, err := unpack(data)
		if err != nil {
			fmt.Printf("%s\n", string(data))
			continue
		}
		m := prepareString(msg, au, -1, *logLevel)
		if m != "" {
			fmt.Printf("%s\n", m)
		}
	}
}

func openPort(cfg MixageConfig) (driver.Port, error) {
	if *virtual {
		return rtmidi.CreateVirtualPort(cfg.MIDI.VirtualPort)
	}
	return rtmidi.FindPort(cfg.MIDI.InputPort, cfg.MIDI.OutputPort)
}

// monitorEvents keeps the last inbound event for the overview.
func monitorEvents(wg *sync.WaitGroup, events <-chan midi.Event, last *atomic.Value) {
	defer wg.Done()
	for ev := range events {
		last.Store(ev.String())
	}
}

var (
	ui          = flag.Bool("ui", false, "engage debug ui")
	nocolor     = flag.Bool("nocolor", false, "disable color")
	silent      = flag.Bool("silent", false, "no output logging, best performance")
	configDir   = flag.String("config", "mixage-config", "configuration directory, generated with defaults when missing")
	virtual     = flag.Bool("virtual", false, "create virtual midi port pair instead of looking for the controller")
	ports       = flag.Bool("ports", false, "list available midi ports and exit")
	mappingName = flag.String("mapping", "", "mapping name, overrides mapping from config file")
	logLevel    = flag.Int("loglevel", 3,
		"logging level, each level enables additional information class (0-4, default: 3)\n"+
			"more verbose levels may slightly impact overall performance, try to not go beyond 3 when not necessary\n"+
			"\navailable options:\n"+
			"0: general info (eg. mapping load, port status)\n"+
			"1: action events (scratch on, loop adjust etc.)\n"+
			"2: key events (controller buttons)\n"+
			"3: unassigned events (controller messages not assigned to current mapping)\n"+
			"4: analog events (knobs, faders and jog wheels)",
	)
)

func init() {
	flag.Parse()
	*logLevel += 2
}

func main() {
	if *ports {
		ins, outs := rtmidi.PortNames()
		fmt.Printf("inputs:\n")
		for _, name := range ins {
			fmt.Printf("  %s\n", name)
		}
		fmt.Printf("outputs:\n")
		for _, name := range outs {
			fmt.Printf("  %s\n", name)
		}
		return
	}

	err := createConfigDirectoryIfNeeded(*configDir)
	if err != nil {
		fmt.Printf("%v\n", err)
		os.Exit(1)
	}

	cfg, err := LoadMixageConfig(filepath.Join(*configDir, configFile))
	if err != nil {
		fmt.Printf("config load failed: %v\n", err)
		os.Exit(1)
	}
	if *mappingName != "" {
		cfg.MIDI.Mapping = *mappingName
	}

	var sigs = make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	ctx, cancel := context.WithCancel(context.Background())

	withUI := *ui && !*silent
	g, uiDone := runUI(cfg, withUI, cancel)

	var overview, lastEvent atomic.Value
	var stats midi.Stats
	consoleDone := make(chan struct{})
	if withUI {
		close(consoleDone)
		go logView(g, !*nocolor, *logLevel, cfg.Mixage.LogBufferSize)
		go overviewView(g, !*nocolor, &overview, &lastEvent, &stats)
	} else {
		if !*silent {
			fmt.Printf("for nicer output use -ui flag\n")
		}
		go runConsole(consoleDone)
	}
	log.Info(fmt.Sprintf("mixage config: %+v", cfg), logger.Debug)

	// this wait-group has to be propagated everywhere where usual logging appear
	wg := sync.WaitGroup{}

	wg.Add(1)
	go handleSigs(&wg, sigs, cancel, g)

	if cfg.Screen.Enabled {
		wg.Add(2)
		go display.HandleDisplay(&wg, cfg.Screen, GenerateDisplayData(ctx, &wg, cfg.Screen, &overview, &stats))
	}

	var midiEventsOut = make(chan midi.Event, 256)
	var midiEventsIn = make(chan midi.Event, 64)
	portCtx, cancelPort := context.WithCancel(context.Background())

	port, err := openPort(cfg)
	if err == nil {
		log.Info(fmt.Sprintf("controller port: %s", port.String()), logger.Info)
		err = midi.ProcessMidiEvents(portCtx, &wg, log, port, midiEventsOut, midiEventsIn, &stats)
	}
	if err != nil {
		log.Info(fmt.Sprintf("failed to open controller port: %v", err), logger.Error)
	} else {
		fan := utils.NewDynamicFanOut[midi.Event](midiEventsIn)
		_, mapperEvents, _ := fan.SpawnOutput()
		_, monitored, _ := fan.SpawnOutput()

		wg.Add(1)
		go monitorEvents(&wg, monitored, &lastEvent)

		err = runMapper(ctx, cfg, *configDir, *silent, mapperEvents, midiEventsOut, &overview)
		if err != nil {
			log.Info(fmt.Sprintf("mapper failed: %v", err), logger.Error)
		}
	}

	log.Info("waiting...", logger.Debug)
	cancel()
	close(midiEventsOut)
	cancelPort()
	signal.Stop(sigs)
	close(sigs)
	if g != nil {
		g.Update(quitUI)
	}
	<-uiDone

	// closing logger can be safely invoked only when all internally running goroutines (that may emit logs) are done
	wg.Wait()
	close(logger.Messages)
	<-consoleDone

	if err != nil {
		os.Exit(1)
	}
}
