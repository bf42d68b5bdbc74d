package main

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/Adicc/macea-mapping/internal/pkg/engine"
	"github.com/Adicc/macea-mapping/internal/pkg/engine/memory"
	"github.com/Adicc/macea-mapping/internal/pkg/logger"
	"github.com/Adicc/macea-mapping/internal/pkg/mapping"
	"github.com/Adicc/macea-mapping/internal/pkg/mapping/config"
	"github.com/Adicc/macea-mapping/internal/pkg/midi"
	"github.com/Adicc/macea-mapping/internal/pkg/scheduler"
	"go.uber.org/zap"
)

// Overview is published by the mapper loop after every processed event and read by the ui.
type Overview struct {
	Mapping string
	File    string
	Decks   []mapping.DeckState
}

type mapperLoader struct {
	configDir string
	name      string
	host      engine.Engine
	out       engine.Output
	sched     scheduler.Scheduler
	settings  mapping.Settings
}

// load builds a mapper from current state of config directory, it does not touch the engine nor the controller.
func (l *mapperLoader) load() (*mapping.Mapper, string, error) {
	configs, err := config.LoadMappings(l.configDir)
	if err != nil {
		return nil, "", err
	}
	mc, err := configs.FindMapping(l.name)
	if err != nil {
		return nil, "", fmt.Errorf("%w, available: %v", err, configs.Names())
	}
	log.Info(fmt.Sprintf("mapping config loaded: %s", mc.ConfigFile), zap.String("config", mc.Config.Name), logger.Debug)

	m, err := mapping.New(mc.Config, l.host, l.out, l.sched, log, l.settings)
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", mc.ConfigFile, err)
	}
	return m, mc.ConfigFile, nil
}

// runMapper is the single event loop of the program, mapper, engine and scheduler are touched only from here.
// It returns when ctx is done or midiEventsIn gets closed, the controller is left with all LEDs off.
func runMapper(
	ctx context.Context, cfg MixageConfig, configDir string, noLogs bool,
	midiEventsIn <-chan midi.Event, midiEventsOut chan<- midi.Event, overview *atomic.Value,
) error {
	loop := scheduler.NewLoop()
	defer loop.Close()

	host := memory.New()
	out := engine.OutputFunc(func(status, data1, data2 byte) {
		midiEventsOut <- midi.Event{status, data1, data2}
	})

	loader := mapperLoader{
		configDir: configDir,
		name:      cfg.MIDI.Mapping,
		host:      host,
		out:       out,
		sched:     loop,
		settings: mapping.Settings{
			PressHoldWindow: cfg.Mixage.PressHoldWindow,
			NoLogs:          noLogs,
		},
	}

	m, file, err := loader.load()
	if err != nil {
		return err
	}
	m.Init()

	publish := func() {
		overview.Store(Overview{Mapping: m.Name(), File: file, Decks: m.Snapshot()})
	}
	publish()

	mappingChange := config.DetectMappingChanges(ctx, configDir)
	indicator := time.NewTicker(cfg.Mixage.IndicatorRate)
	defer indicator.Stop()

	log.Info("Run mapper", logger.Debug)
root:
	for {
		select {
		case <-ctx.Done():
			break root
		case ev, ok := <-midiEventsIn:
			if !ok {
				break root
			}
			m.HandleEvent(ev)
		case fn := <-loop.Calls():
			fn()
		case <-indicator.C:
			host.Tick()
		case _, ok := <-mappingChange:
			if !ok {
				mappingChange = nil
				continue
			}
			log.Info("handling mapping change", logger.Debug)
			newMapper, newFile, err := loader.load()
			if err != nil {
				log.Info(fmt.Sprintf("mapping reload failed, keeping previous one: %s", err), logger.Warning)
				continue
			}
			m.Shutdown()
			m, file = newMapper, newFile
			m.Init()
		}
		publish()
	}

	m.Shutdown()
	publish()

	// input side may still deliver events until the port is closed
	go func() {
		for range midiEventsIn {
		}
	}()

	log.Info("Mapper stopped", logger.Debug)
	return nil
}
