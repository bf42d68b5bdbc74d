package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	path2 "path"
	"sort"
	"strconv"
	"strings"

	"github.com/Adicc/macea-mapping/internal/pkg/engine"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported mapping format")
	ErrUnknownControl    = errors.New("unknown control")
	ErrDuplicateBinding  = errors.New("duplicate binding")
)

type OptionsRaw struct {
	ScratchByWheelTouch       bool    `toml:"scratch_by_wheel_touch" yaml:"scratch_by_wheel_touch"`
	ScratchTicksPerRevolution int     `toml:"scratch_ticks_per_revolution" yaml:"scratch_ticks_per_revolution"`
	ScratchRPM                float64 `toml:"scratch_rpm" yaml:"scratch_rpm"`
	ScratchAlpha              float64 `toml:"scratch_alpha" yaml:"scratch_alpha"`
	ScratchBeta               float64 `toml:"scratch_beta" yaml:"scratch_beta"`
	JogWheelScrollSpeed       float64 `toml:"jog_wheel_scroll_speed" yaml:"jog_wheel_scroll_speed"`
	EffectUnits               int     `toml:"effect_units" yaml:"effect_units"`
	EffectSlots               int     `toml:"effect_slots" yaml:"effect_slots"`
	LEDStatus                 string  `toml:"led_status" yaml:"led_status"`
}

type DirectRaw struct {
	Group string `toml:"group" yaml:"group"`
	Key   string `toml:"key" yaml:"key"`
	Mode  string `toml:"mode" yaml:"mode"`
}

type DeckRaw struct {
	Group    string               `toml:"group" yaml:"group"`
	LEDs     map[string]string    `toml:"leds" yaml:"leds"`
	Controls map[string]string    `toml:"controls" yaml:"controls"`
	Direct   map[string]DirectRaw `toml:"direct" yaml:"direct"`
}

// MappingRaw is the on-disk shape shared by toml and yaml mapping files.
type MappingRaw struct {
	Name    string     `toml:"name" yaml:"name"`
	Options OptionsRaw `toml:"options" yaml:"options"`
	Decks   []DeckRaw  `toml:"deck" yaml:"deck"`
}

func FormatFromPath(path string) (Format, error) {
	name := strings.ToLower(path)
	switch {
	case strings.HasSuffix(name, ".toml"):
		return FormatTOML, nil
	case strings.HasSuffix(name, ".yaml"), strings.HasSuffix(name, ".yml"):
		return FormatYAML, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, path2.Base(path))
}

// ParseByte accepts decimal or 0x prefixed hex values in 0-255 range.
func ParseByte(raw string) (byte, error) {
	v, err := strconv.ParseUint(strings.TrimSpace(raw), 0, 8)
	if err != nil {
		return 0, fmt.Errorf("parsing byte value \"%s\" failed: %w", raw, err)
	}
	return byte(v), nil
}

// ParseBinding parses "status:data1" pair, eg. "0x90:0x0A".
func ParseBinding(raw string) (Binding, error) {
	parts := strings.Split(raw, ":")
	if len(parts) != 2 {
		return Binding{}, fmt.Errorf("binding \"%s\": expected \"status:data1\"", raw)
	}
	status, err := ParseByte(parts[0])
	if err != nil {
		return Binding{}, err
	}
	if status < 0x80 {
		return Binding{}, fmt.Errorf("binding \"%s\": status byte must be >= 0x80", raw)
	}
	data1, err := ParseByte(parts[1])
	if err != nil {
		return Binding{}, err
	}
	if data1 > 0x7F {
		return Binding{}, fmt.Errorf("binding \"%s\": data byte must be <= 0x7F", raw)
	}
	return Binding{Status: status, Data1: data1}, nil
}

func (b Binding) String() string {
	return fmt.Sprintf("0x%02X:0x%02X", b.Status, b.Data1)
}

func ParseData(data []byte, format Format) (Config, error) {
	raw := MappingRaw{}

	switch format {
	case FormatTOML:
		d := toml.NewDecoder(bytes.NewReader(data))
		d.DisallowUnknownFields()
		err := d.Decode(&raw)
		if err != nil {
			return Config{}, fmt.Errorf("parsing toml failed: %w", err)
		}
	case FormatYAML:
		d := yaml.NewDecoder(bytes.NewReader(data))
		d.KnownFields(true)
		err := d.Decode(&raw)
		if err != nil {
			return Config{}, fmt.Errorf("parsing yaml failed: %w", err)
		}
	default:
		return Config{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}

	return build(raw)
}

func buildOptions(raw OptionsRaw) (Options, error) {
	opts := DefaultOptions()
	opts.ScratchByWheelTouch = raw.ScratchByWheelTouch
	if raw.ScratchTicksPerRevolution != 0 {
		opts.ScratchTicksPerRevolution = raw.ScratchTicksPerRevolution
	}
	if raw.ScratchRPM != 0 {
		opts.ScratchRPM = raw.ScratchRPM
	}
	if raw.ScratchAlpha != 0 {
		opts.ScratchAlpha = raw.ScratchAlpha
		opts.ScratchBeta = raw.ScratchAlpha / 32.0
	}
	if raw.ScratchBeta != 0 {
		opts.ScratchBeta = raw.ScratchBeta
	}
	if raw.JogWheelScrollSpeed != 0 {
		opts.JogWheelScrollSpeed = raw.JogWheelScrollSpeed
	}
	if raw.EffectUnits != 0 {
		opts.EffectUnits = raw.EffectUnits
	}
	if raw.EffectSlots != 0 {
		opts.EffectSlots = raw.EffectSlots
	}
	if raw.LEDStatus != "" {
		status, err := ParseByte(raw.LEDStatus)
		if err != nil {
			return Options{}, fmt.Errorf("led_status: %w", err)
		}
		opts.LEDStatus = status
	}

	if opts.ScratchTicksPerRevolution < 0 {
		return Options{}, fmt.Errorf("scratch_ticks_per_revolution must be positive, got %d", opts.ScratchTicksPerRevolution)
	}
	if opts.EffectUnits < 0 || opts.EffectSlots < 0 {
		return Options{}, fmt.Errorf("effect_units and effect_slots must be positive")
	}
	return opts, nil
}

func build(raw MappingRaw) (Config, error) {
	opts, err := buildOptions(raw.Options)
	if err != nil {
		return Config{}, fmt.Errorf("[options] %w", err)
	}

	if len(raw.Decks) == 0 {
		return Config{}, errors.New("no deck defined")
	}

	var seen = make(map[Binding]string)
	var groups = make(map[string]bool)
	var decks []Deck

	claim := func(b Binding, owner string) error {
		prev, ok := seen[b]
		if ok {
			return fmt.Errorf("%w: %s used by %s and %s", ErrDuplicateBinding, b, prev, owner)
		}
		seen[b] = owner
		return nil
	}

	for i, deckRaw := range raw.Decks {
		if engine.DeckFromGroup(deckRaw.Group) == 0 {
			return Config{}, fmt.Errorf("deck %d: group \"%s\" does not name a deck", i, deckRaw.Group)
		}
		if groups[deckRaw.Group] {
			return Config{}, fmt.Errorf("deck %d: group \"%s\" defined more than once", i, deckRaw.Group)
		}
		groups[deckRaw.Group] = true

		deck := Deck{
			Group:    deckRaw.Group,
			LEDs:     make(map[string]byte),
			Controls: make(map[Binding]ControlID),
			Direct:   make(map[Binding]Direct),
		}

		for name, addrRaw := range deckRaw.LEDs {
			if !SupportedLEDs[name] {
				return Config{}, fmt.Errorf("%s: unsupported led \"%s\"", deck.Group, name)
			}
			addr, err := ParseByte(addrRaw)
			if err != nil {
				return Config{}, fmt.Errorf("%s: led \"%s\": %w", deck.Group, name, err)
			}
			deck.LEDs[name] = addr
		}

		for _, name := range sortedKeys(deckRaw.Controls) {
			id := ControlID(name)
			if _, ok := SupportedControls[id]; !ok {
				return Config{}, fmt.Errorf("%s: %w: \"%s\"", deck.Group, ErrUnknownControl, name)
			}
			b, err := ParseBinding(deckRaw.Controls[name])
			if err != nil {
				return Config{}, fmt.Errorf("%s: control \"%s\": %w", deck.Group, name, err)
			}
			err = claim(b, fmt.Sprintf("%s %s", deck.Group, name))
			if err != nil {
				return Config{}, err
			}
			deck.Controls[b] = id
		}

		for _, bindingRaw := range sortedKeys(deckRaw.Direct) {
			d := deckRaw.Direct[bindingRaw]
			b, err := ParseBinding(bindingRaw)
			if err != nil {
				return Config{}, fmt.Errorf("%s: direct: %w", deck.Group, err)
			}
			mode := DirectMode(d.Mode)
			if !SupportedDirectModes[mode] {
				return Config{}, fmt.Errorf("%s: direct %s: unsupported mode \"%s\"", deck.Group, bindingRaw, d.Mode)
			}
			if d.Key == "" {
				return Config{}, fmt.Errorf("%s: direct %s: key is empty", deck.Group, bindingRaw)
			}
			group := d.Group
			if group == "" {
				group = deck.Group
			}
			err = claim(b, fmt.Sprintf("%s direct %s", deck.Group, d.Key))
			if err != nil {
				return Config{}, err
			}
			deck.Direct[b] = Direct{Group: group, Key: d.Key, Mode: mode}
		}

		decks = append(decks, deck)
	}

	return Config{
		Name:    raw.Name,
		Options: opts,
		Decks:   decks,
	}, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func readMappingConfig(path, configType string) (MappingConfig, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return MappingConfig{}, err
	}

	fd, err := os.OpenFile(path, os.O_RDONLY, 0)
	if err != nil {
		return MappingConfig{}, fmt.Errorf("opening config file failed: %w", err)
	}
	defer fd.Close()

	data, err := io.ReadAll(fd)
	if err != nil {
		return MappingConfig{}, fmt.Errorf("reading file data failed: %w", err)
	}

	conf, err := ParseData(data, format)
	if err != nil {
		return MappingConfig{}, err
	}

	return MappingConfig{
		ConfigFile: path2.Base(path),
		ConfigType: configType,
		Config:     conf,
	}, nil
}
