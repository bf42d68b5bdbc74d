package main

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/Adicc/macea-mapping/internal/pkg/display"
	"github.com/Adicc/macea-mapping/internal/pkg/logger"
	"github.com/go-ini/ini"
)

type Mixage struct {
	PressHoldWindow time.Duration
	IndicatorRate   time.Duration
	LogViewRate     time.Duration
	LogBufferSize   int
}

type MIDI struct {
	InputPort   string
	OutputPort  string
	Mapping     string
	VirtualPort string
}

type MixageConfig struct {
	Mixage Mixage
	MIDI   MIDI
	Screen display.ScreenConfig
}

func positiveInt(section *ini.Section, name string) (int, error) {
	key, err := section.GetKey(name)
	if err != nil {
		return 0, fmt.Errorf("[%s]: %w", section.Name(), err)
	}
	i, err := key.Int()
	if err != nil {
		return 0, fmt.Errorf("[%s] %s: %w", section.Name(), name, err)
	}
	if i <= 0 {
		return 0, fmt.Errorf("[%s] %s: has to be positive, got %d", section.Name(), name, i)
	}
	return i, nil
}

func stringKey(section *ini.Section, name string) (string, error) {
	key, err := section.GetKey(name)
	if err != nil {
		return "", fmt.Errorf("[%s]: %w", section.Name(), err)
	}
	return key.String(), nil
}

func LoadMixageConfig(file string) (MixageConfig, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return MixageConfig{}, err
	}

	cfg, err := ini.Load(data)
	if err != nil {
		return MixageConfig{}, fmt.Errorf("cannot parse \"%s\": %w", file, err)
	}

	var c MixageConfig

	// [mixage]
	mixage, err := cfg.GetSection("mixage")
	if err != nil {
		return MixageConfig{}, err
	}
	i, err := positiveInt(mixage, "press_hold_window")
	if err != nil {
		return MixageConfig{}, err
	}
	c.Mixage.PressHoldWindow = time.Millisecond * time.Duration(i)

	i, err = positiveInt(mixage, "indicator_rate")
	if err != nil {
		return MixageConfig{}, err
	}
	c.Mixage.IndicatorRate = time.Millisecond * time.Duration(i)

	i, err = positiveInt(mixage, "log_view_rate")
	if err != nil {
		return MixageConfig{}, err
	}
	c.Mixage.LogViewRate = time.Second / time.Duration(i)

	i, err = positiveInt(mixage, "log_buffer_size")
	if err != nil {
		return MixageConfig{}, err
	}
	c.Mixage.LogBufferSize = i

	// [midi]
	midiSection, err := cfg.GetSection("midi")
	if err != nil {
		return MixageConfig{}, err
	}
	for _, pair := range []struct {
		name string
		dst  *string
	}{
		{"input_port", &c.MIDI.InputPort},
		{"output_port", &c.MIDI.OutputPort},
		{"mapping", &c.MIDI.Mapping},
		{"virtual_port", &c.MIDI.VirtualPort},
	} {
		*pair.dst, err = stringKey(midiSection, pair.name)
		if err != nil {
			return MixageConfig{}, err
		}
	}

	// [screen]
	screen, err := cfg.GetSection("screen")
	if err != nil {
		return MixageConfig{}, err
	}
	c.Screen, err = loadScreenConfig(screen)
	if err != nil {
		return MixageConfig{}, err
	}

	return c, nil
}

func loadScreenConfig(screen *ini.Section) (display.ScreenConfig, error) {
	var s display.ScreenConfig

	enabled, err := screen.GetKey("enabled")
	if err != nil {
		return s, fmt.Errorf("[screen]: %w", err)
	}
	s.Enabled, err = enabled.Bool()
	if err != nil {
		return s, fmt.Errorf("[screen] enabled: %w", err)
	}

	screenType, err := stringKey(screen, "type")
	if err != nil {
		return s, err
	}
	s.LcdType, err = display.ParseLcdType(screenType)
	if err != nil {
		return s, fmt.Errorf("[screen] type: %w", err)
	}

	bus, err := screen.GetKey("bus")
	if err != nil {
		return s, fmt.Errorf("[screen]: %w", err)
	}
	s.Bus, err = bus.Int()
	if err != nil {
		return s, fmt.Errorf("[screen] bus: %w", err)
	}

	address, err := stringKey(screen, "address")
	if err != nil {
		return s, err
	}
	addr, err := strconv.ParseUint(address, 0, 8)
	if err != nil {
		return s, fmt.Errorf("[screen] address: %w", err)
	}
	s.Address = uint8(addr)

	i, err := positiveInt(screen, "update_rate")
	if err != nil {
		return s, err
	}
	s.UpdateRate = time.Millisecond * time.Duration(i)

	for i := range s.ExitMessage {
		s.ExitMessage[i], err = stringKey(screen, fmt.Sprintf("exit_message%d", i+1))
		if err != nil {
			return s, err
		}
	}
	return s, nil
}

//go:embed mixage-config/mixage.config
//go:embed mixage-config/*/*
var templateConfig embed.FS

const (
	templateRoot = "mixage-config"
	configFile   = "mixage.config"
)

func writeTemplate(templatePath, dst string) error {
	data, err := fs.ReadFile(templateConfig, templatePath)
	if err != nil {
		return fmt.Errorf("cannot read \"%s\" template file: %w", templatePath, err)
	}

	err = os.WriteFile(dst, data, 0o666)
	if err != nil {
		return fmt.Errorf("cannot write data into \"%s\" file: %w", dst, err)
	}
	return nil
}

// destination maps embedded template path onto config directory.
func destination(configDir, templatePath string) string {
	rel := strings.TrimPrefix(strings.TrimPrefix(templatePath, templateRoot), "/")
	return filepath.Join(configDir, filepath.FromSlash(rel))
}

// createConfigDirectoryIfNeeded creates config directory if necessary.
// It also updates factory mapping files, mixage.config and user mappings stay intact.
func createConfigDirectoryIfNeeded(configDir string) error {
	_, err := os.Stat(configDir)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("cannot open config directory: %w", err)
		}
		log.Info("config not exist, generating tree...", logger.Info)

		err = fs.WalkDir(templateConfig, templateRoot, func(templatePath string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			dst := destination(configDir, templatePath)
			if d.IsDir() {
				err := os.MkdirAll(dst, 0o777)
				if err != nil {
					return fmt.Errorf("cannot create \"%s\" directory: %w", dst, err)
				}
				return nil
			}

			err = writeTemplate(templatePath, dst)
			if err != nil {
				return err
			}
			log.Info(fmt.Sprintf("Created \"%s\" file", dst), logger.Debug)
			return nil
		})
		if err != nil {
			return fmt.Errorf("config generation failed: %w", err)
		}
		log.Info("config generation done", logger.Info)
		return nil
	}

	// update factory mappings
	err = fs.WalkDir(templateConfig, path.Join(templateRoot, "factory"), func(templatePath string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		dst := destination(configDir, templatePath)
		if d.IsDir() {
			err := os.MkdirAll(dst, 0o777)
			if err != nil {
				return fmt.Errorf("cannot create \"%s\" directory: %w", dst, err)
			}
			return nil
		}

		current, err := os.ReadFile(dst)
		if err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("cannot read \"%s\" file: %w", dst, err)
			}
			log.Info(fmt.Sprintf("Creating new factory mapping: \"%s\"", dst), logger.Debug)
			return writeTemplate(templatePath, dst)
		}

		newData, err := fs.ReadFile(templateConfig, templatePath)
		if err != nil {
			return fmt.Errorf("cannot open \"%s\" file template: %w", templatePath, err)
		}
		if bytes.Equal(current, newData) {
			log.Info(fmt.Sprintf("File \"%s\" not changed", dst), logger.Debug)
			return nil
		}
		log.Info(fmt.Sprintf("File \"%s\" changed, replacing data...", dst), logger.Debug)
		return writeTemplate(templatePath, dst)
	})
	if err != nil {
		return fmt.Errorf("update factory mappings failed: %w", err)
	}
	return nil
}
