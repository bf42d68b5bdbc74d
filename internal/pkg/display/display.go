// Package display drives HD44780 character screen connected over I2C, used as a headless status screen.
package display

import (
	"fmt"
	"strings"
	"sync"

	"github.com/Adicc/macea-mapping/internal/pkg/logger"
	device "github.com/d2r2/go-hd44780"
	"github.com/d2r2/go-i2c"
	i2cLogger "github.com/d2r2/go-logger"
)

var log = logger.GetLogger()

// Blocks are bar graph characters, each one is mapped onto custom screen character.
var Blocks = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

var barChars = [][]byte{
	{0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x1F}, // "▁"
	{0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x1F, 0x1F}, // "▂"
	{0x00, 0x00, 0x00, 0x00, 0x00, 0x1F, 0x1F, 0x1F}, // "▃"
	{0x00, 0x00, 0x00, 0x00, 0x1F, 0x1F, 0x1F, 0x1F}, // "▄"
	{0x00, 0x00, 0x00, 0x1F, 0x1F, 0x1F, 0x1F, 0x1F}, // "▅"
	{0x00, 0x00, 0x1F, 0x1F, 0x1F, 0x1F, 0x1F, 0x1F}, // "▆"
	{0x00, 0x1F, 0x1F, 0x1F, 0x1F, 0x1F, 0x1F, 0x1F}, // "▇"
	{0x1F, 0x1F, 0x1F, 0x1F, 0x1F, 0x1F, 0x1F, 0x1F}, // "█"
}

func getDisplay(addr uint8, bus int, lcdType device.LcdType) (*device.Lcd, *i2c.I2C, error) {
	i2cLogger.ChangePackageLogLevel("i2c", i2cLogger.InfoLevel)

	lcdRaw, err := i2c.NewI2C(addr, bus)
	if err != nil {
		return nil, nil, err
	}

	lcd, err := device.NewLcd(lcdRaw, lcdType)
	if err != nil {
		return nil, lcdRaw, err
	}

	return lcd, lcdRaw, nil
}

func loadCustomCharacters(lcd *device.Lcd, characters [][]byte) {
	for i, char := range characters {
		var location = uint8(i) & 0x7

		lcd.Command(device.CMD_CGRAM_Set | (location << 3))
		lcd.Write(char)
	}
}

var conversionMap = func() map[rune]byte {
	m := make(map[rune]byte, len(Blocks))
	for i, r := range Blocks {
		m[r] = byte(i)
	}
	return m
}()

// FitLine converts s into exactly cols screen characters, bar graph runes become custom character codes.
func FitLine(s string, cols int) []byte {
	line := make([]byte, 0, cols)
	for _, r := range s {
		if len(line) == cols {
			break
		}
		if n, ok := conversionMap[r]; ok {
			line = append(line, n)
			continue
		}
		if r > 0x7E {
			r = '?'
		}
		line = append(line, byte(r))
	}
	for len(line) < cols {
		line = append(line, ' ')
	}
	return line
}

type DisplayData struct {
	Lines   [4]string
	LastMsg bool // exit message, screen gets cleared before writing
}

// HandleDisplay writes every received frame onto the screen until dd is closed.
func HandleDisplay(wg *sync.WaitGroup, cfg ScreenConfig, dd <-chan DisplayData) {
	defer wg.Done()
	lcd, bus, err := getDisplay(cfg.Address, cfg.Bus, cfg.LcdType)
	if err != nil {
		if bus != nil {
			bus.Close()
		}
		log.Info(fmt.Sprintf("failed to open screen: %v", err), logger.Warning)
		for range dd {
		}
		return
	}
	defer bus.Close()

	loadCustomCharacters(lcd, barChars)
	lcd.BacklightOn()
	lcd.Clear()

	cols, rows := cfg.Size()
	for data := range dd {
		if data.LastMsg {
			lcd.Clear()
		}
		for i, s := range data.Lines[:rows] {
			lcd.SetPosition(i, 0)
			lcd.Write(FitLine(strings.TrimRight(s, "\n"), cols))
		}
	}

	log.Info("display closed", logger.Debug)
}
