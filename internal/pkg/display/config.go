package display

import (
	"fmt"
	"time"

	"github.com/d2r2/go-hd44780"
)

type ScreenConfig struct {
	Enabled     bool
	LcdType     hd44780.LcdType
	Bus         int
	Address     uint8
	UpdateRate  time.Duration
	ExitMessage [4]string
}

// ParseLcdType accepts "16x2" and "20x4".
func ParseLcdType(s string) (hd44780.LcdType, error) {
	switch s {
	case "16x2":
		return hd44780.LCD_16x2, nil
	case "20x4":
		return hd44780.LCD_20x4, nil
	}
	return 0, fmt.Errorf("unsupported screen type \"%s\", expected 16x2 or 20x4", s)
}

// Size returns amount of columns and rows of the screen.
func (s *ScreenConfig) Size() (cols, rows int) {
	if s.LcdType == hd44780.LCD_16x2 {
		return 16, 2
	}
	return 20, 4
}

func (s *ScreenConfig) HaveExitMessage() bool {
	for _, v := range s.ExitMessage {
		if len(v) > 0 {
			return true
		}
	}
	return false
}
