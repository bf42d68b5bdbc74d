package display

import (
	"testing"

	"github.com/d2r2/go-hd44780"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFitLine(t *testing.T) {
	for _, tc := range []struct {
		name     string
		input    string
		cols     int
		expected []byte
	}{
		{"padded", "ab", 4, []byte("ab  ")},
		{"truncated", "abcdef", 4, []byte("abcd")},
		{"bars", "▁█x", 4, []byte{0, 7, 'x', ' '}},
		{"unsupported rune", "é", 2, []byte("? ")},
	} {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, FitLine(tc.input, tc.cols))
		})
	}
}

func TestScreenConfig(t *testing.T) {
	lcdType, err := ParseLcdType("16x2")
	require.NoError(t, err)
	assert.Equal(t, hd44780.LCD_16x2, lcdType)

	cfg := ScreenConfig{LcdType: lcdType}
	cols, rows := cfg.Size()
	assert.Equal(t, 16, cols)
	assert.Equal(t, 2, rows)
	assert.False(t, cfg.HaveExitMessage())

	cfg.LcdType, err = ParseLcdType("20x4")
	require.NoError(t, err)
	cfg.ExitMessage[2] = "bye"
	cols, rows = cfg.Size()
	assert.Equal(t, 20, cols)
	assert.Equal(t, 4, rows)
	assert.True(t, cfg.HaveExitMessage())

	_, err = ParseLcdType("40x2")
	assert.Error(t, err)
}
