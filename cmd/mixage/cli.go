package main

import (
	"encoding/json"
	"fmt"
	"hash/fnv"
	"strconv"
	"strings"
	"time"

	"github.com/Adicc/macea-mapping/internal/pkg/logger"
	"github.com/awesome-gocui/gocui"
	"github.com/logrusorgru/aurora"
	"github.com/lucasb-eyer/go-colorful"
)

const (
	ViewLogs     = "logs"
	ViewOverview = "overview"

	overviewHeight = 8
)

func GetCli() (*gocui.Gui, error) {
	g, err := gocui.NewGui(gocui.Output256, true)
	if err != nil {
		return nil, err
	}

	g.SetManagerFunc(Layout)

	if err := g.SetKeybinding("", gocui.KeyCtrlC, gocui.ModNone, quit); err != nil {
		return nil, err
	}
	if err := g.SetKeybinding("", 'q', gocui.ModNone, quit); err != nil {
		return nil, err
	}

	return g, nil
}

func Layout(g *gocui.Gui) error {
	maxX, maxY := g.Size()

	if v, err := g.SetView(ViewOverview, 0, 0, maxX-1, overviewHeight, 0); err != nil {
		if err != gocui.ErrUnknownView {
			return err
		}
		v.Title = "[Decks]"
		v.Autoscroll = false
		v.Wrap = false
		v.Frame = true
	}

	if v, err := g.SetView(ViewLogs, 0, overviewHeight, maxX-1, maxY-1, gocui.TOP); err != nil {
		if err != gocui.ErrUnknownView {
			return err
		}
		v.Title = "[Logs]"
		v.Autoscroll = false
		v.Wrap = false
		v.Frame = true
	}
	return nil
}

func quit(g *gocui.Gui, v *gocui.View) error {
	return gocui.ErrQuit
}

func quitUI(g *gocui.Gui) error {
	return gocui.ErrQuit
}

type TimeNanosecond time.Time

func (j *TimeNanosecond) UnmarshalJSON(b []byte) error {
	v, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		return err
	}
	*j = TimeNanosecond(time.Unix(0, v))
	return nil
}

func (j TimeNanosecond) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Time(j))
}

type Entry struct {
	Ts     TimeNanosecond `json:"ts"`
	Caller string         `json:"caller"`
	Msg    string         `json:"msg"`
	Level  int            `json:"level"`

	Deck    string `json:"deck"`
	Control string `json:"control"`
	Config  string `json:"config"`
}

func unpack(data []byte) (Entry, error) {
	var v Entry
	err := json.Unmarshal(data, &v)
	return v, err
}

type Feeder struct {
	view     *gocui.View
	au       aurora.Aurora
	logLevel int
}

func NewFeeder(gui *gocui.Gui, viewName string, logLevel int, au aurora.Aurora) (Feeder, error) {
	v, err := gui.View(viewName)
	if err != nil {
		return Feeder{}, err
	}

	return Feeder{view: v, logLevel: logLevel, au: au}, nil
}

func gray(v uint8) aurora.Color {
	if v > 23 {
		v = 23
	}
	return aurora.Color(232+v) << 16
}

func color(r, g, b uint8) aurora.Color {
	return aurora.Color(16+36*r+6*g+b) << 16
}

func terminator(r rune) bool {
	return r >= 0x40 && r <= 0x7e
}

// returns color for string, will return the same color for the same string
func colorForString(au aurora.Aurora, s string) aurora.Value {
	h := fnv.New32a()
	h.Write([]byte(s))

	c := colorful.Hsv(float64(h.Sum32()%360), 0.6, 1)
	r, g, b := c.RGB255()
	return au.Index(16+36*(r/51)+6*(g/51)+b/51, s)
}

// rawStringLen returns a len of string ignoring included escape sequences
func rawStringLen(s string) int {
	var sequence bool
	var escLens []int
	var escLen int

	for i, r := range s {
		if !sequence {
			if r == '\033' {
				if i >= len(s)-1 { // esc seems to be last character
					continue
				}
				if s[i+1] == '[' {
					sequence = true
					escLen += 1
					continue
				}

			}
		} else {
			if r == '[' && s[i-1] == '\033' {
				escLen += 1
				continue
			}
			if terminator(r) {
				sequence = false
				escLen += 1
				escLens = append(escLens, escLen)
				escLen = 0
			} else {
				escLen += 1
			}
		}
	}
	var sum int
	for _, x := range escLens {
		sum += x
	}
	return len(s) - sum
}

func levelColor(level int) aurora.Color {
	switch level {
	case logger.ErrorLvl:
		return color(5, 1, 1)
	case logger.WarningLvl:
		return color(5, 5, 1)
	case logger.InfoLvl:
		return gray(18)
	case logger.ActionLvl:
		return color(2, 4, 5)
	case logger.KeysLvl:
		return gray(15)
	case logger.KeysNotAssignedLvl:
		return gray(13)
	case logger.AnalogLvl:
		return gray(11)
	default:
		return gray(9)
	}
}

func prepareString(msg Entry, au aurora.Aurora, width, logLevel int) string {
	if msg.Level > logLevel {
		return ""
	}

	msgColor := levelColor(msg.Level)

	t := time.Time(msg.Ts)
	timestamp := fmt.Sprintf(
		"[%s]",
		au.Reset(t.Format("15:04:05.000")).Colorize(color(1, 1, 5)).String(),
	)

	var fields []string
	if msg.Config != "" {
		fields = append(fields, fmt.Sprintf("[config=%s]", colorForString(au, msg.Config).String()))
	}
	if msg.Control != "" {
		fields = append(fields, fmt.Sprintf("[%s]", colorForString(au, msg.Control).String()))
	}
	if msg.Deck != "" {
		fields = append(fields, fmt.Sprintf("[deck=%s]", colorForString(au, msg.Deck).String()))
	}
	if logLevel >= logger.DebugLvl && msg.Caller != "" {
		file, line, _ := strings.Cut(msg.Caller, ":")
		fields = append(fields, fmt.Sprintf("(%s:%s)", colorForString(au, file).String(), line))
	}
	joined := strings.Join(fields, " ")

	if width < 0 {
		m := au.Reset(msg.Msg).Colorize(msgColor).String()
		return fmt.Sprintf("%s %s %s", timestamp, m, joined)
	}

	fieldsLen := rawStringLen(joined)
	timeLen := rawStringLen(timestamp)
	msgLen := len(msg.Msg)

	var m string
	freeSpace := width - (timeLen + 1 + msgLen + 1 + fieldsLen)
	if freeSpace < 0 {
		limit := (width - (fieldsLen + 1 + timeLen + 1)) - 3
		if limit < 20 {
			m = au.Reset(msg.Msg).Colorize(msgColor).String()
			joined = au.Gray(12, "(fields hidden)").String()
			freeSpace = width - (timeLen + 1 + msgLen + 1 + rawStringLen(joined))
			if freeSpace < 0 {
				freeSpace = 0
			}
		} else {
			m = au.Reset(msg.Msg[:limit] + "(…)").Colorize(msgColor).String()
			freeSpace = 0
		}
	} else {
		m = au.Reset(msg.Msg).Colorize(msgColor).String()
	}

	return fmt.Sprintf("%s %s%s %s", timestamp, m, strings.Repeat(" ", freeSpace), joined)
}

func (f *Feeder) Write(data []byte) {
	msg, err := unpack(data)
	if err != nil {
		f.view.Write(data)
		f.view.Write([]byte{'\n'})
		return
	}

	x, _ := f.view.Size()

	s := prepareString(msg, f.au, x, f.logLevel)
	if s != "" {
		f.view.Write([]byte(s))
		f.view.Write([]byte{'\n'})
	}
}
