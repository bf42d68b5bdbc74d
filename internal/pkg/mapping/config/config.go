package config

const (
	Loop            ControlID = "loop"
	Reloop          ControlID = "reloop"
	LoopIn          ControlID = "loop_in"
	LoopOut         ControlID = "loop_out"
	ClearLoop       ControlID = "clear_loop"
	Play            ControlID = "play"
	TraxxPress      ControlID = "traxx_press"
	SelectTrack     ControlID = "select_track"
	SelectPlaylist  ControlID = "select_playlist"
	LoadTrack       ControlID = "load_track"
	NextEffect      ControlID = "next_effect"
	EffectDryWet    ControlID = "effect_dry_wet"
	DryWetPress     ControlID = "dry_wet_press"
	FxAmount        ControlID = "fx_amount"
	FxPress         ControlID = "fx_press"
	Filter          ControlID = "filter"
	Shift           ControlID = "shift"
	ScratchToggle   ControlID = "scratch_toggle"
	ScrollToggle    ControlID = "scroll_toggle"
	WheelTouch      ControlID = "wheel_touch"
	WheelTurn       ControlID = "wheel_turn"
	BeatLoopPress   ControlID = "beat_loop_press"
	BeatMove        ControlID = "beat_move"
	LoopLengthPress ControlID = "loop_length_press"
	LoopLength      ControlID = "loop_length"

	DirectAbsolute DirectMode = "absolute" // value / 127
	DirectButton   DirectMode = "button"   // 1 on press, 0 on release
	DirectToggle   DirectMode = "toggle"   // flips on press
	DirectRelative DirectMode = "relative" // value - 64
	DirectBipolar  DirectMode = "bipolar"  // -1 to 1, centered at 64

	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
)

// SupportedControls maps every control to whether it carries a continuous value (knobs, jog wheel).
var SupportedControls = map[ControlID]bool{
	Loop:            false,
	Reloop:          false,
	LoopIn:          false,
	LoopOut:         false,
	ClearLoop:       false,
	Play:            false,
	TraxxPress:      false,
	SelectTrack:     true,
	SelectPlaylist:  true,
	LoadTrack:       false,
	NextEffect:      false,
	EffectDryWet:    true,
	DryWetPress:     false,
	FxAmount:        true,
	FxPress:         false,
	Filter:          true,
	Shift:           false,
	ScratchToggle:   false,
	ScrollToggle:    false,
	WheelTouch:      false,
	WheelTurn:       true,
	BeatLoopPress:   false,
	BeatMove:        true,
	LoopLengthPress: false,
	LoopLength:      true,
}

var SupportedDirectModes = map[DirectMode]bool{
	DirectAbsolute: true,
	DirectButton:   true,
	DirectToggle:   true,
	DirectRelative: true,
	DirectBipolar:  true,
}

// SupportedLEDs lists logical LED names the mapper drives.
var SupportedLEDs = map[string]bool{
	"cue_indicator":  true,
	"cue_default":    true,
	"play_indicator": true,
	"load_indicator": true,
	"pfl":            true,
	"loop":           true,
	"reloop":         true,
	"sync_enabled":   true,
	"fx_on":          true,
	"fx_sel":         true,
	"scratch_active": true,
	"scroll_active":  true,
	"vu_meter":       true,
}

type ControlID string
type DirectMode string
type Format string

func (c ControlID) Analog() bool {
	return SupportedControls[c]
}

// Binding identifies incoming midi message by its status byte and first data byte.
type Binding struct {
	Status byte
	Data1  byte
}

type Direct struct {
	Group string
	Key   string
	Mode  DirectMode
}

type Deck struct {
	Group    string
	LEDs     map[string]byte
	Controls map[Binding]ControlID
	Direct   map[Binding]Direct
}

type Options struct {
	ScratchByWheelTouch       bool
	ScratchTicksPerRevolution int
	ScratchRPM                float64
	ScratchAlpha              float64
	ScratchBeta               float64
	JogWheelScrollSpeed       float64
	EffectUnits               int
	EffectSlots               int
	LEDStatus                 byte
}

type Config struct {
	Name    string
	Options Options
	Decks   []Deck
}

func DefaultOptions() Options {
	alpha := 1.0 / 8.0
	return Options{
		ScratchByWheelTouch:       false,
		ScratchTicksPerRevolution: 620,
		ScratchRPM:                33.33,
		ScratchAlpha:              alpha,
		ScratchBeta:               alpha / 32.0,
		JogWheelScrollSpeed:       1.0,
		EffectUnits:               4,
		EffectSlots:               3,
		LEDStatus:                 0x90,
	}
}

type MappingConfig struct {
	ConfigFile string
	ConfigType string // factory or user
	Config     Config
}
