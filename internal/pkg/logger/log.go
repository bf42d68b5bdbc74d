package logger

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var Messages = make(chan []byte, 128)

const (
	ErrorLvl           = 0
	WarningLvl         = 1
	InfoLvl            = 2
	ActionLvl          = 3
	KeysLvl            = 4
	KeysNotAssignedLvl = 5
	AnalogLvl          = 6

	DebugLvl = 378
)

var (
	Error           = zap.Int("level", ErrorLvl)
	Warning         = zap.Int("level", WarningLvl)
	Info            = zap.Int("level", InfoLvl)
	Action          = zap.Int("level", ActionLvl)
	Keys            = zap.Int("level", KeysLvl)
	KeysNotAssigned = zap.Int("level", KeysNotAssignedLvl)
	Analog          = zap.Int("level", AnalogLvl)

	Debug = zap.Int("level", DebugLvl)
)

type chanWriter struct {
	sync.Mutex
}

func (w *chanWriter) Write(p []byte) (n int, err error) {
	w.Lock()
	var newSlice = make([]byte, len(p))
	copy(newSlice, p)
	Messages <- newSlice
	w.Unlock()
	return len(p), nil
}

func (w *chanWriter) Sync() error {
	return nil
}

var (
	once   sync.Once
	shared *zap.Logger
)

// GetLogger returns the process wide logger, every entry ends up in Messages as a single JSON document.
// Somebody has to drain Messages, otherwise logging blocks once the buffer is full.
func GetLogger() *zap.Logger {
	once.Do(func() {
		cfg := zap.NewProductionEncoderConfig()
		cfg.SkipLineEnding = true
		cfg.EncodeTime = zapcore.EpochNanosTimeEncoder
		cfg.LevelKey = ""
		encoder := zapcore.NewJSONEncoder(cfg)

		shared = zap.New(
			zapcore.NewCore(encoder, zapcore.Lock(&chanWriter{}), zap.DebugLevel),
			zap.AddCaller(),
		)
	})
	return shared
}
