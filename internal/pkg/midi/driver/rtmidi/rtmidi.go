package rtmidi

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Adicc/macea-mapping/internal/pkg/midi/driver"
	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // autoregisters driver
)

type MIDIInPortFromDriver struct {
	c        chan []byte
	port     drivers.In
	stopFunc func()
}

func (in *MIDIInPortFromDriver) Name() string {
	return in.port.String()
}

func (in *MIDIInPortFromDriver) Open() error {
	err := in.port.Open()
	if err != nil {
		return fmt.Errorf("failed to open input: %w", err)
	}

	stopFn, err := in.port.Listen(func(msg []byte, milliseconds int32) {
		data := make([]byte, len(msg))
		copy(data, msg)
		in.c <- data
	}, drivers.ListenConfig{
		TimeCode:        false,
		ActiveSense:     false,
		SysEx:           false,
		SysExBufferSize: 0,
		OnErr:           func(err error) {},
	})

	if err != nil {
		return fmt.Errorf("failed to listen on device: %w", err)
	}
	in.stopFunc = stopFn
	return nil
}

func (in *MIDIInPortFromDriver) Close() error {
	if in.stopFunc != nil {
		in.stopFunc()
	}
	close(in.c)
	return in.port.Close()
}

func (in *MIDIInPortFromDriver) ReceiveChannel() <-chan []byte {
	return in.c
}

func NewMIDIInPortFromDriver(in drivers.In) (driver.MIDIIn, error) {
	if in == nil {
		return nil, fmt.Errorf("nil input port")
	}
	port := &MIDIInPortFromDriver{
		c:    make(chan []byte, 16),
		port: in,
	}
	return port, nil
}

type MIDIOutPortFromDriver struct {
	c    chan []byte
	port drivers.Out
	done chan struct{}
}

func (out *MIDIOutPortFromDriver) Name() string {
	return out.port.String()
}

func (out *MIDIOutPortFromDriver) Open() error {
	err := out.port.Open()
	if err != nil {
		return fmt.Errorf("failed to open output: %w", err)
	}

	go func() {
		defer close(out.done)
		for event := range out.c {
			_ = out.port.Send(event)
		}
	}()
	return nil
}

// Close flushes pending events before closing the port, LED "all off" messages sent on shutdown have to land.
func (out *MIDIOutPortFromDriver) Close() error {
	close(out.c)
	<-out.done
	return out.port.Close()
}

func (out *MIDIOutPortFromDriver) SendChannel() chan<- []byte {
	return out.c
}

func NewMIDIOutPortFromDriver(out drivers.Out) (driver.MIDIOut, error) {
	if out == nil {
		return nil, fmt.Errorf("nil output port")
	}
	port := &MIDIOutPortFromDriver{
		c:    make(chan []byte, 256),
		port: out,
		done: make(chan struct{}),
	}

	return port, nil
}

// CreateVirtualPort opens a virtual port pair, useful to feed the mapper from another application.
func CreateVirtualPort(name string) (driver.Port, error) {
	d := drivers.Get()
	if d == nil {
		return driver.Port{}, fmt.Errorf("failed to get driver")
	}

	rtmidid, ok := d.(*rtmididrv.Driver)
	if !ok {
		return driver.Port{}, fmt.Errorf("failed to convert driver")
	}

	in, err := rtmidid.OpenVirtualIn(name)
	if err != nil {
		return driver.Port{}, fmt.Errorf("failed to open virtual input: %w", err)
	}
	out, err := rtmidid.OpenVirtualOut(name)
	if err != nil {
		return driver.Port{}, fmt.Errorf("failed to open virtual output: %w", err)
	}

	inPort, err := NewMIDIInPortFromDriver(in)
	if err != nil {
		return driver.Port{}, fmt.Errorf("failed to open input driver: %w", err)
	}

	outPort, err := NewMIDIOutPortFromDriver(out)
	if err != nil {
		return driver.Port{}, fmt.Errorf("failed to open output driver: %w", err)
	}

	return driver.Port{
		Input:  inPort,
		Output: outPort,
	}, nil
}

// PortNames lists input and output port names, sorted.
func PortNames() (ins, outs []string) {
	for _, p := range gomidi.GetInPorts() {
		ins = append(ins, p.String())
	}
	for _, p := range gomidi.GetOutPorts() {
		outs = append(outs, p.String())
	}
	sort.Strings(ins)
	sort.Strings(outs)
	return ins, outs
}

// FindPort picks the first input and output whose names contain given substrings (case insensitive).
// Port is returned when at least one direction was found.
func FindPort(inName, outName string) (driver.Port, error) {
	var port driver.Port

	inName, outName = strings.ToLower(inName), strings.ToLower(outName)

	for _, in := range gomidi.GetInPorts() {
		if !strings.Contains(strings.ToLower(in.String()), inName) {
			continue
		}
		p, err := NewMIDIInPortFromDriver(in)
		if err != nil {
			return driver.Port{}, err
		}
		port.Input = p
		break
	}

	for _, out := range gomidi.GetOutPorts() {
		if !strings.Contains(strings.ToLower(out.String()), outName) {
			continue
		}
		p, err := NewMIDIOutPortFromDriver(out)
		if err != nil {
			return driver.Port{}, err
		}
		port.Output = p
		break
	}

	if port.Input == nil && port.Output == nil {
		return driver.Port{}, fmt.Errorf("%w: input \"%s\", output \"%s\"", driver.ErrPortNotFound, inName, outName)
	}
	return port, nil
}
