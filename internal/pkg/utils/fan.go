package utils

import (
	"errors"
	"fmt"
	"sync"
)

var ErrFanClosed = errors.New("input channel is closed")

// DynamicFanOut copies every value from input to all currently spawned outputs.
// Outputs are closed once input is closed.
type DynamicFanOut[T any] struct {
	input    <-chan T
	inputCap int

	mutex   sync.Mutex
	closed  bool
	nextID  int64
	outputs map[int64]chan T
}

func NewDynamicFanOut[T any](input <-chan T) *DynamicFanOut[T] {
	f := DynamicFanOut[T]{
		input:    input,
		inputCap: cap(input),
		outputs:  make(map[int64]chan T),
	}
	go f.run()
	return &f
}

func (f *DynamicFanOut[T]) run() {
	for e := range f.input {
		f.mutex.Lock()
		for _, o := range f.outputs {
			o <- e
		}
		f.mutex.Unlock()
	}

	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.closed = true
	for id, o := range f.outputs {
		close(o)
		delete(f.outputs, id)
	}
}

// SpawnOutput creates new output channel and its ID for later despawning.
// Output channel has the size of input channel, at least 1.
// Slow reader blocks every other output, it has to keep draining until the channel is closed or despawned.
func (f *DynamicFanOut[T]) SpawnOutput() (int64, <-chan T, error) {
	ocap := f.inputCap
	if ocap == 0 {
		ocap = 1
	}

	f.mutex.Lock()
	defer f.mutex.Unlock()
	if f.closed {
		return 0, nil, ErrFanClosed
	}

	id := f.nextID
	f.nextID++
	newChan := make(chan T, ocap)
	f.outputs[id] = newChan
	return id, newChan, nil
}

// DespawnOutput removes output channel with given ID and closes it.
func (f *DynamicFanOut[T]) DespawnOutput(id int64) error {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	c, ok := f.outputs[id]
	if !ok {
		return fmt.Errorf("output id %d not found", id)
	}
	close(c)
	delete(f.outputs, id)

	return nil
}

// Outputs returns the number of spawned outputs.
func (f *DynamicFanOut[T]) Outputs() int {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return len(f.outputs)
}
