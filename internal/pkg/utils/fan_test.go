package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive[T any](t *testing.T, c <-chan T) T {
	t.Helper()
	select {
	case v := <-c:
		return v
	case <-time.After(time.Second):
		t.Fatal("nothing received")
	}
	var zero T
	return zero
}

func TestDynamicFanOut(t *testing.T) {
	input := make(chan int, 4)
	fan := NewDynamicFanOut(input)

	id1, out1, err := fan.SpawnOutput()
	require.NoError(t, err)
	id2, out2, err := fan.SpawnOutput()
	require.NoError(t, err)
	assert.NotEqual(t, id1, id2)
	assert.Equal(t, 4, cap(out1))
	assert.Equal(t, 2, fan.Outputs())

	input <- 7
	assert.Equal(t, 7, receive(t, out1))
	assert.Equal(t, 7, receive(t, out2))

	require.NoError(t, fan.DespawnOutput(id1))
	_, ok := <-out1
	assert.False(t, ok)
	assert.Error(t, fan.DespawnOutput(id1))

	input <- 8
	assert.Equal(t, 8, receive(t, out2))

	close(input)
	_, ok = <-out2
	assert.False(t, ok)
	assert.Equal(t, 0, fan.Outputs())

	_, _, err = fan.SpawnOutput()
	assert.ErrorIs(t, err, ErrFanClosed)
}

func TestDynamicFanOutUnbufferedInput(t *testing.T) {
	input := make(chan string)
	fan := NewDynamicFanOut(input)

	_, out, err := fan.SpawnOutput()
	require.NoError(t, err)
	assert.Equal(t, 1, cap(out))

	input <- "a"
	assert.Equal(t, "a", receive(t, out))
	close(input)
}
