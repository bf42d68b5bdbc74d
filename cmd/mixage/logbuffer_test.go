package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLogBuffer(t *testing.T) {
	buf := newLogBuffer(3)
	assert.Nil(t, buf.ReadLastMessages(5))

	buf.WriteMessage([]byte("a"))
	buf.WriteMessage([]byte("b"))
	assert.Equal(t, [][]byte{[]byte("a"), []byte("b")}, buf.ReadLastMessages(5))

	buf.WriteMessage([]byte("c"))
	buf.WriteMessage([]byte("d"))
	buf.WriteMessage([]byte("e"))
	assert.Equal(t, [][]byte{[]byte("c"), []byte("d"), []byte("e")}, buf.ReadLastMessages(3))
	assert.Equal(t, [][]byte{[]byte("d"), []byte("e")}, buf.ReadLastMessages(2))
	assert.Nil(t, buf.ReadLastMessages(0))
}
