package watcherui

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLetterIndex(t *testing.T) {
	assert.Equal(t, 0, letterIndex('a'))
	assert.Equal(t, 25, letterIndex('z'))
	assert.Equal(t, 0, letterIndex('A'))
	assert.Equal(t, -1, letterIndex('1'))
	assert.Equal(t, -1, letterIndex(' '))
}

func TestPad(t *testing.T) {
	assert.Equal(t, "", pad(0))
	assert.Equal(t, "", pad(-3))
	assert.Equal(t, "   ", pad(3))
}
