package ui

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPercentAndDisable(t *testing.T) {
	Disable()
	assert.Equal(t, "95.0%", Percent(0.95, 0.9, 0.5))
	assert.Equal(t, "40.0%", Percent(0.4, 0.9, 0.5))
	assert.Equal(t, "ok", Success("ok"))
	assert.Equal(t, "bad", Error("bad"))
}
