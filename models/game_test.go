package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidStatusTransition_Lifecycle(t *testing.T) {
	assert.True(t, ValidStatusTransition(GameStatusWaiting, GameStatusActive))
	assert.True(t, ValidStatusTransition(GameStatusWaiting, GameStatusCancelled))
	assert.True(t, ValidStatusTransition(GameStatusWaiting, GameStatusCompleted))
	assert.True(t, ValidStatusTransition(GameStatusActive, GameStatusCompleted))
	assert.True(t, ValidStatusTransition(GameStatusActive, GameStatusCancelled))
}

func TestValidStatusTransition_NeverRegresses(t *testing.T) {
	terminal := []string{GameStatusCompleted, GameStatusCancelled}
	all := []string{GameStatusWaiting, GameStatusActive, GameStatusCompleted, GameStatusCancelled}

	for _, from := range terminal {
		for _, to := range all {
			assert.False(t, ValidStatusTransition(from, to),
				"terminal status %s must not transition to %s", from, to)
		}
	}

	assert.False(t, ValidStatusTransition(GameStatusActive, GameStatusWaiting))
}

func TestIsTerminalStatus(t *testing.T) {
	assert.True(t, IsTerminalStatus(GameStatusCompleted))
	assert.True(t, IsTerminalStatus(GameStatusCancelled))
	assert.False(t, IsTerminalStatus(GameStatusWaiting))
	assert.False(t, IsTerminalStatus(GameStatusActive))
}
