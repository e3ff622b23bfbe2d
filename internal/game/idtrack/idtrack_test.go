package idtrack

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTracker_SetAndResolve(t *testing.T) {
	tr := New()
	tr.Set(100, 9001)

	charID, ok := tr.CharacterID(100)
	assert.True(t, ok)
	assert.Equal(t, uint64(9001), charID)

	entityID, ok := tr.EntityID(9001)
	assert.True(t, ok)
	assert.Equal(t, uint64(100), entityID)
}

func TestTracker_SetReassignsBothSides(t *testing.T) {
	tr := New()
	tr.Set(100, 9001)
	tr.Set(200, 9001) // character migrates to a new entity_id

	_, ok := tr.CharacterID(100)
	assert.False(t, ok, "old entity_id should no longer resolve")

	entityID, ok := tr.EntityID(9001)
	assert.True(t, ok)
	assert.Equal(t, uint64(200), entityID)
}

func TestTracker_RemoveClearsBothSides(t *testing.T) {
	tr := New()
	tr.Set(100, 9001)
	tr.Remove(100)

	_, ok := tr.CharacterID(100)
	assert.False(t, ok)
	_, ok = tr.EntityID(9001)
	assert.False(t, ok)
}

func TestTracker_Reset(t *testing.T) {
	tr := New()
	tr.Set(100, 9001)
	tr.Set(101, 9002)

	tr.Reset()

	_, ok := tr.CharacterID(100)
	assert.False(t, ok)
	_, ok = tr.CharacterID(101)
	assert.False(t, ok)
}

func TestTracker_SetIgnoresZeroCharacterID(t *testing.T) {
	tr := New()
	tr.Set(100, 0)

	_, ok := tr.CharacterID(100)
	assert.False(t, ok)
}
