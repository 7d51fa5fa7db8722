package parking

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadLayoutJSON(t *testing.T) {
	layout, err := LoadLayout(filepath.Join("testdata", "parking_config.json"))
	require.NoError(t, err)

	floors, err := layout.BuildFloors()
	require.NoError(t, err)
	require.Len(t, floors, 2)

	assert.Equal(t, 0, floors[0].Number)
	assert.Equal(t, 1, floors[1].Number)
	require.Len(t, floors[0].Slots, 3)
	assert.Equal(t, "G-B1", floors[0].Slots[0].ID)
	assert.Equal(t, TwoWheeler, floors[0].Slots[0].Category)
	assert.Equal(t, Heavy, floors[0].Slots[2].Category)
	assert.False(t, floors[1].Slots[2].IsOccupied)
}

func TestLoadLayoutYAML(t *testing.T) {
	layout, err := LoadLayout(filepath.Join("testdata", "parking_config.yaml"))
	require.NoError(t, err)

	floors, err := layout.BuildFloors()
	require.NoError(t, err)
	require.Len(t, floors, 2)
	assert.Equal(t, "F1-H1", floors[1].Slots[0].ID)
	assert.Equal(t, Heavy, floors[1].Slots[0].Category)
}

func TestLoadLayoutMissingFile(t *testing.T) {
	_, err := LoadLayout(filepath.Join("testdata", "missing.json"))
	assert.Error(t, err)
}

func TestParseLayoutRejectsInvalidInput(t *testing.T) {
	cases := map[string]string{
		"malformed":           `{"floors": [`,
		"no floors key":       `{}`,
		"zero floors":         `{"floors": []}`,
		"missing floorNo":     `{"floors": [{"slots": [{"id": "A", "type": "Heavy"}]}]}`,
		"floor without slots": `{"floors": [{"floorNo": 0, "slots": []}]}`,
		"missing slots":       `{"floors": [{"floorNo": 0}]}`,
		"missing slot id":     `{"floors": [{"floorNo": 0, "slots": [{"type": "Heavy"}]}]}`,
		"missing slot type":   `{"floors": [{"floorNo": 0, "slots": [{"id": "A"}]}]}`,
		"unknown slot type":   `{"floors": [{"floorNo": 0, "slots": [{"id": "A", "type": "Boat"}]}]}`,
	}

	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseLayout([]byte(input), LayoutJSON)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidLayout), "got %v", err)
		})
	}
}

func TestParseLayoutFloorZeroIsValid(t *testing.T) {
	layout, err := ParseLayout([]byte(`{"floors": [{"floorNo": 0, "slots": [{"id": "A", "type": "Heavy"}]}]}`), LayoutJSON)
	require.NoError(t, err)

	floors, err := layout.BuildFloors()
	require.NoError(t, err)
	assert.Equal(t, 0, floors[0].Number)
}

func TestLayoutFloorsRejectsDuplicateSlotIDs(t *testing.T) {
	layout, err := ParseLayout([]byte(`{"floors": [
		{"floorNo": 0, "slots": [{"id": "A", "type": "Heavy"}]},
		{"floorNo": 1, "slots": [{"id": "A", "type": "TwoWheeler"}]}
	]}`), LayoutJSON)
	require.NoError(t, err)

	_, err = layout.BuildFloors()
	assert.True(t, errors.Is(err, ErrInvalidLayout))
}

func TestParseLayoutUnsupportedFormat(t *testing.T) {
	_, err := ParseLayout([]byte(`floors = []`), LayoutFormat("toml"))
	assert.True(t, errors.Is(err, ErrInvalidLayout))
}
