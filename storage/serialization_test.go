package storage

import (
	"testing"
	"time"

	"github.com/poiesic/bookfinder/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalUnmarshalID(t *testing.T) {
	tests := []struct {
		name string
		id   core.ID
	}{
		{"zero ID", core.ID(0)},
		{"small ID", core.ID(42)},
		{"large ID", core.ID(18446744073709551615)}, // max uint64
		{"content-based ID", core.IDFromContent("test content")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := MarshalID(tt.id)
			require.NotEmpty(t, data)

			decoded, err := UnmarshalID(data)
			require.NoError(t, err)
			assert.Equal(t, tt.id, decoded)
		})
	}
}

func TestUnmarshalID_Invalid(t *testing.T) {
	_, err := UnmarshalID([]byte{})
	assert.ErrorIs(t, err, ErrSerializationFailed)
}

func TestMarshalUnmarshalItem(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)

	tests := []struct {
		name string
		item *core.Item
	}{
		{
			name: "minimal item",
			item: &core.Item{Id: 1, Title: "Dune", InsertedAt: now},
		},
		{
			name: "item with vector",
			item: &core.Item{
				Id:         2,
				Title:      "Neuromancer",
				Vector:     core.NormalizeVector([]float32{1, 2, 3, 4}),
				InsertedAt: now,
				UpdatedAt:  now,
			},
		},
		{
			name: "unicode fields",
			item: &core.Item{
				Id:          3,
				Title:       "百年の孤独",
				Authors:     "Gabriel García Márquez",
				Description: "Macondo 🌿",
				Language:    "jpn",
			},
		},
		{
			name: "long vector",
			item: &core.Item{
				Id:     core.IDFromContent("long"),
				Title:  "Long",
				Vector: make([]float32, 1536),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := MarshalItem(tt.item)
			require.NotEmpty(t, data)

			decoded, err := UnmarshalItem(data)
			require.NoError(t, err)
			require.NotNil(t, decoded)

			assert.Equal(t, tt.item.Id, decoded.Id)
			assert.Equal(t, tt.item.Title, decoded.Title)
			assert.Equal(t, tt.item.Authors, decoded.Authors)
			assert.Equal(t, tt.item.Description, decoded.Description)
			assert.True(t, tt.item.InsertedAt.Equal(decoded.InsertedAt))
			if len(tt.item.Vector) == 0 {
				assert.Empty(t, decoded.Vector)
			} else {
				assert.Equal(t, tt.item.Vector, decoded.Vector)
			}
		})
	}
}

func TestUnmarshalItem_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty data", []byte{}},
		{"invalid data", []byte{0xFF, 0xFF, 0xFF}},
		{"partial data", []byte{1, 2, 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := UnmarshalItem(tt.data)
			assert.Error(t, err)
		})
	}
}

func TestUnmarshalItem_TrailingBytes(t *testing.T) {
	data := append(MarshalItem(&core.Item{Id: 1, Title: "x"}), 0x00)
	_, err := UnmarshalItem(data)
	assert.ErrorIs(t, err, ErrTruncatedData)
}

func TestMarshalUnmarshalVector(t *testing.T) {
	vector := core.NormalizeVector([]float32{0.5, -1.5, 2})
	decoded, err := UnmarshalVector(MarshalVector(vector))
	require.NoError(t, err)
	assert.Equal(t, vector, decoded)

	empty, err := UnmarshalVector(MarshalVector(nil))
	require.NoError(t, err)
	assert.Empty(t, empty)
}
