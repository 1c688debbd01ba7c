package catalog

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/poiesic/bookfinder/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordReader_Batches(t *testing.T) {
	reader := NewRecordReader(strings.NewReader(sampleCatalog), 2)

	var batches [][]*core.Item
	err := reader.ForEach(context.Background(), func(items []*core.Item) error {
		batches = append(batches, items)
		return nil
	}, nil)
	require.NoError(t, err)

	require.Len(t, batches, 2)
	assert.Len(t, batches[0], 2)
	assert.Len(t, batches[1], 1, "blank lines are ignored")

	first := batches[0][0]
	assert.Equal(t, core.ID(1), first.Id)
	assert.Equal(t, "Fantasy", first.Categories)
	assert.Equal(t, "1999-04-01", first.PublishedDate)
	assert.Equal(t, []float32{3, 0, 4}, first.Vector, "reader does not normalize")

	assert.Equal(t, "2010", batches[0][1].PublishedDate, "published_year fills a missing date")

	third := batches[1][0]
	assert.Equal(t, core.ID(3), third.Id, "book_id alias")
	assert.Equal(t, "Fantasy, Adventure", third.Categories, "categories alias")
	assert.Nil(t, third.Vector)
}

func TestRecordReader_MalformedLines(t *testing.T) {
	input := `{"bookID": 1, "title": "ok"}
not json
{"bookID": 2, "title": "also ok"}
`
	var bad []*LineError
	var items []*core.Item
	err := NewRecordReader(strings.NewReader(input), 10).ForEach(context.Background(),
		func(batch []*core.Item) error {
			items = append(items, batch...)
			return nil
		},
		func(lerr *LineError) error {
			bad = append(bad, lerr)
			return nil
		})
	require.NoError(t, err)

	assert.Len(t, items, 2)
	require.Len(t, bad, 1)
	assert.Equal(t, 2, bad[0].Line)
	assert.ErrorIs(t, bad[0], ErrMalformedRecord)
}

func TestRecordReader_StopsOnCallbackError(t *testing.T) {
	stop := errors.New("stop")
	calls := 0
	err := NewRecordReader(strings.NewReader(sampleCatalog), 1).ForEach(context.Background(),
		func([]*core.Item) error {
			calls++
			return stop
		}, nil)

	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 1, calls)
}

func TestRecordReader_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewRecordReader(strings.NewReader(sampleCatalog), 1).ForEach(ctx,
		func([]*core.Item) error { return nil }, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCountLines(t *testing.T) {
	n, err := CountLines(strings.NewReader(sampleCatalog))
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}
