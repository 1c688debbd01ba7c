package core

import (
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
)

// IDMUS is the MUS serializer for ID.
var IDMUS = idMUS{}

type idMUS struct{}

func (s idMUS) Marshal(v ID, bs []byte) (n int) {
	return varint.Uint64.Marshal(uint64(v), bs)
}

func (s idMUS) Unmarshal(bs []byte) (v ID, n int, err error) {
	tmp, n, err := varint.Uint64.Unmarshal(bs)
	return ID(tmp), n, err
}

func (s idMUS) Size(v ID) (size int) {
	return varint.Uint64.Size(uint64(v))
}

func (s idMUS) Skip(bs []byte) (n int, err error) {
	return varint.Uint64.Skip(bs)
}

// ItemMUS is the MUS serializer for Item. Field order is the storage format;
// append new fields at the end.
var ItemMUS = itemMUS{}

type itemMUS struct{}

func (s itemMUS) Marshal(v Item, bs []byte) (n int) {
	n = IDMUS.Marshal(v.Id, bs)
	for _, str := range v.textValues() {
		n += ord.String.Marshal(str, bs[n:])
	}
	n += varint.Float64.Marshal(v.AverageRating, bs[n:])
	n += varint.Int.Marshal(v.NumPages, bs[n:])
	n += marshalVector(v.Vector, bs[n:])
	n += marshalTime(v.InsertedAt, bs[n:])
	n += marshalTime(v.UpdatedAt, bs[n:])
	return
}

func (s itemMUS) Unmarshal(bs []byte) (v Item, n int, err error) {
	v.Id, n, err = IDMUS.Unmarshal(bs)
	if err != nil {
		return
	}
	var n1 int
	for _, dst := range v.textFields() {
		*dst, n1, err = ord.String.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return
		}
	}
	v.AverageRating, n1, err = varint.Float64.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.NumPages, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Vector, n1, err = unmarshalVector(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.InsertedAt, n1, err = unmarshalTime(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.UpdatedAt, n1, err = unmarshalTime(bs[n:])
	n += n1
	return
}

func (s itemMUS) Size(v Item) (size int) {
	size = IDMUS.Size(v.Id)
	for _, str := range v.textValues() {
		size += ord.String.Size(str)
	}
	size += varint.Float64.Size(v.AverageRating)
	size += varint.Int.Size(v.NumPages)
	size += sizeVector(v.Vector)
	size += sizeTime(v.InsertedAt)
	return size + sizeTime(v.UpdatedAt)
}

func (v *Item) textValues() []string {
	return []string{
		v.Title, v.Authors, v.Categories, v.Description, v.SearchText,
		v.PublishedDate, v.Language, v.ISBN, v.Thumbnail, v.PreviewLink, v.Publisher,
	}
}

func (v *Item) textFields() []*string {
	return []*string{
		&v.Title, &v.Authors, &v.Categories, &v.Description, &v.SearchText,
		&v.PublishedDate, &v.Language, &v.ISBN, &v.Thumbnail, &v.PreviewLink, &v.Publisher,
	}
}

func marshalVector(vec []float32, bs []byte) (n int) {
	n = varint.Int.Marshal(len(vec), bs)
	for _, f := range vec {
		n += varint.Float32.Marshal(f, bs[n:])
	}
	return
}

func unmarshalVector(bs []byte) (vec []float32, n int, err error) {
	length, n, err := varint.Int.Unmarshal(bs)
	if err != nil || length == 0 {
		return nil, n, err
	}
	if length < 0 || length > len(bs)-n {
		return nil, n, ErrInvalidVectorLength
	}
	vec = make([]float32, length)
	var n1 int
	for i := range vec {
		vec[i], n1, err = varint.Float32.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return nil, n, err
		}
	}
	return vec, n, nil
}

func sizeVector(vec []float32) (size int) {
	size = varint.Int.Size(len(vec))
	for _, f := range vec {
		size += varint.Float32.Size(f)
	}
	return
}

// Times are stored as Unix microseconds; the zero time round-trips as zero.
func marshalTime(t time.Time, bs []byte) int {
	return varint.Int64.Marshal(timeToMicro(t), bs)
}

func unmarshalTime(bs []byte) (time.Time, int, error) {
	micro, n, err := varint.Int64.Unmarshal(bs)
	if err != nil || micro == 0 {
		return time.Time{}, n, err
	}
	return time.UnixMicro(micro).UTC(), n, nil
}

func sizeTime(t time.Time) int {
	return varint.Int64.Size(timeToMicro(t))
}

func timeToMicro(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMicro()
}

// VectorMUS is the MUS serializer for embedding vectors.
var VectorMUS = vectorMUS{}

type vectorMUS struct{}

func (s vectorMUS) Marshal(v []float32, bs []byte) (n int) {
	return marshalVector(v, bs)
}

func (s vectorMUS) Unmarshal(bs []byte) (v []float32, n int, err error) {
	return unmarshalVector(bs)
}

func (s vectorMUS) Size(v []float32) (size int) {
	return sizeVector(v)
}
