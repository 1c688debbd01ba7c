package badger

import (
	"encoding/binary"

	"github.com/poiesic/bookfinder/core"
)

// Key prefixes for different data types
const (
	itemPrefix       = "item:"
	itemVectorPrefix = "ivec:"
	itemIDSeq        = "itemseq"
)

// makeItemKey generates a key for an item by ID.
// IDs are written BigEndian so prefix iteration yields ascending ID order.
func makeItemKey(id core.ID) []byte {
	return makeIDKey(itemPrefix, id)
}

// makeItemVectorKey generates a key for an item's embedding vector.
func makeItemVectorKey(id core.ID) []byte {
	return makeIDKey(itemVectorPrefix, id)
}

func makeIDKey(prefix string, id core.ID) []byte {
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// parseItemVectorKey extracts the item ID from a vector key.
func parseItemVectorKey(key []byte) (core.ID, bool) {
	return parseIDKey(itemVectorPrefix, key)
}

func parseIDKey(prefix string, key []byte) (core.ID, bool) {
	if len(key) != len(prefix)+8 || string(key[:len(prefix)]) != prefix {
		return 0, false
	}
	return core.ID(binary.BigEndian.Uint64(key[len(prefix):])), true
}
