package byteutil

import (
	"encoding/binary"
)

func EncodeUint64ToBytes(n uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, n)
	return b
}
