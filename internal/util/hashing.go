package util

import (
	"crypto/sha256"
	"strconv"

	"github.com/go-sift/sift/internal/byteutil"
)

// HashKeyedVector produces a stable digest of a feature vector scoped by a
// key, used to spot duplicate submissions within a dataset. The key is
// separated from the vector so equal vectors under different keys never
// collide.
func HashKeyedVector(key string, vec []float64) [32]byte {
	buffer := byteutil.GetBytesBuf()
	defer byteutil.PutBytesBuf(buffer)
	buffer.WriteString(key)
	buffer.WriteByte(0)
	for i := range vec {
		buffer.WriteString(strconv.FormatFloat(vec[i], 'g', 16, 64))
	}
	return sha256.Sum256(buffer.Bytes())
}
