package types

import (
	"encoding/base64"
	"encoding/binary"

	sf "github.com/tinode/snowflake"
	"golang.org/x/crypto/xtea"
)

// UidGenerator assigns store-side identifiers to conversations and
// activities. Snowflake-generated uint64s are weakly encrypted so the ids are
// random-looking and leak no ordering.
type UidGenerator struct {
	seq    *sf.SnowFlake
	cipher *xtea.Cipher
}

// Init initializes the generator with a cluster worker id and a 16-byte
// XTEA key.
func (ug *UidGenerator) Init(workerID uint, key []byte) error {
	var err error

	if ug.seq == nil {
		ug.seq, err = sf.NewSnowFlake(uint32(workerID))
	}
	if ug.cipher == nil {
		ug.cipher, err = xtea.NewCipher(key)
	}

	return err
}

// Get generates a unique id and returns it as a base64 string.
func (ug *UidGenerator) Get() string {
	id, err := ug.seq.Next()
	if err != nil {
		return ""
	}

	src := make([]byte, 8)
	dst := make([]byte, 8)
	binary.LittleEndian.PutUint64(src, id)
	ug.cipher.Encrypt(dst, src)

	return base64.URLEncoding.EncodeToString(dst)[:11]
}
