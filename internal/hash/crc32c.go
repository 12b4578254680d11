// Package hash provides the checksum used for file integrity footers.
//
// All checksums in lakego use CRC32-Castagnoli, which is hardware
// accelerated on x86 (SSE4.2) and ARM and is the industry standard for
// storage engines (iSCSI, RocksDB, LevelDB).
package hash

import (
	"hash"
	"hash/crc32"
)

var crc32cTable = crc32.MakeTable(crc32.Castagnoli)

// CRC32C computes the CRC32-Castagnoli checksum of data.
func CRC32C(data []byte) uint32 {
	return crc32.Checksum(data, crc32cTable)
}

// NewCRC32C returns a streaming CRC32-Castagnoli hash.Hash32.
func NewCRC32C() hash.Hash32 {
	return crc32.New(crc32cTable)
}
