package rowset

import (
	"encoding/binary"

	"github.com/pierrec/lz4/v4"
)

// Key blocks are stored as [uncompressedSize u32][compressedSize u32][data].
// A compressedSize of zero marks a block stored uncompressed, which happens
// when LZ4 fails to shrink the payload below 90% of its original size.
const blockHeaderSize = 8

func compressBlock(data []byte) []byte {
	bound := lz4.CompressBlockBound(len(data))
	compressed := make([]byte, bound)

	n, err := lz4.CompressBlock(data, compressed, nil)
	if err != nil || n == 0 || float64(n) > float64(len(data))*0.9 {
		out := make([]byte, blockHeaderSize+len(data))
		binary.LittleEndian.PutUint32(out[0:], uint32(len(data)))
		binary.LittleEndian.PutUint32(out[4:], 0)
		copy(out[blockHeaderSize:], data)
		return out
	}

	out := make([]byte, blockHeaderSize+n)
	binary.LittleEndian.PutUint32(out[0:], uint32(len(data)))
	binary.LittleEndian.PutUint32(out[4:], uint32(n))
	copy(out[blockHeaderSize:], compressed[:n])
	return out
}

// decompressBlock reads one block at offset and returns its payload and
// the offset of the next block.
func decompressBlock(data []byte, offset int, path string) ([]byte, int, error) {
	if offset+blockHeaderSize > len(data) {
		return nil, 0, &CorruptionError{Path: path, Reason: "truncated block header"}
	}

	uncompressedSize := int(binary.LittleEndian.Uint32(data[offset:]))
	compressedSize := int(binary.LittleEndian.Uint32(data[offset+4:]))
	body := offset + blockHeaderSize

	if compressedSize == 0 {
		if body+uncompressedSize > len(data) {
			return nil, 0, &CorruptionError{Path: path, Reason: "block extends beyond file"}
		}
		return data[body : body+uncompressedSize], body + uncompressedSize, nil
	}

	if body+compressedSize > len(data) {
		return nil, 0, &CorruptionError{Path: path, Reason: "compressed block extends beyond file"}
	}

	out := make([]byte, uncompressedSize)
	n, err := lz4.UncompressBlock(data[body:body+compressedSize], out)
	if err != nil {
		return nil, 0, &CorruptionError{Path: path, Reason: "lz4: " + err.Error()}
	}
	if n != uncompressedSize {
		return nil, 0, &CorruptionError{Path: path, Reason: "decompressed size mismatch"}
	}
	return out, body + compressedSize, nil
}
