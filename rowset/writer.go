package rowset

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"

	"github.com/hupe1980/lakego/blobstore"
	"github.com/hupe1980/lakego/internal/hash"
	"github.com/hupe1980/lakego/model"
	"github.com/hupe1980/lakego/schema"
)

// Segment key file layout:
//
//	magic "LKSG" | version u8
//	blocks: LZ4 block, payload = rowCount u32, then per row u32 keyLen + key
//	footer: blockCount u32 | rowCount u32 | crc32c u32 over all preceding bytes
const (
	segmentMagic        = "LKSG"
	segmentVersion      = 1
	segmentFooterSize   = 12
	maxRowsPerBlock     = 4096
	maxBlockPayloadSize = 256 * 1024
)

// SegmentWriter builds a segment key file from encoded primary keys.
// Keys are appended in row-ordinal order and flushed as LZ4 blocks.
type SegmentWriter struct {
	segID    model.SegmentID
	enc      *schema.Encoder
	file     bytes.Buffer
	payload  bytes.Buffer
	blockRow uint32
	blocks   uint32
	rows     uint32
	keyBuf   []byte
}

// NewSegmentWriter creates a writer producing keys encoded with the
// given key schema.
func NewSegmentWriter(segID model.SegmentID, keySchema *schema.Schema) (*SegmentWriter, error) {
	enc, err := schema.NewEncoder(keySchema)
	if err != nil {
		return nil, err
	}
	w := &SegmentWriter{
		segID: segID,
		enc:   enc,
	}
	w.file.WriteString(segmentMagic)
	w.file.WriteByte(segmentVersion)
	return w, nil
}

// Append encodes the key columns of row and adds them as the next row
// ordinal.
func (w *SegmentWriter) Append(row schema.Row) error {
	key, err := w.enc.Encode(w.keyBuf[:0], row)
	if err != nil {
		return err
	}
	w.keyBuf = key
	return w.AppendKey(key)
}

// AppendKey adds an already encoded key as the next row ordinal.
func (w *SegmentWriter) AppendKey(key []byte) error {
	if w.blockRow == 0 {
		// Reserve the row count slot at the block payload head.
		var zero [4]byte
		w.payload.Write(zero[:])
	}

	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(key)))
	w.payload.Write(lenBuf[:])
	w.payload.Write(key)
	w.blockRow++
	w.rows++

	if w.blockRow >= maxRowsPerBlock || w.payload.Len() >= maxBlockPayloadSize {
		w.flushBlock()
	}
	return nil
}

func (w *SegmentWriter) flushBlock() {
	if w.blockRow == 0 {
		return
	}
	p := w.payload.Bytes()
	binary.LittleEndian.PutUint32(p[0:], w.blockRow)
	w.file.Write(compressBlock(p))
	w.payload.Reset()
	w.blockRow = 0
	w.blocks++
}

// Finish flushes pending rows, seals the file with its footer and
// publishes it to the store under path. The returned SegmentMeta points
// at the published blob.
func (w *SegmentWriter) Finish(ctx context.Context, store blobstore.BlobStore, path string) (SegmentMeta, error) {
	w.flushBlock()

	var footer [segmentFooterSize]byte
	binary.LittleEndian.PutUint32(footer[0:], w.blocks)
	binary.LittleEndian.PutUint32(footer[4:], w.rows)
	w.file.Write(footer[:8])
	binary.LittleEndian.PutUint32(footer[8:], hash.CRC32C(w.file.Bytes()))
	w.file.Write(footer[8:])

	data := w.file.Bytes()
	if err := store.Put(ctx, path, data); err != nil {
		return SegmentMeta{}, fmt.Errorf("publish segment key file %q: %w", path, err)
	}

	return SegmentMeta{
		ID:       w.segID,
		RowCount: w.rows,
		Path:     path,
		Size:     int64(len(data)),
	}, nil
}

// NumRows returns the number of rows appended so far.
func (w *SegmentWriter) NumRows() uint32 {
	return w.rows
}
