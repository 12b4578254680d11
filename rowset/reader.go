package rowset

import (
	"bytes"
	"context"
	"encoding/binary"
	"io"

	"github.com/hupe1980/lakego/blobstore"
	"github.com/hupe1980/lakego/internal/hash"
	"github.com/hupe1980/lakego/model"
	"github.com/hupe1980/lakego/resource"
)

// Chunk is a bounded batch of encoded keys from one segment. BaseRow is
// the ordinal of Keys[0] within the segment; Keys[i] sits at ordinal
// BaseRow+i.
type Chunk struct {
	Segment model.SegmentID
	BaseRow model.RowOrdinal
	Keys    [][]byte
}

// ReaderOptions configures a Reader.
type ReaderOptions struct {
	// Controller throttles key file reads. Optional.
	Controller *resource.Controller
}

// Reader opens segment key files from a blob store.
type Reader struct {
	store blobstore.BlobStore
	opts  ReaderOptions
}

// NewReader creates a Reader over store.
func NewReader(store blobstore.BlobStore, optFns ...func(o *ReaderOptions)) *Reader {
	opts := ReaderOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Reader{store: store, opts: opts}
}

// OpenSegmentIterators opens one iterator per segment of rs, in segment
// order. Each iterator yields the segment's keys as chunks in ascending
// row-ordinal order.
func (r *Reader) OpenSegmentIterators(ctx context.Context, rs *Meta) ([]*SegmentIterator, error) {
	its := make([]*SegmentIterator, 0, len(rs.Segments))
	for _, seg := range rs.Segments {
		it, err := r.OpenSegment(ctx, rs.ID, seg)
		if err != nil {
			for _, open := range its {
				open.Close()
			}
			return nil, err
		}
		its = append(its, it)
	}
	return its, nil
}

// OpenSegment opens a single segment key file and validates its footer
// checksum before any chunk is yielded.
func (r *Reader) OpenSegment(ctx context.Context, rsID model.RowsetID, seg SegmentMeta) (*SegmentIterator, error) {
	fail := func(op string, err error) (*SegmentIterator, error) {
		return nil, &StorageError{Rowset: rsID, Segment: seg.ID, Path: seg.Path, Op: op, Err: err}
	}

	if c := r.opts.Controller; c != nil {
		if err := c.WaitIO(ctx, int(seg.Size)); err != nil {
			return fail("throttle", err)
		}
	}

	blob, err := r.store.Open(ctx, seg.Path)
	if err != nil {
		return fail("open", err)
	}
	data, err := blobstore.ReadAll(ctx, blob)
	blob.Close()
	if err != nil {
		return fail("read", err)
	}

	if err := validateSegment(data, seg); err != nil {
		return fail("validate", err)
	}

	return &SegmentIterator{
		seg:    seg,
		blocks: int(binary.LittleEndian.Uint32(data[len(data)-segmentFooterSize:])),
		data:   data[:len(data)-segmentFooterSize],
		offset: len(segmentMagic) + 1,
	}, nil
}

func validateSegment(data []byte, seg SegmentMeta) error {
	if len(data) < len(segmentMagic)+1+segmentFooterSize {
		return &CorruptionError{Path: seg.Path, Reason: "file too small"}
	}
	if !bytes.HasPrefix(data, []byte(segmentMagic)) {
		return &CorruptionError{Path: seg.Path, Reason: "bad magic"}
	}
	if v := data[len(segmentMagic)]; v != segmentVersion {
		return &CorruptionError{Path: seg.Path, Reason: "unsupported version"}
	}

	footer := data[len(data)-segmentFooterSize:]
	want := binary.LittleEndian.Uint32(footer[8:])
	if got := hash.CRC32C(data[:len(data)-4]); got != want {
		return &CorruptionError{Path: seg.Path, Reason: "checksum mismatch"}
	}
	if rows := binary.LittleEndian.Uint32(footer[4:]); rows != seg.RowCount {
		return &CorruptionError{Path: seg.Path, Reason: "row count mismatch"}
	}
	return nil
}

// SegmentIterator yields a segment's encoded keys chunk by chunk.
type SegmentIterator struct {
	seg     SegmentMeta
	data    []byte
	offset  int
	blocks  int
	read    int
	nextRow model.RowOrdinal
}

// Segment returns the segment being iterated.
func (it *SegmentIterator) Segment() SegmentMeta {
	return it.seg
}

// Next returns the next chunk, or io.EOF after the last one. Each key
// slice is backed by freshly decompressed memory and remains valid after
// further Next calls.
func (it *SegmentIterator) Next(ctx context.Context) (*Chunk, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if it.read >= it.blocks {
		if it.nextRow != model.RowOrdinal(it.seg.RowCount) {
			return nil, &CorruptionError{Path: it.seg.Path, Reason: "blocks exhausted before row count"}
		}
		return nil, io.EOF
	}

	payload, next, err := decompressBlock(it.data, it.offset, it.seg.Path)
	if err != nil {
		return nil, err
	}
	it.offset = next
	it.read++

	if len(payload) < 4 {
		return nil, &CorruptionError{Path: it.seg.Path, Reason: "truncated block payload"}
	}
	rows := binary.LittleEndian.Uint32(payload)
	p := payload[4:]

	keys := make([][]byte, 0, rows)
	for i := uint32(0); i < rows; i++ {
		if len(p) < 4 {
			return nil, &CorruptionError{Path: it.seg.Path, Reason: "truncated key length"}
		}
		n := binary.LittleEndian.Uint32(p)
		p = p[4:]
		if uint32(len(p)) < n {
			return nil, &CorruptionError{Path: it.seg.Path, Reason: "truncated key"}
		}
		keys = append(keys, p[:n:n])
		p = p[n:]
	}
	if len(p) != 0 {
		return nil, &CorruptionError{Path: it.seg.Path, Reason: "trailing bytes in block"}
	}

	chunk := &Chunk{
		Segment: it.seg.ID,
		BaseRow: it.nextRow,
		Keys:    keys,
	}
	it.nextRow += model.RowOrdinal(rows)
	return chunk, nil
}

// Close releases the iterator's buffers.
func (it *SegmentIterator) Close() {
	it.data = nil
}
