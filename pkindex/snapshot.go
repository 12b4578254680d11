package pkindex

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/hupe1980/lakego/model"
	"github.com/klauspost/compress/zstd"
)

// Snapshot format:
//
//	[Magic "LPKI"] [FormatVersion u8] [zstd stream of:
//	    [Count u64] [Entry...]]
//	Entry: [KeyLen u32] [KeyBytes] [Rowset u32] [Segment u32] [Row u32]
//
// All integers little-endian.
const (
	snapshotMagic   = "LPKI"
	snapshotVersion = 1
)

// ErrBadSnapshot is returned when a snapshot fails validation.
var ErrBadSnapshot = errors.New("pkindex: invalid snapshot")

// Save writes a compressed snapshot of the index to w.
func (idx *Index) Save(w io.Writer) error {
	if _, err := w.Write([]byte(snapshotMagic)); err != nil {
		return err
	}
	if _, err := w.Write([]byte{snapshotVersion}); err != nil {
		return err
	}

	enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}

	bw := bufio.NewWriter(enc)
	if err := binary.Write(bw, binary.LittleEndian, uint64(idx.Len())); err != nil {
		return err
	}

	var writeErr error
	buf := make([]byte, 12)
	idx.Range(func(key []byte, loc model.RowLocation) bool {
		if writeErr = binary.Write(bw, binary.LittleEndian, uint32(len(key))); writeErr != nil {
			return false
		}
		if _, writeErr = bw.Write(key); writeErr != nil {
			return false
		}
		binary.LittleEndian.PutUint32(buf[0:], uint32(loc.Rowset))
		binary.LittleEndian.PutUint32(buf[4:], uint32(loc.Segment))
		binary.LittleEndian.PutUint32(buf[8:], uint32(loc.Row))
		_, writeErr = bw.Write(buf)
		return writeErr == nil
	})
	if writeErr != nil {
		enc.Close()
		return writeErr
	}
	if err := bw.Flush(); err != nil {
		enc.Close()
		return err
	}
	return enc.Close()
}

// Load populates the index from a snapshot written by Save.
// Existing entries are discarded.
func (idx *Index) Load(r io.Reader) error {
	header := make([]byte, len(snapshotMagic)+1)
	if _, err := io.ReadFull(r, header); err != nil {
		return fmt.Errorf("%w: %v", ErrBadSnapshot, err)
	}
	if string(header[:len(snapshotMagic)]) != snapshotMagic {
		return fmt.Errorf("%w: bad magic", ErrBadSnapshot)
	}
	if header[len(snapshotMagic)] != snapshotVersion {
		return fmt.Errorf("%w: unsupported format version %d", ErrBadSnapshot, header[len(snapshotMagic)])
	}

	dec, err := zstd.NewReader(r)
	if err != nil {
		return err
	}
	defer dec.Close()

	br := bufio.NewReader(dec)
	var count uint64
	if err := binary.Read(br, binary.LittleEndian, &count); err != nil {
		return fmt.Errorf("%w: %v", ErrBadSnapshot, err)
	}

	fresh := NewSeeded(idx.m.Seed())
	buf := make([]byte, 12)
	for i := uint64(0); i < count; i++ {
		var keyLen uint32
		if err := binary.Read(br, binary.LittleEndian, &keyLen); err != nil {
			return fmt.Errorf("%w: %v", ErrBadSnapshot, err)
		}
		key := make([]byte, keyLen)
		if _, err := io.ReadFull(br, key); err != nil {
			return fmt.Errorf("%w: %v", ErrBadSnapshot, err)
		}
		if _, err := io.ReadFull(br, buf); err != nil {
			return fmt.Errorf("%w: %v", ErrBadSnapshot, err)
		}
		loc := model.RowLocation{
			Rowset:  model.RowsetID(binary.LittleEndian.Uint32(buf[0:])),
			Segment: model.SegmentID(binary.LittleEndian.Uint32(buf[4:])),
			Row:     model.RowOrdinal(binary.LittleEndian.Uint32(buf[8:])),
		}
		fresh.Upsert(key, fresh.Hash(key), loc)
	}

	idx.m = fresh.m
	return nil
}
