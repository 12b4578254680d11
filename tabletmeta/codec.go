package tabletmeta

import (
	"encoding/binary"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/hupe1980/lakego/internal/hash"
	"github.com/hupe1980/lakego/model"
	"github.com/hupe1980/lakego/rowset"
	"github.com/hupe1980/lakego/schema"
)

const (
	binaryMagic   = 0x4c4b544d // "LKTM"
	binaryVersion = 1
)

// WriteBinary writes the snapshot in binary format.
// Format:
// Magic (4 bytes)
// Version (4 bytes)
// Checksum (4 bytes) - CRC32C of the compressed payload
// PayloadLength (4 bytes) - compressed payload size
// Payload (zstd):
//
//	TabletID (8 bytes)
//	MetaVersion (8 bytes)
//	CreatedAt (8 bytes) - UnixNano
//	NumColumns (4 bytes)
//	Columns...
//	  Name (string)
//	  Type (1 byte)
//	  IsKey (1 byte)
//	NumRowsets (4 bytes)
//	Rowsets...
//	  ID (4 bytes)
//	  HasCompactInput (1 byte)
//	  MaxCompactInputID (4 bytes)
//	  NumSegments (4 bytes)
//	  Segments...
//	    ID (4 bytes)
//	    RowCount (4 bytes)
//	    Size (8 bytes)
//	    Path (string)
//	NumDeleteVectors (4 bytes)
//	DeleteVectors... (sorted by rowset, segment)
//	  Rowset (4 bytes)
//	  Segment (4 bytes)
//	  EffectiveVersion (8 bytes)
//	  Bitmap (length-framed roaring bytes)
func (m *Metadata) WriteBinary(w io.Writer) error {
	pb := newPayloadBuffer(nil)

	pb.writeUint64(uint64(m.TabletID))
	pb.writeUint64(uint64(m.Version))
	pb.writeUint64(uint64(m.CreatedAt.UnixNano()))

	pb.writeUint32(uint32(len(m.Schema.Columns)))
	for _, c := range m.Schema.Columns {
		pb.writeString(c.Name)
		pb.writeByte(byte(c.Type))
		pb.writeBool(c.IsKey)
	}

	pb.writeUint32(uint32(len(m.Rowsets)))
	for _, rs := range m.Rowsets {
		pb.writeUint32(uint32(rs.ID))
		pb.writeBool(rs.HasCompactInput)
		pb.writeUint32(uint32(rs.MaxCompactInputID))
		pb.writeUint32(uint32(len(rs.Segments)))
		for _, seg := range rs.Segments {
			pb.writeUint32(uint32(seg.ID))
			pb.writeUint32(seg.RowCount)
			pb.writeUint64(uint64(seg.Size))
			pb.writeString(seg.Path)
		}
	}

	keys := make([]DeleteVectorKey, 0, len(m.DeleteVectors))
	for k := range m.DeleteVectors {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Rowset != keys[j].Rowset {
			return keys[i].Rowset < keys[j].Rowset
		}
		return keys[i].Segment < keys[j].Segment
	})

	pb.writeUint32(uint32(len(keys)))
	for _, k := range keys {
		dv := m.DeleteVectors[k]
		bm, err := dv.marshalBitmap()
		if err != nil {
			return err
		}
		pb.writeUint32(uint32(k.Rowset))
		pb.writeUint32(uint32(k.Segment))
		pb.writeUint64(uint64(dv.version))
		pb.writeBytes(bm)
	}

	if pb.err != nil {
		return pb.err
	}

	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	payload := enc.EncodeAll(pb.buf, nil)
	enc.Close()

	header := make([]byte, 16)
	binary.LittleEndian.PutUint32(header[0:4], binaryMagic)
	binary.LittleEndian.PutUint32(header[4:8], binaryVersion)
	binary.LittleEndian.PutUint32(header[8:12], hash.CRC32C(payload))
	binary.LittleEndian.PutUint32(header[12:16], uint32(len(payload)))

	if _, err := w.Write(header); err != nil {
		return err
	}
	if _, err := w.Write(payload); err != nil {
		return err
	}
	return nil
}

// ReadBinary reads a snapshot from binary format.
func ReadBinary(r io.Reader) (*Metadata, error) {
	header := make([]byte, 16)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, err
	}

	if magic := binary.LittleEndian.Uint32(header[0:4]); magic != binaryMagic {
		return nil, fmt.Errorf("invalid magic: %x", magic)
	}
	if version := binary.LittleEndian.Uint32(header[4:8]); version != binaryVersion {
		return nil, fmt.Errorf("unsupported version: %d", version)
	}
	checksum := binary.LittleEndian.Uint32(header[8:12])
	length := binary.LittleEndian.Uint32(header[12:16])

	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, err
	}
	if hash.CRC32C(payload) != checksum {
		return nil, fmt.Errorf("checksum mismatch")
	}

	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}
	raw, err := dec.DecodeAll(payload, nil)
	dec.Close()
	if err != nil {
		return nil, fmt.Errorf("decompress payload: %w", err)
	}

	pb := newPayloadBuffer(raw)
	m := &Metadata{}

	m.TabletID = model.TabletID(pb.readUint64())
	m.Version = model.Version(pb.readUint64())
	m.CreatedAt = time.Unix(0, int64(pb.readUint64()))

	numCols := pb.readUint32()
	cols := make([]schema.Column, numCols)
	for i := range cols {
		cols[i].Name = pb.readString()
		cols[i].Type = schema.ColumnType(pb.readByte())
		cols[i].IsKey = pb.readBool()
	}
	m.Schema = schema.New(cols...)

	numRowsets := pb.readUint32()
	m.Rowsets = make([]*rowset.Meta, numRowsets)
	for i := range m.Rowsets {
		rs := &rowset.Meta{}
		rs.ID = model.RowsetID(pb.readUint32())
		rs.HasCompactInput = pb.readBool()
		rs.MaxCompactInputID = model.RowsetID(pb.readUint32())
		numSegs := pb.readUint32()
		rs.Segments = make([]rowset.SegmentMeta, numSegs)
		for j := range rs.Segments {
			rs.Segments[j].ID = model.SegmentID(pb.readUint32())
			rs.Segments[j].RowCount = pb.readUint32()
			rs.Segments[j].Size = int64(pb.readUint64())
			rs.Segments[j].Path = pb.readString()
		}
		m.Rowsets[i] = rs
	}

	numDelvecs := pb.readUint32()
	m.DeleteVectors = make(map[DeleteVectorKey]*DeleteVector, numDelvecs)
	for i := uint32(0); i < numDelvecs; i++ {
		key := DeleteVectorKey{
			Rowset:  model.RowsetID(pb.readUint32()),
			Segment: model.SegmentID(pb.readUint32()),
		}
		effective := model.Version(pb.readUint64())
		bm := pb.readBytes()
		if pb.err != nil {
			break
		}
		dv, err := unmarshalDeleteVector(effective, bm)
		if err != nil {
			return nil, err
		}
		m.DeleteVectors[key] = dv
	}

	if pb.err != nil {
		return nil, pb.err
	}
	return m, nil
}

type payloadBuffer struct {
	buf []byte
	pos int
	err error
}

func newPayloadBuffer(b []byte) *payloadBuffer {
	return &payloadBuffer{buf: b}
}

func (p *payloadBuffer) writeUint64(v uint64) {
	if p.err != nil {
		return
	}
	p.buf = binary.LittleEndian.AppendUint64(p.buf, v)
}

func (p *payloadBuffer) writeUint32(v uint32) {
	if p.err != nil {
		return
	}
	p.buf = binary.LittleEndian.AppendUint32(p.buf, v)
}

func (p *payloadBuffer) writeByte(v byte) {
	if p.err != nil {
		return
	}
	p.buf = append(p.buf, v)
}

func (p *payloadBuffer) writeBool(v bool) {
	if v {
		p.writeByte(1)
	} else {
		p.writeByte(0)
	}
}

func (p *payloadBuffer) writeString(s string) {
	if p.err != nil {
		return
	}
	if len(s) > 65535 {
		p.err = fmt.Errorf("string too long: %d", len(s))
		return
	}
	p.buf = binary.LittleEndian.AppendUint16(p.buf, uint16(len(s)))
	p.buf = append(p.buf, s...)
}

func (p *payloadBuffer) writeBytes(b []byte) {
	if p.err != nil {
		return
	}
	p.buf = binary.LittleEndian.AppendUint32(p.buf, uint32(len(b)))
	p.buf = append(p.buf, b...)
}

func (p *payloadBuffer) readUint64() uint64 {
	if p.err != nil {
		return 0
	}
	if p.pos+8 > len(p.buf) {
		p.err = io.ErrUnexpectedEOF
		return 0
	}
	v := binary.LittleEndian.Uint64(p.buf[p.pos:])
	p.pos += 8
	return v
}

func (p *payloadBuffer) readUint32() uint32 {
	if p.err != nil {
		return 0
	}
	if p.pos+4 > len(p.buf) {
		p.err = io.ErrUnexpectedEOF
		return 0
	}
	v := binary.LittleEndian.Uint32(p.buf[p.pos:])
	p.pos += 4
	return v
}

func (p *payloadBuffer) readByte() byte {
	if p.err != nil {
		return 0
	}
	if p.pos+1 > len(p.buf) {
		p.err = io.ErrUnexpectedEOF
		return 0
	}
	v := p.buf[p.pos]
	p.pos++
	return v
}

func (p *payloadBuffer) readBool() bool {
	return p.readByte() != 0
}

func (p *payloadBuffer) readString() string {
	if p.err != nil {
		return ""
	}
	if p.pos+2 > len(p.buf) {
		p.err = io.ErrUnexpectedEOF
		return ""
	}
	l := int(binary.LittleEndian.Uint16(p.buf[p.pos:]))
	p.pos += 2

	if p.pos+l > len(p.buf) {
		p.err = io.ErrUnexpectedEOF
		return ""
	}
	s := string(p.buf[p.pos : p.pos+l])
	p.pos += l
	return s
}

func (p *payloadBuffer) readBytes() []byte {
	if p.err != nil {
		return nil
	}
	if p.pos+4 > len(p.buf) {
		p.err = io.ErrUnexpectedEOF
		return nil
	}
	l := int(binary.LittleEndian.Uint32(p.buf[p.pos:]))
	p.pos += 4

	if p.pos+l > len(p.buf) {
		p.err = io.ErrUnexpectedEOF
		return nil
	}
	b := p.buf[p.pos : p.pos+l]
	p.pos += l
	return b
}
