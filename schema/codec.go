package schema

import (
	"encoding/binary"
	"fmt"
)

// Row holds one value per column of a (key) schema, in column order.
// Integer values use the Go type matching the column type; strings use
// string, binary uses []byte. A nil value represents NULL.
type Row []any

// Encoder encodes the key columns of a row into a byte string.
//
// The encoding is deterministic and injective: two rows produce the same
// bytes iff their key values are equal under the table's key comparison
// semantics (numerics by value, strings and binary by byte content).
// Integers are written fixed-width big-endian with the sign bit flipped,
// variable-length values are length-framed. NULLs are rejected: key
// columns are declared NOT NULL.
type Encoder struct {
	cols []Column
}

// NewEncoder creates an Encoder for the given key schema. keySchema must
// be the result of Schema.KeySchema.
func NewEncoder(keySchema *Schema) (*Encoder, error) {
	for _, c := range keySchema.Columns {
		if !c.Type.keyCapable() {
			return nil, &Error{
				Reason: fmt.Sprintf("unsupported key column type %s", c.Type),
				Column: c.Name,
			}
		}
	}
	if len(keySchema.Columns) == 0 {
		return nil, &Error{Reason: "key schema is empty"}
	}
	return &Encoder{cols: keySchema.Columns}, nil
}

// Encode appends the encoded key of row to dst and returns the extended
// slice. The row must carry exactly one value per key column.
func (e *Encoder) Encode(dst []byte, row Row) ([]byte, error) {
	if len(row) != len(e.cols) {
		return nil, &Error{
			Reason: fmt.Sprintf("row has %d values, key schema has %d columns", len(row), len(e.cols)),
		}
	}
	for i, c := range e.cols {
		v := row[i]
		if v == nil {
			return nil, &Error{Reason: "NULL value in key column", Column: c.Name}
		}
		var err error
		dst, err = appendValue(dst, c, v)
		if err != nil {
			return nil, err
		}
	}
	return dst, nil
}

func appendValue(dst []byte, c Column, v any) ([]byte, error) {
	mismatch := func() ([]byte, error) {
		return nil, &Error{
			Reason: fmt.Sprintf("value type %T does not match column type %s", v, c.Type),
			Column: c.Name,
		}
	}
	switch c.Type {
	case TypeBool:
		b, ok := v.(bool)
		if !ok {
			return mismatch()
		}
		if b {
			return append(dst, 1), nil
		}
		return append(dst, 0), nil
	case TypeInt8:
		x, ok := v.(int8)
		if !ok {
			return mismatch()
		}
		return append(dst, uint8(x)^0x80), nil
	case TypeInt16:
		x, ok := v.(int16)
		if !ok {
			return mismatch()
		}
		return binary.BigEndian.AppendUint16(dst, uint16(x)^0x8000), nil
	case TypeInt32:
		x, ok := v.(int32)
		if !ok {
			return mismatch()
		}
		return binary.BigEndian.AppendUint32(dst, uint32(x)^0x80000000), nil
	case TypeInt64:
		x, ok := v.(int64)
		if !ok {
			return mismatch()
		}
		return binary.BigEndian.AppendUint64(dst, uint64(x)^0x8000000000000000), nil
	case TypeUint8:
		x, ok := v.(uint8)
		if !ok {
			return mismatch()
		}
		return append(dst, x), nil
	case TypeUint16:
		x, ok := v.(uint16)
		if !ok {
			return mismatch()
		}
		return binary.BigEndian.AppendUint16(dst, x), nil
	case TypeUint32:
		x, ok := v.(uint32)
		if !ok {
			return mismatch()
		}
		return binary.BigEndian.AppendUint32(dst, x), nil
	case TypeUint64:
		x, ok := v.(uint64)
		if !ok {
			return mismatch()
		}
		return binary.BigEndian.AppendUint64(dst, x), nil
	case TypeString:
		s, ok := v.(string)
		if !ok {
			return mismatch()
		}
		dst = binary.BigEndian.AppendUint32(dst, uint32(len(s)))
		return append(dst, s...), nil
	case TypeBinary:
		b, ok := v.([]byte)
		if !ok {
			return mismatch()
		}
		dst = binary.BigEndian.AppendUint32(dst, uint32(len(b)))
		return append(dst, b...), nil
	default:
		return nil, &Error{
			Reason: fmt.Sprintf("unsupported key column type %s", c.Type),
			Column: c.Name,
		}
	}
}
