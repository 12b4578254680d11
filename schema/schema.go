// Package schema describes table schemas and the primary key codec.
//
// A table schema is an ordered list of typed columns, some of which are
// key columns. The codec derives a narrowed key-only schema and encodes
// a row's key values into a byte string such that byte equality is
// equivalent to key equality under the table's comparison semantics.
package schema

import (
	"fmt"
)

// ColumnType enumerates the supported column types.
type ColumnType uint8

const (
	TypeInvalid ColumnType = iota
	TypeBool
	TypeInt8
	TypeInt16
	TypeInt32
	TypeInt64
	TypeUint8
	TypeUint16
	TypeUint32
	TypeUint64
	TypeFloat32
	TypeFloat64
	TypeString
	TypeBinary
)

// String returns the type name.
func (t ColumnType) String() string {
	switch t {
	case TypeBool:
		return "BOOL"
	case TypeInt8:
		return "INT8"
	case TypeInt16:
		return "INT16"
	case TypeInt32:
		return "INT32"
	case TypeInt64:
		return "INT64"
	case TypeUint8:
		return "UINT8"
	case TypeUint16:
		return "UINT16"
	case TypeUint32:
		return "UINT32"
	case TypeUint64:
		return "UINT64"
	case TypeFloat32:
		return "FLOAT32"
	case TypeFloat64:
		return "FLOAT64"
	case TypeString:
		return "STRING"
	case TypeBinary:
		return "BINARY"
	default:
		return fmt.Sprintf("INVALID(%d)", uint8(t))
	}
}

// keyCapable reports whether the type may appear in a key column.
// Floating point types are excluded: NaN breaks equality semantics.
func (t ColumnType) keyCapable() bool {
	switch t {
	case TypeBool, TypeInt8, TypeInt16, TypeInt32, TypeInt64,
		TypeUint8, TypeUint16, TypeUint32, TypeUint64,
		TypeString, TypeBinary:
		return true
	default:
		return false
	}
}

// Column is a single column definition.
type Column struct {
	Name  string
	Type  ColumnType
	IsKey bool
}

// Schema is an ordered list of columns.
type Schema struct {
	Columns []Column
}

// New creates a schema from cols.
func New(cols ...Column) *Schema {
	return &Schema{Columns: cols}
}

// NumKeyColumns returns the number of key columns.
func (s *Schema) NumKeyColumns() int {
	n := 0
	for _, c := range s.Columns {
		if c.IsKey {
			n++
		}
	}
	return n
}

// KeySchema derives the narrowed schema containing only the key columns,
// preserving their order and types. It fails with *Error when the schema
// declares zero key columns or a key column has an unsupported type.
func (s *Schema) KeySchema() (*Schema, error) {
	var cols []Column
	for _, c := range s.Columns {
		if !c.IsKey {
			continue
		}
		if !c.Type.keyCapable() {
			return nil, &Error{
				Reason: fmt.Sprintf("unsupported key column type %s", c.Type),
				Column: c.Name,
			}
		}
		cols = append(cols, c)
	}
	if len(cols) == 0 {
		return nil, &Error{Reason: "schema declares no key columns"}
	}
	return &Schema{Columns: cols}, nil
}

// Error reports an invalid schema for primary-key use.
type Error struct {
	Reason string
	Column string // empty when not tied to a single column
}

func (e *Error) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("schema: %s (column %q)", e.Reason, e.Column)
	}
	return "schema: " + e.Reason
}
