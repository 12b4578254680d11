package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeySchema_Narrowing(t *testing.T) {
	s := New(
		Column{Name: "id", Type: TypeInt64, IsKey: true},
		Column{Name: "region", Type: TypeString, IsKey: true},
		Column{Name: "payload", Type: TypeBinary},
		Column{Name: "score", Type: TypeFloat32},
	)

	ks, err := s.KeySchema()
	require.NoError(t, err)
	require.Len(t, ks.Columns, 2)
	assert.Equal(t, "id", ks.Columns[0].Name)
	assert.Equal(t, "region", ks.Columns[1].Name)
	assert.Equal(t, TypeInt64, ks.Columns[0].Type)
	assert.Equal(t, TypeString, ks.Columns[1].Type)
}

func TestKeySchema_NoKeyColumns(t *testing.T) {
	s := New(Column{Name: "payload", Type: TypeBinary})

	_, err := s.KeySchema()
	var serr *Error
	require.ErrorAs(t, err, &serr)
}

func TestKeySchema_UnsupportedKeyType(t *testing.T) {
	s := New(Column{Name: "score", Type: TypeFloat64, IsKey: true})

	_, err := s.KeySchema()
	var serr *Error
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, "score", serr.Column)
}

func TestEncoder_EqualityEquivalence(t *testing.T) {
	ks := New(
		Column{Name: "id", Type: TypeInt64, IsKey: true},
		Column{Name: "name", Type: TypeString, IsKey: true},
	)
	enc, err := NewEncoder(ks)
	require.NoError(t, err)

	a, err := enc.Encode(nil, Row{int64(42), "x"})
	require.NoError(t, err)
	b, err := enc.Encode(nil, Row{int64(42), "x"})
	require.NoError(t, err)
	c, err := enc.Encode(nil, Row{int64(43), "x"})
	require.NoError(t, err)
	d, err := enc.Encode(nil, Row{int64(42), "y"})
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.NotEqual(t, a, d)
}

func TestEncoder_Injective(t *testing.T) {
	// Two string key columns: ("ab","c") must not collide with ("a","bc").
	ks := New(
		Column{Name: "s1", Type: TypeString, IsKey: true},
		Column{Name: "s2", Type: TypeString, IsKey: true},
	)
	enc, err := NewEncoder(ks)
	require.NoError(t, err)

	a, err := enc.Encode(nil, Row{"ab", "c"})
	require.NoError(t, err)
	b, err := enc.Encode(nil, Row{"a", "bc"})
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestEncoder_SignedOrderBit(t *testing.T) {
	ks := New(Column{Name: "id", Type: TypeInt32, IsKey: true})
	enc, err := NewEncoder(ks)
	require.NoError(t, err)

	neg, err := enc.Encode(nil, Row{int32(-1)})
	require.NoError(t, err)
	pos, err := enc.Encode(nil, Row{int32(1)})
	require.NoError(t, err)
	zero, err := enc.Encode(nil, Row{int32(0)})
	require.NoError(t, err)

	// Sign-flipped big-endian keeps natural byte order.
	assert.True(t, string(neg) < string(zero))
	assert.True(t, string(zero) < string(pos))
}

func TestEncoder_NullRejected(t *testing.T) {
	ks := New(Column{Name: "id", Type: TypeInt64, IsKey: true})
	enc, err := NewEncoder(ks)
	require.NoError(t, err)

	_, err = enc.Encode(nil, Row{nil})
	var serr *Error
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, "id", serr.Column)
}

func TestEncoder_TypeMismatch(t *testing.T) {
	ks := New(Column{Name: "id", Type: TypeInt64, IsKey: true})
	enc, err := NewEncoder(ks)
	require.NoError(t, err)

	_, err = enc.Encode(nil, Row{"not-an-int"})
	var serr *Error
	require.ErrorAs(t, err, &serr)
}

func TestEncoder_AppendsToDst(t *testing.T) {
	ks := New(Column{Name: "id", Type: TypeUint16, IsKey: true})
	enc, err := NewEncoder(ks)
	require.NoError(t, err)

	dst := []byte{0xAA}
	out, err := enc.Encode(dst, Row{uint16(0x0102)})
	require.NoError(t, err)
	assert.Equal(t, []byte{0xAA, 0x01, 0x02}, out)
}
