package kadedb

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// Binary serialization constants. MAGIC spells "KDBV" in ASCII and
// guards every top-level encoded blob; VERSION lets the decoder reject
// a format it does not understand instead of misreading it.
const (
	binMagic   uint32 = 0x4B444256
	binVersion byte   = 1
)

// valueTag is the one-byte discriminator written before a Value's
// payload. Its ordinal matches ValueType so encode/decode stay a
// straight cast.
type valueTag byte

// EncodeValue writes v's binary form: a one-byte type tag followed by
// its payload (no payload for null). All multi-byte fields are
// little-endian.
func EncodeValue(w io.Writer, v Value) error {
	if err := binary.Write(w, binary.LittleEndian, byte(v.Type())); err != nil {
		return err
	}
	switch v.Type() {
	case TypeNull:
		return nil
	case TypeInteger:
		i, _ := v.AsInt()
		return binary.Write(w, binary.LittleEndian, i)
	case TypeFloat:
		f, _ := v.AsFloat()
		return binary.Write(w, binary.LittleEndian, f)
	case TypeString:
		s, _ := v.AsString()
		if err := binary.Write(w, binary.LittleEndian, uint32(len(s))); err != nil {
			return err
		}
		_, err := io.WriteString(w, s)
		return err
	case TypeBoolean:
		b, _ := v.AsBool()
		var bb byte
		if b {
			bb = 1
		}
		return binary.Write(w, binary.LittleEndian, bb)
	default:
		return fmt.Errorf("encode: unknown value type %d", v.Type())
	}
}

// DecodeValue reads a Value previously written by EncodeValue.
func DecodeValue(r io.Reader) (Value, error) {
	var tag byte
	if err := binary.Read(r, binary.LittleEndian, &tag); err != nil {
		return Value{}, err
	}
	switch ValueType(tag) {
	case TypeNull:
		return NewNull(), nil
	case TypeInteger:
		var i int64
		if err := binary.Read(r, binary.LittleEndian, &i); err != nil {
			return Value{}, err
		}
		return NewInteger(i), nil
	case TypeFloat:
		var f float64
		if err := binary.Read(r, binary.LittleEndian, &f); err != nil {
			return Value{}, err
		}
		return NewFloat(f), nil
	case TypeString:
		var n uint32
		if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
			return Value{}, err
		}
		buf := make([]byte, n)
		if _, err := io.ReadFull(r, buf); err != nil {
			return Value{}, err
		}
		return NewString(string(buf)), nil
	case TypeBoolean:
		var b byte
		if err := binary.Read(r, binary.LittleEndian, &b); err != nil {
			return Value{}, err
		}
		return NewBoolean(b != 0), nil
	default:
		return Value{}, fmt.Errorf("decode: unknown value tag %d", tag)
	}
}

// EncodeRow writes a Row as a cell count followed by each cell's
// EncodeValue form.
func EncodeRow(w io.Writer, row *Row) error {
	if err := binary.Write(w, binary.LittleEndian, uint32(len(row.Cells))); err != nil {
		return err
	}
	for _, c := range row.Cells {
		if err := EncodeValue(w, c); err != nil {
			return err
		}
	}
	return nil
}

// DecodeRow reads a Row previously written by EncodeRow.
func DecodeRow(r io.Reader) (*Row, error) {
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return nil, err
	}
	cells := make([]Value, n)
	for i := range cells {
		v, err := DecodeValue(r)
		if err != nil {
			return nil, err
		}
		cells[i] = v
	}
	return &Row{Cells: cells}, nil
}

func encodeString(w io.Writer, s string) error {
	if err := binary.Write(w, binary.LittleEndian, uint32(len(s))); err != nil {
		return err
	}
	_, err := io.WriteString(w, s)
	return err
}

func decodeString(r io.Reader) (string, error) {
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return "", err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

func encodeConstraints(w io.Writer, c Constraints) error {
	flags := byte(0)
	if c.MinLength != nil {
		flags |= 1 << 0
	}
	if c.MaxLength != nil {
		flags |= 1 << 1
	}
	if c.MinValue != nil {
		flags |= 1 << 2
	}
	if c.MaxValue != nil {
		flags |= 1 << 3
	}
	if len(c.OneOf) > 0 {
		flags |= 1 << 4
	}
	if err := binary.Write(w, binary.LittleEndian, flags); err != nil {
		return err
	}
	if c.MinLength != nil {
		if err := binary.Write(w, binary.LittleEndian, int32(*c.MinLength)); err != nil {
			return err
		}
	}
	if c.MaxLength != nil {
		if err := binary.Write(w, binary.LittleEndian, int32(*c.MaxLength)); err != nil {
			return err
		}
	}
	if c.MinValue != nil {
		if err := binary.Write(w, binary.LittleEndian, *c.MinValue); err != nil {
			return err
		}
	}
	if c.MaxValue != nil {
		if err := binary.Write(w, binary.LittleEndian, *c.MaxValue); err != nil {
			return err
		}
	}
	if len(c.OneOf) > 0 {
		if err := binary.Write(w, binary.LittleEndian, uint32(len(c.OneOf))); err != nil {
			return err
		}
		for _, v := range c.OneOf {
			if err := EncodeValue(w, v); err != nil {
				return err
			}
		}
	}
	return nil
}

func decodeConstraints(r io.Reader) (Constraints, error) {
	var c Constraints
	var flags byte
	if err := binary.Read(r, binary.LittleEndian, &flags); err != nil {
		return c, err
	}
	if flags&(1<<0) != 0 {
		var n int32
		if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
			return c, err
		}
		v := int(n)
		c.MinLength = &v
	}
	if flags&(1<<1) != 0 {
		var n int32
		if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
			return c, err
		}
		v := int(n)
		c.MaxLength = &v
	}
	if flags&(1<<2) != 0 {
		var v float64
		if err := binary.Read(r, binary.LittleEndian, &v); err != nil {
			return c, err
		}
		c.MinValue = &v
	}
	if flags&(1<<3) != 0 {
		var v float64
		if err := binary.Read(r, binary.LittleEndian, &v); err != nil {
			return c, err
		}
		c.MaxValue = &v
	}
	if flags&(1<<4) != 0 {
		var n uint32
		if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
			return c, err
		}
		c.OneOf = make([]Value, n)
		for i := range c.OneOf {
			v, err := DecodeValue(r)
			if err != nil {
				return c, err
			}
			c.OneOf[i] = v
		}
	}
	return c, nil
}

func encodeColumn(w io.Writer, c Column) error {
	if err := encodeString(w, c.Name); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, byte(c.Type)); err != nil {
		return err
	}
	flags := byte(0)
	if c.Nullable {
		flags |= 1
	}
	if c.Unique {
		flags |= 2
	}
	if err := binary.Write(w, binary.LittleEndian, flags); err != nil {
		return err
	}
	return encodeConstraints(w, c.Constraints)
}

func decodeColumn(r io.Reader) (Column, error) {
	var c Column
	name, err := decodeString(r)
	if err != nil {
		return c, err
	}
	var typ, flags byte
	if err := binary.Read(r, binary.LittleEndian, &typ); err != nil {
		return c, err
	}
	if err := binary.Read(r, binary.LittleEndian, &flags); err != nil {
		return c, err
	}
	constraints, err := decodeConstraints(r)
	if err != nil {
		return c, err
	}
	c.Name = name
	c.Type = ColumnType(typ)
	c.Nullable = flags&1 != 0
	c.Unique = flags&2 != 0
	c.Constraints = constraints
	return c, nil
}

// EncodeTableSchema writes a header (magic, version) followed by the
// ordered column list and optional primary key name.
func EncodeTableSchema(w io.Writer, ts *TableSchema) error {
	if err := binary.Write(w, binary.LittleEndian, binMagic); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, binVersion); err != nil {
		return err
	}
	cols := ts.Columns()
	if err := binary.Write(w, binary.LittleEndian, uint32(len(cols))); err != nil {
		return err
	}
	for _, c := range cols {
		if err := encodeColumn(w, c); err != nil {
			return err
		}
	}
	pk, has := ts.PrimaryKey()
	var hasByte byte
	if has {
		hasByte = 1
	}
	if err := binary.Write(w, binary.LittleEndian, hasByte); err != nil {
		return err
	}
	if has {
		return encodeString(w, pk)
	}
	return nil
}

// DecodeTableSchema reads a TableSchema previously written by
// EncodeTableSchema, validating the magic and version.
func DecodeTableSchema(r io.Reader) (*TableSchema, error) {
	var magic uint32
	if err := binary.Read(r, binary.LittleEndian, &magic); err != nil {
		return nil, err
	}
	if magic != binMagic {
		return nil, fmt.Errorf("decode table schema: bad magic 0x%x", magic)
	}
	var version byte
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return nil, err
	}
	if version != binVersion {
		return nil, fmt.Errorf("decode table schema: unsupported version %d", version)
	}
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return nil, err
	}
	cols := make([]Column, n)
	for i := range cols {
		c, err := decodeColumn(r)
		if err != nil {
			return nil, err
		}
		cols[i] = c
	}
	ts := NewTableSchema(cols)
	var hasByte byte
	if err := binary.Read(r, binary.LittleEndian, &hasByte); err != nil {
		return nil, err
	}
	if hasByte != 0 {
		pk, err := decodeString(r)
		if err != nil {
			return nil, err
		}
		if err := ts.SetPrimaryKey(pk); err != nil {
			return nil, err
		}
	}
	return ts, nil
}

// EncodeDocumentSchema writes a header followed by the field list.
func EncodeDocumentSchema(w io.Writer, ds *DocumentSchema) error {
	if err := binary.Write(w, binary.LittleEndian, binMagic); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, binVersion); err != nil {
		return err
	}
	fields := ds.Fields()
	if err := binary.Write(w, binary.LittleEndian, uint32(len(fields))); err != nil {
		return err
	}
	for _, f := range fields {
		if err := encodeColumn(w, f); err != nil {
			return err
		}
	}
	return nil
}

// DecodeDocumentSchema reads a DocumentSchema previously written by
// EncodeDocumentSchema.
func DecodeDocumentSchema(r io.Reader) (*DocumentSchema, error) {
	var magic uint32
	if err := binary.Read(r, binary.LittleEndian, &magic); err != nil {
		return nil, err
	}
	if magic != binMagic {
		return nil, fmt.Errorf("decode document schema: bad magic 0x%x", magic)
	}
	var version byte
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return nil, err
	}
	if version != binVersion {
		return nil, fmt.Errorf("decode document schema: unsupported version %d", version)
	}
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return nil, err
	}
	fields := make([]Column, n)
	for i := range fields {
		f, err := decodeColumn(r)
		if err != nil {
			return nil, err
		}
		fields[i] = f
	}
	return NewDocumentSchema(fields), nil
}

// EncodeDocument writes a field count followed by name/value pairs.
func EncodeDocument(w io.Writer, d *Document) error {
	if err := binary.Write(w, binary.LittleEndian, uint32(len(d.Fields))); err != nil {
		return err
	}
	for name, v := range d.Fields {
		if err := encodeString(w, name); err != nil {
			return err
		}
		if err := EncodeValue(w, v); err != nil {
			return err
		}
	}
	return nil
}

// DecodeDocument reads a Document previously written by EncodeDocument.
func DecodeDocument(r io.Reader) (*Document, error) {
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return nil, err
	}
	d := NewDocument()
	for i := uint32(0); i < n; i++ {
		name, err := decodeString(r)
		if err != nil {
			return nil, err
		}
		v, err := DecodeValue(r)
		if err != nil {
			return nil, err
		}
		d.Set(name, v)
	}
	return d, nil
}

// MarshalBinaryValue is a convenience wrapper returning []byte instead
// of requiring an io.Writer.
func MarshalBinaryValue(v Value) ([]byte, error) {
	var buf bytes.Buffer
	if err := EncodeValue(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalBinaryValue is the inverse of MarshalBinaryValue.
func UnmarshalBinaryValue(data []byte) (Value, error) {
	return DecodeValue(bytes.NewReader(data))
}
