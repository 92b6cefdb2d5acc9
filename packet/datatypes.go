package packet

import (
	"bytes"
	"encoding/binary"
)

// maxStringLen is the largest UTF-8 string the two-byte length prefix can
// address.
const maxStringLen = 65535

// putString appends a length-prefixed UTF-8 string: two-byte big-endian
// length followed by the bytes.
func putString(buf *bytes.Buffer, s string) error {
	if len(s) > maxStringLen {
		return ErrStringLengthError
	}
	var lb [2]byte
	binary.BigEndian.PutUint16(lb[:], uint16(len(s)))
	buf.Write(lb[:])
	buf.WriteString(s)
	return nil
}

// putBytes appends a length-prefixed binary field.
func putBytes(buf *bytes.Buffer, b []byte) error {
	if len(b) > maxStringLen {
		return ErrStringLengthError
	}
	var lb [2]byte
	binary.BigEndian.PutUint16(lb[:], uint16(len(b)))
	buf.Write(lb[:])
	buf.Write(b)
	return nil
}

// getString reads a length-prefixed UTF-8 string from buf.
func getString(buf *bytes.Buffer) (string, error) {
	b, err := getBytes(buf)
	return string(b), err
}

// getBytes reads a length-prefixed binary field from buf.
func getBytes(buf *bytes.Buffer) ([]byte, error) {
	if buf.Len() < 2 {
		return nil, ErrMalformedResponse
	}
	n := int(binary.BigEndian.Uint16(buf.Next(2)))
	if buf.Len() < n {
		return nil, ErrMalformedResponse
	}
	out := make([]byte, n)
	copy(out, buf.Next(n))
	return out, nil
}

func putUint16(buf *bytes.Buffer, v uint16) {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	buf.Write(b[:])
}

func getUint16(buf *bytes.Buffer) (uint16, error) {
	if buf.Len() < 2 {
		return 0, ErrMalformedResponse
	}
	return binary.BigEndian.Uint16(buf.Next(2)), nil
}
