package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
	"unicode/utf8"
)

var (
	// ErrCodec matches every encode or decode failure.
	ErrCodec = errors.New("codec error")

	// ErrBufferTooSmall is returned when the output buffer cannot hold the message.
	ErrBufferTooSmall = errors.New("buffer too small")

	// ErrStringTooLong is returned when a string exceeds MaxStringLen bytes.
	ErrStringTooLong = errors.New("string exceeds 65535 bytes")

	// ErrTruncated is returned when the input ends before the message does.
	ErrTruncated = errors.New("truncated input")

	// ErrInvalidUTF8 is returned for string fields that are not valid UTF-8.
	ErrInvalidUTF8 = errors.New("invalid UTF-8")

	// ErrTrailingData is returned by Unmarshal when input remains after the message.
	ErrTrailingData = errors.New("trailing data")
)

// CodecError describes which message and field failed to encode or decode.
type CodecError struct {
	Op      string // "encode" or "decode"
	Message string
	Field   string
	Err     error
}

// Error implements the error interface.
func (e *CodecError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s %s.%s: %v", e.Op, e.Message, e.Field, e.Err)
}

// Unwrap lets errors.Is match both ErrCodec and the specific cause.
func (e *CodecError) Unwrap() []error {
	return []error{ErrCodec, e.Err}
}

// Message is implemented by every wire message in this package.
type Message interface {
	// EncodedLen returns the exact number of bytes Encode writes.
	EncodedLen() int

	fields(c *cursor)
	name() string
}

// Encode writes m into buf and returns the written prefix of buf.
func Encode(buf []byte, m Message) ([]byte, error) {
	c := &cursor{op: "encode", msg: m.name(), buf: buf}
	m.fields(c)
	if c.err != nil {
		return nil, c.err
	}
	return buf[:c.off], nil
}

// Decode reads m from the front of data and returns the unconsumed remainder.
// On error m is left partially filled and must be discarded.
func Decode(data []byte, m Message) ([]byte, error) {
	c := &cursor{op: "decode", msg: m.name(), buf: data, decoding: true}
	m.fields(c)
	if c.err != nil {
		return nil, c.err
	}
	return data[c.off:], nil
}

// Marshal encodes m into a newly allocated slice of exactly m.EncodedLen() bytes.
func Marshal(m Message) ([]byte, error) {
	return Encode(make([]byte, m.EncodedLen()), m)
}

// Unmarshal decodes m from data, which must contain exactly one message.
func Unmarshal(data []byte, m Message) error {
	rest, err := Decode(data, m)
	if err != nil {
		return err
	}
	if len(rest) != 0 {
		return &CodecError{Op: "decode", Message: m.name(), Err: ErrTrailingData}
	}
	return nil
}

// cursor walks a message's fields in declared order, either writing them into
// buf or reading them out of it. The first failure sticks.
type cursor struct {
	op       string
	msg      string
	buf      []byte
	off      int
	decoding bool
	err      error
}

func (c *cursor) fail(field string, err error) {
	c.err = &CodecError{Op: c.op, Message: c.msg, Field: field, Err: err}
}

// short returns the error for running out of room in the current direction.
func (c *cursor) short() error {
	if c.decoding {
		return ErrTruncated
	}
	return ErrBufferTooSmall
}

func (c *cursor) remaining() int {
	return len(c.buf) - c.off
}

// bytes moves a fixed-width field.
func (c *cursor) bytes(field string, b []byte) {
	if c.err != nil {
		return
	}
	if c.remaining() < len(b) {
		c.fail(field, c.short())
		return
	}

	if c.decoding {
		copy(b, c.buf[c.off:])
	} else {
		copy(c.buf[c.off:], b)
	}
	c.off += len(b)
}

// string moves a 2-byte little-endian length prefix followed by raw UTF-8 bytes.
func (c *cursor) string(field string, s *string) {
	if c.err != nil {
		return
	}

	if c.decoding {
		c.decodeString(field, s)
		return
	}

	if len(*s) > MaxStringLen {
		c.fail(field, ErrStringTooLong)
		return
	}
	if !utf8.ValidString(*s) {
		c.fail(field, ErrInvalidUTF8)
		return
	}
	if c.remaining() < 2+len(*s) {
		c.fail(field, ErrBufferTooSmall)
		return
	}

	binary.LittleEndian.PutUint16(c.buf[c.off:], uint16(len(*s)))
	c.off += 2
	c.off += copy(c.buf[c.off:], *s)
}

func (c *cursor) decodeString(field string, s *string) {
	if c.remaining() < 2 {
		c.fail(field, ErrTruncated)
		return
	}
	n := int(binary.LittleEndian.Uint16(c.buf[c.off:]))

	if c.remaining()-2 < n {
		c.fail(field, ErrTruncated)
		return
	}
	raw := c.buf[c.off+2 : c.off+2+n]

	if !utf8.Valid(raw) {
		c.fail(field, ErrInvalidUTF8)
		return
	}

	*s = string(raw)
	c.off += 2 + n
}
