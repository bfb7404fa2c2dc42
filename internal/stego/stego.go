// Package stego hides a zero-terminated message in the least significant bits
// of a bitmap's pixel array.
//
// Every byte of the pixel array carries one bit of the message, padding bytes
// included, in the order the bytes are stored. Bit i of the message is bit
// i%8 of message byte i/8 (least significant bit first). Once the terminator
// has been written, the remaining bytes are left untouched.
package stego

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/anas-shakeel/bmptools/internal/bmp"
)

var ErrPayloadTooLarge = errors.New("image is too small to contain the whole text")

// errDone stops row iteration once the terminator has been decoded.
var errDone = errors.New("terminator reached")

type state int

const (
	writingPayload state = iota
	passThrough
)

// cursor tracks the position in the message across the whole pixel array.
type cursor struct {
	bit   int
	state state
	cur   byte // byte being decoded
}

// Returns b with its least significant bit replaced by the next message bit.
func (c *cursor) embed(b byte, msg []byte) byte {
	if c.state == passThrough {
		return b
	}

	bit := (msg[c.bit/8] >> (c.bit % 8)) & 1
	b = b&^1 | bit
	c.bit++
	if c.bit == len(msg)*8 {
		c.state = passThrough
	}
	return b
}

// Adds the least significant bit of b to the message being decoded. It
// returns the decoded byte and true whenever a byte is complete.
func (c *cursor) extract(b byte) (byte, bool) {
	c.cur |= (b & 1) << (c.bit % 8)
	c.bit++
	if c.bit%8 != 0 {
		return 0, false
	}

	v := c.cur
	c.cur = 0
	if v == 0 {
		c.state = passThrough
	}
	return v, true
}

// Returns how many message bytes, terminator included, fit in the image
func Capacity(g bmp.Geometry) int {
	return g.PixelDataSize() / 8
}

// Returns payload cut after its first zero byte, or payload with a zero byte
// appended if it has none.
func terminate(payload []byte) []byte {
	if i := bytes.IndexByte(payload, 0); i >= 0 {
		return payload[:i+1]
	}
	msg := make([]byte, len(payload)+1)
	copy(msg, payload)
	return msg
}

// Check reports ErrPayloadTooLarge if payload does not fit in the image
func Check(g bmp.Geometry, payload []byte) error {
	need := len(terminate(payload))
	if capacity := Capacity(g); need > capacity {
		return fmt.Errorf("%w: need %d bytes, image holds %d", ErrPayloadTooLarge, need, capacity)
	}
	return nil
}

// Encode copies the pixel array from src to dst, hiding payload in it.
// Nothing is written when the payload does not fit.
func Encode(g bmp.Geometry, src io.Reader, dst io.Writer, payload []byte) error {
	if err := Check(g, payload); err != nil {
		return err
	}
	msg := terminate(payload)

	var c cursor
	return g.Rows(src, dst, func(_ int, row bmp.Row) error {
		line := row.Bytes()
		for i, b := range line {
			line[i] = c.embed(b, msg)
		}
		return nil
	})
}

// Decode reads a hidden message from the pixel array in src. Reading stops at
// the terminator; the returned message does not include it. When the image
// holds no terminator, every complete byte is returned.
func Decode(g bmp.Geometry, src io.Reader) ([]byte, error) {
	msg := make([]byte, 0, min(Capacity(g)+1, 4096))

	var c cursor
	err := g.Rows(src, nil, func(_ int, row bmp.Row) error {
		for _, b := range row.Bytes() {
			v, ok := c.extract(b)
			if !ok {
				continue
			}
			if c.state == passThrough {
				return errDone
			}
			msg = append(msg, v)
		}
		return nil
	})
	if err != nil && !errors.Is(err, errDone) {
		return nil, err
	}
	return msg, nil
}
