package keyarc

import (
	"encoding/binary"
)

func ensureCapacity(buf []byte, minCap int) []byte {
	c := cap(buf)
	if minCap > c {
		if c < 16 {
			c = 16
		}
		for minCap > c {
			c <<= 1
		}
		old := buf
		buf = make([]byte, len(old), c)
		copy(buf, old)
	}
	return buf
}

func grow(buf []byte, n int) (int, []byte) {
	off := len(buf)
	newLen := off + n
	buf = ensureCapacity(buf, newLen)
	return off, buf[:newLen]
}

func appendRaw(buf []byte, chunk []byte) []byte {
	n := len(chunk)
	off, buf := grow(buf, n)
	copy(buf[off:], chunk)
	return buf
}

func appendByte(buf []byte, v byte) []byte {
	off, buf := grow(buf, 1)
	buf[off] = v
	return buf
}

func appendUint64(buf []byte, v uint64) []byte {
	off, buf := grow(buf, 8)
	binary.LittleEndian.PutUint64(buf[off:], v)
	return buf
}

func appendString(buf []byte, v string) []byte {
	n := len(v)
	off, buf := grow(buf, n)
	copy(buf[off:], v)
	return buf
}

// byteReader walks archive bytes left to right, turning every short read
// into an InvalidInputError carrying the failing offset.
type byteReader struct {
	data []byte
	off  int
}

func (r *byteReader) remaining() int {
	return len(r.data) - r.off
}

func (r *byteReader) readByte() (byte, error) {
	if r.off >= len(r.data) {
		return 0, invalidInputf(r.off, nil, "unexpected end of archive")
	}
	b := r.data[r.off]
	r.off++
	return b, nil
}

func (r *byteReader) readUint64() (uint64, error) {
	if r.remaining() < 8 {
		return 0, invalidInputf(r.off, nil, "unexpected end of archive, wanted 8 bytes, have %d", r.remaining())
	}
	v := binary.LittleEndian.Uint64(r.data[r.off:])
	r.off += 8
	return v, nil
}

func (r *byteReader) readRaw(n int) ([]byte, error) {
	if uint64(n) > uint64(r.remaining()) {
		return nil, invalidInputf(r.off, nil, "unexpected end of archive, wanted %d bytes, have %d", n, r.remaining())
	}
	b := r.data[r.off : r.off+n]
	r.off += n
	return b, nil
}

// readCount reads a u64 count and sanity-checks it against the bytes left,
// so a corrupted count cannot drive a huge allocation.
func (r *byteReader) readCount(minElSize int) (int, error) {
	v, err := r.readUint64()
	if err != nil {
		return 0, err
	}
	if v > uint64(r.remaining()/minElSize) {
		return 0, invalidInputf(r.off, nil, "count %d exceeds remaining archive size %d", v, r.remaining())
	}
	return int(v), nil
}
