package codec

import "io"

// bitWriter packs values LSB first into a byte stream without padding
// between values.
type bitWriter struct {
	buf []byte
	acc uint64
	n   uint
}

func newBitWriter(capacity int) *bitWriter {
	return &bitWriter{buf: make([]byte, 0, capacity)}
}

// writeBits appends the low width bits of v. width may be up to 64.
func (w *bitWriter) writeBits(v uint64, width uint) {
	for width > 32 {
		w.write32(v&0xFFFFFFFF, 32)
		v >>= 32
		width -= 32
	}
	w.write32(v, width)
}

func (w *bitWriter) write32(v uint64, width uint) {
	w.acc |= (v & (1<<width - 1)) << w.n
	w.n += width
	for w.n >= 8 {
		w.buf = append(w.buf, byte(w.acc))
		w.acc >>= 8
		w.n -= 8
	}
}

// bytes flushes the partial trailing byte and returns the stream.
func (w *bitWriter) bytes() []byte {
	if w.n > 0 {
		w.buf = append(w.buf, byte(w.acc))
		w.acc = 0
		w.n = 0
	}
	return w.buf
}

type bitReader struct {
	data []byte
	acc  uint64
	n    uint
	pos  int
}

func newBitReader(b []byte) *bitReader { return &bitReader{data: b} }

// readBits returns the next width bits. width may be up to 64.
func (r *bitReader) readBits(width uint) (uint64, error) {
	var v uint64
	var shift uint
	for width > 32 {
		part, err := r.read32(32)
		if err != nil {
			return 0, err
		}
		v |= part << shift
		shift += 32
		width -= 32
	}
	part, err := r.read32(width)
	if err != nil {
		return 0, err
	}
	return v | part<<shift, nil
}

func (r *bitReader) read32(width uint) (uint64, error) {
	for r.n < width {
		if r.pos >= len(r.data) {
			return 0, io.ErrUnexpectedEOF
		}
		r.acc |= uint64(r.data[r.pos]) << r.n
		r.n += 8
		r.pos++
	}
	v := r.acc & (1<<width - 1)
	r.acc >>= width
	r.n -= width
	return v, nil
}

// appendUvarint appends x in base-128 groups, low group first.
func appendUvarint(dst []byte, x uint32) []byte {
	for x >= 0x80 {
		dst = append(dst, byte(x)|0x80)
		x >>= 7
	}
	return append(dst, byte(x))
}

// readUvarint decodes a value written by appendUvarint at *pos and advances
// *pos past it. Values that do not fit in 32 bits are rejected.
func readUvarint(src []byte, pos *int) (uint32, error) {
	var x uint32
	var s uint
	for i := *pos; i < len(src); i++ {
		b := src[i]
		if s == 28 && b > 0x0F {
			return 0, io.ErrUnexpectedEOF
		}
		if b < 0x80 {
			*pos = i + 1
			return x | uint32(b)<<s, nil
		}
		x |= uint32(b&0x7F) << s
		s += 7
	}
	return 0, io.ErrUnexpectedEOF
}
