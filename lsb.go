package gifsteg

import "errors"

// ErrTooSmall is returned when the frames cannot hold the data to embed.
var ErrTooSmall = errors.New("frames are too small to hold the data")

// lsbChannels is how many channels of each pixel carry a bit. Alpha never
// does.
func lsbChannels(g PixelGrid) int {
	if g.Channels > 3 {
		return 3
	}
	return g.Channels
}

// A PayloadBuffer accumulates LSBs and packs them into bytes, most
// significant bit first. The zero value is empty and ready to use.
type PayloadBuffer struct {
	data []byte
	cur  byte
	nbit uint
	bits int
}

// WriteBit appends the low bit of b.
func (p *PayloadBuffer) WriteBit(b uint8) {
	p.cur = p.cur<<1 | b&1
	p.nbit++
	p.bits++
	if p.nbit == 8 {
		p.data = append(p.data, p.cur)
		p.cur, p.nbit = 0, 0
	}
}

// AppendFrame appends the LSB of every R, G and B value of g in raster
// order.
func (p *PayloadBuffer) AppendFrame(g PixelGrid) {
	ch := lsbChannels(g)
	n := g.pixels()
	for i := 0; i < n; i++ {
		px := g.Pix[i*g.Channels:]
		for c := 0; c < ch; c++ {
			p.WriteBit(px[c])
		}
	}
}

// Bits returns the number of bits appended so far.
func (p *PayloadBuffer) Bits() int { return p.bits }

// Bytes returns the packed payload. A trailing group of fewer than 8 bits is
// left out.
func (p *PayloadBuffer) Bytes() []byte { return p.data }

// Reconstruct concatenates the LSBs of frames, in order, into a payload.
// Frames are visited by index, pixels in raster order and channels as R, G,
// B. Bits left over after the last full byte are dropped.
func Reconstruct(frames []PixelGrid) []byte {
	var p PayloadBuffer
	for _, f := range frames {
		p.AppendFrame(f)
	}
	return p.Bytes()
}

// Capacity returns the number of whole bytes the frames' LSBs can hold.
func Capacity(frames []PixelGrid) int {
	bits := 0
	for _, f := range frames {
		bits += f.pixels() * lsbChannels(f)
	}
	return bits / 8
}

// Embed writes data into the LSBs of frames in the order Reconstruct reads
// them, modifying the grids in place. LSBs past the end of data are left
// untouched.
func Embed(frames []PixelGrid, data []byte) error {
	if Capacity(frames) < len(data) {
		return ErrTooSmall
	}
	bit := 0
	total := 8 * len(data)
	for _, g := range frames {
		ch := lsbChannels(g)
		n := g.pixels()
		for i := 0; i < n && bit < total; i++ {
			px := g.Pix[i*g.Channels:]
			for c := 0; c < ch && bit < total; c++ {
				b := data[bit/8] >> (7 - uint(bit%8)) & 1
				px[c] = px[c]&0xFE | b
				bit++
			}
		}
	}
	return nil
}
