package gifsteg

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/gif"
	"testing"

	"github.com/stretchr/testify/require"
)

// gifBuilder assembles GIF streams byte by byte.
type gifBuilder struct {
	bytes.Buffer
}

func (b *gifBuilder) header(width, height uint16, packed byte) *gifBuilder {
	b.WriteString("GIF89a")
	binary.Write(b, binary.LittleEndian, width)
	binary.Write(b, binary.LittleEndian, height)
	b.WriteByte(packed)
	b.Write([]byte{0, 0})
	return b
}

func (b *gifBuilder) table(entries int, seed byte) *gifBuilder {
	b.Write(tableBytes(entries, seed))
	return b
}

func (b *gifBuilder) image(packed byte, lct []byte, data ...[]byte) *gifBuilder {
	b.WriteByte(sImageDescriptor)
	b.Write([]byte{0, 0, 0, 0, 1, 0, 1, 0})
	b.WriteByte(packed)
	b.Write(lct)
	b.WriteByte(2)
	b.subBlocks(data...)
	return b
}

func (b *gifBuilder) extension(label byte, data ...[]byte) *gifBuilder {
	b.WriteByte(sExtension)
	b.WriteByte(label)
	b.subBlocks(data...)
	return b
}

func (b *gifBuilder) subBlocks(data ...[]byte) *gifBuilder {
	for _, d := range data {
		b.WriteByte(byte(len(d)))
		b.Write(d)
	}
	b.WriteByte(0)
	return b
}

func (b *gifBuilder) trailer() *gifBuilder {
	b.WriteByte(sTrailer)
	return b
}

// tableBytes returns a distinct, predictable color table.
func tableBytes(entries int, seed byte) []byte {
	raw := make([]byte, 3*entries)
	for i := range raw {
		raw[i] = byte(i) + seed
	}
	return raw
}

// bitPalette has one color per combination of R, G and B low bits, so a
// pixel's palette index is the three bits it carries.
var bitPalette = color.Palette{
	color.RGBA{0x10, 0x20, 0x30, 0xFF},
	color.RGBA{0x10, 0x20, 0x31, 0xFF},
	color.RGBA{0x10, 0x21, 0x30, 0xFF},
	color.RGBA{0x10, 0x21, 0x31, 0xFF},
	color.RGBA{0x11, 0x20, 0x30, 0xFF},
	color.RGBA{0x11, 0x20, 0x31, 0xFF},
	color.RGBA{0x11, 0x21, 0x30, 0xFF},
	color.RGBA{0x11, 0x21, 0x31, 0xFF},
}

// encodePayloadGIF hides payload in the RGB LSBs of an animated GIF with
// full-screen opaque frames of width x 1 pixels.
func encodePayloadGIF(t *testing.T, payload []byte, width, frames int) []byte {
	t.Helper()
	var bits []byte
	for _, c := range payload {
		for i := 7; i >= 0; i-- {
			bits = append(bits, c>>uint(i)&1)
		}
	}
	require.LessOrEqual(t, len(bits), 3*width*frames)
	for len(bits) < 3*width*frames {
		bits = append(bits, 0)
	}

	g := &gif.GIF{}
	for f := 0; f < frames; f++ {
		img := image.NewPaletted(image.Rect(0, 0, width, 1), bitPalette)
		for x := 0; x < width; x++ {
			k := 3 * (f*width + x)
			img.Pix[x] = bits[k]<<2 | bits[k+1]<<1 | bits[k+2]
		}
		g.Image = append(g.Image, img)
		g.Delay = append(g.Delay, 10)
	}
	var buf bytes.Buffer
	require.NoError(t, gif.EncodeAll(&buf, g))
	return buf.Bytes()
}
