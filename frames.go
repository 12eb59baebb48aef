package gifsteg

import (
	"bufio"
	"bytes"
	"fmt"
	"image"
	"image/gif"
	"io"

	gifx "github.com/NathanBaulch/gifx"
	"golang.org/x/image/draw"
)

// A PixelGrid is a decoded frame: Width*Height pixels in row-major order,
// Channels bytes per pixel (3 for RGB, 4 for RGBA).
type PixelGrid struct {
	Width, Height int
	Channels      int
	Pix           []uint8
}

// pixels is the number of complete pixels actually present in Pix.
func (g PixelGrid) pixels() int {
	if g.Channels <= 0 {
		return 0
	}
	n := len(g.Pix) / g.Channels
	if wh := g.Width * g.Height; wh < n {
		n = wh
	}
	return n
}

// GridFromImage copies img into a 4-channel grid of non-premultiplied RGBA.
func GridFromImage(img image.Image) PixelGrid {
	b := img.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return PixelGrid{Width: b.Dx(), Height: b.Dy(), Channels: 4, Pix: dst.Pix}
}

// Image returns the grid as an *image.NRGBA. RGB grids get an opaque alpha
// channel.
func (g PixelGrid) Image() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, g.Width, g.Height))
	n := g.pixels()
	for i := 0; i < n; i++ {
		src := g.Pix[i*g.Channels : (i+1)*g.Channels]
		dst := img.Pix[i*4 : i*4+4]
		switch {
		case g.Channels >= 4:
			copy(dst, src[:4])
		case g.Channels == 3:
			copy(dst, src)
			dst[3] = 0xFF
		default:
			dst[0], dst[1], dst[2], dst[3] = src[0], src[0], src[0], 0xFF
		}
	}
	return img
}

// A Codec turns an encoded GIF into its frames, in frame order.
type Codec interface {
	DecodeFrames(r io.Reader) ([]PixelGrid, error)
}

// StdCodec decodes frames one block at a time and composites each onto the
// logical screen, honoring disposal methods, so every grid covers the whole
// screen as a viewer would show it. When the stream breaks off, the frames
// decoded before that point are returned together with the error.
type StdCodec struct{}

// DecodeFrames implements Codec.
func (StdCodec) DecodeFrames(r io.Reader) (frames []PixelGrid, err error) {
	// the decoder can panic on some malformed streams.
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("gif: decoder panic: %v", rec)
		}
	}()
	br := bufio.NewReader(r)
	var screen image.Rectangle
	if b, _ := br.Peek(headerLen); len(b) > 0 {
		if h, err := NewDecoder(bytes.NewReader(b)).ReadHeader(); err == nil {
			screen = image.Rect(0, 0, int(h.Width), int(h.Height))
		}
	}

	dec := gifx.NewDecoder(br)
	if _, err := dec.ReadHeader(); err != nil {
		return nil, err
	}
	var c compositor
	for {
		blk, err := dec.ReadBlock()
		if err == io.EOF {
			return frames, nil
		} else if err != nil {
			return frames, err
		}
		if f, ok := blk.(*gifx.Frame); ok && f.Image != nil {
			frames = append(frames, c.add(screen, f.Image, f.Disposal))
		}
	}
}

// compositor holds the canvas frames are painted onto.
type compositor struct {
	canvas *image.NRGBA
}

// add paints img over the canvas, snapshots the result and then applies
// the frame's disposal method. A zero screen takes the first frame's bounds.
func (c *compositor) add(screen image.Rectangle, img *image.Paletted, disposal byte) PixelGrid {
	if c.canvas == nil {
		if screen.Empty() {
			screen = img.Bounds()
		}
		c.canvas = image.NewNRGBA(screen)
	}
	var saved *image.NRGBA
	if disposal == gif.DisposalPrevious {
		saved = cloneNRGBA(c.canvas)
	}
	draw.Draw(c.canvas, img.Bounds(), img, img.Bounds().Min, draw.Over)
	g := GridFromImage(c.canvas)

	switch disposal {
	case gif.DisposalBackground:
		draw.Draw(c.canvas, img.Bounds(), image.Transparent, image.Point{}, draw.Src)
	case gif.DisposalPrevious:
		c.canvas = saved
	}
	return g
}

func cloneNRGBA(m *image.NRGBA) *image.NRGBA {
	c := *m
	c.Pix = append([]uint8(nil), m.Pix...)
	return &c
}
