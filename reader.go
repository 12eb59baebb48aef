// Package gifsteg inspects GIF files for hidden data. It walks the GIF block
// structure without an image decoder to recover color tables and frame
// metadata, and it reconstructs payloads hidden in the least significant bits
// of decoded frames.
package gifsteg

import (
	"bufio"
	"bytes"
	"io"

	bst "github.com/mixcode/binarystruct"
)

// A FormatError reports that the input is not a valid GIF.
type FormatError string

func (e FormatError) Error() string { return "gif: invalid format: " + string(e) }

// Section indicators.
const (
	sExtension       = 0x21
	sImageDescriptor = 0x2C
	sTrailer         = 0x3B
)

// Masks for the packed fields of the logical screen and image descriptors.
const (
	fColorTable         = 1 << 7
	fInterlace          = 1 << 6
	fColorTableBitsMask = 7
)

const headerLen = 13

// screenSize is the part of the logical screen descriptor that must be
// present for a stream to count as a GIF.
type screenSize struct {
	Width, Height uint16 `binary:"uint16"`
}

// imageDescriptor follows the 0x2C tag.
type imageDescriptor struct {
	Left, Top, Width, Height uint16 `binary:"uint16"`
	Packed                   byte
}

// unpack decodes a little-endian structure from b, which the cursor has
// already read in full.
func unpack(b []byte, v interface{}) error {
	_, err := bst.Read(bytes.NewReader(b), bst.LittleEndian, v)
	return err
}

// Header is the GIF header plus the logical screen descriptor.
type Header struct {
	Signature [3]byte // "GIF"
	Version   [3]byte // "87a" or "89a", not validated

	Width           uint16
	Height          uint16
	Packed          byte
	BackgroundIndex byte
	AspectRatio     byte

	// Truncated is set when the source ended before the packed byte. Only
	// the signature, version and screen size are meaningful then.
	Truncated bool
}

// HasGlobalColorTable reports whether the global color table flag is set.
func (h Header) HasGlobalColorTable() bool {
	return !h.Truncated && h.Packed&fColorTable != 0
}

// GlobalColorTableLen is the declared number of GCT entries, or 0 if the
// table is absent.
func (h Header) GlobalColorTableLen() int {
	if !h.HasGlobalColorTable() {
		return 0
	}
	return tableLen(h.Packed)
}

// tableLen decodes the 3-bit size exponent shared by both descriptors.
func tableLen(fields byte) int {
	return 1 << (1 + uint(fields&fColorTableBitsMask))
}

// cursor is the byte source shared by the header reader, the color table
// extractor and the block walker. Exactly one of them advances it at a time.
type cursor struct {
	r          *bufio.Reader
	off        int64
	inSubBlock bool
}

// readFull reads len(b) bytes. A short read reports ok == false with a nil
// error; err is only set for failures other than running out of input.
func (c *cursor) readFull(b []byte) (n int, ok bool, err error) {
	n, err = io.ReadFull(c.r, b)
	c.off += int64(n)
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return n, false, nil
	}
	return n, err == nil, err
}

func (c *cursor) readByte() (byte, bool, error) {
	b, err := c.r.ReadByte()
	if err == io.EOF {
		return 0, false, nil
	} else if err != nil {
		return 0, false, err
	}
	c.off++
	return b, true, nil
}

func (c *cursor) discard(n int) (bool, error) {
	d, err := c.r.Discard(n)
	c.off += int64(d)
	if err == io.EOF {
		return false, nil
	}
	return err == nil, err
}

// A Decoder reads the structure of a single GIF stream. Its methods must be
// called in stream order: ReadHeader, ReadGlobalColorTable, Walk. Each one
// performs the earlier steps itself if they have not run yet.
type Decoder struct {
	c   cursor
	tmp [768]byte

	err        error // sticky hard failure
	header     Header
	headerRead bool
	global     ColorTable
	globalRead bool
}

// NewDecoder returns a Decoder reading from r.
func NewDecoder(r io.Reader) *Decoder {
	br, ok := r.(*bufio.Reader)
	if !ok {
		br = bufio.NewReader(r)
	}
	return &Decoder{c: cursor{r: br}}
}

// Offset returns the number of bytes consumed from the source so far.
func (d *Decoder) Offset() int64 { return d.c.off }

// ReadHeader reads the 6-byte signature and the logical screen descriptor.
// It returns a FormatError if the signature is not "GIF" or the screen size
// is cut short. A source that ends before the packed byte is tolerated: the
// returned Header has Truncated set and no error.
func (d *Decoder) ReadHeader() (Header, error) {
	if d.err != nil {
		return Header{}, d.err
	} else if d.headerRead {
		return d.header, nil
	}
	h, err := d.readHeader()
	if err != nil {
		d.err = err
		return Header{}, err
	}
	return h, nil
}

func (d *Decoder) readHeader() (Header, error) {
	h := &d.header
	n, _, err := d.c.readFull(d.tmp[:6])
	if err != nil {
		return Header{}, err
	}
	if n < 3 || string(d.tmp[:3]) != "GIF" {
		return Header{}, FormatError("missing GIF signature")
	}
	copy(h.Signature[:], d.tmp[:3])
	copy(h.Version[:], d.tmp[3:n])

	_, ok, err := d.c.readFull(d.tmp[:4])
	if err != nil {
		return Header{}, err
	} else if !ok {
		return Header{}, FormatError("truncated logical screen descriptor")
	}
	var size screenSize
	if err := unpack(d.tmp[:4], &size); err != nil {
		return Header{}, err
	}
	h.Width, h.Height = size.Width, size.Height

	packed, ok, err := d.c.readByte()
	if err != nil {
		return Header{}, err
	}
	d.headerRead = true
	if !ok {
		h.Truncated = true
		d.globalRead = true
		return *h, nil
	}
	h.Packed = packed

	// background index and aspect ratio are consumed unconditionally; a
	// short read here leaves them zero and the GCT read will come up short.
	d.tmp[0], d.tmp[1] = 0, 0
	if _, _, err := d.c.readFull(d.tmp[:2]); err != nil {
		return Header{}, err
	}
	h.BackgroundIndex = d.tmp[0]
	h.AspectRatio = d.tmp[1]
	return *h, nil
}
