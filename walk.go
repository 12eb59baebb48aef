package gifsteg

import (
	"bufio"
	"fmt"
	"io"
)

// Extension labels.
const (
	eText           = 0x01 // Plain Text
	eGraphicControl = 0xF9 // Graphic Control
	eComment        = 0xFE // Comment
	eApplication    = 0xFF // Application
)

// A StopReason says why a walk over the block stream ended.
type StopReason int

const (
	StopNone StopReason = iota
	// StopTrailer means the Trailer block was reached.
	StopTrailer
	// StopTruncated means the source ran out in the middle of a block.
	StopTruncated
	// StopUnrecognizedTag means a byte other than a known block tag was
	// found where a block was expected.
	StopUnrecognizedTag
)

func (r StopReason) String() string {
	switch r {
	case StopNone:
		return "none"
	case StopTrailer:
		return "trailer"
	case StopTruncated:
		return "truncated stream"
	case StopUnrecognizedTag:
		return "unrecognized block tag"
	}
	return fmt.Sprintf("StopReason(%d)", int(r))
}

// FrameInfo describes one Image Descriptor block.
type FrameInfo struct {
	Index  int   // 0-based, in stream order
	Offset int64 // offset of the 0x2C tag

	Left, Top     uint16
	Width, Height uint16
	Packed        byte

	// Local is the frame's local color table; nil when the frame uses the
	// global table.
	Local ColorTable

	LZWMinCodeSize byte
	DataLen        int // bytes of LZW data across all sub-blocks
}

// HasLocalColorTable reports whether the descriptor declares an LCT.
func (f FrameInfo) HasLocalColorTable() bool { return f.Packed&fColorTable != 0 }

// Interlaced reports whether the frame's rows are stored interlaced.
func (f FrameInfo) Interlaced() bool { return f.Packed&fInterlace != 0 }

// An Extension is a 0x21 block with its sub-block data concatenated.
type Extension struct {
	Offset int64
	Label  byte
	Data   []byte
}

// Kind names the extension label.
func (e Extension) Kind() string {
	switch e.Label {
	case eText:
		return "plain text"
	case eGraphicControl:
		return "graphic control"
	case eComment:
		return "comment"
	case eApplication:
		return "application"
	}
	return fmt.Sprintf("unknown (0x%02x)", e.Label)
}

// Structure is everything a walk recovered from the block stream. When
// Stop is anything but StopTrailer the walk ended early, and the fields hold
// whatever was read before that point.
type Structure struct {
	Header     Header
	Global     ColorTable
	Frames     []FrameInfo
	Extensions []Extension

	Stop       StopReason
	StopTag    byte  // offending byte for StopUnrecognizedTag
	Offset     int64 // where the walk stopped
	InSubBlock bool  // truncated inside a sub-block run

	// Trailing holds any bytes that follow the Trailer.
	Trailing []byte
}

// LocalColorTables returns the LCTs of the frames that have one, in frame
// order.
func (s *Structure) LocalColorTables() []ColorTable {
	var ts []ColorTable
	for _, f := range s.Frames {
		if f.HasLocalColorTable() {
			ts = append(ts, f.Local)
		}
	}
	return ts
}

// Note is a one-line diagnostic for walks that did not end at a Trailer.
func (s *Structure) Note() string {
	switch s.Stop {
	case StopTruncated:
		if s.InSubBlock {
			return fmt.Sprintf("stream truncated inside sub-block data at offset %d", s.Offset)
		}
		return fmt.Sprintf("stream truncated at offset %d", s.Offset)
	case StopUnrecognizedTag:
		return fmt.Sprintf("unrecognized block tag 0x%02x at offset %d", s.StopTag, s.Offset)
	}
	return ""
}

// Walk reads the header and global color table if needed, then every block
// until the Trailer. Running out of input or meeting an unknown block tag
// ends the walk without an error; the returned Structure holds what was
// read and says why it stopped. Errors are returned only for an invalid
// header or a failing source.
func (d *Decoder) Walk() (*Structure, error) {
	global, err := d.ReadGlobalColorTable()
	if err != nil {
		return nil, err
	}
	s := &Structure{Header: d.header, Global: global}
	if d.header.Truncated {
		s.Stop, s.Offset = StopTruncated, d.c.off
		return s, nil
	}
	for s.Stop == StopNone {
		if err := d.nextBlock(s); err != nil {
			d.err = err
			return nil, err
		}
	}
	if s.Stop == StopTrailer {
		s.Trailing, err = io.ReadAll(d.c.r)
		if err != nil {
			return nil, err
		} else if len(s.Trailing) == 0 {
			s.Trailing = nil
		}
	}
	return s, nil
}

// nextBlock consumes one block and records it in s. It sets s.Stop when
// the walk should end.
func (d *Decoder) nextBlock(s *Structure) error {
	off := d.c.off
	tag, ok, err := d.c.readByte()
	if err != nil {
		return err
	} else if !ok {
		s.Stop, s.Offset = StopTruncated, off
		return nil
	}
	var stop StopReason
	switch tag {
	case sImageDescriptor:
		stop, err = d.readImageDescriptor(s, off)
	case sExtension:
		stop, err = d.readExtension(s, off)
	case sTrailer:
		stop = StopTrailer
	default:
		stop = StopUnrecognizedTag
		s.StopTag = tag
	}
	if err != nil {
		return err
	}
	s.Stop = stop
	if stop != StopNone {
		s.InSubBlock = d.c.inSubBlock
		s.Offset = d.c.off
		if stop == StopUnrecognizedTag {
			s.Offset = off
		}
	}
	return nil
}

func (d *Decoder) readImageDescriptor(s *Structure, off int64) (StopReason, error) {
	_, ok, err := d.c.readFull(d.tmp[:9])
	if err != nil || !ok {
		return StopTruncated, err
	}
	var desc imageDescriptor
	if err := unpack(d.tmp[:9], &desc); err != nil {
		return StopNone, err
	}
	f := FrameInfo{
		Index:  len(s.Frames),
		Offset: off,
		Left:   desc.Left,
		Top:    desc.Top,
		Width:  desc.Width,
		Height: desc.Height,
		Packed: desc.Packed,
	}
	// The frame is recorded as soon as its LCT is known, so a truncated
	// image data section still reports it.
	if f.HasLocalColorTable() {
		t, complete, err := d.readColorTable(f.Packed)
		if err != nil {
			return StopNone, err
		}
		f.Local = t
		if !complete {
			s.Frames = append(s.Frames, f)
			return StopTruncated, nil
		}
	}
	s.Frames = append(s.Frames, f)
	frame := &s.Frames[len(s.Frames)-1]

	frame.LZWMinCodeSize, ok, err = d.c.readByte()
	if err != nil || !ok {
		return StopTruncated, err
	}
	n, stop, err := d.subBlocks(nil)
	frame.DataLen = n
	return stop, err
}

func (d *Decoder) readExtension(s *Structure, off int64) (StopReason, error) {
	label, ok, err := d.c.readByte()
	if err != nil || !ok {
		return StopTruncated, err
	}
	e := Extension{Offset: off, Label: label}
	_, stop, err := d.subBlocks(&e.Data)
	s.Extensions = append(s.Extensions, e)
	return stop, err
}

// subBlocks consumes a run of length-prefixed sub-blocks up to and
// including the zero-length terminator. Data is appended to *keep when keep
// is non-nil and skipped otherwise. n counts the data bytes consumed.
func (d *Decoder) subBlocks(keep *[]byte) (n int, stop StopReason, err error) {
	// inSubBlock stays set if the run is cut short.
	d.c.inSubBlock = true
	for {
		size, ok, err := d.c.readByte()
		if err != nil || !ok {
			return n, StopTruncated, err
		} else if size == 0 {
			d.c.inSubBlock = false
			return n, StopNone, nil
		}
		if keep != nil {
			got, ok, err := d.c.readFull(d.tmp[:size])
			*keep = append(*keep, d.tmp[:got]...)
			n += got
			if err != nil || !ok {
				return n, StopTruncated, err
			}
			continue
		}
		ok, err = d.c.discard(int(size))
		if err != nil || !ok {
			return n, StopTruncated, err
		}
		n += int(size)
	}
}

// Parse walks the whole GIF stream read from r.
func Parse(r io.Reader) (*Structure, error) {
	return NewDecoder(r).Walk()
}

// WriteLocalListing writes the per-frame color table log: the first 20
// entries of each LCT or a note that the frame uses the GCT, followed by a
// line for how the walk ended.
func WriteLocalListing(w io.Writer, s *Structure) error {
	bw := bufio.NewWriter(w)
	for _, f := range s.Frames {
		if !f.HasLocalColorTable() {
			fmt.Fprintf(bw, "Frame %d uses GCT\n", f.Index)
			continue
		}
		first := f.Local
		if len(first) > 20 {
			first = first[:20]
		}
		fmt.Fprintf(bw, "Frame %d LCT (%d colors) first20: %v\n", f.Index, len(f.Local), first)
	}
	if s.Stop == StopTrailer {
		fmt.Fprintln(bw, "GIF Trailer")
	} else if note := s.Note(); note != "" {
		fmt.Fprintln(bw, "Stopped:", note)
	}
	return bw.Flush()
}
