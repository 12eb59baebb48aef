package gifsteg

import (
	"bufio"
	"fmt"
	"image/color"
	"io"
	"strings"
)

// RGB is a single color table entry.
type RGB struct {
	R, G, B uint8
}

func (c RGB) String() string { return fmt.Sprintf("(%d, %d, %d)", c.R, c.G, c.B) }

// A ColorTable is a GIF global or local color table. Entries appear in
// stream order. A table that is absent has length zero.
type ColorTable []RGB

// Palette converts the table to an opaque color.Palette.
func (t ColorTable) Palette() color.Palette {
	p := make(color.Palette, len(t))
	for i, c := range t {
		p[i] = color.RGBA{c.R, c.G, c.B, 0xFF}
	}
	return p
}

func (t ColorTable) String() string {
	var sb strings.Builder
	sb.WriteByte('[')
	for i, c := range t {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(c.String())
	}
	sb.WriteByte(']')
	return sb.String()
}

// readColorTable reads the table declared by fields. Only whole triples
// are kept when the source ends early, and complete is false.
func (d *Decoder) readColorTable(fields byte) (t ColorTable, complete bool, err error) {
	n := tableLen(fields)
	raw := d.tmp[:3*n]
	read, ok, err := d.c.readFull(raw)
	if err != nil {
		return nil, false, err
	}
	t = make(ColorTable, read/3)
	for i := range t {
		t[i] = RGB{raw[3*i], raw[3*i+1], raw[3*i+2]}
	}
	return t, ok, nil
}

// ReadGlobalColorTable reads the header if needed, then the global color
// table that follows it. If the GCT flag is unset it returns an empty table
// without consuming any more input. A table cut short by the end of the
// source is returned with only its complete entries.
func (d *Decoder) ReadGlobalColorTable() (ColorTable, error) {
	h, err := d.ReadHeader()
	if err != nil {
		return nil, err
	} else if d.globalRead {
		return d.global, nil
	}
	d.globalRead = true
	if !h.HasGlobalColorTable() {
		return nil, nil
	}
	t, _, err := d.readColorTable(h.Packed)
	if err != nil {
		d.err = err
		return nil, err
	}
	d.global = t
	return t, nil
}

// ReadGlobalColorTable is shorthand for NewDecoder(r).ReadGlobalColorTable.
func ReadGlobalColorTable(r io.Reader) (Header, ColorTable, error) {
	d := NewDecoder(r)
	t, err := d.ReadGlobalColorTable()
	if err != nil {
		return Header{}, nil, err
	}
	return d.header, t, nil
}

// WriteGlobalListing writes one line per GCT entry, preceded by a count.
func WriteGlobalListing(w io.Writer, t ColorTable) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "GCT (%d colors)\n", len(t))
	for i, c := range t {
		fmt.Fprintf(bw, "%03d: %v\n", i, c)
	}
	return bw.Flush()
}
