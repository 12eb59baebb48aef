package gifsteg

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"
)

const swatchColumns = 16

// RenderSwatch draws the table as a grid of block x block squares, 16 per
// row, in table order. A 256-color table becomes a 16x16 grid.
func RenderSwatch(t ColorTable, block int) *image.RGBA {
	if block <= 0 {
		block = 20
	}
	rows := (len(t) + swatchColumns - 1) / swatchColumns
	img := image.NewRGBA(image.Rect(0, 0, swatchColumns*block, rows*block))
	for i, c := range t {
		row, col := i/swatchColumns, i%swatchColumns
		r := image.Rect(col*block, row*block, (col+1)*block, (row+1)*block)
		draw.Draw(img, r, image.NewUniform(color.RGBA{c.R, c.G, c.B, 0xFF}), image.Point{}, draw.Src)
	}
	return img
}
