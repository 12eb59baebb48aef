package gifsteg

import (
	"context"
	"errors"
	"image"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/blake2b"
)

type fakeRecognizer struct {
	calls int
}

func (f *fakeRecognizer) RecognizeText(ctx context.Context, img image.Image) (string, error) {
	f.calls++
	if f.calls == 1 {
		return "", errors.New("unreadable")
	}
	return "  FLAG{ocr}\n", nil
}

func TestAnalyze(t *testing.T) {
	payload := []byte("FLAG{lsb}!!!")
	data := encodePayloadGIF(t, XOR(payload, 0x69), 16, 2)

	rec := new(fakeRecognizer)
	r := Analyze(context.Background(), data, &Options{
		FlagPattern: `FLAG\{.*?\}`,
		Recognizer:  rec,
	})
	require.NoError(t, r.StructureErr)
	require.NoError(t, r.FramesErr)
	assert.Equal(t, StopTrailer, r.Structure.Stop)
	assert.Len(t, r.Structure.Frames, 2)
	assert.Len(t, r.Frames, 2)

	assert.Equal(t, XOR(payload, 0x69), r.Payload)
	assert.Equal(t, blake2b.Sum256(r.Payload), r.Digest)

	assert.Equal(t, 2, rec.calls)
	assert.Len(t, r.OCRErrs, 1)
	assert.Equal(t, "FLAG{ocr}", r.OCRText)
	assert.Equal(t, []string{"FLAG{lsb}", "FLAG{ocr}"}, r.Flags)
	assert.Contains(t, r.Text(), "FLAG{lsb}!!!")
}

func TestAnalyzeNotGIF(t *testing.T) {
	r := Analyze(context.Background(), []byte("PK\x03\x04 definitely not a gif"), nil)
	assert.IsType(t, FormatError(""), r.StructureErr)
	assert.Nil(t, r.Structure)
	assert.Error(t, r.FramesErr)
	assert.Empty(t, r.Payload)
	assert.Nil(t, r.Flags)
}

func TestAnalyzeTruncatedFrame(t *testing.T) {
	data := encodePayloadGIF(t, []byte("FLAG{x}!"), 8, 4)
	r := Analyze(context.Background(), data[:len(data)-6], &Options{FlagPattern: `FLAG\{.*?\}`})
	require.NoError(t, r.StructureErr)
	assert.Equal(t, StopTruncated, r.Structure.Stop)
	assert.Len(t, r.Structure.Frames, 4)

	assert.Error(t, r.FramesErr)
	assert.Len(t, r.Frames, 3)
	require.Len(t, r.Payload, 9)
	assert.Equal(t, []byte("FLAG{x}!"), r.Payload[:8])
	assert.Contains(t, r.Flags, "FLAG{x}")
}

type staticCodec []PixelGrid

func (c staticCodec) DecodeFrames(io.Reader) ([]PixelGrid, error) { return c, nil }

func TestAnalyzeStagesIsolated(t *testing.T) {
	frames := []PixelGrid{{Width: 8, Height: 1, Channels: 3, Pix: make([]uint8, 24)}}
	require.NoError(t, Embed(frames, []byte("ok!")))

	r := Analyze(context.Background(), []byte("garbage"), &Options{
		Codec:       staticCodec(frames),
		XORKeys:     []byte{0x00},
		FlagPattern: "(",
	})
	assert.Error(t, r.StructureErr)
	assert.NoError(t, r.FramesErr)
	assert.Equal(t, []byte("ok!"), r.Payload)
	require.Len(t, r.Candidates, 1)
	assert.Equal(t, "ok!", r.Candidates[0].Text)
	assert.Error(t, r.FlagsErr)
}
