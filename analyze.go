package gifsteg

import (
	"bytes"
	"context"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// Options are the parameters for Analyze. A nil *Options is valid and
// means the defaults.
type Options struct {
	// XORKeys are tried against the payload. Nil means DefaultXORKeys.
	XORKeys []byte
	// Encoding names the text encoding candidates must decode in. Empty
	// means UTF-8.
	Encoding string
	// FlagPattern, if set, is searched for in the decoded text.
	FlagPattern string
	// Codec decodes frames. Nil means StdCodec.
	Codec Codec
	// Recognizer, if set, is run over every frame.
	Recognizer TextRecognizer
}

func (o *Options) xorKeys() []byte {
	if o == nil || o.XORKeys == nil {
		return DefaultXORKeys
	}
	return o.XORKeys
}

func (o *Options) codec() Codec {
	if o == nil || o.Codec == nil {
		return StdCodec{}
	}
	return o.Codec
}

// A Report holds the result of every stage of Analyze. Each stage that
// failed has its error set; the other fields hold what the remaining stages
// produced.
type Report struct {
	Structure    *Structure
	StructureErr error

	// Frames holds every frame decoded before FramesErr, if any.
	Frames    []PixelGrid
	FramesErr error

	Payload    []byte
	Digest     [blake2b.Size256]byte
	Candidates []Candidate

	OCRText string
	OCRErrs []error

	Flags    []string
	FlagsErr error
}

// Text joins the decoded candidates and the OCR output, one per line.
func (r *Report) Text() string {
	var texts []string
	for _, c := range r.Candidates {
		texts = append(texts, c.Text)
	}
	if strings.TrimSpace(r.OCRText) != "" {
		texts = append(texts, r.OCRText)
	}
	return strings.Join(texts, "\n")
}

// Analyze runs the whole pipeline over an in-memory GIF: the structural
// walk, frame decoding, LSB reconstruction, XOR decoding, OCR and the flag
// search. A failing stage never stops the stages that do not depend on it.
func Analyze(ctx context.Context, gifData []byte, opts *Options) *Report {
	r := new(Report)
	r.Structure, r.StructureErr = Parse(bytes.NewReader(gifData))

	r.Frames, r.FramesErr = opts.codec().DecodeFrames(bytes.NewReader(gifData))
	r.Payload = Reconstruct(r.Frames)
	r.Digest = blake2b.Sum256(r.Payload)

	var encoding string
	if opts != nil {
		encoding = opts.Encoding
	}
	r.Candidates = DecodeCandidates(r.Payload, opts.xorKeys(), encoding)

	if opts != nil && opts.Recognizer != nil && len(r.Frames) > 0 {
		r.OCRText, r.OCRErrs = RecognizeFrames(ctx, opts.Recognizer, r.Frames)
	}
	if opts != nil && opts.FlagPattern != "" {
		r.Flags, r.FlagsErr = SearchFlags(r.Text(), opts.FlagPattern)
	}
	return r
}
