package gifsteg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"os/exec"
	"strings"
)

// A TextRecognizer extracts visible text from an image. An empty result is
// not an error.
type TextRecognizer interface {
	RecognizeText(ctx context.Context, img image.Image) (string, error)
}

// Tesseract recognizes text by running the tesseract binary.
type Tesseract struct {
	Path string   // path to the binary
	Args []string // extra arguments, e.g. "-l", "eng"
}

// NewTesseract looks up tesseract on $PATH.
func NewTesseract() (*Tesseract, error) {
	path, err := exec.LookPath("tesseract")
	if errors.Is(err, exec.ErrDot) {
		err = nil
	}
	if err != nil {
		return nil, err
	}
	return &Tesseract{Path: path}, nil
}

// RecognizeText implements TextRecognizer. The image is handed to tesseract
// as a temporary PNG file.
func (t *Tesseract) RecognizeText(ctx context.Context, img image.Image) (string, error) {
	f, err := os.CreateTemp("", "gifsteg-ocr-*.png")
	if err != nil {
		return "", err
	}
	defer os.Remove(f.Name())
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", err
	}

	args := append([]string{f.Name(), "stdout"}, t.Args...)
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, t.Path, args...)
	cmd.Stdout, cmd.Stderr = &stdout, &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("tesseract: %v: %s", err, strings.TrimSpace(stderr.String()))
	}
	return strings.TrimSpace(stdout.String()), nil
}

// RecognizeFrames runs rec over every frame and joins the non-empty
// results with newlines. A frame that fails is skipped and its error
// collected.
func RecognizeFrames(ctx context.Context, rec TextRecognizer, frames []PixelGrid) (string, []error) {
	var texts []string
	var errs []error
	for i, f := range frames {
		s, err := rec.RecognizeText(ctx, f.Image())
		if err != nil {
			errs = append(errs, fmt.Errorf("frame %d: %w", i, err))
			continue
		}
		if s = strings.TrimSpace(s); s != "" {
			texts = append(texts, s)
		}
	}
	return strings.Join(texts, "\n"), errs
}
