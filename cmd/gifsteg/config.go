package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/lukechampine/gifsteg"
)

// config mirrors the YAML file accepted by -config. Command-line flags
// override it.
type config struct {
	OutDir      string `yaml:"out_dir"`
	XORKeys     []int  `yaml:"xor_keys"`
	Encoding    string `yaml:"encoding"`
	FlagPattern string `yaml:"flag_pattern"`
	FrameFormat string `yaml:"frame_format"`
	SwatchBlock int    `yaml:"swatch_block"`
	OCR         struct {
		// Enabled turns OCR on or off; unset means on when tesseract is
		// found.
		Enabled *bool    `yaml:"enabled"`
		Command string   `yaml:"command"` // defaults to tesseract on $PATH
		Args    []string `yaml:"args"`
	} `yaml:"ocr"`
}

func defaultConfig() config {
	return config{
		OutDir:      "out_gifsteg",
		FrameFormat: "png",
		SwatchBlock: 20,
	}
}

// loadConfig returns the defaults overlaid with the file at path, if any.
func loadConfig(path string) (config, error) {
	c := defaultConfig()
	if path == "" {
		return c, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return c, err
	}
	if err := yaml.Unmarshal(data, &c); err != nil {
		return c, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

func (c config) xorKeys() ([]byte, error) {
	if c.XORKeys == nil {
		return nil, nil
	}
	keys := make([]byte, len(c.XORKeys))
	for i, k := range c.XORKeys {
		if k < 0 || k > 0xFF {
			return nil, fmt.Errorf("xor key %d out of range", k)
		}
		keys[i] = byte(k)
	}
	return keys, nil
}

func (c config) options() (*gifsteg.Options, error) {
	keys, err := c.xorKeys()
	if err != nil {
		return nil, err
	}
	return &gifsteg.Options{
		XORKeys:     keys,
		Encoding:    c.Encoding,
		FlagPattern: c.FlagPattern,
	}, nil
}

// recognizer returns the OCR backend. It returns nil and no error when OCR
// is switched off, and nil with an error when no tesseract binary is found;
// the run goes on without OCR in both cases.
func (c config) recognizer() (gifsteg.TextRecognizer, error) {
	if c.OCR.Enabled != nil && !*c.OCR.Enabled {
		return nil, nil
	}
	if c.OCR.Command != "" {
		return &gifsteg.Tesseract{Path: c.OCR.Command, Args: c.OCR.Args}, nil
	}
	t, err := gifsteg.NewTesseract()
	if err != nil {
		return nil, fmt.Errorf("ocr: %w", err)
	}
	t.Args = c.OCR.Args
	return t, nil
}

func (c config) artifactOptions() gifsteg.ArtifactOptions {
	return gifsteg.ArtifactOptions{
		FrameFormat: c.FrameFormat,
		SwatchBlock: c.SwatchBlock,
	}
}
