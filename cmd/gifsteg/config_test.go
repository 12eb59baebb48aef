package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lukechampine/gifsteg"
)

func TestLoadConfigDefaults(t *testing.T) {
	c, err := loadConfig("")
	require.NoError(t, err)
	assert.Equal(t, defaultConfig(), c)

	opts, err := c.options()
	require.NoError(t, err)
	assert.Nil(t, opts.XORKeys)
	assert.Nil(t, opts.Recognizer)
	assert.Nil(t, c.OCR.Enabled, "OCR is auto-detected by default")
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gifsteg.yml")
	require.NoError(t, os.WriteFile(path, []byte(`
out_dir: results
xor_keys: [0, 255, 66]
flag_pattern: 'CTF\{.*?\}'
frame_format: bmp
ocr:
  enabled: true
  command: /usr/local/bin/tesseract
  args: ["-l", "eng"]
`), 0600))

	c, err := loadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "results", c.OutDir)
	assert.Equal(t, 20, c.SwatchBlock, "unset keys keep their default")
	assert.Equal(t, gifsteg.ArtifactOptions{FrameFormat: "bmp", SwatchBlock: 20}, c.artifactOptions())

	opts, err := c.options()
	require.NoError(t, err)
	assert.Equal(t, []byte{0x00, 0xFF, 0x42}, opts.XORKeys)
	assert.Equal(t, `CTF\{.*?\}`, opts.FlagPattern)

	rec, err := c.recognizer()
	require.NoError(t, err)
	assert.Equal(t, &gifsteg.Tesseract{Path: "/usr/local/bin/tesseract", Args: []string{"-l", "eng"}}, rec)
}

func TestRecognizerMissingBinary(t *testing.T) {
	t.Setenv("PATH", t.TempDir())

	c := defaultConfig()
	rec, err := c.recognizer()
	assert.Error(t, err)
	assert.Nil(t, rec)

	on := true
	c.OCR.Enabled = &on
	rec, err = c.recognizer()
	assert.Error(t, err)
	assert.Nil(t, rec)

	// the rest of the configuration is unaffected
	opts, err := c.options()
	require.NoError(t, err)
	assert.NotNil(t, opts)
}

func TestRecognizerDisabled(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gifsteg.yml")
	require.NoError(t, os.WriteFile(path, []byte("ocr:\n  enabled: false\n  command: tesseract\n"), 0600))
	c, err := loadConfig(path)
	require.NoError(t, err)
	rec, err := c.recognizer()
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestLoadConfigErrors(t *testing.T) {
	_, err := loadConfig(filepath.Join(t.TempDir(), "missing.yml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yml")
	require.NoError(t, os.WriteFile(path, []byte("xor_keys: [300]\n"), 0600))
	c, err := loadConfig(path)
	require.NoError(t, err)
	_, err = c.options()
	assert.Error(t, err)
}
