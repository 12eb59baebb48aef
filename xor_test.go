package gifsteg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestXORIdentity(t *testing.T) {
	data := []byte{0x00, 0x7F, 0x80, 0xFF, 'a'}
	assert.Equal(t, data, XOR(data, 0x00))
	assert.Equal(t, data, XOR(XOR(data, 0x42), 0x42))
	assert.Equal(t, []byte{0xFF, 0x80, 0x7F, 0x00, 'a' ^ 0xFF}, XOR(data, 0xFF))
}

func TestDecodeCandidates(t *testing.T) {
	plain := []byte("flag{lsb}")
	hidden := XOR(plain, 0x42)

	cs := DecodeCandidates(hidden, DefaultXORKeys, "")
	var keys []byte
	var found bool
	for _, c := range cs {
		keys = append(keys, c.Key)
		assert.Equal(t, XOR(hidden, c.Key), c.Data)
		if c.Text == string(plain) {
			found = true
			assert.EqualValues(t, 0x42, c.Key)
		}
	}
	assert.True(t, found, "keys tried: %x", keys)
	// 0xFF flips the high bit of every byte, which is never valid UTF-8 here
	assert.NotContains(t, keys, byte(0xFF))
}

func TestDecodeCandidatesInvalidDropped(t *testing.T) {
	assert.Empty(t, DecodeCandidates([]byte{0xC3}, []byte{0x00}, ""))
	assert.Empty(t, DecodeCandidates([]byte("ok"), []byte{0x00}, "no-such-encoding"))
}

func TestDecodeCandidatesEncoding(t *testing.T) {
	// "café" in Windows-1252
	cs := DecodeCandidates([]byte{'c', 'a', 'f', 0xE9}, []byte{0x00}, "windows-1252")
	require.Len(t, cs, 1)
	assert.Equal(t, "café", cs[0].Text)
}

func TestDecodeCandidatesNormalizes(t *testing.T) {
	// e followed by a combining acute accent composes to U+00E9
	cs := DecodeCandidates([]byte("e\u0301"), []byte{0x00}, "utf-8")
	require.Len(t, cs, 1)
	assert.Equal(t, "\u00e9", cs[0].Text)
}
