package gifsteg

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/unicode/norm"
)

// DefaultXORKeys are the single-byte keys tried against a payload. 0x00 is
// the identity key, so the raw payload is always one of the candidates.
var DefaultXORKeys = []byte{0x00, 0xFF, 0x42, 0x69, 0x20}

// XOR returns a copy of data with every byte XORed with key.
func XOR(data []byte, key byte) []byte {
	out := make([]byte, len(data))
	for i, b := range data {
		out[i] = b ^ key
	}
	return out
}

// A Candidate is a payload XORed with Key that decoded as text.
type Candidate struct {
	Key  byte
	Data []byte
	Text string
}

// DecodeCandidates XORs data with each key and keeps the results that are
// valid text in the named encoding ("" means UTF-8). An unknown encoding
// name yields no candidates.
func DecodeCandidates(data []byte, keys []byte, encoding string) []Candidate {
	var cs []Candidate
	for _, k := range keys {
		x := XOR(data, k)
		if s, ok := decodeText(x, encoding); ok {
			cs = append(cs, Candidate{Key: k, Data: x, Text: s})
		}
	}
	return cs
}

func decodeText(b []byte, encoding string) (string, bool) {
	name := strings.ToLower(encoding)
	if name == "" || name == "utf-8" || name == "utf8" {
		if !utf8.Valid(b) {
			return "", false
		}
		return norm.NFC.String(string(b)), true
	}
	enc, err := htmlindex.Get(name)
	if err != nil {
		return "", false
	}
	out, err := enc.NewDecoder().Bytes(b)
	if err != nil || !utf8.Valid(out) || strings.ContainsRune(string(out), utf8.RuneError) {
		return "", false
	}
	return norm.NFC.String(string(out)), true
}
