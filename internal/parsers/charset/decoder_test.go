package charset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEncoding(t *testing.T) {
	tests := []struct {
		in      string
		want    Encoding
		wantErr bool
	}{
		{"", EncodingAuto, false},
		{"AUTO", EncodingAuto, false},
		{"utf8", EncodingUTF8, false},
		{" Windows-1250 ", EncodingWindows1250, false},
		{"cp1250", EncodingWindows1250, false},
		{"latin2", EncodingISO88592, false},
		{"ebcdic", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseEncoding(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDetectEncoding(t *testing.T) {
	assert.Equal(t, EncodingUTF8, DetectEncoding([]byte("Šifra;Cijena")))
	assert.Equal(t, EncodingUTF8, DetectEncoding(append([]byte{0xEF, 0xBB, 0xBF}, "sku"...)))
	// "Šifra" in Windows-1250
	assert.Equal(t, EncodingWindows1250, DetectEncoding([]byte{0x8A, 'i', 'f', 'r', 'a'}))
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		enc  Encoding
		want string
	}{
		{"utf8 with bom", append([]byte{0xEF, 0xBB, 0xBF}, "Šifra"...), EncodingAuto, "Šifra"},
		{"windows-1250 auto", []byte{0x8A, 'i', 'f', 'r', 'a', ' ', 0xE8}, EncodingAuto, "Šifra č"},
		{"iso-8859-2", []byte{0xA9, 'i', 'f', 'r', 'a'}, EncodingISO88592, "Šifra"},
		{"valid utf8 ignores legacy setting", []byte("Čep"), EncodingWindows1250, "Čep"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode(tt.data, tt.enc)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := Decode([]byte{0x8A}, Encoding("koi8-r"))
	assert.Error(t, err)
}
