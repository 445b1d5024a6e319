package charset

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// Encoding represents a text encoding
type Encoding string

const (
	EncodingAuto        Encoding = "auto"
	EncodingUTF8        Encoding = "utf-8"
	EncodingWindows1250 Encoding = "windows-1250"
	EncodingISO88592    Encoding = "iso-8859-2"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ParseEncoding maps a config or flag value to an Encoding
func ParseEncoding(name string) (Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "auto":
		return EncodingAuto, nil
	case "utf-8", "utf8":
		return EncodingUTF8, nil
	case "windows-1250", "cp1250":
		return EncodingWindows1250, nil
	case "iso-8859-2", "latin2":
		return EncodingISO88592, nil
	default:
		return "", fmt.Errorf("unsupported encoding: %q", name)
	}
}

// DetectEncoding detects the encoding of a byte buffer.
// Supplier exports that are not valid UTF-8 are almost always Windows-1250.
func DetectEncoding(data []byte) Encoding {
	if bytes.HasPrefix(data, utf8BOM) || utf8.Valid(data) {
		return EncodingUTF8
	}
	return EncodingWindows1250
}

// Decode converts a byte buffer from the specified encoding to a UTF-8 string
func Decode(data []byte, enc Encoding) (string, error) {
	if enc == EncodingAuto || enc == "" {
		enc = DetectEncoding(data)
	}

	// Valid UTF-8 is returned as-is even if a legacy encoding was configured,
	// since re-exported files often change encoding without notice
	if utf8.Valid(data) {
		return string(bytes.TrimPrefix(data, utf8BOM)), nil
	}

	var decoder encoding.Encoding
	switch enc {
	case EncodingWindows1250, EncodingUTF8:
		decoder = charmap.Windows1250
	case EncodingISO88592:
		decoder = charmap.ISO8859_2
	default:
		return "", fmt.Errorf("unsupported encoding: %q", enc)
	}

	result, err := io.ReadAll(transform.NewReader(bytes.NewReader(data), decoder.NewDecoder()))
	if err != nil {
		return "", fmt.Errorf("failed to decode %s content: %w", enc, err)
	}
	return string(result), nil
}
