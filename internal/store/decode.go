package store

import (
	"bytes"
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"paperify/internal/logger"
)

// Encodings reported by DetectEncoding.
const (
	EncodingUTF8        = "UTF-8"
	EncodingUTF8BOM     = "UTF-8-BOM"
	EncodingUTF16LE     = "UTF-16LE"
	EncodingUTF16BE     = "UTF-16BE"
	EncodingWindows1256 = "WINDOWS-1256"
)

// DetectEncoding inspects the byte order mark and falls back to Windows-1256,
// the legacy Arabic code page spreadsheet tools save Urdu text in, when the
// data is not valid UTF-8.
func DetectEncoding(data []byte) string {
	switch {
	case bytes.HasPrefix(data, []byte{0xEF, 0xBB, 0xBF}):
		return EncodingUTF8BOM
	case bytes.HasPrefix(data, []byte{0xFF, 0xFE}):
		return EncodingUTF16LE
	case bytes.HasPrefix(data, []byte{0xFE, 0xFF}):
		return EncodingUTF16BE
	case utf8.Valid(data):
		return EncodingUTF8
	}
	return EncodingWindows1256
}

// Decode returns data as UTF-8 without a byte order mark, along with the
// detected source encoding.
func Decode(data []byte) ([]byte, string, error) {
	enc := DetectEncoding(data)

	var dec transform.Transformer
	if enc == EncodingWindows1256 {
		dec = charmap.Windows1256.NewDecoder()
	} else {
		dec = unicode.BOMOverride(unicode.UTF8.NewDecoder())
	}

	out, _, err := transform.Bytes(dec, data)
	if err != nil {
		return nil, enc, fmt.Errorf("failed to decode %s data: %w", enc, err)
	}
	if enc != EncodingUTF8 {
		logger.Debug("converted input encoding", logger.String("encoding", enc))
	}
	return out, enc, nil
}
