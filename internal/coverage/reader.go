package coverage

import (
	"fmt"
	"os"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ReadReportFile reads a coverage report from disk and returns UTF-8
// bytes. .NET toolchains write Cobertura files as UTF-16 with a byte
// order mark; the BOM decides the decoding and is stripped, everything
// else passes through untouched.
func ReadReportFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return DecodeReportBytes(data)
}

// DecodeReportBytes converts report bytes to UTF-8 based on their byte
// order mark, if any.
func DecodeReportBytes(data []byte) ([]byte, error) {
	decoder := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	decoded, _, err := transform.Bytes(decoder, data)
	if err != nil {
		return nil, fmt.Errorf("decoding report bytes: %w", err)
	}
	return decoded, nil
}
