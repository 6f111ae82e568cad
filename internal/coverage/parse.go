package coverage

import "fmt"

// Parse converts raw report bytes in the given format into the canonical
// model. Record-level problems are returned as warnings on the Result; a
// document too malformed to interpret returns a ParseError.
func Parse(data []byte, format Format) (*Result, error) {
	switch format {
	case FormatCobertura:
		return parseCobertura(data)
	case FormatPytestJSON:
		return parsePytestJSON(data)
	case FormatIstanbul:
		return parseIstanbul(data)
	case FormatLCOV:
		return parseLCOV(data)
	case FormatGoCover:
		return parseGoCover(data)
	default:
		return nil, fmt.Errorf("unsupported coverage format %q", format)
	}
}
