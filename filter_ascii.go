package pdf

import (
	"bytes"
	"io"

	"github.com/pdfray/pdfray/ascii85"
)

// ascii85Filter decodes an ASCII85Decode stream using the shared ascii85
// codec (also used by the original writer side of this code, which
// continues to exercise ascii85.Encode for round-trip tests).
type ascii85Filter struct{}

func (ascii85Filter) Decode(r io.Reader) (io.Reader, error) {
	return ascii85.Decode(r)
}

// asciiHexFilter decodes an ASCIIHexDecode stream: pairs of hex digits,
// whitespace ignored, terminated by ">" (EOF also accepted).
type asciiHexFilter struct{}

func (asciiHexFilter) Decode(r io.Reader) (io.Reader, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	var digits []byte
	for _, b := range raw {
		if b == '>' {
			break
		}
		if isHexDigit(b) {
			digits = append(digits, b)
		}
	}
	if len(digits)%2 == 1 {
		digits = append(digits, '0')
	}
	out := make([]byte, len(digits)/2)
	for i := range out {
		out[i] = hexVal(digits[2*i])<<4 | hexVal(digits[2*i+1])
	}
	return bytes.NewReader(out), nil
}

// runLengthFilter decodes RunLengthDecode: a length byte 0-127 means copy
// the next length+1 literal bytes; 129-255 means repeat the next single
// byte 257-length times; 128 is EOD.
type runLengthFilter struct{}

func (runLengthFilter) Decode(r io.Reader) (io.Reader, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	var out bytes.Buffer
	i := 0
	for i < len(raw) {
		length := raw[i]
		i++
		switch {
		case length == 128:
			i = len(raw)
		case length < 128:
			n := int(length) + 1
			if i+n > len(raw) {
				n = len(raw) - i
			}
			out.Write(raw[i : i+n])
			i += n
		default:
			if i >= len(raw) {
				break
			}
			b := raw[i]
			i++
			for k := 0; k < 257-int(length); k++ {
				out.WriteByte(b)
			}
		}
	}
	return bytes.NewReader(out.Bytes()), nil
}
