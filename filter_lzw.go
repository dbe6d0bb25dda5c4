package pdf

import (
	"bytes"
	"fmt"
	"io"
)

// lzwRawDecode returns a raw-decode function for LZWDecode, which uses
// PDF's EarlyChange variant: by default (EarlyChange absent or 1), the
// code width increases one code early, the same deviation from the TIFF
// LZW variant that every PDF LZW stream in practice relies on.
func lzwRawDecode(parms Dict) func(io.Reader) ([]byte, error) {
	earlyChange := true
	if parms != nil {
		if v, ok := parms["EarlyChange"].(Integer); ok {
			earlyChange = v != 0
		}
	}
	return func(r io.Reader) ([]byte, error) {
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, err
		}
		return lzwDecode(data, earlyChange)
	}
}

const (
	lzwClearCode = 256
	lzwEODCode   = 257
	lzwFirstCode = 258
	lzwMaxCode   = 4096
)

// lzwDecode implements the PDF-flavored LZW decompressor described in
// ISO 32000-1:2008 §7.4.4. Code widths start at 9 bits and grow to 10, 11,
// and 12 bits as the table fills; with earlyChange set, the width grows
// one table entry sooner than the maximal width would require.
func lzwDecode(data []byte, earlyChange bool) ([]byte, error) {
	br := &bitReader{data: data}
	var out bytes.Buffer

	type entry struct {
		prefix int // -1 for a root (single-byte) entry
		suffix byte
	}
	table := make([]entry, lzwMaxCode)
	nextCode := 0
	codeWidth := 9

	resetTable := func() {
		for i := 0; i < 256; i++ {
			table[i] = entry{prefix: -1, suffix: byte(i)}
		}
		nextCode = lzwFirstCode
		codeWidth = 9
	}
	resetTable()

	expand := func(code int, buf []byte) []byte {
		start := len(buf)
		for code >= 0 {
			buf = append(buf, 0)
			copy(buf[start+1:], buf[start:])
			buf[start] = table[code].suffix
			code = table[code].prefix
		}
		return buf
	}

	var prevCode = -1
	var scratch []byte
	for {
		code, ok := br.read(codeWidth)
		if !ok {
			break
		}
		if code == lzwEODCode {
			break
		}
		if code == lzwClearCode {
			resetTable()
			prevCode = -1
			continue
		}

		var entryBytes []byte
		switch {
		case code < 256:
			entryBytes = []byte{byte(code)}
		case code < nextCode:
			scratch = scratch[:0]
			scratch = expand(code, scratch)
			entryBytes = scratch
		case code == nextCode && prevCode >= 0:
			scratch = scratch[:0]
			scratch = expand(prevCode, scratch)
			scratch = append(scratch, scratch[0])
			entryBytes = scratch
		default:
			return nil, fmt.Errorf("lzw: invalid code %d", code)
		}
		out.Write(entryBytes)

		if prevCode >= 0 && nextCode < lzwMaxCode {
			table[nextCode] = entry{prefix: prevCode, suffix: entryBytes[0]}
			nextCode++
			limit := nextCode
			if earlyChange {
				limit++
			}
			switch {
			case limit >= 2048 && codeWidth < 12:
				codeWidth = 12
			case limit >= 1024 && codeWidth < 11:
				codeWidth = 11
			case limit >= 512 && codeWidth < 10:
				codeWidth = 10
			}
		}
		prevCode = code
	}
	return out.Bytes(), nil
}

// bitReader reads big-endian, MSB-first bit groups, the packing PDF's LZW
// and CCITTFax filters both use.
type bitReader struct {
	data []byte
	pos  int // bit position
}

func (br *bitReader) read(n int) (int, bool) {
	if br.pos+n > len(br.data)*8 {
		return 0, false
	}
	v := 0
	for i := 0; i < n; i++ {
		byteIdx := (br.pos + i) / 8
		bitIdx := 7 - uint((br.pos+i)%8)
		bit := (br.data[byteIdx] >> bitIdx) & 1
		v = v<<1 | int(bit)
	}
	br.pos += n
	return v, true
}
