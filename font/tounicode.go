package font

import (
	"fmt"
	"io"
	"unicode/utf16"

	"seehuhn.de/go/postscript"

	pdf "github.com/pdfray/pdfray"
)

// ParseToUnicode extracts a /ToUnicode CMap stream into a code->text table,
// keyed by the raw character code (as a big-endian integer over however
// many bytes the CMap's own codespace uses, 1 for simple fonts and usually
// 2 for composite fonts).
func ParseToUnicode(r pdf.Getter, obj pdf.Object) (map[uint32]string, error) {
	stm, err := pdf.GetStream(r, obj)
	if err != nil {
		return nil, err
	}
	if stm == nil {
		return nil, nil
	}
	data, err := pdf.DecodeStream(r, stm, -1)
	if err != nil {
		return nil, err
	}
	defer data.Close()
	return readToUnicode(data)
}

func readToUnicode(r io.Reader) (map[uint32]string, error) {
	raw, err := postscript.ReadCMap(r)
	if err != nil {
		return nil, err
	}
	if tp, ok := raw["CMapType"].(postscript.Integer); ok && tp != 2 {
		return nil, fmt.Errorf("font: invalid ToUnicode CMapType %v", tp)
	}
	codeMap, ok := raw["CodeMap"].(*postscript.CMapInfo)
	if !ok {
		return nil, fmt.Errorf("font: unsupported ToUnicode CMap format")
	}

	out := map[uint32]string{}
	for _, c := range codeMap.BfChars {
		code := beUint(c.Src)
		text, err := toUnicodeText(c.Dst)
		if err != nil {
			continue
		}
		out[code] = text
	}
	for _, rg := range codeMap.BfRanges {
		low := beUint(rg.Low)
		high := beUint(rg.High)
		switch dst := rg.Dst.(type) {
		case postscript.String:
			base, err := runesOf(dst)
			if err != nil || len(base) == 0 {
				continue
			}
			for code := low; code <= high; code++ {
				rr := append([]rune(nil), base...)
				rr[len(rr)-1] += rune(code - low)
				out[code] = string(rr)
			}
		case postscript.Array:
			for i, el := range dst {
				code := low + uint32(i)
				if code > high {
					break
				}
				if text, err := toUnicodeText(el); err == nil {
					out[code] = text
				}
			}
		}
	}
	return out, nil
}

func toUnicodeText(obj postscript.Object) (string, error) {
	s, ok := obj.(postscript.String)
	if !ok {
		return "", fmt.Errorf("font: invalid ToUnicode destination %T", obj)
	}
	rr, err := runesOf(s)
	if err != nil {
		return "", err
	}
	return string(rr), nil
}

func runesOf(s postscript.String) ([]rune, error) {
	if len(s)%2 != 0 {
		return nil, fmt.Errorf("font: odd-length UTF-16BE string in ToUnicode CMap")
	}
	buf := make([]uint16, 0, len(s)/2)
	for i := 0; i < len(s); i += 2 {
		buf = append(buf, uint16(s[i])<<8|uint16(s[i+1]))
	}
	return utf16.Decode(buf), nil
}

func beUint(b []byte) uint32 {
	var v uint32
	for _, c := range b {
		v = v<<8 | uint32(c)
	}
	return v
}
