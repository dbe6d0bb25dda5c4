package content

import (
	"io"

	pdf "github.com/pdfray/pdfray"
	"github.com/pdfray/pdfray/function"
	"seehuhn.de/go/icc"
)

// resolveColorSpace interprets a /CS-style object: a bare device name, a
// named entry in the resource stack's /ColorSpace dictionary, or an array
// describing a CIE, ICCBased, Indexed, Separation or DeviceN space.
func resolveColorSpace(r pdf.Getter, obj pdf.Object, resources resourceStack) *colorSpace {
	cs, err := resolveColorSpaceErr(r, obj, resources)
	if err != nil || cs == nil {
		return defaultColorSpace()
	}
	return cs
}

func resolveColorSpaceErr(r pdf.Getter, obj pdf.Object, resources resourceStack) (*colorSpace, error) {
	resolved, err := pdf.Resolve(r, obj)
	if err != nil {
		return nil, err
	}

	switch x := resolved.(type) {
	case pdf.Name:
		switch x {
		case "DeviceGray", "CalGray", "G":
			return &colorSpace{kind: csDeviceGray, n: 1}, nil
		case "DeviceRGB", "CalRGB", "RGB":
			return &colorSpace{kind: csDeviceRGB, n: 3}, nil
		case "DeviceCMYK", "CMYK":
			return &colorSpace{kind: csDeviceCMYK, n: 4}, nil
		case "Pattern":
			return &colorSpace{kind: csPattern, n: 1}, nil
		default:
			if entry, ok := resources.lookup("ColorSpace", x); ok {
				return resolveColorSpaceErr(r, entry, resources)
			}
			return defaultColorSpace(), nil
		}
	case pdf.Array:
		if len(x) == 0 {
			return defaultColorSpace(), nil
		}
		family, _ := x[0].(pdf.Name)
		switch family {
		case "ICCBased":
			n := 3
			var profile []byte
			if strm, err := pdf.GetStream(r, x[1]); err == nil && strm != nil {
				if nc, err := pdf.GetInt(r, strm.Dict["N"]); err == nil && nc > 0 {
					n = int(nc)
				}
				if rc, err := pdf.DecodeStream(r, strm, -1); err == nil {
					profile, _ = io.ReadAll(rc)
					rc.Close()
				}
			}
			if len(profile) == 0 && n == 3 {
				// No embedded profile to hand a color-managed consumer;
				// fall back to the reference sRGB profile, matching the
				// component-count approximation toRGB already assumes.
				profile = icc.SRGBv2Profile
			}
			return &colorSpace{kind: csICCBased, n: n, profile: profile}, nil
		case "CalGray":
			return &colorSpace{kind: csCalGray, n: 1}, nil
		case "CalRGB":
			return &colorSpace{kind: csCalRGB, n: 3}, nil
		case "Lab":
			return &colorSpace{kind: csLab, n: 3}, nil
		case "Indexed":
			if len(x) < 4 {
				return defaultColorSpace(), nil
			}
			base, err := resolveColorSpaceErr(r, x[1], resources)
			if err != nil || base == nil {
				base = defaultColorSpace()
			}
			var lookup []byte
			switch l := x[3].(type) {
			case pdf.String:
				lookup = []byte(l)
			default:
				if strm, err := pdf.GetStream(r, x[3]); err == nil && strm != nil {
					if rc, err := pdf.DecodeStream(r, strm, -1); err == nil {
						lookup, _ = io.ReadAll(rc)
						rc.Close()
					}
				}
			}
			return &colorSpace{kind: csIndexed, n: 1, base: base, lookup: lookup}, nil
		case "Separation", "DeviceN":
			n := 1
			if family == "DeviceN" {
				if names, err := pdf.GetArray(r, x[1]); err == nil {
					n = len(names)
				}
			}
			cs := &colorSpace{kind: csSeparation, n: n}
			if family == "DeviceN" {
				cs.kind = csDeviceN
			}
			if len(x) >= 3 {
				alt, err := resolveColorSpaceErr(r, x[2], resources)
				if err == nil {
					cs.underlying = alt
				}
			}
			if len(x) >= 4 {
				if fn, err := function.Read(r, x[3]); err == nil {
					cs.tintFn = fn
				}
			}
			return cs, nil
		case "Pattern":
			cs := &colorSpace{kind: csPattern, n: 1}
			if len(x) >= 2 {
				under, err := resolveColorSpaceErr(r, x[1], resources)
				if err == nil {
					cs.underlying = under
				}
			}
			return cs, nil
		default:
			return defaultColorSpace(), nil
		}
	default:
		return defaultColorSpace(), nil
	}
}
