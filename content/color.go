package content

import (
	"math"

	"github.com/pdfray/pdfray/function"
)

// RGB is a color in the device RGB space, components in [0,1].
type RGB struct {
	R, G, B float64
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

// grayToRGB converts a DeviceGray component to RGB.
func grayToRGB(g float64) RGB {
	g = clamp01(g)
	return RGB{g, g, g}
}

// cmykToRGB converts DeviceCMYK to RGB using a calibrated SWOP
// approximation: a subtractive base plus small cross-channel corrections
// for cyan's red leak, yellow's green absorption and yellow's blue leak.
func cmykToRGB(c, m, y, k float64) RGB {
	c, m, y, k = clamp01(c), clamp01(m), clamp01(y), clamp01(k)

	r := 1 - c - k + 0.12*c*(1-k)
	g := 1 - m - k - 0.15*y*(1-k)
	b := 1 - y - k + 0.20*y*(1-k)

	return RGB{clamp01(r), clamp01(g), clamp01(b)}
}

// colorSpaceKind classifies a resolved color space enough to know how many
// components it consumes and how to turn them into RGB.
type colorSpaceKind int

const (
	csDeviceGray colorSpaceKind = iota
	csDeviceRGB
	csDeviceCMYK
	csCalGray
	csCalRGB
	csLab
	csICCBased
	csIndexed
	csSeparation
	csDeviceN
	csPattern
)

// colorSpace describes a resolved /CS entry: enough state to convert an
// operand tint into RGB.
type colorSpace struct {
	kind       colorSpaceKind
	n          int // number of color components
	altN       int // alternate space component count, for Separation/DeviceN
	tintFn     function.Function
	base       *colorSpace // base space, for Indexed
	lookup     []byte      // palette bytes, for Indexed
	underlying *colorSpace // alternate or base colorant space
	profile    []byte      // embedded or reference ICC profile, for ICCBased
}

// Profile returns the ICC profile bytes associated with an ICCBased color
// space, for callers doing their own colorimetric conversion instead of
// the component-count approximation toRGB falls back to. Returns nil for
// every other kind.
func (cs *colorSpace) Profile() []byte {
	if cs == nil {
		return nil
	}
	return cs.profile
}

func defaultColorSpace() *colorSpace {
	return &colorSpace{kind: csDeviceGray, n: 1}
}

// toRGB converts n operand components (already on the stack in PDF order)
// into an RGB color. Unknown/unsupported tint transforms fall back to
// routing the tint through CMYK(0,0,0,t), per the spec's default rule for
// Separation/DeviceN colorants with no recoverable alternate.
func (cs *colorSpace) toRGB(comp []float64) RGB {
	if cs == nil {
		cs = defaultColorSpace()
	}
	switch cs.kind {
	case csDeviceGray, csCalGray:
		if len(comp) < 1 {
			return RGB{}
		}
		return grayToRGB(comp[0])
	case csDeviceRGB, csCalRGB:
		if len(comp) < 3 {
			return RGB{}
		}
		return RGB{clamp01(comp[0]), clamp01(comp[1]), clamp01(comp[2])}
	case csDeviceCMYK:
		if len(comp) < 4 {
			return RGB{}
		}
		return cmykToRGB(comp[0], comp[1], comp[2], comp[3])
	case csLab:
		if len(comp) < 3 {
			return RGB{}
		}
		return labToRGB(comp[0], comp[1], comp[2])
	case csICCBased:
		switch cs.n {
		case 1:
			return grayToRGB(valueAt(comp, 0))
		case 4:
			return cmykToRGB(valueAt(comp, 0), valueAt(comp, 1), valueAt(comp, 2), valueAt(comp, 3))
		default:
			return RGB{clamp01(valueAt(comp, 0)), clamp01(valueAt(comp, 1)), clamp01(valueAt(comp, 2))}
		}
	case csIndexed:
		idx := int(valueAt(comp, 0))
		base := cs.base
		if base == nil {
			base = defaultColorSpace()
		}
		n := base.n
		off := idx * n
		if off < 0 || off+n > len(cs.lookup) {
			return RGB{}
		}
		vals := make([]float64, n)
		for i := 0; i < n; i++ {
			vals[i] = float64(cs.lookup[off+i]) / 255
		}
		return base.toRGB(vals)
	case csSeparation, csDeviceN:
		if cs.tintFn != nil {
			out, err := cs.tintFn.Eval(comp)
			if err == nil {
				alt := cs.underlying
				if alt == nil {
					alt = defaultColorSpace()
				}
				return alt.toRGB(out)
			}
		}
		t := valueAt(comp, 0)
		return cmykToRGB(0, 0, 0, t)
	default:
		return RGB{}
	}
}

func valueAt(v []float64, i int) float64 {
	if i < 0 || i >= len(v) {
		return 0
	}
	return v[i]
}

// labToRGB converts CIE L*a*b* (D50, as PDF defines it) to sRGB-ish RGB.
// Only used for the rare explicit /Lab color space; the painter never
// needs more than a visually plausible approximation.
func labToRGB(l, a, b float64) RGB {
	fy := (l + 16) / 116
	fx := fy + a/500
	fz := fy - b/200

	finv := func(t float64) float64 {
		if t > 6.0/29 {
			return t * t * t
		}
		return 3 * (6.0 / 29) * (6.0 / 29) * (t - 4.0/29)
	}

	xn, yn, zn := 0.9642, 1.0, 0.8249
	x := xn * finv(fx)
	y := yn * finv(fy)
	z := zn * finv(fz)

	r := 3.1338561*x - 1.6168667*y - 0.4906146*z
	g := -0.9787684*x + 1.9161415*y + 0.0334540*z
	bb := 0.0719453*x - 0.2289914*y + 1.4052427*z

	gamma := func(c float64) float64 {
		if c <= 0.0031308 {
			return 12.92 * c
		}
		if c <= 0 {
			return 0
		}
		return 1.055*math.Pow(c, 1/2.4) - 0.055
	}
	return RGB{clamp01(gamma(r)), clamp01(gamma(g)), clamp01(gamma(bb))}
}
