// Package function evaluates PDF function objects (ISO 32000-1 §7.10):
// sampled (Type 0), exponential interpolation (Type 2), stitching
// (Type 3), and PostScript calculator (Type 4) functions. These feed tint
// transforms for Separation/DeviceN color spaces and color ramps for axial
// and radial shadings.
package function

import (
	"fmt"
	"io"
	"math"

	pdf "github.com/pdfray/pdfray"
)

// Function evaluates a PDF function at a point in its domain.
type Function interface {
	// Eval clips inputs to Domain and evaluates. Type 0 and Type 4
	// functions clip outputs to Range (when Range is present); Type 2 and
	// Type 3 functions do not read /Range and return unclipped outputs.
	// len(inputs) must equal the function's number of inputs.
	Eval(inputs []float64) ([]float64, error)
}

// Read resolves and decodes a function dictionary or stream, or an array
// of 1-output functions (the common shading/tint-transform shorthand for
// "one function per output component").
func Read(r pdf.Getter, obj pdf.Object) (Function, error) {
	resolved, err := pdf.Resolve(r, obj)
	if err != nil {
		return nil, err
	}
	if arr, ok := resolved.(pdf.Array); ok {
		fns := make([]Function, len(arr))
		for i, elem := range arr {
			f, err := Read(r, elem)
			if err != nil {
				return nil, err
			}
			fns[i] = f
		}
		return multiFunction(fns), nil
	}

	var dict pdf.Dict
	switch x := resolved.(type) {
	case pdf.Dict:
		dict = x
	case *pdf.Stream:
		dict = x.Dict
	default:
		return nil, &pdf.MalformedFileError{Err: fmt.Errorf("function: expected dict or stream, got %T", resolved)}
	}

	ft, _ := pdf.GetInt(r, dict["FunctionType"])
	domain, _ := pdf.GetFloatArray(r, dict["Domain"])
	rang, _ := pdf.GetFloatArray(r, dict["Range"])

	switch ft {
	case 0:
		return readType0(r, resolved, dict, domain, rang)
	case 2:
		return readType2(r, dict, domain)
	case 3:
		return readType3(r, dict, domain)
	case 4:
		return readType4(r, resolved, dict, domain, rang)
	default:
		return nil, &pdf.MalformedFileError{Err: fmt.Errorf("function: unsupported /FunctionType %d", ft)}
	}
}

// multiFunction composes several 1-output functions into one
// n-output function, as used by a shading's /Function array shorthand.
type multiFunction []Function

func (m multiFunction) Eval(inputs []float64) ([]float64, error) {
	out := make([]float64, 0, len(m))
	for _, f := range m {
		v, err := f.Eval(inputs)
		if err != nil {
			return nil, err
		}
		out = append(out, v...)
	}
	return out, nil
}

func clipToDomain(domain, inputs []float64) []float64 {
	if len(domain) < 2*len(inputs) {
		return inputs
	}
	out := make([]float64, len(inputs))
	for i, x := range inputs {
		lo, hi := domain[2*i], domain[2*i+1]
		out[i] = clip(x, lo, hi)
	}
	return out
}

func clipToRange(rang, outputs []float64) []float64 {
	if len(rang) < 2*len(outputs) {
		return outputs
	}
	out := make([]float64, len(outputs))
	for i, y := range outputs {
		lo, hi := rang[2*i], rang[2*i+1]
		out[i] = clip(y, lo, hi)
	}
	return out
}

func clip(x, lo, hi float64) float64 {
	if lo > hi {
		lo, hi = hi, lo
	}
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

func interpolate(x, xmin, xmax, ymin, ymax float64) float64 {
	if xmax == xmin {
		return ymin
	}
	return ymin + (x-xmin)*(ymax-ymin)/(xmax-xmin)
}

// Type2 is an exponential interpolation function: f(x) = C0 + x^N*(C1-C0).
type Type2 struct {
	XMin, XMax float64
	C0, C1     []float64
	N          float64
}

func readType2(r pdf.Getter, dict pdf.Dict, domain []float64) (*Type2, error) {
	t := &Type2{XMin: 0, XMax: 1}
	if len(domain) >= 2 {
		t.XMin, t.XMax = domain[0], domain[1]
	}
	if c0, err := pdf.GetFloatArray(r, dict["C0"]); err == nil && len(c0) > 0 {
		t.C0 = c0
	} else {
		t.C0 = []float64{0}
	}
	if c1, err := pdf.GetFloatArray(r, dict["C1"]); err == nil && len(c1) > 0 {
		t.C1 = c1
	} else {
		t.C1 = []float64{1}
	}
	t.N = 1
	if n, err := pdf.GetNumber(r, dict["N"]); err == nil {
		t.N = float64(n)
	}
	return t, nil
}

func (t *Type2) Eval(inputs []float64) ([]float64, error) {
	if len(inputs) != 1 {
		return nil, fmt.Errorf("function: Type2 expects 1 input, got %d", len(inputs))
	}
	x := clip(inputs[0], t.XMin, t.XMax)
	n := len(t.C0)
	if len(t.C1) < n {
		n = len(t.C1)
	}
	xn := math.Pow(x, t.N)
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = t.C0[i] + xn*(t.C1[i]-t.C0[i])
	}
	return out, nil
}

// Type3 is a stitching function: the domain is partitioned by Bounds and
// each subdomain is mapped through Encode into the corresponding
// sub-function's domain.
type Type3 struct {
	XMin, XMax float64
	Functions  []Function
	Bounds     []float64
	Encode     []float64
}

func readType3(r pdf.Getter, dict pdf.Dict, domain []float64) (*Type3, error) {
	t := &Type3{XMin: 0, XMax: 1}
	if len(domain) >= 2 {
		t.XMin, t.XMax = domain[0], domain[1]
	}
	fns, err := pdf.GetArray(r, dict["Functions"])
	if err != nil {
		return nil, err
	}
	t.Functions = make([]Function, len(fns))
	for i, fo := range fns {
		f, err := Read(r, fo)
		if err != nil {
			return nil, err
		}
		t.Functions[i] = f
	}
	t.Bounds, _ = pdf.GetFloatArray(r, dict["Bounds"])
	t.Encode, _ = pdf.GetFloatArray(r, dict["Encode"])
	return t, nil
}

func (t *Type3) Eval(inputs []float64) ([]float64, error) {
	if len(inputs) != 1 {
		return nil, fmt.Errorf("function: Type3 expects 1 input, got %d", len(inputs))
	}
	x := clip(inputs[0], t.XMin, t.XMax)

	k := len(t.Functions)
	if k == 0 {
		return nil, fmt.Errorf("function: Type3 has no sub-functions")
	}
	idx := 0
	lo := t.XMin
	hi := t.XMax
	for idx < len(t.Bounds) && x >= t.Bounds[idx] {
		idx++
	}
	if idx < len(t.Bounds) {
		hi = t.Bounds[idx]
	}
	if idx > 0 {
		lo = t.Bounds[idx-1]
	}
	if idx >= k {
		idx = k - 1
	}

	e0, e1 := 0.0, 1.0
	if len(t.Encode) >= 2*(idx+1) {
		e0, e1 = t.Encode[2*idx], t.Encode[2*idx+1]
	}
	xe := interpolate(x, lo, hi, e0, e1)
	return t.Functions[idx].Eval([]float64{xe})
}

// Type0 is a sampled function: a lookup table over a multidimensional
// domain, with multilinear interpolation between samples. UseCubic is
// recorded but not consulted: interpolation is always multilinear.
type Type0 struct {
	Domain        []float64
	Range         []float64
	Size          []int
	BitsPerSample int
	UseCubic      bool
	Encode        []float64
	Decode        []float64
	Samples       []byte
}

func readType0(r pdf.Getter, obj pdf.Object, dict pdf.Dict, domain, rang []float64) (*Type0, error) {
	strm, ok := obj.(*pdf.Stream)
	if !ok {
		return nil, &pdf.MalformedFileError{Err: fmt.Errorf("function: Type0 must be a stream")}
	}
	t := &Type0{Domain: domain, Range: rang}

	sizeArr, err := pdf.GetArray(r, dict["Size"])
	if err != nil {
		return nil, err
	}
	t.Size = make([]int, len(sizeArr))
	for i, s := range sizeArr {
		n, _ := pdf.GetInt(r, s)
		t.Size[i] = int(n)
	}

	bps, _ := pdf.GetInt(r, dict["BitsPerSample"])
	t.BitsPerSample = int(bps)

	t.Encode, _ = pdf.GetFloatArray(r, dict["Encode"])
	t.Decode, _ = pdf.GetFloatArray(r, dict["Decode"])
	if t.Decode == nil {
		t.Decode = rang
	}

	rc, err := pdf.DecodeStream(r, strm, -1)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	samples, err := io.ReadAll(rc)
	if err != nil {
		return nil, err
	}
	t.Samples = samples
	return t, nil
}

func (t *Type0) numInputs() int { return len(t.Size) }
func (t *Type0) numOutputs() int {
	if len(t.Range) > 0 {
		return len(t.Range) / 2
	}
	return 0
}

func (t *Type0) sampleAt(coord []int, outIdx int) float64 {
	m := t.numOutputs()
	offset := 0
	stride := 1
	for i, c := range coord {
		offset += c * stride
		stride *= t.Size[i]
	}
	sampleIndex := offset*m + outIdx
	bit := sampleIndex * t.BitsPerSample
	return float64(readBits(t.Samples, bit, t.BitsPerSample))
}

func readBits(data []byte, bitOffset, nbits int) uint64 {
	var v uint64
	for i := 0; i < nbits; i++ {
		byteIdx := (bitOffset + i) / 8
		bitIdx := 7 - (bitOffset+i)%8
		if byteIdx >= len(data) {
			break
		}
		bitVal := (data[byteIdx] >> uint(bitIdx)) & 1
		v = v<<1 | uint64(bitVal)
	}
	return v
}

func (t *Type0) Eval(inputs []float64) ([]float64, error) {
	n := t.numInputs()
	if len(inputs) != n {
		return nil, fmt.Errorf("function: Type0 expects %d inputs, got %d", n, len(inputs))
	}
	m := t.numOutputs()
	if m == 0 {
		return nil, fmt.Errorf("function: Type0 missing /Range")
	}

	x := clipToDomain(t.Domain, inputs)

	maxVal := float64((uint64(1) << uint(t.BitsPerSample)) - 1)

	e := make([]float64, n)
	lower := make([]int, n)
	frac := make([]float64, n)
	for i := 0; i < n; i++ {
		dmin, dmax := t.Domain[2*i], t.Domain[2*i+1]
		emin, emax := 0.0, float64(t.Size[i]-1)
		if len(t.Encode) >= 2*(i+1) {
			emin, emax = t.Encode[2*i], t.Encode[2*i+1]
		}
		ei := interpolate(x[i], dmin, dmax, emin, emax)
		ei = clip(ei, 0, float64(t.Size[i]-1))
		e[i] = ei
		lower[i] = int(math.Floor(ei))
		if lower[i] >= t.Size[i]-1 {
			lower[i] = t.Size[i] - 1
			if lower[i] < 0 {
				lower[i] = 0
			}
		}
		frac[i] = ei - float64(lower[i])
	}

	out := make([]float64, m)
	corners := 1 << n
	for c := 0; c < corners; c++ {
		weight := 1.0
		coord := make([]int, n)
		for i := 0; i < n; i++ {
			bit := (c >> uint(i)) & 1
			if bit == 1 {
				coord[i] = lower[i] + 1
				if coord[i] >= t.Size[i] {
					coord[i] = t.Size[i] - 1
				}
				weight *= frac[i]
			} else {
				coord[i] = lower[i]
				weight *= 1 - frac[i]
			}
		}
		if weight == 0 {
			continue
		}
		for o := 0; o < m; o++ {
			out[o] += weight * t.sampleAt(coord, o)
		}
	}

	for o := 0; o < m; o++ {
		decMin, decMax := t.Range[2*o], t.Range[2*o+1]
		if len(t.Decode) >= 2*(o+1) {
			decMin, decMax = t.Decode[2*o], t.Decode[2*o+1]
		}
		out[o] = interpolate(out[o], 0, maxVal, decMin, decMax)
	}

	return clipToRange(t.Range, out), nil
}
