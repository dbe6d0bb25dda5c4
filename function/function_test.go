package function

import (
	"math"
	"testing"
)

func approxEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func TestType2Linear(t *testing.T) {
	f := &Type2{XMin: 0, XMax: 1, C0: []float64{0}, C1: []float64{1}, N: 1}
	out, err := f.Eval([]float64{0.5})
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 1 || !approxEqual(out[0], 0.5, 1e-9) {
		t.Errorf("Eval(0.5) = %v, want [0.5]", out)
	}
}

func TestType2Quadratic(t *testing.T) {
	f := &Type2{XMin: 0, XMax: 1, C0: []float64{0}, C1: []float64{1}, N: 2}
	out, err := f.Eval([]float64{0.5})
	if err != nil {
		t.Fatal(err)
	}
	if !approxEqual(out[0], 0.25, 1e-9) {
		t.Errorf("Eval(0.5) = %v, want [0.25]", out)
	}
}

func TestType2ClipsToDomain(t *testing.T) {
	f := &Type2{XMin: 0, XMax: 1, C0: []float64{0}, C1: []float64{1}, N: 1}
	out, err := f.Eval([]float64{5})
	if err != nil {
		t.Fatal(err)
	}
	if !approxEqual(out[0], 1, 1e-9) {
		t.Errorf("Eval(5) = %v, want clipped to [1]", out)
	}
}

func TestType3Stitching(t *testing.T) {
	low := &Type2{XMin: 0, XMax: 1, C0: []float64{0}, C1: []float64{1}, N: 1}
	high := &Type2{XMin: 0, XMax: 1, C0: []float64{1}, C1: []float64{0}, N: 1}
	t3 := &Type3{
		XMin:      0,
		XMax:      1,
		Functions: []Function{low, high},
		Bounds:    []float64{0.5},
		Encode:    []float64{0, 1, 0, 1},
	}

	out, err := t3.Eval([]float64{0.25})
	if err != nil {
		t.Fatal(err)
	}
	if !approxEqual(out[0], 0.5, 1e-9) {
		t.Errorf("Eval(0.25) = %v, want [0.5] (midpoint of low segment)", out)
	}

	out, err = t3.Eval([]float64{0.75})
	if err != nil {
		t.Fatal(err)
	}
	if !approxEqual(out[0], 0.5, 1e-9) {
		t.Errorf("Eval(0.75) = %v, want [0.5] (midpoint of high segment)", out)
	}
}

func TestType0OneDimensional(t *testing.T) {
	t0 := &Type0{
		Domain:        []float64{0, 1},
		Range:         []float64{0, 1},
		Size:          []int{4},
		BitsPerSample: 8,
		Encode:        []float64{0, 3},
		Decode:        []float64{0, 1},
		Samples:       []byte{0, 85, 170, 255},
	}

	out, err := t0.Eval([]float64{0})
	if err != nil {
		t.Fatal(err)
	}
	if !approxEqual(out[0], 0, 1e-9) {
		t.Errorf("Eval(0) = %v, want [0]", out)
	}

	out, err = t0.Eval([]float64{1})
	if err != nil {
		t.Fatal(err)
	}
	if !approxEqual(out[0], 1, 1e-9) {
		t.Errorf("Eval(1) = %v, want [1]", out)
	}

	// halfway between sample 1 (85/255) and sample 2 (170/255)
	out, err = t0.Eval([]float64{0.5})
	if err != nil {
		t.Fatal(err)
	}
	want := (85.0/255 + 170.0/255) / 2
	if !approxEqual(out[0], want, 1e-3) {
		t.Errorf("Eval(0.5) = %v, want close to %v", out, want)
	}
}

func TestType0TwoDimensional(t *testing.T) {
	t0 := &Type0{
		Domain:        []float64{0, 1, 0, 1},
		Range:         []float64{0, 1},
		Size:          []int{2, 2},
		BitsPerSample: 8,
		Encode:        []float64{0, 1, 0, 1},
		Decode:        []float64{0, 1},
		// corners: (0,0)=0 (1,0)=255 (0,1)=255 (1,1)=0
		Samples: []byte{0, 255, 255, 0},
	}
	out, err := t0.Eval([]float64{0, 0})
	if err != nil {
		t.Fatal(err)
	}
	if !approxEqual(out[0], 0, 1e-9) {
		t.Errorf("Eval(0,0) = %v, want [0]", out)
	}
	out, err = t0.Eval([]float64{1, 0})
	if err != nil {
		t.Fatal(err)
	}
	if !approxEqual(out[0], 1, 1e-9) {
		t.Errorf("Eval(1,0) = %v, want [1]", out)
	}
}

func TestType4Arithmetic(t *testing.T) {
	f := &Type4{Domain: []float64{0, 1}, Range: []float64{0, 2}, Program: "{ 2 mul }"}
	out, err := f.Eval([]float64{0.5})
	if err != nil {
		t.Fatal(err)
	}
	if !approxEqual(out[0], 1, 1e-9) {
		t.Errorf("Eval(0.5) = %v, want [1]", out)
	}
}

func TestType4Conditional(t *testing.T) {
	f := &Type4{
		Domain:  []float64{0, 1},
		Range:   []float64{0, 1},
		Program: "{ dup 0.5 gt { pop 1 } { pop 0 } ifelse }",
	}
	out, err := f.Eval([]float64{0.8})
	if err != nil {
		t.Fatal(err)
	}
	if out[0] != 1 {
		t.Errorf("Eval(0.8) = %v, want [1]", out)
	}
	out, err = f.Eval([]float64{0.2})
	if err != nil {
		t.Fatal(err)
	}
	if out[0] != 0 {
		t.Errorf("Eval(0.2) = %v, want [0]", out)
	}
}

func TestMultiFunctionComposesOutputs(t *testing.T) {
	r := &Type2{XMin: 0, XMax: 1, C0: []float64{0}, C1: []float64{1}, N: 1}
	g := &Type2{XMin: 0, XMax: 1, C0: []float64{1}, C1: []float64{0}, N: 1}
	m := multiFunction{r, g}
	out, err := m.Eval([]float64{0.25})
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 2 || !approxEqual(out[0], 0.25, 1e-9) || !approxEqual(out[1], 0.75, 1e-9) {
		t.Errorf("Eval(0.25) = %v, want [0.25 0.75]", out)
	}
}
