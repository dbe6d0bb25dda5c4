package destination

import (
	"math"
	"testing"

	pdf "github.com/pdfray/pdfray"
)

func TestDecodeXYZ(t *testing.T) {
	arr := pdf.Array{pdf.NewReference(10, 0), pdf.Name("XYZ"), pdf.Real(100), pdf.Real(200), pdf.Real(1.5)}
	d, err := Decode(nil, arr)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	xyz, ok := d.(*XYZ)
	if !ok {
		t.Fatalf("got %T, want *XYZ", d)
	}
	if xyz.Left != 100 || xyz.Top != 200 || xyz.Zoom != 1.5 {
		t.Errorf("got %+v", xyz)
	}
	if xyz.DestinationType() != TypeXYZ {
		t.Errorf("wrong type %v", xyz.DestinationType())
	}
}

func TestDecodeXYZWithNull(t *testing.T) {
	arr := pdf.Array{pdf.NewReference(10, 0), pdf.Name("XYZ"), nil, pdf.Real(200), nil}
	d, err := Decode(nil, arr)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	xyz := d.(*XYZ)
	if !math.IsNaN(xyz.Left) {
		t.Errorf("Left = %v, want NaN", xyz.Left)
	}
	if xyz.Top != 200 {
		t.Errorf("Top = %v, want 200", xyz.Top)
	}
	if !math.IsNaN(xyz.Zoom) {
		t.Errorf("Zoom = %v, want NaN", xyz.Zoom)
	}
}

func TestDecodeFit(t *testing.T) {
	arr := pdf.Array{pdf.NewReference(10, 0), pdf.Name("Fit")}
	d, err := Decode(nil, arr)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if _, ok := d.(*Fit); !ok {
		t.Fatalf("got %T, want *Fit", d)
	}
}

func TestDecodeFitH(t *testing.T) {
	arr := pdf.Array{pdf.NewReference(10, 0), pdf.Name("FitH"), pdf.Real(500)}
	d, err := Decode(nil, arr)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	fh := d.(*FitH)
	if fh.Top != 500 {
		t.Errorf("Top = %v, want 500", fh.Top)
	}
}

func TestDecodeFitR(t *testing.T) {
	arr := pdf.Array{
		pdf.NewReference(10, 0), pdf.Name("FitR"),
		pdf.Real(100), pdf.Real(200), pdf.Real(400), pdf.Real(500),
	}
	d, err := Decode(nil, arr)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	fr := d.(*FitR)
	if fr.Left != 100 || fr.Bottom != 200 || fr.Right != 400 || fr.Top != 500 {
		t.Errorf("got %+v", fr)
	}
}

func TestDecodeFitB(t *testing.T) {
	arr := pdf.Array{pdf.NewReference(10, 0), pdf.Name("FitB")}
	d, err := Decode(nil, arr)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if _, ok := d.(*FitB); !ok {
		t.Fatalf("got %T, want *FitB", d)
	}
}

func TestDecodeNamedFromName(t *testing.T) {
	d, err := Decode(nil, pdf.Name("Chapter6"))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	n, ok := d.(*Named)
	if !ok {
		t.Fatalf("got %T, want *Named", d)
	}
	if string(n.Name) != "Chapter6" {
		t.Errorf("Name = %q, want Chapter6", n.Name)
	}
}

func TestDecodeNamedFromString(t *testing.T) {
	d, err := Decode(nil, pdf.String("Chapter6"))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if d.(*Named).Name != "Chapter6" {
		t.Errorf("unexpected name %q", d.(*Named).Name)
	}
}

func TestDecodeDDictWrapper(t *testing.T) {
	dict := pdf.Dict{"D": pdf.Array{pdf.NewReference(10, 0), pdf.Name("Fit")}}
	d, err := Decode(nil, dict)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if _, ok := d.(*Fit); !ok {
		t.Fatalf("got %T, want *Fit", d)
	}
}

func TestDecodeTooShort(t *testing.T) {
	_, err := Decode(nil, pdf.Array{pdf.NewReference(10, 0)})
	if err == nil {
		t.Fatal("expected an error for a too-short destination array")
	}
}

func TestDecodeUnknownType(t *testing.T) {
	_, err := Decode(nil, pdf.Array{pdf.NewReference(10, 0), pdf.Name("Bogus")})
	if err == nil {
		t.Fatal("expected an error for an unknown destination type")
	}
}
