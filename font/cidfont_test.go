package font

import (
	"bytes"
	"testing"

	pdf "github.com/pdfray/pdfray"
)

func TestIsCIDActiveBySubtype(t *testing.T) {
	fd := pdf.Dict{"Subtype": pdf.Name("Type0")}
	if !IsCIDActive(fd) {
		t.Error("Type0 font should be CID-active")
	}
}

func TestIsCIDActiveByIdentityEncoding(t *testing.T) {
	fd := pdf.Dict{"Subtype": pdf.Name("TrueType"), "Encoding": pdf.Name("Identity-H")}
	if !IsCIDActive(fd) {
		t.Error("Identity-H encoding should mark a font CID-active")
	}
}

func TestIsCIDActiveFalseForSimpleFont(t *testing.T) {
	fd := pdf.Dict{"Subtype": pdf.Name("TrueType"), "Encoding": pdf.Name("WinAnsiEncoding")}
	if IsCIDActive(fd) {
		t.Error("WinAnsiEncoding should not be CID-active")
	}
}

func TestResolveCIDFontIdentityNoCIDToGIDMap(t *testing.T) {
	fd := pdf.Dict{
		"Subtype":  pdf.Name("Type0"),
		"Encoding": pdf.Name("Identity-H"),
		"DescendantFonts": pdf.Array{
			pdf.Dict{"CIDToGIDMap": pdf.Name("Identity")},
		},
	}
	cf := ResolveCIDFont(nil, fd, nil)
	if !cf.Identity {
		t.Error("Identity should be true")
	}
	if cf.GID(42) != 42 {
		t.Errorf("GID(42) = %d, want 42 (identity)", cf.GID(42))
	}
}

func TestResolveCIDFontExplicitCIDToGIDMap(t *testing.T) {
	// CID 0 -> GID 5, CID 1 -> GID 10
	data := []byte{0, 5, 0, 10}
	fd := pdf.Dict{
		"Subtype":  pdf.Name("Type0"),
		"Encoding": pdf.Name("Identity-H"),
		"DescendantFonts": pdf.Array{
			pdf.Dict{"CIDToGIDMap": &pdf.Stream{
				Dict: pdf.Dict{},
				R:    bytes.NewReader(data),
			}},
		},
	}
	cf := ResolveCIDFont(nil, fd, nil)
	if cf.GID(0) != 5 {
		t.Errorf("GID(0) = %d, want 5", cf.GID(0))
	}
	if cf.GID(1) != 10 {
		t.Errorf("GID(1) = %d, want 10", cf.GID(1))
	}
	if cf.GID(2) != 0 {
		t.Errorf("GID(2) = %d, want 0 (out of range -> missing glyph)", cf.GID(2))
	}
}

func TestCIDFontUnicodeFromToUnicode(t *testing.T) {
	cf := &CIDFont{ToUnicode: map[uint32]string{7: "A"}}
	s, ok := cf.Unicode(7)
	if !ok || s != "A" {
		t.Errorf("Unicode(7) = %q, %v, want A, true", s, ok)
	}
	if _, ok := cf.Unicode(8); ok {
		t.Error("Unicode(8) should not be found")
	}
}

func TestResolveDispatchesSimpleVsCID(t *testing.T) {
	simple := pdf.Dict{"Subtype": pdf.Name("TrueType"), "BaseFont": pdf.Name("Arial")}
	info, err := Resolve(nil, simple)
	if err != nil {
		t.Fatal(err)
	}
	if info.Simple == nil || info.CID != nil {
		t.Error("simple TrueType font should resolve to Simple, not CID")
	}

	cid := pdf.Dict{"Subtype": pdf.Name("Type0"), "Encoding": pdf.Name("Identity-H")}
	info, err = Resolve(nil, cid)
	if err != nil {
		t.Fatal(err)
	}
	if info.CID == nil || info.Simple != nil {
		t.Error("Type0 font should resolve to CID, not Simple")
	}
}
