package font

import (
	"testing"

	pdf "github.com/pdfray/pdfray"
)

func TestResolveSimpleEncodingStandardDefault(t *testing.T) {
	fd := pdf.Dict{"BaseFont": pdf.Name("Helvetica")}
	sf := ResolveSimpleEncoding(nil, fd, nil)
	if sf.CodeToGlyphName['A'] != "A" {
		t.Errorf("CodeToGlyphName['A'] = %q, want %q", sf.CodeToGlyphName['A'], "A")
	}
	if sf.ToUnicode['A'] != "A" {
		t.Errorf("ToUnicode['A'] = %q, want %q", sf.ToUnicode['A'], "A")
	}
}

func TestResolveSimpleEncodingWithDifferences(t *testing.T) {
	fd := pdf.Dict{
		"BaseFont": pdf.Name("CustomFont"),
		"Encoding": pdf.Dict{
			"BaseEncoding": pdf.Name("WinAnsiEncoding"),
			"Differences": pdf.Array{
				pdf.Integer(65), pdf.Name("Euro"), pdf.Name("bullet"),
			},
		},
	}
	sf := ResolveSimpleEncoding(nil, fd, nil)
	if sf.CodeToGlyphName[65] != "Euro" {
		t.Errorf("CodeToGlyphName[65] = %q, want Euro", sf.CodeToGlyphName[65])
	}
	if sf.CodeToGlyphName[66] != "bullet" {
		t.Errorf("CodeToGlyphName[66] = %q, want bullet", sf.CodeToGlyphName[66])
	}
	// unaffected code still reflects the base encoding
	if sf.CodeToGlyphName[67] == "Euro" || sf.CodeToGlyphName[67] == "bullet" {
		t.Errorf("CodeToGlyphName[67] should not be touched by /Differences")
	}
}

func TestResolveSimpleEncodingToUnicodeOverride(t *testing.T) {
	fd := pdf.Dict{"BaseFont": pdf.Name("Custom")}
	override := map[uint32]string{65: "é"}
	sf := ResolveSimpleEncoding(nil, fd, override)
	if sf.ToUnicode[65] != "é" {
		t.Errorf("ToUnicode[65] = %q, want override value", sf.ToUnicode[65])
	}
	if sf.ToUnicode[66] != "B" {
		t.Errorf("ToUnicode[66] = %q, want B (no override, falls back to glyph name)", sf.ToUnicode[66])
	}
}

func TestDecodeWinAnsi(t *testing.T) {
	got, err := DecodeWinAnsi([]byte{0x41, 0x42})
	if err != nil {
		t.Fatal(err)
	}
	if got != "AB" {
		t.Errorf("DecodeWinAnsi = %q, want AB", got)
	}
}

func TestDecodeMacRoman(t *testing.T) {
	got, err := DecodeMacRoman([]byte{0x41, 0x42})
	if err != nil {
		t.Fatal(err)
	}
	if got != "AB" {
		t.Errorf("DecodeMacRoman = %q, want AB", got)
	}
}
