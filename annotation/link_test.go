package annotation

import (
	"testing"

	pdf "github.com/pdfray/pdfray"
)

func TestExtractLinkWithAction(t *testing.T) {
	dict := pdf.Dict{
		"Subtype": pdf.Name("Link"),
		"Rect":    pdf.Array{pdf.Integer(0), pdf.Integer(0), pdf.Integer(100), pdf.Integer(50)},
		"NM":      pdf.String("link1"),
		"A":       pdf.Dict{"S": pdf.Name("URI"), "URI": pdf.String("https://example.com")},
	}
	link, err := ExtractLink(nil, dict)
	if err != nil {
		t.Fatal(err)
	}
	if link.Name != "link1" {
		t.Errorf("Name = %q, want link1", link.Name)
	}
	if link.Rect != (pdf.Rectangle{LLx: 0, LLy: 0, URx: 100, URy: 50}) {
		t.Errorf("Rect = %+v, want {0 0 100 50}", link.Rect)
	}
	if link.Action["URI"] != pdf.String("https://example.com") {
		t.Errorf("Action[URI] = %v, want https://example.com", link.Action["URI"])
	}
	if link.Dest != nil {
		t.Errorf("Dest should be nil when /A is present, got %v", link.Dest)
	}
}

func TestExtractLinkWithDest(t *testing.T) {
	dict := pdf.Dict{
		"Subtype": pdf.Name("Link"),
		"Dest":    pdf.String("chapter1"),
	}
	link, err := ExtractLink(nil, dict)
	if err != nil {
		t.Fatal(err)
	}
	if link.Dest != pdf.String("chapter1") {
		t.Errorf("Dest = %v, want chapter1", link.Dest)
	}
	if link.Action != nil {
		t.Errorf("Action should be nil when /Dest is present, got %v", link.Action)
	}
}

func TestExtractLinksFiltersNonLinkSubtypes(t *testing.T) {
	annots := pdf.Array{
		pdf.Dict{"Subtype": pdf.Name("Text"), "Contents": pdf.String("a note")},
		pdf.Dict{"Subtype": pdf.Name("Link"), "Dest": pdf.String("page2")},
		pdf.Dict{"Subtype": pdf.Name("Link"), "Dest": pdf.String("page3")},
	}
	links := ExtractLinks(nil, annots)
	if len(links) != 2 {
		t.Fatalf("ExtractLinks returned %d links, want 2", len(links))
	}
	if links[0].Dest != pdf.String("page2") || links[1].Dest != pdf.String("page3") {
		t.Errorf("ExtractLinks returned unexpected dests: %v, %v", links[0].Dest, links[1].Dest)
	}
}

func TestExtractLinksSkipsUnresolvable(t *testing.T) {
	annots := pdf.Array{
		pdf.Integer(42), // not a dict at all
		pdf.Dict{"Subtype": pdf.Name("Link"), "Dest": pdf.String("ok")},
	}
	links := ExtractLinks(nil, annots)
	if len(links) != 1 {
		t.Fatalf("ExtractLinks returned %d links, want 1", len(links))
	}
}

func TestExtractCommonFlags(t *testing.T) {
	dict := pdf.Dict{
		"F": pdf.Integer(FlagPrint | FlagNoZoom),
		"C": pdf.Array{pdf.Real(1), pdf.Real(0), pdf.Real(0)},
	}
	var c Common
	if err := extractCommon(nil, dict, &c); err != nil {
		t.Fatal(err)
	}
	if c.Flags&FlagPrint == 0 || c.Flags&FlagNoZoom == 0 {
		t.Errorf("Flags = %v, want FlagPrint|FlagNoZoom set", c.Flags)
	}
	if len(c.Color) != 3 || c.Color[0] != 1 {
		t.Errorf("Color = %v, want [1 0 0]", c.Color)
	}
}
