package document

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	pdf "github.com/pdfray/pdfray"
)

// fakeGetter resolves indirect references from a fixed table, for
// exercising page-tree walks without a real PDF file.
type fakeGetter map[pdf.Reference]pdf.Object

func (g fakeGetter) Get(ref pdf.Reference, canObjStm bool) (pdf.Object, error) {
	if v, ok := g[ref]; ok {
		return v, nil
	}
	return nil, nil
}

// flatDoc builds a Document over a /Pages tree with no intermediate
// nodes: root -> pages directly.
func flatDoc(g fakeGetter, pagesRef pdf.Reference, catalog pdf.Dict) *Document {
	pages := g[pagesRef].(pdf.Dict)
	return &Document{R: g, catalog: catalog, pages: pages}
}

func TestGetPageCountFlat(t *testing.T) {
	page1 := pdf.NewReference(1, 0)
	page2 := pdf.NewReference(2, 0)
	pagesRef := pdf.NewReference(3, 0)

	g := fakeGetter{
		page1: pdf.Dict{"Type": pdf.Name("Page")},
		page2: pdf.Dict{"Type": pdf.Name("Page")},
		pagesRef: pdf.Dict{
			"Type": pdf.Name("Pages"),
			"Kids": pdf.Array{page1, page2},
		},
	}
	d := flatDoc(g, pagesRef, pdf.Dict{"Pages": pagesRef})

	n, err := d.GetPageCount()
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("GetPageCount() = %d, want 2", n)
	}
}

func TestGetPageCountNested(t *testing.T) {
	page1 := pdf.NewReference(1, 0)
	page2 := pdf.NewReference(2, 0)
	page3 := pdf.NewReference(3, 0)
	kidRef := pdf.NewReference(4, 0)
	pagesRef := pdf.NewReference(5, 0)

	g := fakeGetter{
		page1: pdf.Dict{"Type": pdf.Name("Page")},
		page2: pdf.Dict{"Type": pdf.Name("Page")},
		page3: pdf.Dict{"Type": pdf.Name("Page")},
		kidRef: pdf.Dict{
			"Type": pdf.Name("Pages"),
			"Kids": pdf.Array{page2, page3},
		},
		pagesRef: pdf.Dict{
			"Type": pdf.Name("Pages"),
			"Kids": pdf.Array{page1, kidRef},
		},
	}
	d := flatDoc(g, pagesRef, pdf.Dict{"Pages": pagesRef})

	n, err := d.GetPageCount()
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Errorf("GetPageCount() = %d, want 3", n)
	}
}

func TestGetPageCountBreaksCycle(t *testing.T) {
	pagesRef := pdf.NewReference(1, 0)
	g := fakeGetter{}
	g[pagesRef] = pdf.Dict{
		"Type": pdf.Name("Pages"),
		"Kids": pdf.Array{pagesRef},
	}
	d := flatDoc(g, pagesRef, pdf.Dict{"Pages": pagesRef})

	n, err := d.GetPageCount()
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("GetPageCount() on a self-referencing tree = %d, want 0", n)
	}
}

func TestInheritedMediaBox(t *testing.T) {
	page1 := pdf.NewReference(1, 0)
	pagesRef := pdf.NewReference(2, 0)
	rootBox := pdf.Array{pdf.Integer(0), pdf.Integer(0), pdf.Integer(595), pdf.Integer(842)}

	g := fakeGetter{
		page1: pdf.Dict{"Type": pdf.Name("Page")},
		pagesRef: pdf.Dict{
			"Type":     pdf.Name("Pages"),
			"Kids":     pdf.Array{page1},
			"MediaBox": rootBox,
		},
	}
	d := flatDoc(g, pagesRef, pdf.Dict{"Pages": pagesRef})

	rect, err := d.PageSize(0)
	if err != nil {
		t.Fatal(err)
	}
	want := pdf.Rectangle{LLx: 0, LLy: 0, URx: 595, URy: 842}
	if rect != want {
		t.Errorf("PageSize(0) = %+v, want %+v (inherited from /Pages)", rect, want)
	}
}

func TestPageSizeDefaultsToLetter(t *testing.T) {
	page1 := pdf.NewReference(1, 0)
	pagesRef := pdf.NewReference(2, 0)
	g := fakeGetter{
		page1:    pdf.Dict{"Type": pdf.Name("Page")},
		pagesRef: pdf.Dict{"Type": pdf.Name("Pages"), "Kids": pdf.Array{page1}},
	}
	d := flatDoc(g, pagesRef, pdf.Dict{"Pages": pagesRef})

	rect, err := d.PageSize(0)
	if err != nil {
		t.Fatal(err)
	}
	if rect != defaultMediaBox {
		t.Errorf("PageSize(0) = %+v, want default Letter box %+v", rect, defaultMediaBox)
	}
}

func TestCropBoxFallsBackToMediaBox(t *testing.T) {
	page1 := pdf.NewReference(1, 0)
	pagesRef := pdf.NewReference(2, 0)
	box := pdf.Array{pdf.Integer(0), pdf.Integer(0), pdf.Integer(300), pdf.Integer(400)}
	g := fakeGetter{
		page1:    pdf.Dict{"Type": pdf.Name("Page"), "MediaBox": box},
		pagesRef: pdf.Dict{"Type": pdf.Name("Pages"), "Kids": pdf.Array{page1}},
	}
	d := flatDoc(g, pagesRef, pdf.Dict{"Pages": pagesRef})

	rect, err := d.CropBox(0)
	if err != nil {
		t.Fatal(err)
	}
	want := pdf.Rectangle{LLx: 0, LLy: 0, URx: 300, URy: 400}
	if rect != want {
		t.Errorf("CropBox(0) = %+v, want %+v", rect, want)
	}
}

func TestPageRotateNormalizes(t *testing.T) {
	page1 := pdf.NewReference(1, 0)
	pagesRef := pdf.NewReference(2, 0)
	g := fakeGetter{
		page1:    pdf.Dict{"Type": pdf.Name("Page"), "Rotate": pdf.Integer(450)},
		pagesRef: pdf.Dict{"Type": pdf.Name("Pages"), "Kids": pdf.Array{page1}},
	}
	d := flatDoc(g, pagesRef, pdf.Dict{"Pages": pagesRef})

	rot, err := d.PageRotate(0)
	if err != nil {
		t.Fatal(err)
	}
	if rot != 90 {
		t.Errorf("PageRotate(0) = %d, want 90 (450 mod 360)", rot)
	}
}

func TestDisplayPageSizeSwapsOnRotation(t *testing.T) {
	page1 := pdf.NewReference(1, 0)
	pagesRef := pdf.NewReference(2, 0)
	box := pdf.Array{pdf.Integer(0), pdf.Integer(0), pdf.Integer(200), pdf.Integer(400)}
	g := fakeGetter{
		page1:    pdf.Dict{"Type": pdf.Name("Page"), "MediaBox": box, "Rotate": pdf.Integer(90)},
		pagesRef: pdf.Dict{"Type": pdf.Name("Pages"), "Kids": pdf.Array{page1}},
	}
	d := flatDoc(g, pagesRef, pdf.Dict{"Pages": pagesRef})

	rect, err := d.DisplayPageSize(0)
	if err != nil {
		t.Fatal(err)
	}
	if rect.URx != 400 || rect.URy != 200 {
		t.Errorf("DisplayPageSize(0) = %+v, want 400x200 (swapped)", rect)
	}
}

func TestPageResourcesNearestWins(t *testing.T) {
	page1 := pdf.NewReference(1, 0)
	pagesRef := pdf.NewReference(2, 0)
	ancestorRes := pdf.Dict{
		"Font": pdf.Dict{"F1": pdf.Dict{"BaseFont": pdf.Name("Ancestor")}},
	}
	pageRes := pdf.Dict{
		"Font": pdf.Dict{"F1": pdf.Dict{"BaseFont": pdf.Name("PageOwn")}},
	}
	g := fakeGetter{
		page1:    pdf.Dict{"Type": pdf.Name("Page"), "Resources": pageRes},
		pagesRef: pdf.Dict{"Type": pdf.Name("Pages"), "Kids": pdf.Array{page1}, "Resources": ancestorRes},
	}
	d := flatDoc(g, pagesRef, pdf.Dict{"Pages": pagesRef})

	stack, err := d.PageResources(0)
	if err != nil {
		t.Fatal(err)
	}
	if len(stack) != 2 {
		t.Fatalf("PageResources(0) returned %d dicts, want 2", len(stack))
	}
	if stack[len(stack)-1]["Font"].(pdf.Dict)["F1"].(pdf.Dict)["BaseFont"] != pdf.Name("PageOwn") {
		t.Errorf("page's own /Resources must be last in the stack (nearest scope)")
	}

	fonts, err := d.GetPageFonts(0)
	if err != nil {
		t.Fatal(err)
	}
	if fonts["F1"]["BaseFont"] != pdf.Name("PageOwn") {
		t.Errorf("GetPageFonts: F1 BaseFont = %v, want PageOwn (nearest scope wins)", fonts["F1"]["BaseFont"])
	}
}

func TestContentBytesConcatenatesStreams(t *testing.T) {
	page1 := pdf.NewReference(1, 0)
	pagesRef := pdf.NewReference(2, 0)

	s1 := &pdf.Stream{Dict: pdf.Dict{}, R: bytes.NewReader([]byte("1 0 0 RG"))}
	s2 := &pdf.Stream{Dict: pdf.Dict{}, R: bytes.NewReader([]byte("0 0 m 1 1 l S"))}

	g := fakeGetter{
		page1: pdf.Dict{
			"Type":     pdf.Name("Page"),
			"Contents": pdf.Array{s1, s2},
		},
		pagesRef: pdf.Dict{"Type": pdf.Name("Pages"), "Kids": pdf.Array{page1}},
	}
	d := flatDoc(g, pagesRef, pdf.Dict{"Pages": pagesRef})

	data, err := d.ContentBytes(0)
	if err != nil {
		t.Fatal(err)
	}
	want := "1 0 0 RG\n0 0 m 1 1 l S"
	if string(data) != want {
		t.Errorf("ContentBytes(0) = %q, want %q", data, want)
	}
}

func TestRenderPagesPropagatesError(t *testing.T) {
	d := &Document{}
	wantErr := fmt.Errorf("boom")

	err := d.RenderPages(context.Background(), 5, 2, func(ctx context.Context, d *Document, index int) error {
		if index == 3 {
			return wantErr
		}
		return nil
	})
	if err == nil {
		t.Fatal("RenderPages: expected an error to propagate")
	}
}

func TestRenderPagesRunsAll(t *testing.T) {
	d := &Document{}
	seen := make(chan int, 10)

	err := d.RenderPages(context.Background(), 4, 4, func(ctx context.Context, d *Document, index int) error {
		seen <- index
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	close(seen)
	count := 0
	for range seen {
		count++
	}
	if count != 4 {
		t.Errorf("RenderPages ran %d callbacks, want 4", count)
	}
}
