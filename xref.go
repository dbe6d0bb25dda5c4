package pdf

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"io"
)

// xrefEntryKind distinguishes the three row types a reconstructed
// cross-reference table can hold.
type xrefEntryKind byte

const (
	xrefFree xrefEntryKind = iota
	xrefInFile
	xrefInStream
)

// xrefEntry is one resolved row of the cross-reference table: either "this
// object lives at offset N in the file" or "this object is entry K of
// object stream S".
type xrefEntry struct {
	kind      xrefEntryKind
	gen       uint16
	offset    int64  // valid when kind == xrefInFile
	streamNum uint32 // valid when kind == xrefInStream
	indexInStream int
}

// xrefTable maps object numbers to their resolved location. Later
// cross-reference sections in a /Prev chain are older; an object number
// already present is never overwritten by an older section.
type xrefTable struct {
	entries map[uint32]xrefEntry
}

func newXRefTable() *xrefTable {
	return &xrefTable{entries: make(map[uint32]xrefEntry)}
}

func (t *xrefTable) setIfAbsent(num uint32, e xrefEntry) {
	if _, ok := t.entries[num]; !ok {
		t.entries[num] = e
	}
}

// loadXRef reconstructs the cross-reference table and the merged trailer
// dictionary for buf. It walks the /Prev chain starting from the offset
// found via the trailing "startxref" keyword, and falls back to a linear
// scan of the whole file for "N G obj" headers if no usable xref section
// can be found at all.
func loadXRef(buf []byte) (*xrefTable, Dict, error) {
	table := newXRefTable()
	trailer := Dict{}

	start, err := findStartXRef(buf)
	if err != nil {
		return rebuildXRefByScanning(buf)
	}

	seen := map[int64]bool{}
	pos := start
	first := true
	for pos >= 0 && int64(pos) < int64(len(buf)) {
		if seen[pos] {
			break // /Prev cycle
		}
		seen[pos] = true
		if len(seen) > 1000 {
			break
		}

		sectionTrailer, prev, xrefStm, err := loadOneXRefSection(buf, pos, table)
		if err != nil {
			if first {
				return rebuildXRefByScanning(buf)
			}
			break
		}
		for k, v := range sectionTrailer {
			if _, ok := trailer[k]; !ok {
				trailer[k] = v
			}
		}
		// A classic xref section may point to a hybrid-reference xref
		// stream via /XRefStm; that stream's entries are merged before
		// continuing the /Prev chain (PDF 1.5 hybrid files).
		if xrefStm >= 0 {
			if _, _, _, err := loadOneXRefSection(buf, xrefStm, table); err != nil {
				// ignore: hybrid section is optional supplementary data
			}
		}
		first = false
		if prev < 0 {
			break
		}
		pos = prev
	}

	if trailer["Root"] == nil {
		if t2, d2, err2 := rebuildXRefByScanning(buf); err2 == nil {
			for num, e := range t2.entries {
				table.setIfAbsent(num, e)
			}
			for k, v := range d2 {
				if _, ok := trailer[k]; !ok {
					trailer[k] = v
				}
			}
		}
	}

	if len(table.entries) == 0 {
		return rebuildXRefByScanning(buf)
	}
	return table, trailer, nil
}

// loadOneXRefSection parses the cross-reference section at pos, which is
// either a classic "xref ... trailer <<...>>" section or an indirect
// object whose value is a cross-reference stream. It returns the section's
// trailer dict, the /Prev offset (-1 if absent) and the /XRefStm offset
// (-1 if absent).
func loadOneXRefSection(buf []byte, pos int64, table *xrefTable) (Dict, int64, int64, error) {
	lx := NewLexer(buf, pos)
	tok := lx.Peek()
	if tok.Kind == TokKeyword && string(tok.Str) == "xref" {
		return loadClassicXRefSection(buf, pos, table)
	}
	return loadXRefStreamSection(buf, pos, table)
}

func loadClassicXRefSection(buf []byte, pos int64, table *xrefTable) (Dict, int64, int64, error) {
	lx := NewLexer(buf, pos)
	kw := lx.Next() // "xref"
	if kw.Kind != TokKeyword || string(kw.Str) != "xref" {
		return nil, 0, 0, fmt.Errorf("expected xref keyword")
	}

	for {
		save := lx.Pos()
		startTok := lx.Peek()
		if startTok.Kind == TokKeyword && string(startTok.Str) == "trailer" {
			lx.Next()
			break
		}
		if startTok.Kind != TokNumber {
			lx.Seek(save)
			break
		}
		startTok = lx.Next()
		countTok := lx.Next()
		if countTok.Kind != TokNumber {
			return nil, 0, 0, fmt.Errorf("malformed xref subsection header")
		}
		subsecStart := uint32(startTok.Num)
		count := int64(countTok.Num)
		for i := int64(0); i < count; i++ {
			lx.skipWhiteSpace()
			row, ok := lx.byteAt(lx.pos)
			if !ok {
				break
			}
			_ = row
			rowBuf := buf[lx.pos:min64(lx.pos+20, int64(len(buf)))]
			if len(rowBuf) < 18 {
				break
			}
			var offset int64
			var gen int64
			var typ byte = 'n'
			fmt.Sscanf(string(rowBuf[0:10]), "%d", &offset)
			fmt.Sscanf(string(rowBuf[11:16]), "%d", &gen)
			if rowBuf[17] == 'f' {
				typ = 'f'
			} else if rowBuf[17] == 'n' {
				typ = 'n'
			}
			lx.Seek(lx.pos + 20)
			// Rows are taken as exactly 20 bytes; a table written with
			// 19-byte rows (single EOL byte) is not detected.
			if typ == 'n' {
				table.setIfAbsent(subsecStart+uint32(i), xrefEntry{
					kind: xrefInFile, offset: offset, gen: uint16(gen),
				})
			} else {
				table.setIfAbsent(subsecStart+uint32(i), xrefEntry{kind: xrefFree, gen: uint16(gen)})
			}
		}
	}

	p := NewParser(buf, lx.Pos())
	obj, err := p.ParseObject()
	if err != nil {
		return nil, 0, 0, err
	}
	dict, _ := obj.(Dict)
	prev := int64(-1)
	if n, ok := dict["Prev"].(Integer); ok {
		prev = int64(n)
	}
	xrefStm := int64(-1)
	if n, ok := dict["XRefStm"].(Integer); ok {
		xrefStm = int64(n)
	}
	return dict, prev, xrefStm, nil
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}

// loadXRefStreamSection parses a PDF 1.5+ cross-reference stream: an
// indirect object "N G obj << /Type /XRef /W [...] ... >> stream ...".
func loadXRefStreamSection(buf []byte, pos int64, table *xrefTable) (Dict, int64, int64, error) {
	p := NewParser(buf, pos)
	_, _, obj, _, err := p.ParseIndirectObject(pos)
	if err != nil {
		return nil, 0, 0, err
	}
	strm, ok := obj.(*Stream)
	if !ok {
		return nil, 0, 0, fmt.Errorf("xref section is not a stream")
	}
	dict := strm.Dict

	wArr, _ := dict["W"].(Array)
	if len(wArr) != 3 {
		return nil, 0, 0, fmt.Errorf("xref stream missing /W")
	}
	w := [3]int{}
	for i := 0; i < 3; i++ {
		n, _ := asNumber(wArr[i])
		w[i] = int(n)
	}

	size := 0
	if n, ok := dict["Size"].(Integer); ok {
		size = int(n)
	}
	var index []int64
	if arr, ok := dict["Index"].(Array); ok {
		for _, e := range arr {
			n, _ := asNumber(e)
			index = append(index, int64(n))
		}
	} else {
		index = []int64{0, int64(size)}
	}

	raw, err := io.ReadAll(strm.R)
	if err != nil {
		return nil, 0, 0, err
	}
	data, err := decodeBootstrapStream(dict, raw)
	if err != nil {
		return nil, 0, 0, err
	}

	rowLen := w[0] + w[1] + w[2]
	if rowLen <= 0 {
		return nil, 0, 0, fmt.Errorf("xref stream has zero-width rows")
	}

	readField := func(row []byte, off, width int, def int64) int64 {
		if width == 0 {
			return def
		}
		var v int64
		for i := 0; i < width; i++ {
			v = v<<8 | int64(row[off+i])
		}
		return v
	}

	rowIdx := 0
	for si := 0; si+1 < len(index); si += 2 {
		subStart := index[si]
		subCount := index[si+1]
		for i := int64(0); i < subCount; i++ {
			if (rowIdx+1)*rowLen > len(data) {
				break
			}
			row := data[rowIdx*rowLen : (rowIdx+1)*rowLen]
			rowIdx++
			num := uint32(subStart + i)

			typ := readField(row, 0, w[0], 1)
			f2 := readField(row, w[0], w[1], 0)
			f3 := readField(row, w[0]+w[1], w[2], 0)

			switch typ {
			case 0:
				table.setIfAbsent(num, xrefEntry{kind: xrefFree})
			case 1:
				table.setIfAbsent(num, xrefEntry{kind: xrefInFile, offset: f2, gen: uint16(f3)})
			case 2:
				table.setIfAbsent(num, xrefEntry{kind: xrefInStream, streamNum: uint32(f2), indexInStream: int(f3)})
			}
		}
	}

	prev := int64(-1)
	if n, ok := dict["Prev"].(Integer); ok {
		prev = int64(n)
	}
	return dict, prev, -1, nil
}

// decodeBootstrapStream decodes the payload of a cross-reference stream
// using only FlateDecode + the PNG predictor. Object streams and ordinary
// content streams go through the full filter chain in filter.go
// (DecodeStream); this narrower path serves the xref stream, which must be
// read before any object can be looked up.
func decodeBootstrapStream(dict Dict, raw []byte) ([]byte, error) {
	filter := dict["Filter"]
	var filters []Name
	switch f := filter.(type) {
	case Name:
		filters = []Name{f}
	case Array:
		for _, e := range f {
			if n, ok := e.(Name); ok {
				filters = append(filters, n)
			}
		}
	}

	data := raw
	for _, f := range filters {
		switch f {
		case "FlateDecode", "Fl":
			zr, err := zlib.NewReader(bytes.NewReader(data))
			if err != nil {
				return nil, err
			}
			out, err := io.ReadAll(zr)
			zr.Close()
			if err != nil {
				return nil, err
			}
			data = out
		default:
			return nil, fmt.Errorf("unsupported bootstrap filter %q", f)
		}
	}

	parms, _ := dict["DecodeParms"].(Dict)
	data, err := applyPNGPredictor(data, parms)
	if err != nil {
		return nil, err
	}
	return data, nil
}

// applyPNGPredictor reverses the PNG predictor transform described by
// parms (Predictor/Columns/Colors/BitsPerComponent). A Predictor of 1 or
// an absent dict is a no-op.
func applyPNGPredictor(data []byte, parms Dict) ([]byte, error) {
	predictor := 1
	if n, ok := parms["Predictor"].(Integer); ok {
		predictor = int(n)
	}
	if predictor <= 1 {
		return data, nil
	}
	columns := 1
	if n, ok := parms["Columns"].(Integer); ok {
		columns = int(n)
	}
	colors := 1
	if n, ok := parms["Colors"].(Integer); ok {
		colors = int(n)
	}
	bpc := 8
	if n, ok := parms["BitsPerComponent"].(Integer); ok {
		bpc = int(n)
	}
	bytesPerPixel := max1((colors*bpc + 7) / 8)
	rowBytes := (columns*colors*bpc + 7) / 8

	if predictor == 2 {
		return applyTIFFPredictor(data, rowBytes, bytesPerPixel), nil
	}

	var out []byte
	prev := make([]byte, rowBytes)
	for i := 0; i+1+rowBytes <= len(data); i += 1 + rowBytes {
		tag := data[i]
		row := make([]byte, rowBytes)
		copy(row, data[i+1:i+1+rowBytes])
		for j := 0; j < rowBytes; j++ {
			var a, b, c byte
			if j >= bytesPerPixel {
				a = row[j-bytesPerPixel]
				c = prev[j-bytesPerPixel]
			}
			b = prev[j]
			switch tag {
			case 0: // None
			case 1: // Sub
				row[j] += a
			case 2: // Up
				row[j] += b
			case 3: // Average
				row[j] += byte((int(a) + int(b)) / 2)
			case 4: // Paeth
				row[j] += paethPredictor(a, b, c)
			}
		}
		out = append(out, row...)
		prev = row
	}
	return out, nil
}

func applyTIFFPredictor(data []byte, rowBytes, bpp int) []byte {
	out := make([]byte, len(data))
	copy(out, data)
	for r := 0; r+rowBytes <= len(out); r += rowBytes {
		row := out[r : r+rowBytes]
		for j := bpp; j < rowBytes; j++ {
			row[j] += row[j-bpp]
		}
	}
	return out
}

func paethPredictor(a, b, c byte) byte {
	p := int(a) + int(b) - int(c)
	pa := abs(p - int(a))
	pb := abs(p - int(b))
	pc := abs(p - int(c))
	if pa <= pb && pa <= pc {
		return a
	}
	if pb <= pc {
		return b
	}
	return c
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func max1(x int) int {
	if x < 1 {
		return 1
	}
	return x
}

// findStartXRef performs the backward scan for the last "startxref"
// keyword, growing the search window geometrically so that well-formed
// files are found after a single short read.
func findStartXRef(buf []byte) (int64, error) {
	size := int64(len(buf))
	for sz := int64(32); ; sz *= 2 {
		if sz > size {
			sz = size
		}
		window := buf[size-sz:]
		idx := bytes.LastIndex(window, []byte("startxref"))
		if idx >= 0 {
			lx := NewLexer(buf, size-sz+int64(idx))
			lx.Next() // "startxref"
			tok := lx.Next()
			if tok.Kind == TokNumber {
				return int64(tok.Num), nil
			}
			return 0, fmt.Errorf("malformed startxref")
		}
		if sz == size {
			return 0, fmt.Errorf("no startxref found")
		}
	}
}

// rebuildXRefByScanning recovers from a missing or unreadable
// cross-reference section by scanning the whole file for "N G obj"
// headers, and for a trailer dictionary (or, failing that, a /Type
// /Catalog object used to synthesize one). This is the fallback mandated
// whenever the xref chain cannot be trusted.
func rebuildXRefByScanning(buf []byte) (*xrefTable, Dict, error) {
	table := newXRefTable()
	trailer := Dict{}

	objHeader := []byte(" obj")
	for i := 0; i < len(buf); i++ {
		idx := bytes.Index(buf[i:], objHeader)
		if idx < 0 {
			break
		}
		headerPos := i + idx
		// Walk backward from " obj" to recover "N G" before it.
		j := headerPos
		for j > 0 && isSpaceByte[buf[j-1]] {
			j--
		}
		genEnd := j
		for j > 0 && buf[j-1] >= '0' && buf[j-1] <= '9' {
			j--
		}
		genStart := j
		for j > 0 && isSpaceByte[buf[j-1]] {
			j--
		}
		numEnd := j
		for j > 0 && buf[j-1] >= '0' && buf[j-1] <= '9' {
			j--
		}
		numStart := j

		i = headerPos + len(objHeader) - 1
		if numStart == numEnd || genStart == genEnd {
			continue
		}

		var num, gen int64
		fmt.Sscanf(string(buf[numStart:numEnd]), "%d", &num)
		fmt.Sscanf(string(buf[genStart:genEnd]), "%d", &gen)
		// Later occurrences of the same object number win, matching how
		// incremental updates append newer copies toward the end of file.
		table.entries[uint32(num)] = xrefEntry{kind: xrefInFile, offset: int64(numStart), gen: uint16(gen)}
	}

	idx := bytes.LastIndex(buf, []byte("trailer"))
	if idx >= 0 {
		p := NewParser(buf, int64(idx+len("trailer")))
		if obj, err := p.ParseObject(); err == nil {
			if d, ok := obj.(Dict); ok {
				trailer = d
			}
		}
	}

	if trailer["Root"] == nil {
		for num := range table.entries {
			obj, err := parseObjectAt(buf, table, num)
			if err != nil {
				continue
			}
			d, ok := objDict(obj)
			if !ok {
				continue
			}
			if t, ok := d["Type"].(Name); ok && t == "Catalog" {
				trailer["Root"] = NewReference(num, 0)
				break
			}
		}
	}

	if len(table.entries) == 0 {
		return nil, nil, &MalformedFileError{Err: fmt.Errorf("no indirect objects found")}
	}
	return table, trailer, nil
}

func objDict(obj Object) (Dict, bool) {
	switch x := obj.(type) {
	case Dict:
		return x, true
	case *Stream:
		return x.Dict, true
	default:
		return nil, false
	}
}

// parseObjectAt parses the object at the given xref-resolved location,
// used only during whole-file-scan recovery before a Getter exists.
func parseObjectAt(buf []byte, table *xrefTable, num uint32) (Object, error) {
	e, ok := table.entries[num]
	if !ok || e.kind != xrefInFile {
		return nil, fmt.Errorf("object %d not in file", num)
	}
	p := NewParser(buf, e.offset)
	_, _, obj, _, err := p.ParseIndirectObject(e.offset)
	return obj, err
}
