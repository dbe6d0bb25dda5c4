package pdf

import "io"

// ccittFaxFilter recognizes CCITTFaxDecode streams. Decode itself is a
// passthrough: this package only resolves and demultiplexes PDF streams,
// so the Group 3/4 fax decompression happens downstream (in the content
// package's image pipeline) against the parameters exposed here.
type ccittFaxFilter struct {
	parms Dict
}

func (f ccittFaxFilter) Decode(r io.Reader) (io.Reader, error) {
	return r, nil
}

// Columns returns the /Columns parameter (default 1728) a CCITTFax-decoded
// image is expected to have.
func (f ccittFaxFilter) Columns() int {
	if f.parms != nil {
		if v, ok := f.parms["Columns"].(Integer); ok {
			return int(v)
		}
	}
	return 1728
}

// Rows returns the /Rows parameter, or 0 if absent (the image's /Height
// governs in that case).
func (f ccittFaxFilter) Rows() int {
	if f.parms != nil {
		if v, ok := f.parms["Rows"].(Integer); ok {
			return int(v)
		}
	}
	return 0
}

// K returns the /K parameter (default 0: pure Group 3 1-D).
func (f ccittFaxFilter) K() int {
	if f.parms != nil {
		if v, ok := f.parms["K"].(Integer); ok {
			return int(v)
		}
	}
	return 0
}

// BlackIs1 returns the /BlackIs1 parameter (default false).
func (f ccittFaxFilter) BlackIs1() bool {
	if f.parms != nil {
		if v, ok := f.parms["BlackIs1"].(Boolean); ok {
			return bool(v)
		}
	}
	return false
}

// EncodedByteAlign returns the /EncodedByteAlign parameter (default false).
func (f ccittFaxFilter) EncodedByteAlign() bool {
	if f.parms != nil {
		if v, ok := f.parms["EncodedByteAlign"].(Boolean); ok {
			return bool(v)
		}
	}
	return false
}

// dctFilter recognizes DCTDecode (baseline/progressive JPEG) streams.
// Decoding the samples is left to the painter/image pipeline (via the
// standard library's image/jpeg or a dedicated decoder), since this
// package only resolves and demultiplexes PDF streams.
type dctFilter struct{}

func (dctFilter) Decode(r io.Reader) (io.Reader, error) { return r, nil }
