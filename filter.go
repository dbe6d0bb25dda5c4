// Some code in this file (the PNG predictor framing) follows the approach
// used by seehuhn.de/go/pdf's filter.go, itself adapted from rsc.io/pdf
// (BSD licensed).

package pdf

import (
	"bytes"
	"compress/zlib"
	"io"
)

// Filter decodes one stage of a stream's /Filter chain.
type Filter interface {
	Decode(r io.Reader) (io.Reader, error)
}

// makeFilter looks up the decoder for a named filter, folding in its
// /DecodeParms dictionary. An unrecognized filter still returns a Filter
// value (passThroughFilter) so that a single unsupported stage doesn't
// prevent inspecting the rest of the document; Decode on it passes the
// bytes through unchanged and reports no error.
func makeFilter(name Name, parms Dict) Filter {
	switch name {
	case "FlateDecode", "Fl":
		return newPredictorFilter(parms, flateRawDecode)
	case "LZWDecode", "LZW":
		return newPredictorFilter(parms, lzwRawDecode(parms))
	case "ASCII85Decode", "A85":
		return ascii85Filter{}
	case "ASCIIHexDecode", "AHx":
		return asciiHexFilter{}
	case "RunLengthDecode", "RL":
		return runLengthFilter{}
	case "CCITTFaxDecode", "CCF":
		return ccittFaxFilter{parms: parms}
	case "DCTDecode", "DCT":
		return dctFilter{}
	case "JBIG2Decode":
		return passThroughFilter{feature: "JBIG2Decode"}
	case "JPXDecode":
		return passThroughFilter{feature: "JPXDecode"}
	case "Crypt":
		return identityFilter{}
	default:
		return passThroughFilter{feature: string(name)}
	}
}

// predictorFilter runs a raw decode function and then reverses the
// PNG/TIFF predictor described by parms, matching the pattern used for
// both FlateDecode and LZWDecode streams.
type predictorFilter struct {
	parms  Dict
	rawFn  func(r io.Reader) ([]byte, error)
}

func newPredictorFilter(parms Dict, rawFn func(io.Reader) ([]byte, error)) Filter {
	return &predictorFilter{parms: parms, rawFn: rawFn}
}

func (f *predictorFilter) Decode(r io.Reader) (io.Reader, error) {
	raw, err := f.rawFn(r)
	if err != nil {
		return nil, err
	}
	decoded, err := applyPNGPredictor(raw, f.parms)
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(decoded), nil
}

func flateRawDecode(r io.Reader) ([]byte, error) {
	zr, err := zlib.NewReader(r)
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	return io.ReadAll(zr)
}

// identityFilter passes bytes through unchanged; used for the "Crypt"
// pseudo-filter name once decryption has already been applied in
// DecodeStream.
type identityFilter struct{}

func (identityFilter) Decode(r io.Reader) (io.Reader, error) { return r, nil }

// passThroughFilter marks a stream as holding data this library declines
// to decode further (an image codec delegated to the caller, or a truly
// unknown filter name). Reading from it still succeeds: it returns the
// filter's input bytes unchanged, which is the correct behavior for
// DCTDecode/JPXDecode/JBIG2Decode payloads that a caller will hand to an
// external image decoder anyway.
type passThroughFilter struct{ feature string }

func (f passThroughFilter) Decode(r io.Reader) (io.Reader, error) { return r, nil }
