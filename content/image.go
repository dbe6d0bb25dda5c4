package content

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"io"

	pdf "github.com/pdfray/pdfray"
	"golang.org/x/image/ccitt"
)

// ccittParams is satisfied by the object package's CCITTFaxDecode filter,
// which resolves /DecodeParms but leaves the fax decompression itself to
// the caller.
type ccittParams interface {
	Columns() int
	Rows() int
	K() int
	BlackIs1() bool
	EncodedByteAlign() bool
}

// decodeImage turns an Image XObject stream into a packed RGBA buffer (or
// a stencil-mask alpha plane). JBIG2/JPX payloads stay out of scope (the
// filter chain passes them through unchanged) and degrade to an error
// here rather than a crash; CCITTFax is decoded via golang.org/x/image/ccitt.
func decodeImage(r pdf.Getter, strm *pdf.Stream, resources resourceStack) (*decodedImage, error) {
	width, _ := pdf.GetInt(r, strm.Dict["Width"])
	height, _ := pdf.GetInt(r, strm.Dict["Height"])
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("image: missing /Width or /Height")
	}

	isMask, _ := pdf.GetBool(r, strm.Dict["ImageMask"])

	filters, err := pdf.GetFilters(r, strm.Dict)
	if err != nil {
		return nil, err
	}
	var fax ccittParams
	for _, f := range filters {
		if cp, ok := f.(ccittParams); ok {
			fax = cp
		}
	}

	rc, err := pdf.DecodeStream(r, strm, -1)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, err
	}

	if fax != nil {
		rows := fax.Rows()
		if rows == 0 {
			rows = int(height)
		}
		subformat := ccitt.Group3
		if fax.K() < 0 {
			subformat = ccitt.Group4
		}
		opts := &ccitt.Options{Invert: fax.BlackIs1(), Align: fax.EncodedByteAlign()}
		cr := ccitt.NewReader(bytes.NewReader(data), ccitt.MSB, subformat, fax.Columns(), rows, opts)
		unpacked, err := io.ReadAll(cr)
		if err != nil {
			return nil, fmt.Errorf("image: CCITTFax decode: %w", err)
		}
		data = unpacked
		if bool(isMask) {
			return decodeStencilMask(data, int(width), int(height), strm.Dict, r)
		}
		return packBilevel(data, int(width), int(height), r, strm.Dict, resources)
	}

	if name, _ := lastFilterName(r, strm.Dict); name == "DCTDecode" {
		img, err := jpeg.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		return packImage(img), nil
	}
	if name, _ := lastFilterName(r, strm.Dict); name == "JPXDecode" || name == "JBIG2Decode" {
		return nil, fmt.Errorf("image: %s pixel decode not supported", name)
	}

	if bool(isMask) {
		return decodeStencilMask(data, int(width), int(height), strm.Dict, r)
	}

	bpc, _ := pdf.GetInt(r, strm.Dict["BitsPerComponent"])
	if bpc == 0 {
		bpc = 8
	}
	cs := resolveColorSpace(r, strm.Dict["ColorSpace"], resources)

	out := make([]byte, int(width)*int(height)*4)
	rowBits := int(width) * cs.n * int(bpc)
	rowBytes := (rowBits + 7) / 8

	maxVal := float64((uint64(1) << uint(bpc)) - 1)

	for y := 0; y < int(height); y++ {
		rowStart := y * rowBytes
		if rowStart+rowBytes > len(data) {
			break
		}
		row := data[rowStart : rowStart+rowBytes]
		for x := 0; x < int(width); x++ {
			comp := make([]float64, cs.n)
			for c := 0; c < cs.n; c++ {
				bitOff := (x*cs.n + c) * int(bpc)
				v := readBitsImg(row, bitOff, int(bpc))
				if cs.kind == csIndexed {
					comp[c] = float64(v)
				} else {
					comp[c] = float64(v) / maxVal
				}
			}
			rgb := cs.toRGB(comp)
			idx := (y*int(width) + x) * 4
			out[idx] = byte(clamp01(rgb.R) * 255)
			out[idx+1] = byte(clamp01(rgb.G) * 255)
			out[idx+2] = byte(clamp01(rgb.B) * 255)
			out[idx+3] = 255
		}
	}

	return &decodedImage{Width: int(width), Height: int(height), RGBA: out}, nil
}

func readBitsImg(data []byte, bitOffset, nbits int) uint64 {
	var v uint64
	for i := 0; i < nbits; i++ {
		byteIdx := (bitOffset + i) / 8
		bitIdx := 7 - (bitOffset+i)%8
		if byteIdx >= len(data) {
			break
		}
		bit := (data[byteIdx] >> uint(bitIdx)) & 1
		v = v<<1 | uint64(bit)
	}
	return v
}

// packBilevel expands a 1-bit-per-pixel, row-packed buffer (the shape
// golang.org/x/image/ccitt produces) through the image's color space, for
// CCITTFax images that are not image masks.
func packBilevel(data []byte, width, height int, r pdf.Getter, dict pdf.Dict, resources resourceStack) (*decodedImage, error) {
	cs := resolveColorSpace(r, dict["ColorSpace"], resources)
	rowBytes := (width + 7) / 8
	out := make([]byte, width*height*4)
	for y := 0; y < height; y++ {
		rowStart := y * rowBytes
		if rowStart+rowBytes > len(data) {
			break
		}
		row := data[rowStart : rowStart+rowBytes]
		for x := 0; x < width; x++ {
			bit := (row[x/8] >> uint(7-x%8)) & 1
			rgb := cs.toRGB([]float64{float64(bit)})
			idx := (y*width + x) * 4
			out[idx] = byte(clamp01(rgb.R) * 255)
			out[idx+1] = byte(clamp01(rgb.G) * 255)
			out[idx+2] = byte(clamp01(rgb.B) * 255)
			out[idx+3] = 255
		}
	}
	return &decodedImage{Width: width, Height: height, RGBA: out}, nil
}

func decodeStencilMask(data []byte, width, height int, dict pdf.Dict, r pdf.Getter) (*decodedImage, error) {
	decode, _ := pdf.GetFloatArray(r, dict["Decode"])
	invert := len(decode) == 2 && decode[0] == 1
	rowBytes := (width + 7) / 8
	stencil := make([]byte, width*height)
	for y := 0; y < height; y++ {
		rowStart := y * rowBytes
		if rowStart+rowBytes > len(data) {
			break
		}
		row := data[rowStart : rowStart+rowBytes]
		for x := 0; x < width; x++ {
			bit := (row[x/8] >> uint(7-x%8)) & 1
			on := bit == 0
			if invert {
				on = !on
			}
			if on {
				stencil[y*width+x] = 255
			}
		}
	}
	return &decodedImage{Width: width, Height: height, Stencil: stencil, IsMask: true}, nil
}

func packImage(img image.Image) *decodedImage {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	out := make([]byte, w*h*4)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, bb, a := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
			idx := (y*w + x) * 4
			out[idx] = byte(r >> 8)
			out[idx+1] = byte(g >> 8)
			out[idx+2] = byte(bb >> 8)
			out[idx+3] = byte(a >> 8)
		}
	}
	return &decodedImage{Width: w, Height: h, RGBA: out}
}

func lastFilterName(r pdf.Getter, dict pdf.Dict) (pdf.Name, bool) {
	filterObj, err := pdf.Resolve(r, dict["Filter"])
	if err != nil {
		return "", false
	}
	switch f := filterObj.(type) {
	case pdf.Name:
		return f, true
	case pdf.Array:
		if len(f) == 0 {
			return "", false
		}
		if n, ok := f[len(f)-1].(pdf.Name); ok {
			return n, true
		}
	}
	return "", false
}
