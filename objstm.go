package pdf

import (
	"fmt"
	"io"
)

// objStm holds the decoded, parsed contents of one object stream: a
// compact container for a run of non-stream indirect objects (/Type
// /ObjStm), introduced in PDF 1.5 primarily to let generators compress a
// document's many small dictionaries together.
type objStm struct {
	nums    []uint32
	objects []Object
}

// loadObjStm decodes and parses object stream number streamNum, fetching
// the stream object with r.getByNumber and decoding it with DecodeStream
// (the stream itself may be Flate/LZW-compressed on top of being an
// object container).
func loadObjStm(r *Reader, streamNum uint32) (*objStm, error) {
	obj, err := r.getByNumber(streamNum, false)
	if err != nil {
		return nil, err
	}
	strm, ok := obj.(*Stream)
	if !ok {
		return nil, &MalformedFileError{Err: fmt.Errorf("object %d is not an object stream", streamNum)}
	}
	if t, _ := strm.Dict["Type"].(Name); t != "ObjStm" {
		return nil, &MalformedFileError{Err: fmt.Errorf("object %d is not /Type /ObjStm", streamNum)}
	}

	n, _ := strm.Dict["N"].(Integer)
	first, _ := strm.Dict["First"].(Integer)
	if n <= 0 || first <= 0 {
		return nil, &MalformedFileError{Err: fmt.Errorf("object stream %d missing /N or /First", streamNum)}
	}

	rc, err := DecodeStream(r, strm, -1)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, err
	}

	header := NewLexer(data, 0)
	os := &objStm{}
	offsets := make([]int64, 0, n)
	for i := int64(0); i < int64(n); i++ {
		numTok := header.Next()
		offTok := header.Next()
		if numTok.Kind != TokNumber || offTok.Kind != TokNumber {
			return nil, &MalformedFileError{Err: fmt.Errorf("object stream %d has a malformed header", streamNum)}
		}
		os.nums = append(os.nums, uint32(numTok.Num))
		offsets = append(offsets, int64(offTok.Num))
	}

	body := data[first:]
	os.objects = make([]Object, len(os.nums))
	for i := range os.nums {
		if offsets[i] < 0 || offsets[i] > int64(len(body)) {
			continue
		}
		p := NewParser(body, offsets[i])
		obj, err := p.ParseObject()
		if err != nil {
			continue
		}
		os.objects[i] = obj
	}
	return os, nil
}

// objectByIndex returns the index-th compressed object in the stream, or
// nil if the index is out of range (a malformed /Index row pointing past
// /N, tolerated the same way other out-of-range references are).
func (os *objStm) objectByIndex(index int) (Object, bool) {
	if index < 0 || index >= len(os.objects) {
		return nil, false
	}
	return os.objects[index], true
}
