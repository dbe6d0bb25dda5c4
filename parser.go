package pdf

import (
	"bytes"
	"fmt"
)

// maxCollectionLen bounds the number of entries read into a single array or
// dictionary, guaranteeing termination on malformed input.
const maxCollectionLen = 1_000_000

// Parser builds composite objects (dictionaries, arrays, streams, indirect
// references) from the tokens produced by a Lexer. It additionally knows
// how to resolve "/Length" against a Getter when reading a stream's raw
// payload, which is why it carries an optional resolver.
type Parser struct {
	lx   *Lexer
	buf  []byte
	size int64

	// resolve looks up "/Length" when it is an indirect reference. May be
	// nil, in which case an indirect /Length falls back to scanning for
	// "endstream".
	resolve func(Reference) (Object, error)
}

// NewParser creates a parser reading from buf starting at pos.
func NewParser(buf []byte, pos int64) *Parser {
	return &Parser{lx: NewLexer(buf, pos), buf: buf, size: int64(len(buf))}
}

// SetResolver installs the callback used to resolve an indirect /Length.
func (p *Parser) SetResolver(fn func(Reference) (Object, error)) {
	p.resolve = fn
}

// Pos returns the parser's current byte offset.
func (p *Parser) Pos() int64 { return p.lx.Pos() }

// Seek repositions the parser.
func (p *Parser) Seek(pos int64) { p.lx.Seek(pos) }

// ParseObject parses one PDF object (a number, name, string, array,
// dictionary, stream, indirect reference, boolean, or null) starting at the
// parser's current position.
func (p *Parser) ParseObject() (Object, error) {
	tok := p.lx.Next()
	return p.parseFromToken(tok)
}

func (p *Parser) parseFromToken(tok Token) (Object, error) {
	switch tok.Kind {
	case TokEOF:
		return nil, &MalformedFileError{Err: fmt.Errorf("unexpected end of file"), Pos: tok.Pos}
	case TokName:
		return Name(tok.Str), nil
	case TokLiteralString:
		return String(tok.Str), nil
	case TokHexString:
		return String(tok.Str), nil
	case TokNumber:
		return p.parseNumberOrReference(tok)
	case TokDelimiter:
		switch string(tok.Str) {
		case "<<":
			return p.parseDictOrStream()
		case "[":
			return p.parseArray()
		default:
			// Stray ">>" "]" "}" etc: treat as null and let the caller's
			// loop terminate the enclosing collection.
			return nil, nil
		}
	case TokKeyword:
		switch string(tok.Str) {
		case "true":
			return Boolean(true), nil
		case "false":
			return Boolean(false), nil
		case "null", "":
			return nil, nil
		default:
			return Operator(tok.Str), nil
		}
	}
	return nil, nil
}

// parseNumberOrReference implements the "int int R" lookahead: it collapses
// to an indirect reference, otherwise the number stands alone.
func (p *Parser) parseNumberOrReference(tok Token) (Object, error) {
	if tok.IsReal {
		return Real(tok.Num), nil
	}

	save := p.lx.Peek()
	if save.Kind != TokNumber || save.IsReal || save.Num < 0 {
		return Integer(int64(tok.Num)), nil
	}
	// We need two tokens of lookahead here (the generation number and the
	// "R" keyword); the lexer only promises one, so we snapshot position
	// and restore it if the pattern doesn't match.
	genTok := p.lx.Next()
	rTok := p.lx.Next()
	if rTok.Kind == TokKeyword && string(rTok.Str) == "R" {
		return NewReference(uint32(tok.Num), uint16(genTok.Num)), nil
	}
	p.lx.Seek(save.Pos)
	p.lx.hasPeek = false
	_ = genTok
	return Integer(int64(tok.Num)), nil
}

func (p *Parser) parseArray() (Object, error) {
	var arr Array
	for {
		tok := p.lx.Peek()
		if tok.Kind == TokDelimiter && string(tok.Str) == "]" {
			p.lx.Next()
			return arr, nil
		}
		if tok.Kind == TokEOF {
			return arr, nil
		}
		if len(arr) >= maxCollectionLen {
			return arr, nil
		}
		p.lx.Next()
		obj, err := p.parseFromToken(tok)
		if err != nil {
			return arr, nil
		}
		arr = append(arr, obj)
	}
}

func (p *Parser) parseDictOrStream() (Object, error) {
	dict := Dict{}
	for {
		tok := p.lx.Peek()
		if tok.Kind == TokDelimiter && string(tok.Str) == ">>" {
			p.lx.Next()
			break
		}
		if tok.Kind == TokEOF {
			return dict, nil
		}
		if len(dict) >= maxCollectionLen {
			return dict, nil
		}
		keyTok := p.lx.Next()
		if keyTok.Kind != TokName {
			// malformed: skip this token and try to resynchronize
			continue
		}
		val, err := p.ParseObject()
		if err != nil {
			return dict, nil
		}
		if val != nil {
			dict[Name(keyTok.Str)] = val
		}
	}

	// Look for a following "stream" keyword.
	savedPos := p.lx.Pos()
	ws := p.lx.Peek()
	if ws.Kind == TokKeyword && string(ws.Str) == "stream" {
		p.lx.Next()
		start := p.skipStreamEOL(p.lx.Pos())
		data, end := p.readStreamBody(dict, start)
		p.lx.Seek(end)
		return &Stream{Dict: dict, R: bytes.NewReader(data)}, nil
	}
	p.lx.Seek(savedPos)
	p.lx.hasPeek = false
	return dict, nil
}

// skipStreamEOL consumes the single EOL required by spec immediately after
// the "stream" keyword (CR LF, or a lone LF; a lone CR is non-conforming
// but tolerated).
func (p *Parser) skipStreamEOL(pos int64) int64 {
	if pos < p.size && p.buf[pos] == '\r' {
		pos++
	}
	if pos < p.size && p.buf[pos] == '\n' {
		pos++
	}
	return pos
}

// readStreamBody returns the raw stream payload and the offset just past
// the matching "endstream" keyword.
func (p *Parser) readStreamBody(dict Dict, start int64) ([]byte, int64) {
	if n, ok := p.lengthFromDict(dict); ok && n >= 0 && start+n <= p.size {
		end := start + n
		// Accept the declared length only if "endstream" follows shortly
		// after (allowing for trailing whitespace); otherwise fall back to
		// scanning, which is more robust against a wrong /Length.
		probe := end
		for probe < p.size && isSpaceByte[p.buf[probe]] {
			probe++
		}
		if bytes.HasPrefix(p.buf[probe:], []byte("endstream")) {
			return p.buf[start:end], probe + len("endstream")
		}
	}

	idx := bytes.Index(p.buf[start:], []byte("endstream"))
	if idx < 0 {
		return p.buf[start:], p.size
	}
	end := start + int64(idx)
	data := p.buf[start:end]
	// trim a single trailing EOL that belongs to the stream keyword, not
	// the payload
	if n := len(data); n > 0 && data[n-1] == '\n' {
		data = data[:n-1]
		if n := len(data); n > 0 && data[n-1] == '\r' {
			data = data[:n-1]
		}
	}
	return data, end + int64(len("endstream"))
}

func (p *Parser) lengthFromDict(dict Dict) (int64, bool) {
	obj := dict["Length"]
	switch x := obj.(type) {
	case Integer:
		return int64(x), true
	case Reference:
		if p.resolve == nil {
			return 0, false
		}
		resolved, err := p.resolve(x)
		if err != nil {
			return 0, false
		}
		if n, ok := resolved.(Integer); ok {
			return int64(n), true
		}
		return 0, false
	default:
		return 0, false
	}
}

// ParseIndirectObject parses "N G obj ... endobj" starting at pos and
// returns the object number, generation, and the contained object. It
// tolerates a missing "endobj" (the object simply ends at EOF or at the
// next recognizable object header during a whole-file scan).
func (p *Parser) ParseIndirectObject(pos int64) (num uint32, gen uint16, obj Object, next int64, err error) {
	p.lx.Seek(pos)
	numTok := p.lx.Next()
	genTok := p.lx.Next()
	kwTok := p.lx.Next()
	if numTok.Kind != TokNumber || genTok.Kind != TokNumber ||
		kwTok.Kind != TokKeyword || string(kwTok.Str) != "obj" {
		return 0, 0, nil, pos, &MalformedFileError{Err: fmt.Errorf("expected \"N G obj\""), Pos: pos}
	}
	obj, err = p.ParseObject()
	if err != nil {
		return 0, 0, nil, pos, err
	}
	// Skip to just after "endobj" if present; otherwise leave the cursor
	// where the object parse stopped.
	save := p.lx.Pos()
	endTok := p.lx.Peek()
	if endTok.Kind == TokKeyword && string(endTok.Str) == "endobj" {
		p.lx.Next()
	} else {
		p.lx.Seek(save)
	}
	return uint32(numTok.Num), uint16(genTok.Num), obj, p.lx.Pos(), nil
}
