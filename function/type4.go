package function

import (
	"bufio"
	"fmt"
	"math"
	"strconv"
	"strings"

	pdf "github.com/pdfray/pdfray"
)

// Type4 is a PostScript calculator function: a restricted subset of the
// PostScript language (arithmetic, comparison, stack and conditional
// operators, wrapped in a single top-level `{ ... }` procedure).
type Type4 struct {
	Domain  []float64
	Range   []float64
	Program string

	prog []psToken
}

type psTokenKind int

const (
	psNumber psTokenKind = iota
	psOp
	psBlockStart
	psBlockEnd
)

type psToken struct {
	kind psTokenKind
	num  float64
	op   string
	// block holds the parsed body when kind==psBlockStart, terminated by
	// the matching psBlockEnd at the same nesting depth.
	block []psToken
}

func readType4(r pdf.Getter, obj pdf.Object, dict pdf.Dict, domain, rang []float64) (*Type4, error) {
	strm, ok := obj.(*pdf.Stream)
	if !ok {
		return nil, &pdf.MalformedFileError{Err: fmt.Errorf("function: Type4 must be a stream")}
	}
	rc, err := pdf.DecodeStream(r, strm, -1)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	var sb strings.Builder
	sc := bufio.NewScanner(rc)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		sb.WriteString(sc.Text())
		sb.WriteByte('\n')
	}

	t := &Type4{Domain: domain, Range: rang, Program: sb.String()}
	prog, err := parsePostScript(t.Program)
	if err != nil {
		return nil, err
	}
	t.prog = prog
	return t, nil
}

func parsePostScript(src string) ([]psToken, error) {
	fields := tokenizePS(src)
	toks, rest, err := parsePSBlock(fields)
	if err != nil {
		return nil, err
	}
	if len(rest) != 0 {
		// a lone top-level block is the normal case; anything left over
		// after it is additional top-level statements, folded in as-is.
		more, rest2, err := parsePSBlock(rest)
		if err == nil && len(rest2) == 0 {
			toks = append(toks, more...)
		}
	}
	// unwrap a single top-level block, which is how these programs are
	// conventionally written: "{ ... }"
	if len(toks) == 1 && toks[0].kind == psBlockStart {
		return toks[0].block, nil
	}
	return toks, nil
}

func tokenizePS(src string) []string {
	src = strings.ReplaceAll(src, "{", " { ")
	src = strings.ReplaceAll(src, "}", " } ")
	return strings.Fields(src)
}

func parsePSBlock(fields []string) ([]psToken, []string, error) {
	var out []psToken
	for len(fields) > 0 {
		f := fields[0]
		fields = fields[1:]
		switch f {
		case "{":
			body, rest, err := parsePSBlock(fields)
			if err != nil {
				return nil, nil, err
			}
			out = append(out, psToken{kind: psBlockStart, block: body})
			fields = rest
		case "}":
			return out, fields, nil
		default:
			if n, err := strconv.ParseFloat(f, 64); err == nil {
				out = append(out, psToken{kind: psNumber, num: n})
			} else {
				out = append(out, psToken{kind: psOp, op: f})
			}
		}
	}
	return out, fields, nil
}

func (t *Type4) Eval(inputs []float64) ([]float64, error) {
	prog := t.prog
	if prog == nil && t.Program != "" {
		p, err := parsePostScript(t.Program)
		if err != nil {
			return nil, err
		}
		prog = p
	}
	x := clipToDomain(t.Domain, inputs)
	stack := append([]float64(nil), x...)
	var err error
	stack, err = runPS(prog, stack, 0)
	if err != nil {
		return nil, err
	}
	m := len(t.Range) / 2
	if m == 0 || m > len(stack) {
		m = len(stack)
	}
	out := stack[len(stack)-m:]
	return clipToRange(t.Range, out), nil
}

func pop(s []float64) ([]float64, float64) {
	if len(s) == 0 {
		return s, 0
	}
	return s[:len(s)-1], s[len(s)-1]
}

func runPS(prog []psToken, stack []float64, depth int) ([]float64, error) {
	if depth > 100 {
		return nil, fmt.Errorf("function: Type4 program nesting too deep")
	}
	var a, b float64
	for i := 0; i < len(prog); i++ {
		tok := prog[i]
		switch tok.kind {
		case psNumber:
			stack = append(stack, tok.num)
		case psBlockStart:
			// blocks are only meaningful as operands to if/ifelse,
			// consumed from the lookahead below.
		case psOp:
			switch tok.op {
			case "add":
				stack, a = pop(stack)
				stack, b = pop(stack)
				stack = append(stack, b+a)
			case "sub":
				stack, a = pop(stack)
				stack, b = pop(stack)
				stack = append(stack, b-a)
			case "mul":
				stack, a = pop(stack)
				stack, b = pop(stack)
				stack = append(stack, b*a)
			case "div":
				stack, a = pop(stack)
				stack, b = pop(stack)
				if a == 0 {
					stack = append(stack, 0)
				} else {
					stack = append(stack, b/a)
				}
			case "idiv":
				stack, a = pop(stack)
				stack, b = pop(stack)
				if int(a) == 0 {
					stack = append(stack, 0)
				} else {
					stack = append(stack, float64(int(b)/int(a)))
				}
			case "mod":
				stack, a = pop(stack)
				stack, b = pop(stack)
				if int(a) == 0 {
					stack = append(stack, 0)
				} else {
					stack = append(stack, float64(int(b)%int(a)))
				}
			case "neg":
				stack, a = pop(stack)
				stack = append(stack, -a)
			case "abs":
				stack, a = pop(stack)
				stack = append(stack, math.Abs(a))
			case "sqrt":
				stack, a = pop(stack)
				stack = append(stack, math.Sqrt(a))
			case "sin":
				stack, a = pop(stack)
				stack = append(stack, math.Sin(a*math.Pi/180))
			case "cos":
				stack, a = pop(stack)
				stack = append(stack, math.Cos(a*math.Pi/180))
			case "atan":
				stack, a = pop(stack)
				stack, b = pop(stack)
				deg := math.Atan2(b, a) * 180 / math.Pi
				if deg < 0 {
					deg += 360
				}
				stack = append(stack, deg)
			case "exp":
				stack, a = pop(stack)
				stack, b = pop(stack)
				stack = append(stack, math.Pow(b, a))
			case "ln":
				stack, a = pop(stack)
				stack = append(stack, math.Log(a))
			case "log":
				stack, a = pop(stack)
				stack = append(stack, math.Log10(a))
			case "ceiling":
				stack, a = pop(stack)
				stack = append(stack, math.Ceil(a))
			case "floor":
				stack, a = pop(stack)
				stack = append(stack, math.Floor(a))
			case "round":
				stack, a = pop(stack)
				stack = append(stack, math.Round(a))
			case "truncate":
				stack, a = pop(stack)
				stack = append(stack, math.Trunc(a))
			case "cvi":
				stack, a = pop(stack)
				stack = append(stack, float64(int(a)))
			case "cvr":
				// no-op: stack already holds float64
			case "dup":
				stack, a = pop(stack)
				stack = append(stack, a, a)
			case "pop":
				stack, _ = pop(stack)
			case "exch":
				stack, a = pop(stack)
				stack, b = pop(stack)
				stack = append(stack, a, b)
			case "copy":
				stack, a = pop(stack)
				n := int(a)
				if n > 0 && n <= len(stack) {
					stack = append(stack, stack[len(stack)-n:]...)
				}
			case "index":
				stack, a = pop(stack)
				n := int(a)
				if n >= 0 && n < len(stack) {
					stack = append(stack, stack[len(stack)-1-n])
				} else {
					stack = append(stack, 0)
				}
			case "roll":
				var nf, jf float64
				stack, jf = pop(stack)
				stack, nf = pop(stack)
				n, j := int(nf), int(jf)
				if n > 0 && n <= len(stack) {
					seg := stack[len(stack)-n:]
					j = ((j % n) + n) % n
					rolled := append(append([]float64(nil), seg[n-j:]...), seg[:n-j]...)
					copy(seg, rolled)
				}
			case "eq":
				stack, a = pop(stack)
				stack, b = pop(stack)
				stack = append(stack, boolf(a == b))
			case "ne":
				stack, a = pop(stack)
				stack, b = pop(stack)
				stack = append(stack, boolf(a != b))
			case "gt":
				stack, a = pop(stack)
				stack, b = pop(stack)
				stack = append(stack, boolf(b > a))
			case "ge":
				stack, a = pop(stack)
				stack, b = pop(stack)
				stack = append(stack, boolf(b >= a))
			case "lt":
				stack, a = pop(stack)
				stack, b = pop(stack)
				stack = append(stack, boolf(b < a))
			case "le":
				stack, a = pop(stack)
				stack, b = pop(stack)
				stack = append(stack, boolf(b <= a))
			case "and":
				stack, a = pop(stack)
				stack, b = pop(stack)
				stack = append(stack, float64(int64(a)&int64(b)))
			case "or":
				stack, a = pop(stack)
				stack, b = pop(stack)
				stack = append(stack, float64(int64(a)|int64(b)))
			case "xor":
				stack, a = pop(stack)
				stack, b = pop(stack)
				stack = append(stack, float64(int64(a)^int64(b)))
			case "not":
				stack, a = pop(stack)
				if a == 0 || a == 1 {
					stack = append(stack, boolf(a == 0))
				} else {
					stack = append(stack, float64(^int64(a)))
				}
			case "bitshift":
				stack, a = pop(stack)
				stack, b = pop(stack)
				shift := int(a)
				if shift >= 0 {
					stack = append(stack, float64(int64(b)<<uint(shift)))
				} else {
					stack = append(stack, float64(int64(b)>>uint(-shift)))
				}
			case "true":
				stack = append(stack, 1)
			case "false":
				stack = append(stack, 0)
			case "if":
				// preceded by one block token
				if i == 0 || prog[i-1].kind != psBlockStart {
					return nil, fmt.Errorf("function: Type4 'if' without preceding block")
				}
				var cond float64
				stack, cond = pop(stack)
				if cond != 0 {
					var err error
					stack, err = runPS(prog[i-1].block, stack, depth+1)
					if err != nil {
						return nil, err
					}
				}
			case "ifelse":
				if i < 2 || prog[i-1].kind != psBlockStart || prog[i-2].kind != psBlockStart {
					return nil, fmt.Errorf("function: Type4 'ifelse' without two preceding blocks")
				}
				var cond float64
				stack, cond = pop(stack)
				var err error
				if cond != 0 {
					stack, err = runPS(prog[i-2].block, stack, depth+1)
				} else {
					stack, err = runPS(prog[i-1].block, stack, depth+1)
				}
				if err != nil {
					return nil, err
				}
			default:
				return nil, fmt.Errorf("function: unknown Type4 operator %q", tok.op)
			}
		}
	}
	return stack, nil
}

func boolf(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
