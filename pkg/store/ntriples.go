package store

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ParseError reports a malformed N-Triples line.
type ParseError struct {
	Line   int
	Column int
	Msg    string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("ntriples: line %d, column %d: %s", e.Line, e.Column, e.Msg)
}

// ReadNTriples parses an N-Triples document.
func ReadNTriples(r io.Reader) ([]Triple, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	var triples []Triple
	lineNumber := 0
	for scanner.Scan() {
		lineNumber++
		triple, ok, err := ParseNTriplesLine(scanner.Text())
		if err != nil {
			if parseErr, isParse := err.(*ParseError); isParse {
				parseErr.Line = lineNumber
			}
			return nil, err
		}
		if ok {
			triples = append(triples, triple)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading n-triples: %w", err)
	}
	return triples, nil
}

// ParseNTriplesLine parses one line. Blank lines and comments yield ok=false.
func ParseNTriplesLine(line string) (Triple, bool, error) {
	p := &lineParser{input: line}
	p.skipSpace()
	if p.done() || p.peek() == '#' {
		return Triple{}, false, nil
	}

	subject, err := p.parseTerm()
	if err != nil {
		return Triple{}, false, err
	}
	if !subject.IsResource() {
		return Triple{}, false, p.errorf("subject must be an IRI or blank node")
	}

	p.skipSpace()
	predicate, err := p.parseTerm()
	if err != nil {
		return Triple{}, false, err
	}
	if !predicate.IsIRI() {
		return Triple{}, false, p.errorf("predicate must be an IRI")
	}

	p.skipSpace()
	object, err := p.parseTerm()
	if err != nil {
		return Triple{}, false, err
	}

	p.skipSpace()
	if p.done() || p.peek() != '.' {
		return Triple{}, false, p.errorf("expected '.'")
	}
	p.pos++
	p.skipSpace()
	if !p.done() && p.peek() != '#' {
		return Triple{}, false, p.errorf("unexpected trailing content")
	}

	return NewTriple(subject.Value, predicate.Value, object), true, nil
}

type lineParser struct {
	input string
	pos   int
}

func (p *lineParser) done() bool { return p.pos >= len(p.input) }

func (p *lineParser) peek() byte { return p.input[p.pos] }

func (p *lineParser) skipSpace() {
	for !p.done() && (p.peek() == ' ' || p.peek() == '\t' || p.peek() == '\r') {
		p.pos++
	}
}

func (p *lineParser) errorf(format string, args ...any) error {
	return &ParseError{Column: p.pos + 1, Msg: fmt.Sprintf(format, args...)}
}

func (p *lineParser) parseTerm() (Term, error) {
	if p.done() {
		return Term{}, p.errorf("unexpected end of line")
	}

	switch p.peek() {
	case '<':
		iri, err := p.parseIRI()
		if err != nil {
			return Term{}, err
		}
		return IRI(iri), nil
	case '_':
		return p.parseBlank()
	case '"':
		return p.parseLiteral()
	default:
		return Term{}, p.errorf("unexpected character %q", p.peek())
	}
}

func (p *lineParser) parseIRI() (string, error) {
	end := strings.IndexByte(p.input[p.pos:], '>')
	if end < 0 {
		return "", p.errorf("unterminated IRI")
	}
	raw := p.input[p.pos+1 : p.pos+end]
	p.pos += end + 1
	if raw == "" {
		return "", p.errorf("empty IRI")
	}
	return unescapeUnicode(raw)
}

func (p *lineParser) parseBlank() (Term, error) {
	if !strings.HasPrefix(p.input[p.pos:], "_:") {
		return Term{}, p.errorf("malformed blank node")
	}
	start := p.pos
	p.pos += 2
	for !p.done() && p.peek() != ' ' && p.peek() != '\t' && p.peek() != '.' {
		p.pos++
	}
	if p.pos == start+2 {
		return Term{}, p.errorf("empty blank node label")
	}
	return Blank(p.input[start:p.pos]), nil
}

func (p *lineParser) parseLiteral() (Term, error) {
	p.pos++ // opening quote

	var builder strings.Builder
	for {
		if p.done() {
			return Term{}, p.errorf("unterminated literal")
		}
		char := p.peek()
		if char == '"' {
			p.pos++
			break
		}
		if char != '\\' {
			builder.WriteByte(char)
			p.pos++
			continue
		}

		p.pos++
		if p.done() {
			return Term{}, p.errorf("dangling escape")
		}
		escape := p.peek()
		p.pos++
		switch escape {
		case 't':
			builder.WriteByte('\t')
		case 'n':
			builder.WriteByte('\n')
		case 'r':
			builder.WriteByte('\r')
		case 'b':
			builder.WriteByte('\b')
		case 'f':
			builder.WriteByte('\f')
		case '"', '\'', '\\':
			builder.WriteByte(escape)
		case 'u', 'U':
			width := 4
			if escape == 'U' {
				width = 8
			}
			if p.pos+width > len(p.input) {
				return Term{}, p.errorf("short unicode escape")
			}
			code, err := strconv.ParseUint(p.input[p.pos:p.pos+width], 16, 32)
			if err != nil {
				return Term{}, p.errorf("bad unicode escape")
			}
			builder.WriteRune(rune(code))
			p.pos += width
		default:
			return Term{}, p.errorf("unknown escape \\%c", escape)
		}
	}

	value := builder.String()
	if p.done() {
		return Literal(value), nil
	}

	switch p.peek() {
	case '@':
		start := p.pos + 1
		p.pos++
		for !p.done() && (isAlphaNum(p.peek()) || p.peek() == '-') {
			p.pos++
		}
		if p.pos == start {
			return Term{}, p.errorf("empty language tag")
		}
		return LangLiteral(value, p.input[start:p.pos]), nil
	case '^':
		if !strings.HasPrefix(p.input[p.pos:], "^^<") {
			return Term{}, p.errorf("malformed datatype")
		}
		p.pos += 2
		datatype, err := p.parseIRI()
		if err != nil {
			return Term{}, err
		}
		return TypedLiteral(value, datatype), nil
	default:
		return Literal(value), nil
	}
}

func isAlphaNum(char byte) bool {
	return (char >= 'a' && char <= 'z') || (char >= 'A' && char <= 'Z') || (char >= '0' && char <= '9')
}

func unescapeUnicode(value string) (string, error) {
	if !strings.Contains(value, `\u`) && !strings.Contains(value, `\U`) {
		return value, nil
	}
	unquoted, err := strconv.Unquote(`"` + value + `"`)
	if err != nil {
		return "", &ParseError{Msg: "bad IRI escape"}
	}
	return unquoted, nil
}

// WriteNTriples writes triples in N-Triples format, one per line, sorted
// by key so output is stable.
func WriteNTriples(w io.Writer, triples []Triple) error {
	sorted := append([]Triple(nil), triples...)
	SortTriples(sorted)

	buffered := bufio.NewWriter(w)
	for _, triple := range sorted {
		if _, err := buffered.WriteString(triple.NTriples() + "\n"); err != nil {
			return fmt.Errorf("writing n-triples: %w", err)
		}
	}
	return buffered.Flush()
}
