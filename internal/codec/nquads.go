package codec

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/roach88/pgstar/internal/rdf"
)

// ParseError reports a malformed N-Quads-star line.
type ParseError struct {
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("nquads: line %d: %s", e.Line, e.Message)
}

// NQuadsDecoder reads N-Quads-star statements one line at a time. Quoted
// triples are written << s p o >> and may nest.
type NQuadsDecoder struct {
	scanner *bufio.Scanner
	line    int
}

// NewNQuadsDecoder returns a decoder reading from r.
func NewNQuadsDecoder(r io.Reader) *NQuadsDecoder {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 64*1024), 16*1024*1024)
	return &NQuadsDecoder{scanner: s}
}

// Next returns the next quad, or io.EOF after the last one.
func (d *NQuadsDecoder) Next() (rdf.Quad, error) {
	for d.scanner.Scan() {
		d.line++
		line := strings.TrimSpace(d.scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		q, err := parseStatement(line)
		if err != nil {
			return rdf.Quad{}, &ParseError{Line: d.line, Message: err.Error()}
		}
		return q, nil
	}
	if err := d.scanner.Err(); err != nil {
		return rdf.Quad{}, err
	}
	return rdf.Quad{}, io.EOF
}

// ReadNQuads reads every quad of r in order.
func ReadNQuads(r io.Reader) ([]rdf.Quad, error) {
	d := NewNQuadsDecoder(r)
	var out []rdf.Quad
	for {
		q, err := d.Next()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
}

// ParseNQuads parses N-Quads-star text.
func ParseNQuads(text string) ([]rdf.Quad, error) {
	return ReadNQuads(strings.NewReader(text))
}

func parseStatement(line string) (rdf.Quad, error) {
	c := &cursor{input: line}
	s, err := c.term(false)
	if err != nil {
		return rdf.Quad{}, err
	}
	p, err := c.iri()
	if err != nil {
		return rdf.Quad{}, err
	}
	o, err := c.term(true)
	if err != nil {
		return rdf.Quad{}, err
	}
	var g rdf.Term = rdf.DefaultGraph{}
	c.skipWS()
	if c.pos < len(c.input) && c.input[c.pos] != '.' {
		if g, err = c.term(false); err != nil {
			return rdf.Quad{}, err
		}
		if _, ok := g.(rdf.Quad); ok {
			return rdf.Quad{}, fmt.Errorf("graph name cannot be a quoted triple")
		}
	}
	if !c.consume('.') {
		return rdf.Quad{}, fmt.Errorf("expected '.' at column %d", c.pos+1)
	}
	c.skipWS()
	if c.pos < len(c.input) && c.input[c.pos] != '#' {
		return rdf.Quad{}, fmt.Errorf("unexpected text after '.' at column %d", c.pos+1)
	}
	return rdf.NewQuad(s, p, o, g), nil
}

type cursor struct {
	input string
	pos   int
}

func (c *cursor) skipWS() {
	for c.pos < len(c.input) {
		switch c.input[c.pos] {
		case ' ', '\t', '\r', '\n':
			c.pos++
		default:
			return
		}
	}
}

func (c *cursor) consume(ch byte) bool {
	c.skipWS()
	if c.pos < len(c.input) && c.input[c.pos] == ch {
		c.pos++
		return true
	}
	return false
}

func (c *cursor) rest() string {
	return c.input[c.pos:]
}

func (c *cursor) term(allowLiteral bool) (rdf.Term, error) {
	c.skipWS()
	if c.pos >= len(c.input) {
		return nil, fmt.Errorf("unexpected end of line")
	}
	switch {
	case strings.HasPrefix(c.rest(), "<<"):
		return c.quoted()
	case c.input[c.pos] == '<':
		return c.iri()
	case strings.HasPrefix(c.rest(), "_:"):
		return c.blank()
	case c.input[c.pos] == '"':
		if !allowLiteral {
			return nil, fmt.Errorf("literal not allowed at column %d", c.pos+1)
		}
		return c.literal()
	default:
		return nil, fmt.Errorf("unexpected %q at column %d", c.input[c.pos], c.pos+1)
	}
}

func (c *cursor) iri() (rdf.NamedNode, error) {
	if !c.consume('<') {
		return "", fmt.Errorf("expected IRI at column %d", c.pos+1)
	}
	var b strings.Builder
	for c.pos < len(c.input) {
		ch := c.input[c.pos]
		switch ch {
		case '>':
			c.pos++
			return rdf.NamedNode(b.String()), nil
		case '\\':
			r, err := c.escape(false)
			if err != nil {
				return "", err
			}
			b.WriteRune(r)
		default:
			b.WriteByte(ch)
			c.pos++
		}
	}
	return "", fmt.Errorf("unterminated IRI")
}

func (c *cursor) blank() (rdf.BlankNode, error) {
	c.pos += 2
	start := c.pos
	for c.pos < len(c.input) && !isDelimiter(c.input[c.pos]) {
		c.pos++
	}
	if start == c.pos {
		return "", fmt.Errorf("blank node label missing at column %d", start+1)
	}
	return rdf.BlankNode(c.input[start:c.pos]), nil
}

func (c *cursor) literal() (rdf.Literal, error) {
	c.pos++ // opening quote
	var b strings.Builder
	closed := false
	for c.pos < len(c.input) && !closed {
		ch := c.input[c.pos]
		switch ch {
		case '"':
			c.pos++
			closed = true
		case '\\':
			r, err := c.escape(true)
			if err != nil {
				return rdf.Literal{}, err
			}
			b.WriteRune(r)
		default:
			b.WriteByte(ch)
			c.pos++
		}
	}
	if !closed {
		return rdf.Literal{}, fmt.Errorf("unterminated literal")
	}
	lexical := b.String()

	switch {
	case strings.HasPrefix(c.rest(), "@"):
		c.pos++
		start := c.pos
		for c.pos < len(c.input) && !isDelimiter(c.input[c.pos]) {
			c.pos++
		}
		if start == c.pos {
			return rdf.Literal{}, fmt.Errorf("language tag missing at column %d", start+1)
		}
		return rdf.NewLangLiteral(lexical, c.input[start:c.pos]), nil
	case strings.HasPrefix(c.rest(), "^^"):
		c.pos += 2
		dt, err := c.iri()
		if err != nil {
			return rdf.Literal{}, err
		}
		return rdf.NewLiteral(lexical, dt), nil
	default:
		return rdf.NewLiteral(lexical, ""), nil
	}
}

// escape decodes the escape sequence at the cursor. Literals accept the
// character escapes; IRIs only \u and \U.
func (c *cursor) escape(inLiteral bool) (rune, error) {
	if c.pos+1 >= len(c.input) {
		return 0, fmt.Errorf("unterminated escape")
	}
	next := c.input[c.pos+1]
	switch next {
	case 'u', 'U':
		n := 4
		if next == 'U' {
			n = 8
		}
		if c.pos+2+n > len(c.input) {
			return 0, fmt.Errorf("short \\%c escape", next)
		}
		v, err := strconv.ParseUint(c.input[c.pos+2:c.pos+2+n], 16, 32)
		if err != nil || !utf8.ValidRune(rune(v)) {
			return 0, fmt.Errorf("invalid \\%c escape", next)
		}
		c.pos += 2 + n
		return rune(v), nil
	}
	if !inLiteral {
		return 0, fmt.Errorf("invalid escape in IRI at column %d", c.pos+1)
	}
	c.pos += 2
	switch next {
	case 't':
		return '\t', nil
	case 'b':
		return '\b', nil
	case 'n':
		return '\n', nil
	case 'r':
		return '\r', nil
	case 'f':
		return '\f', nil
	case '"', '\'', '\\':
		return rune(next), nil
	default:
		return 0, fmt.Errorf("invalid escape \\%c", next)
	}
}

func (c *cursor) quoted() (rdf.Quad, error) {
	c.pos += 2
	s, err := c.term(false)
	if err != nil {
		return rdf.Quad{}, err
	}
	p, err := c.iri()
	if err != nil {
		return rdf.Quad{}, err
	}
	o, err := c.term(true)
	if err != nil {
		return rdf.Quad{}, err
	}
	c.skipWS()
	if !strings.HasPrefix(c.rest(), ">>") {
		return rdf.Quad{}, fmt.Errorf("expected '>>' at column %d", c.pos+1)
	}
	c.pos += 2
	return rdf.NewTriple(s, p, o), nil
}

func isDelimiter(ch byte) bool {
	switch ch {
	case ' ', '\t', '\r', '\n', '.', '>', '<', '"':
		return true
	default:
		return false
	}
}

// NQuadsEncoder writes one statement per line.
type NQuadsEncoder struct {
	w *bufio.Writer
}

// NewNQuadsEncoder returns an encoder writing to w. Call Flush when done.
func NewNQuadsEncoder(w io.Writer) *NQuadsEncoder {
	return &NQuadsEncoder{w: bufio.NewWriter(w)}
}

// Encode writes q. Variables cannot be serialized.
func (e *NQuadsEncoder) Encode(q rdf.Quad) error {
	if !q.IsGround() {
		return fmt.Errorf("nquads: cannot write pattern %s", q.Statement())
	}
	if _, err := e.w.WriteString(q.Statement()); err != nil {
		return err
	}
	return e.w.WriteByte('\n')
}

// Flush writes buffered output.
func (e *NQuadsEncoder) Flush() error {
	return e.w.Flush()
}

// WriteNQuads writes quads in order.
func WriteNQuads(w io.Writer, quads []rdf.Quad) error {
	enc := NewNQuadsEncoder(w)
	for _, q := range quads {
		if err := enc.Encode(q); err != nil {
			return err
		}
	}
	return enc.Flush()
}
