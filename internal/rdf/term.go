package rdf

import (
	"fmt"
	"strings"
)

// TermKind identifies the variant of a Term.
type TermKind uint8

const (
	KindNamedNode TermKind = iota
	KindBlankNode
	KindLiteral
	KindVariable
	KindDefaultGraph
	KindQuad
)

func (k TermKind) String() string {
	switch k {
	case KindNamedNode:
		return "NamedNode"
	case KindBlankNode:
		return "BlankNode"
	case KindLiteral:
		return "Literal"
	case KindVariable:
		return "Variable"
	case KindDefaultGraph:
		return "DefaultGraph"
	case KindQuad:
		return "Quad"
	default:
		return fmt.Sprintf("TermKind(%d)", uint8(k))
	}
}

// Term is a sealed interface over the RDF-star term variants.
// Only NamedNode, BlankNode, Literal, Variable, DefaultGraph and Quad
// implement it.
//
// Every variant is a comparable value, so == is structural equality
// (recursive for quoted quads) and any Term can be used as a map key.
type Term interface {
	Kind() TermKind
	String() string
	term() // sealed
}

// NamedNode is an IRI.
type NamedNode string

func (NamedNode) term()            {}
func (NamedNode) Kind() TermKind   { return KindNamedNode }
func (n NamedNode) String() string { return "<" + escapeIRI(string(n)) + ">" }

// BlankNode is a blank node identified by its label (without the "_:" prefix).
type BlankNode string

func (BlankNode) term()            {}
func (BlankNode) Kind() TermKind   { return KindBlankNode }
func (b BlankNode) String() string { return "_:" + string(b) }

// Variable is a pattern variable. It never appears in data.
type Variable string

func (Variable) term()            {}
func (Variable) Kind() TermKind   { return KindVariable }
func (v Variable) String() string { return "?" + string(v) }

// DefaultGraph is the unnamed graph of a dataset.
type DefaultGraph struct{}

func (DefaultGraph) term()          {}
func (DefaultGraph) Kind() TermKind { return KindDefaultGraph }
func (DefaultGraph) String() string { return "" }

// Literal is an RDF literal.
//
// An empty Datatype stands for xsd:string. Use NewLiteral or NewLangLiteral
// so that equal literals compare equal with ==.
type Literal struct {
	Lexical  string
	Datatype NamedNode
	Lang     string
}

func (Literal) term()          {}
func (Literal) Kind() TermKind { return KindLiteral }

// NewLiteral builds a typed literal. xsd:string is stored as the empty datatype.
func NewLiteral(lexical string, datatype NamedNode) Literal {
	if datatype == XSDString {
		datatype = ""
	}
	return Literal{Lexical: lexical, Datatype: datatype}
}

// NewLangLiteral builds a language-tagged string.
func NewLangLiteral(lexical, lang string) Literal {
	return Literal{Lexical: lexical, Lang: strings.ToLower(lang)}
}

// DatatypeIRI returns the effective datatype, resolving the implicit ones.
func (l Literal) DatatypeIRI() NamedNode {
	switch {
	case l.Lang != "":
		return RDFLangString
	case l.Datatype == "":
		return XSDString
	default:
		return l.Datatype
	}
}

func (l Literal) String() string {
	s := `"` + escapeLiteral(l.Lexical) + `"`
	switch {
	case l.Lang != "":
		return s + "@" + l.Lang
	case l.Datatype != "" && l.Datatype != XSDString:
		return s + "^^" + l.Datatype.String()
	default:
		return s
	}
}

// IsGround reports whether t contains no variables.
func IsGround(t Term) bool {
	switch t := t.(type) {
	case Variable:
		return false
	case Quad:
		return IsGround(t.Subject) && IsGround(t.Predicate) && IsGround(t.Object) && IsGround(t.Graph)
	default:
		return true
	}
}

func escapeLiteral(s string) string {
	if !strings.ContainsAny(s, "\\\"\n\r\t") {
		return s
	}
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func escapeIRI(s string) string {
	if !strings.ContainsAny(s, "<>\"{}|^`\\ ") {
		return s
	}
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '<', '>', '"', '{', '}', '|', '^', '`', '\\', ' ':
			fmt.Fprintf(&b, `\u%04X`, r)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
