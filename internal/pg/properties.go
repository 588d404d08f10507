package pg

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"

	"github.com/roach88/pgstar/internal/rdf"
)

// Properties maps property keys to literal values.
//
// In JSON and YAML, strings, integers, floats and booleans are written as
// native scalars; any other literal is an object with "@value" and either
// "@type" or "@language".
type Properties map[string]rdf.Literal

// Names returns the sorted keys.
func (p Properties) Names() []string {
	names := make([]string, 0, len(p))
	for k := range p {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Canonical renders the properties as a stable string, for comparisons.
func (p Properties) Canonical() string {
	var b strings.Builder
	b.WriteByte('{')
	for i, k := range p.Names() {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Quote(k))
		b.WriteByte('=')
		b.WriteString(p[k].String())
	}
	b.WriteByte('}')
	return b.String()
}

func (p Properties) normalized() Properties {
	if p == nil {
		return nil
	}
	out := make(Properties, len(p))
	for k, v := range p {
		out[norm.NFC.String(k)] = v
	}
	return out
}

type typedValue struct {
	Value    string `json:"@value" yaml:"@value"`
	Type     string `json:"@type,omitempty" yaml:"@type,omitempty"`
	Language string `json:"@language,omitempty" yaml:"@language,omitempty"`
}

func (v typedValue) literal() rdf.Literal {
	if v.Language != "" {
		return rdf.NewLangLiteral(norm.NFC.String(v.Value), v.Language)
	}
	return rdf.NewLiteral(v.Value, rdf.NamedNode(v.Type))
}

func scalarOf(l rdf.Literal) (any, bool) {
	if l.Lang != "" {
		return nil, false
	}
	switch l.DatatypeIRI() {
	case rdf.XSDString:
		return l.Lexical, true
	case rdf.XSDInteger:
		if n, err := strconv.ParseInt(l.Lexical, 10, 64); err == nil && strconv.FormatInt(n, 10) == l.Lexical {
			return n, true
		}
	case rdf.XSDDouble:
		if f, err := strconv.ParseFloat(l.Lexical, 64); err == nil && !math.IsInf(f, 0) && f != math.Trunc(f) && formatDouble(f) == l.Lexical {
			return f, true
		}
	case rdf.XSDBoolean:
		switch l.Lexical {
		case "true":
			return true, true
		case "false":
			return false, true
		}
	}
	return nil, false
}

func formatDouble(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

func (p Properties) plain() map[string]any {
	out := make(map[string]any, len(p))
	for k, v := range p {
		if s, ok := scalarOf(v); ok {
			out[k] = s
			continue
		}
		tv := typedValue{Value: v.Lexical, Language: v.Lang}
		if v.Lang == "" {
			tv.Type = string(v.DatatypeIRI())
		}
		out[k] = tv
	}
	return out
}

// MarshalJSON writes native JSON scalars where the datatype allows it.
func (p Properties) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.plain())
}

// UnmarshalJSON reads native JSON scalars and typed value objects.
func (p *Properties) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(Properties, len(raw))
	for k, v := range raw {
		lit, err := jsonLiteral(v)
		if err != nil {
			return fmt.Errorf("property %q: %w", k, err)
		}
		out[norm.NFC.String(k)] = lit
	}
	*p = out
	return nil
}

func jsonLiteral(data json.RawMessage) (rdf.Literal, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return rdf.Literal{}, err
	}
	switch v := v.(type) {
	case string:
		return rdf.NewLiteral(norm.NFC.String(v), rdf.XSDString), nil
	case bool:
		return rdf.NewLiteral(strconv.FormatBool(v), rdf.XSDBoolean), nil
	case json.Number:
		return numberLiteral(v.String())
	case map[string]any:
		var tv typedValue
		if err := json.Unmarshal(data, &tv); err != nil {
			return rdf.Literal{}, err
		}
		return tv.literal(), nil
	case nil:
		return rdf.Literal{}, fmt.Errorf("null values are not supported")
	default:
		return rdf.Literal{}, fmt.Errorf("unsupported value %s", data)
	}
}

// numberLiteral maps a JSON number to xsd:integer when it has no fraction or
// exponent, whatever its size, and to xsd:double otherwise.
func numberLiteral(s string) (rdf.Literal, error) {
	if !strings.ContainsAny(s, ".eE") {
		return integerLiteral(s, 10)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return rdf.Literal{}, err
	}
	return rdf.NewLiteral(formatDouble(f), rdf.XSDDouble), nil
}

// integerLiteral parses an integer of any size in base (0 accepts the 0x, 0o
// and 0b prefixes) and writes it in canonical decimal form.
func integerLiteral(s string, base int) (rdf.Literal, error) {
	n, ok := new(big.Int).SetString(s, base)
	if !ok {
		return rdf.Literal{}, fmt.Errorf("invalid integer %q", s)
	}
	return rdf.NewLiteral(n.String(), rdf.XSDInteger), nil
}

func isDecimalInteger(s string) bool {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "-"), "+")
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// MarshalYAML writes native YAML scalars where the datatype allows it.
func (p Properties) MarshalYAML() (any, error) {
	return p.plain(), nil
}

// UnmarshalYAML reads tagged YAML scalars and typed value mappings.
func (p *Properties) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: properties must be a mapping", node.Line)
	}
	out := make(Properties, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i].Value, node.Content[i+1]
		lit, err := yamlLiteral(value)
		if err != nil {
			return fmt.Errorf("line %d: property %q: %w", value.Line, key, err)
		}
		out[norm.NFC.String(key)] = lit
	}
	*p = out
	return nil
}

func yamlLiteral(node *yaml.Node) (rdf.Literal, error) {
	switch node.Kind {
	case yaml.ScalarNode:
		switch node.ShortTag() {
		case "!!str":
			return rdf.NewLiteral(norm.NFC.String(node.Value), rdf.XSDString), nil
		case "!!int":
			return integerLiteral(node.Value, 0)
		case "!!float":
			// integers too large for int64 are resolved as floats
			if isDecimalInteger(node.Value) {
				return integerLiteral(node.Value, 10)
			}
			var f float64
			if err := node.Decode(&f); err != nil {
				return rdf.Literal{}, err
			}
			return rdf.NewLiteral(formatDouble(f), rdf.XSDDouble), nil
		case "!!bool":
			var b bool
			if err := node.Decode(&b); err != nil {
				return rdf.Literal{}, err
			}
			return rdf.NewLiteral(strconv.FormatBool(b), rdf.XSDBoolean), nil
		case "!!null":
			return rdf.Literal{}, fmt.Errorf("null values are not supported")
		default:
			return rdf.Literal{}, fmt.Errorf("unsupported tag %s", node.ShortTag())
		}
	case yaml.MappingNode:
		var tv typedValue
		if err := node.Decode(&tv); err != nil {
			return rdf.Literal{}, err
		}
		return tv.literal(), nil
	default:
		return rdf.Literal{}, fmt.Errorf("unsupported value")
	}
}
