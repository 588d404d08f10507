// Package schema implements structural rules: their parsing from a context
// graph, forward application to property graph elements, and the shared
// machinery reversion relies on (characterization, signatures, accessors).
//
// # Context graph vocabulary
//
// A rule is declared as
//
//	ex:PersonRule a prec:NodeRule ;
//	    prec:label "Person" ;
//	    prec:propertyName "name" ;
//	    prec:composedOf << pvar:self rdf:type ex:Person >> ,
//	                    << pvar:self ex:name "name"^^prec:valueOf >> .
//
// prec:composedOf may also point to an IRI or blank node naming a graph whose
// quads are template triples, or to a resource that is itself composed of
// templates. Placeholders are pvar:self (alias pvar:node or pvar:edge),
// pvar:source, pvar:destination, and literals of datatype prec:valueOf whose
// lexical form is a property name.
//
// # Defects and errors
//
// Parsing and checking report Violation values in batches. Conversions fail
// with a *ConversionError on the first problem.
package schema
