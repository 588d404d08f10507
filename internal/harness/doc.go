// Package harness runs conversion scenarios.
//
// A scenario names a schema context and a property graph, converts the graph
// to RDF and back, and checks the outcome. Each scenario gets its own
// in-memory trace database and a counter blank node factory, so output is
// reproducible and can be compared with golden files.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: people
//	description: "Persons and who they know survive a round trip"
//	context: ../contexts/people.nq
//	graphFile: ../graphs/people.yaml
//	prefixes:
//	  ex: http://example.org/
//	expect:
//	  wellBehaved: true
//	  roundtrip: true
//	assertions:
//	  - type: quad_count
//	    count: 5
//	  - type: match
//	    pattern: |
//	      _:a <ex:knows> _:b .
//	      _:b <ex:name> "Bob" .
//	  - type: rule_count
//	    rule: <ex:PersonRule>
//	    count: 2
//	  - type: violation
//	    code: W204
//
// Instead of graphFile, a graph may be written inline under graph.
// Expected failures are given as error codes with applyError or
// revertError.
//
// # Golden Files
//
// Snapshot renders the checker verdict, the rule assignments and the sorted
// dataset. RunWithGolden compares it against testdata/golden/<name>.golden.
package harness
