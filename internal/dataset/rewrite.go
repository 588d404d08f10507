package dataset

import (
	"github.com/roach88/pgstar/internal/rdf"
)

// FindFilterReplace rewrites the dataset.
//
// Every binding of source is found and filtered before anything changes. A
// binding survives only if each condition group, specialised with the
// binding, has at least one solution. For each surviving binding, in order,
// the quads it consumed are
// deleted and destination instantiated with its variables is inserted.
// Variables of destination absent from the binding are inserted unchanged.
//
// It returns the applied bindings.
func (d *Dataset) FindFilterReplace(source []rdf.Quad, conditions [][]rdf.Quad, destination []rdf.Quad) []Binding {
	var applied []Binding
	for _, b := range d.MatchAndBind(source) {
		if d.satisfies(b, conditions) {
			applied = append(applied, b)
		}
	}
	for _, b := range applied {
		for _, q := range b.Quads {
			d.Delete(q)
		}
		for _, q := range destination {
			d.Add(Substitute(q, b.Vars))
		}
	}
	return applied
}

func (d *Dataset) satisfies(b Binding, conditions [][]rdf.Quad) bool {
	for _, group := range conditions {
		specialised := make([]rdf.Quad, len(group))
		for i, q := range group {
			specialised[i] = Substitute(q, b.Vars)
		}
		if len(d.MatchAndBind(specialised)) == 0 {
			return false
		}
	}
	return true
}
