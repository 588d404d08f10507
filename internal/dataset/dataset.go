package dataset

import (
	"github.com/roach88/pgstar/internal/rdf"
)

// compactThreshold is the minimum number of tombstones before the indexed
// partition is rebuilt.
const compactThreshold = 64

type entry struct {
	quad rdf.Quad
	live bool
}

// Dataset is a set of quads with insertion-ordered iteration.
//
// Quads without quoted triples live in an indexed partition with one index per
// position. Quads with a quoted triple in any position live in a linear
// partition that is scanned on every query.
//
// A Dataset is not safe for concurrent mutation.
type Dataset struct {
	entries []entry
	pos     map[rdf.Quad]int
	index   [4]map[rdf.Term][]int
	dead    int

	star    []rdf.Quad
	starSet map[rdf.Quad]struct{}
}

// New creates a dataset holding quads, in order, without duplicates.
func New(quads ...rdf.Quad) *Dataset {
	d := &Dataset{
		pos:     make(map[rdf.Quad]int),
		starSet: make(map[rdf.Quad]struct{}),
	}
	for i := range d.index {
		d.index[i] = make(map[rdf.Term][]int)
	}
	d.AddAll(quads)
	return d
}

// Len returns the number of quads.
func (d *Dataset) Len() int {
	return len(d.pos) + len(d.star)
}

// Add inserts q. It reports false when q was already present.
func (d *Dataset) Add(q rdf.Quad) bool {
	if q.Graph == nil {
		q.Graph = rdf.DefaultGraph{}
	}
	if q.HasQuotedTriple() {
		if _, ok := d.starSet[q]; ok {
			return false
		}
		d.starSet[q] = struct{}{}
		d.star = append(d.star, q)
		return true
	}

	if _, ok := d.pos[q]; ok {
		return false
	}
	i := len(d.entries)
	d.entries = append(d.entries, entry{quad: q, live: true})
	d.pos[q] = i
	for _, p := range rdf.Positions {
		t := q.At(p)
		d.index[p][t] = append(d.index[p][t], i)
	}
	return true
}

// AddAll inserts every quad and returns how many were new.
func (d *Dataset) AddAll(quads []rdf.Quad) int {
	n := 0
	for _, q := range quads {
		if d.Add(q) {
			n++
		}
	}
	return n
}

// Delete removes q. It reports false when q was absent.
func (d *Dataset) Delete(q rdf.Quad) bool {
	if q.Graph == nil {
		q.Graph = rdf.DefaultGraph{}
	}
	if q.HasQuotedTriple() {
		if _, ok := d.starSet[q]; !ok {
			return false
		}
		delete(d.starSet, q)
		for i, s := range d.star {
			if s == q {
				d.star = append(d.star[:i], d.star[i+1:]...)
				break
			}
		}
		return true
	}

	i, ok := d.pos[q]
	if !ok {
		return false
	}
	delete(d.pos, q)
	d.entries[i].live = false
	d.dead++
	if d.dead >= compactThreshold && d.dead*2 > len(d.entries) {
		d.compact()
	}
	return true
}

// Has reports whether q is in the dataset.
func (d *Dataset) Has(q rdf.Quad) bool {
	if q.Graph == nil {
		q.Graph = rdf.DefaultGraph{}
	}
	if q.HasQuotedTriple() {
		_, ok := d.starSet[q]
		return ok
	}
	_, ok := d.pos[q]
	return ok
}

// Quads returns all quads: indexed quads in insertion order, then quads with
// quoted triples in insertion order.
func (d *Dataset) Quads() []rdf.Quad {
	out := make([]rdf.Quad, 0, d.Len())
	for _, e := range d.entries {
		if e.live {
			out = append(out, e.quad)
		}
	}
	return append(out, d.star...)
}

// Clone returns an independent copy with the same iteration order.
func (d *Dataset) Clone() *Dataset {
	return New(d.Quads()...)
}

// compact drops tombstones and rebuilds the position indexes.
func (d *Dataset) compact() {
	live := make([]entry, 0, len(d.pos))
	for _, e := range d.entries {
		if e.live {
			live = append(live, e)
		}
	}
	d.entries = live
	d.dead = 0
	for i := range d.index {
		d.index[i] = make(map[rdf.Term][]int)
	}
	for i, e := range d.entries {
		d.pos[e.quad] = i
		for _, p := range rdf.Positions {
			t := e.quad.At(p)
			d.index[p][t] = append(d.index[p][t], i)
		}
	}
}

// lookup returns the live indexed quads matching shape, where a nil entry is
// a wildcard. The smallest index list among bound positions drives the scan.
func (d *Dataset) lookup(shape [4]rdf.Term) []rdf.Quad {
	var candidates []int
	bound := false
	for _, p := range rdf.Positions {
		if shape[p] == nil {
			continue
		}
		list := d.index[p][shape[p]]
		if !bound || len(list) < len(candidates) {
			candidates = list
			bound = true
		}
		if len(candidates) == 0 {
			return nil
		}
	}

	var out []rdf.Quad
	if !bound {
		for _, e := range d.entries {
			if e.live {
				out = append(out, e.quad)
			}
		}
		return out
	}
	for _, i := range candidates {
		e := d.entries[i]
		if e.live && fitsShape(e.quad, shape) {
			out = append(out, e.quad)
		}
	}
	return out
}

func fitsShape(q rdf.Quad, shape [4]rdf.Term) bool {
	for _, p := range rdf.Positions {
		if shape[p] != nil && q.At(p) != shape[p] {
			return false
		}
	}
	return true
}
