package store

import (
	"encoding/hex"
	"sort"
	"strings"

	"lukechampine.com/blake3"

	"github.com/roach88/pgstar/internal/rdf"
)

// Domain separation prefixes. Changing one changes every stored ID.
const (
	DomainDataset = "pgstar/dataset/v1"
	DomainRun     = "pgstar/run/v2"
)

// Fingerprint hashes a set of quads independently of their order. Quads are
// hashed by their N-Quads statement, so blank node labels take part.
func Fingerprint(quads []rdf.Quad) string {
	lines := make([]string, len(quads))
	for i, q := range quads {
		lines[i] = q.Statement()
	}
	sort.Strings(lines)
	return hashWithDomain(DomainDataset, []byte(strings.Join(lines, "\n")))
}

// RunID computes the content-addressed ID of a conversion run. The output
// takes part so that runs minting different blank nodes for the same input
// are kept apart.
func RunID(direction Direction, schemaHash, inputHash, outputHash string) string {
	data := string(direction) + "\x00" + schemaHash + "\x00" + inputHash + "\x00" + outputHash
	return hashWithDomain(DomainRun, []byte(data))
}

// hashWithDomain computes blake3(domain + 0x00 + data) as lowercase hex.
func hashWithDomain(domain string, data []byte) string {
	h := blake3.New(32, nil)
	h.Write([]byte(domain))
	h.Write([]byte{0})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}
