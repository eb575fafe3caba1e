// Package partition implements the space partitioner: a VP-tree built
// to a fixed depth k, flattened into an array of bisections so a
// classifier can route events to one of 2^k regions without rebuilding
// the tree. Built on internal/vptree's corner-vantage construction,
// capped by depth instead of subtree size, and made JSON-serialisable
// so a partition built once from a reference sample can be saved and
// reused.
package partition

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/hep-tools/cresample/internal/distance"
	"github.com/hep-tools/cresample/internal/event"
	"github.com/hep-tools/cresample/internal/fourvector"
	"github.com/hep-tools/cresample/internal/rerrors"
)

// formatVersion is bumped whenever the persisted document's shape
// changes incompatibly.
const formatVersion = 1

// storedParticle is the JSON-serialisable form of one outgoing particle.
type storedParticle struct {
	PID int     `json:"pid"`
	E   float64 `json:"e"`
	Px  float64 `json:"px"`
	Py  float64 `json:"py"`
	Pz  float64 `json:"pz"`
}

// VPBisection is one flattened tree node: a vantage event and the split
// radius separating its inside (<=) and outside (>) children.
type VPBisection struct {
	Vantage []storedParticle `json:"vantage"`
	Radius  float64          `json:"radius"`
}

func (b VPBisection) vantageEvent() *event.Event {
	e := event.New(0, []float64{0})
	for _, p := range b.Vantage {
		e.AppendOutgoing(p.PID, fourvector.New(p.E, p.Px, p.Py, p.Pz))
	}
	return e
}

func toStoredParticles(sets []event.ParticleSet) []storedParticle {
	var out []storedParticle
	for _, set := range sets {
		for _, p := range set.Momenta {
			out = append(out, storedParticle{PID: set.PID, E: p.E, Px: p.Px, Py: p.Py, Pz: p.Pz})
		}
	}
	return out
}

// Clustering names the distance used to build a Partition, so a saved
// document is self-describing.
type Clustering struct {
	Tau                 float64 `json:"tau"`
	AssignmentThreshold int     `json:"assignment_threshold"`
}

// Document is the versioned, persisted (Clustering, Partition) pair.
type Document struct {
	Version    int         `json:"version"`
	Depth      int         `json:"depth"`
	Clustering Clustering  `json:"clustering"`
	Nodes      []VPBisection `json:"nodes"`
}

// Partition is a VP-tree flattened to a fixed depth, ready to route
// events to regions.
type Partition struct {
	depth int
	dist  distance.EWSP
	nodes []VPBisection // heap-indexed: node i's children are 2i+1, 2i+2
}

// Build constructs a depth-k partition over events using dist. Depth
// must be >= 0; depth 0 yields a single region (no splits). Returns a
// PartitionError if there are fewer candidate events than the 2^depth
// regions requested.
func Build(events []*event.Event, depth int, dist distance.EWSP) (*Partition, error) {
	if depth < 0 {
		return nil, &rerrors.PartitionError{Reason: fmt.Sprintf("invalid depth %d", depth)}
	}
	numNodes := (1 << depth) - 1
	if numRegions := numNodes + 1; len(events) < numRegions {
		return nil, &rerrors.PartitionError{Reason: fmt.Sprintf(
			"need at least %d events to build %d regions, got %d", numRegions, numRegions, len(events))}
	}

	p := &Partition{depth: depth, dist: dist, nodes: make([]VPBisection, numNodes)}
	if numNodes == 0 {
		return p, nil
	}

	indices := make([]int, len(events))
	for i := range indices {
		indices[i] = i
	}
	reference := indices[len(indices)-1]
	p.buildNode(0, indices, reference, events)
	return p, nil
}

func (p *Partition) buildNode(nodeIdx int, points []int, reference int, events []*event.Event) {
	if nodeIdx >= len(p.nodes) || len(points) == 0 {
		return
	}

	vantage := corner(points, reference, events, p.dist)
	rest := make([]int, 0, len(points)-1)
	for _, pt := range points {
		if pt != vantage {
			rest = append(rest, pt)
		}
	}

	type distEntry struct {
		idx  int
		dist float64
	}
	entries := make([]distEntry, len(rest))
	for i, pt := range rest {
		entries[i] = distEntry{pt, p.dist.Distance(events[vantage], events[pt])}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].dist < entries[j].dist })

	radius := 0.0
	mid := len(entries) / 2
	if len(entries) > 0 {
		radius = entries[mid].dist
	}

	p.nodes[nodeIdx] = VPBisection{
		Vantage: toStoredParticles(events[vantage].Outgoing()),
		Radius:  radius,
	}

	var insidePts []int
	for i, e := range entries {
		if i <= mid {
			insidePts = append(insidePts, e.idx)
		}
	}
	var outsidePts []int
	for i, e := range entries {
		if i > mid {
			outsidePts = append(outsidePts, e.idx)
		}
	}

	left, right := 2*nodeIdx+1, 2*nodeIdx+2
	if left < len(p.nodes) {
		p.buildNode(left, insidePts, vantage, events)
	}
	if right < len(p.nodes) {
		p.buildNode(right, outsidePts, vantage, events)
	}
}

func corner(points []int, reference int, events []*event.Event, dist distance.EWSP) int {
	best := points[0]
	bestDist := -1.0
	for _, pt := range points {
		d := dist.Distance(events[reference], events[pt])
		if d > bestDist {
			bestDist = d
			best = pt
		}
	}
	return best
}

// Region descends the flattened tree for e, returning its region index
// in [0, 2^Depth).
func (p *Partition) Region(e *event.Event) int {
	if p.depth == 0 {
		return 0
	}
	idx := 0
	for depth := 0; depth < p.depth; depth++ {
		node := p.nodes[idx]
		d := p.dist.Distance(node.vantageEvent(), e)
		if d <= node.Radius {
			idx = 2*idx + 1
		} else {
			idx = 2*idx + 2
		}
	}
	firstLeaf := (1 << p.depth) - 1
	return idx - firstLeaf
}

// Depth returns the partition's fixed depth.
func (p *Partition) Depth() int { return p.depth }

// NumRegions returns 2^Depth.
func (p *Partition) NumRegions() int { return 1 << p.depth }

// Save persists the partition as a versioned JSON document.
func (p *Partition) Save(path string) error {
	doc := Document{
		Version: formatVersion,
		Depth:   p.depth,
		Clustering: Clustering{
			Tau: p.dist.Tau,
		},
		Nodes: p.nodes,
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return &rerrors.WriteError{Path: path, Err: err}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return &rerrors.WriteError{Path: path, Err: err}
	}
	return nil
}

// Load reads a partition document previously written by Save.
func Load(path string) (*Partition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &rerrors.IngestError{Path: path, Err: err}
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &rerrors.IngestError{Path: path, Err: err}
	}
	if doc.Version != formatVersion {
		return nil, &rerrors.PartitionError{Reason: fmt.Sprintf(
			"unsupported partition document version %d", doc.Version)}
	}
	return &Partition{
		depth: doc.Depth,
		dist:  distance.NewEWSP(doc.Clustering.Tau),
		nodes: doc.Nodes,
	}, nil
}
