package runtime

import (
	"acss/common"
)

// MemoryDocument is the non-debug style document: an ordered list of
// insertion points with direct rule-list appends.
type MemoryDocument struct {
	points []*memoryPoint
}

type memoryPoint struct {
	bucket common.Bucket
	rules  []string
}

func (p *memoryPoint) AppendRule(rule string) {
	p.rules = append(p.rules, rule)
}

// NewMemoryDocument creates an empty in-memory style document.
func NewMemoryDocument() *MemoryDocument {
	return &MemoryDocument{}
}

func (d *MemoryDocument) NewInsertionPoint(b common.Bucket, next InsertionPoint) InsertionPoint {
	p := &memoryPoint{bucket: b}
	if next == nil {
		d.points = append(d.points, p)
		return p
	}
	for i, existing := range d.points {
		if existing == next.(*memoryPoint) {
			d.points = append(d.points[:i], append([]*memoryPoint{p}, d.points[i:]...)...)
			return p
		}
	}
	d.points = append(d.points, p)
	return p
}

// Buckets returns the buckets of the live insertion points in document
// order.
func (d *MemoryDocument) Buckets() []common.Bucket {
	out := make([]common.Bucket, len(d.points))
	for i, p := range d.points {
		out[i] = p.bucket
	}
	return out
}

// Rules returns every inserted rule in final document order.
func (d *MemoryDocument) Rules() []string {
	var out []string
	for _, p := range d.points {
		out = append(out, p.rules...)
	}
	return out
}
