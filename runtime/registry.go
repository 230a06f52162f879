package runtime

import (
	"go.uber.org/zap"

	"acss/common"
)

// InsertionPoint is one live, ordered slot for a bucket's rules.
type InsertionPoint interface {
	// AppendRule adds one rule string at the end of this point.
	AppendRule(rule string)
}

// StyleDocument is the host style context the registry mutates.
type StyleDocument interface {
	// NewInsertionPoint creates an empty insertion point for the bucket,
	// placed immediately before next; a nil next appends at the document
	// end.
	NewInsertionPoint(b common.Bucket, next InsertionPoint) InsertionPoint
}

// Registry routes arriving sheets into bucket-ordered insertion points.
//
// A registry is an explicit instance: the host integration layer constructs
// one per style document and passes it to every ApplySheet call, which keeps
// tests isolated and allows several independent registries in one process.
// It performs no locking and assumes serialized calls from the host's single
// rendering context; multi-threaded hosts must serialize access externally.
// Insertion points are created lazily and live for the registry's lifetime -
// the registry is append-only and never torn down.
type Registry struct {
	doc     StyleDocument
	log     *zap.Logger
	points  [common.NumBuckets]InsertionPoint
	applied map[string]struct{}
}

// NewRegistry creates a registry over the given style document.
func NewRegistry(doc StyleDocument, log *zap.Logger) *Registry {
	if log == nil {
		log = zap.NewNop()
	}
	return &Registry{
		doc:     doc,
		log:     log.Named("style-registry"),
		applied: make(map[string]struct{}),
	}
}

// ApplySheet inserts one sheet string into the live style document in strict
// bucket order, independent of arrival order. Re-applying a sheet is a
// no-op. ApplySheet never fails: unclassifiable input lands in the
// catch-all bucket.
func (r *Registry) ApplySheet(sheet string) {
	if _, done := r.applied[sheet]; done {
		return
	}
	b := ClassifySheet(sheet)
	point := r.points[b]
	if point == nil {
		point = r.doc.NewInsertionPoint(b, r.nextAbove(b))
		r.points[b] = point
		r.log.Debug("Bucket created", zap.Stringer("bucket", b))
	}
	point.AppendRule(sheet)
	r.applied[sheet] = struct{}{}
	r.log.Debug("Sheet applied", zap.Stringer("bucket", b), zap.Int("bytes", len(sheet)))
}

// nextAbove returns the insertion point of the nearest bucket with strictly
// higher precedence that already exists, or nil when there is none yet.
func (r *Registry) nextAbove(b common.Bucket) InsertionPoint {
	for i := int(b) + 1; i < common.NumBuckets; i++ {
		if r.points[i] != nil {
			return r.points[i]
		}
	}
	return nil
}
