// Package reconcile classifies freshly derived identities against
// catalog state and aggregates per-run outcomes.
package reconcile

import (
	"context"

	"github.com/hoard-dev/hoard/internal/catalog"
)

// Disposition is the outcome of reconciling one callable against the
// catalog.
type Disposition int

const (
	// New: no entry for this CID; an insert is intended.
	New Disposition = iota
	// Duplicate: entry exists with an identical VID; nothing to write.
	Duplicate
	// Changed: entry exists but its stored VID differs; a version
	// refresh is intended, the CID itself is never rewritten.
	Changed
	// Error: the catalog lookup failed. Scoped to this record; the run
	// continues.
	Error
)

func (d Disposition) String() string {
	switch d {
	case New:
		return "new"
	case Duplicate:
		return "duplicate"
	case Changed:
		return "changed"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// Classify looks up cid and decides the disposition for a record whose
// current content digest is vid. The logic is identical in dry-run and
// live mode; only the caller's write step differs.
func Classify(ctx context.Context, store catalog.Store, cid, vid string) (Disposition, *catalog.Entry, error) {
	entry, err := store.Lookup(ctx, cid)
	if err != nil {
		return Error, nil, err
	}
	if entry == nil {
		return New, nil, nil
	}
	if entry.VID == vid {
		return Duplicate, entry, nil
	}
	return Changed, entry, nil
}
