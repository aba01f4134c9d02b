// Package catalog is the persistent store of uploaded callables, keyed
// by CID. The engine only reads it and emits intended writes; the store
// never recomputes identities.
package catalog

import (
	"context"
	"errors"
	"time"
)

// ErrUnreachable marks connectivity-level failures. Unlike per-record
// read or write errors, an unreachable catalog aborts the whole run.
var ErrUnreachable = errors.New("catalog unreachable")

// Entry is one stored callable. CID is immutable once inserted; VID and
// Body move together when content drifts under a stable CID.
type Entry struct {
	CID       string
	VID       string
	Signature string
	Docstring string
	Body      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Meta carries the searchable metadata stored alongside an entry.
type Meta struct {
	Name     string
	Kind     string
	IsTest   bool
	FilePath string
	Tags     []string
}

// Store is the persistence collaborator consumed by the reconciliation
// classifier. Lookup returns (nil, nil) when no entry exists for cid;
// errors from Lookup are read failures, not misses.
type Store interface {
	Ping(ctx context.Context) error
	Lookup(ctx context.Context, cid string) (*Entry, error)
	Insert(ctx context.Context, entry Entry, meta Meta) error
	UpdateVersion(ctx context.Context, cid, vid, body string) error
	Count(ctx context.Context) (int64, error)
	CountByKind(ctx context.Context) (map[string]int64, error)
	Close() error
}
