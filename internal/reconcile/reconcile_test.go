package reconcile

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hoard-dev/hoard/internal/catalog"
)

// fakeStore serves canned lookups so classification can be tested
// without a database.
type fakeStore struct {
	entries   map[string]*catalog.Entry
	lookupErr error
}

func (f *fakeStore) Ping(ctx context.Context) error { return nil }

func (f *fakeStore) Lookup(ctx context.Context, cid string) (*catalog.Entry, error) {
	if f.lookupErr != nil {
		return nil, f.lookupErr
	}
	return f.entries[cid], nil
}

func (f *fakeStore) Insert(ctx context.Context, entry catalog.Entry, meta catalog.Meta) error {
	return nil
}

func (f *fakeStore) UpdateVersion(ctx context.Context, cid, vid, body string) error {
	return nil
}

func (f *fakeStore) Count(ctx context.Context) (int64, error) { return 0, nil }

func (f *fakeStore) CountByKind(ctx context.Context) (map[string]int64, error) { return nil, nil }

func (f *fakeStore) Close() error { return nil }

func TestClassifyNew(t *testing.T) {
	store := &fakeStore{entries: map[string]*catalog.Entry{}}

	disposition, entry, err := Classify(context.Background(), store, "cid-1", "vid-1")
	require.NoError(t, err)
	assert.Equal(t, New, disposition)
	assert.Nil(t, entry)
}

func TestClassifyDuplicate(t *testing.T) {
	store := &fakeStore{entries: map[string]*catalog.Entry{
		"cid-1": {CID: "cid-1", VID: "vid-1"},
	}}

	disposition, entry, err := Classify(context.Background(), store, "cid-1", "vid-1")
	require.NoError(t, err)
	assert.Equal(t, Duplicate, disposition)
	require.NotNil(t, entry)
	assert.Equal(t, "cid-1", entry.CID)
}

func TestClassifyChanged(t *testing.T) {
	store := &fakeStore{entries: map[string]*catalog.Entry{
		"cid-1": {CID: "cid-1", VID: "vid-old"},
	}}

	disposition, entry, err := Classify(context.Background(), store, "cid-1", "vid-new")
	require.NoError(t, err)
	assert.Equal(t, Changed, disposition)
	require.NotNil(t, entry)
	assert.Equal(t, "vid-old", entry.VID)
}

func TestClassifyLookupError(t *testing.T) {
	store := &fakeStore{lookupErr: errors.New("disk read failed")}

	disposition, entry, err := Classify(context.Background(), store, "cid-1", "vid-1")
	assert.Equal(t, Error, disposition)
	assert.Nil(t, entry)
	assert.Error(t, err)
}

func TestStatsValidCallables(t *testing.T) {
	s := &Stats{
		CallablesFound:       10,
		SkippedNotStandalone: 4,
		SkippedNoDocstring:   3,
	}
	assert.Equal(t, 3, s.ValidCallables())
}

func TestStatsExitCode(t *testing.T) {
	cases := []struct {
		name  string
		stats Stats
		want  int
	}{
		{name: "clean run", stats: Stats{NewUploads: 5}, want: ExitSuccess},
		{name: "clean empty run", stats: Stats{}, want: ExitSuccess},
		{
			name: "errors with progress",
			stats: Stats{
				NewUploads:   1,
				UploadErrors: []UploadError{{File: "a.py", Callable: "f", Message: "boom"}},
			},
			want: ExitPartial,
		},
		{
			name: "updates count as progress",
			stats: Stats{
				Updated:       2,
				ParseFailures: []ParseFailure{{File: "bad.py", Message: "syntax error"}},
			},
			want: ExitPartial,
		},
		{
			name:  "errors without progress",
			stats: Stats{ParseFailures: []ParseFailure{{File: "bad.py", Message: "syntax error"}}},
			want:  ExitFailure,
		},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, tc.stats.ExitCode(), tc.name)
	}
}

func TestDispositionString(t *testing.T) {
	assert.Equal(t, "new", New.String())
	assert.Equal(t, "duplicate", Duplicate.String())
	assert.Equal(t, "changed", Changed.String())
	assert.Equal(t, "error", Error.String())
}
