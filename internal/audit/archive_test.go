package audit

import (
	"bytes"
	"context"
	"io"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/koustreak/simpledb/internal/errs"
	"github.com/koustreak/simpledb/internal/filestore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	mu      sync.Mutex
	buckets map[string]bool
	objects map[string][]byte
	puts    int
}

var _ filestore.Store = (*memStore)(nil)

func newMemStore() *memStore {
	return &memStore{buckets: map[string]bool{}, objects: map[string][]byte{}}
}

func (m *memStore) Ping(context.Context) error { return nil }
func (m *memStore) Close() error               { return nil }

func (m *memStore) EnsureBucket(_ context.Context, bucket string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.buckets[bucket] = true
	return nil
}

func (m *memStore) PutObject(_ context.Context, bucket, key string, r io.Reader, _ int64, contentType string) (*filestore.ObjectInfo, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[bucket+"/"+key] = data
	m.puts++
	return &filestore.ObjectInfo{Key: key, Size: int64(len(data)), ContentType: contentType}, nil
}

func (m *memStore) StatObject(_ context.Context, bucket, key string) (*filestore.ObjectInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[bucket+"/"+key]
	if !ok {
		return nil, errs.New(errs.ErrKindNotFound, "no such key")
	}
	return &filestore.ObjectInfo{Key: key, Size: int64(len(data))}, nil
}

func TestArchive(t *testing.T) {
	l := newTestLog(t, true)
	ctx := context.Background()
	require.NoError(t, l.Record(ctx, true, "SELECT 1", ""))

	// The file was written "yesterday".
	day := fixedNow
	l.now = func() time.Time { return fixedNow.AddDate(0, 0, 1) }

	store := newMemStore()
	a := NewArchiver(l, store, "audit", "db/")

	res, err := a.Archive(ctx, day)
	require.NoError(t, err)
	assert.True(t, res.Uploaded)
	assert.Equal(t, "db/db-2024-03-09-audit.json", res.Object.Key)
	assert.True(t, store.buckets["audit"])

	raw, err := os.ReadFile(l.Path(day))
	require.NoError(t, err)
	assert.True(t, bytes.Equal(raw, store.objects["audit/db/db-2024-03-09-audit.json"]))

	res, err = a.Archive(ctx, day)
	require.NoError(t, err)
	assert.False(t, res.Uploaded)
	assert.Equal(t, 1, store.puts)
}

func TestArchive_Today(t *testing.T) {
	l := newTestLog(t, true)
	require.NoError(t, l.Record(context.Background(), true, "SELECT 1", ""))

	_, err := NewArchiver(l, newMemStore(), "audit", "").Archive(context.Background(), fixedNow)
	assert.True(t, errs.IsInvalidInput(err))
}

func TestArchive_Missing(t *testing.T) {
	l := newTestLog(t, true)

	_, err := NewArchiver(l, newMemStore(), "audit", "").Archive(context.Background(), fixedNow.AddDate(0, 0, -3))
	assert.True(t, errs.IsNotFound(err))
}
