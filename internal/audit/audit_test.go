package audit

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/koustreak/simpledb/internal/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 3, 9, 14, 5, 7, 0, time.Local)

func newTestLog(t *testing.T, enabled bool) *Log {
	t.Helper()
	l := New(Config{
		Dir:        filepath.Join(t.TempDir(), "logs"),
		NamePrefix: "db-",
		NameSuffix: "-audit",
		Ext:        "json",
		Enabled:    enabled,
	})
	l.now = func() time.Time { return fixedNow }
	return l
}

func TestFileName(t *testing.T) {
	l := newTestLog(t, true)
	assert.Equal(t, "db-2024-03-09-audit.json", l.FileName(fixedNow))
	assert.Equal(t, filepath.Join(l.cfg.Dir, "db-2024-03-09-audit.json"), l.Path(fixedNow))

	assert.Equal(t, "2024-03-09.json", New(Config{}).FileName(fixedNow))
}

func TestRecord_Disabled(t *testing.T) {
	l := newTestLog(t, false)

	require.NoError(t, l.Record(context.Background(), true, "SELECT 1", ""))

	_, err := os.Stat(l.cfg.Dir)
	assert.True(t, os.IsNotExist(err), "disabled log must not create its directory")
}

func TestRecord_Appends(t *testing.T) {
	l := newTestLog(t, true)
	ctx := WithClientIP(context.Background(), "10.1.2.3")

	require.NoError(t, l.Record(ctx, true, "SELECT 1", ""))
	require.NoError(t, l.Record(context.Background(), false, "SELECT * FROM nope", "no such table: nope"))

	records, err := l.Read(fixedNow)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, Record{
		Datetime:  "2024-03-09 14:05:07",
		Timestamp: fixedNow.Unix(),
		Result:    true,
		Statement: "SELECT 1",
		Message:   "",
		IP:        "10.1.2.3",
	}, records[0])
	assert.False(t, records[1].Result)
	assert.Equal(t, "no such table: nope", records[1].Message)
	assert.Empty(t, records[1].IP)

	raw, err := os.ReadFile(l.Path(fixedNow))
	require.NoError(t, err)
	var generic []map[string]any
	require.NoError(t, json.Unmarshal(raw, &generic))
	assert.ElementsMatch(t,
		[]string{"datetime", "timestamp", "result", "statement", "message", "ip"},
		keys(generic[0]))
}

func TestRecord_NewFilePerDay(t *testing.T) {
	l := newTestLog(t, true)
	ctx := context.Background()

	require.NoError(t, l.Record(ctx, true, "SELECT 1", ""))
	l.now = func() time.Time { return fixedNow.AddDate(0, 0, 1) }
	require.NoError(t, l.Record(ctx, true, "SELECT 2", ""))

	first, err := l.Read(fixedNow)
	require.NoError(t, err)
	second, err := l.Read(fixedNow.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Len(t, first, 1)
	assert.Len(t, second, 1)
}

func TestRecord_CorruptFileIsKept(t *testing.T) {
	l := newTestLog(t, true)
	require.NoError(t, os.MkdirAll(l.cfg.Dir, 0o755))
	require.NoError(t, os.WriteFile(l.Path(fixedNow), []byte("not json"), 0o644))

	err := l.Record(context.Background(), true, "SELECT 1", "")
	assert.True(t, errs.IsQueryFailed(err))

	raw, err := os.ReadFile(l.Path(fixedNow))
	require.NoError(t, err)
	assert.Equal(t, "not json", string(raw))
}

func TestRecord_Concurrent(t *testing.T) {
	l := newTestLog(t, true)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, l.Record(context.Background(), true, "SELECT 1", ""))
		}()
	}
	wg.Wait()

	records, err := l.Read(fixedNow)
	require.NoError(t, err)
	assert.Len(t, records, 20)
}

func TestRead_Missing(t *testing.T) {
	records, err := newTestLog(t, true).Read(fixedNow)
	require.NoError(t, err)
	assert.NotNil(t, records)
	assert.Empty(t, records)
}

func TestParseDay(t *testing.T) {
	day, err := ParseDay("2024-03-09")
	require.NoError(t, err)
	assert.Equal(t, "2024-03-09", day.Format(DayLayout))

	today, err := ParseDay("")
	require.NoError(t, err)
	assert.Equal(t, time.Now().Format(DayLayout), today.Format(DayLayout))

	_, err = ParseDay("09/03/2024")
	assert.True(t, errs.IsInvalidInput(err))
}

func keys(m map[string]any) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
