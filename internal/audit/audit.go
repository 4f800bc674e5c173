// Package audit keeps a per-day JSON log of every statement a
// database.Conn executes.
//
// Each day gets one file, dir/prefix + YYYY-MM-DD + suffix + "." + ext,
// holding a single JSON array. A write reads the array, appends one
// record and replaces the file through a temp file and a rename, so the
// file is valid JSON between writes. Writers inside one process are
// serialized; writers in different processes can still lose records.
package audit

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/koustreak/simpledb/internal/errs"
)

const (
	// DayLayout is the date format used in file names and on the command line.
	DayLayout = "2006-01-02"

	datetimeLayout = "2006-01-02 15:04:05"
)

// Config describes where audit files go.
type Config struct {
	Dir        string
	NamePrefix string
	NameSuffix string
	Ext        string

	// Enabled false turns Record into a no-op that never touches the disk.
	Enabled bool
}

// Record is one audited statement.
type Record struct {
	Datetime  string `json:"datetime"`
	Timestamp int64  `json:"timestamp"`
	Result    bool   `json:"result"`
	Statement string `json:"statement"`
	Message   string `json:"message"`
	IP        string `json:"ip"`
}

// Log writes audit records. It satisfies database.Auditor.
type Log struct {
	cfg Config
	now func() time.Time

	mu sync.Mutex
}

// New returns a Log for cfg. No file or directory is created until the
// first record.
func New(cfg Config) *Log {
	if cfg.Ext == "" {
		cfg.Ext = "json"
	}
	return &Log{cfg: cfg, now: time.Now}
}

func (l *Log) Enabled() bool {
	return l.cfg.Enabled
}

// FileName returns the base name of the file for day.
func (l *Log) FileName(day time.Time) string {
	return l.cfg.NamePrefix + day.Format(DayLayout) + l.cfg.NameSuffix + "." + l.cfg.Ext
}

// Path returns the full path of the file for day.
func (l *Log) Path(day time.Time) string {
	return filepath.Join(l.cfg.Dir, l.FileName(day))
}

// Record appends one entry to today's file. The client address comes from
// ctx (see WithClientIP).
func (l *Log) Record(ctx context.Context, ok bool, statement, message string) error {
	if !l.cfg.Enabled {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(l.cfg.Dir, 0o777); err != nil {
		return errs.Wrap(errs.ErrKindQueryFailed, "failed to create audit directory "+l.cfg.Dir, err)
	}

	now := l.now()
	path := l.Path(now)

	records, err := readFile(path)
	if err != nil {
		return err
	}

	records = append(records, Record{
		Datetime:  now.Format(datetimeLayout),
		Timestamp: now.Unix(),
		Result:    ok,
		Statement: statement,
		Message:   message,
		IP:        ClientIP(ctx),
	})

	return writeFile(path, records)
}

// Read returns the records of day. A day without a file has no records.
func (l *Log) Read(day time.Time) ([]Record, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return readFile(l.Path(day))
}

// ParseDay parses a YYYY-MM-DD date in the local time zone. An empty
// string means today.
func ParseDay(s string) (time.Time, error) {
	if s == "" {
		return time.Now(), nil
	}
	day, err := time.ParseInLocation(DayLayout, s, time.Local)
	if err != nil {
		return time.Time{}, errs.Wrap(errs.ErrKindInvalidInput, "date must look like 2006-01-02", err)
	}
	return day, nil
}

// --- file I/O ---

func readFile(path string) ([]Record, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return []Record{}, nil
	}
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindQueryFailed, "failed to read audit file "+path, err)
	}

	records := []Record{}
	if len(data) == 0 {
		return records, nil
	}
	if err := json.Unmarshal(data, &records); err != nil {
		// Refuse to append: rewriting would drop whatever is in there.
		return nil, errs.Wrap(errs.ErrKindQueryFailed, "audit file is not a JSON array: "+path, err)
	}
	return records, nil
}

func writeFile(path string, records []Record) error {
	data, err := json.Marshal(records)
	if err != nil {
		return errs.Wrap(errs.ErrKindQueryFailed, "failed to encode audit records", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return errs.Wrap(errs.ErrKindQueryFailed, "failed to create temp audit file", err)
	}
	defer os.Remove(tmp.Name()) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errs.Wrap(errs.ErrKindQueryFailed, "failed to write audit file", err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return errs.Wrap(errs.ErrKindQueryFailed, "failed to write audit file", err)
	}
	if err := tmp.Close(); err != nil {
		return errs.Wrap(errs.ErrKindQueryFailed, "failed to write audit file", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return errs.Wrap(errs.ErrKindQueryFailed, "failed to replace audit file "+path, err)
	}
	return nil
}
