package audit

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"time"

	"github.com/koustreak/simpledb/internal/errs"
	"github.com/koustreak/simpledb/internal/filestore"
	"github.com/koustreak/simpledb/internal/logger"
)

const contentType = "application/json"

// Archiver copies finished daily files to object storage.
type Archiver struct {
	log    *Log
	store  filestore.Store
	bucket string
	prefix string
}

// ArchiveResult reports what Archive did.
type ArchiveResult struct {
	Object *filestore.ObjectInfo

	// Uploaded is false when an object of the same size was already there.
	Uploaded bool
}

func NewArchiver(log *Log, store filestore.Store, bucket, prefix string) *Archiver {
	return &Archiver{log: log, store: store, bucket: bucket, prefix: prefix}
}

// Key returns the object key used for day.
func (a *Archiver) Key(day time.Time) string {
	return a.prefix + a.log.FileName(day)
}

// Archive uploads the file of day. Today's file is refused because it
// is still being appended to.
func (a *Archiver) Archive(ctx context.Context, day time.Time) (*ArchiveResult, error) {
	if day.Format(DayLayout) == a.log.now().Format(DayLayout) {
		return nil, errs.Newf(errs.ErrKindInvalidInput, "audit file for %s is still open", day.Format(DayLayout))
	}

	path := a.log.Path(day)
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, errs.Wrap(errs.ErrKindNotFound, "no audit file for "+day.Format(DayLayout), err)
	}
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindQueryFailed, "failed to open "+path, err)
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindQueryFailed, "failed to stat "+path, err)
	}

	if err := a.store.EnsureBucket(ctx, a.bucket); err != nil {
		return nil, err
	}

	key := a.Key(day)
	log := logger.FromContext(ctx)

	existing, err := a.store.StatObject(ctx, a.bucket, key)
	switch {
	case err == nil && existing.Size == st.Size():
		log.InfoWith("audit file already archived", map[string]any{"bucket": a.bucket, "key": key})
		return &ArchiveResult{Object: existing}, nil
	case err != nil && !errs.IsNotFound(err):
		return nil, err
	}

	info, err := a.store.PutObject(ctx, a.bucket, key, f, st.Size(), contentType)
	if err != nil {
		return nil, err
	}

	log.InfoWith("audit file archived", map[string]any{
		"bucket": a.bucket,
		"key":    key,
		"size":   info.Size,
	})
	return &ArchiveResult{Object: info, Uploaded: true}, nil
}
