package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"
	"time"

	"relation-manager/core/storage"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
)

// timestampLayout sorts lexicographically in chronological order.
const timestampLayout = "20060102T150405.000000000Z"

// ErrInvalidKey is returned when an object key does not belong to the archive.
var ErrInvalidKey = errors.New("invalid archive key")

// Record is one archived reconciliation.
type Record struct {
	ID         string          `json:"id"`
	ParentType string          `json:"parent_type"`
	ParentID   string          `json:"parent_id"`
	Relation   string          `json:"relation"`
	RayID      string          `json:"ray_id,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	Result     json.RawMessage `json:"result"`
}

// Entry describes a stored record without downloading it.
type Entry struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"last_modified"`
}

// Archiver stores reconciliation results as JSON objects, one per run,
// grouped by parent.
type Archiver struct {
	client storage.Client
	bucket string
	cfg    Config
	logger *zap.Logger
	now    func() time.Time
}

// New creates an Archiver writing to bucket.
func New(client storage.Client, bucket string, cfg Config, logger *zap.Logger) *Archiver {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Prefix == "" {
		cfg.Prefix = "reconciliations"
	}
	return &Archiver{
		client: client,
		bucket: bucket,
		cfg:    cfg,
		logger: logger.With(zap.String("bucket", bucket)),
		now:    time.Now,
	}
}

// EnsureBucket creates the bucket when it does not exist yet.
func (a *Archiver) EnsureBucket(ctx context.Context) error {
	exists, err := a.client.BucketExists(ctx, a.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if exists {
		return nil
	}
	if err := a.client.MakeBucket(ctx, a.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("failed to create bucket %s: %w", a.bucket, err)
	}
	a.logger.Info("Created archive bucket")
	return nil
}

// segment keeps caller supplied names from escaping their folder.
func segment(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "/", "_")
	if s == "" || s == "." || s == ".." {
		return "_"
	}
	return s
}

func (a *Archiver) folder(parentType, parentID string) string {
	return path.Join(a.cfg.Prefix, segment(parentType), segment(parentID)) + "/"
}

// Key returns the object key of the record called name in the parent's folder.
func (a *Archiver) Key(parentType, parentID, name string) string {
	return a.folder(parentType, parentID) + segment(name)
}

// Store writes result under the parent's folder and returns the object key.
// Older records beyond Config.Keep are pruned afterwards; pruning failures
// are logged, not returned.
func (a *Archiver) Store(ctx context.Context, parentType, parentID, relation, rayID string, result any) (string, error) {
	payload, err := json.Marshal(result)
	if err != nil {
		return "", fmt.Errorf("failed to marshal result: %w", err)
	}

	rec := Record{
		ID:         uuid.NewString(),
		ParentType: parentType,
		ParentID:   parentID,
		Relation:   relation,
		RayID:      rayID,
		CreatedAt:  a.now().UTC(),
		Result:     payload,
	}
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal record: %w", err)
	}

	key := a.folder(parentType, parentID) + rec.CreatedAt.Format(timestampLayout) + "-" + rec.ID + ".json"
	_, err = a.client.PutObject(ctx, a.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", key, err)
	}
	a.logger.Debug("Archived reconciliation", zap.String("key", key), zap.Int("bytes", len(data)))

	if a.cfg.Keep > 0 {
		if _, err := a.Prune(ctx, parentType, parentID, a.cfg.Keep); err != nil {
			a.logger.Warn("Failed to prune archive", zap.String("parent_type", parentType), zap.String("parent_id", parentID), zap.Error(err))
		}
	}
	return key, nil
}

// List returns the records of a parent, newest first.
func (a *Archiver) List(ctx context.Context, parentType, parentID string) ([]Entry, error) {
	opts := minio.ListObjectsOptions{
		Prefix:    a.folder(parentType, parentID),
		Recursive: true,
	}

	entries := []Entry{}
	for obj := range a.client.ListObjects(ctx, a.bucket, opts) {
		if obj.Err != nil {
			return nil, fmt.Errorf("failed to list archive: %w", obj.Err)
		}
		if !strings.HasSuffix(obj.Key, ".json") {
			continue
		}
		entries = append(entries, Entry{Key: obj.Key, Size: obj.Size, LastModified: obj.LastModified})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Key > entries[j].Key })
	return entries, nil
}

// Load downloads and decodes one record.
func (a *Archiver) Load(ctx context.Context, key string) (*Record, error) {
	if !strings.HasPrefix(key, a.cfg.Prefix+"/") || path.Clean(key) != key {
		return nil, fmt.Errorf("%w: %s", ErrInvalidKey, key)
	}
	obj, err := a.client.GetObject(ctx, a.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to download %s: %w", key, err)
	}
	defer obj.Close()

	var rec Record
	if err := json.NewDecoder(obj).Decode(&rec); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return &rec, nil
}

// Prune removes all but the keep newest records of a parent and returns how
// many objects were removed.
func (a *Archiver) Prune(ctx context.Context, parentType, parentID string, keep int) (int, error) {
	entries, err := a.List(ctx, parentType, parentID)
	if err != nil {
		return 0, err
	}
	if keep < 0 {
		keep = 0
	}
	if len(entries) <= keep {
		return 0, nil
	}

	stale := entries[keep:]
	objectsCh := make(chan minio.ObjectInfo, len(stale))
	for _, e := range stale {
		objectsCh <- minio.ObjectInfo{Key: e.Key}
	}
	close(objectsCh)

	var errs []error
	for rErr := range a.client.RemoveObjects(ctx, a.bucket, objectsCh, minio.RemoveObjectsOptions{}) {
		errs = append(errs, fmt.Errorf("%s: %w", rErr.ObjectName, rErr.Err))
	}
	removed := len(stale) - len(errs)
	a.logger.Debug("Pruned archive", zap.Int("removed", removed), zap.Int("failed", len(errs)))
	return removed, errors.Join(errs...)
}
