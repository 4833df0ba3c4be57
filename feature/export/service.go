package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"
	"time"

	"race-telemetry/core/reconcile"
	"race-telemetry/core/storage"

	"github.com/jonboulle/clockwork"
	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
)

// ErrInvalidName is returned when a download name is empty or contains a path.
var ErrInvalidName = errors.New("invalid export name")

// ErrStorageDisabled is returned by upload operations when no bucket is configured.
var ErrStorageDisabled = fmt.Errorf("%w: object storage disabled", reconcile.ErrNoExportHandler)

const stampLayout = "20060102-150405"

// Object describes one uploaded export.
type Object struct {
	Name         string    `json:"name"`
	Key          string    `json:"key"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"last_modified"`
}

// UploadResult is the outcome of one file of a batch upload.
type UploadResult struct {
	Kind    string `json:"kind"`
	File    string `json:"file"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// Service renders exports and uploads them to the export bucket.
type Service struct {
	source Source
	client storage.Client
	cfg    storage.Config
	clock  clockwork.Clock
	logger *zap.Logger
}

// NewService creates a new export service. A nil client disables uploads;
// CSV downloads keep working.
func NewService(source Source, client storage.Client, cfg storage.Config, clock clockwork.Clock, logger *zap.Logger) *Service {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{source: source, client: client, cfg: cfg, clock: clock, logger: logger}
}

// UploadsEnabled reports whether a bucket is configured.
func (s *Service) UploadsEnabled() bool {
	return s.client != nil
}

// Filename is the download name for kind at the current time.
func (s *Service) Filename(kind string) string {
	return fmt.Sprintf("%s_%s.csv", kind, s.clock.Now().UTC().Format(stampLayout))
}

// CSV renders kind.
func (s *Service) CSV(kind string) ([]byte, error) {
	return Render(s.source, kind)
}

// Export implements reconcile.ExportHandler.
func (s *Service) Export(ctx context.Context, kind string) error {
	_, err := s.Upload(ctx, kind)
	return err
}

// Upload renders kind and stores it under the export prefix, then prunes
// older uploads of the same kind beyond the retention count.
func (s *Service) Upload(ctx context.Context, kind string) (Object, error) {
	if s.client == nil {
		return Object{}, ErrStorageDisabled
	}
	data, err := s.CSV(kind)
	if err != nil {
		return Object{}, err
	}

	if err := storage.EnsureBucket(ctx, s.client, s.cfg.Bucket, s.cfg.Region); err != nil {
		return Object{}, fmt.Errorf("%w: %w", reconcile.ErrTransportFault, err)
	}

	name := s.Filename(kind)
	key := s.key(name)
	_, err = s.client.PutObject(ctx, s.cfg.Bucket, key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: "text/csv"})
	if err != nil {
		return Object{}, fmt.Errorf("%w: upload %s: %w", reconcile.ErrTransportFault, key, err)
	}
	s.logger.Info("Export uploaded", zap.String("kind", kind), zap.String("key", key), zap.Int("bytes", len(data)))

	if err := s.prune(ctx, kind); err != nil {
		s.logger.Warn("Export pruning failed", zap.String("kind", kind), zap.Error(err))
	}
	return Object{Name: name, Key: key, Size: int64(len(data)), LastModified: s.clock.Now()}, nil
}

// UploadAll uploads every kind, continuing past failures.
func (s *Service) UploadAll(ctx context.Context) ([]UploadResult, error) {
	if s.client == nil {
		return nil, ErrStorageDisabled
	}
	results := make([]UploadResult, 0, len(Kinds))
	for _, kind := range Kinds {
		obj, err := s.Upload(ctx, kind)
		res := UploadResult{Kind: kind, File: obj.Name, Success: err == nil}
		if err != nil {
			res.Error = err.Error()
		}
		results = append(results, res)
	}
	return results, nil
}

// List returns uploaded exports, newest first.
func (s *Service) List(ctx context.Context) ([]Object, error) {
	if s.client == nil {
		return nil, ErrStorageDisabled
	}
	var objects []Object
	for info := range s.client.ListObjects(ctx, s.cfg.Bucket, minio.ListObjectsOptions{Prefix: s.prefix(), Recursive: true}) {
		if info.Err != nil {
			return nil, fmt.Errorf("%w: list exports: %w", reconcile.ErrTransportFault, info.Err)
		}
		objects = append(objects, Object{
			Name:         path.Base(info.Key),
			Key:          info.Key,
			Size:         info.Size,
			LastModified: info.LastModified,
		})
	}
	sort.Slice(objects, func(i, j int) bool { return objects[i].Key > objects[j].Key })
	return objects, nil
}

// Open streams one uploaded export by file name.
func (s *Service) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	if s.client == nil {
		return nil, ErrStorageDisabled
	}
	if name == "" || strings.ContainsAny(name, "/\\") {
		return nil, fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	obj, err := s.client.GetObject(ctx, s.cfg.Bucket, s.key(name), minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", reconcile.ErrTransportFault, name, err)
	}
	return obj, nil
}

func (s *Service) prune(ctx context.Context, kind string) error {
	if s.cfg.ExportRetain <= 0 {
		return nil
	}
	var keys []string
	opts := minio.ListObjectsOptions{Prefix: s.key(kind + "_"), Recursive: true}
	for info := range s.client.ListObjects(ctx, s.cfg.Bucket, opts) {
		if info.Err != nil {
			return info.Err
		}
		keys = append(keys, info.Key)
	}
	if len(keys) <= s.cfg.ExportRetain {
		return nil
	}

	// Keys embed a sortable timestamp, so lexical order is upload order.
	sort.Sort(sort.Reverse(sort.StringSlice(keys)))
	for _, key := range keys[s.cfg.ExportRetain:] {
		if err := s.client.RemoveObject(ctx, s.cfg.Bucket, key, minio.RemoveObjectOptions{}); err != nil {
			return fmt.Errorf("remove %s: %w", key, err)
		}
		s.logger.Debug("Old export removed", zap.String("key", key))
	}
	return nil
}

func (s *Service) prefix() string {
	p := strings.Trim(s.cfg.ExportPrefix, "/")
	if p == "" {
		return ""
	}
	return p + "/"
}

func (s *Service) key(name string) string {
	return s.prefix() + name
}
