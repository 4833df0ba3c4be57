// Package storage provides an abstraction layer for object storage services.
//
// It wraps the MinIO Go client behind the Client interface so exports can be
// uploaded to AWS S3 or a self-hosted MinIO and tested against the mock in
// core/storage/mocks.
//
// # Operations
//
//   - BucketExists, MakeBucket: EnsureBucket creates the export bucket on
//     first use.
//   - PutObject: uploads a rendered CSV export.
//   - ListObjects, GetObject: list and download earlier uploads.
//   - RemoveObject: prunes uploads beyond the retention count.
//
// # Usage
//
//	client, err := storage.NewClient(cfg.Storage)
//	err = storage.EnsureBucket(ctx, client, cfg.Storage.Bucket, cfg.Storage.Region)
package storage
