// Package storage provides an abstraction layer for object storage services.
//
// It wraps the MinIO Go client behind the small Client interface the
// reconciliation archive needs: bucket checks, uploads, downloads, listing and
// batch removal. Both AWS S3 and self-hosted MinIO instances are supported.
//
// The interface exists mainly so storage interactions can be mocked in unit
// tests (see core/storage/mocks).
//
// # Usage
//
//	client, err := storage.NewClient(cfg.Storage)
//	exists, err := client.BucketExists(ctx, cfg.Storage.Bucket)
package storage
