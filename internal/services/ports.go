package services

import "context"

// BlobStore uploads slip and receipt files and deletes them by public URL.
type BlobStore interface {
	Upload(ctx context.Context, key, contentType string, data []byte) (url string, err error)
	Delete(ctx context.Context, url string) error
}

// LedgerPublisher queues an entity for the ledger sync worker.
type LedgerPublisher interface {
	PublishLedgerSync(ctx context.Context, entity, id string) error
}
