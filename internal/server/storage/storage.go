// Package storage deletes and presigns media assets held by an external
// provider (Cloudinary or an S3-compatible bucket).
package storage

import "context"

// AssetStore removes stored media assets.
type AssetStore interface {
	Delete(ctx context.Context, assetID string, isImage bool) error
}

// Presigner is implemented by stores that let clients upload directly.
type Presigner interface {
	PresignUpload(ctx context.Context, lockID int64) (assetID, url string, err error)
}

// Nop is an AssetStore that does nothing. It is used when no provider is
// configured.
type Nop struct{}

func (Nop) Delete(context.Context, string, bool) error { return nil }
