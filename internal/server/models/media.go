package models

import (
	"time"

	"github.com/dmitrijs2005/memorylocks/internal/optional"
)

// MediaItem is a row of the media_objects table. At most one item per lock
// has IsMainPicture set.
type MediaItem struct {
	ID              int64
	LockID          int64
	StorageAssetID  string
	URL             string
	ThumbnailURL    *string
	FileName        *string
	IsImage         bool
	IsMainPicture   bool
	DisplayOrder    int
	DurationSeconds *int
	CreatedAt       time.Time
}

// NewMediaItem is the input of media creation.
type NewMediaItem struct {
	LockID          int64
	StorageAssetID  string
	URL             string
	ThumbnailURL    *string
	FileName        *string
	IsImage         bool
	IsMainPicture   bool
	DisplayOrder    int
	DurationSeconds *int
}

// MediaUpdate lists the media columns a partial update may touch. The
// owning lock is not updatable.
type MediaUpdate struct {
	StorageAssetID  optional.Field[string] `json:"storageAssetId"`
	URL             optional.Field[string] `json:"url"`
	ThumbnailURL    optional.Field[string] `json:"thumbnailUrl"`
	FileName        optional.Field[string] `json:"fileName"`
	IsImage         optional.Field[bool]   `json:"isImage"`
	IsMainPicture   optional.Field[bool]   `json:"isMainPicture"`
	DisplayOrder    optional.Field[int]    `json:"displayOrder"`
	DurationSeconds optional.Field[int]    `json:"durationSeconds"`
}

// OrderUpdate is one item of a display-order batch.
type OrderUpdate struct {
	ID           int64
	DisplayOrder int
}

// BatchResult reports per-item outcomes of a bulk operation.
type BatchResult struct {
	Succeeded int
	Failed    int
	FailedIDs []int64
}
