package models

import (
	"time"

	"github.com/dmitrijs2005/memorylocks/internal/optional"
)

// Lock is a row of the locks table. ScanCount never decreases and
// LastScanMilestone only holds values of the configured milestone list
// (0 when none was reached yet).
type Lock struct {
	ID                int64
	Name              string
	AlbumTitle        string
	SealDate          *Date
	ScanCount         int64
	LastScanMilestone int64
	UserID            *int64
	UpgradedStorage   bool
	CreatedAt         time.Time
}

// NewLock is the input of lock creation. Empty strings fall back to the
// column defaults.
type NewLock struct {
	Name       string
	AlbumTitle string
	UserID     *int64
}

// LockUpdate lists the lock columns a partial update may touch. Only name,
// album title and seal date are accepted from clients; the remaining slots
// are written by the lock service.
type LockUpdate struct {
	Name              optional.Field[string] `json:"lockName"`
	AlbumTitle        optional.Field[string] `json:"albumTitle"`
	SealDate          optional.Field[Date]   `json:"sealDate"`
	UserID            optional.Field[int64]  `json:"-"`
	UpgradedStorage   optional.Field[bool]   `json:"-"`
	ScanCount         optional.Field[int64]  `json:"-"`
	LastScanMilestone optional.Field[int64]  `json:"-"`
}
