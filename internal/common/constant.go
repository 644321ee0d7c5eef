package common

const (
	// APIKeyHeaderName carries the shared worker secret on inbound requests.
	APIKeyHeaderName = "X-API-Key"

	// DefaultLockName and DefaultAlbumTitle mirror the column defaults of the locks table.
	DefaultLockName   = "Memory Lock"
	DefaultAlbumTitle = "Wonderful Memories"

	// BulkAlbumTitle is the album title given to placeholder locks created in bulk.
	BulkAlbumTitle = "Romeo & Juliet"
)
