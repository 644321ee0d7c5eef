package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/memorylocks/internal/common"
	"github.com/dmitrijs2005/memorylocks/internal/obfuscate"
	"github.com/dmitrijs2005/memorylocks/internal/server/models"
)

// Album is the public view of a lock with its media.
type Album struct {
	Lock     *models.Lock
	HashedID string
	Media    []*models.MediaItem
}

// AlbumService serves public albums addressed by raw or obfuscated lock id.
type AlbumService struct {
	codec *obfuscate.Codec
	locks *LockService
	media *MediaService
}

func NewAlbumService(codec *obfuscate.Codec, locks *LockService, media *MediaService) *AlbumService {
	return &AlbumService{codec: codec, locks: locks, media: media}
}

// Resolve maps an album identifier to a lock id. Obfuscated ids are tried
// first, then plain positive integers. Anything else is ErrorNotFound.
func (s *AlbumService) Resolve(identifier string) (int64, error) {
	identifier = strings.TrimSpace(identifier)

	if s.codec.LooksEncoded(identifier) {
		if id, ok := s.codec.Decode(identifier); ok {
			return id, nil
		}
	}

	if id, err := strconv.ParseInt(identifier, 10, 64); err == nil && id > 0 {
		return id, nil
	}

	return 0, fmt.Errorf("album %q: %w", identifier, common.ErrorNotFound)
}

func (s *AlbumService) Get(ctx context.Context, identifier string) (*Album, error) {
	id, err := s.Resolve(identifier)
	if err != nil {
		return nil, err
	}

	lock, err := s.locks.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	media, err := s.media.ListByLock(ctx, id)
	if err != nil {
		return nil, err
	}

	return &Album{Lock: lock, HashedID: s.locks.HashedID(id), Media: media}, nil
}

// Scan records a public scan of the album's lock.
func (s *AlbumService) Scan(ctx context.Context, identifier string) (*ScanResult, error) {
	id, err := s.Resolve(identifier)
	if err != nil {
		return nil, err
	}
	return s.locks.RecordScan(ctx, id)
}
