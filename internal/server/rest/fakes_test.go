package rest

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/memorylocks/internal/common"
	"github.com/dmitrijs2005/memorylocks/internal/server/models"
	"github.com/dmitrijs2005/memorylocks/internal/server/services"
)

type fakeLocks struct {
	locks     map[int64]*models.Lock
	err       error
	lastTotal int
	lastName  string
	calls     int
}

func (f *fakeLocks) find(id int64) (*models.Lock, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	l, ok := f.locks[id]
	if !ok {
		return nil, fmt.Errorf("lock %d: %w", id, common.ErrorNotFound)
	}
	return l, nil
}

func (f *fakeLocks) Get(_ context.Context, id int64) (*models.Lock, error) { return f.find(id) }

func (f *fakeLocks) ListByUser(_ context.Context, userID int64) ([]*models.Lock, error) {
	f.calls++
	var out []*models.Lock
	for _, l := range f.locks {
		if l.UserID != nil && *l.UserID == userID {
			out = append(out, l)
		}
	}
	return out, f.err
}

func (f *fakeLocks) Update(_ context.Context, id int64, u models.LockUpdate) (*models.Lock, error) {
	if !u.Name.IsSet() && !u.AlbumTitle.IsSet() && !u.SealDate.IsSet() {
		return nil, fmt.Errorf("%w: no fields provided for update", common.ErrorInvalidArgument)
	}
	l, err := f.find(id)
	if err != nil {
		return nil, err
	}
	if v, ok := u.AlbumTitle.Get(); ok {
		l.AlbumTitle = v
	}
	if u.SealDate.IsNull() {
		l.SealDate = nil
	}
	return l, nil
}

func (f *fakeLocks) Rename(_ context.Context, id int64, name string) (*models.Lock, error) {
	f.lastName = name
	l, err := f.find(id)
	if err != nil {
		return nil, err
	}
	l.Name = name
	return l, nil
}

func (f *fakeLocks) ToggleSeal(_ context.Context, id int64) (*models.Lock, error) {
	l, err := f.find(id)
	if err != nil {
		return nil, err
	}
	if l.SealDate == nil {
		d := models.NewDate(2025, 2, 14)
		l.SealDate = &d
	} else {
		l.SealDate = nil
	}
	return l, nil
}

func (f *fakeLocks) UpgradeStorage(_ context.Context, id int64) (*models.Lock, error) {
	l, err := f.find(id)
	if err != nil {
		return nil, err
	}
	l.UpgradedStorage = true
	return l, nil
}

func (f *fakeLocks) Connect(_ context.Context, hashed string, userID int64) (*models.Lock, error) {
	if hashed != "hash-1" {
		return nil, common.InvalidArgument("invalid lock identifier")
	}
	l, err := f.find(1)
	if err != nil {
		return nil, err
	}
	l.UserID = &userID
	return l, nil
}

func (f *fakeLocks) RecordScan(_ context.Context, id int64) (*services.ScanResult, error) {
	l, err := f.find(id)
	if err != nil {
		return nil, err
	}
	l.ScanCount++
	res := &services.ScanResult{Lock: l}
	if l.ScanCount == 10 {
		m := int64(10)
		res.Milestone = &m
	}
	return res, nil
}

func (f *fakeLocks) BulkCreate(_ context.Context, total int) (*services.BulkCreateResult, error) {
	f.lastTotal = total
	if total < 1 || total > services.MaxBulkLocks {
		return nil, common.InvalidArgument("totalLocks must be between 1 and 10000")
	}
	return &services.BulkCreateResult{
		Requested:   total,
		FirstID:     101,
		LastID:      100 + int64(total),
		BatchResult: models.BatchResult{Succeeded: total, FailedIDs: []int64{}},
		Message:     fmt.Sprintf("Successfully created %d locks (101 to %d)", total, 100+total),
	}, nil
}

func (f *fakeLocks) HashedID(id int64) string { return fmt.Sprintf("hash-%d", id) }

type fakeMedia struct {
	items        map[int64]*models.MediaItem
	createCalls  int
	reorderCalls int
	uploadErr    error
}

func (f *fakeMedia) Create(_ context.Context, n models.NewMediaItem) (*models.MediaItem, error) {
	f.createCalls++
	return &models.MediaItem{ID: 50, LockID: n.LockID, URL: n.URL, StorageAssetID: n.StorageAssetID, IsImage: n.IsImage}, nil
}

func (f *fakeMedia) ListByLock(_ context.Context, lockID int64) ([]*models.MediaItem, error) {
	var out []*models.MediaItem
	for _, it := range f.items {
		if it.LockID == lockID {
			out = append(out, it)
		}
	}
	return out, nil
}

func (f *fakeMedia) Update(_ context.Context, id int64, u models.MediaUpdate) (*models.MediaItem, error) {
	it, ok := f.items[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	if v, ok := u.IsMainPicture.Get(); ok {
		it.IsMainPicture = v
	}
	return it, nil
}

func (f *fakeMedia) Delete(_ context.Context, id int64) (*models.MediaItem, error) {
	it, ok := f.items[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	delete(f.items, id)
	return it, nil
}

func (f *fakeMedia) BatchReorder(_ context.Context, updates []models.OrderUpdate) (*models.BatchResult, error) {
	f.reorderCalls++
	res := &models.BatchResult{FailedIDs: []int64{}}
	for _, u := range updates {
		if _, ok := f.items[u.ID]; !ok {
			res.Failed++
			res.FailedIDs = append(res.FailedIDs, u.ID)
			continue
		}
		res.Succeeded++
	}
	return res, nil
}

func (f *fakeMedia) UploadURL(_ context.Context, lockID int64) (*services.UploadTarget, error) {
	if f.uploadErr != nil {
		return nil, f.uploadErr
	}
	return &services.UploadTarget{StorageAssetID: "asset", UploadURL: "https://upload"}, nil
}

type fakeAccounts struct {
	createErr       error
	lastDeleteMedia bool
	deleteCalls     int
	err             error
}

func (f *fakeAccounts) Create(_ context.Context, n models.NewAccount) (*models.Account, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &models.Account{ID: 1, Email: n.Email, AuthProvider: models.AuthProviderEmail}, nil
}

func (f *fakeAccounts) Get(_ context.Context, id int64) (*models.Account, error) {
	if f.err != nil {
		return nil, f.err
	}
	if id != 42 {
		return nil, common.ErrorNotFound
	}
	return &models.Account{ID: 42, AuthProvider: models.AuthProviderEmail}, nil
}

func (f *fakeAccounts) Update(_ context.Context, id int64, _ models.AccountUpdate) (*models.Account, error) {
	return f.Get(context.Background(), id)
}

func (f *fakeAccounts) ExistCheck(_ context.Context, l services.AccountLookup) (*services.ExistResult, error) {
	if l.Email == "" && l.PhoneNumber == "" && l.ProviderID == "" {
		return nil, common.InvalidArgument("email, phoneNumber or authProvider with providerId is required")
	}
	if l.Email == "taken@example.com" {
		return &services.ExistResult{Exists: true, MatchedBy: "email", Account: &models.Account{ID: 42}}, nil
	}
	return &services.ExistResult{}, nil
}

func (f *fakeAccounts) FindByIdentifier(_ context.Context, identifier string) (*models.Account, error) {
	return f.Get(context.Background(), 42)
}

func (f *fakeAccounts) FindByProvider(_ context.Context, _, _ string) (*models.Account, error) {
	return f.Get(context.Background(), 42)
}

func (f *fakeAccounts) LinkProvider(_ context.Context, userID int64, _, _ string) (*models.Account, error) {
	return f.Get(context.Background(), userID)
}

func (f *fakeAccounts) Delete(_ context.Context, id int64, deleteMedia bool) (*services.DeleteResult, error) {
	f.deleteCalls++
	f.lastDeleteMedia = deleteMedia
	if id != 42 {
		return nil, common.ErrorNotFound
	}
	res := &services.DeleteResult{DetachedLocks: 1}
	if deleteMedia {
		res.DeletedMedia = 3
	}
	return res, nil
}

type fakeAlbums struct {
	locks *fakeLocks
	media *fakeMedia
}

func (f *fakeAlbums) resolve(identifier string) (int64, error) {
	switch identifier {
	case "7", "hash-7":
		return 7, nil
	}
	return 0, common.ErrorNotFound
}

func (f *fakeAlbums) Get(ctx context.Context, identifier string) (*services.Album, error) {
	id, err := f.resolve(identifier)
	if err != nil {
		return nil, err
	}
	l, err := f.locks.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	items, _ := f.media.ListByLock(ctx, id)
	return &services.Album{Lock: l, HashedID: f.locks.HashedID(id), Media: items}, nil
}

func (f *fakeAlbums) Scan(ctx context.Context, identifier string) (*services.ScanResult, error) {
	id, err := f.resolve(identifier)
	if err != nil {
		return nil, err
	}
	return f.locks.RecordScan(ctx, id)
}

type fakePinger struct{ err error }

func (p fakePinger) PingContext(context.Context) error { return p.err }
