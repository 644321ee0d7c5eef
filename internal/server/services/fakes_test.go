package services

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/memorylocks/internal/common"
	"github.com/dmitrijs2005/memorylocks/internal/dbx"
	"github.com/dmitrijs2005/memorylocks/internal/server/models"
	"github.com/dmitrijs2005/memorylocks/internal/server/notify"
	"github.com/dmitrijs2005/memorylocks/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/memorylocks/internal/server/repositories/locks"
	"github.com/dmitrijs2005/memorylocks/internal/server/repositories/media"
)

// --- helpers ---

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func ptr[T any](v T) *T { return &v }

// --- locks ---

type fakeLocksRepo struct {
	mu    sync.Mutex
	items map[int64]*models.Lock

	createWithIDErr map[int64]error
	createdIDs      []int64
	batchSizes      []int
	synced          bool
	updateErr       error
	forUpdateCalls  int
}

func newFakeLocksRepo(locks ...*models.Lock) *fakeLocksRepo {
	f := &fakeLocksRepo{items: map[int64]*models.Lock{}, createWithIDErr: map[int64]error{}}
	for _, l := range locks {
		f.items[l.ID] = l
	}
	return f
}

func (f *fakeLocksRepo) get(id int64) (*models.Lock, error) {
	l, ok := f.items[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *l
	return &cp, nil
}

func (f *fakeLocksRepo) Create(_ context.Context, l models.NewLock) (*models.Lock, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := int64(len(f.items) + 1)
	f.items[id] = &models.Lock{ID: id, Name: l.Name, AlbumTitle: l.AlbumTitle, UserID: l.UserID}
	return f.get(id)
}

func (f *fakeLocksRepo) CreateWithID(_ context.Context, id int64, l models.NewLock) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.createWithIDErr[id]; err != nil {
		return err
	}
	f.items[id] = &models.Lock{ID: id, Name: l.Name, AlbumTitle: l.AlbumTitle}
	f.createdIDs = append(f.createdIDs, id)
	return nil
}

// CreateBatch fails as a whole when any id is set to fail in createWithIDErr.
func (f *fakeLocksRepo) CreateBatch(_ context.Context, ids []int64, l models.NewLock) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range ids {
		if err := f.createWithIDErr[id]; err != nil {
			return err
		}
	}
	for _, id := range ids {
		f.items[id] = &models.Lock{ID: id, Name: l.Name, AlbumTitle: l.AlbumTitle}
	}
	f.batchSizes = append(f.batchSizes, len(ids))
	return nil
}

func (f *fakeLocksRepo) MaxID(context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var maxID int64
	for id := range f.items {
		if id > maxID {
			maxID = id
		}
	}
	return maxID, nil
}

func (f *fakeLocksRepo) SyncIDSequence(context.Context) error {
	f.synced = true
	return nil
}

func (f *fakeLocksRepo) GetByID(_ context.Context, id int64) (*models.Lock, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.get(id)
}

func (f *fakeLocksRepo) GetByIDForUpdate(_ context.Context, id int64) (*models.Lock, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.forUpdateCalls++
	return f.get(id)
}

func (f *fakeLocksRepo) ListByUser(_ context.Context, userID int64) ([]*models.Lock, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []*models.Lock{}
	for _, l := range f.items {
		if l.UserID != nil && *l.UserID == userID {
			cp := *l
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeLocksRepo) Exists(_ context.Context, id int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.items[id]
	return ok, nil
}

func (f *fakeLocksRepo) Update(_ context.Context, id int64, u models.LockUpdate) (*models.Lock, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	l, ok := f.items[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	n := 0
	if v, ok := u.Name.Get(); ok {
		l.Name = v
		n++
	}
	if v, ok := u.AlbumTitle.Get(); ok {
		l.AlbumTitle = v
		n++
	}
	if u.SealDate.IsSet() {
		n++
		if v, ok := u.SealDate.Get(); ok {
			l.SealDate = &v
		} else {
			l.SealDate = nil
		}
	}
	if v, ok := u.UserID.Get(); ok {
		l.UserID = &v
		n++
	}
	if v, ok := u.UpgradedStorage.Get(); ok {
		l.UpgradedStorage = v
		n++
	}
	if v, ok := u.ScanCount.Get(); ok {
		l.ScanCount = v
		n++
	}
	if v, ok := u.LastScanMilestone.Get(); ok {
		l.LastScanMilestone = v
		n++
	}
	if n == 0 {
		return nil, common.ErrorInvalidArgument
	}
	return f.get(id)
}

func (f *fakeLocksRepo) DetachOwner(_ context.Context, userID int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, l := range f.items {
		if l.UserID != nil && *l.UserID == userID {
			l.UserID = nil
			n++
		}
	}
	return n, nil
}

var _ locks.Repository = (*fakeLocksRepo)(nil)

// --- media ---

type fakeMediaRepo struct {
	mu     sync.Mutex
	items  map[int64]*models.MediaItem
	nextID int64

	owners      map[int64]int64 // lock id -> user id
	orderErr    map[int64]error
	clearCalls  [][2]int64
	deleteCalls []int64
}

func newFakeMediaRepo(items ...*models.MediaItem) *fakeMediaRepo {
	f := &fakeMediaRepo{items: map[int64]*models.MediaItem{}, owners: map[int64]int64{}, orderErr: map[int64]error{}}
	for _, it := range items {
		f.items[it.ID] = it
		if it.ID > f.nextID {
			f.nextID = it.ID
		}
	}
	return f
}

func (f *fakeMediaRepo) get(id int64) (*models.MediaItem, error) {
	it, ok := f.items[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *it
	return &cp, nil
}

func (f *fakeMediaRepo) Create(_ context.Context, n models.NewMediaItem) (*models.MediaItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	f.items[f.nextID] = &models.MediaItem{
		ID: f.nextID, LockID: n.LockID, StorageAssetID: n.StorageAssetID, URL: n.URL,
		IsImage: n.IsImage, IsMainPicture: n.IsMainPicture, DisplayOrder: n.DisplayOrder,
	}
	return f.get(f.nextID)
}

func (f *fakeMediaRepo) GetByID(_ context.Context, id int64) (*models.MediaItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.get(id)
}

func (f *fakeMediaRepo) ListByLock(_ context.Context, lockID int64) ([]*models.MediaItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []*models.MediaItem{}
	for _, it := range f.items {
		if it.LockID == lockID {
			cp := *it
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DisplayOrder != out[j].DisplayOrder {
			return out[i].DisplayOrder < out[j].DisplayOrder
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (f *fakeMediaRepo) Update(_ context.Context, id int64, u models.MediaUpdate) (*models.MediaItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	it, ok := f.items[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	if v, ok := u.URL.Get(); ok {
		it.URL = v
	}
	if v, ok := u.IsMainPicture.Get(); ok {
		it.IsMainPicture = v
	}
	if v, ok := u.DisplayOrder.Get(); ok {
		it.DisplayOrder = v
	}
	return f.get(id)
}

func (f *fakeMediaRepo) ClearMainPicture(_ context.Context, lockID, exceptID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clearCalls = append(f.clearCalls, [2]int64{lockID, exceptID})
	for _, it := range f.items {
		if it.LockID == lockID && it.ID != exceptID {
			it.IsMainPicture = false
		}
	}
	return nil
}

func (f *fakeMediaRepo) UpdateDisplayOrder(_ context.Context, id int64, order int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.orderErr[id]; err != nil {
		return err
	}
	it, ok := f.items[id]
	if !ok {
		return common.ErrorNotFound
	}
	it.DisplayOrder = order
	return nil
}

func (f *fakeMediaRepo) Delete(_ context.Context, id int64) (*models.MediaItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	it, err := f.get(id)
	if err != nil {
		return nil, err
	}
	delete(f.items, id)
	f.deleteCalls = append(f.deleteCalls, id)
	return it, nil
}

func (f *fakeMediaRepo) DeleteByOwner(_ context.Context, userID int64) ([]*models.MediaItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []*models.MediaItem{}
	for id, it := range f.items {
		if f.owners[it.LockID] == userID {
			out = append(out, it)
			delete(f.items, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

var _ media.Repository = (*fakeMediaRepo)(nil)

// --- accounts ---

type fakeAccountsRepo struct {
	mu        sync.Mutex
	items     map[int64]*models.Account
	nextID    int64
	lookupErr error
	deleted   []int64
}

func newFakeAccountsRepo(accounts ...*models.Account) *fakeAccountsRepo {
	f := &fakeAccountsRepo{items: map[int64]*models.Account{}}
	for _, a := range accounts {
		f.items[a.ID] = a
		if a.ID > f.nextID {
			f.nextID = a.ID
		}
	}
	return f
}

func (f *fakeAccountsRepo) find(match func(*models.Account) bool) (*models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.lookupErr != nil {
		return nil, f.lookupErr
	}
	for _, a := range f.items {
		if match(a) {
			cp := *a
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

func eq(p *string, v string) bool { return p != nil && *p == v }

func (f *fakeAccountsRepo) Create(_ context.Context, n models.NewAccount) (*models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	a := &models.Account{
		ID: f.nextID, Name: n.Name, Email: n.Email, PhoneNumber: n.PhoneNumber,
		AuthProvider: n.AuthProvider, ProviderID: n.ProviderID,
	}
	f.items[a.ID] = a
	cp := *a
	return &cp, nil
}

func (f *fakeAccountsRepo) GetByID(_ context.Context, id int64) (*models.Account, error) {
	return f.find(func(a *models.Account) bool { return a.ID == id })
}

func (f *fakeAccountsRepo) GetByEmail(_ context.Context, email string) (*models.Account, error) {
	return f.find(func(a *models.Account) bool { return eq(a.Email, email) })
}

func (f *fakeAccountsRepo) GetByPhone(_ context.Context, phone string) (*models.Account, error) {
	return f.find(func(a *models.Account) bool { return eq(a.PhoneNumber, phone) })
}

func (f *fakeAccountsRepo) GetByProvider(_ context.Context, provider, providerID string) (*models.Account, error) {
	return f.find(func(a *models.Account) bool { return a.AuthProvider == provider && eq(a.ProviderID, providerID) })
}

func (f *fakeAccountsRepo) Update(_ context.Context, id int64, u models.AccountUpdate) (*models.Account, error) {
	f.mu.Lock()
	a, ok := f.items[id]
	if !ok {
		f.mu.Unlock()
		return nil, common.ErrorNotFound
	}
	if v, ok := u.Name.Get(); ok {
		a.Name = &v
	}
	if v, ok := u.AuthProvider.Get(); ok {
		a.AuthProvider = v
	}
	if v, ok := u.ProviderID.Get(); ok {
		a.ProviderID = &v
	}
	f.mu.Unlock()
	return f.GetByID(context.Background(), id)
}

func (f *fakeAccountsRepo) Delete(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.items[id]; !ok {
		return common.ErrorNotFound
	}
	delete(f.items, id)
	f.deleted = append(f.deleted, id)
	return nil
}

var _ accounts.Repository = (*fakeAccountsRepo)(nil)

// --- repo manager ---

type fakeRM struct {
	accounts *fakeAccountsRepo
	locks    *fakeLocksRepo
	media    *fakeMediaRepo
}

func newFakeRM() *fakeRM {
	return &fakeRM{accounts: newFakeAccountsRepo(), locks: newFakeLocksRepo(), media: newFakeMediaRepo()}
}

func (f *fakeRM) RunMigrations(context.Context, *sql.DB) error { return nil }
func (f *fakeRM) Accounts(dbx.DBTX) accounts.Repository        { return f.accounts }
func (f *fakeRM) Locks(dbx.DBTX) locks.Repository              { return f.locks }
func (f *fakeRM) Media(dbx.DBTX) media.Repository              { return f.media }

// --- collaborators ---

type recordingNotifier struct {
	mu     sync.Mutex
	events []notify.MilestoneEvent
	err    error
}

func (r *recordingNotifier) NotifyMilestone(_ context.Context, e notify.MilestoneEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return r.err
}

type fakeStore struct {
	mu      sync.Mutex
	deleted []string
	err     error
}

func (s *fakeStore) Delete(_ context.Context, assetID string, _ bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted = append(s.deleted, assetID)
	return s.err
}

type fakePresignStore struct {
	fakeStore
	presignErr error
}

func (s *fakePresignStore) PresignUpload(_ context.Context, lockID int64) (string, string, error) {
	if s.presignErr != nil {
		return "", "", s.presignErr
	}
	return "locks/1/asset", "https://bucket.example/upload", nil
}
