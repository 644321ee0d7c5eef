// Package services contains server-side business logic. Services own
// transactions and cross-repository sequences; repositories stay single-table.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/memorylocks/internal/common"
	"github.com/dmitrijs2005/memorylocks/internal/dbx"
	"github.com/dmitrijs2005/memorylocks/internal/logging"
	"github.com/dmitrijs2005/memorylocks/internal/milestone"
	"github.com/dmitrijs2005/memorylocks/internal/obfuscate"
	"github.com/dmitrijs2005/memorylocks/internal/optional"
	"github.com/dmitrijs2005/memorylocks/internal/server/metrics"
	"github.com/dmitrijs2005/memorylocks/internal/server/models"
	"github.com/dmitrijs2005/memorylocks/internal/server/notify"
	"github.com/dmitrijs2005/memorylocks/internal/server/repositories/repomanager"
)

const (
	// MaxBulkLocks bounds a single bulk creation request.
	MaxBulkLocks = 10000
	// BulkBatchSize is the number of inserts per batch.
	BulkBatchSize = 100
)

// ScanResult is the outcome of one recorded scan. Milestone is nil unless
// this scan newly reached one.
type ScanResult struct {
	Lock      *models.Lock
	Milestone *int64
}

// BulkCreateResult reports a bulk lock creation.
type BulkCreateResult struct {
	Requested int
	FirstID   int64
	LastID    int64
	models.BatchResult
	Message string
}

// LockService implements lock lookups, updates, scans and bulk creation.
type LockService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	codec       *obfuscate.Codec
	tracker     *milestone.Tracker
	notifier    notify.Notifier
	metrics     *metrics.Metrics
	logger      logging.Logger
	now         func() time.Time
}

func NewLockService(db *sql.DB, rm repomanager.RepositoryManager, codec *obfuscate.Codec, tracker *milestone.Tracker,
	notifier notify.Notifier, m *metrics.Metrics, logger logging.Logger) *LockService {
	if notifier == nil {
		notifier = notify.Nop{}
	}
	if logger == nil {
		logger = logging.Nop{}
	}
	return &LockService{
		db:          db,
		repomanager: rm,
		codec:       codec,
		tracker:     tracker,
		notifier:    notifier,
		metrics:     m,
		logger:      logger,
		now:         time.Now,
	}
}

// HashedID returns the public identifier of a lock, or "" when it cannot be
// encoded.
func (s *LockService) HashedID(id int64) string {
	h, err := s.codec.Encode(id)
	if err != nil {
		return ""
	}
	return h
}

func (s *LockService) Get(ctx context.Context, id int64) (*models.Lock, error) {
	return s.repomanager.Locks(s.db).GetByID(ctx, id)
}

func (s *LockService) ListByUser(ctx context.Context, userID int64) ([]*models.Lock, error) {
	return s.repomanager.Locks(s.db).ListByUser(ctx, userID)
}

// Update applies a client partial update. Only name, album title and seal
// date are honoured.
func (s *LockService) Update(ctx context.Context, id int64, update models.LockUpdate) (*models.Lock, error) {
	clean := models.LockUpdate{
		Name:       update.Name,
		AlbumTitle: update.AlbumTitle,
		SealDate:   update.SealDate,
	}
	if name, ok := clean.Name.Get(); ok && strings.TrimSpace(name) == "" {
		return nil, common.InvalidArgument("lock name must not be empty")
	}
	if clean.Name.IsNull() || clean.AlbumTitle.IsNull() {
		return nil, common.InvalidArgument("lock name and album title cannot be null")
	}
	return s.repomanager.Locks(s.db).Update(ctx, id, clean)
}

// Rename sets the lock name to the trimmed name.
func (s *LockService) Rename(ctx context.Context, id int64, name string) (*models.Lock, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, common.InvalidArgument("lock name must not be empty")
	}
	return s.repomanager.Locks(s.db).Update(ctx, id, models.LockUpdate{Name: optional.Of(name)})
}

// ToggleSeal sets the seal date to today when unset and clears it otherwise.
func (s *LockService) ToggleSeal(ctx context.Context, id int64) (*models.Lock, error) {
	var lock *models.Lock
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Locks(tx)

		current, err := repo.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}

		update := models.LockUpdate{SealDate: optional.Null[models.Date]()}
		if current.SealDate == nil {
			update.SealDate = optional.Of(models.DateOf(s.now()))
		}

		lock, err = repo.Update(ctx, id, update)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("toggle seal: %w", err)
	}
	return lock, nil
}

// UpgradeStorage moves the lock to the upgraded storage tier. The upgrade
// is one-way; upgrading an upgraded lock is a no-op.
func (s *LockService) UpgradeStorage(ctx context.Context, id int64) (*models.Lock, error) {
	repo := s.repomanager.Locks(s.db)

	lock, err := repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if lock.UpgradedStorage {
		return lock, nil
	}
	return repo.Update(ctx, id, models.LockUpdate{UpgradedStorage: optional.Of(true)})
}

// Connect attaches the lock behind hashedLockID to the account userID.
func (s *LockService) Connect(ctx context.Context, hashedLockID string, userID int64) (*models.Lock, error) {
	hashedLockID = strings.TrimSpace(hashedLockID)
	if hashedLockID == "" || userID <= 0 {
		return nil, common.InvalidArgument("hashedLockId and userId are required")
	}

	lockID, ok := s.codec.Decode(hashedLockID)
	if !ok {
		return nil, common.InvalidArgument("invalid lock identifier")
	}

	if _, err := s.repomanager.Accounts(s.db).GetByID(ctx, userID); err != nil {
		return nil, fmt.Errorf("account %d: %w", userID, err)
	}

	lock, err := s.repomanager.Locks(s.db).Update(ctx, lockID, models.LockUpdate{UserID: optional.Of(userID)})
	if err != nil {
		return nil, fmt.Errorf("lock %d: %w", lockID, err)
	}
	return lock, nil
}

// RecordScan increments the scan counter of a lock and reports a newly
// reached milestone. The read and the write run in one transaction with the
// row locked, so concurrent scans of a lock are serialised. A reached
// milestone is dispatched once, after commit; dispatch failures are logged
// and never fail the scan.
func (s *LockService) RecordScan(ctx context.Context, id int64) (*ScanResult, error) {
	var (
		result  ScanResult
		reached bool
	)

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Locks(tx)

		current, err := repo.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}

		count, last, ok := s.tracker.Next(current.ScanCount, current.LastScanMilestone)
		update := models.LockUpdate{ScanCount: optional.Of(count)}
		if ok {
			update.LastScanMilestone = optional.Of(last)
		}

		lock, err := repo.Update(ctx, id, update)
		if err != nil {
			return err
		}

		result.Lock = lock
		reached = ok
		if ok {
			m := last
			result.Milestone = &m
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("record scan: %w", err)
	}

	s.metrics.Scan()

	if reached {
		s.metrics.MilestoneReached(*result.Milestone)
		s.dispatchMilestone(ctx, result.Lock, *result.Milestone)
	}

	return &result, nil
}

func (s *LockService) dispatchMilestone(ctx context.Context, lock *models.Lock, value int64) {
	event := notify.MilestoneEvent{
		LockID:     lock.ID,
		HashedID:   s.HashedID(lock.ID),
		LockName:   lock.Name,
		AlbumTitle: lock.AlbumTitle,
		UserID:     lock.UserID,
		Milestone:  value,
		ScanCount:  lock.ScanCount,
		OccurredAt: s.now().UTC(),
	}

	if err := s.notifier.NotifyMilestone(ctx, event); err != nil {
		s.metrics.NotifyFailed()
		s.logger.Error(ctx, "milestone notification failed", "lock_id", lock.ID, "milestone", value, "error", err)
		return
	}
	s.logger.Info(ctx, "milestone reached", "lock_id", lock.ID, "milestone", value)
}

// BulkCreate inserts total placeholder locks with ids following the current
// maximum, one multi-row INSERT per batch. A failed batch is retried row by
// row so that only the conflicting ids are reported.
// The id sequence is moved past the new ids afterwards.
func (s *LockService) BulkCreate(ctx context.Context, total int) (*BulkCreateResult, error) {
	if total < 1 || total > MaxBulkLocks {
		return nil, common.InvalidArgument(fmt.Sprintf("totalLocks must be between 1 and %d", MaxBulkLocks))
	}

	repo := s.repomanager.Locks(s.db)

	maxID, err := repo.MaxID(ctx)
	if err != nil {
		return nil, fmt.Errorf("bulk create: %w", err)
	}

	res := &BulkCreateResult{
		Requested:   total,
		FirstID:     maxID + 1,
		LastID:      maxID + int64(total),
		BatchResult: models.BatchResult{FailedIDs: []int64{}},
	}

	lock := models.NewLock{Name: common.DefaultLockName, AlbumTitle: common.BulkAlbumTitle}

	for start := res.FirstID; start <= res.LastID; start += BulkBatchSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		end := min(start+BulkBatchSize-1, res.LastID)
		ids := make([]int64, 0, end-start+1)
		for id := start; id <= end; id++ {
			ids = append(ids, id)
		}

		err := repo.CreateBatch(ctx, ids, lock)
		if err == nil {
			res.Succeeded += len(ids)
			s.logger.Debug(ctx, "bulk lock batch done", "from", start, "to", end)
			continue
		}
		s.logger.Warn(ctx, "bulk lock batch failed, retrying row by row", "from", start, "to", end, "error", err)

		for _, id := range ids {
			if err := repo.CreateWithID(ctx, id, lock); err != nil {
				res.Failed++
				res.FailedIDs = append(res.FailedIDs, id)
				s.logger.Warn(ctx, "bulk lock insert failed", "lock_id", id, "error", err)
				continue
			}
			res.Succeeded++
		}
	}

	if err := repo.SyncIDSequence(ctx); err != nil {
		return nil, fmt.Errorf("bulk create: sync id sequence: %w", err)
	}

	s.metrics.BulkItems("lock_create", res.Succeeded, res.Failed)

	if res.Failed == 0 {
		res.Message = fmt.Sprintf("Successfully created %d locks (%d to %d)", res.Succeeded, res.FirstID, res.LastID)
	} else {
		res.Message = fmt.Sprintf("Created %d locks (%d to %d), %d failed", res.Succeeded, res.FirstID, res.LastID, res.Failed)
	}

	return res, nil
}

// IsNotFound reports whether err means the referenced entity is absent.
func IsNotFound(err error) bool {
	return errors.Is(err, common.ErrorNotFound)
}
