package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/memorylocks/internal/common"
	"github.com/dmitrijs2005/memorylocks/internal/dbx"
	"github.com/dmitrijs2005/memorylocks/internal/logging"
	"github.com/dmitrijs2005/memorylocks/internal/optional"
	"github.com/dmitrijs2005/memorylocks/internal/server/metrics"
	"github.com/dmitrijs2005/memorylocks/internal/server/models"
	"github.com/dmitrijs2005/memorylocks/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/memorylocks/internal/server/storage"
)

// AccountLookup names the keys an existence check may use. Empty keys are
// ignored.
type AccountLookup struct {
	Email        string
	PhoneNumber  string
	AuthProvider string
	ProviderID   string
}

func (l AccountLookup) empty() bool {
	return l.Email == "" && l.PhoneNumber == "" && (l.AuthProvider == "" || l.ProviderID == "")
}

// ExistResult reports which lookup key matched an account.
type ExistResult struct {
	Exists    bool
	MatchedBy string
	Account   *models.Account
}

// DeleteResult reports the effects of an account deletion.
type DeleteResult struct {
	DetachedLocks int64
	DeletedMedia  int
}

// AccountService manages user accounts.
type AccountService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	store       storage.AssetStore
	metrics     *metrics.Metrics
	logger      logging.Logger
}

func NewAccountService(db *sql.DB, rm repomanager.RepositoryManager, store storage.AssetStore, m *metrics.Metrics, logger logging.Logger) *AccountService {
	if store == nil {
		store = storage.Nop{}
	}
	if logger == nil {
		logger = logging.Nop{}
	}
	return &AccountService{db: db, repomanager: rm, store: store, metrics: m, logger: logger}
}

func trimPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

// Create registers an account. Taken emails, phone numbers and provider
// pairs are reported as ErrorConflict before the insert; the unique
// constraints still back the check.
func (s *AccountService) Create(ctx context.Context, account models.NewAccount) (*models.Account, error) {
	account.Name = trimPtr(account.Name)
	account.Email = trimPtr(account.Email)
	account.PhoneNumber = trimPtr(account.PhoneNumber)
	account.ProviderID = trimPtr(account.ProviderID)
	account.AuthProvider = strings.TrimSpace(account.AuthProvider)
	if account.AuthProvider == "" {
		account.AuthProvider = models.AuthProviderEmail
	}

	if account.Email == nil && account.PhoneNumber == nil && account.ProviderID == nil {
		return nil, common.InvalidArgument("email, phoneNumber or providerId is required")
	}

	lookup := AccountLookup{AuthProvider: account.AuthProvider}
	if account.Email != nil {
		lookup.Email = *account.Email
	}
	if account.PhoneNumber != nil {
		lookup.PhoneNumber = *account.PhoneNumber
	}
	if account.ProviderID != nil {
		lookup.ProviderID = *account.ProviderID
	}

	found, err := s.ExistCheck(ctx, lookup)
	if err != nil {
		return nil, err
	}
	if found.Exists {
		return nil, fmt.Errorf("account with this %s already exists: %w", found.MatchedBy, common.ErrorConflict)
	}

	return s.repomanager.Accounts(s.db).Create(ctx, account)
}

func (s *AccountService) Get(ctx context.Context, id int64) (*models.Account, error) {
	return s.repomanager.Accounts(s.db).GetByID(ctx, id)
}

func (s *AccountService) Update(ctx context.Context, id int64, update models.AccountUpdate) (*models.Account, error) {
	if update.AuthProvider.IsNull() || update.EmailVerified.IsNull() || update.PhoneVerified.IsNull() {
		return nil, common.InvalidArgument("authProvider, emailVerified and phoneVerified cannot be null")
	}
	return s.repomanager.Accounts(s.db).Update(ctx, id, update)
}

// ExistCheck looks the lookup keys up in order email, phone number,
// provider pair and reports the first match.
func (s *AccountService) ExistCheck(ctx context.Context, lookup AccountLookup) (*ExistResult, error) {
	if lookup.empty() {
		return nil, common.InvalidArgument("email, phoneNumber or authProvider with providerId is required")
	}

	repo := s.repomanager.Accounts(s.db)

	type probe struct {
		name string
		skip bool
		find func() (*models.Account, error)
	}
	probes := []probe{
		{"email", lookup.Email == "", func() (*models.Account, error) { return repo.GetByEmail(ctx, lookup.Email) }},
		{"phoneNumber", lookup.PhoneNumber == "", func() (*models.Account, error) { return repo.GetByPhone(ctx, lookup.PhoneNumber) }},
		{"provider", lookup.AuthProvider == "" || lookup.ProviderID == "", func() (*models.Account, error) {
			return repo.GetByProvider(ctx, lookup.AuthProvider, lookup.ProviderID)
		}},
	}

	for _, p := range probes {
		if p.skip {
			continue
		}
		account, err := p.find()
		if errors.Is(err, common.ErrorNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return &ExistResult{Exists: true, MatchedBy: p.name, Account: account}, nil
	}

	return &ExistResult{}, nil
}

// FindByIdentifier treats identifiers containing "@" as emails and anything
// else as phone numbers.
func (s *AccountService) FindByIdentifier(ctx context.Context, identifier string) (*models.Account, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, common.InvalidArgument("identifier is required")
	}

	repo := s.repomanager.Accounts(s.db)
	if strings.Contains(identifier, "@") {
		return repo.GetByEmail(ctx, identifier)
	}
	return repo.GetByPhone(ctx, identifier)
}

func (s *AccountService) FindByProvider(ctx context.Context, provider, providerID string) (*models.Account, error) {
	provider, providerID = strings.TrimSpace(provider), strings.TrimSpace(providerID)
	if provider == "" || providerID == "" {
		return nil, common.InvalidArgument("authProvider and providerId are required")
	}
	return s.repomanager.Accounts(s.db).GetByProvider(ctx, provider, providerID)
}

// LinkProvider attaches a provider pair to the account. Linking a pair the
// account already holds is a no-op; a pair held by another account is a
// conflict.
func (s *AccountService) LinkProvider(ctx context.Context, userID int64, provider, providerID string) (*models.Account, error) {
	provider, providerID = strings.TrimSpace(provider), strings.TrimSpace(providerID)
	if userID <= 0 || provider == "" || providerID == "" {
		return nil, common.InvalidArgument("userId, authProvider and providerId are required")
	}

	repo := s.repomanager.Accounts(s.db)

	owner, err := repo.GetByProvider(ctx, provider, providerID)
	switch {
	case err == nil && owner.ID == userID:
		return owner, nil
	case err == nil:
		return nil, fmt.Errorf("provider already linked to another account: %w", common.ErrorConflict)
	case !errors.Is(err, common.ErrorNotFound):
		return nil, err
	}

	return repo.Update(ctx, userID, models.AccountUpdate{
		AuthProvider: optional.Of(provider),
		ProviderID:   optional.Of(providerID),
	})
}

// Delete removes an account. Owned locks are detached and, when deleteMedia
// is set, their media rows deleted in the same transaction. Stored assets of
// deleted media are removed best effort after commit.
func (s *AccountService) Delete(ctx context.Context, id int64, deleteMedia bool) (*DeleteResult, error) {
	var (
		res     DeleteResult
		removed []*models.MediaItem
	)

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := s.repomanager.Accounts(tx).GetByID(ctx, id); err != nil {
			return err
		}

		if deleteMedia {
			items, err := s.repomanager.Media(tx).DeleteByOwner(ctx, id)
			if err != nil {
				return err
			}
			removed = items
		}

		detached, err := s.repomanager.Locks(tx).DetachOwner(ctx, id)
		if err != nil {
			return err
		}
		res.DetachedLocks = detached

		return s.repomanager.Accounts(tx).Delete(ctx, id)
	})
	if err != nil {
		return nil, fmt.Errorf("delete account %d: %w", id, err)
	}

	res.DeletedMedia = len(removed)
	removeAssets(ctx, s.store, s.metrics, s.logger, removed)

	s.logger.Info(ctx, "account deleted", "user_id", id, "detached_locks", res.DetachedLocks, "deleted_media", res.DeletedMedia)
	return &res, nil
}
