// Package accounts provides the PostgreSQL-backed repository of user
// accounts (the users table).
package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/memorylocks/internal/common"
	"github.com/dmitrijs2005/memorylocks/internal/dbx"
	"github.com/dmitrijs2005/memorylocks/internal/server/models"
)

const accountColumns = `id, name, email, phone_number, auth_provider, provider_id,
		email_verified, phone_verified, created_at, last_login_at`

// PostgresRepository implements account storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func nullableString(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	return &s.String
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, args ...any) (*models.Account, error) {
	var (
		a                              models.Account
		name, email, phone, providerID sql.NullString
		lastLoginAt                    sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&a.ID, &name, &email, &phone, &a.AuthProvider,
		&providerID, &a.EmailVerified, &a.PhoneVerified, &a.CreatedAt, &lastLoginAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, common.DBError(err)
	}

	a.Name = nullableString(name)
	a.Email = nullableString(email)
	a.PhoneNumber = nullableString(phone)
	a.ProviderID = nullableString(providerID)
	if lastLoginAt.Valid {
		a.LastLoginAt = &lastLoginAt.Time
	}
	return &a, nil
}

// Create inserts an account. An empty provider defaults to "email".
// Uniqueness violations surface as common.ErrorConflict.
func (r *PostgresRepository) Create(ctx context.Context, account models.NewAccount) (*models.Account, error) {
	provider := account.AuthProvider
	if provider == "" {
		provider = models.AuthProviderEmail
	}

	query := `INSERT INTO users (name, email, phone_number, auth_provider, provider_id, email_verified, phone_verified)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + accountColumns

	return r.getOne(ctx, query, account.Name, account.Email, account.PhoneNumber, provider, account.ProviderID,
		account.EmailVerified, account.PhoneVerified)
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*models.Account, error) {
	return r.getOne(ctx, `SELECT `+accountColumns+` FROM users WHERE id = $1`, id)
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	return r.getOne(ctx, `SELECT `+accountColumns+` FROM users WHERE email = $1`, email)
}

func (r *PostgresRepository) GetByPhone(ctx context.Context, phone string) (*models.Account, error) {
	return r.getOne(ctx, `SELECT `+accountColumns+` FROM users WHERE phone_number = $1`, phone)
}

func (r *PostgresRepository) GetByProvider(ctx context.Context, provider, providerID string) (*models.Account, error) {
	return r.getOne(ctx, `SELECT `+accountColumns+` FROM users WHERE auth_provider = $1 AND provider_id = $2`,
		provider, providerID)
}

// Update writes only the fields set in update and returns the reloaded
// account.
func (r *PostgresRepository) Update(ctx context.Context, id int64, update models.AccountUpdate) (*models.Account, error) {
	b := dbx.NewUpdate("users")
	dbx.SetField(b, "name", update.Name)
	dbx.SetField(b, "email", update.Email)
	dbx.SetField(b, "phone_number", update.PhoneNumber)
	dbx.SetField(b, "auth_provider", update.AuthProvider)
	dbx.SetField(b, "provider_id", update.ProviderID)
	dbx.SetField(b, "email_verified", update.EmailVerified)
	dbx.SetField(b, "phone_verified", update.PhoneVerified)
	dbx.SetField(b, "last_login_at", update.LastLoginAt)

	query, args, err := b.Build("id", id)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrorInvalidArgument, err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return nil, common.DBError(err)
	}

	return r.GetByID(ctx, id)
}

// Delete removes the account. Locks keep existing with user_id cleared by
// the foreign key.
func (r *PostgresRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return common.DBError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	switch n {
	case 1:
		return nil
	case 0:
		return common.ErrorNotFound
	default:
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
}
