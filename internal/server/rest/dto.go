package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/dmitrijs2005/memorylocks/internal/common"
	"github.com/dmitrijs2005/memorylocks/internal/server/models"
	"github.com/dmitrijs2005/memorylocks/internal/server/services"
)

// --- requests ---

type connectRequest struct {
	HashedLockID string `json:"hashedLockId" validate:"required"`
	UserID       int64  `json:"userId" validate:"required,gt=0"`
}

type renameRequest struct {
	LockID  int64  `json:"lockId" validate:"required,gt=0"`
	NewName string `json:"newName" validate:"required"`
}

type lockIDRequest struct {
	LockID int64 `json:"lockId" validate:"required,gt=0"`
}

type createMediaRequest struct {
	LockID          int64   `json:"lockId" validate:"required,gt=0"`
	StorageAssetID  string  `json:"storageAssetId" validate:"required"`
	URL             string  `json:"url" validate:"required"`
	ThumbnailURL    *string `json:"thumbnailUrl"`
	FileName        *string `json:"fileName"`
	IsImage         *bool   `json:"isImage"`
	IsMainPicture   bool    `json:"isMainPicture"`
	DisplayOrder    int     `json:"displayOrder" validate:"gte=0"`
	DurationSeconds *int    `json:"durationSeconds" validate:"omitempty,gte=0"`
}

func (r createMediaRequest) model() models.NewMediaItem {
	isImage := true
	if r.IsImage != nil {
		isImage = *r.IsImage
	}
	return models.NewMediaItem{
		LockID:          r.LockID,
		StorageAssetID:  r.StorageAssetID,
		URL:             r.URL,
		ThumbnailURL:    r.ThumbnailURL,
		FileName:        r.FileName,
		IsImage:         isImage,
		IsMainPicture:   r.IsMainPicture,
		DisplayOrder:    r.DisplayOrder,
		DurationSeconds: r.DurationSeconds,
	}
}

type reorderItem struct {
	ID           int64 `json:"id" validate:"required,gt=0"`
	DisplayOrder *int  `json:"displayOrder" validate:"required,gte=0"`
}

type reorderRequest struct {
	Updates []reorderItem `json:"updates" validate:"required,min=1,dive"`
}

func (r reorderRequest) model() []models.OrderUpdate {
	out := make([]models.OrderUpdate, 0, len(r.Updates))
	for _, u := range r.Updates {
		out = append(out, models.OrderUpdate{ID: u.ID, DisplayOrder: *u.DisplayOrder})
	}
	return out
}

type createAccountRequest struct {
	Name          *string `json:"name"`
	Email         *string `json:"email" validate:"omitempty,email"`
	PhoneNumber   *string `json:"phoneNumber"`
	AuthProvider  string  `json:"authProvider"`
	ProviderID    *string `json:"providerId"`
	EmailVerified bool    `json:"emailVerified"`
	PhoneVerified bool    `json:"phoneVerified"`
}

func (r createAccountRequest) model() models.NewAccount {
	return models.NewAccount{
		Name:          r.Name,
		Email:         r.Email,
		PhoneNumber:   r.PhoneNumber,
		AuthProvider:  r.AuthProvider,
		ProviderID:    r.ProviderID,
		EmailVerified: r.EmailVerified,
		PhoneVerified: r.PhoneVerified,
	}
}

type existCheckRequest struct {
	Email        string `json:"email"`
	PhoneNumber  string `json:"phoneNumber"`
	AuthProvider string `json:"authProvider"`
	ProviderID   string `json:"providerId"`
}

type identifierRequest struct {
	Identifier string `json:"identifier" validate:"required"`
}

type providerRequest struct {
	AuthProvider string `json:"authProvider" validate:"required"`
	ProviderID   string `json:"providerId" validate:"required"`
}

type linkProviderRequest struct {
	UserID       int64  `json:"userId" validate:"required,gt=0"`
	AuthProvider string `json:"authProvider" validate:"required"`
	ProviderID   string `json:"providerId" validate:"required"`
}

// --- responses ---

type lockResponse struct {
	ID                int64        `json:"id"`
	HashedID          string       `json:"hashedId,omitempty"`
	LockName          string       `json:"lockName"`
	AlbumTitle        string       `json:"albumTitle"`
	SealDate          *models.Date `json:"sealDate"`
	ScanCount         int64        `json:"scanCount"`
	LastScanMilestone int64        `json:"lastScanMilestone"`
	UserID            *int64       `json:"userId"`
	UpgradedStorage   bool         `json:"upgradedStorage"`
	CreatedAt         time.Time    `json:"createdAt"`
}

func toLockResponse(l *models.Lock, hashedID string) lockResponse {
	return lockResponse{
		ID:                l.ID,
		HashedID:          hashedID,
		LockName:          l.Name,
		AlbumTitle:        l.AlbumTitle,
		SealDate:          l.SealDate,
		ScanCount:         l.ScanCount,
		LastScanMilestone: l.LastScanMilestone,
		UserID:            l.UserID,
		UpgradedStorage:   l.UpgradedStorage,
		CreatedAt:         l.CreatedAt,
	}
}

type mediaResponse struct {
	ID              int64     `json:"id"`
	LockID          int64     `json:"lockId"`
	StorageAssetID  string    `json:"storageAssetId"`
	URL             string    `json:"url"`
	ThumbnailURL    *string   `json:"thumbnailUrl"`
	FileName        *string   `json:"fileName"`
	IsImage         bool      `json:"isImage"`
	IsMainPicture   bool      `json:"isMainPicture"`
	DisplayOrder    int       `json:"displayOrder"`
	DurationSeconds *int      `json:"durationSeconds"`
	CreatedAt       time.Time `json:"createdAt"`
}

func toMediaResponse(m *models.MediaItem) mediaResponse {
	return mediaResponse{
		ID:              m.ID,
		LockID:          m.LockID,
		StorageAssetID:  m.StorageAssetID,
		URL:             m.URL,
		ThumbnailURL:    m.ThumbnailURL,
		FileName:        m.FileName,
		IsImage:         m.IsImage,
		IsMainPicture:   m.IsMainPicture,
		DisplayOrder:    m.DisplayOrder,
		DurationSeconds: m.DurationSeconds,
		CreatedAt:       m.CreatedAt,
	}
}

func toMediaList(items []*models.MediaItem) []mediaResponse {
	out := make([]mediaResponse, 0, len(items))
	for _, m := range items {
		out = append(out, toMediaResponse(m))
	}
	return out
}

type accountResponse struct {
	ID            int64      `json:"id"`
	Name          *string    `json:"name"`
	Email         *string    `json:"email"`
	PhoneNumber   *string    `json:"phoneNumber"`
	AuthProvider  string     `json:"authProvider"`
	ProviderID    *string    `json:"providerId"`
	EmailVerified bool       `json:"emailVerified"`
	PhoneVerified bool       `json:"phoneVerified"`
	CreatedAt     time.Time  `json:"createdAt"`
	LastLoginAt   *time.Time `json:"lastLoginAt"`
}

func toAccountResponse(a *models.Account) accountResponse {
	return accountResponse{
		ID:            a.ID,
		Name:          a.Name,
		Email:         a.Email,
		PhoneNumber:   a.PhoneNumber,
		AuthProvider:  a.AuthProvider,
		ProviderID:    a.ProviderID,
		EmailVerified: a.EmailVerified,
		PhoneVerified: a.PhoneVerified,
		CreatedAt:     a.CreatedAt,
		LastLoginAt:   a.LastLoginAt,
	}
}

type scanResponse struct {
	Lock             lockResponse `json:"lock"`
	MilestoneReached bool         `json:"milestoneReached"`
	Milestone        *int64       `json:"milestone"`
}

func toScanResponse(r *services.ScanResult, hashedID string) scanResponse {
	return scanResponse{
		Lock:             toLockResponse(r.Lock, hashedID),
		MilestoneReached: r.Milestone != nil,
		Milestone:        r.Milestone,
	}
}

type batchResponse struct {
	Succeeded int     `json:"succeeded"`
	Failed    int     `json:"failed"`
	FailedIDs []int64 `json:"failedIds"`
}

type bulkCreateResponse struct {
	batchResponse
	Requested int   `json:"requested"`
	FirstID   int64 `json:"firstId"`
	LastID    int64 `json:"lastId"`
}

type albumResponse struct {
	Lock  lockResponse    `json:"lock"`
	Media []mediaResponse `json:"media"`
}

// --- binding ---

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// bindJSON decodes the request body into dst and validates it. Any failure
// is an invalid argument.
func (s *Server) bindJSON(c *fiber.Ctx, dst any) error {
	body := c.Body()
	if len(body) == 0 {
		return common.InvalidArgument("request body is required")
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return common.InvalidArgument("malformed JSON body")
	}
	if err := s.validate.Struct(dst); err != nil {
		return validationError(err)
	}
	return nil
}

func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return common.InvalidArgument(err.Error())
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := fe.Namespace()
		if _, rest, found := strings.Cut(field, "."); found {
			field = rest
		}
		msgs = append(msgs, fmt.Sprintf("%s failed on %s", field, fe.Tag()))
	}
	return common.InvalidArgument(strings.Join(msgs, "; "))
}

// paramID parses a positive integer path parameter.
func paramID(c *fiber.Ctx, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Params(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, common.InvalidArgument(fmt.Sprintf("%s must be a positive integer", name))
	}
	return id, nil
}
