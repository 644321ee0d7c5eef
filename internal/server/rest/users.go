package rest

import (
	"encoding/json"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/dmitrijs2005/memorylocks/internal/common"
	"github.com/dmitrijs2005/memorylocks/internal/server/models"
	"github.com/dmitrijs2005/memorylocks/internal/server/services"
)

func (s *Server) createAccount(c *fiber.Ctx) error {
	var req createAccountRequest
	if err := s.bindJSON(c, &req); err != nil {
		return err
	}

	account, err := s.accounts.Create(c.UserContext(), req.model())
	if err != nil {
		return err
	}
	return created(c, "User created", toAccountResponse(account))
}

type existCheckResponse struct {
	Exists    bool             `json:"exists"`
	MatchedBy string           `json:"matchedBy,omitempty"`
	User      *accountResponse `json:"user,omitempty"`
}

func (s *Server) existCheck(c *fiber.Ctx) error {
	var req existCheckRequest
	if err := s.bindJSON(c, &req); err != nil {
		return err
	}

	res, err := s.accounts.ExistCheck(c.UserContext(), services.AccountLookup{
		Email:        req.Email,
		PhoneNumber:  req.PhoneNumber,
		AuthProvider: req.AuthProvider,
		ProviderID:   req.ProviderID,
	})
	if err != nil {
		return err
	}

	out := existCheckResponse{Exists: res.Exists, MatchedBy: res.MatchedBy}
	if res.Account != nil {
		a := toAccountResponse(res.Account)
		out.User = &a
	}
	return ok(c, out)
}

func (s *Server) findByIdentifier(c *fiber.Ctx) error {
	var req identifierRequest
	if err := s.bindJSON(c, &req); err != nil {
		return err
	}

	account, err := s.accounts.FindByIdentifier(c.UserContext(), req.Identifier)
	if err != nil {
		return err
	}
	return ok(c, toAccountResponse(account))
}

func (s *Server) findByProvider(c *fiber.Ctx) error {
	var req providerRequest
	if err := s.bindJSON(c, &req); err != nil {
		return err
	}

	account, err := s.accounts.FindByProvider(c.UserContext(), req.AuthProvider, req.ProviderID)
	if err != nil {
		return err
	}
	return ok(c, toAccountResponse(account))
}

func (s *Server) linkProvider(c *fiber.Ctx) error {
	var req linkProviderRequest
	if err := s.bindJSON(c, &req); err != nil {
		return err
	}

	account, err := s.accounts.LinkProvider(c.UserContext(), req.UserID, req.AuthProvider, req.ProviderID)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, "Provider linked", toAccountResponse(account))
}

func (s *Server) getAccount(c *fiber.Ctx) error {
	id, err := paramID(c, "userId")
	if err != nil {
		return err
	}

	account, err := s.accounts.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return ok(c, toAccountResponse(account))
}

func (s *Server) updateAccount(c *fiber.Ctx) error {
	id, err := paramID(c, "userId")
	if err != nil {
		return err
	}

	var update models.AccountUpdate
	if err := json.Unmarshal(c.Body(), &update); err != nil {
		return common.InvalidArgument("malformed JSON body")
	}

	account, err := s.accounts.Update(c.UserContext(), id, update)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, "User updated", toAccountResponse(account))
}

type deleteAccountResponse struct {
	DetachedLocks int64 `json:"detachedLocks"`
	DeletedMedia  int   `json:"deletedMedia"`
}

func (s *Server) deleteAccount(c *fiber.Ctx) error {
	id, err := paramID(c, "userId")
	if err != nil {
		return err
	}

	deleteMedia := false
	if v := c.Query("deleteMedia"); v != "" {
		deleteMedia, err = strconv.ParseBool(v)
		if err != nil {
			return common.InvalidArgument("deleteMedia must be a boolean")
		}
	}

	res, err := s.accounts.Delete(c.UserContext(), id, deleteMedia)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, "User deleted", deleteAccountResponse{
		DetachedLocks: res.DetachedLocks,
		DeletedMedia:  res.DeletedMedia,
	})
}
