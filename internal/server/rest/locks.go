package rest

import (
	"encoding/json"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/dmitrijs2005/memorylocks/internal/common"
	"github.com/dmitrijs2005/memorylocks/internal/server/models"
)

func (s *Server) lockDTO(l *models.Lock) lockResponse {
	return toLockResponse(l, s.locks.HashedID(l.ID))
}

func (s *Server) listLocksByUser(c *fiber.Ctx) error {
	userID, err := paramID(c, "userId")
	if err != nil {
		return err
	}

	locks, err := s.locks.ListByUser(c.UserContext(), userID)
	if err != nil {
		return err
	}

	out := make([]lockResponse, 0, len(locks))
	for _, l := range locks {
		out = append(out, s.lockDTO(l))
	}
	return ok(c, out)
}

func (s *Server) getLock(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	lock, err := s.locks.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return ok(c, s.lockDTO(lock))
}

func (s *Server) updateLock(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	var update models.LockUpdate
	if err := json.Unmarshal(c.Body(), &update); err != nil {
		return common.InvalidArgument("malformed JSON body")
	}

	lock, err := s.locks.Update(c.UserContext(), id, update)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, "Lock updated", s.lockDTO(lock))
}

func (s *Server) connectLock(c *fiber.Ctx) error {
	var req connectRequest
	if err := s.bindJSON(c, &req); err != nil {
		return err
	}

	lock, err := s.locks.Connect(c.UserContext(), req.HashedLockID, req.UserID)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, "Lock connected", s.lockDTO(lock))
}

func (s *Server) renameLock(c *fiber.Ctx) error {
	var req renameRequest
	if err := s.bindJSON(c, &req); err != nil {
		return err
	}

	lock, err := s.locks.Rename(c.UserContext(), req.LockID, req.NewName)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, "Lock renamed", s.lockDTO(lock))
}

func (s *Server) toggleSeal(c *fiber.Ctx) error {
	var req lockIDRequest
	if err := s.bindJSON(c, &req); err != nil {
		return err
	}

	lock, err := s.locks.ToggleSeal(c.UserContext(), req.LockID)
	if err != nil {
		return err
	}

	msg := "Lock unsealed"
	if lock.SealDate != nil {
		msg = "Lock sealed"
	}
	return respond(c, fiber.StatusOK, msg, s.lockDTO(lock))
}

func (s *Server) upgradeStorage(c *fiber.Ctx) error {
	var req lockIDRequest
	if err := s.bindJSON(c, &req); err != nil {
		return err
	}

	lock, err := s.locks.UpgradeStorage(c.UserContext(), req.LockID)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, "Storage upgraded", s.lockDTO(lock))
}

func (s *Server) scanLock(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	res, err := s.locks.RecordScan(c.UserContext(), id)
	if err != nil {
		return err
	}
	return ok(c, toScanResponse(res, s.locks.HashedID(id)))
}

func (s *Server) bulkCreateLocks(c *fiber.Ctx) error {
	total, err := strconv.Atoi(c.Params("totalLocks"))
	if err != nil {
		return common.InvalidArgument("totalLocks must be an integer")
	}

	res, err := s.locks.BulkCreate(c.UserContext(), total)
	if err != nil {
		return err
	}

	return created(c, res.Message, bulkCreateResponse{
		batchResponse: batchResponse{Succeeded: res.Succeeded, Failed: res.Failed, FailedIDs: res.FailedIDs},
		Requested:     res.Requested,
		FirstID:       res.FirstID,
		LastID:        res.LastID,
	})
}
