package rest

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"

	"github.com/dmitrijs2005/memorylocks/internal/common"
	"github.com/dmitrijs2005/memorylocks/internal/server/models"
)

func (s *Server) createMedia(c *fiber.Ctx) error {
	var req createMediaRequest
	if err := s.bindJSON(c, &req); err != nil {
		return err
	}

	item, err := s.media.Create(c.UserContext(), req.model())
	if err != nil {
		return err
	}
	return created(c, "Media object created", toMediaResponse(item))
}

func (s *Server) listMedia(c *fiber.Ctx) error {
	lockID, err := paramID(c, "lockId")
	if err != nil {
		return err
	}

	items, err := s.media.ListByLock(c.UserContext(), lockID)
	if err != nil {
		return err
	}
	return ok(c, toMediaList(items))
}

func (s *Server) updateMedia(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	var update models.MediaUpdate
	if err := json.Unmarshal(c.Body(), &update); err != nil {
		return common.InvalidArgument("malformed JSON body")
	}

	item, err := s.media.Update(c.UserContext(), id, update)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, "Media object updated", toMediaResponse(item))
}

func (s *Server) deleteMedia(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	item, err := s.media.Delete(c.UserContext(), id)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, "Media object deleted", toMediaResponse(item))
}

func (s *Server) batchReorder(c *fiber.Ctx) error {
	var req reorderRequest
	if err := s.bindJSON(c, &req); err != nil {
		return err
	}

	res, err := s.media.BatchReorder(c.UserContext(), req.model())
	if err != nil {
		return err
	}

	msg := "Display order updated"
	if res.Failed > 0 {
		msg = "Display order partially updated"
	}
	return respond(c, fiber.StatusOK, msg, batchResponse{
		Succeeded: res.Succeeded,
		Failed:    res.Failed,
		FailedIDs: res.FailedIDs,
	})
}

type uploadURLResponse struct {
	StorageAssetID string `json:"storageAssetId"`
	UploadURL      string `json:"uploadUrl"`
}

func (s *Server) uploadURL(c *fiber.Ctx) error {
	var req lockIDRequest
	if err := s.bindJSON(c, &req); err != nil {
		return err
	}

	target, err := s.media.UploadURL(c.UserContext(), req.LockID)
	if err != nil {
		return err
	}
	return ok(c, uploadURLResponse{StorageAssetID: target.StorageAssetID, UploadURL: target.UploadURL})
}
