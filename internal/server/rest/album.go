package rest

import (
	"github.com/gofiber/fiber/v2"
)

func (s *Server) getAlbum(c *fiber.Ctx) error {
	album, err := s.albums.Get(c.UserContext(), c.Params("identifier"))
	if err != nil {
		return err
	}

	return ok(c, albumResponse{
		Lock:  toLockResponse(album.Lock, album.HashedID),
		Media: toMediaList(album.Media),
	})
}

func (s *Server) scanAlbum(c *fiber.Ctx) error {
	res, err := s.albums.Scan(c.UserContext(), c.Params("identifier"))
	if err != nil {
		return err
	}
	return ok(c, toScanResponse(res, s.locks.HashedID(res.Lock.ID)))
}
