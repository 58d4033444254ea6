package server

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"mirai/pkg/auth"
)

// DELETE /stories/:id
func (s *Server) handleDeleteStory(c echo.Context) error {
	if err := s.Stories.Delete(c.Request().Context(), auth.UserID(c), c.Param("id")); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
