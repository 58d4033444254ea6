package server

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"mirai/pkg/auth"
	"mirai/pkg/schema"
)

func (s *Server) handleGetRoot(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"service": "Mirai Story API",
		"status":  "ok",
	})
}

func (s *Server) handleGetGenres(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"genres": schema.Genres,
		"styles": schema.Styles,
	})
}

// GET /stories
func (s *Server) handleGetStories(c echo.Context) error {
	stories, err := s.Stories.List(c.Request().Context(), auth.UserID(c))
	if err != nil {
		return fail(c, err)
	}
	if stories == nil {
		stories = []*schema.Story{}
	}
	return c.JSON(http.StatusOK, stories)
}

// GET /stories/:id
func (s *Server) handleGetStory(c echo.Context) error {
	story, err := s.Stories.Get(c.Request().Context(), auth.UserID(c), c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, story)
}

// GET /stories/:id/tree
func (s *Server) handleGetTree(c echo.Context) error {
	tree, err := s.Stories.Tree(c.Request().Context(), auth.UserID(c), c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, tree)
}

// GET /videos/stories/:story/nodes/:node
func (s *Server) handleGetVideo(c echo.Context) error {
	path, err := s.Stories.VideoPath(c.Request().Context(), auth.UserID(c), c.Param("story"), c.Param("node"))
	if err != nil {
		return fail(c, err)
	}
	c.Response().Header().Set(echo.HeaderContentType, "video/mp4")
	return c.File(path)
}

// GET /thumbnails/stories/:story/nodes/:node
func (s *Server) handleGetThumbnail(c echo.Context) error {
	path, err := s.Stories.ThumbnailPath(c.Request().Context(), auth.UserID(c), c.Param("story"), c.Param("node"))
	if err != nil {
		return fail(c, err)
	}
	c.Response().Header().Set(echo.HeaderContentType, "image/webp")
	return c.File(path)
}
