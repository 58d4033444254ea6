package server

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"mirai/pkg/auth"
	"mirai/pkg/schema"
	"mirai/pkg/story"
)

// Stories is the story lifecycle the routes drive.
type Stories interface {
	CreateStory(ctx context.Context, userID string, req story.CreateRequest) (*schema.Story, error)
	CreateBranch(ctx context.Context, userID, storyID, parentID, decision string) (*schema.Story, error)
	Get(ctx context.Context, userID, storyID string) (*schema.Story, error)
	Tree(ctx context.Context, userID, storyID string) (*story.TreeNode, error)
	List(ctx context.Context, userID string) ([]*schema.Story, error)
	Delete(ctx context.Context, userID, storyID string) error
	VideoPath(ctx context.Context, userID, storyID, nodeID string) (string, error)
	ThumbnailPath(ctx context.Context, userID, storyID, nodeID string) (string, error)
}

type Server struct {
	Echo    *echo.Echo
	Stories Stories
	Auth    *auth.Issuer

	// Heartbeat is the interval of "pending" events sent to streaming clients while a node generates.
	Heartbeat time.Duration
}

func NewServer(stories Stories, issuer *auth.Issuer) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Logger())
	e.Use(middleware.CORS())

	s := &Server{
		Echo:      e,
		Stories:   stories,
		Auth:      issuer,
		Heartbeat: 15 * time.Second,
	}

	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.Echo.GET("/", s.handleGetRoot)
	s.Echo.GET("/genres", s.handleGetGenres)

	stories := s.Echo.Group("/stories", s.Auth.Middleware())
	stories.POST("", s.handlePostStory)
	stories.GET("", s.handleGetStories)
	stories.GET("/:id", s.handleGetStory)
	stories.GET("/:id/tree", s.handleGetTree)
	stories.POST("/:id/branches", s.handlePostBranch)
	stories.DELETE("/:id", s.handleDeleteStory)

	s.Echo.GET("/videos/stories/:story/nodes/:node", s.handleGetVideo, s.Auth.Middleware())
	s.Echo.GET("/thumbnails/stories/:story/nodes/:node", s.handleGetThumbnail, s.Auth.Middleware())
}

func (s *Server) Start(addr string) error {
	log.Info("server listening", "addr", addr)
	return s.Echo.Start(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	log.Info("shutting down server")
	return s.Echo.Shutdown(ctx)
}
