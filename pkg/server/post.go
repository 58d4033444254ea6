package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/labstack/echo/v4"

	"mirai/pkg/auth"
	"mirai/pkg/schema"
	"mirai/pkg/story"
	"mirai/pkg/utils"
)

type branchReq struct {
	ParentNodeID string `json:"parent_node_id"`
	Decision     string `json:"decision"`
}

// POST /stories
func (s *Server) handlePostStory(c echo.Context) error {
	var req story.CreateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, utils.ErrJSON("invalid json"))
	}
	userID := auth.UserID(c)
	return s.respond(c, func(ctx context.Context) (*schema.Story, error) {
		return s.Stories.CreateStory(ctx, userID, req)
	})
}

// POST /stories/:id/branches
func (s *Server) handlePostBranch(c echo.Context) error {
	var req branchReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, utils.ErrJSON("invalid json"))
	}
	if strings.TrimSpace(req.ParentNodeID) == "" {
		return c.JSON(http.StatusBadRequest, utils.ErrJSON("parent_node_id is required"))
	}
	userID, storyID := auth.UserID(c), c.Param("id")
	return s.respond(c, func(ctx context.Context) (*schema.Story, error) {
		return s.Stories.CreateBranch(ctx, userID, storyID, req.ParentNodeID, req.Decision)
	})
}

// respond runs a node generation. Clients that accept text/event-stream receive "pending"
// events while it runs and a final "data" or "error" event; everyone else waits for JSON.
func (s *Server) respond(c echo.Context, run func(context.Context) (*schema.Story, error)) error {
	ctx := c.Request().Context()
	if !strings.Contains(c.Request().Header.Get(echo.HeaderAccept), "text/event-stream") {
		story, err := run(ctx)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(http.StatusCreated, story)
	}

	w, err := utils.NewSSEWriter(c)
	if err != nil {
		return fail(c, err)
	}
	defer w.Close()

	type outcome struct {
		story *schema.Story
		err   error
	}
	done := make(chan outcome, 1)
	go func() {
		story, err := run(ctx)
		done <- outcome{story, err}
	}()

	start := time.Now()
	ticker := time.NewTicker(s.Heartbeat)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := w.Event("pending", map[string]float64{"elapsed": time.Since(start).Seconds()}); err != nil {
				log.Warn("SSE write error", "err", err)
			}
		case out := <-done:
			if out.err != nil {
				return w.Event("error", map[string]any{"status": statusOf(out.err), "error": out.err.Error()})
			}
			return w.Event("data", out.story)
		}
	}
}
