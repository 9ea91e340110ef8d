package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/julianstephens/goalkeeper/internal/constants"
	"github.com/julianstephens/goalkeeper/internal/feed"
	"github.com/julianstephens/goalkeeper/internal/models"
)

type MembershipResponse struct {
	Joined    bool             `json:"joined"`
	Community models.Community `json:"community"`
}

type PostRequest struct {
	Content  string `json:"content"`
	ClientID string `json:"client_id"`
}

type LikeResponse struct {
	Liked      bool `json:"liked"`
	LikesCount int  `json:"likes_count"`
}

type CommentRequest struct {
	Content string `json:"content"`
}

func (s *Server) handleListCommunities(c echo.Context) error {
	out, err := s.deps.Feed.ListCommunities(c.Request().Context(), userID(c))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) handleToggleMembership(c echo.Context) error {
	joined, community, err := s.deps.Feed.ToggleMembership(c.Request().Context(), c.Param("id"), userID(c))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, MembershipResponse{Joined: joined, Community: community})
}

func (s *Server) handleListPosts(c echo.Context) error {
	limit := 0
	if v := c.QueryParam("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "limit must be a non-negative integer")
		}
		limit = n
	}
	posts, err := s.deps.Feed.ListPosts(c.Request().Context(), c.Param("id"), limit)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, posts)
}

func (s *Server) handleCreatePost(c echo.Context) error {
	var req PostRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	post, err := s.deps.Feed.CreatePost(c.Request().Context(), userID(c), c.Param("id"), req.Content, req.ClientID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, post)
}

func (s *Server) handleToggleLike(c echo.Context) error {
	liked, n, err := s.deps.Feed.ToggleLike(c.Request().Context(), c.Param("id"), userID(c))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, LikeResponse{Liked: liked, LikesCount: n})
}

func (s *Server) handleListComments(c echo.Context) error {
	out, err := s.deps.Feed.ListComments(c.Request().Context(), c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) handleAddComment(c echo.Context) error {
	var req CommentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	comment, err := s.deps.Feed.AddComment(c.Request().Context(), userID(c), c.Param("id"), req.Content)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, comment)
}

// handleStream sends a community's new posts as server-sent events until the
// client disconnects, with a heartbeat comment to keep proxies from closing
// an idle connection.
func (s *Server) handleStream(c echo.Context) error {
	if s.deps.NATS == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "realtime feed not available")
	}
	communityID := c.Param("id")

	ctx, cancel := context.WithCancel(c.Request().Context())
	defer cancel()

	events := make(chan feed.Event, 16)
	err := feed.Subscribe(ctx, s.deps.NATS, communityID, func(ev feed.Event) {
		select {
		case events <- ev:
		case <-ctx.Done():
		}
	})
	if err != nil {
		return httpError(err)
	}

	w := c.Response()
	w.Header().Set(echo.HeaderContentType, "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, ": connected\n\n")
	w.Flush()

	ticker := time.NewTicker(constants.SSEHeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case ev := <-events:
			data, err := json.Marshal(ev)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "event: %s\n", ev.Type)
			fmt.Fprintf(w, "data: %s\n\n", data)
			w.Flush()
		case <-ticker.C:
			fmt.Fprint(w, ": heartbeat\n\n")
			w.Flush()
		case <-ctx.Done():
			return nil
		}
	}
}
