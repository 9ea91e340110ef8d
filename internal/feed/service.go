package feed

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/goalkeeper/internal/constants"
	"github.com/julianstephens/goalkeeper/internal/logger"
	"github.com/julianstephens/goalkeeper/internal/models"
	"github.com/julianstephens/goalkeeper/internal/storage"
)

var ErrEmptyContent = errors.New("content cannot be empty")

// DefaultPostLimit caps ListPosts when no limit is given.
const DefaultPostLimit = 50

// CommunityView is a community plus whether the caller belongs to it.
type CommunityView struct {
	models.Community
	Joined bool `json:"joined"`
}

type Service struct {
	repo storage.CommunityRepository
	pub  Publisher
	now  func() time.Time
}

// NewService builds a feed service. pub may be nil, in which case posts are
// stored but not broadcast.
func NewService(repo storage.CommunityRepository, pub Publisher) *Service {
	return &Service{repo: repo, pub: pub, now: time.Now}
}

func (s *Service) ListCommunities(ctx context.Context, userID string) ([]CommunityView, error) {
	communities, err := s.repo.ListCommunities(ctx)
	if err != nil {
		return nil, err
	}
	joined := map[string]bool{}
	if userID != "" {
		ids, err := s.repo.ListMemberships(ctx, userID)
		if err != nil {
			return nil, err
		}
		for _, id := range ids {
			joined[id] = true
		}
	}

	out := make([]CommunityView, len(communities))
	for i, c := range communities {
		out[i] = CommunityView{Community: c, Joined: joined[c.ID]}
	}
	return out, nil
}

// ToggleMembership joins or leaves a community and returns the community
// with its refreshed member count.
func (s *Service) ToggleMembership(ctx context.Context, communityID, userID string) (bool, models.Community, error) {
	if _, err := s.repo.GetCommunity(ctx, communityID); err != nil {
		return false, models.Community{}, err
	}
	joined, err := s.repo.ToggleMembership(ctx, communityID, userID)
	if err != nil {
		return false, models.Community{}, fmt.Errorf("failed to toggle membership: %w", err)
	}
	c, err := s.repo.GetCommunity(ctx, communityID)
	if err != nil {
		return false, models.Community{}, err
	}
	logger.Debug("Toggled community membership", "community", communityID, "user", userID, "joined", joined)
	return joined, c, nil
}

// authorName resolves a display name from the user's profile.
func (s *Service) authorName(ctx context.Context, userID string) string {
	p, err := s.repo.GetProfile(ctx, userID)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			logger.Warn("Profile lookup failed", "user", userID, "error", err)
		}
		return constants.AnonymousAuthor
	}
	if name := strings.TrimSpace(p.FullName); name != "" {
		return name
	}
	return constants.AnonymousAuthor
}

// CreatePost stores a post and broadcasts it. clientID identifies the post
// across retries and the realtime echo; one is generated when empty. A
// broadcast failure is logged, not returned: the post is already stored.
func (s *Service) CreatePost(ctx context.Context, userID, communityID, content, clientID string) (models.Post, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return models.Post{}, ErrEmptyContent
	}
	if _, err := s.repo.GetCommunity(ctx, communityID); err != nil {
		return models.Post{}, err
	}
	if clientID == "" {
		clientID = uuid.NewString()
	}

	post, err := s.repo.CreatePost(ctx, models.Post{
		ID:          uuid.NewString(),
		CommunityID: communityID,
		UserID:      userID,
		AuthorName:  s.authorName(ctx, userID),
		Content:     content,
		ClientID:    clientID,
		CreatedAt:   s.now(),
	})
	if err != nil {
		return models.Post{}, fmt.Errorf("failed to create post: %w", err)
	}

	if s.pub != nil {
		if err := s.pub.Publish(ctx, Event{Type: EventPostCreated, Post: post}); err != nil {
			logger.Warn("Failed to broadcast post", "post", post.ID, "error", err)
		}
	}
	return post, nil
}

func (s *Service) ListPosts(ctx context.Context, communityID string, limit int) ([]models.Post, error) {
	if limit <= 0 {
		limit = DefaultPostLimit
	}
	return s.repo.ListPosts(ctx, communityID, limit)
}

// ToggleLike likes or unlikes a post and returns the new state and count.
func (s *Service) ToggleLike(ctx context.Context, postID, userID string) (bool, int, error) {
	if _, err := s.repo.GetPost(ctx, postID); err != nil {
		return false, 0, err
	}
	return s.repo.ToggleLike(ctx, postID, userID)
}

func (s *Service) AddComment(ctx context.Context, userID, postID, content string) (models.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return models.Comment{}, ErrEmptyContent
	}
	c := models.Comment{
		ID:         uuid.NewString(),
		PostID:     postID,
		UserID:     userID,
		AuthorName: s.authorName(ctx, userID),
		Content:    content,
		CreatedAt:  s.now(),
	}
	if err := s.repo.AddComment(ctx, c); err != nil {
		return models.Comment{}, err
	}
	return c, nil
}

func (s *Service) ListComments(ctx context.Context, postID string) ([]models.Comment, error) {
	if _, err := s.repo.GetPost(ctx, postID); err != nil {
		return nil, err
	}
	return s.repo.ListComments(ctx, postID)
}
