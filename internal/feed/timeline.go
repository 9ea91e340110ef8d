package feed

import (
	"sort"
	"sync"

	"github.com/julianstephens/goalkeeper/internal/metrics"
	"github.com/julianstephens/goalkeeper/internal/models"
)

// Timeline is a local, newest-first view of one community's posts. A post
// inserted locally and later delivered by the realtime channel appears once.
type Timeline struct {
	mu          sync.Mutex
	communityID string
	posts       []models.Post
}

func NewTimeline(communityID string, posts []models.Post) *Timeline {
	t := &Timeline{communityID: communityID}
	for _, p := range posts {
		t.upsertLocked(p)
	}
	return t
}

func samePost(a, b models.Post) bool {
	if a.ClientID != "" && b.ClientID != "" {
		return a.ClientID == b.ClientID
	}
	return a.ID != "" && a.ID == b.ID
}

// upsertLocked inserts p or replaces the post it matches. It reports whether
// p was new.
func (t *Timeline) upsertLocked(p models.Post) bool {
	for i := range t.posts {
		if samePost(t.posts[i], p) {
			t.posts[i] = p
			return false
		}
	}
	t.posts = append(t.posts, p)
	sort.SliceStable(t.posts, func(i, j int) bool {
		return t.posts[i].CreatedAt.After(t.posts[j].CreatedAt)
	})
	return true
}

// AddLocal records an optimistic insert made by this client.
func (t *Timeline) AddLocal(p models.Post) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.upsertLocked(p)
}

// Apply merges a realtime event. Events for other communities and unknown
// event types are ignored. It reports whether a new post was added.
func (t *Timeline) Apply(ev Event) bool {
	if ev.Type != EventPostCreated || ev.Post.CommunityID != t.communityID {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.upsertLocked(ev.Post) {
		metrics.Get().FeedEvents.WithLabelValues("delivered").Inc()
		return true
	}
	metrics.Get().FeedEvents.WithLabelValues("duplicate").Inc()
	return false
}

// Posts returns a copy of the timeline, newest first.
func (t *Timeline) Posts() []models.Post {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]models.Post(nil), t.posts...)
}

func (t *Timeline) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.posts)
}
