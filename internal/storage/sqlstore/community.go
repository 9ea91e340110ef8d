package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/julianstephens/goalkeeper/internal/models"
)

const (
	communityColumns = `id, name, description, category, member_count, created_at`
	postColumns      = `id, community_id, user_id, author_name, content, client_id, likes_count, comments_count, created_at`
	commentColumns   = `id, post_id, user_id, author_name, content, created_at`
)

func scanCommunity(row scanner) (models.Community, error) {
	var c models.Community
	var createdAt string
	if err := row.Scan(&c.ID, &c.Name, &c.Description, &c.Category, &c.MemberCount, &createdAt); err != nil {
		return models.Community{}, err
	}
	var err error
	c.CreatedAt, err = parseTime("created_at", createdAt)
	return c, err
}

func (s *Store) ListCommunities(ctx context.Context) ([]models.Community, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+communityColumns+` FROM communities ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query communities: %w", err)
	}
	defer rows.Close()

	out := []models.Community{}
	for rows.Next() {
		c, err := scanCommunity(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) GetCommunity(ctx context.Context, id string) (models.Community, error) {
	row := s.db.QueryRowContext(ctx, s.q(`SELECT `+communityColumns+` FROM communities WHERE id = ?`), id)
	c, err := scanCommunity(row)
	if err != nil {
		return models.Community{}, mapNoRows(err, "community")
	}
	return c, nil
}

func (s *Store) AddCommunity(ctx context.Context, c models.Community) error {
	_, err := s.exec(ctx, `INSERT INTO communities (`+communityColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		c.ID, c.Name, c.Description, c.Category, c.MemberCount, formatTime(c.CreatedAt))
	if err != nil {
		return fmt.Errorf("failed to insert community: %w", err)
	}
	return nil
}

func (s *Store) ToggleMembership(ctx context.Context, communityID, userID string) (bool, error) {
	var joined bool
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var exists int
		err := tx.QueryRowContext(ctx, s.q(`SELECT COUNT(*) FROM communities WHERE id = ?`), communityID).Scan(&exists)
		if err != nil {
			return err
		}
		if exists == 0 {
			return notFound("community")
		}

		member, err := s.isMember(ctx, tx, communityID, userID)
		if err != nil {
			return err
		}
		if member {
			_, err = tx.ExecContext(ctx, s.q(`DELETE FROM community_members WHERE community_id = ? AND user_id = ?`), communityID, userID)
		} else {
			_, err = tx.ExecContext(ctx, s.q(`INSERT INTO community_members (community_id, user_id, joined_at) VALUES (?, ?, ?)`),
				communityID, userID, formatTime(time.Now()))
		}
		if err != nil {
			return fmt.Errorf("failed to update membership: %w", err)
		}
		joined = !member

		_, err = tx.ExecContext(ctx, s.q(`
			UPDATE communities
			SET member_count = (SELECT COUNT(*) FROM community_members WHERE community_id = ?)
			WHERE id = ?`), communityID, communityID)
		if err != nil {
			return fmt.Errorf("failed to refresh member count: %w", err)
		}
		return nil
	})
	return joined, err
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Store) isMember(ctx context.Context, q queryer, communityID, userID string) (bool, error) {
	var n int
	err := q.QueryRowContext(ctx, s.q(`
		SELECT COUNT(*) FROM community_members WHERE community_id = ? AND user_id = ?`),
		communityID, userID).Scan(&n)
	return n > 0, err
}

func (s *Store) IsMember(ctx context.Context, communityID, userID string) (bool, error) {
	return s.isMember(ctx, s.db, communityID, userID)
}

func (s *Store) ListMemberships(ctx context.Context, userID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, s.q(`
		SELECT community_id FROM community_members WHERE user_id = ? ORDER BY community_id`), userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query memberships: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func scanPost(row scanner) (models.Post, error) {
	var p models.Post
	var createdAt string
	err := row.Scan(&p.ID, &p.CommunityID, &p.UserID, &p.AuthorName, &p.Content,
		&p.ClientID, &p.LikesCount, &p.CommentsCount, &createdAt)
	if err != nil {
		return models.Post{}, err
	}
	p.CreatedAt, err = parseTime("created_at", createdAt)
	return p, err
}

func (s *Store) CreatePost(ctx context.Context, p models.Post) (models.Post, error) {
	if p.ClientID == "" {
		p.ClientID = p.ID
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	_, err := s.exec(ctx, `
		INSERT INTO posts (`+postColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, 0, 0, ?)
		ON CONFLICT (client_id) DO NOTHING`,
		p.ID, p.CommunityID, p.UserID, p.AuthorName, p.Content, p.ClientID, formatTime(p.CreatedAt))
	if err != nil {
		return models.Post{}, fmt.Errorf("failed to insert post: %w", err)
	}

	row := s.db.QueryRowContext(ctx, s.q(`SELECT `+postColumns+` FROM posts WHERE client_id = ?`), p.ClientID)
	stored, err := scanPost(row)
	if err != nil {
		return models.Post{}, mapNoRows(err, "post")
	}
	return stored, nil
}

func (s *Store) GetPost(ctx context.Context, id string) (models.Post, error) {
	row := s.db.QueryRowContext(ctx, s.q(`SELECT `+postColumns+` FROM posts WHERE id = ?`), id)
	p, err := scanPost(row)
	if err != nil {
		return models.Post{}, mapNoRows(err, "post")
	}
	return p, nil
}

// ListPosts returns a community's posts, newest first. A non-positive limit
// returns every post.
func (s *Store) ListPosts(ctx context.Context, communityID string, limit int) ([]models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE community_id = ? ORDER BY created_at DESC, id DESC`
	args := []any{communityID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, s.q(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query posts: %w", err)
	}
	defer rows.Close()

	out := []models.Post{}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) ToggleLike(ctx context.Context, postID, userID string) (bool, int, error) {
	var liked bool
	var count int
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var n int
		err := tx.QueryRowContext(ctx, s.q(`SELECT COUNT(*) FROM post_likes WHERE post_id = ? AND user_id = ?`), postID, userID).Scan(&n)
		if err != nil {
			return err
		}

		if n > 0 {
			if _, err := tx.ExecContext(ctx, s.q(`DELETE FROM post_likes WHERE post_id = ? AND user_id = ?`), postID, userID); err != nil {
				return fmt.Errorf("failed to remove like: %w", err)
			}
			err = s.execOne(ctx, tx, "post", `
				UPDATE posts SET likes_count = CASE WHEN likes_count > 0 THEN likes_count - 1 ELSE 0 END
				WHERE id = ?`, postID)
		} else {
			if _, err := tx.ExecContext(ctx, s.q(`INSERT INTO post_likes (post_id, user_id, created_at) VALUES (?, ?, ?)`),
				postID, userID, formatTime(time.Now())); err != nil {
				return fmt.Errorf("failed to add like: %w", err)
			}
			err = s.execOne(ctx, tx, "post", `UPDATE posts SET likes_count = likes_count + 1 WHERE id = ?`, postID)
		}
		if err != nil {
			return err
		}
		liked = n == 0

		return tx.QueryRowContext(ctx, s.q(`SELECT likes_count FROM posts WHERE id = ?`), postID).Scan(&count)
	})
	return liked, count, err
}

func (s *Store) AddComment(ctx context.Context, c models.Comment) error {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := s.execOne(ctx, tx, "post", `UPDATE posts SET comments_count = comments_count + 1 WHERE id = ?`, c.PostID); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, s.q(`INSERT INTO comments (`+commentColumns+`) VALUES (?, ?, ?, ?, ?, ?)`),
			c.ID, c.PostID, c.UserID, c.AuthorName, c.Content, formatTime(c.CreatedAt))
		if err != nil {
			return fmt.Errorf("failed to insert comment: %w", err)
		}
		return nil
	})
}

func (s *Store) ListComments(ctx context.Context, postID string) ([]models.Comment, error) {
	rows, err := s.db.QueryContext(ctx, s.q(`
		SELECT `+commentColumns+` FROM comments WHERE post_id = ? ORDER BY created_at, id`), postID)
	if err != nil {
		return nil, fmt.Errorf("failed to query comments: %w", err)
	}
	defer rows.Close()

	out := []models.Comment{}
	for rows.Next() {
		var c models.Comment
		var createdAt string
		if err := rows.Scan(&c.ID, &c.PostID, &c.UserID, &c.AuthorName, &c.Content, &createdAt); err != nil {
			return nil, err
		}
		if c.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) UpsertProfile(ctx context.Context, p models.Profile) error {
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = time.Now()
	}
	_, err := s.exec(ctx, `
		INSERT INTO profiles (id, email, full_name, avatar_url, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			email = excluded.email,
			full_name = excluded.full_name,
			avatar_url = excluded.avatar_url,
			updated_at = excluded.updated_at`,
		p.ID, p.Email, p.FullName, p.AvatarURL, formatTime(p.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to upsert profile: %w", err)
	}
	return nil
}

func (s *Store) GetProfile(ctx context.Context, id string) (models.Profile, error) {
	var p models.Profile
	var updatedAt string
	err := s.db.QueryRowContext(ctx, s.q(`
		SELECT id, email, full_name, avatar_url, updated_at FROM profiles WHERE id = ?`), id).
		Scan(&p.ID, &p.Email, &p.FullName, &p.AvatarURL, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Profile{}, notFound("profile")
	}
	if err != nil {
		return models.Profile{}, err
	}
	p.UpdatedAt, err = parseTime("updated_at", updatedAt)
	return p, err
}
