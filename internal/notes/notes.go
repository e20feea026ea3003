// Package notes implements the notes module: markdown notes organized into
// folders, with pinning, tags, and soft delete into a trash folder.
package notes

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hayatos/hayatos/internal/db"
	"github.com/hayatos/hayatos/internal/errs"
)

// FolderTrash is the soft-delete destination. Deleting a note moves it here;
// deleting a trashed note removes it permanently.
const FolderTrash = "trash"

// Note is a single markdown note.
type Note struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Excerpt   string    `json:"excerpt"`
	HTML      string    `json:"html,omitempty"`
	Folder    string    `json:"folder"`
	Tags      []string  `json:"tags"`
	Pinned    bool      `json:"pinned"`
	Favorite  bool      `json:"favorite"`
	Color     string    `json:"color"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// CreateInput holds the writable fields for a new note.
type CreateInput struct {
	Title    string   `json:"title"`
	Content  string   `json:"content"`
	Folder   string   `json:"folder"`
	Tags     []string `json:"tags"`
	Pinned   bool     `json:"pinned"`
	Favorite bool     `json:"favorite"`
	Color    string   `json:"color"`
}

// UpdateInput holds partial updates. Nil fields are left unchanged.
type UpdateInput struct {
	Title    *string   `json:"title"`
	Content  *string   `json:"content"`
	Folder   *string   `json:"folder"`
	Tags     *[]string `json:"tags"`
	Pinned   *bool     `json:"pinned"`
	Favorite *bool     `json:"favorite"`
	Color    *string   `json:"color"`
}

// Clock abstracts time for deterministic tests.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Service implements note operations on a per-user database.
type Service struct {
	clock Clock
}

// NewService creates a notes service.
func NewService() *Service {
	return &Service{clock: realClock{}}
}

// SetClock replaces the clock. Intended for testing.
func (s *Service) SetClock(c Clock) { s.clock = c }

// List returns notes, optionally restricted to a folder and a free-text
// search over title and content. Sorted pinned first, then newest update.
// The trash folder is excluded unless requested explicitly.
func (s *Service) List(ctx context.Context, udb *db.UserDB, folder, search string) ([]Note, error) {
	rows, err := udb.DB().QueryContext(ctx, `
		SELECT id, title, content, folder, tags, is_pinned, is_favorite, color, created_at, updated_at
		FROM notes`)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	defer rows.Close()

	var out []Note
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		if folder != "" {
			if n.Folder != folder {
				continue
			}
		} else if n.Folder == FolderTrash {
			continue
		}
		if search != "" && !matchesSearch(n, search) {
			continue
		}
		n.Excerpt = Excerpt(n.Content, excerptLength)
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	SortNotes(out)
	return out, nil
}

// Get returns a single note with rendered HTML.
func (s *Service) Get(ctx context.Context, udb *db.UserDB, id string) (*Note, error) {
	row := udb.DB().QueryRowContext(ctx, `
		SELECT id, title, content, folder, tags, is_pinned, is_favorite, color, created_at, updated_at
		FROM notes WHERE id = ?`, id)
	n, err := scanNote(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errs.New(errs.NotFound, "note not found")
	}
	if err != nil {
		return nil, err
	}
	n.Excerpt = Excerpt(n.Content, excerptLength)
	n.HTML = RenderHTML(n.Content)
	return &n, nil
}

// Create inserts a new note. An empty folder defaults to "all".
func (s *Service) Create(ctx context.Context, udb *db.UserDB, in CreateInput) (*Note, error) {
	if in.Title == "" && in.Content == "" {
		return nil, errs.New(errs.InvalidArgument, "note needs a title or content")
	}
	folder := in.Folder
	if folder == "" {
		folder = "all"
	}
	now := s.clock.Now()
	n := Note{
		ID:        uuid.NewString(),
		Title:     in.Title,
		Content:   in.Content,
		Folder:    folder,
		Tags:      in.Tags,
		Pinned:    in.Pinned,
		Favorite:  in.Favorite,
		Color:     in.Color,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if n.Tags == nil {
		n.Tags = []string{}
	}
	tagsJSON, err := json.Marshal(n.Tags)
	if err != nil {
		return nil, fmt.Errorf("marshal tags: %w", err)
	}
	_, err = udb.DB().ExecContext(ctx, `
		INSERT INTO notes (id, title, content, folder, tags, is_pinned, is_favorite, color, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		n.ID, n.Title, n.Content, n.Folder, string(tagsJSON),
		boolToInt(n.Pinned), boolToInt(n.Favorite), n.Color, now.Unix(), now.Unix())
	if err != nil {
		return nil, fmt.Errorf("create note: %w", err)
	}
	n.Excerpt = Excerpt(n.Content, excerptLength)
	return &n, nil
}

// Update applies a partial update and bumps the update timestamp.
func (s *Service) Update(ctx context.Context, udb *db.UserDB, id string, in UpdateInput) (*Note, error) {
	n, err := s.Get(ctx, udb, id)
	if err != nil {
		return nil, err
	}
	if in.Title != nil {
		n.Title = *in.Title
	}
	if in.Content != nil {
		n.Content = *in.Content
	}
	if in.Folder != nil {
		n.Folder = *in.Folder
	}
	if in.Tags != nil {
		n.Tags = *in.Tags
	}
	if in.Pinned != nil {
		n.Pinned = *in.Pinned
	}
	if in.Favorite != nil {
		n.Favorite = *in.Favorite
	}
	if in.Color != nil {
		n.Color = *in.Color
	}
	n.UpdatedAt = s.clock.Now()

	tagsJSON, err := json.Marshal(n.Tags)
	if err != nil {
		return nil, fmt.Errorf("marshal tags: %w", err)
	}
	_, err = udb.DB().ExecContext(ctx, `
		UPDATE notes SET title = ?, content = ?, folder = ?, tags = ?,
			is_pinned = ?, is_favorite = ?, color = ?, updated_at = ?
		WHERE id = ?`,
		n.Title, n.Content, n.Folder, string(tagsJSON),
		boolToInt(n.Pinned), boolToInt(n.Favorite), n.Color, n.UpdatedAt.Unix(), id)
	if err != nil {
		return nil, fmt.Errorf("update note: %w", err)
	}
	n.Excerpt = Excerpt(n.Content, excerptLength)
	n.HTML = RenderHTML(n.Content)
	return n, nil
}

// Delete moves a note to trash. Deleting an already trashed note removes it
// for good.
func (s *Service) Delete(ctx context.Context, udb *db.UserDB, id string) error {
	n, err := s.Get(ctx, udb, id)
	if err != nil {
		return err
	}
	if n.Folder == FolderTrash {
		_, err = udb.DB().ExecContext(ctx, `DELETE FROM notes WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("delete note: %w", err)
		}
		return nil
	}
	_, err = udb.DB().ExecContext(ctx, `UPDATE notes SET folder = ?, updated_at = ? WHERE id = ?`,
		FolderTrash, s.clock.Now().Unix(), id)
	if err != nil {
		return fmt.Errorf("trash note: %w", err)
	}
	return nil
}

// PurgeTrash removes trashed notes older than the cutoff.
func (s *Service) PurgeTrash(ctx context.Context, udb *db.UserDB, olderThan time.Duration) (int64, error) {
	cutoff := s.clock.Now().Add(-olderThan).Unix()
	res, err := udb.DB().ExecContext(ctx,
		`DELETE FROM notes WHERE folder = ? AND updated_at < ?`, FolderTrash, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge trash: %w", err)
	}
	return res.RowsAffected()
}

// SortNotes orders notes pinned first, then by update time descending.
// Ties break on ID for a stable order.
func SortNotes(ns []Note) {
	sort.SliceStable(ns, func(i, j int) bool {
		if ns[i].Pinned != ns[j].Pinned {
			return ns[i].Pinned
		}
		if !ns[i].UpdatedAt.Equal(ns[j].UpdatedAt) {
			return ns[i].UpdatedAt.After(ns[j].UpdatedAt)
		}
		return ns[i].ID < ns[j].ID
	})
}

func matchesSearch(n Note, search string) bool {
	q := strings.ToLower(search)
	return strings.Contains(strings.ToLower(n.Title), q) ||
		strings.Contains(strings.ToLower(n.Content), q)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNote(r rowScanner) (Note, error) {
	var n Note
	var tagsJSON string
	var pinned, favorite int
	var createdAt, updatedAt int64
	err := r.Scan(&n.ID, &n.Title, &n.Content, &n.Folder, &tagsJSON,
		&pinned, &favorite, &n.Color, &createdAt, &updatedAt)
	if err != nil {
		return Note{}, err
	}
	if err := json.Unmarshal([]byte(tagsJSON), &n.Tags); err != nil {
		n.Tags = []string{}
	}
	if n.Tags == nil {
		n.Tags = []string{}
	}
	n.Pinned = pinned != 0
	n.Favorite = favorite != 0
	n.CreatedAt = time.Unix(createdAt, 0).UTC()
	n.UpdatedAt = time.Unix(updatedAt, 0).UTC()
	return n, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
