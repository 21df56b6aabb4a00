// Package noteservice coordinates the note store, the wikilink graph,
// and change events.
package noteservice

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/halvard/othala/internal/apperr"
	"github.com/halvard/othala/internal/markdown"
	"github.com/halvard/othala/internal/models"
	"github.com/halvard/othala/internal/storage"
	"github.com/halvard/othala/internal/wikilink"
)

// Publisher receives note change notifications. kind is one of
// "created", "updated", "deleted".
type Publisher interface {
	PublishNote(kind, id, title string)
}

// NoteDetail is the full representation of a note, enriched with its
// outbound link targets, the subset of those with no existing note, and
// backlinks.
type NoteDetail struct {
	ID           string               `json:"id"`
	Title        string               `json:"title"`
	Content      string               `json:"content"`
	Links        []string             `json:"links"`
	MissingLinks []string             `json:"missing_links"`
	Backlinks    []models.NoteSummary `json:"backlinks"`
	CreatedAt    time.Time            `json:"created_at"`
	UpdatedAt    time.Time            `json:"updated_at"`
}

// Service coordinates store and event operations.
type Service struct {
	db     *storage.DB
	events Publisher
}

// NewService creates a note service. events may be nil.
func NewService(db *storage.DB, events Publisher) *Service {
	return &Service{db: db, events: events}
}

// GetNote returns a note with link, missing-link, and backlink data.
func (s *Service) GetNote(_ context.Context, id string) (*NoteDetail, error) {
	n, err := s.db.GetNote(id)
	if err != nil {
		return nil, err
	}
	return s.buildDetail(n)
}

// GetNoteByTitle is GetNote keyed by exact title.
func (s *Service) GetNoteByTitle(_ context.Context, title string) (*NoteDetail, error) {
	n, err := s.db.GetNoteByTitle(title)
	if err != nil {
		return nil, err
	}
	return s.buildDetail(n)
}

// CreateNote creates a note with the given title. Content may be empty
// (quick-create). A blank title is rejected before touching the store.
func (s *Service) CreateNote(_ context.Context, title, content string) (*NoteDetail, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("title is required: %w", apperr.ErrInvalidInput)
	}
	now := time.Now()
	n := &models.Note{
		ID:        uuid.NewString(),
		Title:     title,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.db.CreateNote(n); err != nil {
		return nil, err
	}
	s.rebuildLinks(n)
	s.publish("created", n)
	return s.buildDetail(n)
}

// CreateUnique creates a note, suffixing the title with " (2)", " (3)",
// ... when it collides with an existing note. Used by capture flows
// where failing on a duplicate title would lose the captured content.
func (s *Service) CreateUnique(ctx context.Context, title, content string) (*NoteDetail, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		title = "Untitled"
	}
	candidate := title
	for i := 2; ; i++ {
		detail, err := s.CreateNote(ctx, candidate, content)
		if err == nil {
			return detail, nil
		}
		if !errors.Is(err, apperr.ErrAlreadyExists) || i > 100 {
			return nil, err
		}
		candidate = fmt.Sprintf("%s (%d)", title, i)
	}
}

// UpdateNote applies a partial update. Nil fields are left unchanged.
func (s *Service) UpdateNote(_ context.Context, id string, title, content *string) (*NoteDetail, error) {
	n, err := s.db.GetNote(id)
	if err != nil {
		return nil, err
	}
	if title != nil {
		t := strings.TrimSpace(*title)
		if t == "" {
			return nil, fmt.Errorf("title is required: %w", apperr.ErrInvalidInput)
		}
		n.Title = t
	}
	if content != nil {
		n.Content = *content
	}
	n.UpdatedAt = time.Now()
	if err := s.db.UpdateNote(id, n.Title, n.Content, n.UpdatedAt); err != nil {
		return nil, err
	}
	s.rebuildLinks(n)
	s.publish("updated", n)
	return s.buildDetail(n)
}

// DeleteNote removes a note and its link edges.
func (s *Service) DeleteNote(_ context.Context, id string) error {
	n, err := s.db.GetNote(id)
	if err != nil {
		return err
	}
	if err := s.db.DeleteNote(id); err != nil {
		return err
	}
	s.publish("deleted", n)
	return nil
}

// ListNotes returns note summaries filtered by a title substring.
func (s *Service) ListNotes(_ context.Context, query string, limit, offset int) ([]models.NoteSummary, int, error) {
	items, total, err := s.db.ListNotes(query, limit, offset)
	return nonNilSlice(items), total, err
}

// Titles returns every note title. This is the existing-title snapshot
// editors resolve missing links against.
func (s *Service) Titles(_ context.Context) ([]string, error) {
	titles, err := s.db.Titles()
	return nonNilSlice(titles), err
}

// Graph returns all notes and link edges.
func (s *Service) Graph(_ context.Context) ([]models.NoteSummary, []models.Link, error) {
	nodes, _, err := s.db.ListNotes("", 10000, 0)
	if err != nil {
		return nil, nil, err
	}
	edges, err := s.db.GraphLinks()
	if err != nil {
		return nil, nil, err
	}
	return nonNilSlice(nodes), nonNilSlice(edges), nil
}

// Resolver returns a markdown.Resolver that maps existing titles to
// their note URLs.
func (s *Service) Resolver() markdown.Resolver {
	return func(title string) (string, bool) {
		n, err := s.db.GetNoteByTitle(title)
		if err != nil {
			return "", false
		}
		return "/notes/" + n.ID, true
	}
}

// rebuildLinks replaces the note's outbound edges with those of its
// current content. Targets with no matching note and self-references
// produce no edge.
func (s *Service) rebuildLinks(n *models.Note) {
	targets := wikilink.Extract(n.Content)
	var ids []string
	for _, title := range targets {
		target, err := s.db.GetNoteByTitle(title)
		if err != nil || target.ID == n.ID {
			continue
		}
		ids = append(ids, target.ID)
	}
	_ = s.db.ReplaceLinks(n.ID, ids)
}

func (s *Service) buildDetail(n *models.Note) (*NoteDetail, error) {
	targets := wikilink.Extract(n.Content)
	titles, err := s.db.Titles()
	if err != nil {
		return nil, err
	}
	missing := wikilink.Missing(targets, wikilink.NewTitleSet(titles), n.Title)
	backlinks, err := s.db.Backlinks(n.ID)
	if err != nil {
		return nil, err
	}
	return &NoteDetail{
		ID:           n.ID,
		Title:        n.Title,
		Content:      n.Content,
		Links:        nonNilSlice(targets),
		MissingLinks: nonNilSlice(missing),
		Backlinks:    nonNilSlice(backlinks),
		CreatedAt:    n.CreatedAt,
		UpdatedAt:    n.UpdatedAt,
	}, nil
}

func (s *Service) publish(kind string, n *models.Note) {
	if s.events != nil {
		s.events.PublishNote(kind, n.ID, n.Title)
	}
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
