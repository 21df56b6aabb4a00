package api

import (
	"github.com/halvard/othala/internal/models"
	"github.com/halvard/othala/internal/noteservice"
)

// CreateNoteRequest is the request body for creating a note.
type CreateNoteRequest struct {
	Title   string `json:"title" example:"Reading List" validate:"required"`
	Content string `json:"content" example:"see [[Books]]"`
}

// UpdateNoteRequest is the request body for updating a note. Absent
// fields are left unchanged.
type UpdateNoteRequest struct {
	Title   *string `json:"title,omitempty" example:"Renamed"`
	Content *string `json:"content,omitempty" example:"new body"`
}

// PreviewRequest is the request body for rendering markup.
type PreviewRequest struct {
	Text string `json:"text" example:"# Hi\nsee [[Books]]"`
}

// PreviewResponse is the rendered markup.
type PreviewResponse struct {
	HTML string `json:"html" validate:"required"`
}

// CaptureRequest is the request body for quick capture.
type CaptureRequest struct {
	Title   string `json:"title" example:"Untitled"`
	Content string `json:"content" example:"captured thought"`
}

// ImportRequest is the request body for URL import.
type ImportRequest struct {
	URL string `json:"url" example:"https://example.com/article" validate:"required"`
}

// NoteDetail is the full note response type (aliased from the domain layer).
type NoteDetail = noteservice.NoteDetail

// NoteListResponse wraps paginated note listings.
type NoteListResponse struct {
	Notes []models.NoteSummary `json:"notes" validate:"required"`
	Total int                  `json:"total" example:"42" validate:"required"`
}

// TitlesResponse wraps the full title list the editor consumes.
type TitlesResponse struct {
	Titles []string `json:"titles" validate:"required"`
}

// GraphResponse wraps the link graph.
type GraphResponse struct {
	Nodes []models.NoteSummary `json:"nodes" validate:"required"`
	Links []models.Link        `json:"links" validate:"required"`
}
