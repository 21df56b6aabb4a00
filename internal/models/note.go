// Package models defines the domain types for Othala.
package models

import "time"

// Note is a single wiki note. Titles are unique across the wiki and are
// what [[wikilinks]] resolve against.
type Note struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NoteSummary is a lightweight representation returned by list operations.
type NoteSummary struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Link is a directed edge between two notes, derived from the
// wikilinks in the source note's content.
type Link struct {
	SourceID string `json:"source"`
	TargetID string `json:"target"`
}
