package domain

import "time"

// NoteAuthor is the author snapshot taken when the note was appended.
type NoteAuthor struct {
	UserID string `json:"userId"`
	Name   string `json:"name"`
}

// Note is an append-only comment embedded in a ticket. The json tags
// double as the stored document layout.
type Note struct {
	ID        string     `json:"id"`
	Text      string     `json:"text"`
	AddedBy   NoteAuthor `json:"addedBy"`
	Timestamp time.Time  `json:"timestamp"`
}
