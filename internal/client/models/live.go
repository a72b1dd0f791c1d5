package models

import "time"

// Program is the current live TV program.
type Program struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	VideoURL    string    `json:"videoUrl"`
	IsLive      bool      `json:"isLive"`
	StartTime   time.Time `json:"startTime"`
	ViewerCount *int      `json:"viewerCount,omitempty"`
}

// CommentAuthor is the public part of the comment author's profile.
type CommentAuthor struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// Comment is a chat message on a live program. Server order is chronological.
type Comment struct {
	ID        string        `json:"id"`
	Content   string        `json:"content"`
	UserID    string        `json:"userId"`
	ProgramID string        `json:"programId"`
	CreatedAt time.Time     `json:"createdAt"`
	User      CommentAuthor `json:"user"`
}
