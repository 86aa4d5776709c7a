package types

import (
	"time"

	"github.com/google/uuid"
)

// QAEntry is one stored question and its answer. Question keeps the text as
// it was asked; normalization happens only at comparison time.
type QAEntry struct {
	ID        uuid.UUID `json:"id" yaml:"-"`
	Question  string    `json:"question" yaml:"question"`
	Answer    string    `json:"answer" yaml:"answer"`
	CreatedAt time.Time `json:"created_at" yaml:"-"`
}

// Questions returns the question of every entry in order.
func Questions(entries []QAEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Question
	}
	return out
}

// ChatRequest is the body of POST /api/chat/response.
type ChatRequest struct {
	Question string `json:"question" form:"question"`
}

// ChatResponse is the success body of POST /api/chat/response.
type ChatResponse struct {
	Response string `json:"response"`
}
