package types

import "time"

// ChatRequest is one user message to the assistant
type ChatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
}

// FAQ is a canned question and answer
type FAQ struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// ChatReply is the assistant's answer
type ChatReply struct {
	Response    string   `json:"response"`
	Suggestions []string `json:"suggestions"`
	Action      string   `json:"action,omitempty"`
	FAQs        []FAQ    `json:"faqs,omitempty"`
	SessionID   string   `json:"session_id,omitempty"`
}

// ChatLog is the audit record of one exchange
type ChatLog struct {
	ID        string    `json:"id" db:"id"`
	SessionID string    `json:"session_id" db:"session_id"`
	UserID    string    `json:"user_id,omitempty" db:"user_id"`
	Message   string    `json:"message" db:"message"`
	Response  string    `json:"response" db:"response"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
