package common

import (
	"github.com/google/uuid"
)

// NewDocumentID generates a unique document ID with the "doc_" prefix
// Format: doc_<uuid>
func NewDocumentID() string {
	return "doc_" + uuid.New().String()
}

// NewTranscriptID generates a unique transcript ID with the "chat_" prefix
func NewTranscriptID() string {
	return "chat_" + uuid.New().String()
}
