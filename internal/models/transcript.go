package models

import "time"

// Transcript records one completed chat turn for the site owner's audit
// trail. Stored locally in Badger and served back only on the
// authenticated transcripts endpoint.
type Transcript struct {
	ID            string    `badgerhold:"key" json:"id"`
	CreatedAt     time.Time `badgerholdIndex:"CreatedAt" json:"created_at"`
	ClientKey     string    `json:"client_key"`
	Intent        string    `json:"intent"`
	Question      string    `json:"question"`
	ContextDocs   int       `json:"context_docs"`
	ResponseChars int       `json:"response_chars"`
	Provider      string    `json:"provider"`
}
