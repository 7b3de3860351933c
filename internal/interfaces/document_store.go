package interfaces

import (
	"context"

	"github.com/sahalsk/kuttappan/internal/models"
)

// DocumentStore is the hosted vector-search collaborator. The chat pipeline
// only reads from it; writes happen through the indexer.
type DocumentStore interface {
	// MatchDocuments runs the similarity-search remote procedure against the
	// documents table. Results come back sorted descending by similarity and
	// capped at limit. An empty slice is a normal outcome, never an error:
	// threshold enforcement is the store's responsibility. Connection
	// failures wrap models.ErrUpstreamUnavailable.
	MatchDocuments(ctx context.Context, embedding []float32, threshold float64, limit int) ([]models.RetrievedDocument, error)

	// ListProjects fetches all portfolio project rows.
	ListProjects(ctx context.Context) ([]models.Project, error)

	// InsertDocument persists an embedded document for later retrieval.
	InsertDocument(ctx context.Context, doc *models.IndexedDocument) error
}
