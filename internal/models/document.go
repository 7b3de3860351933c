package models

// RetrievedDocument is a single similarity-search hit. Results are
// ephemeral: the pipeline never writes them anywhere.
type RetrievedDocument struct {
	Content    string                 `json:"content"`
	Similarity float64                `json:"similarity"`
	Metadata   map[string]interface{} `json:"metadata"`
}

// IndexedDocument is a row written to the document store by the indexer:
// content plus its embedding and provenance metadata. The indexer assigns
// the doc_-prefixed ID before insert.
type IndexedDocument struct {
	ID        string                 `json:"id"`
	Content   string                 `json:"content"`
	Embedding []float32              `json:"embedding"`
	Metadata  map[string]interface{} `json:"metadata"`
}

// Project is a portfolio project row as stored in the projects table.
type Project struct {
	ID          int      `json:"id" yaml:"id"`
	Title       string   `json:"title" yaml:"title"`
	Description string   `json:"description" yaml:"description"`
	TechStack   []string `json:"tech_stack" yaml:"tech_stack"`
	Category    string   `json:"category" yaml:"category"`
	Timeline    string   `json:"timeline" yaml:"timeline"`
	DemoURL     string   `json:"demo_url" yaml:"demo_url"`
	GithubURL   string   `json:"github_url" yaml:"github_url"`
	Content     string   `json:"content" yaml:"content"`
}
