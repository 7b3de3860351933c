package indexer

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/ternarybob/arbor"
	"gopkg.in/yaml.v3"

	"github.com/sahalsk/kuttappan/internal/common"
	"github.com/sahalsk/kuttappan/internal/interfaces"
	"github.com/sahalsk/kuttappan/internal/models"
)

// Indexer populates the document store the chat pipeline searches. Each
// project row becomes one embedded document; the chat pipeline itself
// never writes, so this is the only writer.
type Indexer struct {
	llm    interfaces.LLMService
	store  interfaces.DocumentStore
	config *common.IndexerConfig
	logger arbor.ILogger
}

// New creates an indexer.
func New(config *common.Config, llm interfaces.LLMService, store interfaces.DocumentStore, logger arbor.ILogger) *Indexer {
	return &Indexer{
		llm:    llm,
		store:  store,
		config: &config.Indexer,
		logger: logger,
	}
}

// Reindex embeds every known project and writes it to the document
// store. Projects come from the hosted projects table, falling back to
// the local YAML file when the table is empty or unreachable. Returns
// the number of documents written.
func (i *Indexer) Reindex(ctx context.Context) (int, error) {
	projects, err := i.loadProjects(ctx)
	if err != nil {
		return 0, err
	}
	if len(projects) == 0 {
		i.logger.Warn().Msg("No projects to index")
		return 0, nil
	}

	indexed := 0
	for _, project := range projects {
		text := projectText(project)

		embedding, err := i.llm.Embed(ctx, text)
		if err != nil {
			return indexed, fmt.Errorf("embed project %d: %w", project.ID, err)
		}

		doc := &models.IndexedDocument{
			ID:        common.NewDocumentID(),
			Content:   text,
			Embedding: embedding,
			Metadata:  map[string]interface{}{"source": "projects", "id": project.ID},
		}
		if err := i.store.InsertDocument(ctx, doc); err != nil {
			return indexed, fmt.Errorf("insert project %d: %w", project.ID, err)
		}

		indexed++
		i.logger.Debug().Int("id", project.ID).Str("title", project.Title).Msg("Indexed project")
	}

	i.logger.Info().Int("indexed", indexed).Msg("Document store re-index completed")
	return indexed, nil
}

// loadProjects prefers the hosted projects table; the YAML file is a
// bootstrap fallback for a fresh deployment whose table is still empty.
func (i *Indexer) loadProjects(ctx context.Context) ([]models.Project, error) {
	projects, err := i.store.ListProjects(ctx)
	if err != nil {
		i.logger.Warn().Err(err).Msg("Projects table unreachable, trying local file")
	} else if len(projects) > 0 {
		return projects, nil
	}

	if i.config.ProjectsFile == "" {
		return projects, err
	}

	fromFile, fileErr := loadProjectsFile(i.config.ProjectsFile)
	if fileErr != nil {
		if os.IsNotExist(fileErr) {
			return projects, err
		}
		return nil, fmt.Errorf("load projects file: %w", fileErr)
	}

	i.logger.Info().
		Str("file", i.config.ProjectsFile).
		Int("projects", len(fromFile)).
		Msg("Loaded projects from local file")
	return fromFile, nil
}

func loadProjectsFile(path string) ([]models.Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var doc struct {
		Projects []models.Project `yaml:"projects"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return doc.Projects, nil
}

// projectText renders one project as the sentence that gets embedded
// and stored. Title, description, and tech stack carry the searchable
// signal; URLs add nothing to similarity.
func projectText(p models.Project) string {
	return fmt.Sprintf("Project Title: %s. Description: %s. Tech Stack: %s.",
		p.Title, p.Description, strings.Join(p.TechStack, ", "))
}
