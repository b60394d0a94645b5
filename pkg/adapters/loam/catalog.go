package loam

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/aretw0/loam"

	"github.com/aretw0/formwork/internal/dto"
	"github.com/aretw0/formwork/pkg/domain"
)

// Catalog reads template drafts from a Loam repository of Markdown, YAML or JSON
// documents. Drafts carry no lineage or version; importing them is up to the caller.
type Catalog struct {
	Repo *loam.TypedRepository[dto.TemplateDefinition]
}

// New creates a catalog over a typed repository.
func New(repo *loam.TypedRepository[dto.TemplateDefinition]) *Catalog {
	return &Catalog{
		Repo: repo,
	}
}

// Open initializes a read-only catalog rooted at dir.
func Open(dir string) (*Catalog, error) {
	absPath, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}
	// Strict mode keeps numbers as json.Number across formats.
	repo, err := loam.Init(absPath,
		loam.WithStrict(true),
		loam.WithReadOnly(true),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize loam: %w", err)
	}
	return New(loam.NewTypedRepository[dto.TemplateDefinition](repo)), nil
}

// Get loads one draft by document id (the extension may be omitted).
func (c *Catalog) Get(ctx context.Context, id string) (*domain.FormTemplate, error) {
	doc, err := c.Repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: loam get failed for %s: %v", domain.ErrTemplateNotFound, id, err)
	}
	return toDraft(doc.ID, doc.Data, doc.Content)
}

// List loads every draft in the repository. Two documents resolving to the same id
// are rejected.
func (c *Catalog) List(ctx context.Context) ([]*domain.FormTemplate, error) {
	docs, err := c.Repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loam list failed: %w", err)
	}

	seen := make(map[string]string)
	out := make([]*domain.FormTemplate, 0, len(docs))
	for _, doc := range docs {
		t, err := toDraft(doc.ID, doc.Data, doc.Content)
		if err != nil {
			return nil, err
		}
		if existing, ok := seen[t.ID]; ok {
			return nil, fmt.Errorf("collision detected: template '%s' is defined in both '%s' and '%s'", t.ID, existing, doc.ID)
		}
		seen[t.ID] = doc.ID
		out = append(out, t)
	}
	return out, nil
}

func toDraft(docID string, def dto.TemplateDefinition, content string) (*domain.FormTemplate, error) {
	if def.ID == "" {
		def.ID = docID
	}
	def.ID = trimExtension(def.ID)
	if def.Name == "" {
		def.Name = def.ID
	}
	if def.Description == "" {
		def.Description = strings.TrimSpace(content)
	}

	t, err := def.ToTemplate()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", def.ID, err)
	}
	return t, nil
}

func trimExtension(id string) string {
	ext := filepath.Ext(id)
	if ext != "" {
		return filepath.ToSlash(strings.TrimSuffix(id, ext))
	}
	return filepath.ToSlash(id)
}
