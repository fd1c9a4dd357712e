// Package loam loads a question catalog from a directory of documents managed
// by Loam. Each document is one question: the frontmatter carries the
// question metadata and the body, when present, is the prompt.
package loam

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/loam"
	"github.com/aretw0/triage/pkg/catalog"
	"github.com/aretw0/triage/pkg/domain"
)

// Loader adapts a Loam repository to ports.CatalogLoader.
type Loader struct {
	Repo *loam.TypedRepository[catalog.QuestionMetadata]
}

// New creates a new Loam adapter.
func New(repo *loam.TypedRepository[catalog.QuestionMetadata]) *Loader {
	return &Loader{
		Repo: repo,
	}
}

// Open initializes a read-only, strict Loam repository at dir.
// Strict mode keeps numeric frontmatter (ordinal) consistent across
// Markdown and JSON documents.
func Open(dir string) (*Loader, error) {
	absPath, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}
	repo, err := loam.Init(absPath,
		loam.WithStrict(true),
		loam.WithReadOnly(true),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize loam: %w", err)
	}
	return New(loam.NewTypedRepository[catalog.QuestionMetadata](repo)), nil
}

// Load implements ports.CatalogLoader. Questions are ordered by their
// ordinal; documents without one sort last, by id.
func (l *Loader) Load(ctx context.Context) (*catalog.Catalog, error) {
	docs, err := l.Repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loam list failed: %w", err)
	}

	seen := make(map[string]string)
	metas := make([]catalog.QuestionMetadata, 0, len(docs))
	for _, doc := range docs {
		meta := doc.Data
		rawID := meta.ID
		if rawID == "" {
			rawID = doc.ID
		}
		meta.ID = trimExtension(rawID)

		// Collision Detection
		if existing, ok := seen[meta.ID]; ok {
			return nil, fmt.Errorf("collision detected: ID '%s' is defined in both '%s' and '%s'", meta.ID, existing, doc.ID)
		}
		seen[meta.ID] = doc.ID

		if meta.Prompt == "" {
			meta.Prompt = strings.TrimSpace(doc.Content)
		}
		metas = append(metas, meta)
	}

	sort.SliceStable(metas, func(i, j int) bool {
		a, b := metas[i], metas[j]
		switch {
		case a.Ordinal > 0 && b.Ordinal > 0 && a.Ordinal != b.Ordinal:
			return a.Ordinal < b.Ordinal
		case (a.Ordinal > 0) != (b.Ordinal > 0):
			return a.Ordinal > 0
		default:
			return a.ID < b.ID
		}
	})

	questions := make([]domain.Question, 0, len(metas))
	for _, m := range metas {
		questions = append(questions, m.ToDomain())
	}
	return catalog.New(questions...)
}

func trimExtension(id string) string {
	ext := filepath.Ext(id)
	if ext != "" {
		return filepath.ToSlash(strings.TrimSuffix(id, ext))
	}
	return filepath.ToSlash(id)
}

// Watch implements ports.Watchable.
func (l *Loader) Watch(ctx context.Context) (<-chan struct{}, error) {
	events, err := l.Repo.Watch(ctx, "**/*.{md,json,yaml,yml}")
	if err != nil {
		return nil, fmt.Errorf("failed to start loam watcher: %w", err)
	}

	ch := make(chan struct{}, 1)

	go func() {
		defer close(ch)
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-events:
				if !ok {
					return
				}
				// coalesce bursts: a pending signal already means "reload"
				select {
				case ch <- struct{}{}:
				default:
				}
			}
		}
	}()

	return ch, nil
}
