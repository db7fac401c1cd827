package catalog

import (
	"fmt"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
)

// SearchResult is a catalog model matched against a search query.
type SearchResult struct {
	Model WorkRestModel `json:"model"`
	Score float64       `json:"score"`
}

// Index is an in-memory full-text index over catalog models, searchable
// by name, description and category.
type Index struct {
	bleveIndex bleve.Index
	catalog    *Catalog
	mu         sync.RWMutex
}

// NewIndex builds an in-memory Bleve index over all models in the
// catalog.
func NewIndex(c *Catalog) (*Index, error) {
	index, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("failed to create bleve index: %w", err)
	}

	idx := &Index{bleveIndex: index, catalog: c}
	if err := idx.indexAll(); err != nil {
		index.Close()
		return nil, err
	}
	return idx, nil
}

// buildIndexMapping creates the Bleve index mapping for model documents.
func buildIndexMapping() mapping.IndexMapping {
	modelMapping := bleve.NewDocumentMapping()

	nameFieldMapping := bleve.NewTextFieldMapping()
	modelMapping.AddFieldMappingsAt("name", nameFieldMapping)

	descFieldMapping := bleve.NewTextFieldMapping()
	modelMapping.AddFieldMappingsAt("description", descFieldMapping)

	categoryFieldMapping := bleve.NewTextFieldMapping()
	modelMapping.AddFieldMappingsAt("category", categoryFieldMapping)

	indexMapping := bleve.NewIndexMapping()
	indexMapping.AddDocumentMapping("_default", modelMapping)

	return indexMapping
}

// indexAll indexes every catalog model in one batch.
func (i *Index) indexAll() error {
	i.mu.Lock()
	defer i.mu.Unlock()

	batch := i.bleveIndex.NewBatch()
	for _, m := range i.catalog.List() {
		doc := map[string]interface{}{
			"name":        m.Name,
			"description": m.Description,
			"category":    m.Category,
		}
		if err := batch.Index(m.ID, doc); err != nil {
			return fmt.Errorf("failed to index model %s: %w", m.ID, err)
		}
	}

	if err := i.bleveIndex.Batch(batch); err != nil {
		return fmt.Errorf("failed to batch index models: %w", err)
	}
	return nil
}

// Search runs a match query over the indexed models and returns up to
// limit results ranked by relevance.
func (i *Index) Search(queryText string, limit int) ([]SearchResult, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()

	if limit <= 0 {
		limit = 10
	}

	searchQuery := bleve.NewMatchQuery(queryText)
	searchRequest := bleve.NewSearchRequestOptions(searchQuery, limit, 0, false)

	results, err := i.bleveIndex.Search(searchRequest)
	if err != nil {
		return nil, fmt.Errorf("bleve search failed: %w", err)
	}

	out := make([]SearchResult, 0, len(results.Hits))
	for _, hit := range results.Hits {
		model, ok := i.catalog.ByID(hit.ID)
		if !ok {
			continue
		}
		out = append(out, SearchResult{Model: model, Score: hit.Score})
	}
	return out, nil
}

// Count returns the number of indexed models.
func (i *Index) Count() (uint64, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()

	docCount, err := i.bleveIndex.DocCount()
	if err != nil {
		return 0, fmt.Errorf("failed to get doc count: %w", err)
	}
	return docCount, nil
}

// Close closes the index and releases resources.
func (i *Index) Close() error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.bleveIndex != nil {
		return i.bleveIndex.Close()
	}
	return nil
}
