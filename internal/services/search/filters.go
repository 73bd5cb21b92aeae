package search

import (
	"strings"

	"github.com/ternarybob/respondeo/internal/interfaces"
	"github.com/ternarybob/respondeo/internal/models"
)

// TranslateFilter converts per-call retrieval options into the backend's
// structured filter representation.
func TranslateFilter(opts *models.RetrievalOptions) *interfaces.SearchFilter {
	if opts == nil {
		return &interfaces.SearchFilter{}
	}
	return &interfaces.SearchFilter{
		Categories:        opts.Categories,
		TechnicalLevel:    opts.TechnicalLevel,
		Entities:          opts.Entities,
		IncludeDeprecated: opts.IncludeDeprecated,
		OnlyAuthoritative: opts.OnlyAuthoritative,
	}
}

// MatchesFilter reports whether a chunk passes the structured filter.
// Deprecated chunks are excluded unless explicitly included.
func MatchesFilter(chunk *models.DocumentChunk, filter *interfaces.SearchFilter) bool {
	if filter == nil {
		filter = &interfaces.SearchFilter{}
	}

	if chunk.Metadata.IsDeprecated && !filter.IncludeDeprecated {
		return false
	}
	if filter.OnlyAuthoritative && !chunk.Metadata.IsAuthoritative {
		return false
	}

	if len(filter.Categories) > 0 {
		if !matchesCategory(chunk, filter.Categories) {
			return false
		}
	}

	if filter.TechnicalLevel != nil {
		if !filter.TechnicalLevel.Contains(chunk.Metadata.TechnicalLevel) {
			return false
		}
	}

	if len(filter.Entities) > 0 {
		if !matchesAnyEntity(chunk, filter.Entities) {
			return false
		}
	}

	return true
}

func matchesCategory(chunk *models.DocumentChunk, categories []string) bool {
	for _, category := range categories {
		if chunk.Metadata.PrimaryCategory == category {
			return true
		}
		for _, secondary := range chunk.Metadata.SecondaryCategories {
			if secondary == category {
				return true
			}
		}
	}
	return false
}

func matchesAnyEntity(chunk *models.DocumentChunk, entities []string) bool {
	for _, want := range entities {
		for _, have := range chunk.Metadata.Entities {
			if strings.EqualFold(want, have) {
				return true
			}
		}
	}
	return false
}
