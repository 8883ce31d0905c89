package service

import (
	"encoding/json"
	"fmt"
	"html"
	"strings"

	"anoa.com/moviecatalog/internal/entity"
	"github.com/meilisearch/meilisearch-go"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog/log"
)

const moviesIndex = "movies"

// MovieIndex keeps the full-text movie index in sync and queries it.
type MovieIndex interface {
	IndexMovies(movies ...*entity.Movie) error
	SearchMovies(query string, filter SearchFilter) (*SearchResult, error)
}

type SearchFilter struct {
	Status string
	Source string
	Limit  int64
}

type MovieHit struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Overview    string   `json:"overview"`
	Tagline     string   `json:"tagline"`
	ReleaseDate *string  `json:"release_date"`
	Status      string   `json:"status"`
	Source      string   `json:"source"`
	Authors     []string `json:"authors"`
}

type SearchResult struct {
	Query              string     `json:"query"`
	Hits               []MovieHit `json:"hits"`
	EstimatedTotalHits int64      `json:"estimated_total_hits"`
}

type meiliSearchService struct {
	client    meilisearch.ServiceManager
	sanitizer *bluemonday.Policy
}

// NewMeiliClient accepts a full URL or a bare host name; bare hosts get
// the default port.
func NewMeiliClient(host, apiKey string) meilisearch.ServiceManager {
	if !strings.HasPrefix(host, "http") {
		host = "http://" + host + ":7700"
	}
	return meilisearch.New(host, meilisearch.WithAPIKey(apiKey))
}

func NewMeiliSearchService(client meilisearch.ServiceManager) MovieIndex {
	s := &meiliSearchService{
		client:    client,
		sanitizer: bluemonday.StrictPolicy(),
	}
	s.initIndexes()
	return s
}

func (s *meiliSearchService) initIndexes() {
	index := s.client.Index(moviesIndex)

	filterable := []any{"status", "source", "release_year"}
	if _, err := index.UpdateFilterableAttributes(&filterable); err != nil {
		log.Warn().Err(err).Msg("failed to update movies filterable attributes")
	}

	sortable := []string{"release_year", "popularity"}
	if _, err := index.UpdateSortableAttributes(&sortable); err != nil {
		log.Warn().Err(err).Msg("failed to update movies sortable attributes")
	}

	searchable := []string{"title", "tagline", "overview", "authors"}
	if _, err := index.UpdateSearchableAttributes(&searchable); err != nil {
		log.Warn().Err(err).Msg("failed to update movies searchable attributes")
	}
}

type movieDoc struct {
	MovieHit
	ReleaseYear int     `json:"release_year,omitempty"`
	Popularity  float64 `json:"popularity"`
}

// cleanText strips markup that sometimes comes with TMDB overviews.
func (s *meiliSearchService) cleanText(content string) string {
	content = strings.ReplaceAll(content, "<br>", " ")
	content = strings.ReplaceAll(content, "</p>", " ")
	cleaned := html.UnescapeString(s.sanitizer.Sanitize(content))
	return strings.Join(strings.Fields(cleaned), " ")
}

func (s *meiliSearchService) toDoc(m *entity.Movie) movieDoc {
	authors := make([]string, 0, len(m.Authors))
	for _, a := range m.Authors {
		authors = append(authors, a.User.FullName())
	}

	doc := movieDoc{
		MovieHit: MovieHit{
			ID:       m.ID.String(),
			Title:    m.Title,
			Overview: s.cleanText(m.Overview),
			Tagline:  s.cleanText(m.Tagline),
			Status:   m.Status,
			Source:   m.Source,
			Authors:  authors,
		},
	}
	if m.ReleaseDate != nil {
		date := m.ReleaseDate.Format("2006-01-02")
		doc.ReleaseDate = &date
		doc.ReleaseYear = m.ReleaseDate.Year()
	}
	if m.Popularity != nil {
		doc.Popularity = *m.Popularity
	}
	return doc
}

func (s *meiliSearchService) IndexMovies(movies ...*entity.Movie) error {
	if len(movies) == 0 {
		return nil
	}

	docs := make([]movieDoc, 0, len(movies))
	for _, m := range movies {
		docs = append(docs, s.toDoc(m))
	}

	primaryKey := "id"
	task, err := s.client.Index(moviesIndex).AddDocuments(docs, &primaryKey)
	if err != nil {
		return fmt.Errorf("index movies: %w", err)
	}
	log.Debug().Int("count", len(docs)).Int64("task_uid", task.TaskUID).Msg("movies queued for indexing")
	return nil
}

func (s *meiliSearchService) SearchMovies(query string, filter SearchFilter) (*SearchResult, error) {
	limit := filter.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	req := &meilisearch.SearchRequest{Limit: limit}
	var clauses []string
	if filter.Status != "" {
		clauses = append(clauses, fmt.Sprintf("status = %q", filter.Status))
	}
	if filter.Source != "" {
		clauses = append(clauses, fmt.Sprintf("source = %q", filter.Source))
	}
	if len(clauses) > 0 {
		req.Filter = strings.Join(clauses, " AND ")
	}

	raw, err := s.client.Index(moviesIndex).SearchRaw(query, req)
	if err != nil {
		return nil, fmt.Errorf("search movies: %w", err)
	}

	var decoded struct {
		Hits               []MovieHit `json:"hits"`
		EstimatedTotalHits int64      `json:"estimatedTotalHits"`
	}
	if err := json.Unmarshal(*raw, &decoded); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	if decoded.Hits == nil {
		decoded.Hits = []MovieHit{}
	}

	return &SearchResult{
		Query:              query,
		Hits:               decoded.Hits,
		EstimatedTotalHits: decoded.EstimatedTotalHits,
	}, nil
}
