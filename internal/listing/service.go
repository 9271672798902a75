// Package listing serves the pages of the public and admin listing views.
//
// Whole collections are fetched from the repository, kept in the cache for a
// short time and run through the query pipeline per request.
package listing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/bilgisen/portal/internal/cache"
	"github.com/bilgisen/portal/internal/logger"
	"github.com/bilgisen/portal/internal/models"
	"github.com/bilgisen/portal/internal/query"
	"github.com/bilgisen/portal/internal/repository"
	"github.com/bilgisen/portal/internal/utils"
	"github.com/rs/zerolog"
)

var ErrUnknownCollection = errors.New("unknown collection")

// Fetcher lists a repository collection. *repository.Collection satisfies it.
type Fetcher[T any] interface {
	List(ctx context.Context, q repository.ListQuery) ([]T, *repository.Meta, error)
}

// ItemGetter loads a single content item, anonymously or with the token.
type ItemGetter interface {
	Get(ctx context.Context, id string) (*models.ContentItem, error)
	GetAuthorized(ctx context.Context, id string) (*models.ContentItem, error)
}

// ContentSource is a content collection that can be listed and read.
type ContentSource interface {
	Fetcher[models.ContentItem]
	ItemGetter
}

type Config struct {
	// TTL of a cached collection; zero disables caching.
	TTL time.Duration
	// FetchSize is the per_page sent when fetching a whole collection.
	FetchSize int
}

type Service struct {
	content map[string]ContentSource
	faq     Fetcher[models.FaqEntry]
	apps    Fetcher[models.ApplicationEntry]
	cache   cache.Store
	cfg     Config
	log     zerolog.Logger
}

func NewService(
	content map[string]ContentSource,
	faq Fetcher[models.FaqEntry],
	apps Fetcher[models.ApplicationEntry],
	store cache.Store,
	cfg Config,
) *Service {
	if cfg.FetchSize <= 0 {
		cfg.FetchSize = 500
	}
	return &Service{
		content: content,
		faq:     faq,
		apps:    apps,
		cache:   store,
		cfg:     cfg,
		log:     logger.Component("listing"),
	}
}

// Content returns one page of a content collection.
func (s *Service) Content(ctx context.Context, collection string, p query.Params) (query.Page[models.ContentItem], error) {
	src, ok := s.content[collection]
	if !ok {
		return query.Page[models.ContentItem]{}, fmt.Errorf("%w: %s", ErrUnknownCollection, collection)
	}

	items, err := fetchAll(ctx, s, collection, src, repository.ListQuery{
		Status: string(p.Status),
		Admin:  p.Status != query.StatusPublished,
	})
	if err != nil {
		return query.Page[models.ContentItem]{}, err
	}
	return query.Run(items, p), nil
}

// Item loads one content item. Public callers never see drafts.
func (s *Service) Item(ctx context.Context, collection, id string, public bool) (*models.ContentItem, error) {
	src, ok := s.content[collection]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCollection, collection)
	}
	get := src.GetAuthorized
	if public {
		get = src.Get
	}
	item, err := get(ctx, id)
	if err != nil {
		return nil, err
	}
	if public && !item.IsPublished() {
		return nil, repository.ErrNotFound
	}
	return item, nil
}

func (s *Service) FAQ(ctx context.Context, p query.FAQParams) ([]query.FAQGroup, error) {
	entries, err := s.FAQEntries(ctx, p.ActiveOnly)
	if err != nil {
		return nil, err
	}
	return query.FAQ(entries, p), nil
}

func (s *Service) FAQEntries(ctx context.Context, activeOnly bool) ([]models.FaqEntry, error) {
	return fetchAll(ctx, s, repository.PathFAQ, s.faq, repository.ListQuery{Admin: !activeOnly})
}

func (s *Service) Applications(ctx context.Context, category models.Category, search string) ([]models.ApplicationEntry, error) {
	entries, err := fetchAll(ctx, s, repository.PathApplications, s.apps, repository.ListQuery{})
	if err != nil {
		return nil, err
	}
	return query.Applications(entries, category, search), nil
}

// Invalidate drops cached copies of a collection after a mutation.
func (s *Service) Invalidate(ctx context.Context, collection string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeletePrefix(ctx, utils.CacheKey("list", collection)); err != nil {
		s.log.Warn().Err(err).Str("collection", collection).Msg("Failed to invalidate listing cache")
	}
}

// Collections lists the content collections the service knows.
func (s *Service) Collections() []string {
	out := make([]string, 0, len(s.content))
	for name := range s.content {
		out = append(out, name)
	}
	return out
}

func fetchAll[T any](ctx context.Context, s *Service, collection string, f Fetcher[T], q repository.ListQuery) ([]T, error) {
	q.PerPage = s.cfg.FetchSize
	key := utils.CacheKey("list", collection, fmt.Sprintf("status=%s:admin=%t", q.Status, q.Admin))

	if s.cache != nil && s.cfg.TTL > 0 {
		data, err := s.cache.Get(ctx, key)
		switch {
		case err == nil:
			var items []T
			if jsonErr := json.Unmarshal(data, &items); jsonErr == nil {
				return items, nil
			}
			s.log.Warn().Str("key", key).Msg("Discarding unreadable cache entry")
		case !errors.Is(err, cache.ErrMiss):
			s.log.Warn().Err(err).Str("key", key).Msg("Cache read failed, fetching from repository")
		}
	}

	start := time.Now()
	items, pages, err := fetchPages(ctx, s, collection, f, q)
	if err != nil {
		s.log.Error().Err(err).Str("collection", collection).Msg("Error fetching collection")
		return nil, err
	}
	s.log.Debug().
		Str("collection", collection).
		Int("items", len(items)).
		Int("pages", pages).
		Dur("duration", time.Since(start)).
		Msg("Fetched collection")

	if s.cache != nil && s.cfg.TTL > 0 {
		if data, err := json.Marshal(items); err == nil {
			if err := s.cache.Set(ctx, key, data, s.cfg.TTL); err != nil {
				s.log.Warn().Err(err).Str("key", key).Msg("Cache write failed")
			}
		}
	}
	return items, nil
}

// maxFetchPages bounds a single collection load.
const maxFetchPages = 100

// fetchPages walks the repository pages. It follows the reported page count
// when the response carries meta, and otherwise stops at the first short page.
func fetchPages[T any](ctx context.Context, s *Service, collection string, f Fetcher[T], q repository.ListQuery) ([]T, int, error) {
	var all []T
	for page := 1; page <= maxFetchPages; page++ {
		q.Page = page
		items, meta, err := f.List(ctx, q)
		if err != nil {
			return nil, page, err
		}
		all = append(all, items...)
		if len(items) == 0 {
			return all, page, nil
		}
		if meta != nil {
			if page >= meta.TotalPages {
				return all, page, nil
			}
			continue
		}
		if len(items) < q.PerPage {
			return all, page, nil
		}
	}
	s.log.Warn().
		Str("collection", collection).
		Int("pages", maxFetchPages).
		Int("items", len(all)).
		Msg("Collection truncated at page limit")
	return all, maxFetchPages, nil
}
