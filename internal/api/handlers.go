package api

import (
	"context"
	"time"

	"github.com/bilgisen/portal/internal/chat"
	"github.com/bilgisen/portal/internal/config"
	"github.com/bilgisen/portal/internal/fees"
	"github.com/bilgisen/portal/internal/listing"
	"github.com/bilgisen/portal/internal/middleware"
	"github.com/bilgisen/portal/internal/models"
	"github.com/bilgisen/portal/internal/query"
	"github.com/bilgisen/portal/internal/repository"
	"github.com/bilgisen/portal/internal/session"
	"github.com/bilgisen/portal/internal/storage"
	"github.com/gofiber/fiber/v2"
)

// ContentStore is the mutating surface of an article or news collection.
type ContentStore interface {
	session.Submitter
	Delete(ctx context.Context, id string) error
	Publish(ctx context.Context, id string) (*models.ContentItem, error)
}

type Deleter interface {
	Delete(ctx context.Context, id string) error
}

// Deps are the collaborators the handlers are built from
type Deps struct {
	Config   *config.Config
	Listing  *listing.Service
	Content  map[string]ContentStore
	Deleters map[string]Deleter
	Sessions *session.Store
	Views    *listing.Views
	Chat     *chat.Responder
	Fees     fees.Schedule
	Images   storage.ImageStore
}

type Handlers struct {
	config   *config.Config
	listing  *listing.Service
	content  map[string]ContentStore
	deleters map[string]Deleter
	sessions *session.Store
	views    *listing.Views
	chat     *chat.Responder
	fees     fees.Schedule
	images   storage.ImageStore
	validate *middleware.Validator
}

func NewHandlers(d Deps) *Handlers {
	deleters := make(map[string]Deleter, len(d.Deleters)+len(d.Content))
	for name, del := range d.Deleters {
		deleters[name] = del
	}
	for name, store := range d.Content {
		deleters[name] = store
	}
	return &Handlers{
		config:   d.Config,
		listing:  d.Listing,
		content:  d.Content,
		deleters: deleters,
		sessions: d.Sessions,
		views:    d.Views,
		chat:     d.Chat,
		fees:     d.Fees,
		images:   d.Images,
		validate: middleware.NewValidator(),
	}
}

func ok(c *fiber.Ctx, data any) error {
	return c.JSON(fiber.Map{"success": true, "data": data})
}

// HealthCheck handles the /health endpoint
func (h *Handlers) HealthCheck(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "ok",
		"version": "1.0.0",
		"time":    time.Now().Format(time.RFC3339),
	})
}

type listQuery struct {
	Search  string `query:"search" validate:"max=200"`
	Sort    string `query:"sort" validate:"omitempty,oneof=newest oldest popular"`
	Page    int    `query:"page" validate:"omitempty,min=1"`
	PerPage int    `query:"per_page" validate:"omitempty,min=1,max=100"`
	Kind    string `query:"kind" validate:"omitempty,oneof=news event"`
	Status  string `query:"status" validate:"omitempty,oneof=draft published"`
}

func (q listQuery) params(status query.StatusFilter, pageSize int) query.Params {
	sort, _ := query.ParseSortKey(q.Sort)
	if q.PerPage > 0 {
		pageSize = q.PerPage
	}
	return query.Params{
		Status:   status,
		Kind:     models.Kind(q.Kind),
		Search:   q.Search,
		Sort:     sort,
		Page:     max(q.Page, 1),
		PageSize: pageSize,
	}
}

func pageResponse(c *fiber.Ctx, page query.Page[models.ContentItem]) error {
	return c.JSON(fiber.Map{
		"success": true,
		"data":    page.Items,
		"meta": fiber.Map{
			"page":        page.CurrentPage,
			"per_page":    page.PageSize,
			"total":       page.TotalItems,
			"total_pages": page.TotalPages,
		},
	})
}

// ListArticles handles GET /api/v1/articles
func (h *Handlers) ListArticles(c *fiber.Ctx) error {
	return h.listPublished(c, repository.PathArticles, h.config.ArticlesPageSize)
}

// ListNews handles GET /api/v1/news, optionally narrowed to one kind tab
func (h *Handlers) ListNews(c *fiber.Ctx) error {
	return h.listPublished(c, repository.PathNews, h.config.NewsPageSize)
}

func (h *Handlers) listPublished(c *fiber.Ctx, collection string, pageSize int) error {
	q, err := middleware.BindQuery[listQuery](c, h.validate)
	if err != nil {
		return err
	}
	// public listings never honour a status parameter
	page, err := h.listing.Content(c.UserContext(), collection, q.params(query.StatusPublished, pageSize))
	if err != nil {
		return err
	}
	return pageResponse(c, page)
}

// GetArticle handles GET /api/v1/articles/:id
func (h *Handlers) GetArticle(c *fiber.Ctx) error {
	return h.getPublished(c, repository.PathArticles)
}

// GetNews handles GET /api/v1/news/:id
func (h *Handlers) GetNews(c *fiber.Ctx) error {
	return h.getPublished(c, repository.PathNews)
}

func (h *Handlers) getPublished(c *fiber.Ctx, collection string) error {
	item, err := h.listing.Item(c.UserContext(), collection, c.Params("id"), true)
	if err != nil {
		return err
	}
	return ok(c, item)
}

type faqQuery struct {
	Search string `query:"search" validate:"max=200"`
}

// ListFAQ handles GET /api/v1/faq
func (h *Handlers) ListFAQ(c *fiber.Ctx) error {
	q, err := middleware.BindQuery[faqQuery](c, h.validate)
	if err != nil {
		return err
	}
	groups, err := h.listing.FAQ(c.UserContext(), query.FAQParams{ActiveOnly: true, Search: q.Search})
	if err != nil {
		return err
	}
	return ok(c, groups)
}

type applicationsQuery struct {
	Category string `query:"category"`
	Search   string `query:"search" validate:"max=200"`
}

// ListApplications handles GET /api/v1/applications
func (h *Handlers) ListApplications(c *fiber.Ctx) error {
	q, err := middleware.BindQuery[applicationsQuery](c, h.validate)
	if err != nil {
		return err
	}
	category, err := models.ParseCategory(q.Category)
	if err != nil {
		return &middleware.FieldsError{Message: err.Error(), Fields: map[string]string{"category": "oneof"}}
	}
	apps, err := h.listing.Applications(c.UserContext(), category, q.Search)
	if err != nil {
		return err
	}
	return ok(c, apps)
}

// GetFees handles GET /api/v1/fees
func (h *Handlers) GetFees(c *fiber.Ctx) error {
	return ok(c, h.fees.Table(c.Query("category")))
}

// GetFee handles GET /api/v1/fees/:code
func (h *Handlers) GetFee(c *fiber.Ctx) error {
	fee, found := h.fees.Lookup(c.Params("code"))
	if !found {
		return fiber.NewError(fiber.StatusNotFound, "Fee not found")
	}
	return ok(c, fee)
}

type chatRequest struct {
	Message string `json:"message" validate:"max=500"`
}

// Chat handles POST /api/v1/chat
func (h *Handlers) Chat(c *fiber.Ctx) error {
	req, err := middleware.BindBody[chatRequest](c, h.validate)
	if err != nil {
		return err
	}
	return ok(c, h.chat.Reply(c.UserContext(), req.Message))
}
