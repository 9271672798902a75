package api

import (
	"context"
	"errors"

	"github.com/bilgisen/portal/internal/listing"
	"github.com/bilgisen/portal/internal/middleware"
	"github.com/bilgisen/portal/internal/models"
	"github.com/bilgisen/portal/internal/query"
	"github.com/bilgisen/portal/internal/repository"
	"github.com/gofiber/fiber/v2"
)

type openViewRequest struct {
	Collection string `json:"collection" validate:"required,oneof=articles news"`
	Kind       string `json:"kind" validate:"omitempty,oneof=news event"`
	Sort       string `json:"sort" validate:"omitempty,oneof=newest oldest popular"`
	Search     string `json:"search" validate:"max=200"`
}

type updateViewRequest struct {
	Search *string `json:"search" validate:"omitempty,max=200"`
	Sort   string  `json:"sort" validate:"omitempty,oneof=newest oldest popular"`
	Page   int     `json:"page" validate:"omitempty,min=1"`
}

type viewParams struct {
	Kind   models.Kind   `json:"kind,omitempty"`
	Search string        `json:"search"`
	Sort   query.SortKey `json:"sort"`
	Page   int           `json:"page"`
}

type viewResponse struct {
	ViewID string                         `json:"view_id"`
	Params viewParams                     `json:"params"`
	Page   query.Page[models.ContentItem] `json:"page"`
	Error  string                         `json:"error,omitempty"`
}

// OpenView handles POST /api/v1/views. The view lists published items only
// and debounces search input on the server.
func (h *Handlers) OpenView(c *fiber.Ctx) error {
	req, err := middleware.BindBody[openViewRequest](c, h.validate)
	if err != nil {
		return err
	}
	collection, pageSize := repository.PathArticles, h.config.ArticlesPageSize
	if req.Collection == "news" {
		collection, pageSize = repository.PathNews, h.config.NewsPageSize
	}
	sort, _ := query.ParseSortKey(req.Sort)

	load := func(ctx context.Context, p query.Params) (query.Page[models.ContentItem], error) {
		return h.listing.Content(ctx, collection, p)
	}
	v := listing.NewView(context.Background(), load, query.Params{
		Status:   query.StatusPublished,
		Kind:     models.Kind(req.Kind),
		Search:   req.Search,
		Sort:     sort,
		PageSize: pageSize,
	}, listing.WithDebounce(h.config.SearchDebounce))
	if err := v.Refresh(); err != nil {
		v.Close()
		return err
	}

	id := h.views.Put(listing.ViewEntry{Collection: collection, View: v})
	c.Status(fiber.StatusCreated)
	return h.viewState(c, id, v)
}

func (h *Handlers) view(c *fiber.Ctx) (listing.ViewEntry, error) {
	e, found := h.views.Get(c.Params("vid"))
	if !found {
		return e, fiber.NewError(fiber.StatusNotFound, "Listing view not found or expired")
	}
	return e, nil
}

func (h *Handlers) viewState(c *fiber.Ctx, id string, v *listing.View) error {
	page, err := v.Current()
	p := v.Params()
	resp := viewResponse{
		ViewID: id,
		Params: viewParams{Kind: p.Kind, Search: p.Search, Sort: p.Sort, Page: p.Page},
		Page:   page,
	}
	if err != nil {
		resp.Error = err.Error()
	}
	return ok(c, resp)
}

// GetView handles GET /api/v1/views/:vid
func (h *Handlers) GetView(c *fiber.Ctx) error {
	e, err := h.view(c)
	if err != nil {
		return err
	}
	return h.viewState(c, c.Params("vid"), e.View)
}

// UpdateView handles PATCH /api/v1/views/:vid. Sort and page apply at once;
// a page outside the listing is ignored. A search term is applied after the
// debounce interval, so the response is 202 and carries the previous page.
func (h *Handlers) UpdateView(c *fiber.Ctx) error {
	e, err := h.view(c)
	if err != nil {
		return err
	}
	req, err := middleware.BindBody[updateViewRequest](c, h.validate)
	if err != nil {
		return err
	}

	if req.Sort != "" {
		sort, _ := query.ParseSortKey(req.Sort)
		if err := e.View.SetSort(sort); err != nil && !errors.Is(err, listing.ErrStale) {
			return err
		}
	}
	if req.Page > 0 {
		if _, err := e.View.GoTo(req.Page); err != nil && !errors.Is(err, listing.ErrStale) {
			return err
		}
	}
	if req.Search != nil {
		e.View.Search(*req.Search)
		c.Status(fiber.StatusAccepted)
	}
	return h.viewState(c, c.Params("vid"), e.View)
}

// CloseView handles DELETE /api/v1/views/:vid
func (h *Handlers) CloseView(c *fiber.Ctx) error {
	if _, err := h.view(c); err != nil {
		return err
	}
	h.views.Delete(c.Params("vid"))
	return c.SendStatus(fiber.StatusNoContent)
}
