package api

import (
	"fmt"

	"github.com/bilgisen/portal/internal/listing"
	"github.com/bilgisen/portal/internal/middleware"
	"github.com/bilgisen/portal/internal/models"
	"github.com/bilgisen/portal/internal/query"
	"github.com/bilgisen/portal/internal/repository"
	"github.com/bilgisen/portal/internal/session"
	"github.com/gofiber/fiber/v2"
)

// AdminList handles GET /api/v1/admin/:collection. Drafts are included
// unless a status filter is given.
func (h *Handlers) AdminList(c *fiber.Ctx) error {
	collection := c.Params("collection")
	q, err := middleware.BindQuery[listQuery](c, h.validate)
	if err != nil {
		return err
	}

	switch collection {
	case repository.PathFAQ:
		groups, err := h.listing.FAQ(c.UserContext(), query.FAQParams{Search: q.Search})
		if err != nil {
			return err
		}
		return ok(c, groups)
	case repository.PathApplications:
		apps, err := h.listing.Applications(c.UserContext(), "", q.Search)
		if err != nil {
			return err
		}
		return ok(c, apps)
	}

	page, err := h.listing.Content(c.UserContext(), collection, q.params(query.StatusFilter(q.Status), query.DefaultPageSize))
	if err != nil {
		return err
	}
	return pageResponse(c, page)
}

type openSessionRequest struct {
	Collection string `json:"collection" validate:"required,oneof=articles berita"`
	ID         string `json:"id"`
}

type sessionResponse struct {
	SessionID string           `json:"session_id"`
	Session   session.Snapshot `json:"session"`
}

// OpenSession handles POST /api/v1/admin/sessions. Without an id the
// session creates a new item.
func (h *Handlers) OpenSession(c *fiber.Ctx) error {
	req, err := middleware.BindBody[openSessionRequest](c, h.validate)
	if err != nil {
		return err
	}
	store, found := h.content[req.Collection]
	if !found {
		return fmt.Errorf("%w: %s", listing.ErrUnknownCollection, req.Collection)
	}

	var existing *models.ContentItem
	if req.ID != "" {
		if existing, err = h.listing.Item(c.UserContext(), req.Collection, req.ID, false); err != nil {
			return err
		}
	}

	var opts []session.Option
	if req.Collection == repository.PathNews {
		opts = append(opts, session.RequireKind())
	}
	s := session.New(store, opts...)
	if err := s.Open(existing); err != nil {
		return err
	}
	id := h.sessions.Put(session.Entry{Collection: req.Collection, Session: s})

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    sessionResponse{SessionID: id, Session: s.Snapshot()},
	})
}

func (h *Handlers) entry(c *fiber.Ctx) (session.Entry, error) {
	e, found := h.sessions.Get(c.Params("sid"))
	if !found {
		return e, fiber.NewError(fiber.StatusNotFound, "Editing session not found or expired")
	}
	return e, nil
}

func (h *Handlers) snapshot(c *fiber.Ctx, e session.Entry) error {
	return ok(c, sessionResponse{SessionID: c.Params("sid"), Session: e.Session.Snapshot()})
}

// GetSession handles GET /api/v1/admin/sessions/:sid
func (h *Handlers) GetSession(c *fiber.Ctx) error {
	e, err := h.entry(c)
	if err != nil {
		return err
	}
	return h.snapshot(c, e)
}

type setFieldRequest struct {
	Name  string `json:"name" validate:"required"`
	Value string `json:"value"`
}

// SetSessionField handles PATCH /api/v1/admin/sessions/:sid
func (h *Handlers) SetSessionField(c *fiber.Ctx) error {
	e, err := h.entry(c)
	if err != nil {
		return err
	}
	req, err := middleware.BindBody[setFieldRequest](c, h.validate)
	if err != nil {
		return err
	}
	if err := e.Session.SetField(req.Name, req.Value); err != nil {
		return err
	}
	return h.snapshot(c, e)
}

// ResetSession handles POST /api/v1/admin/sessions/:sid/reset
func (h *Handlers) ResetSession(c *fiber.Ctx) error {
	e, err := h.entry(c)
	if err != nil {
		return err
	}
	if err := e.Session.ResetToOriginal(); err != nil {
		return err
	}
	return h.snapshot(c, e)
}

type submitRequest struct {
	Status string `json:"status" validate:"required,oneof=draft published publish"`
}

// SubmitSession handles POST /api/v1/admin/sessions/:sid/submit. The
// session stays open when the repository rejects the save.
func (h *Handlers) SubmitSession(c *fiber.Ctx) error {
	e, err := h.entry(c)
	if err != nil {
		return err
	}
	req, err := middleware.BindBody[submitRequest](c, h.validate)
	if err != nil {
		return err
	}
	if _, err := e.Session.Submit(c.UserContext(), models.Status(req.Status)); err != nil {
		return err
	}
	h.listing.Invalidate(c.UserContext(), e.Collection)
	return h.snapshot(c, e)
}

// CancelSession handles DELETE /api/v1/admin/sessions/:sid
func (h *Handlers) CancelSession(c *fiber.Ctx) error {
	if _, err := h.entry(c); err != nil {
		return err
	}
	h.sessions.Delete(c.Params("sid"))
	return c.SendStatus(fiber.StatusNoContent)
}

// Publish handles POST /api/v1/admin/:collection/:id/publish
func (h *Handlers) Publish(c *fiber.Ctx) error {
	collection := c.Params("collection")
	store, found := h.content[collection]
	if !found {
		return fmt.Errorf("%w: %s", listing.ErrUnknownCollection, collection)
	}
	item, err := store.Publish(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	h.listing.Invalidate(c.UserContext(), collection)
	return ok(c, item)
}

// Delete handles DELETE /api/v1/admin/:collection/:id?confirm=true
func (h *Handlers) Delete(c *fiber.Ctx) error {
	collection := c.Params("collection")
	del, found := h.deleters[collection]
	if !found {
		return fmt.Errorf("%w: %s", listing.ErrUnknownCollection, collection)
	}
	if !c.QueryBool("confirm") {
		return fiber.NewError(fiber.StatusPreconditionRequired, "Deletion must be confirmed with confirm=true")
	}
	if err := del.Delete(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	h.listing.Invalidate(c.UserContext(), collection)
	return c.SendStatus(fiber.StatusNoContent)
}

// UploadImage handles POST /api/v1/admin/images
func (h *Handlers) UploadImage(c *fiber.Ctx) error {
	fh, err := c.FormFile("image")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Missing image file")
	}
	f, err := fh.Open()
	if err != nil {
		return err
	}
	defer f.Close()

	url, err := h.images.SaveImage(c.UserContext(), fh.Filename, f)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "url": url})
}
