// Package repository is the REST client for the external Content Repository.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/bilgisen/portal/internal/logger"
	"github.com/bilgisen/portal/internal/models"
	"github.com/go-resty/resty/v2"
)

// Config is injected by the caller; the client never reads the environment.
type Config struct {
	BaseURL string
	// Token is sent as a bearer token on mutating and admin calls.
	Token   string
	Timeout time.Duration
}

// Collection paths exposed by the repository
const (
	PathArticles     = "articles"
	PathNews         = "berita"
	PathFAQ          = "faq"
	PathApplications = "applications"
)

type Client struct {
	http  *resty.Client
	token string
}

func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	// Failed calls are surfaced to the user, who retries manually.
	return &Client{
		http: resty.New().
			SetBaseURL(cfg.BaseURL).
			SetTimeout(timeout).
			SetRetryCount(0).
			SetHeader("Accept", "application/json"),
		token: cfg.Token,
	}
}

func (c *Client) Articles() *Collection[models.ContentItem] {
	return NewCollection[models.ContentItem](c, PathArticles)
}

func (c *Client) News() *Collection[models.ContentItem] {
	return NewCollection[models.ContentItem](c, PathNews)
}

func (c *Client) FAQ() *Collection[models.FaqEntry] {
	return NewCollection[models.FaqEntry](c, PathFAQ)
}

func (c *Client) Applications() *Collection[models.ApplicationEntry] {
	return NewCollection[models.ApplicationEntry](c, PathApplications)
}

// Meta is the optional pagination block of a list response
type Meta struct {
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

type envelope[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Meta    *Meta  `json:"meta,omitempty"`
	Message string `json:"message,omitempty"`
	URL     string `json:"url,omitempty"`
}

// ListQuery maps onto the repository list parameters. Zero values are omitted.
type ListQuery struct {
	Status  string
	Search  string
	Sort    string
	Page    int
	PerPage int
	// Admin attaches the bearer token, needed to see drafts.
	Admin bool
}

func (q ListQuery) params() map[string]string {
	p := map[string]string{}
	if q.Status != "" {
		p["status"] = q.Status
	}
	if q.Search != "" {
		p["search"] = q.Search
	}
	if q.Sort != "" {
		p["sort"] = q.Sort
	}
	if q.Page > 0 {
		p["page"] = strconv.Itoa(q.Page)
	}
	if q.PerPage > 0 {
		p["per_page"] = strconv.Itoa(q.PerPage)
	}
	return p
}

// File is an uploaded file part of a multipart form
type File struct {
	Field  string
	Name   string
	Reader io.Reader
}

// Form is a multipart create/update payload
type Form struct {
	Fields map[string]string
	Files  []File
}

func (c *Client) request(ctx context.Context, authorized bool) *resty.Request {
	req := c.http.R().SetContext(ctx)
	if authorized && c.token != "" {
		req.SetAuthToken(c.token)
	}
	return req
}

func withForm(req *resty.Request, form Form) *resty.Request {
	req.SetMultipartFormData(form.Fields)
	for _, f := range form.Files {
		req.SetFileReader(f.Field, f.Name, f.Reader)
	}
	return req
}

// decode turns a raw response into the envelope, mapping the error taxonomy.
func decode[T any](resp *resty.Response, err error) (*envelope[T], error) {
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %w", ErrTransport, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}

	code := resp.StatusCode()
	logger.Get().Debug().
		Str("method", resp.Request.Method).
		Str("url", resp.Request.URL).
		Int("status", code).
		Dur("latency", resp.Time()).
		Msg("repository call")

	switch {
	case code == http.StatusNotFound:
		return nil, ErrNotFound
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return nil, ErrUnauthorized
	}

	var env envelope[T]
	if jsonErr := json.Unmarshal(resp.Body(), &env); jsonErr != nil {
		if code >= http.StatusInternalServerError {
			return nil, fmt.Errorf("%w: status %d", ErrTransport, code)
		}
		return nil, fmt.Errorf("%w: unreadable response (status %d): %v", ErrTransport, code, jsonErr)
	}

	if code >= http.StatusInternalServerError {
		return nil, fmt.Errorf("%w: status %d: %s", ErrTransport, code, env.Message)
	}
	if code >= http.StatusBadRequest || !env.Success {
		return nil, &ValidationError{Status: code, Message: env.Message}
	}

	return &env, nil
}
