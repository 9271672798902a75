package repository

import (
	"context"
	"io"
	"strings"
)

// Collection is the CRUD surface of one content type
type Collection[T any] struct {
	client *Client
	path   string
}

func NewCollection[T any](c *Client, path string) *Collection[T] {
	return &Collection[T]{client: c, path: "/" + strings.Trim(path, "/")}
}

func (c *Collection[T]) Path() string {
	return strings.TrimPrefix(c.path, "/")
}

// List fetches records matching q. Meta is nil when the repository omits it.
func (c *Collection[T]) List(ctx context.Context, q ListQuery) ([]T, *Meta, error) {
	env, err := decode[[]T](c.client.request(ctx, q.Admin).
		SetQueryParams(q.params()).
		Get(c.path))
	if err != nil {
		return nil, nil, err
	}
	if env.Data == nil {
		env.Data = []T{}
	}
	return env.Data, env.Meta, nil
}

// Get fetches one record anonymously. A success response without data counts
// as not found.
func (c *Collection[T]) Get(ctx context.Context, id string) (*T, error) {
	return c.get(ctx, id, false)
}

// GetAuthorized fetches one record with the bearer token, so drafts are visible.
func (c *Collection[T]) GetAuthorized(ctx context.Context, id string) (*T, error) {
	return c.get(ctx, id, true)
}

func (c *Collection[T]) get(ctx context.Context, id string, authorized bool) (*T, error) {
	if id == "" {
		return nil, ErrNotFound
	}
	env, err := decode[*T](c.client.request(ctx, authorized).
		SetPathParam("id", id).
		Get(c.path + "/{id}"))
	if err != nil {
		return nil, err
	}
	if env.Data == nil {
		return nil, ErrNotFound
	}
	return env.Data, nil
}

// Create posts a multipart form. The repository may answer without data.
func (c *Collection[T]) Create(ctx context.Context, form Form) (*T, error) {
	env, err := decode[*T](withForm(c.client.request(ctx, true), form).
		Post(c.path))
	if err != nil {
		return nil, err
	}
	return env.Data, nil
}

// Update emulates PUT over a multipart POST.
func (c *Collection[T]) Update(ctx context.Context, id string, form Form) (*T, error) {
	if id == "" {
		return nil, ErrNotFound
	}
	env, err := decode[*T](withForm(c.client.request(ctx, true), form).
		SetPathParam("id", id).
		SetQueryParam("_method", "PUT").
		Post(c.path + "/{id}"))
	if err != nil {
		return nil, err
	}
	return env.Data, nil
}

func (c *Collection[T]) Delete(ctx context.Context, id string) error {
	if id == "" {
		return ErrNotFound
	}
	_, err := decode[any](c.client.request(ctx, true).
		SetPathParam("id", id).
		Delete(c.path + "/{id}"))
	return err
}

func (c *Collection[T]) Publish(ctx context.Context, id string) (*T, error) {
	if id == "" {
		return nil, ErrNotFound
	}
	env, err := decode[*T](c.client.request(ctx, true).
		SetPathParam("id", id).
		Post(c.path + "/{id}/publish"))
	if err != nil {
		return nil, err
	}
	return env.Data, nil
}

// UploadImage sends a single image part and returns the URL the repository stored it at.
func (c *Collection[T]) UploadImage(ctx context.Context, name string, r io.Reader) (string, error) {
	env, err := decode[any](c.client.request(ctx, true).
		SetFileReader("image", name, r).
		Post(c.path + "/upload-image"))
	if err != nil {
		return "", err
	}
	if env.URL == "" {
		return "", &ValidationError{Message: "upload succeeded without a url"}
	}
	return env.URL, nil
}
