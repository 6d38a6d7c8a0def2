// internal/client/resources.go
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/dalemusser/communityhub/internal/app/system/filters"
	"github.com/dalemusser/communityhub/internal/domain/record"
	"github.com/dalemusser/communityhub/internal/domain/resource"
)

// Page is one listing response.
type Page struct {
	Items      []record.Record
	TotalPages int
}

// BulkFailure is one ID the server could not delete, and why.
type BulkFailure struct {
	ID     string `json:"id"`
	Reason string `json:"reason"`
}

// BulkResult reports a bulk delete.
type BulkResult struct {
	Message string        `json:"message"`
	Deleted []string      `json:"deleted"`
	Failed  []BulkFailure `json:"failed"`
}

// Mutation is the response to create/update.
type Mutation struct {
	Message string
	Record  record.Record
}

// List fetches a page from the default listing endpoint.
func (c *Client) List(ctx context.Context, kind resource.Kind, page int) (Page, error) {
	return c.fetchPage(ctx, kind, kind.ListPath(), pageQuery(page))
}

// Search fetches a page from the filtered endpoint.
func (c *Client) Search(ctx context.Context, kind resource.Kind, params filters.Params, page int) (Page, error) {
	q := kind.Filters.Values(params)
	q.Set("page", pageQuery(page).Get("page"))
	return c.fetchPage(ctx, kind, kind.SearchPath(), q)
}

func (c *Client) fetchPage(ctx context.Context, kind resource.Kind, path string, q url.Values) (Page, error) {
	var env map[string]json.RawMessage
	if err := c.do(ctx, http.MethodGet, path, q, nil, &env); err != nil {
		return Page{}, err
	}
	var p Page
	if raw, ok := env[kind.Plural]; ok {
		if err := json.Unmarshal(raw, &p.Items); err != nil {
			return Page{}, fmt.Errorf("decode %s: %w", kind.Plural, err)
		}
	}
	if raw, ok := env["totalPages"]; ok {
		if err := json.Unmarshal(raw, &p.TotalPages); err != nil {
			return Page{}, fmt.Errorf("decode totalPages: %w", err)
		}
	}
	if p.Items == nil {
		p.Items = []record.Record{}
	}
	return p, nil
}

// Get fetches one record.
func (c *Client) Get(ctx context.Context, kind resource.Kind, id string) (record.Record, error) {
	var env map[string]json.RawMessage
	if err := c.do(ctx, http.MethodGet, kind.ItemPath(id), nil, nil, &env); err != nil {
		return record.Record{}, err
	}
	var r record.Record
	raw, ok := env[kind.Singular]
	if !ok {
		return r, fmt.Errorf("response has no %q", kind.Singular)
	}
	if err := json.Unmarshal(raw, &r); err != nil {
		return r, err
	}
	return r, nil
}

// Create posts a new record. body is any JSON-marshalable value.
func (c *Client) Create(ctx context.Context, kind resource.Kind, body any) (Mutation, error) {
	return c.mutate(ctx, http.MethodPost, kind, kind.ListPath(), body)
}

// Update patches an existing record with the fields in body.
func (c *Client) Update(ctx context.Context, kind resource.Kind, id string, body any) (Mutation, error) {
	return c.mutate(ctx, http.MethodPatch, kind, kind.ItemPath(id), body)
}

func (c *Client) mutate(ctx context.Context, method string, kind resource.Kind, path string, body any) (Mutation, error) {
	var env map[string]json.RawMessage
	if err := c.do(ctx, method, path, nil, body, &env); err != nil {
		return Mutation{}, err
	}
	var m Mutation
	if raw, ok := env["message"]; ok {
		_ = json.Unmarshal(raw, &m.Message)
	}
	if raw, ok := env[kind.Singular]; ok {
		if err := json.Unmarshal(raw, &m.Record); err != nil {
			return m, err
		}
	}
	return m, nil
}

// Delete removes one record.
func (c *Client) Delete(ctx context.Context, kind resource.Kind, id string) (string, error) {
	var out struct {
		Message string `json:"message"`
	}
	if err := c.do(ctx, http.MethodDelete, kind.ItemPath(id), nil, nil, &out); err != nil {
		return "", err
	}
	return out.Message, nil
}

// BulkDelete removes several records in one request.
func (c *Client) BulkDelete(ctx context.Context, kind resource.Kind, ids []string) (BulkResult, error) {
	var out BulkResult
	body := map[string][]string{"ids": ids}
	if err := c.do(ctx, http.MethodPost, kind.BulkDeletePath(), nil, body, &out); err != nil {
		return BulkResult{}, err
	}
	return out, nil
}

// RecordPayment adds a member payment to a payment account.
func (c *Client) RecordPayment(ctx context.Context, accountID, memberID, amount string) (Mutation, error) {
	body := map[string]any{"memberId": memberID, "amount": json.Number(amount)}
	return c.mutate(ctx, http.MethodPost, resource.Payments, resource.Payments.ItemPath(accountID)+"/pay", body)
}

// ExportCSV downloads the server-rendered CSV for a filtered page.
func (c *Client) ExportCSV(ctx context.Context, kind resource.Kind, params filters.Params, page int, w io.Writer) error {
	q := kind.Filters.Values(params)
	q.Set("page", pageQuery(page).Get("page"))
	resp, err := c.send(ctx, http.MethodGet, kind.ExportPath(), q, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, err = io.Copy(w, resp.Body)
	return err
}
