// internal/client/listing/controller.go
package listing

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dalemusser/communityhub/internal/app/system/filters"
	"github.com/dalemusser/communityhub/internal/client"
	"github.com/dalemusser/communityhub/internal/client/notify"
	"github.com/dalemusser/communityhub/internal/domain/record"
	"github.com/dalemusser/communityhub/internal/domain/resource"
	"go.uber.org/zap"
)

// ErrStale is returned by a fetch whose response arrived after a newer
// fetch was issued. Its result was discarded.
var ErrStale = errors.New("stale response discarded")

// Fetcher is the part of the API client a listing needs.
type Fetcher interface {
	List(ctx context.Context, kind resource.Kind, page int) (client.Page, error)
	Search(ctx context.Context, kind resource.Kind, params filters.Params, page int) (client.Page, error)
	Delete(ctx context.Context, kind resource.Kind, id string) (string, error)
	BulkDelete(ctx context.Context, kind resource.Kind, ids []string) (client.BulkResult, error)
}

// State is a snapshot of a listing.
type State struct {
	Items       []record.Record
	CurrentPage int
	TotalPages  int
	Loading     bool
	SearchMode  bool
	Filters     filters.Params
	Err         error
}

// Controller is the paginated, filterable list for one resource kind.
// Every fetch replaces the list; items are cleared when a fetch starts.
// Only the latest fetch may update state, and the current page moves only
// when a fetch succeeds.
type Controller struct {
	kind   resource.Kind
	api    Fetcher
	banner *notify.Banner
	log    *zap.Logger

	mu        sync.Mutex
	seq       uint64
	page      int
	total     int
	items     []record.Record
	loading   bool
	searching bool
	form      filters.Params // being edited
	applied   filters.Params // used by search mode
	err       error
	sel       Selection
}

// Option configures a Controller.
type Option func(*Controller)

// WithBanner routes errors and confirmations to b.
func WithBanner(b *notify.Banner) Option {
	return func(c *Controller) { c.banner = b }
}

// WithLogger sets the logger (default: no-op).
func WithLogger(l *zap.Logger) Option {
	return func(c *Controller) { c.log = l }
}

// New creates a controller for kind. Nothing is fetched until Load.
func New(kind resource.Kind, api Fetcher, opts ...Option) *Controller {
	c := &Controller{
		kind:    kind,
		api:     api,
		log:     zap.NewNop(),
		page:    1,
		form:    filters.Params{},
		applied: filters.Params{},
		items:   []record.Record{},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Kind returns the resource kind being listed.
func (c *Controller) Kind() resource.Kind { return c.kind }

// State returns a snapshot.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return State{
		Items:       append([]record.Record(nil), c.items...),
		CurrentPage: c.page,
		TotalPages:  c.total,
		Loading:     c.loading,
		SearchMode:  c.searching,
		Filters:     c.form.Clone(),
		Err:         c.err,
	}
}

// Load fetches page 1 of the default listing.
func (c *Controller) Load(ctx context.Context) error {
	c.mu.Lock()
	c.searching = false
	c.mu.Unlock()
	return c.fetch(ctx, 1)
}

// Search applies the current filter form and fetches page 1 of the filtered
// listing. Next/Prev stay on the filtered endpoint until ClearFilters.
func (c *Controller) Search(ctx context.Context) error {
	c.mu.Lock()
	if err := c.kind.Filters.Validate(c.form.Active()); err != nil {
		c.mu.Unlock()
		c.showError(err)
		return err
	}
	c.applied = c.form.Active()
	c.searching = true
	c.mu.Unlock()
	return c.fetch(ctx, 1)
}

// ClearFilters empties the form, leaves search mode and reloads page 1.
func (c *Controller) ClearFilters(ctx context.Context) error {
	c.mu.Lock()
	c.form = filters.Params{}
	c.applied = filters.Params{}
	c.searching = false
	c.mu.Unlock()
	return c.fetch(ctx, 1)
}

// Next fetches the following page. At the last page it does nothing.
func (c *Controller) Next(ctx context.Context) error {
	c.mu.Lock()
	page, total := c.page, c.total
	c.mu.Unlock()
	if page >= total {
		return nil
	}
	return c.fetch(ctx, page+1)
}

// Prev fetches the preceding page. At page 1 it does nothing.
func (c *Controller) Prev(ctx context.Context) error {
	c.mu.Lock()
	page := c.page
	c.mu.Unlock()
	if page <= 1 {
		return nil
	}
	return c.fetch(ctx, page-1)
}

// GoTo fetches an arbitrary page in the current mode.
func (c *Controller) GoTo(ctx context.Context, page int) error {
	if page < 1 {
		page = 1
	}
	return c.fetch(ctx, page)
}

// Refresh refetches the current page.
func (c *Controller) Refresh(ctx context.Context) error {
	c.mu.Lock()
	page := c.page
	c.mu.Unlock()
	return c.fetch(ctx, page)
}

func (c *Controller) fetch(ctx context.Context, page int) error {
	c.mu.Lock()
	c.seq++
	seq := c.seq
	c.loading = true
	c.items = []record.Record{}
	c.err = nil
	c.sel.clear()
	searching := c.searching
	applied := c.applied.Clone()
	c.mu.Unlock()

	var (
		p   client.Page
		err error
	)
	if searching {
		p, err = c.api.Search(ctx, c.kind, applied, page)
	} else {
		p, err = c.api.List(ctx, c.kind, page)
	}

	c.mu.Lock()
	if seq != c.seq {
		c.mu.Unlock()
		c.log.Debug("discarding stale listing response",
			zap.String("kind", c.kind.Name), zap.Int("page", page))
		return ErrStale
	}
	c.loading = false
	if err != nil {
		c.err = err
		c.mu.Unlock()
		c.log.Warn("listing fetch failed", zap.String("kind", c.kind.Name), zap.Int("page", page), zap.Error(err))
		c.showError(err)
		return err
	}
	c.page = page
	c.items = p.Items
	c.total = p.TotalPages
	c.mu.Unlock()
	return nil
}

// SetFilter sets a single-valued filter field on the form.
func (c *Controller) SetFilter(key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.form.Set(key, value)
}

// ToggleFilter adds or removes an enum value on the form.
func (c *Controller) ToggleFilter(key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.form.Toggle(key, value)
}

// ClearDate resets a date field on the form to the empty string.
func (c *Controller) ClearDate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.form.ClearDate(key)
}

// Toggle flips id in the selection.
func (c *Controller) Toggle(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sel.Toggle(id)
}

// SelectAll toggles between nothing and every record on the current page.
func (c *Controller) SelectAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	ids := make([]string, 0, len(c.items))
	for _, r := range c.items {
		if id := r.ID(); id != "" {
			ids = append(ids, id)
		}
	}
	c.sel.SelectAll(ids)
}

// Selected returns the selected IDs in page order.
func (c *Controller) Selected() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sel.IDs()
}

// Delete removes one record and refetches the current page.
func (c *Controller) Delete(ctx context.Context, id string) error {
	msg, err := c.api.Delete(ctx, c.kind, id)
	if err != nil {
		c.showError(err)
		return err
	}
	c.showSuccess(msg)
	return c.Refresh(ctx)
}

// BulkDelete asks confirm before deleting the selection in one request.
// Declining clears the selection. ok is false when nothing was sent.
func (c *Controller) BulkDelete(ctx context.Context, confirm Confirmer) (res client.BulkResult, ok bool, err error) {
	ids := c.Selected()
	if len(ids) == 0 {
		return client.BulkResult{}, false, nil
	}
	prompt := fmt.Sprintf("Delete %d %s?", len(ids), c.kind.Plural)
	if confirm == nil || !confirm.Confirm(prompt) {
		c.mu.Lock()
		c.sel.clear()
		c.mu.Unlock()
		return client.BulkResult{}, false, nil
	}

	res, err = c.api.BulkDelete(ctx, c.kind, ids)
	if err != nil {
		c.showError(err)
		return res, true, err
	}
	c.mu.Lock()
	c.sel.clear()
	c.mu.Unlock()

	if len(res.Failed) > 0 {
		c.showError(res.Message)
	} else {
		c.showSuccess(res.Message)
	}
	if err := c.Refresh(ctx); err != nil && !errors.Is(err, ErrStale) {
		return res, true, err
	}
	return res, true, nil
}

func (c *Controller) showError(v any) {
	if c.banner == nil {
		return
	}
	switch x := v.(type) {
	case error:
		c.banner.Error(x.Error())
	case string:
		c.banner.Error(x)
	}
}

func (c *Controller) showSuccess(msg string) {
	if c.banner == nil || msg == "" {
		return
	}
	c.banner.Success(msg)
}
