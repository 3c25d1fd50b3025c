// Package screen keeps the per-screen view state a list page needs: the last
// loaded page, whether a load is running, and the last error. Consumers render
// from State and never look at HTTP status codes.
package screen

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/jrsteele09/vpn-admin/api"
	"github.com/jrsteele09/vpn-admin/resource"
	"github.com/rs/zerolog/log"
)

var (
	DisposedErr   = errors.New("list view disposed")
	SupersededErr = errors.New("load superseded by a newer load")
)

// statusAll is the filter value meaning no status filter.
const statusAll = "all"

// Fetcher loads one page. The admin services' List methods fit once their
// filter argument is bound.
type Fetcher func(ctx context.Context, req resource.PageRequest) (resource.PageResult, error)

// State is a snapshot of a ListView.
type State struct {
	Loading bool
	Err     *api.AppError
	Page    resource.PageResult
	Request resource.PageRequest
}

// ListView caches loading and error flags for one list screen. Results that
// arrive after Dispose, or after a newer Load started, are dropped.
type ListView struct {
	name         string
	fetch        Fetcher
	searchFields []string
	statusField  string

	mu         sync.RWMutex
	generation uint64
	disposed   bool
	request    resource.PageRequest
	state      State
}

type Option func(*ListView)

// WithSearchFields limits Search to the named attributes. By default every
// string attribute is searched.
func WithSearchFields(fields ...string) Option {
	return func(v *ListView) {
		v.searchFields = fields
	}
}

func WithPerPage(perPage int) Option {
	return func(v *ListView) {
		v.request.PerPage = perPage
	}
}

// WithStatusField names the attribute FilterStatus and StatusCounts read.
func WithStatusField(name string) Option {
	return func(v *ListView) {
		if name != "" {
			v.statusField = name
		}
	}
}

func NewListView(name string, fetch Fetcher, options ...Option) *ListView {
	v := &ListView{
		name:        name,
		fetch:       fetch,
		statusField: "status",
		request:     resource.NewPageRequest(resource.DefaultPage, 0),
	}
	for _, opt := range options {
		opt(v)
	}
	return v
}

// SetFilter adds a server side filter for subsequent loads. Empty strings and
// nil are ignored; ClearFilters resets them all.
func (v *ListView) SetFilter(name string, value any) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.request = v.request.With(name, value)
}

func (v *ListView) ClearFilters() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.request.Filters = nil
}

// Load fetches page and records the outcome. The returned error is the
// *api.AppError stored in State, DisposedErr, or SupersededErr when a newer
// Load owns the state.
func (v *ListView) Load(ctx context.Context, page int) error {
	v.mu.Lock()
	if v.disposed {
		v.mu.Unlock()
		return DisposedErr
	}
	v.generation++
	gen := v.generation
	req := v.request
	req.Page = page
	v.state.Loading = true
	v.state.Err = nil
	v.mu.Unlock()

	result, err := v.fetch(ctx, req)

	v.mu.Lock()
	defer v.mu.Unlock()
	switch {
	case v.disposed:
		log.Debug().Str("screen", v.name).Msg("[screen.Load] discarding result for disposed view")
		return DisposedErr
	case gen != v.generation:
		log.Debug().Str("screen", v.name).Int("page", page).Msg("[screen.Load] discarding superseded result")
		return SupersededErr
	}

	v.state.Loading = false
	if err != nil {
		appErr := api.ToAppError(err)
		v.state.Err = appErr
		return appErr
	}
	v.state.Page = result
	v.state.Request = req
	return nil
}

// Reload fetches the current page again; it is the screen's retry action.
func (v *ListView) Reload(ctx context.Context) error {
	return v.Load(ctx, v.currentPage())
}

// Next loads the following page. It does nothing on the last page.
func (v *ListView) Next(ctx context.Context) error {
	v.mu.RLock()
	page := v.state.Page
	v.mu.RUnlock()
	if !page.HasNext() {
		return nil
	}
	return v.Load(ctx, page.CurrentPage+1)
}

func (v *ListView) Previous(ctx context.Context) error {
	current := v.currentPage()
	if current <= resource.DefaultPage {
		return nil
	}
	return v.Load(ctx, current-1)
}

func (v *ListView) currentPage() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if v.state.Page.CurrentPage > 0 {
		return v.state.Page.CurrentPage
	}
	return resource.DefaultPage
}

func (v *ListView) State() State {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.state
}

// Search filters the loaded page by a case-insensitive substring match.
// An empty term returns every item.
func (v *ListView) Search(term string) []resource.Resource {
	term = strings.ToLower(strings.TrimSpace(term))
	v.mu.RLock()
	defer v.mu.RUnlock()

	var out []resource.Resource
	for _, item := range v.state.Page.Items {
		if term == "" || v.matches(item, term) {
			out = append(out, item)
		}
	}
	return out
}

func (v *ListView) matches(item resource.Resource, term string) bool {
	if len(v.searchFields) > 0 {
		for _, field := range v.searchFields {
			if strings.Contains(strings.ToLower(item.String(field)), term) {
				return true
			}
		}
		return false
	}
	for _, value := range item.Attributes() {
		if s, ok := value.(string); ok && strings.Contains(strings.ToLower(s), term) {
			return true
		}
	}
	return false
}

// FilterStatus keeps the loaded items whose status equals status. "" and
// "all" keep everything.
func (v *ListView) FilterStatus(status string) []resource.Resource {
	v.mu.RLock()
	defer v.mu.RUnlock()

	var out []resource.Resource
	for _, item := range v.state.Page.Items {
		if status == "" || status == statusAll || strings.EqualFold(item.String(v.statusField), status) {
			out = append(out, item)
		}
	}
	return out
}

// StatusCounts tallies the loaded items by status, for summary badges.
func (v *ListView) StatusCounts() map[string]int {
	v.mu.RLock()
	defer v.mu.RUnlock()

	counts := make(map[string]int)
	for _, item := range v.state.Page.Items {
		counts[item.String(v.statusField)]++
	}
	return counts
}

// Statuses lists the distinct statuses on the loaded page, sorted.
func (v *ListView) Statuses() []string {
	counts := v.StatusCounts()
	out := make([]string, 0, len(counts))
	for s := range counts {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// Dispose detaches the view. Loads still in flight are discarded when they
// return and further Loads fail with DisposedErr.
func (v *ListView) Dispose() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.disposed = true
	v.state.Loading = false
}
