package resource

import (
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/jrsteele09/vpn-admin/internal/errors"
	"github.com/jrsteele09/vpn-admin/internal/utils"
)

const (
	DefaultPage    = 1
	DefaultPerPage = 20
)

// PageRequest describes one page of a collection fetch.
// Filters hold scalars only: status, search text, dates, foreign-key ids, flags.
type PageRequest struct {
	Page    int
	PerPage int
	Filters map[string]any
}

// PageResult is a normalized collection fetch. A new value replaces the old
// one on every fetch.
type PageResult struct {
	Items       []Resource
	CurrentPage int
	TotalPages  int
	TotalCount  int

	// Included carries side-loaded related resources when the backend sends them.
	Included []Resource
}

// NewPageRequest returns page/perPage with no filters
func NewPageRequest(page, perPage int) PageRequest {
	return PageRequest{Page: page, PerPage: perPage}
}

// With returns a copy carrying an additional filter. Empty strings and nil
// values are dropped so optional filters can be passed unconditionally.
func (p PageRequest) With(name string, value any) PageRequest {
	if value == nil {
		return p
	}
	if s, ok := value.(string); ok && s == "" {
		return p
	}
	filters := make(map[string]any, len(p.Filters)+1)
	for k, v := range p.Filters {
		filters[k] = v
	}
	filters[name] = value
	p.Filters = filters
	return p
}

// Validate rejects negative page numbers and sizes. Zero values take defaults.
func (p PageRequest) Validate() error {
	if p.Page < 0 {
		return errors.Wrapf(errors.ErrInvalidPageRequest, "page %d", p.Page)
	}
	if p.PerPage < 0 {
		return errors.Wrapf(errors.ErrInvalidPageRequest, "per_page %d", p.PerPage)
	}
	return nil
}

// Normalized fills in the defaults for zero values
func (p PageRequest) Normalized(defaultPerPage int) PageRequest {
	if p.Page == 0 {
		p.Page = DefaultPage
	}
	if p.PerPage == 0 {
		p.PerPage = defaultPerPage
		if p.PerPage <= 0 {
			p.PerPage = DefaultPerPage
		}
	}
	return p
}

// Query encodes the request as page, per_page and one parameter per filter.
func (p PageRequest) Query() url.Values {
	q := url.Values{}
	q.Set("page", strconv.Itoa(p.Page))
	q.Set("per_page", strconv.Itoa(p.PerPage))

	names := make([]string, 0, len(p.Filters))
	for k := range p.Filters {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, name := range names {
		switch v := p.Filters[name].(type) {
		case time.Time:
			q.Set(name, v.Format("2006-01-02"))
		default:
			q.Set(name, utils.ToString(v))
		}
	}
	return q
}

// Empty reports whether the page has no items
func (r PageResult) Empty() bool {
	return len(r.Items) == 0
}

// HasNext reports whether a later page exists
func (r PageResult) HasNext() bool {
	return r.CurrentPage < r.TotalPages
}

// Related resolves item's relationship against the side-loaded resources,
// falling back to the bare {id, type} linkage.
func (r PageResult) Related(item Resource, name string) (Resource, bool) {
	link, ok := item.Relationship(name)
	if !ok {
		return nil, false
	}
	for _, inc := range r.Included {
		if inc.ID() == link.ID() && inc.Type() == link.Type() {
			return inc, true
		}
	}
	return link, true
}
