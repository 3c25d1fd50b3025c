package adminfake

import (
	"errors"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/jrsteele09/vpn-admin/internal/utils"
)

var errRecordNotFound = errors.New("not found")

// record is one stored entity. "id" is always an int.
type record map[string]any

func (r record) clone() record {
	out := make(record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

func (r record) id() int {
	id, _ := utils.ToInt(r["id"])
	return id
}

// collection is a table of records with sequential ids.
type collection struct {
	records map[int]record
	nextID  int
	lock    sync.RWMutex
}

func newCollection() *collection {
	return &collection{records: make(map[int]record), nextID: 1}
}

func (c *collection) insert(r record) record {
	c.lock.Lock()
	defer c.lock.Unlock()

	stored := r.clone()
	stored["id"] = c.nextID
	c.records[c.nextID] = stored
	c.nextID++
	return stored.clone()
}

func (c *collection) get(id string) (record, error) {
	c.lock.RLock()
	defer c.lock.RUnlock()

	n, err := strconv.Atoi(id)
	if err != nil {
		return nil, errRecordNotFound
	}
	r, ok := c.records[n]
	if !ok {
		return nil, errRecordNotFound
	}
	return r.clone(), nil
}

// update applies fn to a copy of the record and stores the result unless fn fails.
func (c *collection) update(id string, fn func(r record) error) (record, error) {
	c.lock.Lock()
	defer c.lock.Unlock()

	n, err := strconv.Atoi(id)
	if err != nil {
		return nil, errRecordNotFound
	}
	current, ok := c.records[n]
	if !ok {
		return nil, errRecordNotFound
	}
	next := current.clone()
	if err := fn(next); err != nil {
		return nil, err
	}
	next["id"] = n
	c.records[n] = next
	return next.clone(), nil
}

func (c *collection) delete(id string) error {
	c.lock.Lock()
	defer c.lock.Unlock()

	n, err := strconv.Atoi(id)
	if err != nil {
		return errRecordNotFound
	}
	if _, ok := c.records[n]; !ok {
		return errRecordNotFound
	}
	delete(c.records, n)
	return nil
}

func (c *collection) count() int {
	c.lock.RLock()
	defer c.lock.RUnlock()
	return len(c.records)
}

// query filters records. Equality filters compare the string form of the
// field; search matches any of searchFields case-insensitively.
type query struct {
	equals       map[string]string
	search       string
	searchFields []string
	from, to     string // created_at date bounds, YYYY-MM-DD, inclusive
}

func (q query) matches(r record) bool {
	for field, want := range q.equals {
		if utils.ToString(r[field]) != want {
			return false
		}
	}
	if q.search != "" {
		needle := strings.ToLower(q.search)
		found := false
		for _, field := range q.searchFields {
			if strings.Contains(strings.ToLower(utils.ToString(r[field])), needle) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	created := utils.ToString(r["created_at"])
	if len(created) >= 10 {
		created = created[:10]
	}
	if q.from != "" && created < q.from {
		return false
	}
	if q.to != "" && created > q.to {
		return false
	}
	return true
}

// list returns the matching records ordered by id plus the total match count.
func (c *collection) list(q query, page, perPage int) ([]record, int) {
	c.lock.RLock()
	defer c.lock.RUnlock()

	matched := make([]record, 0, len(c.records))
	for _, r := range c.records {
		if q.matches(r) {
			matched = append(matched, r)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].id() < matched[j].id() })

	total := len(matched)
	start := (page - 1) * perPage
	if start >= total {
		return []record{}, total
	}
	end := min(start+perPage, total)

	out := make([]record, 0, end-start)
	for _, r := range matched[start:end] {
		out = append(out, r.clone())
	}
	return out, total
}
