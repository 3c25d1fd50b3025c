package adminfake

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
)

const (
	statusPending   = "pending"
	statusApproved  = "approved"
	statusRejected  = "rejected"
	statusCompleted = "completed"

	defaultPerPage = 20
)

var affiliateStatuses = map[string]bool{"active": true, "inactive": true, "pending": true, "suspended": true}

// listing describes how one collection is filtered and rendered.
type listing struct {
	filters      []string
	searchFields []string
	fixed        map[string]string
	dateRange    bool
	render       func(b *Backend, records []record, page, perPage, total int) any
}

// Users and commissions use the flat {data, meta} envelope.
func paginated(_ *Backend, records []record, page, perPage, total int) any {
	return map[string]any{"data": toMaps(records), "meta": meta(page, perPage, total)}
}

var (
	userListing = listing{
		filters:      []string{"status"},
		searchFields: []string{"email", "name"},
		render:       paginated,
	}
	serverListing = listing{
		filters: []string{"status", "type"},
		render: func(_ *Backend, records []record, page, perPage, total int) any {
			items := make([]map[string]any, 0, len(records))
			for _, r := range records {
				items = append(items, jsonAPI("server", r))
			}
			return map[string]any{"data": items, "meta": meta(page, perPage, total)}
		},
	}
	assignmentListing = listing{
		filters: []string{"status", "is_premium", "server_id", "user_id"},
		render:  renderAssignments,
	}
	pendingListing = listing{
		fixed:  map[string]string{"status": statusPending},
		render: renderAssignments,
	}
	affiliateListing = listing{
		filters:      []string{"status"},
		searchFields: []string{"name", "email", "referral_code"},
		// Affiliates come back wrapped twice: {data: {data: [...], meta}}.
		render: func(b *Backend, records []record, page, perPage, total int) any {
			return map[string]any{"data": paginated(b, records, page, perPage, total)}
		},
	}
	commissionListing = listing{
		filters:   []string{"status", "affiliate_id"},
		dateRange: true,
		render:    paginated,
	}
	withdrawalListing = listing{
		filters: []string{"status", "affiliate_id"},
		render:  paginated,
	}
)

// renderAssignments links each assignment to its user and server and
// side-loads both in "included".
func renderAssignments(b *Backend, records []record, page, perPage, total int) any {
	items := make([]map[string]any, 0, len(records))
	included := []map[string]any{}
	seen := map[string]bool{}
	for _, r := range records {
		item := map[string]any(r.clone())
		relationships := map[string]any{}
		for _, rel := range []struct {
			name string
			kind string
			c    Collection
		}{{"user", "user", Users}, {"server", "server", Servers}} {
			id := fmt.Sprint(r[rel.name+"_id"])
			relationships[rel.name] = map[string]any{"data": map[string]any{"id": id, "type": rel.kind}}
			key := rel.kind + ":" + id
			if seen[key] {
				continue
			}
			if related, err := b.tables[rel.c].get(id); err == nil {
				seen[key] = true
				included = append(included, jsonAPI(rel.kind, related))
			}
		}
		item["relationships"] = relationships
		items = append(items, item)
	}
	return map[string]any{"data": items, "meta": meta(page, perPage, total), "included": included}
}

func flatItem(r record) any {
	return map[string]any{"data": map[string]any(r)}
}

func serverItem(r record) any {
	return map[string]any{"data": jsonAPI("server", r)}
}

func pageParams(r *http.Request) (int, int, error) {
	page, perPage := 1, defaultPerPage
	if v := r.URL.Query().Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return 0, 0, fmt.Errorf("invalid page %q", v)
		}
		page = n
	}
	if v := r.URL.Query().Get("per_page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return 0, 0, fmt.Errorf("invalid per_page %q", v)
		}
		perPage = n
	}
	return page, perPage, nil
}

func (b *Backend) listHandler(c Collection, l listing) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, perPage, err := pageParams(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		q := query{equals: map[string]string{}, searchFields: l.searchFields}
		values := r.URL.Query()
		for _, f := range l.filters {
			if v := values.Get(f); v != "" {
				q.equals[f] = v
			}
		}
		for k, v := range l.fixed {
			q.equals[k] = v
		}
		if len(l.searchFields) > 0 {
			q.search = values.Get("search")
		}
		if l.dateRange {
			q.from, q.to = values.Get("start_date"), values.Get("end_date")
		}

		records, total := b.tables[c].list(q, page, perPage)
		writeJSON(w, http.StatusOK, l.render(b, records, page, perPage, total))
	}
}

func (b *Backend) getHandler(c Collection, render func(record) any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec, err := b.tables[c].get(mux.Vars(r)["id"])
		if err != nil {
			writeError(w, http.StatusNotFound, "Record not found")
			return
		}
		writeJSON(w, http.StatusOK, render(rec))
	}
}

// decodeEnvelope reads {key: {...}} request bodies.
func decodeEnvelope(r *http.Request, key string) (map[string]any, error) {
	var body map[string]map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return nil, err
	}
	attrs, ok := body[key]
	if !ok {
		return nil, fmt.Errorf("%s is required", key)
	}
	return attrs, nil
}

func missingFields(attrs map[string]any, required []string) map[string][]string {
	fields := map[string][]string{}
	for _, name := range required {
		if v, ok := attrs[name]; !ok || v == nil || strings.TrimSpace(fmt.Sprint(v)) == "" {
			fields[name] = []string{"can't be blank"}
		}
	}
	return fields
}

func (b *Backend) createHandler(c Collection, key string, required []string, render func(record) any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		attrs, err := decodeEnvelope(r, key)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if fields := missingFields(attrs, required); len(fields) > 0 {
			writeValidation(w, "Validation failed", fields)
			return
		}
		id := b.Seed(c, attrs)
		rec, _ := b.tables[c].get(id)
		writeJSON(w, http.StatusCreated, render(rec))
	}
}

func (b *Backend) updateHandler(c Collection, key string, render func(record) any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		attrs, err := decodeEnvelope(r, key)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		rec, err := b.tables[c].update(mux.Vars(r)["id"], func(rec record) error {
			for k, v := range attrs {
				rec[k] = v
			}
			return nil
		})
		if err != nil {
			writeError(w, http.StatusNotFound, "Record not found")
			return
		}
		writeJSON(w, http.StatusOK, render(rec))
	}
}

func (b *Backend) deleteHandler(c Collection) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := b.tables[c].delete(mux.Vars(r)["id"]); err != nil {
			writeError(w, http.StatusNotFound, "Record not found")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// serverForm reads the server[...] multipart fields.
func serverForm(r *http.Request) (map[string]any, error) {
	if err := r.ParseMultipartForm(1 << 20); err != nil {
		return nil, err
	}
	attrs := map[string]any{}
	for key, values := range r.MultipartForm.Value {
		name, ok := strings.CutPrefix(key, "server[")
		if !ok || !strings.HasSuffix(name, "]") || len(values) == 0 {
			continue
		}
		attrs[strings.TrimSuffix(name, "]")] = values[0]
	}
	return attrs, nil
}

func (b *Backend) createServerHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		attrs, err := serverForm(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if fields := missingFields(attrs, []string{"name", "ip_address"}); len(fields) > 0 {
			writeValidation(w, "Validation failed", fields)
			return
		}
		if _, ok := attrs["status"]; !ok {
			attrs["status"] = "active"
		}
		id := b.Seed(Servers, attrs)
		rec, _ := b.tables[Servers].get(id)
		writeJSON(w, http.StatusCreated, serverItem(rec))
	}
}

func (b *Backend) updateServerHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		attrs, err := serverForm(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		rec, err := b.tables[Servers].update(mux.Vars(r)["id"], func(rec record) error {
			for k, v := range attrs {
				rec[k] = v
			}
			return nil
		})
		if err != nil {
			writeError(w, http.StatusNotFound, "Record not found")
			return
		}
		writeJSON(w, http.StatusOK, serverItem(rec))
	}
}

// userDevicesHandler answers with a bare array.
func (b *Backend) userDevicesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := mux.Vars(r)["id"]
		if _, err := b.tables[Users].get(userID); err != nil {
			writeError(w, http.StatusNotFound, "User not found")
			return
		}
		devices, _ := b.tables[Devices].list(query{equals: map[string]string{"user_id": userID}}, 1, 1000)
		writeJSON(w, http.StatusOK, toMaps(devices))
	}
}

func (b *Backend) removeDeviceHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vars := mux.Vars(r)
		device, err := b.tables[Devices].get(vars["device_id"])
		if err != nil || fmt.Sprint(device["user_id"]) != vars["id"] {
			writeError(w, http.StatusNotFound, "Device not found")
			return
		}
		_ = b.tables[Devices].delete(vars["device_id"])
		w.WriteHeader(http.StatusNoContent)
	}
}

func (b *Backend) affiliateStatusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Status string `json:"status"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "Malformed request body")
			return
		}
		if !affiliateStatuses[body.Status] {
			writeValidation(w, fmt.Sprintf("Invalid status %q", body.Status), map[string][]string{"status": {"is not included in the list"}})
			return
		}
		rec, err := b.tables[Affiliates].update(mux.Vars(r)["id"], func(rec record) error {
			rec["status"] = body.Status
			return nil
		})
		if err != nil {
			writeError(w, http.StatusNotFound, "Record not found")
			return
		}
		writeJSON(w, http.StatusOK, flatItem(rec))
	}
}

// transitionRule is one allowed status change. Required and optional body
// fields are copied onto the record.
type transitionRule struct {
	from     []string
	to       string
	required []string
	optional []string
	// stamp names the timestamp field set on success, <to>_at by default.
	stamp string
}

type invalidTransitionError struct {
	current, to string
}

func (e *invalidTransitionError) Error() string {
	return fmt.Sprintf("Cannot mark a %s request as %s", e.current, e.to)
}

func (b *Backend) transitionHandler(c Collection, rule transitionRule) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body := map[string]any{}
		if r.ContentLength != 0 {
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				writeError(w, http.StatusBadRequest, "Malformed request body")
				return
			}
		}
		if fields := missingFields(body, rule.required); len(fields) > 0 {
			writeValidation(w, "Validation failed", fields)
			return
		}

		rec, err := b.tables[c].update(mux.Vars(r)["id"], func(rec record) error {
			current := fmt.Sprint(rec["status"])
			allowed := false
			for _, from := range rule.from {
				if current == from {
					allowed = true
				}
			}
			if !allowed {
				return &invalidTransitionError{current: current, to: rule.to}
			}
			rec["status"] = rule.to
			stamp := rule.stamp
			if stamp == "" {
				stamp = rule.to + "_at"
			}
			rec[stamp] = b.now().UTC().Format(time.RFC3339)
			for _, name := range append(append([]string{}, rule.required...), rule.optional...) {
				if v, ok := body[name]; ok {
					rec[name] = v
				}
			}
			return nil
		})

		var transitionErr *invalidTransitionError
		switch {
		case errors.As(err, &transitionErr):
			writeValidation(w, transitionErr.Error(), map[string][]string{"status": {"transition not allowed"}})
			return
		case err != nil:
			writeError(w, http.StatusNotFound, "Record not found")
			return
		}
		writeJSON(w, http.StatusOK, flatItem(rec))
	}
}

func (b *Backend) approveAssignmentHandler() http.HandlerFunc {
	return b.transitionHandler(Assignments, transitionRule{
		from:     []string{statusPending},
		to:       statusApproved,
		optional: []string{"expires_at"},
	})
}
