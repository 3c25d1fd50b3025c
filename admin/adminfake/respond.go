package adminfake

import (
	"encoding/json"
	"net/http"
)

const contentTypeJSON = "application/json"

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeValidation answers 422 the way the backend does: a summary message
// plus per-field messages.
func writeValidation(w http.ResponseWriter, message string, fields map[string][]string) {
	body := map[string]any{"message": message}
	if len(fields) > 0 {
		body["errors"] = fields
	}
	writeJSON(w, http.StatusUnprocessableEntity, body)
}

func meta(page, perPage, total int) map[string]int {
	totalPages := 1
	if perPage > 0 && total > 0 {
		totalPages = (total + perPage - 1) / perPage
	}
	return map[string]int{
		"current_page": page,
		"total_pages":  totalPages,
		"total_count":  total,
	}
}

func toMaps(records []record) []map[string]any {
	out := make([]map[string]any, 0, len(records))
	for _, r := range records {
		out = append(out, r)
	}
	return out
}

// jsonAPI renders a record as {id, type, attributes}.
func jsonAPI(kind string, r record) map[string]any {
	attrs := r.clone()
	delete(attrs, "id")
	return map[string]any{
		"id":         r["id"],
		"type":       kind,
		"attributes": attrs,
	}
}
