package adminfake

import (
	"net/http"
	"sort"
	"time"

	"github.com/jrsteele09/vpn-admin/internal/utils"
)

const recentActivityLimit = 10

func (b *Backend) countWhere(c Collection, field, value string) int {
	_, total := b.tables[c].list(query{equals: map[string]string{field: value}}, 1, 1)
	return total
}

// statsHandler answers with a plain object, no envelope.
func (b *Backend) statsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		revenue := 0.0
		commissions, _ := b.tables[Commissions].list(query{}, 1, b.tables[Commissions].count()+1)
		for _, c := range commissions {
			if f, ok := c["amount"].(float64); ok {
				revenue += f
			}
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"total_users":          b.tables[Users].count(),
			"active_users":         b.countWhere(Users, "status", "active"),
			"total_servers":        b.tables[Servers].count(),
			"active_servers":       b.countWhere(Servers, "status", "active"),
			"pending_requests":     b.countWhere(Assignments, "status", statusPending),
			"active_subscriptions": b.countWhere(Assignments, "status", statusApproved),
			"pending_withdrawals":  b.countWhere(Withdrawals, "status", statusPending),
			"total_revenue":        revenue,
		})
	}
}

// graphHandler buckets user sign-ups per day over the requested window.
func (b *Backend) graphHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		period := r.URL.Query().Get("period")
		days := 7
		switch period {
		case "monthly":
			days = 30
		case "yearly":
			days = 365
		case "", "weekly":
			period = "weekly"
		default:
			writeValidation(w, "Invalid period", map[string][]string{"period": {"is not included in the list"}})
			return
		}

		end := b.now().UTC()
		if v := r.URL.Query().Get("end_date"); v != "" {
			if t, err := time.Parse(time.DateOnly, v); err == nil {
				end = t
			}
		}
		start := end.AddDate(0, 0, -(days - 1))
		if v := r.URL.Query().Get("start_date"); v != "" {
			if t, err := time.Parse(time.DateOnly, v); err == nil {
				start = t
			}
		}

		counts := map[string]int{}
		users, _ := b.tables[Users].list(query{from: start.Format(time.DateOnly), to: end.Format(time.DateOnly)}, 1, b.tables[Users].count()+1)
		for _, u := range users {
			created := utils.ToString(u["created_at"])
			if len(created) >= 10 {
				counts[created[:10]]++
			}
		}

		labels := []string{}
		values := []int{}
		for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
			day := d.Format(time.DateOnly)
			labels = append(labels, day)
			values = append(values, counts[day])
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"period": period,
			"labels": labels,
			"values": values,
		})
	}
}

// recentActivityHandler answers with a bare array, newest first.
func (b *Backend) recentActivityHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		all, _ := b.tables[Activity].list(query{}, 1, b.tables[Activity].count()+1)
		sort.SliceStable(all, func(i, j int) bool {
			return utils.ToString(all[i]["created_at"]) > utils.ToString(all[j]["created_at"])
		})
		if len(all) > recentActivityLimit {
			all = all[:recentActivityLimit]
		}
		writeJSON(w, http.StatusOK, toMaps(all))
	}
}
