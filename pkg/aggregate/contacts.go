package aggregate

import (
	"sort"
	"time"
)

const (
	// JobUnavailable is shown when a contact's job cannot be resolved
	JobUnavailable = "غير متوفر"
	// DefaultTopContacts is the size of the top-contacts ranking
	DefaultTopContacts = 10
	// DefaultRecentContacts is the size of the recent-contacts feed
	DefaultRecentContacts = 20
)

// Click is a contact-click row as fetched for the dashboard. Job is the
// worker's job as resolved by the caller (denormalized value or join); it
// may be empty.
type Click struct {
	ID          string    `json:"id"`
	VisitorID   string    `json:"visitor_id"`
	WorkerID    string    `json:"worker_id,omitempty"`
	WorkerName  string    `json:"worker_name"`
	WorkerPhone string    `json:"worker_phone"`
	Job         string    `json:"job,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// TopContact is one row of the top-contacts ranking
type TopContact struct {
	WorkerID string `json:"worker_id"`
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Job      string `json:"job"`
	Count    int    `json:"count"`
}

// TopContacts groups clicks by worker id in order of first appearance,
// counts them and ranks by count descending. Ties keep first-appearance
// order. Name, phone and job come from the first click of each group; a
// group without a job gets JobUnavailable. Clicks without a worker id share
// one group. limit <= 0 means DefaultTopContacts.
func TopContacts(clicks []Click, limit int) []TopContact {
	if limit <= 0 {
		limit = DefaultTopContacts
	}

	ranking := make([]TopContact, 0)
	index := make(map[string]int)
	for _, c := range clicks {
		i, ok := index[c.WorkerID]
		if !ok {
			job := c.Job
			if job == "" {
				job = JobUnavailable
			}
			ranking = append(ranking, TopContact{
				WorkerID: c.WorkerID,
				Name:     c.WorkerName,
				Phone:    c.WorkerPhone,
				Job:      job,
			})
			i = len(ranking) - 1
			index[c.WorkerID] = i
		}
		ranking[i].Count++
	}

	sort.SliceStable(ranking, func(a, b int) bool {
		return ranking[a].Count > ranking[b].Count
	})

	if len(ranking) > limit {
		ranking = ranking[:limit]
	}
	return ranking
}

// RecentContacts returns at most n clicks, newest first, without grouping.
// n <= 0 means DefaultRecentContacts.
func RecentContacts(clicks []Click, n int) []Click {
	if n <= 0 {
		n = DefaultRecentContacts
	}

	out := make([]Click, len(clicks))
	copy(out, clicks)
	sort.SliceStable(out, func(a, b int) bool {
		return out[a].CreatedAt.After(out[b].CreatedAt)
	})

	if len(out) > n {
		out = out[:n]
	}
	return out
}
