package session

import (
	"sync"

	"github.com/joelkehle/xperience-reports/internal/reports"
)

// History is an append-only list of reports in generation order.
type History struct {
	mu      sync.RWMutex
	reports []reports.Report
}

func NewHistory(initial ...reports.Report) *History {
	h := &History{}
	for _, r := range initial {
		h.reports = append(h.reports, r.Clone())
	}
	return h
}

func (h *History) Append(r reports.Report) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.reports = append(h.reports, r.Clone())
}

// All returns copies of every report, oldest first.
func (h *History) All() []reports.Report {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]reports.Report, len(h.reports))
	for i, r := range h.reports {
		out[i] = r.Clone()
	}
	return out
}

func (h *History) Get(id string) (reports.Report, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, r := range h.reports {
		if r.ID == id {
			return r.Clone(), true
		}
	}
	return reports.Report{}, false
}

func (h *History) Latest() (reports.Report, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if len(h.reports) == 0 {
		return reports.Report{}, false
	}
	return h.reports[len(h.reports)-1].Clone(), true
}

func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.reports)
}
