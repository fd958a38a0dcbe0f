package admin

import (
	"fmt"
	"math"
	"sort"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/wolfman30/smilecare-dental/internal/appointments"
	"github.com/wolfman30/smilecare-dental/internal/catalog"
	"github.com/wolfman30/smilecare-dental/internal/observability/metrics"
)

// DashboardRow is an appointment joined with its catalog names and the
// actions an operator may take.
type DashboardRow struct {
	appointments.Appointment
	ServiceTitle string   `json:"serviceTitle"`
	DoctorName   string   `json:"doctorName"`
	Actions      []Action `json:"actions"`
}

// ChatLatencySnapshot summarises successful chat relay calls.
type ChatLatencySnapshot struct {
	Total      int64               `json:"total"`
	P90Ms      float64             `json:"p90_ms"`
	P95Ms      float64             `json:"p95_ms"`
	ByProvider map[string]int64    `json:"by_provider,omitempty"`
	Buckets    []ChatLatencyBucket `json:"buckets"`
}

type ChatLatencyBucket struct {
	LeSeconds float64 `json:"le_seconds"`
	Label     string  `json:"label,omitempty"`
	Count     int64   `json:"count"`
}

// Dashboard is the admin landing view.
type Dashboard struct {
	Today        string              `json:"today"`
	Filter       StatusFilter        `json:"filter"`
	Stats        Stats               `json:"stats"`
	Appointments []DashboardRow      `json:"appointments"`
	ChatLatency  ChatLatencySnapshot `json:"chat_latency"`
}

// BuildDashboard assembles the dashboard for filter. gatherer may be nil, in
// which case the default Prometheus gatherer is read.
func BuildDashboard(review *Review, c *catalog.Catalog, filter StatusFilter, gatherer prometheus.Gatherer) Dashboard {
	today := review.Today()
	list := review.Filter(filter)
	rows := make([]DashboardRow, 0, len(list))
	for _, apt := range list {
		row := DashboardRow{Appointment: apt, Actions: Actions(apt.Status)}
		if svc, ok := c.ServiceByID(apt.ServiceID); ok {
			row.ServiceTitle = svc.Title
		}
		if doc, ok := c.DoctorByID(apt.DoctorID); ok {
			row.DoctorName = doc.Name
		}
		rows = append(rows, row)
	}
	return Dashboard{
		Today:        today,
		Filter:       filter,
		Stats:        review.Stats(today),
		Appointments: rows,
		ChatLatency:  snapshotChatLatency(gatherer),
	}
}

func snapshotChatLatency(gatherer prometheus.Gatherer) ChatLatencySnapshot {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	mfs, err := gatherer.Gather()
	if err != nil {
		return ChatLatencySnapshot{}
	}
	var family *dto.MetricFamily
	for _, mf := range mfs {
		if mf.GetName() == metrics.ChatLatencyMetric {
			family = mf
			break
		}
	}
	if family == nil {
		return ChatLatencySnapshot{}
	}

	// Merge histograms across providers, successful calls only.
	cumulative := map[float64]uint64{}
	byProvider := map[string]int64{}
	var total uint64
	for _, m := range family.GetMetric() {
		if labelValue(m, "status") != "ok" {
			continue
		}
		h := m.GetHistogram()
		if h == nil {
			continue
		}
		total += h.GetSampleCount()
		byProvider[labelValue(m, "provider")] += int64(h.GetSampleCount())
		for _, b := range h.GetBucket() {
			cumulative[b.GetUpperBound()] += b.GetCumulativeCount()
		}
	}
	if total == 0 {
		return ChatLatencySnapshot{}
	}
	// The +Inf bucket is implicit in the exposition.
	cumulative[math.Inf(1)] = total

	uppers := make([]float64, 0, len(cumulative))
	for upper := range cumulative {
		uppers = append(uppers, upper)
	}
	sort.Float64s(uppers)

	return ChatLatencySnapshot{
		Total:      int64(total),
		P90Ms:      quantile(0.90, total, uppers, cumulative) * 1000,
		P95Ms:      quantile(0.95, total, uppers, cumulative) * 1000,
		ByProvider: byProvider,
		Buckets:    latencyBuckets(uppers, cumulative),
	}
}

func latencyBuckets(uppers []float64, cumulative map[float64]uint64) []ChatLatencyBucket {
	out := make([]ChatLatencyBucket, 0, len(uppers))
	var prev uint64
	var lastFinite float64
	for _, upper := range uppers {
		cum := cumulative[upper]
		count := int64(0)
		if cum >= prev {
			count = int64(cum - prev)
		}
		prev = cum
		if math.IsInf(upper, 1) {
			if count > 0 {
				out = append(out, ChatLatencyBucket{
					LeSeconds: lastFinite,
					Label:     ">" + formatSeconds(lastFinite),
					Count:     count,
				})
			}
			continue
		}
		lastFinite = upper
		out = append(out, ChatLatencyBucket{LeSeconds: upper, Count: count})
	}
	return out
}

// quantile linearly interpolates q within the bucket that crosses it.
func quantile(q float64, total uint64, uppers []float64, cumulative map[float64]uint64) float64 {
	if total == 0 || q <= 0 || len(uppers) == 0 {
		return 0
	}
	target := q * float64(total)
	var prevUpper, prevCum float64
	for _, upper := range uppers {
		cum := float64(cumulative[upper])
		if cum < target {
			prevUpper, prevCum = upper, cum
			continue
		}
		if math.IsInf(upper, 1) {
			return prevUpper
		}
		inBucket := cum - prevCum
		if inBucket <= 0 {
			return upper
		}
		fraction := math.Min(math.Max((target-prevCum)/inBucket, 0), 1)
		return prevUpper + fraction*(upper-prevUpper)
	}
	return prevUpper
}

func labelValue(m *dto.Metric, name string) string {
	for _, lp := range m.GetLabel() {
		if lp.GetName() == name {
			return lp.GetValue()
		}
	}
	return ""
}

func formatSeconds(seconds float64) string {
	switch {
	case seconds <= 0:
		return "0s"
	case seconds < 1:
		return fmt.Sprintf("%.2fs", seconds)
	case seconds < 10:
		return fmt.Sprintf("%.1fs", seconds)
	default:
		return fmt.Sprintf("%.0fs", seconds)
	}
}
