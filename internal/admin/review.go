package admin

import (
	"context"
	"fmt"
	"strings"

	"github.com/wolfman30/smilecare-dental/internal/appointments"
)

// StatusFilter selects appointments by status. FilterAll matches every one.
type StatusFilter string

const FilterAll StatusFilter = "ALL"

// ParseFilter accepts "ALL" (or empty) and any status name, case-insensitively.
func ParseFilter(raw string) (StatusFilter, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.EqualFold(raw, string(FilterAll)) {
		return FilterAll, nil
	}
	status, err := appointments.ParseStatus(raw)
	if err != nil {
		return "", err
	}
	return StatusFilter(status), nil
}

func (f StatusFilter) matches(s appointments.Status) bool {
	return f == FilterAll || f == "" || appointments.Status(f) == s
}

// Action is an operator button offered for an appointment.
type Action struct {
	Label  string              `json:"label"`
	Target appointments.Status `json:"target"`
}

var actionLabels = map[appointments.Status]string{
	appointments.StatusConfirmed: "Approve",
	appointments.StatusCancelled: "Reject",
	appointments.StatusCompleted: "Mark Complete",
}

// Actions lists the transitions an operator may apply from status.
func Actions(status appointments.Status) []Action {
	next := appointments.AllowedTransitions(status)
	out := make([]Action, 0, len(next))
	for _, target := range next {
		out = append(out, Action{Label: actionLabels[target], Target: target})
	}
	return out
}

// Stats are counters derived from the current appointment list.
type Stats struct {
	Pending   int `json:"pending"`
	Confirmed int `json:"confirmed"`
	Today     int `json:"today"`
	Total     int `json:"total"`
}

// StatusSetter applies operator transitions.
type StatusSetter interface {
	SetStatus(ctx context.Context, id string, status appointments.Status) (appointments.StatusChange, error)
}

// Review is the admin read model and transition entry point.
type Review struct {
	store  *appointments.Store
	setter StatusSetter
}

// NewReview builds a review over store. setter defaults to the store itself.
func NewReview(store *appointments.Store, setter StatusSetter) *Review {
	if store == nil {
		panic("admin: appointment store required")
	}
	if setter == nil {
		setter = store
	}
	return &Review{store: store, setter: setter}
}

// Filter returns matching appointments, most recent first. It is recomputed on
// every call.
func (r *Review) Filter(f StatusFilter) []appointments.Appointment {
	all := r.store.List()
	out := make([]appointments.Appointment, 0, len(all))
	for _, apt := range all {
		if f.matches(apt.Status) {
			out = append(out, apt)
		}
	}
	return out
}

// Transition moves an appointment along the status graph.
func (r *Review) Transition(ctx context.Context, id string, to appointments.Status) (appointments.StatusChange, error) {
	change, err := r.setter.SetStatus(ctx, id, to)
	if err != nil {
		return change, fmt.Errorf("admin: transition %s: %w", id, err)
	}
	return change, nil
}

// Stats counts pending and confirmed appointments and those dated today.
func (r *Review) Stats(today string) Stats {
	var s Stats
	for _, apt := range r.store.List() {
		s.Total++
		switch apt.Status {
		case appointments.StatusPending:
			s.Pending++
		case appointments.StatusConfirmed:
			s.Confirmed++
		}
		if apt.Date == today {
			s.Today++
		}
	}
	return s
}

// Today is the clinic-local date used for the today counter.
func (r *Review) Today() string {
	return r.store.Today()
}
