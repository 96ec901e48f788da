package services

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"event-builder/internal/status"
	"event-builder/models"
)

// ValidationError is the first rule a draft failed before submission.
type ValidationError struct {
	Rule    int    `json:"rule"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Unwrap() error { return status.ErrValidation }

func invalid(rule int, field, format string, args ...any) *ValidationError {
	return &ValidationError{Rule: rule, Field: field, Message: fmt.Sprintf(format, args...)}
}

// ValidateDraft checks a draft before it is submitted. Rules run in a fixed
// order and only the first failure is reported; nil means the draft can be
// sent.
func ValidateDraft(d *models.EventDraft) *ValidationError {
	if strings.TrimSpace(d.Title) == "" {
		return invalid(1, "title", "Event title is required")
	}
	if strings.TrimSpace(d.Description) == "" {
		return invalid(2, "description", "Event description is required")
	}
	if strings.TrimSpace(d.Venue) == "" {
		return invalid(3, "venue", "Event venue is required")
	}

	start, okStart := models.ParseDateTime(d.StartsAt)
	end, okEnd := models.ParseDateTime(d.EndsAt)
	if !okStart || !okEnd {
		return invalid(4, "starts_at", "Event start and end date/time are required")
	}
	if !end.After(start) {
		return invalid(4, "ends_at", "Event end must be after its start")
	}

	if len(d.BuyerProfiles) == 0 {
		return invalid(5, "buyer_profiles", "At least one buyer profile is required")
	}

	if len(d.TicketSectors) == 0 {
		return invalid(6, "ticket_sectors", "At least one ticket sector is required")
	}
	for _, s := range d.TicketSectors {
		if s.Capacity <= 0 {
			return invalid(6, "ticket_sectors", "Sector %q must have a capacity greater than zero", s.Name)
		}
	}

	if len(d.TicketPhases) == 0 {
		return invalid(7, "ticket_phases", "At least one ticket phase is required")
	}
	windows := make([]phaseWindow, 0, len(d.TicketPhases))
	for _, ph := range d.TicketPhases {
		if strings.TrimSpace(ph.TicketTypeLabel) == "" {
			return invalid(7, "ticket_phases", "Phase %q needs a ticket type", ph.Name)
		}
		ps, okS := models.ParseDateTime(ph.StartsAt)
		pe, okE := models.ParseDateTime(ph.EndsAt)
		if !okS || !okE {
			return invalid(7, "ticket_phases", "Phase %q needs a valid start and end date/time", ph.Name)
		}
		if !pe.After(ps) {
			return invalid(7, "ticket_phases", "Phase %q must end after it starts", ph.Name)
		}
		windows = append(windows, phaseWindow{phase: ph, start: ps, end: pe})
	}

	for _, ph := range d.TicketPhases {
		for _, c := range ph.Combinations {
			if !c.BasePrice.IsPositive() || c.Allocation <= 0 {
				return invalid(8, "combinations", "Every price in phase %q needs a price and an allocation greater than zero", ph.Name)
			}
		}
	}

	if a, b, ok := firstOverlap(windows); ok {
		return invalid(9, "ticket_phases", "Phases %q and %q overlap for ticket type %q",
			a.phase.Name, b.phase.Name, strings.TrimSpace(b.phase.TicketTypeLabel))
	}

	return nil
}

type phaseWindow struct {
	phase models.TicketPhase
	start time.Time
	end   time.Time
}

// ticketTypeKey groups phases case-insensitively by ticket type. A blank
// label falls back to the phase id, so such a phase never shares a group.
func ticketTypeKey(ph models.TicketPhase) string {
	if label := strings.ToLower(strings.TrimSpace(ph.TicketTypeLabel)); label != "" {
		return "label:" + label
	}
	return "id:" + ph.ID
}

// firstOverlap sorts each ticket type's phases by start and reports the
// first adjacent pair where the later phase starts before the earlier one
// ends. Windows that only touch do not overlap.
func firstOverlap(windows []phaseWindow) (phaseWindow, phaseWindow, bool) {
	var order []string
	groups := make(map[string][]phaseWindow)
	for _, w := range windows {
		k := ticketTypeKey(w.phase)
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], w)
	}

	for _, k := range order {
		g := groups[k]
		sort.SliceStable(g, func(i, j int) bool { return g[i].start.Before(g[j].start) })
		for i := 1; i < len(g); i++ {
			if g[i].start.Before(g[i-1].end) {
				return g[i-1], g[i], true
			}
		}
	}
	return phaseWindow{}, phaseWindow{}, false
}
