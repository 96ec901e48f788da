package models

import (
	"strings"
	"time"
)

// EventDraft is one organizer's editing session of an event before it is
// submitted to the event API. The builder owns it exclusively.
type EventDraft struct {
	ID          string `json:"id"`
	OwnerID     string `json:"owner_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Venue       string `json:"venue"`
	StartsAt    string `json:"starts_at"`
	EndsAt      string `json:"ends_at"`

	BuyerProfiles []BuyerProfile `json:"buyer_profiles"`
	TicketSectors []TicketSector `json:"ticket_sectors"`
	TicketPhases  []TicketPhase  `json:"ticket_phases"`
	Discounts     []Discount     `json:"discounts"`
	TaxConfig     TaxConfig      `json:"tax_config"`

	UpdatedAt time.Time `json:"updated_at"`
}

// Clone returns a deep copy of the draft. Phases do not share combination
// slices with the original.
func (d *EventDraft) Clone() *EventDraft {
	c := *d
	c.BuyerProfiles = append([]BuyerProfile(nil), d.BuyerProfiles...)
	c.TicketSectors = append([]TicketSector(nil), d.TicketSectors...)
	c.Discounts = append([]Discount(nil), d.Discounts...)
	c.TicketPhases = make([]TicketPhase, len(d.TicketPhases))
	for i, p := range d.TicketPhases {
		c.TicketPhases[i] = p
		c.TicketPhases[i].Combinations = append([]PriceCombination(nil), p.Combinations...)
	}
	return &c
}

// dateTimeLayouts are the accepted shapes of user-entered date/time values,
// most specific first. Values without a zone are read as UTC.
var dateTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
}

// ParseDateTime parses a user-entered date/time. The second result is false
// when the value is blank or does not match any accepted layout.
func ParseDateTime(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range dateTimeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
