package models

import (
	"github.com/shopspring/decimal"
)

type BuyerProfile struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

type TicketSector struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Capacity int    `json:"capacity"`
}

type PhaseState string

const (
	PhaseDraft    PhaseState = "DRAFT"
	PhaseActive   PhaseState = "ACTIVE"
	PhasePaused   PhaseState = "PAUSED"
	PhaseSoldOut  PhaseState = "SOLD_OUT"
	PhaseFinished PhaseState = "FINISHED"
)

func (s PhaseState) Valid() bool {
	switch s {
	case PhaseDraft, PhaseActive, PhasePaused, PhaseSoldOut, PhaseFinished:
		return true
	}
	return false
}

// TicketPhase is a time-boxed sales window for one ticket type. Each phase
// owns its own combination set.
type TicketPhase struct {
	ID              string             `json:"id"`
	Name            string             `json:"name"`
	TicketTypeLabel string             `json:"ticket_type_label"`
	StartsAt        string             `json:"starts_at"`
	EndsAt          string             `json:"ends_at"`
	State           PhaseState         `json:"state"`
	Combinations    []PriceCombination `json:"combinations"`
}

// PriceCombination is one cell of a phase's sector x profile grid.
type PriceCombination struct {
	ID         string          `json:"id"`
	SectorID   string          `json:"sector_id"`
	ProfileID  string          `json:"profile_id"`
	BasePrice  decimal.Decimal `json:"base_price"`
	Allocation int             `json:"allocation"`
}
