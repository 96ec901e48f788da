package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// EventStatusPublished is the status sent with every submitted event.
const EventStatusPublished = "PUBLISHED"

// EventPayload is the body POSTed to the external event API.
type EventPayload struct {
	Title         string            `json:"title"`
	Description   string            `json:"description"`
	Venue         string            `json:"venue"`
	StartsAt      time.Time         `json:"startsAt"`
	EndsAt        time.Time         `json:"endsAt"`
	Status        string            `json:"status"`
	BuyerProfiles []ProfilePayload  `json:"buyerProfiles"`
	TicketSectors []SectorPayload   `json:"ticketSectors"`
	TicketPhases  []PhasePayload    `json:"ticketPhases"`
	Discounts     []DiscountPayload `json:"discounts"`
	TaxConfig     TaxPayload        `json:"taxConfig"`
}

type ProfilePayload struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

type SectorPayload struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Capacity int    `json:"capacity"`
}

type PhasePayload struct {
	ID              string               `json:"id"`
	Name            string               `json:"name"`
	TicketTypeLabel string               `json:"ticketType"`
	StartsAt        time.Time            `json:"startDate"`
	EndsAt          time.Time            `json:"endDate"`
	State           PhaseState           `json:"state"`
	Combinations    []CombinationPayload `json:"combinations"`
}

type CombinationPayload struct {
	ID         string          `json:"id"`
	SectorID   string          `json:"sectorId"`
	ProfileID  string          `json:"profileId"`
	BasePrice  decimal.Decimal `json:"basePrice"`
	FinalPrice decimal.Decimal `json:"finalPrice"`
	Allocation int             `json:"allocation"`
}

type DiscountPayload struct {
	Code         string          `json:"code"`
	Type         AmountType      `json:"type"`
	Value        decimal.Decimal `json:"value"`
	LimitPerUser int             `json:"limitPerUser"`
	IsActive     bool            `json:"isActive"`
}

type TaxPayload struct {
	TaxType  AmountType      `json:"taxType"`
	TaxValue decimal.Decimal `json:"taxValue"`
	FeeType  AmountType      `json:"feeType"`
	FeeValue decimal.Decimal `json:"feeValue"`
}

// CreatedEvent is the event API's answer to a successful submission.
type CreatedEvent struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type SubmissionOutcome string

const (
	SubmissionSucceeded SubmissionOutcome = "succeeded"
	SubmissionRejected  SubmissionOutcome = "rejected"
	SubmissionFailed    SubmissionOutcome = "failed"
)

// SubmissionRecord is one audit entry of a submit attempt.
type SubmissionRecord struct {
	DraftID     string            `json:"draft_id"`
	OwnerID     string            `json:"owner_id"`
	EventID     string            `json:"event_id,omitempty"`
	Title       string            `json:"title"`
	Outcome     SubmissionOutcome `json:"outcome"`
	Message     string            `json:"message,omitempty"`
	SubmittedAt time.Time         `json:"submitted_at"`
}
