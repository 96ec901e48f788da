package services

import (
	"event-builder/models"
)

// BuildPayload serializes a validated draft into the event API's shape.
// Dates that fail to parse are sent as zero times; ValidateDraft rejects
// such drafts before they get here.
func BuildPayload(d *models.EventDraft) *models.EventPayload {
	start, _ := models.ParseDateTime(d.StartsAt)
	end, _ := models.ParseDateTime(d.EndsAt)

	p := &models.EventPayload{
		Title:         d.Title,
		Description:   d.Description,
		Venue:         d.Venue,
		StartsAt:      start,
		EndsAt:        end,
		Status:        models.EventStatusPublished,
		BuyerProfiles: make([]models.ProfilePayload, 0, len(d.BuyerProfiles)),
		TicketSectors: make([]models.SectorPayload, 0, len(d.TicketSectors)),
		TicketPhases:  make([]models.PhasePayload, 0, len(d.TicketPhases)),
		Discounts:     make([]models.DiscountPayload, 0, len(d.Discounts)),
		TaxConfig: models.TaxPayload{
			TaxType:  d.TaxConfig.TaxType,
			TaxValue: d.TaxConfig.TaxValue,
			FeeType:  d.TaxConfig.FeeType,
			FeeValue: d.TaxConfig.FeeValue,
		},
	}

	for _, bp := range d.BuyerProfiles {
		p.BuyerProfiles = append(p.BuyerProfiles, models.ProfilePayload{ID: bp.ID, Name: bp.Name, Description: bp.Description})
	}
	for _, s := range d.TicketSectors {
		p.TicketSectors = append(p.TicketSectors, models.SectorPayload{ID: s.ID, Name: s.Name, Capacity: s.Capacity})
	}
	for _, ph := range d.TicketPhases {
		ps, _ := models.ParseDateTime(ph.StartsAt)
		pe, _ := models.ParseDateTime(ph.EndsAt)
		phase := models.PhasePayload{
			ID:              ph.ID,
			Name:            ph.Name,
			TicketTypeLabel: ph.TicketTypeLabel,
			StartsAt:        ps,
			EndsAt:          pe,
			State:           ph.State,
			Combinations:    make([]models.CombinationPayload, 0, len(ph.Combinations)),
		}
		for _, c := range ph.Combinations {
			phase.Combinations = append(phase.Combinations, models.CombinationPayload{
				ID:         c.ID,
				SectorID:   c.SectorID,
				ProfileID:  c.ProfileID,
				BasePrice:  c.BasePrice,
				FinalPrice: FinalPrice(c.BasePrice, d.TaxConfig),
				Allocation: c.Allocation,
			})
		}
		p.TicketPhases = append(p.TicketPhases, phase)
	}
	for _, dc := range d.Discounts {
		p.Discounts = append(p.Discounts, models.DiscountPayload{
			Code:         dc.Code,
			Type:         dc.Type,
			Value:        dc.Value,
			LimitPerUser: dc.LimitPerUser,
			IsActive:     dc.IsActive,
		})
	}
	return p
}
