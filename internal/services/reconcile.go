package services

import (
	"event-builder/models"

	"github.com/shopspring/decimal"
)

type comboKey struct {
	sectorID  string
	profileID string
}

// ReconcileCombinations returns exactly one combination per current
// (sector, profile) pair, sector-major. Pairs that already existed keep
// their id, price and allocation; new pairs start at zero with an id from
// newID; pairs naming a removed sector or profile are dropped.
func ReconcileCombinations(
	sectors []models.TicketSector,
	profiles []models.BuyerProfile,
	existing []models.PriceCombination,
	newID func() string,
) []models.PriceCombination {
	prior := make(map[comboKey]models.PriceCombination, len(existing))
	for _, c := range existing {
		k := comboKey{c.SectorID, c.ProfileID}
		if _, seen := prior[k]; !seen {
			prior[k] = c
		}
	}

	out := make([]models.PriceCombination, 0, len(sectors)*len(profiles))
	for _, s := range sectors {
		for _, p := range profiles {
			if c, ok := prior[comboKey{s.ID, p.ID}]; ok {
				out = append(out, c)
				continue
			}
			out = append(out, models.PriceCombination{
				ID:        newID(),
				SectorID:  s.ID,
				ProfileID: p.ID,
				BasePrice: decimal.Zero,
			})
		}
	}
	return out
}

// ReconcileMatrix builds a complete sector -> profile -> ticket type table
// over the given ids. Triples present in existing keep their value, all
// other triples are zero, and nothing outside the given ids survives.
func ReconcileMatrix(sectorIDs, profileIDs, ticketTypeIDs []string, existing models.PriceMatrix) models.PriceMatrix {
	out := make(models.PriceMatrix, len(sectorIDs))
	for _, s := range sectorIDs {
		for _, p := range profileIDs {
			for _, t := range ticketTypeIDs {
				v, ok := existing.Get(s, p, t)
				if !ok {
					v = decimal.Zero
				}
				out.Set(s, p, t, v)
			}
		}
	}
	return out
}

// MatrixFromPhases projects the per-phase combinations into the 3-D view,
// keyed by phase id on the ticket type axis.
func MatrixFromPhases(phases []models.TicketPhase) models.PriceMatrix {
	m := models.PriceMatrix{}
	for _, ph := range phases {
		for _, c := range ph.Combinations {
			m.Set(c.SectorID, c.ProfileID, ph.ID, c.BasePrice)
		}
	}
	return m
}

func sectorIDs(sectors []models.TicketSector) []string {
	ids := make([]string, len(sectors))
	for i, s := range sectors {
		ids[i] = s.ID
	}
	return ids
}

func profileIDs(profiles []models.BuyerProfile) []string {
	ids := make([]string, len(profiles))
	for i, p := range profiles {
		ids[i] = p.ID
	}
	return ids
}

func phaseIDs(phases []models.TicketPhase) []string {
	ids := make([]string, len(phases))
	for i, p := range phases {
		ids[i] = p.ID
	}
	return ids
}
