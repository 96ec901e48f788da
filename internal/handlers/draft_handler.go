package handlers

import (
	"net/http"
	"strconv"

	"event-builder/internal/services"
	"event-builder/models"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
)

type DraftHandler struct {
	drafts      *services.DraftService
	submissions *services.SubmissionService
}

func NewDraftHandler(drafts *services.DraftService, submissions *services.SubmissionService) *DraftHandler {
	return &DraftHandler{drafts: drafts, submissions: submissions}
}

func draftResponse(draft *models.EventDraft) map[string]any {
	return map[string]any{
		"draft":   draft,
		"summary": services.Summarize(draft),
	}
}

// mutate applies fn to the draft named in the path and answers with the
// stored result.
func (h *DraftHandler) mutate(e *core.RequestEvent, operation string, fn func(b *services.EventBuilder) error) error {
	ownerID, err := requireOwner(e)
	if err != nil {
		return err
	}

	draft, err := h.drafts.Mutate(e.Request.Context(), ownerID, e.Request.PathValue("draftId"), operation, fn)
	if err != nil {
		return toAPIError(err)
	}
	return e.JSON(http.StatusOK, draftResponse(draft))
}

func (h *DraftHandler) CreateDraft(e *core.RequestEvent) error {
	ownerID, err := requireOwner(e)
	if err != nil {
		return err
	}

	draft, err := h.drafts.Create(e.Request.Context(), ownerID)
	if err != nil {
		return toAPIError(err)
	}
	return e.JSON(http.StatusCreated, draftResponse(draft))
}

func (h *DraftHandler) GetDraft(e *core.RequestEvent) error {
	ownerID, err := requireOwner(e)
	if err != nil {
		return err
	}

	draft, err := h.drafts.Get(e.Request.Context(), ownerID, e.Request.PathValue("draftId"))
	if err != nil {
		return toAPIError(err)
	}
	return e.JSON(http.StatusOK, draftResponse(draft))
}

func (h *DraftHandler) DiscardDraft(e *core.RequestEvent) error {
	ownerID, err := requireOwner(e)
	if err != nil {
		return err
	}

	if err := h.drafts.Discard(e.Request.Context(), ownerID, e.Request.PathValue("draftId")); err != nil {
		return toAPIError(err)
	}
	return e.NoContent(http.StatusNoContent)
}

func (h *DraftHandler) UpdateEvent(e *core.RequestEvent) error {
	var req services.EventFields
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request body", err)
	}
	return h.mutate(e, "update_event", func(b *services.EventBuilder) error {
		b.UpdateEventFields(req)
		return nil
	})
}

func (h *DraftHandler) AddProfile(e *core.RequestEvent) error {
	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request body", err)
	}
	return h.mutate(e, "add_profile", func(b *services.EventBuilder) error {
		_, err := b.AddProfile(req.Name, req.Description)
		return err
	})
}

func (h *DraftHandler) RemoveProfile(e *core.RequestEvent) error {
	return h.mutate(e, "remove_profile", func(b *services.EventBuilder) error {
		return b.RemoveProfile(e.Request.PathValue("id"))
	})
}

func (h *DraftHandler) AddSector(e *core.RequestEvent) error {
	var req struct {
		Name     string `json:"name"`
		Capacity any    `json:"capacity"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request body", err)
	}
	return h.mutate(e, "add_sector", func(b *services.EventBuilder) error {
		_, err := b.AddSector(req.Name, amountString(req.Capacity))
		return err
	})
}

func (h *DraftHandler) UpdateSector(e *core.RequestEvent) error {
	var req struct {
		Capacity int `json:"capacity"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request body", err)
	}
	return h.mutate(e, "set_sector_capacity", func(b *services.EventBuilder) error {
		return b.SetSectorCapacity(e.Request.PathValue("id"), req.Capacity)
	})
}

func (h *DraftHandler) RemoveSector(e *core.RequestEvent) error {
	return h.mutate(e, "remove_sector", func(b *services.EventBuilder) error {
		return b.RemoveSector(e.Request.PathValue("id"))
	})
}

func (h *DraftHandler) AddPhase(e *core.RequestEvent) error {
	var req services.PhaseInput
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request body", err)
	}
	return h.mutate(e, "add_phase", func(b *services.EventBuilder) error {
		_, err := b.AddPhase(req)
		return err
	})
}

func (h *DraftHandler) UpdatePhase(e *core.RequestEvent) error {
	var req services.PhaseUpdate
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request body", err)
	}
	return h.mutate(e, "update_phase", func(b *services.EventBuilder) error {
		_, err := b.UpdatePhase(e.Request.PathValue("id"), req)
		return err
	})
}

func (h *DraftHandler) RemovePhase(e *core.RequestEvent) error {
	return h.mutate(e, "remove_phase", func(b *services.EventBuilder) error {
		return b.RemovePhase(e.Request.PathValue("id"))
	})
}

func (h *DraftHandler) DuplicatePhase(e *core.RequestEvent) error {
	return h.mutate(e, "duplicate_phase", func(b *services.EventBuilder) error {
		_, err := b.DuplicatePhase(e.Request.PathValue("id"))
		return err
	})
}

func (h *DraftHandler) SetCombination(e *core.RequestEvent) error {
	var req struct {
		SectorID   string `json:"sector_id"`
		ProfileID  string `json:"profile_id"`
		BasePrice  any    `json:"base_price"`
		Allocation int    `json:"allocation"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request body", err)
	}
	return h.mutate(e, "set_combination", func(b *services.EventBuilder) error {
		_, err := b.SetCombination(e.Request.PathValue("id"), req.SectorID, req.ProfileID, amountString(req.BasePrice), req.Allocation)
		return err
	})
}

func (h *DraftHandler) AddDiscount(e *core.RequestEvent) error {
	var req struct {
		Code         string            `json:"code"`
		Type         models.AmountType `json:"type"`
		Value        any               `json:"value"`
		LimitPerUser int               `json:"limit_per_user"`
		IsActive     *bool             `json:"is_active"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request body", err)
	}

	in := services.DiscountInput{
		Code:         req.Code,
		Type:         req.Type,
		Value:        amountString(req.Value),
		LimitPerUser: req.LimitPerUser,
		IsActive:     req.IsActive == nil || *req.IsActive,
	}
	return h.mutate(e, "add_discount", func(b *services.EventBuilder) error {
		_, err := b.AddDiscount(in)
		return err
	})
}

func (h *DraftHandler) ToggleDiscount(e *core.RequestEvent) error {
	return h.mutate(e, "toggle_discount", func(b *services.EventBuilder) error {
		_, err := b.ToggleDiscount(e.Request.PathValue("id"))
		return err
	})
}

func (h *DraftHandler) RemoveDiscount(e *core.RequestEvent) error {
	return h.mutate(e, "remove_discount", func(b *services.EventBuilder) error {
		return b.RemoveDiscount(e.Request.PathValue("id"))
	})
}

func (h *DraftHandler) SetTax(e *core.RequestEvent) error {
	var req struct {
		TaxType  models.AmountType `json:"tax_type"`
		TaxValue any               `json:"tax_value"`
		FeeType  models.AmountType `json:"fee_type"`
		FeeValue any               `json:"fee_value"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request body", err)
	}

	in := services.TaxInput{
		TaxType:  req.TaxType,
		TaxValue: amountString(req.TaxValue),
		FeeType:  req.FeeType,
		FeeValue: amountString(req.FeeValue),
	}
	return h.mutate(e, "set_tax", func(b *services.EventBuilder) error {
		_, err := b.SetTaxConfig(in)
		return err
	})
}

// GetSummary returns the derived figures together with the full price
// matrix.
func (h *DraftHandler) GetSummary(e *core.RequestEvent) error {
	ownerID, err := requireOwner(e)
	if err != nil {
		return err
	}

	b, err := h.drafts.Builder(e.Request.Context(), ownerID, e.Request.PathValue("draftId"))
	if err != nil {
		return toAPIError(err)
	}
	return e.JSON(http.StatusOK, map[string]any{
		"summary": b.Summary(),
		"matrix":  b.Matrix(),
	})
}

func (h *DraftHandler) Submit(e *core.RequestEvent) error {
	ownerID, err := requireOwner(e)
	if err != nil {
		return err
	}

	draftID := e.Request.PathValue("draftId")
	created, err := h.submissions.Submit(e.Request.Context(), ownerID, draftID)
	if err != nil {
		return toAPIError(err)
	}

	draft, err := h.drafts.Get(e.Request.Context(), ownerID, draftID)
	if err != nil {
		return toAPIError(err)
	}
	return e.JSON(http.StatusOK, map[string]any{
		"event": created,
		"draft": draft,
	})
}

func (h *DraftHandler) ListSubmissions(e *core.RequestEvent) error {
	ownerID, err := requireOwner(e)
	if err != nil {
		return err
	}

	limit := 20
	if v := e.Request.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 100 {
			return apis.NewBadRequestError("limit must be between 1 and 100", err)
		}
		limit = n
	}

	history, err := h.submissions.History(e.Request.Context(), ownerID, limit)
	if err != nil {
		return toAPIError(err)
	}
	return e.JSON(http.StatusOK, map[string]any{
		"items": history,
	})
}
