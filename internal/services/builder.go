package services

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"event-builder/internal/status"
	"event-builder/models"
	"event-builder/utils"

	"github.com/shopspring/decimal"
)

const (
	defaultProfileName  = "General"
	defaultSectorName   = "General"
	defaultSectorSeats  = 100
	defaultPhaseName    = "General Sale"
	defaultTicketType   = "General"
	maxDuplicateSuffix  = 1000
	maxPercentageAmount = 100
)

// EventCreator sends a finished draft to the event API.
type EventCreator interface {
	CreateEvent(ctx context.Context, payload *models.EventPayload) (*models.CreatedEvent, error)
}

// EventBuilder applies organizer edits to one draft. A mutation that
// returns an error leaves the draft exactly as it was.
type EventBuilder struct {
	draft      *models.EventDraft
	now        func() time.Time
	newID      func() string
	normalizer *utils.Normalizer
}

type BuilderOption func(*EventBuilder)

func WithClock(now func() time.Time) BuilderOption {
	return func(b *EventBuilder) { b.now = now }
}

func WithIDGenerator(newID func() string) BuilderOption {
	return func(b *EventBuilder) { b.newID = newID }
}

func newBuilder(opts []BuilderOption) *EventBuilder {
	b := &EventBuilder{now: time.Now, newID: utils.NewID}
	for _, opt := range opts {
		opt(b)
	}
	b.normalizer = utils.NewNormalizer(b.now)
	return b
}

// NewEventBuilder edits an existing draft.
func NewEventBuilder(draft *models.EventDraft, opts ...BuilderOption) *EventBuilder {
	b := newBuilder(opts)
	b.draft = draft
	return b
}

// NewDraftBuilder starts a freshly initialized draft.
func NewDraftBuilder(draftID, ownerID string, opts ...BuilderOption) *EventBuilder {
	b := newBuilder(opts)
	b.draft = b.freshDraft(draftID, ownerID)
	return b
}

// Draft returns a copy of the current draft.
func (b *EventBuilder) Draft() *models.EventDraft {
	return b.draft.Clone()
}

// Reset replaces the draft with a fresh one, keeping its id and owner.
func (b *EventBuilder) Reset() {
	b.draft = b.freshDraft(b.draft.ID, b.draft.OwnerID)
}

func (b *EventBuilder) freshDraft(draftID, ownerID string) *models.EventDraft {
	profiles := []models.BuyerProfile{{
		ID:   b.normalizer.Normalize(defaultProfileName, "profile"),
		Name: defaultProfileName,
	}}
	sectors := []models.TicketSector{{
		ID:       b.normalizer.Normalize(defaultSectorName, "sector"),
		Name:     defaultSectorName,
		Capacity: defaultSectorSeats,
	}}
	phases := []models.TicketPhase{{
		ID:              b.normalizer.Normalize(defaultPhaseName, "phase"),
		Name:            defaultPhaseName,
		TicketTypeLabel: defaultTicketType,
		State:           models.PhaseDraft,
		Combinations:    ReconcileCombinations(sectors, profiles, nil, b.newID),
	}}

	return &models.EventDraft{
		ID:            draftID,
		OwnerID:       ownerID,
		BuyerProfiles: profiles,
		TicketSectors: sectors,
		TicketPhases:  phases,
		Discounts:     []models.Discount{},
		TaxConfig: models.TaxConfig{
			TaxType:  models.AmountPercentage,
			TaxValue: decimal.Zero,
			FeeType:  models.AmountPercentage,
			FeeValue: decimal.Zero,
		},
		UpdatedAt: b.now(),
	}
}

func fieldErr(field string, err error, format string, args ...any) error {
	return status.NewFieldError(field, err, fmt.Sprintf(format, args...))
}

func (b *EventBuilder) touch() {
	b.draft.UpdatedAt = b.now()
}

// reconcilePhases brings every phase's grid in line with the current
// sectors and profiles.
func (b *EventBuilder) reconcilePhases() {
	for i := range b.draft.TicketPhases {
		ph := &b.draft.TicketPhases[i]
		ph.Combinations = ReconcileCombinations(b.draft.TicketSectors, b.draft.BuyerProfiles, ph.Combinations, b.newID)
	}
}

// Profiles

func (b *EventBuilder) AddProfile(name, description string) (*models.BuyerProfile, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fieldErr("name", status.ErrEmptyLabel, "Profile name is required")
	}
	id := b.normalizer.Normalize(name, "profile")
	if slices.ContainsFunc(b.draft.BuyerProfiles, func(p models.BuyerProfile) bool { return p.ID == id }) {
		return nil, fieldErr("name", status.ErrDuplicateIdentifier, "A profile with id %q already exists", id)
	}

	p := models.BuyerProfile{ID: id, Name: name, Description: strings.TrimSpace(description)}
	b.draft.BuyerProfiles = append(b.draft.BuyerProfiles, p)
	b.reconcilePhases()
	b.touch()
	return &p, nil
}

func (b *EventBuilder) RemoveProfile(id string) error {
	if len(b.draft.BuyerProfiles) <= 1 {
		return fieldErr("profiles", status.ErrLastEntry, "At least one buyer profile must remain")
	}
	i := slices.IndexFunc(b.draft.BuyerProfiles, func(p models.BuyerProfile) bool { return p.ID == id })
	if i < 0 {
		return fieldErr("id", status.ErrNotFound, "Profile %q not found", id)
	}

	b.draft.BuyerProfiles = slices.Delete(b.draft.BuyerProfiles, i, i+1)
	b.reconcilePhases()
	b.touch()
	return nil
}

// Sectors

func parseCapacity(value string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

func (b *EventBuilder) AddSector(name, capacity string) (*models.TicketSector, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fieldErr("name", status.ErrEmptyLabel, "Sector name is required")
	}
	seats, ok := parseCapacity(capacity)
	if !ok {
		return nil, fieldErr("capacity", status.ErrInvalidCapacity, "Sector capacity must be a number greater than zero")
	}
	id := b.normalizer.Normalize(name, "sector")
	if slices.ContainsFunc(b.draft.TicketSectors, func(s models.TicketSector) bool { return s.ID == id }) {
		return nil, fieldErr("name", status.ErrDuplicateIdentifier, "A sector with id %q already exists", id)
	}

	s := models.TicketSector{ID: id, Name: name, Capacity: seats}
	b.draft.TicketSectors = append(b.draft.TicketSectors, s)
	b.reconcilePhases()
	b.touch()
	return &s, nil
}

func (b *EventBuilder) RemoveSector(id string) error {
	if len(b.draft.TicketSectors) <= 1 {
		return fieldErr("sectors", status.ErrLastEntry, "At least one ticket sector must remain")
	}
	i := slices.IndexFunc(b.draft.TicketSectors, func(s models.TicketSector) bool { return s.ID == id })
	if i < 0 {
		return fieldErr("id", status.ErrNotFound, "Sector %q not found", id)
	}

	b.draft.TicketSectors = slices.Delete(b.draft.TicketSectors, i, i+1)
	b.reconcilePhases()
	b.touch()
	return nil
}

// SetSectorCapacity edits capacity only; the sector id never changes.
func (b *EventBuilder) SetSectorCapacity(id string, capacity int) error {
	if capacity < 0 {
		return fieldErr("capacity", status.ErrInvalidCapacity, "Sector capacity cannot be negative")
	}
	i := slices.IndexFunc(b.draft.TicketSectors, func(s models.TicketSector) bool { return s.ID == id })
	if i < 0 {
		return fieldErr("id", status.ErrNotFound, "Sector %q not found", id)
	}

	b.draft.TicketSectors[i].Capacity = capacity
	b.touch()
	return nil
}

// Phases

type PhaseInput struct {
	Name            string            `json:"name"`
	TicketTypeLabel string            `json:"ticket_type_label"`
	StartsAt        string            `json:"starts_at"`
	EndsAt          string            `json:"ends_at"`
	State           models.PhaseState `json:"state"`
}

// PhaseUpdate carries only the fields being changed.
type PhaseUpdate struct {
	Name            *string            `json:"name"`
	TicketTypeLabel *string            `json:"ticket_type_label"`
	StartsAt        *string            `json:"starts_at"`
	EndsAt          *string            `json:"ends_at"`
	State           *models.PhaseState `json:"state"`
}

// phaseCopy detaches a returned phase from the draft's combinations.
func phaseCopy(ph models.TicketPhase) *models.TicketPhase {
	ph.Combinations = slices.Clone(ph.Combinations)
	return &ph
}

func (b *EventBuilder) phaseIndex(id string) int {
	return slices.IndexFunc(b.draft.TicketPhases, func(p models.TicketPhase) bool { return p.ID == id })
}

func (b *EventBuilder) AddPhase(in PhaseInput) (*models.TicketPhase, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fieldErr("name", status.ErrEmptyLabel, "Phase name is required")
	}
	state := in.State
	if state == "" {
		state = models.PhaseDraft
	}
	if !state.Valid() {
		return nil, fieldErr("state", status.ErrInvalidState, "Unknown phase state %q", in.State)
	}
	id := b.normalizer.Normalize(name, "phase")
	if b.phaseIndex(id) >= 0 {
		return nil, fieldErr("name", status.ErrDuplicateIdentifier, "A phase with id %q already exists", id)
	}

	ph := models.TicketPhase{
		ID:              id,
		Name:            name,
		TicketTypeLabel: strings.TrimSpace(in.TicketTypeLabel),
		StartsAt:        strings.TrimSpace(in.StartsAt),
		EndsAt:          strings.TrimSpace(in.EndsAt),
		State:           state,
		Combinations:    ReconcileCombinations(b.draft.TicketSectors, b.draft.BuyerProfiles, nil, b.newID),
	}
	b.draft.TicketPhases = append(b.draft.TicketPhases, ph)
	b.touch()
	return phaseCopy(ph), nil
}

// UpdatePhase edits phase details. The phase id is fixed at creation and is
// not recomputed from a new name. State changes are unconstrained.
func (b *EventBuilder) UpdatePhase(id string, in PhaseUpdate) (*models.TicketPhase, error) {
	i := b.phaseIndex(id)
	if i < 0 {
		return nil, fieldErr("id", status.ErrNotFound, "Phase %q not found", id)
	}
	ph := b.draft.TicketPhases[i]

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, fieldErr("name", status.ErrEmptyLabel, "Phase name is required")
		}
		ph.Name = name
	}
	if in.State != nil {
		if !in.State.Valid() {
			return nil, fieldErr("state", status.ErrInvalidState, "Unknown phase state %q", *in.State)
		}
		ph.State = *in.State
	}
	if in.TicketTypeLabel != nil {
		ph.TicketTypeLabel = strings.TrimSpace(*in.TicketTypeLabel)
	}
	if in.StartsAt != nil {
		ph.StartsAt = strings.TrimSpace(*in.StartsAt)
	}
	if in.EndsAt != nil {
		ph.EndsAt = strings.TrimSpace(*in.EndsAt)
	}

	b.draft.TicketPhases[i] = ph
	b.touch()
	return phaseCopy(ph), nil
}

func (b *EventBuilder) RemovePhase(id string) error {
	if len(b.draft.TicketPhases) <= 1 {
		return fieldErr("phases", status.ErrLastEntry, "At least one ticket phase must remain")
	}
	i := b.phaseIndex(id)
	if i < 0 {
		return fieldErr("id", status.ErrNotFound, "Phase %q not found", id)
	}

	b.draft.TicketPhases = slices.Delete(b.draft.TicketPhases, i, i+1)
	b.touch()
	return nil
}

// DuplicatePhase appends a copy of a phase named "<name> copy" ("copy 2",
// "copy 3", ... on collision). The copy starts in DRAFT and owns new
// combinations with fresh ids but the same prices and allocations.
func (b *EventBuilder) DuplicatePhase(id string) (*models.TicketPhase, error) {
	i := b.phaseIndex(id)
	if i < 0 {
		return nil, fieldErr("id", status.ErrNotFound, "Phase %q not found", id)
	}
	src := b.draft.TicketPhases[i]

	name := src.Name + " copy"
	newID := b.normalizer.Normalize(name, "phase")
	for n := 2; b.phaseIndex(newID) >= 0; n++ {
		if n > maxDuplicateSuffix {
			return nil, fieldErr("name", status.ErrDuplicateIdentifier, "Too many copies of phase %q", src.Name)
		}
		name = fmt.Sprintf("%s copy %d", src.Name, n)
		newID = b.normalizer.Normalize(name, "phase")
	}

	cp := src
	cp.ID = newID
	cp.Name = name
	cp.State = models.PhaseDraft
	cp.Combinations = make([]models.PriceCombination, len(src.Combinations))
	for j, c := range src.Combinations {
		c.ID = b.newID()
		cp.Combinations[j] = c
	}

	b.draft.TicketPhases = append(b.draft.TicketPhases, cp)
	b.touch()
	return phaseCopy(cp), nil
}

// SetCombination edits one grid cell. Unparseable or NaN prices read as
// zero; negative values are rejected.
func (b *EventBuilder) SetCombination(phaseID, sectorID, profileID, basePrice string, allocation int) (*models.PriceCombination, error) {
	i := b.phaseIndex(phaseID)
	if i < 0 {
		return nil, fieldErr("phase_id", status.ErrNotFound, "Phase %q not found", phaseID)
	}
	combos := b.draft.TicketPhases[i].Combinations
	j := slices.IndexFunc(combos, func(c models.PriceCombination) bool {
		return c.SectorID == sectorID && c.ProfileID == profileID
	})
	if j < 0 {
		return nil, fieldErr("combination", status.ErrNotFound, "No price for sector %q and profile %q", sectorID, profileID)
	}
	price, err := ParseAmount(basePrice)
	if err != nil {
		return nil, fieldErr("base_price", err, "Price must be below 1,000,000,000,000 with at most 8 decimals")
	}
	if price.IsNegative() {
		return nil, fieldErr("base_price", status.ErrInvalidAmount, "Price cannot be negative")
	}
	if allocation < 0 {
		return nil, fieldErr("allocation", status.ErrInvalidAmount, "Allocation cannot be negative")
	}

	combos[j].BasePrice = price
	combos[j].Allocation = allocation
	b.touch()
	c := combos[j]
	return &c, nil
}

// Discounts

type DiscountInput struct {
	Code         string            `json:"code"`
	Type         models.AmountType `json:"type"`
	Value        string            `json:"value"`
	LimitPerUser int               `json:"limit_per_user"`
	IsActive     bool              `json:"is_active"`
}

func (b *EventBuilder) AddDiscount(in DiscountInput) (*models.Discount, error) {
	if !in.Type.Valid() {
		return nil, fieldErr("type", status.ErrInvalidAmountType, "Unknown discount type %q", in.Type)
	}
	value, err := ParseAmount(in.Value)
	if err != nil {
		return nil, fieldErr("value", err, "Discount value must be below 1,000,000,000,000 with at most 8 decimals")
	}
	if value.IsNegative() {
		return nil, fieldErr("value", status.ErrInvalidAmount, "Discount value cannot be negative")
	}
	if in.Type == models.AmountPercentage && value.GreaterThan(decimal.NewFromInt(maxPercentageAmount)) {
		return nil, fieldErr("value", status.ErrInvalidAmount, "Percentage discount cannot exceed 100")
	}
	if in.LimitPerUser < 0 {
		return nil, fieldErr("limit_per_user", status.ErrInvalidAmount, "Limit per user cannot be negative")
	}

	code := strings.ToUpper(strings.TrimSpace(in.Code))
	if code == "" {
		generated, err := utils.GenerateCode(4)
		if err != nil {
			return nil, fmt.Errorf("generate discount code: %w", err)
		}
		code = generated
	}
	if slices.ContainsFunc(b.draft.Discounts, func(d models.Discount) bool { return strings.EqualFold(d.Code, code) }) {
		return nil, fieldErr("code", status.ErrDuplicateIdentifier, "Discount code %q already exists", code)
	}

	d := models.Discount{
		ID:           b.newID(),
		Code:         code,
		Type:         in.Type,
		Value:        value,
		LimitPerUser: in.LimitPerUser,
		IsActive:     in.IsActive,
	}
	b.draft.Discounts = append(b.draft.Discounts, d)
	b.touch()
	return &d, nil
}

func (b *EventBuilder) RemoveDiscount(id string) error {
	i := slices.IndexFunc(b.draft.Discounts, func(d models.Discount) bool { return d.ID == id })
	if i < 0 {
		return fieldErr("id", status.ErrNotFound, "Discount %q not found", id)
	}
	b.draft.Discounts = slices.Delete(b.draft.Discounts, i, i+1)
	b.touch()
	return nil
}

// ToggleDiscount flips a discount's active flag and returns the new value.
func (b *EventBuilder) ToggleDiscount(id string) (bool, error) {
	i := slices.IndexFunc(b.draft.Discounts, func(d models.Discount) bool { return d.ID == id })
	if i < 0 {
		return false, fieldErr("id", status.ErrNotFound, "Discount %q not found", id)
	}
	b.draft.Discounts[i].IsActive = !b.draft.Discounts[i].IsActive
	b.touch()
	return b.draft.Discounts[i].IsActive, nil
}

// Tax

type TaxInput struct {
	TaxType  models.AmountType `json:"tax_type"`
	TaxValue string            `json:"tax_value"`
	FeeType  models.AmountType `json:"fee_type"`
	FeeValue string            `json:"fee_value"`
}

func (b *EventBuilder) SetTaxConfig(in TaxInput) (*models.TaxConfig, error) {
	if !in.TaxType.Valid() {
		return nil, fieldErr("tax_type", status.ErrInvalidAmountType, "Unknown tax type %q", in.TaxType)
	}
	if !in.FeeType.Valid() {
		return nil, fieldErr("fee_type", status.ErrInvalidAmountType, "Unknown fee type %q", in.FeeType)
	}
	tax, err := ParseAmount(in.TaxValue)
	if err != nil {
		return nil, fieldErr("tax_value", err, "Tax must be below 1,000,000,000,000 with at most 8 decimals")
	}
	fee, err := ParseAmount(in.FeeValue)
	if err != nil {
		return nil, fieldErr("fee_value", err, "Service fee must be below 1,000,000,000,000 with at most 8 decimals")
	}
	if tax.IsNegative() {
		return nil, fieldErr("tax_value", status.ErrInvalidAmount, "Tax cannot be negative")
	}
	if fee.IsNegative() {
		return nil, fieldErr("fee_value", status.ErrInvalidAmount, "Service fee cannot be negative")
	}

	b.draft.TaxConfig = models.TaxConfig{TaxType: in.TaxType, TaxValue: tax, FeeType: in.FeeType, FeeValue: fee}
	b.touch()
	cfg := b.draft.TaxConfig
	return &cfg, nil
}

// Event fields

// EventFields carries only the fields being changed. Values are checked at
// submission, not here.
type EventFields struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Venue       *string `json:"venue"`
	StartsAt    *string `json:"starts_at"`
	EndsAt      *string `json:"ends_at"`
}

func (b *EventBuilder) UpdateEventFields(in EventFields) {
	set := func(dst *string, v *string) {
		if v != nil {
			*dst = strings.TrimSpace(*v)
		}
	}
	set(&b.draft.Title, in.Title)
	set(&b.draft.Description, in.Description)
	set(&b.draft.Venue, in.Venue)
	set(&b.draft.StartsAt, in.StartsAt)
	set(&b.draft.EndsAt, in.EndsAt)
	b.touch()
}

// Summary computes the derived figures of the current draft.
func (b *EventBuilder) Summary() Summary {
	return Summarize(b.draft)
}

// Submit validates the draft, sends it with a single call and, only when
// that call succeeds, resets the builder to a fresh draft. On any error the
// draft is left untouched so the organizer can fix it and try again.
func (b *EventBuilder) Submit(ctx context.Context, creator EventCreator) (*models.CreatedEvent, error) {
	if verr := ValidateDraft(b.draft); verr != nil {
		return nil, verr
	}

	created, err := creator.CreateEvent(ctx, BuildPayload(b.draft))
	if err != nil {
		return nil, err
	}

	b.Reset()
	return created, nil
}

// Matrix returns the complete sector x profile x phase price table.
func (b *EventBuilder) Matrix() models.PriceMatrix {
	d := b.draft
	return ReconcileMatrix(sectorIDs(d.TicketSectors), profileIDs(d.BuyerProfiles), phaseIDs(d.TicketPhases), MatrixFromPhases(d.TicketPhases))
}
