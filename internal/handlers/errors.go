package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"event-builder/internal/services"
	"event-builder/internal/status"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
)

var fieldErrorCodes = []struct {
	err  error
	code string
}{
	{status.ErrEmptyLabel, "validation_required"},
	{status.ErrInvalidCapacity, "validation_invalid_capacity"},
	{status.ErrInvalidAmount, "validation_invalid_amount"},
	{status.ErrInvalidState, "validation_invalid_state"},
	{status.ErrInvalidAmountType, "validation_invalid_type"},
	{status.ErrDuplicateIdentifier, "validation_not_unique"},
	{status.ErrLastEntry, "validation_last_entry"},
}

func fieldErrorCode(err error) string {
	for _, c := range fieldErrorCodes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return "validation_invalid_value"
}

// toAPIError maps service errors onto PocketBase API errors. Field-level
// problems come back in PocketBase's usual {field: {code, message}} shape.
func toAPIError(err error) error {
	var (
		fe   *status.FieldError
		verr *services.ValidationError
	)
	switch {
	case errors.As(err, &verr):
		return apis.NewBadRequestError(verr.Message, validation.Errors{
			verr.Field: validation.NewError("validation_rule_"+strconv.Itoa(verr.Rule), verr.Message),
		})
	case errors.Is(err, status.ErrNotFound), errors.Is(err, status.ErrDraftNotFound):
		msg := "Draft not found"
		if errors.As(err, &fe) {
			msg = fe.Message
		}
		return apis.NewNotFoundError(msg, err)
	case errors.As(err, &fe):
		return apis.NewBadRequestError(fe.Message, validation.Errors{
			fe.Field: validation.NewError(fieldErrorCode(err), fe.Message),
		})
	case errors.Is(err, status.ErrSubmissionInProgress):
		return apis.NewApiError(http.StatusConflict, "A submission of this draft is already in progress", err)
	case errors.Is(err, status.ErrDraftBusy):
		return apis.NewApiError(http.StatusConflict, "The draft is being changed by another request, please try again", err)
	case errors.Is(err, status.ErrSubmissionFailed):
		return apis.NewApiError(http.StatusBadGateway, "The event could not be submitted, please try again", err)
	}

	slog.Error("Unhandled builder error", "error", err)
	return apis.NewApiError(http.StatusInternalServerError, "Something went wrong", err)
}

func requireOwner(e *core.RequestEvent) (string, error) {
	if e.Auth == nil {
		return "", apis.NewUnauthorizedError("Unauthorized", nil)
	}
	return e.Auth.Id, nil
}

// amountString accepts an amount sent either as a JSON string or number.
func amountString(v any) string {
	switch a := v.(type) {
	case nil:
		return ""
	case string:
		return a
	case float64:
		return strconv.FormatFloat(a, 'f', -1, 64)
	default:
		return fmt.Sprint(a)
	}
}
