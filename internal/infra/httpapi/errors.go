package httpapi

import (
	"errors"
	"net/http"

	"review_reminder/internal/app"
	"review_reminder/internal/domain/review"
	idb "review_reminder/internal/infra/database"

	"github.com/labstack/echo/v4"
)

type errorMapping struct {
	target  error
	status  int
	code    string
	message string
}

var errorMappings = []errorMapping{
	{app.ErrInvalidSubscriberInput, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid subscriber input"},
	{app.ErrTooFewDescriptors, http.StatusBadRequest, "TOO_FEW_DESCRIPTORS", "Select at least two descriptors"},
	{idb.ErrDescriptorNotFound, http.StatusBadRequest, "DESCRIPTOR_NOT_FOUND", "Unknown descriptor"},
	{idb.ErrCompanyNotFound, http.StatusNotFound, "COMPANY_NOT_FOUND", "Company not found"},
	{idb.ErrSubscriberNotFound, http.StatusNotFound, "SUBSCRIBER_NOT_FOUND", "Subscriber not found"},
	{idb.ErrSubscriptionNotFound, http.StatusNotFound, "SUBSCRIPTION_NOT_FOUND", "Subscription not found"},
	{app.ErrSubscriberAlreadyInactive, http.StatusConflict, "SUBSCRIBER_INACTIVE", "Subscriber is already inactive"},
	{idb.ErrDuplicateEmail, http.StatusConflict, "DUPLICATE_EMAIL", "Email is already registered"},
	{app.ErrSweepInProgress, http.StatusConflict, "SWEEP_IN_PROGRESS", "A sweep is already running"},
	{app.ErrStoreUnavailable, http.StatusInternalServerError, "STORE_UNAVAILABLE", "Could not query due subscriptions"},
	{review.ErrInvalidConfiguration, http.StatusInternalServerError, "INVALID_CONFIGURATION", "Review templates are misconfigured"},
}

// handleAppError maps service errors onto the response envelope.
func handleAppError(c echo.Context, err error) error {
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			details := ""
			if m.status < http.StatusInternalServerError {
				details = err.Error()
			}
			return Error(c, m.status, m.code, m.message, details)
		}
	}
	return Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "", "")
}
