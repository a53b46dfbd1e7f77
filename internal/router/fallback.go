package router

import (
	"ai-router/internal/models"
	"ai-router/internal/provider/mock"
)

// ApplyFallback substitutes a mock answer for a recoverable failure and marks
// it with FallbackUsed. Successes and hard failures are returned unchanged.
// Nothing from the failed attempt is carried over.
func ApplyFallback(result models.ChatResult, providerName, model, message string) models.ChatResult {
	if result.Success || result.Failure != models.FailureRecoverable {
		return result
	}

	substitute := mock.Respond(providerName, model, message)
	substitute.FallbackUsed = true
	return substitute
}
