package router

import (
	"ai-router/internal/models"
	"ai-router/internal/provider"
)

// Normalize turns an adapter's return values into a ChatResult. A successful
// result is copied through; a failure becomes an unsuccessful result carrying
// the failure reason and its class.
func Normalize(res *models.ChatResult, err error, model, providerName string) models.ChatResult {
	if err == nil && res != nil {
		out := *res
		out.Success = true
		out.Failure = models.FailureNone
		if out.Mode == "" {
			out.Mode = models.ModeLive
		}
		return out
	}

	out := models.ChatResult{
		Success:  false,
		Model:    model,
		Provider: providerName,
		Failure:  models.FailureRecoverable,
	}

	if err == nil {
		out.Error = "provider returned an empty response"
		return out
	}

	out.Error, out.ErrorDetails = provider.FailureReason(err)
	if provider.IsHardFailure(err) {
		out.Failure = models.FailureHard
	}
	return out
}
