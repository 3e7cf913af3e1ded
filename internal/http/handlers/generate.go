package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"server/internal/domain"
)

const maxGenerateBody = 1 << 20

// Generate accepts a structured request body, forwards it opaquely to the
// render worker, and streams the produced artifact back as a download. One
// job runs at a time system-wide; excess requests are rejected, not queued.
func (a *App) Generate(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}

	// Oversized bodies are rejected outright before any debit; a truncated
	// payload must never reach the worker.
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxGenerateBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			a.error(w, http.StatusRequestEntityTooLarge, "payload_too_large", "request body exceeds the generation payload limit")
			return
		}
		a.error(w, http.StatusBadRequest, "bad_request", "unreadable payload")
		return
	}

	// A dropped connection must not kill a render the caller already paid
	// for, so the job runs on a context detached from the request's.
	art, err := a.Generator.Generate(context.WithoutCancel(r.Context()), userID, payload)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrBusy):
			a.error(w, http.StatusTooManyRequests, "busy", "a generation is already in progress, try again later")
		case errors.Is(err, domain.ErrInsufficientCredits):
			a.error(w, http.StatusPaymentRequired, "insufficient_credits", "not enough credits for a generation")
		case errors.Is(err, domain.ErrOutputUnavailable), errors.Is(err, domain.ErrMalformedDescriptor):
			a.Logger.Error().Err(err).Msg("generation output failed")
			a.error(w, http.StatusInternalServerError, "internal", "generation failed")
		default:
			a.Logger.Error().Err(err).Msg("generation failed")
			a.error(w, http.StatusInternalServerError, "internal", "generation failed")
		}
		return
	}
	defer art.Close()

	w.Header().Set("Content-Type", "video/mp4")
	w.Header().Set("Content-Disposition", `attachment; filename="`+art.Name+`"`)
	if _, err := io.Copy(w, art.File); err != nil {
		// Headers are already out; all we can do is log the broken stream.
		a.Logger.Error().Err(err).Msg("artifact stream aborted")
	}
}
