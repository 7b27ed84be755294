package http

import (
	"errors"
	"net/http"
	"time"

	"abone/internal/core"
	"abone/internal/services"
)

const (
	summaryKey   = "summary"
	breakdownKey = "breakdown"
)

func (s *Server) handleListSubscriptions(w http.ResponseWriter, r *http.Request) {
	subs, err := s.store.ListSubscriptions(r.Context())
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, subs)
}

func (s *Server) handleGetSubscription(w http.ResponseWriter, r *http.Request) {
	sub, err := s.store.GetSubscription(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

func (s *Server) handleCreateSubscription(w http.ResponseWriter, r *http.Request) {
	var sub core.Subscription
	if err := decodeJSON(r, &sub); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := sub.Validate(); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	created, err := s.store.CreateSubscription(r.Context(), sub)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	s.invalidate()
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateSubscription(w http.ResponseWriter, r *http.Request) {
	var sub core.Subscription
	if err := decodeJSON(r, &sub); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	sub.ID = r.PathValue("id")
	if err := sub.Validate(); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if err := s.store.UpdateSubscription(r.Context(), sub); err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	s.invalidate()
	writeJSON(w, http.StatusOK, sub)
}

func (s *Server) handleDeleteSubscription(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteSubscription(r.Context(), r.PathValue("id")); err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	s.invalidate()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListCards(w http.ResponseWriter, r *http.Request) {
	cards, err := s.store.ListCards(r.Context())
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cards)
}

func (s *Server) handleGetCard(w http.ResponseWriter, r *http.Request) {
	card, err := s.store.GetCard(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, card)
}

func (s *Server) handleCreateCard(w http.ResponseWriter, r *http.Request) {
	var card core.Card
	if err := decodeJSON(r, &card); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	card.Normalize()
	if err := card.Validate(); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	created, err := s.store.CreateCard(r.Context(), card)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateCard(w http.ResponseWriter, r *http.Request) {
	var card core.Card
	if err := decodeJSON(r, &card); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	card.ID = r.PathValue("id")
	card.Normalize()
	if err := card.Validate(); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if err := s.store.UpdateCard(r.Context(), card); err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, card)
}

func (s *Server) handleDeleteCard(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteCard(r.Context(), r.PathValue("id")); err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleStatement(w http.ResponseWriter, r *http.Request) {
	mode := core.StatementActual
	if v := r.URL.Query().Get("mode"); v != "" {
		mode = core.StatementMode(v)
		if mode != core.StatementActual && mode != core.StatementNormalized {
			writeError(w, http.StatusBadRequest, "mode must be actual or normalized")
			return
		}
	}

	st, err := s.service.Statement(r.Context(), r.PathValue("id"), mode, time.Now())
	if err != nil {
		if errors.Is(err, core.ErrNoStatement) {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		s.writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := s.store.GetSettings(r.Context())
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (s *Server) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	var settings core.Settings
	if err := decodeJSON(r, &settings); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := settings.Validate(); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if err := s.store.PutSettings(r.Context(), settings); err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	if cached, ok := s.summaryCache.Get(summaryKey); ok {
		writeJSON(w, http.StatusOK, cached)
		return
	}
	summary, err := s.service.Summary(r.Context())
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	s.summaryCache.Set(summaryKey, summary)
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleBreakdown(w http.ResponseWriter, r *http.Request) {
	if cached, ok := s.breakdownCache.Get(breakdownKey); ok {
		writeJSON(w, http.StatusOK, breakdownResponse(cached))
		return
	}
	breakdown, err := s.service.Breakdown(r.Context())
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	s.breakdownCache.Set(breakdownKey, breakdown)
	writeJSON(w, http.StatusOK, breakdownResponse(breakdown))
}

func breakdownResponse(b map[core.Currency][]core.BreakdownItem) map[string]any {
	return map[string]any{
		"groups":        b,
		"showBreakdown": core.ShouldShowBreakdown(b),
	}
}

func (s *Server) handleRates(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"rates": s.provider.Rates(r.Context()),
		"error": s.provider.LastError(),
	})
}

func (s *Server) handleReminders(w http.ResponseWriter, r *http.Request) {
	settings, err := s.store.GetSettings(r.Context())
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	subs, err := s.store.ListSubscriptions(r.Context())
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	reminders := services.PlanReminders(subs, settings, time.Now())
	if reminders == nil {
		reminders = []services.Reminder{}
	}
	writeJSON(w, http.StatusOK, reminders)
}
