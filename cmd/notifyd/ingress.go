package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/jobnotify/pkg/events"
	"github.com/dmitrymomot/jobnotify/pkg/identity"
	"github.com/dmitrymomot/jobnotify/pkg/logger"
	"github.com/dmitrymomot/jobnotify/pkg/triggers"
)

// maxIngressBody bounds an ingress request body.
const maxIngressBody = 64 << 10

var (
	errUnknownEvent = errors.New("unknown event")
	errForbidden    = errors.New("admin role required")
)

// decoders turn an ingress body into the payload type a trigger expects.
var decoders = map[string]func([]byte) (any, error){
	triggers.EventUserCreated:              decode[triggers.UserCreated],
	triggers.EventJobPosted:                decode[triggers.JobPosted],
	triggers.EventApplicationReceived:      decode[triggers.ApplicationReceived],
	triggers.EventApplicationStatusChanged: decode[triggers.ApplicationStatusChanged],
	triggers.EventMatchScoreCalculated:     decode[triggers.MatchScoreCalculated],
}

func decode[T any](body []byte) (any, error) {
	var v T
	if err := json.Unmarshal(body, &v); err != nil {
		return nil, err
	}
	return v, nil
}

// Announcer sends a system announcement to every connection of a role.
type Announcer interface {
	Announce(ctx context.Context, role, title, message string) error
}

type announcement struct {
	Role    string `json:"role"`
	Title   string `json:"title"`
	Message string `json:"message"`
}

// ingress accepts domain events and announcements from trusted publishers.
type ingress struct {
	verifier  identity.Verifier
	registry  *events.Registry
	announcer Announcer
	logger    *slog.Logger
}

func (in *ingress) routes(r chi.Router) {
	r.Use(in.requireAdmin)
	r.Post("/events/{name}", in.dispatch)
	r.Post("/announcements", in.announce)
}

func (in *ingress) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := in.verifier.Verify(r.Context(), r)
		if err != nil {
			writeError(w, http.StatusUnauthorized, err)
			return
		}
		if id.Role != identity.RoleAdmin {
			writeError(w, http.StatusForbidden, errForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (in *ingress) dispatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	name := chi.URLParam(r, "name")

	dec, ok := decoders[name]
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Errorf("%w: %s", errUnknownEvent, name))
		return
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxIngressBody))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, err)
		return
	}
	payload, err := dec(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid %s payload: %w", name, err))
		return
	}

	// Recipients that succeeded are already notified; failures are reported, not retried.
	if err := in.registry.Dispatch(ctx, name, payload); err != nil {
		in.logger.LogAttrs(ctx, slog.LevelWarn, "Event dispatched with failures",
			logger.Event(name),
			logger.Error(err),
		)
		writeJSON(w, http.StatusAccepted, map[string]any{"event": name, "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{"event": name})
}

func (in *ingress) announce(w http.ResponseWriter, r *http.Request) {
	var a announcement
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxIngressBody)).Decode(&a); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid announcement: %w", err))
		return
	}
	if a.Role == "" || a.Title == "" {
		writeError(w, http.StatusBadRequest, errors.New("role and title are required"))
		return
	}
	if err := in.announcer.Announce(r.Context(), a.Role, a.Title, a.Message); err != nil {
		writeError(w, http.StatusBadGateway, err)
		return
	}
	writeJSON(w, http.StatusAccepted, a)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
