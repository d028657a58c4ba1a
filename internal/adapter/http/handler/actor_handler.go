package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/dochub/internal/adapter/http/dto"
	"github.com/iho/dochub/internal/domain"
	"github.com/iho/dochub/internal/usecase"
)

// ActorService defines the behavior needed by ActorHandler.
type ActorService interface {
	CreateActor(ctx context.Context, input usecase.CreateActorInput) (*domain.Actor, error)
	GetActor(ctx context.Context, id string) (*domain.Actor, error)
	ListActors(ctx context.Context, limit, offset int) ([]*domain.Actor, error)
	SetLocked(ctx context.Context, id string, locked bool) (*domain.Actor, error)
}

// ActorHandler handles actor administration requests.
type ActorHandler struct {
	actorUC ActorService
}

// NewActorHandler creates a new ActorHandler.
func NewActorHandler(actorUC ActorService) *ActorHandler {
	return &ActorHandler{actorUC: actorUC}
}

// Create creates an actor.
func (h *ActorHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateActorRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDomainError(w, r, "invalid request body", err)
		return
	}

	actor, err := h.actorUC.CreateActor(r.Context(), req.ToUseCaseInput())
	if err != nil {
		writeDomainError(w, r, "failed to create actor", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.ActorFromDomain(actor))
}

// Get retrieves an actor by ID.
func (h *ActorHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, err := h.actorUC.GetActor(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, "failed to get actor", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ActorFromDomain(actor))
}

// List lists actors.
func (h *ActorHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := parseIntQuery(r, "limit", domain.DefaultPageSize)
	offset := parseIntQuery(r, "offset", 0)

	actors, err := h.actorUC.ListActors(r.Context(), limit, offset)
	if err != nil {
		writeDomainError(w, r, "failed to list actors", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ActorsFromDomain(actors))
}

// Lock locks or unlocks an actor.
func (h *ActorHandler) Lock(w http.ResponseWriter, r *http.Request) {
	var req dto.LockActorRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDomainError(w, r, "invalid request body", err)
		return
	}

	actor, err := h.actorUC.SetLocked(r.Context(), chi.URLParam(r, "id"), req.Locked)
	if err != nil {
		writeDomainError(w, r, "failed to update actor", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ActorFromDomain(actor))
}
