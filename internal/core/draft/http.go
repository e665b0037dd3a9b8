// Copyright (c) 2026 Newsletter2Paper. All rights reserved.
// Author: hello@newsletter2paper.app

package draft

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/apchapcomputing/newsletter2paper/internal/core/publication"
	"github.com/apchapcomputing/newsletter2paper/internal/platform/apperr"
	"github.com/apchapcomputing/newsletter2paper/internal/platform/ctxutil"
	requestutil "github.com/apchapcomputing/newsletter2paper/internal/platform/request"
	"github.com/apchapcomputing/newsletter2paper/internal/platform/respond"
	"github.com/apchapcomputing/newsletter2paper/pkg/handle"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts the draft endpoints. Every route requires a
// session: either an authenticated user or a guest token.
func (handler *Handler) RegisterRoutes(router chi.Router) {
	router.Get("/", handler.getDraft)
	router.Put("/", handler.updateDraft)
	router.Delete("/", handler.clearDraft)
	router.Post("/save", handler.saveDraft)
	router.Post("/publications", handler.addPublication)
	router.Delete("/publications/{ref}", handler.removePublication)
}

// sessionFromRequest builds the editing session from the verified identity
// on the request: user claims win over a guest token.
func sessionFromRequest(request *http.Request) (Session, error) {
	if claims := requestutil.Claims(request); claims != nil {
		return Session{Key: claims.UserID, UserID: claims.UserID}, nil
	}
	if guest := ctxutil.GetGuestSession(request.Context()); guest != "" {
		return Session{Key: guest}, nil
	}
	return Session{}, apperr.Unauthorized("A user or guest session is required")
}

func (handler *Handler) getDraft(writer http.ResponseWriter, request *http.Request) {
	session, err := sessionFromRequest(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	state, err := handler.service.Get(request.Context(), session)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, state)
}

func (handler *Handler) updateDraft(writer http.ResponseWriter, request *http.Request) {
	session, err := sessionFromRequest(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var patch Patch
	if err := requestutil.DecodeJSON(request, &patch); err != nil {
		respond.Error(writer, request, err)
		return
	}

	state, err := handler.service.UpdateDraft(request.Context(), session, patch)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, state)
}

func (handler *Handler) clearDraft(writer http.ResponseWriter, request *http.Request) {
	session, err := sessionFromRequest(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.Clear(request.Context(), session); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.NoContent(writer)
}

// saveDraft synchronizes immediately. The response carries the durable
// issue and any identifier remaps so the caller can update what it holds.
func (handler *Handler) saveDraft(writer http.ResponseWriter, request *http.Request) {
	session, err := sessionFromRequest(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	result, err := handler.service.Flush(request.Context(), session)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, result)
}

// addPublicationRequest is the body for selecting a publication: either a
// known durable ID or the raw newsletter details for a provisional entry.
type addPublicationRequest struct {
	ID           string `json:"id,omitempty"`
	URL          string `json:"url"`
	Title        string `json:"title"`
	Publisher    string `json:"publisher,omitempty"`
	RemoveImages bool   `json:"remove_images"`
}

func (handler *Handler) addPublication(writer http.ResponseWriter, request *http.Request) {
	session, err := sessionFromRequest(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var body addPublicationRequest
	if err := requestutil.DecodeJSON(request, &body); err != nil {
		respond.Error(writer, request, err)
		return
	}

	entry := Entry{
		Title:        body.Title,
		URL:          body.URL,
		Publisher:    body.Publisher,
		RemoveImages: body.RemoveImages,
	}
	if body.ID != "" {
		entry.Ref = publication.NewDurable(body.ID)
	} else {
		entry.Ref = publication.NewProvisional(handle.FromURL(body.URL))
	}

	state, err := handler.service.AddPublication(request.Context(), session, entry)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, state)
}

func (handler *Handler) removePublication(writer http.ResponseWriter, request *http.Request) {
	session, err := sessionFromRequest(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	ref := publication.ParseRef(requestutil.Param(request, "ref"))

	state, err := handler.service.RemovePublication(request.Context(), session, ref)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, state)
}
