// Copyright (c) 2026 Newsletter2Paper. All rights reserved.
// Author: hello@newsletter2paper.app

package issue

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	requestutil "github.com/apchapcomputing/newsletter2paper/internal/platform/request"
	"github.com/apchapcomputing/newsletter2paper/internal/platform/respond"
	"github.com/apchapcomputing/newsletter2paper/pkg/pagination"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts the issue endpoints. The whole group requires an
// account; guests reach the save workflow through the draft surface
// instead. Authentication is enforced by the middleware the router
// composes around this group.
func (handler *Handler) RegisterRoutes(router chi.Router) {
	router.Post("/", handler.saveIssue)
	router.Get("/", handler.listIssues)
	router.Get("/{id}", handler.getIssue)
	router.Patch("/{id}", handler.updateIssue)
	router.Delete("/{id}", handler.deleteIssue)
	router.Get("/{id}/publications", handler.listIssuePublications)
}

// saveIssue runs one explicit synchronization pass. Unlike the debounced
// autosave path, failures here surface to the caller.
func (handler *Handler) saveIssue(writer http.ResponseWriter, request *http.Request) {
	var input SaveInput
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	// Identity comes from the verified token, never the body.
	input.UserID = ""
	if claims := requestutil.Claims(request); claims != nil {
		input.UserID = claims.UserID
	}

	result, err := handler.service.Save(request.Context(), input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, result)
}

func (handler *Handler) listIssues(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	params := pagination.FromRequest(request)
	issues, total, err := handler.service.ListForUser(request.Context(), userID, params)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, issues, pagination.NewMeta(params.Page, params.Limit, total))
}

func (handler *Handler) getIssue(writer http.ResponseWriter, request *http.Request) {
	id := requestutil.ID(request, "id")

	stored, err := handler.service.Get(request.Context(), id)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, stored)
}

func (handler *Handler) updateIssue(writer http.ResponseWriter, request *http.Request) {
	id := requestutil.ID(request, "id")

	var patch UpdateInput
	if err := requestutil.DecodeJSON(request, &patch); err != nil {
		respond.Error(writer, request, err)
		return
	}

	stored, err := handler.service.Update(request.Context(), id, patch)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, stored)
}

func (handler *Handler) deleteIssue(writer http.ResponseWriter, request *http.Request) {
	id := requestutil.ID(request, "id")

	if err := handler.service.Delete(request.Context(), id); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.NoContent(writer)
}

func (handler *Handler) listIssuePublications(writer http.ResponseWriter, request *http.Request) {
	id := requestutil.ID(request, "id")

	linked, err := handler.service.ListPublications(request.Context(), id)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, linked)
}
