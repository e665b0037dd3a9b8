// Copyright (c) 2026 Newsletter2Paper. All rights reserved.
// Author: hello@newsletter2paper.app

package publication

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

func (handler *Handler) RegisterRoutes(router chi.Router) {
	router.Get("/", handler.listPublications)
	router.Get("/search", handler.searchPublications)
	router.Post("/resolve", handler.resolvePublication)
	router.Post("/import", handler.importPublications)
	router.Get("/{id}", handler.getPublication)
}

func (handler *Handler) listPublications(writer http.ResponseWriter, request *http.Request) {
	params := pagination.FromRequest(request)

	publications, total, err := handler.service.List(request.Context(), params)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, publications, pagination.NewMeta(params.Page, params.Limit, total))
}

func (handler *Handler) getPublication(writer http.ResponseWriter, request *http.Request) {
	id := requestutil.ID(request, "id")

	pub, err := handler.service.Get(request.Context(), id)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, pub)
}

func (handler *Handler) searchPublications(writer http.ResponseWriter, request *http.Request) {
	term := request.URL.Query().Get("q")

	results, err := handler.service.Search(request.Context(), term)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, results)
}

// resolveRequest carries a newsletter URL entered by hand, before any
// durable row exists for it.
type resolveRequest struct {
	URL string `json:"url"`
}

func (handler *Handler) resolvePublication(writer http.ResponseWriter, request *http.Request) {
	var body resolveRequest
	if err := requestutil.DecodeJSON(request, &body); err != nil {
		respond.Error(writer, request, err)
		return
	}

	pub, err := handler.service.ResolveFromURL(request.Context(), body.URL)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, pub)
}

func (handler *Handler) importPublications(writer http.ResponseWriter, request *http.Request) {
	publications, err := handler.service.ImportCSV(request.Context(), request.Body)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Created(writer, publications)
}
