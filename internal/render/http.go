// Copyright (c) 2026 Newsletter2Paper. All rights reserved.
// Author: hello@newsletter2paper.app

package render

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	requestutil "github.com/apchapcomputing/newsletter2paper/internal/platform/request"
	"github.com/apchapcomputing/newsletter2paper/internal/platform/respond"
)

type Handler struct {
	trigger *Trigger
	client  *Client
}

func NewHandler(trigger *Trigger, client *Client) *Handler {
	return &Handler{trigger: trigger, client: client}
}

// RegisterRoutes mounts the generation endpoints on the issues router.
func (handler *Handler) RegisterRoutes(router chi.Router) {
	router.Post("/{id}/pdf", handler.generatePDF)
	router.Post("/{id}/articles", handler.fetchArticles)
}

func (handler *Handler) generatePDF(writer http.ResponseWriter, request *http.Request) {
	issueID := requestutil.ID(request, "id")

	result, err := handler.trigger.Generate(request.Context(), issueID, optionsFromQuery(request))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, result)
}

func (handler *Handler) fetchArticles(writer http.ResponseWriter, request *http.Request) {
	issueID := requestutil.ID(request, "id")

	result, err := handler.client.FetchArticles(request.Context(), issueID, optionsFromQuery(request))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, result)
}

// optionsFromQuery reads tuning parameters, leaving zero values for the
// client defaults to fill.
func optionsFromQuery(request *http.Request) GenerateOptions {
	query := request.URL.Query()

	options := GenerateOptions{
		LayoutType: query.Get("layout_type"),
	}
	if daysBack, err := strconv.Atoi(query.Get("days_back")); err == nil {
		options.DaysBack = daysBack
	}
	if maxArticles, err := strconv.Atoi(query.Get("max_articles_per_publication")); err == nil {
		options.MaxArticlesPerPublication = maxArticles
	}
	options.KeepHTML = query.Get("keep_html") == "true"
	options.RemoveImages = query.Get("remove_images") == "true"
	options.Verbose = query.Get("verbose") == "true"
	return options
}
