package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"tle_judge/internal/common"
	"tle_judge/internal/domain/model"
)

type LanguageService interface {
	ListLanguages(ctx context.Context) []model.Language
}

type LanguageHandler struct {
	languageService LanguageService
}

func NewLanguageHandler(ls LanguageService) *LanguageHandler {
	return &LanguageHandler{languageService: ls}
}

func (h *LanguageHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.listLanguages)
}

func (h *LanguageHandler) listLanguages(w http.ResponseWriter, r *http.Request) {
	common.RespondWithJSON(w, http.StatusOK, h.languageService.ListLanguages(r.Context()))
}
