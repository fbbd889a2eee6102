package handlers

import (
	"net/http"

	"github.com/crossval/quorum/internal/domain"
	"github.com/crossval/quorum/internal/engine"
)

type ProviderHandler struct {
	eng *engine.Engine
}

func NewProviderHandler(eng *engine.Engine) *ProviderHandler {
	return &ProviderHandler{eng: eng}
}

type providerView struct {
	domain.ProviderDescriptor
	Weight    float64  `json:"weight"`
	Fallbacks []string `json:"fallbacks,omitempty"`
}

type listProvidersResponse struct {
	Providers []providerView `json:"providers"`
	Spent     float64        `json:"spent"`
}

func (h *ProviderHandler) List(w http.ResponseWriter, r *http.Request) {
	registry := h.eng.Registry()

	descriptors := registry.Providers()
	views := make([]providerView, 0, len(descriptors))
	for _, d := range descriptors {
		views = append(views, providerView{
			ProviderDescriptor: d,
			Weight:             registry.Weight(d.ID),
			Fallbacks:          registry.Fallbacks(d.ID),
		})
	}

	writeJSON(w, http.StatusOK, listProvidersResponse{
		Providers: views,
		Spent:     h.eng.Spent(),
	})
}

func (h *ProviderHandler) Performance(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.eng.Registry().Performance())
}
