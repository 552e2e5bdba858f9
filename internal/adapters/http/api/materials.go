package api

import (
	"errors"
	"net/http"

	"github.com/okian/tianji/internal/domain/bazi"
	"github.com/okian/tianji/internal/domain/materials"
)

// MaterialsHandler serves the recommendation catalog.
type MaterialsHandler struct {
	deps MaterialsDependencies
}

// NewMaterialsHandler creates a new materials handler.
func NewMaterialsHandler(deps MaterialsDependencies) *MaterialsHandler {
	return &MaterialsHandler{deps: deps}
}

type materialsResponse struct {
	Element bazi.Element         `json:"element"`
	Hanzi   string               `json:"hanzi"`
	Color   string               `json:"color"`
	Items   []materials.Material `json:"items"`
}

// HandleGetMaterials handles GET /api/materials/{element}. The element is an
// English name in any case or its Chinese character.
func (h *MaterialsHandler) HandleGetMaterials(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_materials"
	e, err := bazi.ParseElement(r.PathValue("element"))
	if err != nil {
		writeError(w, http.StatusNotFound, "unknown_element", WrapKind(op, ErrNotFound, err))
		return
	}
	items, err := h.deps.Materials(r.Context(), e)
	if err != nil {
		if errors.Is(err, bazi.ErrUnknownElement) {
			writeError(w, http.StatusNotFound, "unknown_element", WrapKind(op, ErrNotFound, err))
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, materialsResponse{
		Element: e,
		Hanzi:   e.Hanzi(),
		Color:   e.Color(),
		Items:   items,
	})
}
