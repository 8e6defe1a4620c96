package handler

import (
	"net/http"

	"github.com/gameia/engine/internal/service"
)

type ContentHandler struct {
	contentService *service.ContentService
}

func NewContentHandler(contentService *service.ContentService) *ContentHandler {
	return &ContentHandler{
		contentService: contentService,
	}
}

func (h *ContentHandler) List(w http.ResponseWriter, r *http.Request) {
	contents, err := h.contentService.ByModule(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, contents)
}

// Create adds one content item to the module in the path. Admin only.
func (h *ContentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input service.CreateContentInput
	if err := decodeJSON(w, r, &input); err != nil {
		writeError(w, r, err)
		return
	}
	input.ModuleID = r.PathValue("id")

	content, err := h.contentService.Create(r.Context(), input)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, content)
}
