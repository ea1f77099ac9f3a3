package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/labelvault/internal/bip329"
	"github.com/starford/labelvault/internal/labelservice"
)

// Handler holds API route handlers.
type Handler struct {
	svc *labelservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *labelservice.Service) *Handler {
	return &Handler{svc: svc}
}

// labelRef extracts the reference from /labels/{type}/{ref}. Encoded
// characters in ref are decoded.
func labelRef(r *http.Request) (bip329.Ref, bool) {
	typ := bip329.Type(chi.URLParam(r, "type"))
	raw := chi.URLParam(r, "ref")
	value, err := url.PathUnescape(raw)
	if err != nil {
		value = raw
	}
	if !typ.Valid() || value == "" {
		return bip329.Ref{}, false
	}
	return bip329.Ref{Type: typ, Value: value}, true
}

// ListLabels handles GET /api/labels.
//
//	@Summary		List labels with optional type filter and pagination
//	@Tags			labels
//	@Produce		json
//	@Param			type	query		string	false	"Record type"	Enums(tx, addr, pubkey, input, output, xpub)
//	@Param			limit	query		int		false	"Page size"
//	@Param			offset	query		int		false	"Page offset"
//	@Success		200		{object}	LabelListResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/labels [get]
func (h *Handler) ListLabels(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))

	items, total, err := h.svc.List(r.Context(), bip329.Type(q.Get("type")), limit, offset)
	if err != nil {
		writeServiceError(w, "list labels", err)
		return
	}
	writeJSON(w, http.StatusOK, LabelListResponse{Labels: items, Total: total})
}

// GetLabel handles GET /api/labels/{type}/{ref}.
//
//	@Summary		Get one label by reference
//	@Tags			labels
//	@Produce		json
//	@Param			type	path		string	true	"Record type"
//	@Param			ref		path		string	true	"Reference (txid, address, outpoint, ...)"
//	@Success		200		{object}	LabelView
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/labels/{type}/{ref} [get]
func (h *Handler) GetLabel(w http.ResponseWriter, r *http.Request) {
	ref, ok := labelRef(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "valid type and ref are required")
		return
	}
	label, err := h.svc.Get(r.Context(), ref)
	if err != nil {
		writeServiceError(w, "get label", err)
		return
	}
	writeJSON(w, http.StatusOK, label)
}

// SetLabel handles PUT /api/labels/{type}/{ref}.
//
//	@Summary		Create or replace the label for a reference
//	@Tags			labels
//	@Accept			json
//	@Produce		json
//	@Param			type	path		string			true	"Record type"
//	@Param			ref		path		string			true	"Reference"
//	@Param			body	body		SetLabelRequest	true	"Label fields"
//	@Success		200		{object}	LabelView
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/labels/{type}/{ref} [put]
func (h *Handler) SetLabel(w http.ResponseWriter, r *http.Request) {
	ref, ok := labelRef(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "valid type and ref are required")
		return
	}
	var req SetLabelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	label, err := h.svc.Set(r.Context(), ref, req)
	if err != nil {
		writeServiceError(w, "set label", err)
		return
	}
	writeJSON(w, http.StatusOK, label)
}

// ImportLabels handles POST /api/labels/import.
//
//	@Summary		Merge BIP-329 JSONL into the label set
//	@Description	Incoming records replace existing ones with the same reference.
//	@Tags			labels
//	@Accept			plain
//	@Produce		json
//	@Success		200	{object}	ImportResponse
//	@Failure		400	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/labels/import [post]
func (h *Handler) ImportLabels(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.Import(r.Context(), r.Body)
	if err != nil {
		writeServiceError(w, "import labels", err)
		return
	}
	writeJSON(w, http.StatusOK, ImportResponse{Imported: n})
}

// ExportLabels handles GET /api/labels/export.
//
//	@Summary		Download all labels as BIP-329 JSONL
//	@Tags			labels
//	@Produce		plain
//	@Success		200
//	@Security		BearerAuth
//	@Router			/labels/export [get]
func (h *Handler) ExportLabels(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/jsonl")
	w.Header().Set("Content-Disposition", `attachment; filename="labels.jsonl"`)
	if err := h.svc.Export(r.Context(), w); err != nil {
		slog.Error("api: export labels failed", slog.String("error", err.Error()))
	}
}

// SaveLabels handles POST /api/labels/save.
//
//	@Summary		Persist the label set atomically
//	@Tags			labels
//	@Produce		json
//	@Param			If-Match	header		string	false	"SHA-256 of the label file the caller last saw"
//	@Success		200			{object}	SaveResponse
//	@Failure		409			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/labels/save [post]
func (h *Handler) SaveLabels(w http.ResponseWriter, r *http.Request) {
	// Strip surrounding quotes if present (standard ETag format).
	ifMatch := strings.Trim(r.Header.Get("If-Match"), `"`)

	sum, err := h.svc.Save(r.Context(), ifMatch)
	if err != nil {
		writeServiceError(w, "save labels", err)
		return
	}
	if sum != "" {
		w.Header().Set("ETag", `"`+sum+`"`)
	}
	writeJSON(w, http.StatusOK, SaveResponse{Checksum: sum})
}

// Search handles GET /api/search.
//
//	@Summary		Full-text search across label text and references
//	@Tags			search
//	@Produce		json
//	@Param			q		query		string	true	"Search query"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	SearchResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeError(w, http.StatusBadRequest, "query parameter 'q' is required")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results, err := h.svc.Search(r.Context(), q, limit)
	if err != nil {
		writeServiceError(w, "search", err)
		return
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: results})
}

// Stats handles GET /api/stats.
//
//	@Summary		Label counts per type and file state
//	@Tags			labels
//	@Produce		json
//	@Success		200	{object}	Stats
//	@Security		BearerAuth
//	@Router			/stats [get]
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Stats(r.Context()))
}
