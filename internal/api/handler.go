package api

import (
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/tendant/fragments/pkg/fragments"
)

// Handler serves the /v1 fragment routes on top of a fragments.Service. It
// owns request parsing and response shaping only; validation, storage, and
// conversion decisions live in the service.
type Handler struct {
	service fragments.Service
}

// NewHandler creates a new fragment handler
func NewHandler(service fragments.Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the authenticated fragment routes
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/fragments", h.CreateFragment)
	r.Get("/fragments", h.ListFragments)
	r.Get("/fragments/{id}", h.GetFragment)
	r.Get("/fragments/{id}/info", h.GetFragmentInfo)
	r.Put("/fragments/{id}", h.UpdateFragment)
	r.Delete("/fragments/{id}", h.DeleteFragment)

	return r
}

// owner resolves the authenticated principal to the storage partition key.
func (h *Handler) owner(w http.ResponseWriter, r *http.Request) (string, bool) {
	ownerID, err := fragments.ResolveOwnerID(principalFrom(r.Context()))
	if err != nil {
		writeError(w, r, http.StatusUnauthorized, "unauthorized")
		return "", false
	}
	return ownerID, true
}

// CreateFragment stores the raw request body as a new fragment typed by the
// Content-Type header.
func (h *Handler) CreateFragment(w http.ResponseWriter, r *http.Request) {
	ownerID, authed := h.owner(w, r)
	if !authed {
		return
	}

	contentType := r.Header.Get("Content-Type")
	if !fragments.IsSupportedType(contentType) {
		writeError(w, r, http.StatusUnsupportedMediaType, "unsupported media type: "+contentType)
		return
	}

	data, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "failed to read request body")
		return
	}

	f, err := h.service.CreateFragment(r.Context(), fragments.CreateFragmentRequest{
		OwnerID: ownerID,
		Type:    contentType,
		Data:    data,
	})
	if err != nil {
		slog.Error("failed to create fragment", "owner", ownerID, "error", err)
		renderError(w, r, err)
		return
	}

	w.Header().Set("Location", "/v1/fragments/"+f.ID)
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, ok(map[string]interface{}{"fragment": f}))
}

// ListFragments returns the owner's fragment ids, or full metadata records
// when ?expand=1 is given.
func (h *Handler) ListFragments(w http.ResponseWriter, r *http.Request) {
	ownerID, authed := h.owner(w, r)
	if !authed {
		return
	}

	if r.URL.Query().Get("expand") == "1" {
		list, err := h.service.ListFragments(r.Context(), ownerID)
		if err != nil {
			renderError(w, r, err)
			return
		}
		render.JSON(w, r, ok(map[string]interface{}{"fragments": list}))
		return
	}

	ids, err := h.service.ListFragmentIDs(r.Context(), ownerID)
	if err != nil {
		renderError(w, r, err)
		return
	}
	render.JSON(w, r, ok(map[string]interface{}{"fragments": ids}))
}

// GetFragment returns the fragment's raw data. An extension on the id
// (e.g. `{id}.html`) requests conversion to the type the extension stands
// for; an extension outside the table is a client error.
func (h *Handler) GetFragment(w http.ResponseWriter, r *http.Request) {
	ownerID, authed := h.owner(w, r)
	if !authed {
		return
	}

	id, ext, hasExt := strings.Cut(chi.URLParam(r, "id"), ".")

	if hasExt {
		targetType, known := fragments.TypeForExtension(ext)
		if !known {
			writeError(w, r, http.StatusBadRequest, "unknown extension: "+ext)
			return
		}

		data, mediaType, err := h.service.ConvertFragment(r.Context(), ownerID, id, targetType)
		if err != nil {
			renderError(w, r, err)
			return
		}
		w.Header().Set("Content-Type", mediaType)
		w.Write(data)
		return
	}

	f, err := h.service.GetFragment(r.Context(), ownerID, id)
	if err != nil {
		renderError(w, r, err)
		return
	}
	data, err := h.service.GetFragmentData(r.Context(), ownerID, id)
	if err != nil {
		renderError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", f.Type)
	w.Write(data)
}

// GetFragmentInfo returns the fragment's metadata record.
func (h *Handler) GetFragmentInfo(w http.ResponseWriter, r *http.Request) {
	ownerID, authed := h.owner(w, r)
	if !authed {
		return
	}

	f, err := h.service.GetFragment(r.Context(), ownerID, chi.URLParam(r, "id"))
	if err != nil {
		renderError(w, r, err)
		return
	}
	render.JSON(w, r, ok(map[string]interface{}{"fragment": f}))
}

// UpdateFragment replaces the fragment's data. The declared type is fixed at
// creation; a body with a different Content-Type is rejected.
func (h *Handler) UpdateFragment(w http.ResponseWriter, r *http.Request) {
	ownerID, authed := h.owner(w, r)
	if !authed {
		return
	}
	id := chi.URLParam(r, "id")

	f, err := h.service.GetFragment(r.Context(), ownerID, id)
	if err != nil {
		renderError(w, r, err)
		return
	}

	contentType := r.Header.Get("Content-Type")
	if !fragments.IsSupportedType(contentType) {
		writeError(w, r, http.StatusUnsupportedMediaType, "unsupported media type: "+contentType)
		return
	}
	if mediaType := strings.Split(contentType, ";")[0]; strings.TrimSpace(mediaType) != f.MimeType() {
		writeError(w, r, http.StatusBadRequest, "fragment type cannot be changed after creation")
		return
	}

	data, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "failed to read request body")
		return
	}

	updated, err := h.service.SetFragmentData(r.Context(), ownerID, id, data)
	if err != nil {
		renderError(w, r, err)
		return
	}
	render.JSON(w, r, ok(map[string]interface{}{"fragment": updated}))
}

// DeleteFragment removes the fragment. Deleting an id that never existed is
// a 404 at this layer even though the service treats deletion as idempotent.
func (h *Handler) DeleteFragment(w http.ResponseWriter, r *http.Request) {
	ownerID, authed := h.owner(w, r)
	if !authed {
		return
	}
	id := chi.URLParam(r, "id")

	if _, err := h.service.GetFragment(r.Context(), ownerID, id); err != nil {
		renderError(w, r, err)
		return
	}

	if err := h.service.DeleteFragment(r.Context(), ownerID, id); err != nil {
		renderError(w, r, err)
		return
	}
	render.JSON(w, r, ok(nil))
}
