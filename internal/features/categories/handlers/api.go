package handlers

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"backoffice/internal/core"
	"backoffice/internal/features/categories/models"
	"backoffice/internal/features/categories/services"

	"github.com/go-chi/chi/v5"
)

// formMemory is how much of a multipart body is held in memory before
// parts spill to temporary files
const formMemory = 1 << 20

// formOverhead leaves room for the non-file fields of a multipart body
const formOverhead = 1 << 20

type APIHandler struct {
	logger       *core.Logger
	service      CategoryServiceInterface
	maxBodyBytes int64
}

// NewAPIHandler creates the category API handler. maxImageBytes bounds
// the uploaded image; the request body may be slightly larger.
func NewAPIHandler(logger *core.Logger, service CategoryServiceInterface, maxImageBytes int64) *APIHandler {
	return &APIHandler{
		logger:       logger,
		service:      service,
		maxBodyBytes: maxImageBytes + formOverhead,
	}
}

func (h *APIHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.ListCategories(r.Context())
	if err != nil {
		core.HandleError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, categories)
}

func (h *APIHandler) GetCategory(w http.ResponseWriter, r *http.Request) {
	id, err := categoryID(r)
	if err != nil {
		core.HandleError(w, err)
		return
	}

	category, err := h.service.GetCategory(r.Context(), id)
	if err != nil {
		core.HandleError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, category)
}

func (h *APIHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	form, err := h.readForm(w, r)
	if err != nil {
		core.HandleError(w, err)
		return
	}
	defer form.cleanup()

	category, err := h.service.CreateCategory(r.Context(), &models.CategoryCreate{
		Name:      form.name,
		ItemCount: form.itemCount,
		Image:     form.image,
	})
	if err != nil {
		core.HandleError(w, err)
		return
	}

	h.logger.WithContext(r.Context()).Debug("Category created via API", "id", category.ID)
	writeJSON(w, http.StatusCreated, category)
}

func (h *APIHandler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, err := categoryID(r)
	if err != nil {
		core.HandleError(w, err)
		return
	}

	form, err := h.readForm(w, r)
	if err != nil {
		core.HandleError(w, err)
		return
	}
	defer form.cleanup()

	category, err := h.service.UpdateCategory(r.Context(), id, &models.CategoryUpdate{
		Name:      form.name,
		ItemCount: form.itemCount,
		Image:     form.image,
	})
	if err != nil {
		core.HandleError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, category)
}

func (h *APIHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := categoryID(r)
	if err != nil {
		core.HandleError(w, err)
		return
	}

	if err := h.service.DeleteCategory(r.Context(), id); err != nil {
		core.HandleError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, models.DeleteResponse{Message: "Category deleted successfully"})
}

func categoryID(r *http.Request) (int, error) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		return 0, core.NewValidationError("Invalid category ID", err)
	}
	return id, nil
}

// categoryForm is the decoded body of a create or update request
type categoryForm struct {
	name      string
	itemCount int
	image     *models.ImageUpload
	cleanup   func()
}

// readForm accepts multipart, urlencoded and JSON bodies. Only multipart
// bodies can carry an image.
func (h *APIHandler) readForm(w http.ResponseWriter, r *http.Request) (*categoryForm, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)
	form := &categoryForm{cleanup: func() {}}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "multipart/form-data":
		if err := r.ParseMultipartForm(formMemory); err != nil {
			return nil, bodyError(err)
		}
		form.cleanup = func() { r.MultipartForm.RemoveAll() }
		form.name = r.FormValue("name")
		form.itemCount = services.ParseItemCount(r.FormValue("item_count"))

		file, header, err := r.FormFile("image")
		switch {
		case errors.Is(err, http.ErrMissingFile):
		case err != nil:
			form.cleanup()
			return nil, core.NewValidationError("Invalid image upload", err)
		default:
			form.cleanup = func() {
				file.Close()
				r.MultipartForm.RemoveAll()
			}
			form.image = &models.ImageUpload{
				Filename:    header.Filename,
				ContentType: header.Header.Get("Content-Type"),
				Body:        file,
			}
		}

	case "application/json":
		var body struct {
			Name      string          `json:"name"`
			ItemCount json.RawMessage `json:"item_count"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			return nil, bodyError(err)
		}
		form.name = body.Name
		form.itemCount = jsonItemCount(body.ItemCount)

	default:
		if err := r.ParseForm(); err != nil {
			return nil, bodyError(err)
		}
		form.name = r.PostFormValue("name")
		form.itemCount = services.ParseItemCount(r.PostFormValue("item_count"))
	}

	return form, nil
}

// jsonItemCount accepts a number or a numeric string
func jsonItemCount(raw json.RawMessage) int {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return services.ParseItemCount(s)
	}
	return services.ParseItemCount(strings.TrimSpace(string(raw)))
}

func bodyError(err error) error {
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		return core.NewPayloadTooLargeError("File too large", err)
	}
	return core.NewValidationError("Invalid request body", err)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
