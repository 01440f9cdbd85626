package handlers

import (
	"encoding/json"
	"errors"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"lostfound/internal/apperr"
	"lostfound/internal/models"
	"lostfound/internal/service"
)

const imageField = "image"

// itemJSON is the JSON body accepted by POST and PATCH /items when no file is sent.
type itemJSON struct {
	Name        *string         `json:"name"`
	Description *string         `json:"description"`
	Category    *string         `json:"category"`
	DateFound   *string         `json:"dateFound"`
	Location    json.RawMessage `json:"location"`
}

// itemFields is the decoded item payload; nil means the field was absent.
type itemFields struct {
	Name        *string
	Description *string
	Category    *string
	DateFound   *string
	Location    *string
	Image       *service.ImageUpload
	file        multipart.File
}

func (f *itemFields) close() {
	if f.file != nil {
		f.file.Close()
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func isMultipart(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "multipart/form-data"
}

// readItemFields decodes either a multipart form (fields plus optional image)
// or a JSON body, bounded by the configured upload size.
func (h *Handlers) readItemFields(w http.ResponseWriter, r *http.Request) (*itemFields, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.Cfg.MaxUploadSize)

	if !isMultipart(r) {
		var body itemJSON
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				return nil, apperr.Validation("request exceeds %d bytes", h.Cfg.MaxUploadSize)
			}
			return nil, apperr.Validation("invalid request body")
		}

		fields := &itemFields{
			Name:        body.Name,
			Description: body.Description,
			Category:    body.Category,
			DateFound:   body.DateFound,
		}
		if body.Location != nil {
			loc := string(body.Location)
			fields.Location = &loc
		}
		return fields, nil
	}

	if err := r.ParseMultipartForm(h.Cfg.MaxUploadSize); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, apperr.Validation("upload exceeds %d bytes", h.Cfg.MaxUploadSize)
		}
		return nil, apperr.Validation("invalid multipart form")
	}

	formValue := func(key string) *string {
		values, ok := r.MultipartForm.Value[key]
		if !ok || len(values) == 0 {
			return nil
		}
		return &values[0]
	}

	fields := &itemFields{
		Name:        formValue("name"),
		Description: formValue("description"),
		Category:    formValue("category"),
		DateFound:   formValue("dateFound"),
		Location:    formValue("location"),
	}

	file, header, err := r.FormFile(imageField)
	switch {
	case err == nil:
		fields.file = file
		fields.Image = &service.ImageUpload{FileName: header.Filename, Reader: file}
	case errors.Is(err, http.ErrMissingFile):
	default:
		return nil, apperr.Validation("invalid image upload")
	}

	return fields, nil
}

func (h *Handlers) CreateItem(w http.ResponseWriter, r *http.Request) {
	userID, err := callerID(r)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}

	fields, err := h.readItemFields(w, r)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	defer fields.close()

	item, err := h.ItemService.CreateItem(r.Context(), service.CreateItemRequest{
		OwnerID:     userID,
		Name:        deref(fields.Name),
		Description: deref(fields.Description),
		Category:    deref(fields.Category),
		DateFound:   deref(fields.DateFound),
		Location:    deref(fields.Location),
		Image:       fields.Image,
	})
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}

	writeData(w, http.StatusCreated, item)
}

func (h *Handlers) ListItems(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := models.ItemFilter{
		Query:    strings.TrimSpace(query.Get("q")),
		Category: strings.TrimSpace(query.Get("category")),
		Building: strings.TrimSpace(query.Get("building")),
	}

	items, err := h.ItemService.ListItems(r.Context(), filter)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}

	writeData(w, http.StatusOK, items)
}

func (h *Handlers) GetItem(w http.ResponseWriter, r *http.Request) {
	item, err := h.ItemService.GetItem(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}

	writeData(w, http.StatusOK, item)
}

func (h *Handlers) UpdateItem(w http.ResponseWriter, r *http.Request) {
	userID, err := callerID(r)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}

	fields, err := h.readItemFields(w, r)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	defer fields.close()

	item, err := h.ItemService.UpdateItem(r.Context(), service.UpdateItemRequest{
		ItemID:      mux.Vars(r)["id"],
		RequesterID: userID,
		Name:        fields.Name,
		Description: fields.Description,
		Category:    fields.Category,
		DateFound:   fields.DateFound,
		Location:    fields.Location,
		Image:       fields.Image,
	})
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}

	writeData(w, http.StatusOK, item)
}

func (h *Handlers) DeleteItem(w http.ResponseWriter, r *http.Request) {
	userID, err := callerID(r)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}

	if err := h.ItemService.DeleteItem(r.Context(), mux.Vars(r)["id"], userID); err != nil {
		h.writeAppError(w, r, err)
		return
	}

	writeOK(w, "Item deleted")
}

func (h *Handlers) ListCreatedItems(w http.ResponseWriter, r *http.Request) {
	userID, err := callerID(r)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}

	items, err := h.ItemService.ListCreatedItems(r.Context(), userID)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}

	writeData(w, http.StatusOK, items)
}
