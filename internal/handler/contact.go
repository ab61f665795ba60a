package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"commtracker-backend/internal/commlog"
	"commtracker-backend/internal/config"
	"commtracker-backend/internal/middleware"
	"commtracker-backend/internal/model"
	"commtracker-backend/internal/service"
	"commtracker-backend/internal/storage"
	"commtracker-backend/internal/utils"
	"commtracker-backend/internal/websocket"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

type ContactHandler struct {
	ContactService *service.ContactService
	AuthService    *service.AuthService
	Blobs          *storage.BlobStore
	WSHub          *websocket.Hub
	Config         *config.Config
	Logger         *zap.Logger
}

func NewContactHandler(contactService *service.ContactService, authService *service.AuthService, blobs *storage.BlobStore, wsHub *websocket.Hub, cfg *config.Config, logger *zap.Logger) *ContactHandler {
	return &ContactHandler{
		ContactService: contactService,
		AuthService:    authService,
		Blobs:          blobs,
		WSHub:          wsHub,
		Config:         cfg,
		Logger:         logger,
	}
}

// expectedVersion reads the optimistic-concurrency version from If-Match,
// falling back to the version given in the body.
func expectedVersion(r *http.Request, fromBody *int64) (*int64, error) {
	tag := strings.TrimSpace(r.Header.Get("If-Match"))
	if tag == "" {
		return fromBody, nil
	}
	tag = strings.Trim(strings.TrimPrefix(tag, "W/"), `"`)
	v, err := strconv.ParseInt(tag, 10, 64)
	if err != nil {
		return nil, errors.New("invalid If-Match header")
	}
	return &v, nil
}

func (h *ContactHandler) writeContact(w http.ResponseWriter, status int, c *model.Contact, message string) {
	w.Header().Set("ETag", strconv.Quote(strconv.FormatInt(c.Version, 10)))
	utils.SuccessResponse(w, status, c, message)
}

func (h *ContactHandler) ListContacts(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFromContext(r.Context())

	contacts, err := h.ContactService.ListContacts(r.Context(), userID)
	if err != nil {
		writeServiceError(w, h.Logger, r, err)
		return
	}

	utils.SuccessResponse(w, http.StatusOK, contacts, "Contacts retrieved successfully")
}

func (h *ContactHandler) GetContact(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFromContext(r.Context())

	c, err := h.ContactService.GetContact(r.Context(), userID, mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, h.Logger, r, err)
		return
	}

	h.writeContact(w, http.StatusOK, c, "")
}

func (h *ContactHandler) CreateContact(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFromContext(r.Context())

	var req struct {
		Name     string  `json:"name"`
		ImageURL *string `json:"image_url"`
	}
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	c, err := h.ContactService.CreateContact(r.Context(), userID, req.Name, req.ImageURL)
	if err != nil {
		writeServiceError(w, h.Logger, r, err)
		return
	}

	h.writeContact(w, http.StatusCreated, c, "Contact created successfully")
}

func (h *ContactHandler) UpdateContact(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFromContext(r.Context())

	var req struct {
		Name     *string `json:"name"`
		ImageURL *string `json:"image_url"`
		Pinned   *bool   `json:"pinned"`
		Version  *int64  `json:"version"`
	}
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	version, err := expectedVersion(r, req.Version)
	if err != nil {
		utils.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	patch := model.ContactPatch{Name: req.Name, ImageURL: req.ImageURL, Pinned: req.Pinned}
	c, err := h.ContactService.UpdateContact(r.Context(), userID, mux.Vars(r)["id"], patch, version)
	if err != nil {
		writeServiceError(w, h.Logger, r, err)
		return
	}

	h.writeContact(w, http.StatusOK, c, "Contact updated successfully")
}

func (h *ContactHandler) DeleteContact(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFromContext(r.Context())

	if err := h.ContactService.DeleteContact(r.Context(), userID, mux.Vars(r)["id"]); err != nil {
		writeServiceError(w, h.Logger, r, err)
		return
	}

	utils.SuccessResponse(w, http.StatusOK, nil, "Contact deleted successfully")
}

// RequestDelete arms deletion on the first call and deletes on a repeated
// call for the same contact.
func (h *ContactHandler) RequestDelete(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFromContext(r.Context())

	state, err := h.ContactService.RequestDelete(r.Context(), userID, mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, h.Logger, r, err)
		return
	}

	message := "Click delete again to confirm"
	if state == service.DeleteDone {
		message = "Contact deleted successfully"
	}
	utils.SuccessResponse(w, http.StatusOK, map[string]service.DeleteState{"state": state}, message)
}

func (h *ContactHandler) LogCommunication(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFromContext(r.Context())

	var req struct {
		Type string     `json:"type"`
		Date *time.Time `json:"date"`
	}
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	var at time.Time
	if req.Date != nil {
		at = *req.Date
	}

	c, err := h.ContactService.LogCommunication(r.Context(), userID, mux.Vars(r)["id"], commlog.Kind(req.Type), at)
	if err != nil {
		writeServiceError(w, h.Logger, r, err)
		return
	}

	h.writeContact(w, http.StatusOK, c, "Communication logged")
}

func (h *ContactHandler) DeleteLogEntry(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFromContext(r.Context())
	vars := mux.Vars(r)

	index, err := strconv.Atoi(vars["index"])
	if err != nil {
		utils.ErrorResponse(w, http.StatusBadRequest, "Invalid log index")
		return
	}
	version, err := expectedVersion(r, nil)
	if err != nil {
		utils.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	c, err := h.ContactService.DeleteLogEntry(r.Context(), userID, vars["id"], index, version)
	if err != nil {
		writeServiceError(w, h.Logger, r, err)
		return
	}

	h.writeContact(w, http.StatusOK, c, "Log entry deleted")
}

// UploadImage stores the multipart "image" field and returns its URL for
// use as a contact's image_url.
func (h *ContactHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	// multipart overhead on top of the image itself
	r.Body = http.MaxBytesReader(w, r.Body, h.Blobs.MaxBytes+1<<20)

	file, _, err := r.FormFile("image")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeServiceError(w, h.Logger, r, storage.ErrTooLarge)
			return
		}
		utils.ErrorResponse(w, http.StatusBadRequest, "Missing image file")
		return
	}
	defer file.Close()

	url, err := h.Blobs.SaveImage(r.Context(), file)
	if err != nil {
		writeServiceError(w, h.Logger, r, err)
		return
	}

	utils.SuccessResponse(w, http.StatusCreated, map[string]string{"url": url}, "Image uploaded")
}

func (h *ContactHandler) WebSocketHandler(w http.ResponseWriter, r *http.Request) {
	// browsers cannot set headers on a websocket handshake
	token := r.URL.Query().Get("token")
	if token == "" {
		utils.ErrorResponse(w, http.StatusUnauthorized, "Missing token")
		return
	}

	userID, err := h.AuthService.Authenticate(token)
	if err != nil {
		utils.ErrorResponse(w, http.StatusUnauthorized, "Invalid token")
		return
	}

	websocket.ServeWs(h.WSHub, w, r, userID, h.Config.AllowedOrigins)
}
