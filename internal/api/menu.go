package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/menuvision/backend/internal/service"
	"github.com/menuvision/backend/internal/sse"
	"github.com/menuvision/backend/internal/storage"
	"github.com/menuvision/backend/internal/store"
	"github.com/menuvision/backend/internal/types"
)

// Uploads larger than this are rejected outright.
const maxUploadSize = 10 << 20

// MenuHandler exposes the processing pipeline and the stored results
// over HTTP.
type MenuHandler struct {
	processor *service.MenuProcessor
	store     store.Store
	uploader  *storage.Uploader
}

// NewMenuHandler creates a handler. uploader may be nil, which disables
// upload archival.
func NewMenuHandler(processor *service.MenuProcessor, st store.Store, uploader *storage.Uploader) *MenuHandler {
	return &MenuHandler{
		processor: processor,
		store:     st,
		uploader:  uploader,
	}
}

// RegisterRoutes registers the menu routes. processMiddleware is
// applied to the two processing endpoints only; reads stay unthrottled.
func (h *MenuHandler) RegisterRoutes(router *gin.RouterGroup, processMiddleware ...gin.HandlerFunc) {
	process := router.Group("")
	process.Use(processMiddleware...)
	process.POST("/process-menu", h.ProcessMenu)
	process.POST("/process-menu-stream", h.ProcessMenuStream)

	router.GET("/menu-items", h.ListMenuItems)
	router.GET("/menu-items/:id", h.GetMenuItem)
	router.GET("/menu-sessions/:id", h.GetMenuSession)
	router.GET("/menu-sessions/:id/items", h.ListSessionItems)
}

// ProcessMenu is the blocking mode: it runs the pipeline to completion
// and answers once.
func (h *MenuHandler) ProcessMenu(c *gin.Context) {
	input, ok := h.readMenuInput(c)
	if !ok {
		return
	}

	result, err := h.processor.Process(c.Request.Context(), input)
	if err != nil {
		status, message := mapProcessingError(err)
		c.JSON(status, gin.H{"error": message})
		return
	}

	c.JSON(http.StatusOK, result)
}

// ProcessMenuStream is the streaming mode: progress events are written
// as server-sent events and the connection closes after the terminal
// event.
func (h *MenuHandler) ProcessMenuStream(c *gin.Context) {
	input, ok := h.readMenuInput(c)
	if !ok {
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	enc := sse.NewEncoder(c.Writer)
	for event := range h.processor.ProcessStream(c.Request.Context(), input) {
		if err := enc.WriteEvent(string(event.Type), event.Payload); err != nil {
			// Client is gone; the request context cancellation stops
			// the pipeline.
			log.Printf("[MenuHandler] stream write failed: %v", err)
			return
		}
	}
}

// ListMenuItems returns every persisted item in insertion order.
func (h *MenuHandler) ListMenuItems(c *gin.Context) {
	items, err := h.store.ListAllItems(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch menu items"})
		return
	}
	c.JSON(http.StatusOK, items)
}

// GetMenuItem returns one item by id.
func (h *MenuHandler) GetMenuItem(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid menu item ID"})
		return
	}

	item, err := h.store.GetItem(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Menu item not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch menu item"})
		return
	}
	c.JSON(http.StatusOK, item)
}

// GetMenuSession returns one session by id.
func (h *MenuHandler) GetMenuSession(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid session ID"})
		return
	}

	session, err := h.store.GetSession(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch session"})
		return
	}
	c.JSON(http.StatusOK, session)
}

// ListSessionItems returns the items created by one session, in
// insertion order.
func (h *MenuHandler) ListSessionItems(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid session ID"})
		return
	}

	if _, err := h.store.GetSession(c.Request.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch session"})
		return
	}

	items, err := h.store.ListItemsBySession(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch session items"})
		return
	}
	c.JSON(http.StatusOK, items)
}

// readMenuInput extracts the menu text or uploaded file from the
// request. It writes a 400 response and returns ok=false on input
// errors.
func (h *MenuHandler) readMenuInput(c *gin.Context) (types.MenuInput, bool) {
	var input types.MenuInput

	fileHeader, err := c.FormFile("menuFile")
	switch {
	case err == nil:
		if fileHeader.Size > maxUploadSize {
			c.JSON(http.StatusBadRequest, gin.H{"error": "File too large (max 10MB)"})
			return input, false
		}

		contentType := fileHeader.Header.Get("Content-Type")
		if !strings.HasPrefix(contentType, "image/") && contentType != "text/plain" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Please upload an image file or text file (.txt)"})
			return input, false
		}

		file, err := fileHeader.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read uploaded file"})
			return input, false
		}
		defer func() { _ = file.Close() }()

		data, err := io.ReadAll(file)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read uploaded file"})
			return input, false
		}

		h.archiveUpload(data, fileHeader.Filename, contentType)

		if contentType == "text/plain" {
			input.Text = string(data)
		} else {
			input.ImageData = data
			input.MimeType = contentType
			input.Filename = fileHeader.Filename
		}
		return input, true

	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
		// No file part, or not a multipart body at all; url-encoded
		// requests land here too.
		menuText, present := c.GetPostForm("menuText")
		if !present {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Menu text or file is required"})
			return input, false
		}
		input.Text = menuText
		return input, true

	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return input, false
	}
}

// archiveUpload copies the raw upload to object storage in the
// background. Failures only log; processing never waits on this.
func (h *MenuHandler) archiveUpload(data []byte, filename, contentType string) {
	if h.uploader == nil {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		location, err := h.uploader.UploadMenuFile(ctx, data, filename, contentType)
		if err != nil {
			log.Printf("[MenuHandler] failed to archive upload %q: %v", filename, err)
			return
		}
		log.Printf("[MenuHandler] archived upload %q to %s", filename, location)
	}()
}

func mapProcessingError(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrNoItems):
		return http.StatusBadRequest, "No valid food items found in the menu"
	case errors.Is(err, service.ErrRateLimited):
		return http.StatusTooManyRequests, "Rate limit exceeded. Please try again later."
	case errors.Is(err, service.ErrMissingAPIKey):
		return http.StatusInternalServerError, fmt.Sprintf("Gemini API key is not configured: %v", err)
	default:
		return http.StatusInternalServerError, "Failed to process menu. Please try again."
	}
}
