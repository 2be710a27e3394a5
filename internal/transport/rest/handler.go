// Package rest provides HTTP handlers for inventory-related operations.
package rest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	inverrors "github.com/abgdnv/inventory/internal/errors"
	"github.com/abgdnv/inventory/internal/model"
	"github.com/abgdnv/inventory/internal/service"
	"github.com/abgdnv/inventory/internal/store"
	"github.com/abgdnv/inventory/pkg/web"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

const (
	// ServiceName and ServiceVersion are reported by the metadata endpoint.
	ServiceName    = "Inventory REST API Service"
	ServiceVersion = "1.0"

	contentTypeJSON = "application/json"
)

type Handler struct {
	service       service.InventoryService
	validate      *validator.Validate
	writesEnabled bool
	logger        *slog.Logger
}

// NewHandler creates a new instance of the inventory API with the provided service.
// writesEnabled is the permission gate: when false every mutating endpoint
// answers 400 Bad Request while reads keep working.
func NewHandler(service service.InventoryService, writesEnabled bool, logger *slog.Logger) *Handler {
	return &Handler{
		service:       service,
		validate:      validator.New(),
		writesEnabled: writesEnabled,
		logger:        logger.With("component", "rest"),
	}
}

// RegisterRoutes registers the HTTP routes for the inventory service.
func (h *Handler) RegisterRoutes(r *chi.Mux) {
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		web.RespondError(w, h.logger, http.StatusNotFound, "The requested URL was not found on the server")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		web.RespondError(w, h.logger, http.StatusMethodNotAllowed, fmt.Sprintf("Method %s is not allowed on %s", r.Method, r.URL.Path))
	})

	r.Get("/", h.Index)
	r.Route("/inventory", func(r chi.Router) {
		r.Get("/", h.List)
		r.With(h.writeGate, web.RequireContentType(contentTypeJSON, h.logger)).Post("/", h.Create)

		r.Route("/{productID}", func(r chi.Router) {
			r.Get("/", h.FindByProductID)

			r.Route("/{condition}", func(r chi.Router) {
				r.Get("/", h.Find)

				r.Group(func(r chi.Router) {
					r.Use(h.writeGate)
					r.With(web.RequireContentType(contentTypeJSON, h.logger)).Put("/", h.Update)
					r.With(web.RequireContentType(contentTypeJSON, h.logger)).Put("/restock", h.Restock)
					r.Put("/activate", h.Activate)
					r.Put("/deactivate", h.Deactivate)
					r.Put("/{operation}/{amount}", h.AdjustQuantity)
					r.Delete("/", h.Delete)
				})
			})
		})
	})
	r.Get("/healthz", h.HealthCheck)
}

// writeGate rejects every mutating request while the permission gate is disabled.
func (h *Handler) writeGate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !h.writesEnabled {
			web.RespondError(w, h.logger, http.StatusBadRequest, "Write operations are currently disabled")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Index returns service metadata: name, version and the collection URL.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	web.RespondJSON(w, h.loggerWithReqID(r), http.StatusOK, map[string]string{
		"name":    ServiceName,
		"version": ServiceVersion,
		"paths":   fmt.Sprintf("%s://%s/inventory", scheme, r.Host),
	})
}

// List returns every inventory record, optionally narrowed by the
// condition, available and quantity query parameters.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	filter, ok := h.parseFilter(w, r, mLogger)
	if !ok {
		return
	}

	mLogger.DebugContext(r.Context(), "Received request to list inventory records")
	list, err := h.service.FindAll(r.Context(), filter)
	if err != nil {
		h.respondServiceError(w, r, mLogger, err)
		return
	}
	if len(list) == 0 {
		web.RespondError(w, mLogger, http.StatusNotFound, "No inventory records found")
		return
	}
	mLogger.DebugContext(r.Context(), "Successfully listed inventory records", "count", len(list))
	web.RespondJSON(w, mLogger, http.StatusOK, list)
}

// FindByProductID returns every record for a product id, across conditions.
func (h *Handler) FindByProductID(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	productID, ok := h.parseProductID(w, r, mLogger)
	if !ok {
		return
	}

	mLogger.DebugContext(r.Context(), "Received request to find records by product_id", "product_id", productID)
	list, err := h.service.FindByProductID(r.Context(), productID)
	if err != nil {
		h.respondServiceError(w, r, mLogger, err)
		return
	}
	if len(list) == 0 {
		web.RespondError(w, mLogger, http.StatusNotFound, fmt.Sprintf("Inventory records with product_id %d were not found", productID))
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, list)
}

// Find returns the single record identified by (product_id, condition).
func (h *Handler) Find(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	productID, condition, ok := h.parseKey(w, r, mLogger)
	if !ok {
		return
	}

	mLogger.DebugContext(r.Context(), "Received request to find record", "product_id", productID, "condition", condition)
	found, err := h.service.Find(r.Context(), productID, condition)
	if err != nil {
		h.respondServiceError(w, r, mLogger, err)
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, found)
}

// Create handles the creation of a new inventory record.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	var dto service.RecordCreateDto
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		mLogger.ErrorContext(r.Context(), "Error decoding request body", "error", err)
		web.RespondError(w, mLogger, http.StatusBadRequest, "Invalid request body")
		return
	}

	mLogger.DebugContext(r.Context(), "Received request to create record", "record", dto)
	if !h.validateStruct(w, r, mLogger, dto) {
		return
	}

	created, err := h.service.Create(r.Context(), dto)
	if err != nil {
		h.respondServiceError(w, r, mLogger, err)
		return
	}
	mLogger.InfoContext(r.Context(), "Inventory record created successfully",
		"product_id", created.ProductID, "condition", created.Condition)
	w.Header().Set("Location", fmt.Sprintf("/inventory/%d/%s", created.ProductID, created.Condition))
	web.RespondJSON(w, mLogger, http.StatusCreated, created)
}

// Update handles a full replace of an existing record's mutable attributes.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	productID, condition, ok := h.parseKey(w, r, mLogger)
	if !ok {
		return
	}
	var dto service.RecordUpdateDto
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		mLogger.ErrorContext(r.Context(), "Error decoding request body", "error", err)
		web.RespondError(w, mLogger, http.StatusBadRequest, "Invalid request body")
		return
	}
	if !h.validateStruct(w, r, mLogger, dto) {
		return
	}

	updated, err := h.service.Update(r.Context(), productID, condition, dto)
	if err != nil {
		h.respondServiceError(w, r, mLogger, err)
		return
	}
	mLogger.InfoContext(r.Context(), "Inventory record updated successfully",
		"product_id", productID, "condition", condition)
	web.RespondJSON(w, mLogger, http.StatusOK, updated)
}

// AdjustQuantity applies an add/sub quantity delta to an existing record.
func (h *Handler) AdjustQuantity(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	productID, condition, ok := h.parseKey(w, r, mLogger)
	if !ok {
		return
	}
	operation := chi.URLParam(r, "operation")
	amount, err := model.ParseQuantity(chi.URLParam(r, "amount"))
	if err != nil {
		web.RespondError(w, mLogger, http.StatusBadRequest,
			"Wrong amount parameter specified. Amount can only be a positive whole number, e.g. /inventory/123/new/add/1")
		return
	}

	mLogger.DebugContext(r.Context(), "Received request to adjust quantity",
		"product_id", productID, "condition", condition, "operation", operation, "amount", amount)
	updated, err := h.service.AdjustQuantity(r.Context(), productID, condition, operation, amount)
	if err != nil {
		h.respondServiceError(w, r, mLogger, err)
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, updated)
}

// Restock adds a positive amount from the request body to an existing record's quantity.
func (h *Handler) Restock(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	productID, condition, ok := h.parseKey(w, r, mLogger)
	if !ok {
		return
	}
	var dto service.RestockDto
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		mLogger.ErrorContext(r.Context(), "Error decoding request body", "error", err)
		web.RespondError(w, mLogger, http.StatusBadRequest, "Invalid request body")
		return
	}
	if !h.validateStruct(w, r, mLogger, dto) {
		return
	}

	updated, err := h.service.Restock(r.Context(), productID, condition, *dto.Amount)
	if err != nil {
		h.respondServiceError(w, r, mLogger, err)
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, updated)
}

// Activate marks an existing record as orderable.
func (h *Handler) Activate(w http.ResponseWriter, r *http.Request) {
	h.setAvailability(w, r, h.service.Activate)
}

// Deactivate marks an existing record as not orderable.
func (h *Handler) Deactivate(w http.ResponseWriter, r *http.Request) {
	h.setAvailability(w, r, h.service.Deactivate)
}

// Delete removes a record. Deleting an absent key is a no-op success.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	productID, condition, ok := h.parseKey(w, r, mLogger)
	if !ok {
		return
	}

	mLogger.DebugContext(r.Context(), "Received request to delete record", "product_id", productID, "condition", condition)
	if err := h.service.Delete(r.Context(), productID, condition); err != nil {
		h.respondServiceError(w, r, mLogger, err)
		return
	}
	mLogger.InfoContext(r.Context(), "Inventory record deleted", "product_id", productID, "condition", condition)
	w.WriteHeader(http.StatusNoContent)
}

// HealthCheck is a simple health check endpoint.
func (h *Handler) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) setAvailability(w http.ResponseWriter, r *http.Request,
	transition func(ctx context.Context, productID int64, condition string) (*service.RecordDto, error)) {
	mLogger := h.loggerWithReqID(r)
	productID, condition, ok := h.parseKey(w, r, mLogger)
	if !ok {
		return
	}

	updated, err := transition(r.Context(), productID, condition)
	if err != nil {
		h.respondServiceError(w, r, mLogger, err)
		return
	}
	mLogger.InfoContext(r.Context(), "Inventory record availability updated",
		"product_id", productID, "condition", condition, "available", updated.Available)
	web.RespondJSON(w, mLogger, http.StatusOK, updated)
}

// parseProductID extracts and validates the product id path parameter.
func (h *Handler) parseProductID(w http.ResponseWriter, r *http.Request, logger *slog.Logger) (int64, bool) {
	productID, err := model.ParseProductID(chi.URLParam(r, "productID"))
	if err != nil {
		web.RespondError(w, logger, http.StatusBadRequest, err.Error())
		return 0, false
	}
	return productID, true
}

// parseKey extracts and validates the (product_id, condition) path parameters.
func (h *Handler) parseKey(w http.ResponseWriter, r *http.Request, logger *slog.Logger) (int64, string, bool) {
	productID, ok := h.parseProductID(w, r, logger)
	if !ok {
		return 0, "", false
	}
	condition, err := model.ParseCondition(chi.URLParam(r, "condition"))
	if err != nil {
		web.RespondError(w, logger, http.StatusBadRequest, err.Error())
		return 0, "", false
	}
	return productID, condition, true
}

// parseFilter builds the optional equality filter from query parameters.
func (h *Handler) parseFilter(w http.ResponseWriter, r *http.Request, logger *slog.Logger) (store.Filter, bool) {
	var filter store.Filter
	query := r.URL.Query()
	if raw := query.Get("condition"); raw != "" {
		condition, err := model.ParseCondition(raw)
		if err != nil {
			web.RespondError(w, logger, http.StatusBadRequest, err.Error())
			return filter, false
		}
		filter.Condition = &condition
	}
	if raw := query.Get("available"); raw != "" {
		available, err := model.ParseAvailable(raw)
		if err != nil {
			web.RespondError(w, logger, http.StatusBadRequest, err.Error())
			return filter, false
		}
		filter.Available = &available
	}
	if raw := query.Get("quantity"); raw != "" {
		quantity, err := model.ParseQuantity(raw)
		if err != nil {
			web.RespondError(w, logger, http.StatusBadRequest, err.Error())
			return filter, false
		}
		filter.Quantity = &quantity
	}
	return filter, true
}

// validateStruct runs struct-tag validation and writes a 400 on failure.
func (h *Handler) validateStruct(w http.ResponseWriter, r *http.Request, logger *slog.Logger, dto any) bool {
	if err := h.validate.Struct(dto); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			failures := make([]string, 0, len(validationErrors))
			for _, fieldErr := range validationErrors {
				failures = append(failures, fmt.Sprintf("%s failed on rule: %s", fieldErr.Field(), fieldErr.Tag()))
			}
			logger.WarnContext(r.Context(), "Validation errors occurred", "errors", failures)
			web.RespondError(w, logger, http.StatusBadRequest, strings.Join(failures, "; "))
			return false
		}
		logger.ErrorContext(r.Context(), "Error validating request body", "error", err)
		web.RespondError(w, logger, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

// respondServiceError maps service/store errors to the HTTP error vocabulary.
func (h *Handler) respondServiceError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	var vErr *model.ValidationError
	switch {
	case errors.As(err, &vErr):
		logger.WarnContext(r.Context(), "Validation failure", "error", vErr)
		web.RespondError(w, logger, http.StatusBadRequest, vErr.Error())
	case errors.Is(err, inverrors.ErrNotFound):
		logger.WarnContext(r.Context(), "Inventory record not found", "error", err)
		web.RespondError(w, logger, http.StatusNotFound, inverrors.ErrNotFound.Error())
	case errors.Is(err, inverrors.ErrConflict):
		logger.WarnContext(r.Context(), "Inventory record conflict", "error", err)
		web.RespondError(w, logger, http.StatusConflict, inverrors.ErrConflict.Error())
	case errors.Is(err, inverrors.ErrInsufficientStock):
		logger.WarnContext(r.Context(), "Stock guard violation", "error", err)
		web.RespondError(w, logger, http.StatusForbidden, inverrors.ErrInsufficientStock.Error())
	case errors.Is(err, inverrors.ErrOutOfStock):
		logger.WarnContext(r.Context(), "Availability guard violation", "error", err)
		web.RespondError(w, logger, http.StatusForbidden, inverrors.ErrOutOfStock.Error())
	case errors.Is(err, inverrors.ErrNonPositiveAmount):
		logger.WarnContext(r.Context(), "Restock guard violation", "error", err)
		web.RespondError(w, logger, http.StatusForbidden, inverrors.ErrNonPositiveAmount.Error())
	case errors.Is(err, inverrors.ErrStoreUnavailable):
		logger.ErrorContext(r.Context(), "Inventory store unavailable", "error", err)
		web.RespondError(w, logger, http.StatusInternalServerError, inverrors.ErrStoreUnavailable.Error())
	default:
		logger.ErrorContext(r.Context(), "Unexpected error", "error", err)
		web.RespondError(w, logger, http.StatusInternalServerError, "An unexpected error occurred")
	}
}

// loggerWithReqID creates a logger with the request ID from the context.
func (h *Handler) loggerWithReqID(r *http.Request) *slog.Logger {
	reqID, _ := web.GetRequestID(r.Context())
	return h.logger.With("request_id", reqID)
}
