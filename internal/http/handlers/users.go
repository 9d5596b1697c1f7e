package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/hongminglow/videotube-be/internal/apierror"
	"github.com/hongminglow/videotube-be/internal/http/respond"
	"github.com/hongminglow/videotube-be/internal/metrics"
	"github.com/hongminglow/videotube-be/internal/models"
	"github.com/hongminglow/videotube-be/internal/models/dto"
	"github.com/hongminglow/videotube-be/internal/registration"
)

//go:generate mockgen -source=users.go -destination=mocks/mock_registrar.go -package=mocks Registrar

// Registrar creates users from parsed register requests.
type Registrar interface {
	Register(ctx context.Context, req dto.RegisterRequest) (models.PublicUser, error)
}

// UserHandler owns the user registration endpoint.
type UserHandler struct {
	registrar Registrar
	uploads   UploadOptions
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// NewUserHandler constructs the handler.
func NewUserHandler(registrar Registrar, uploads UploadOptions, m *metrics.Metrics, logger *slog.Logger) *UserHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &UserHandler{registrar: registrar, uploads: uploads, metrics: m, logger: logger}
}

// Register attaches user routes to the router.
func (h *UserHandler) Register(r chi.Router) {
	r.Post("/register", h.handleRegister)
}

func (h *UserHandler) handleRegister(w http.ResponseWriter, r *http.Request) {
	if h.uploads.MaxBytes > 0 {
		if r.ContentLength > h.uploads.MaxBytes {
			h.observe(metrics.OutcomeValidation)
			respond.Error(w, http.StatusRequestEntityTooLarge, "Request body too large")
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, h.uploads.MaxBytes)
	}

	req, err := parseRegisterRequest(r, h.uploads.TempDir)
	defer removeTempFiles(req.Files)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.observe(metrics.OutcomeValidation)
			respond.Error(w, http.StatusRequestEntityTooLarge, "Request body too large")
			return
		}
		if errors.Is(err, errMalformedBody) {
			h.observe(metrics.OutcomeValidation)
			respond.Error(w, http.StatusBadRequest, "Malformed request body")
			return
		}
		h.observe(metrics.OutcomeError)
		h.logger.ErrorContext(r.Context(), "register: read request failed",
			"request_id", chimw.GetReqID(r.Context()), "error", err)
		respond.Error(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	user, err := h.registrar.Register(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.observe(metrics.OutcomeCreated)
	respond.JSON(w, http.StatusCreated, registration.MsgRegistered, user)
}

// writeError turns a registration failure into the error envelope. Only
// server-side failures are logged.
func (h *UserHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	reqID := chimw.GetReqID(r.Context())
	apiErr, ok := apierror.As(err)
	if !ok {
		h.observe(metrics.OutcomeError)
		h.logger.ErrorContext(r.Context(), "register: unexpected failure", "request_id", reqID, "error", err)
		respond.Error(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	h.observe(outcomeFor(apiErr.Kind))
	if apiErr.Status >= http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), "register failed", "request_id", reqID, "kind", apiErr.Kind, "error", err)
	} else if err != error(apiErr) {
		// A client error with extra context attached, e.g. a failed asset cleanup.
		h.logger.WarnContext(r.Context(), "register rejected", "request_id", reqID, "kind", apiErr.Kind, "error", err)
	}
	respond.Error(w, apiErr.Status, apiErr.Message)
}

func (h *UserHandler) observe(outcome string) {
	if h.metrics != nil {
		h.metrics.ObserveRegistration(outcome)
	}
}

func outcomeFor(kind apierror.Kind) string {
	switch kind {
	case apierror.KindValidation:
		return metrics.OutcomeValidation
	case apierror.KindConflict:
		return metrics.OutcomeConflict
	case apierror.KindUpload:
		return metrics.OutcomeUpload
	default:
		return metrics.OutcomeInternal
	}
}
