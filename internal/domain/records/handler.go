package records

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/carelog/carelog/pkg/pagination"
)

type Handler struct {
	svc    *Service
	logger zerolog.Logger
}

func NewHandler(svc *Service, logger zerolog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("/patients", h.CreatePatient)
	g.GET("/patients", h.ListPatients)
	g.GET("/patients/:id", h.GetPatient)
}

// errorBody is the wire shape of every non-2xx response. The error field
// discriminates the taxonomy; storage causes are never serialized into it.
type errorBody struct {
	Error  string `json:"error"`
	Field  string `json:"field,omitempty"`
	Reason string `json:"reason,omitempty"`
}

func (h *Handler) CreatePatient(c echo.Context) error {
	var req CreatePatientRequest
	if verr := decodeCreateRequest(c, &req); verr != nil {
		return h.writeError(c, verr)
	}
	rec, err := h.svc.CreatePatient(c.Request().Context(), req)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, rec)
}

func (h *Handler) ListPatients(c echo.Context) error {
	recs, err := h.svc.ListPatients(c.Request().Context())
	if err != nil {
		return h.writeError(c, err)
	}
	pg := pagination.FromContext(c)
	return c.JSON(http.StatusOK, pagination.Window(pg, recs))
}

func (h *Handler) GetPatient(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return h.writeError(c, &ValidationError{Field: "id", Reason: "must be an integer"})
	}
	rec, err := h.svc.GetPatient(c.Request().Context(), id)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, rec)
}

// decodeCreateRequest decodes strictly: unknown keys (a caller-supplied id
// among them) and wrong primitive types are structural errors.
func decodeCreateRequest(c echo.Context, req *CreatePatientRequest) *ValidationError {
	dec := json.NewDecoder(c.Request().Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(req); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return &ValidationError{Field: typeErr.Field, Reason: "must be of type " + typeErr.Type.String()}
		}
		if msg := strings.TrimPrefix(err.Error(), "json: "); strings.HasPrefix(msg, "unknown field") {
			return &ValidationError{Field: "body", Reason: msg}
		}
		return &ValidationError{Field: "body", Reason: "malformed JSON payload"}
	}
	return nil
}

func (h *Handler) writeError(c echo.Context, err error) error {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return c.JSON(http.StatusUnprocessableEntity, errorBody{
			Error:  "validation_error",
			Field:  verr.Field,
			Reason: verr.Reason,
		})
	}
	if errors.Is(err, ErrNotFound) {
		return c.JSON(http.StatusNotFound, errorBody{
			Error:  "not_found",
			Reason: "no patient record with that id",
		})
	}
	rid, _ := c.Get("request_id").(string)
	h.logger.Error().
		Err(err).
		Str("request_id", rid).
		Str("error_type", "storage_unavailable").
		Msg("storage failure")
	return c.JSON(http.StatusInternalServerError, errorBody{Error: "storage_unavailable"})
}
