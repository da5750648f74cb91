package order

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/ehr/orders/internal/platform/auth"
	"github.com/ehr/orders/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	// Read endpoints – any clinical role
	readGroup := api.Group("", auth.RequireRole("admin", "physician", "nurse", "pharmacist"))
	readGroup.GET("/orders", h.ListOrders)
	readGroup.GET("/orders/number/:orderNumber", h.GetOrderByNumber)
	readGroup.GET("/orders/:id", h.GetOrder)
	readGroup.GET("/patients/:id/orders", h.ListPatientOrders)
	readGroup.GET("/orders/:id/status", h.GetOrderStatus)
	readGroup.GET("/orders/:id/chain", h.GetOrderChain)

	// Write endpoints – ordering roles only
	writeGroup := api.Group("", auth.RequireRole("admin", "physician"))
	writeGroup.POST("/orders", h.CreateOrder)
	writeGroup.POST("/orders/:id/discontinue", h.DiscontinueOrder)
	writeGroup.POST("/orders/:id/revise", h.ReviseOrder)
	writeGroup.POST("/orders/:id/renew", h.RenewOrder)
	writeGroup.DELETE("/orders/:id", h.VoidOrder)
}

func (h *Handler) CreateOrder(c echo.Context) error {
	var o Order
	if err := c.Bind(&o); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.Create(c.Request().Context(), &o); err != nil {
		return domainHTTPError(err)
	}
	return c.JSON(http.StatusCreated, o)
}

func (h *Handler) GetOrder(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	o, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "order not found")
	}
	return c.JSON(http.StatusOK, o)
}

// GetOrderByNumber resolves an order by its human-quotable order number, the
// identifier that appears on printed requisitions.
func (h *Handler) GetOrderByNumber(c echo.Context) error {
	orderNumber := c.Param("orderNumber")
	if orderNumber == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "order number is required")
	}
	o, err := h.svc.GetByOrderNumber(c.Request().Context(), orderNumber)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "order not found")
	}
	return c.JSON(http.StatusOK, o)
}

func (h *Handler) ListPatientOrders(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListByPatient(c.Request().Context(), patientID, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) ListOrders(c echo.Context) error {
	pg := pagination.FromContext(c)
	params := map[string]string{}
	for _, k := range []string{"patient", "concept", "order_type", "urgency", "action", "voided"} {
		if v := c.QueryParam(k); v != "" {
			params[k] = v
		}
	}
	items, total, err := h.svc.Search(c.Request().Context(), params, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

// GetOrderStatus evaluates the temporal predicates for an order. The optional
// `at` query parameter (RFC 3339) checks the order as of a past or future
// instant; without it the current time is used.
func (h *Handler) GetOrderStatus(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var at *time.Time
	if v := c.QueryParam("at"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid at parameter, want RFC 3339")
		}
		at = &t
	}
	status, err := h.svc.Status(c.Request().Context(), id, at)
	if err != nil {
		var ie *IntegrityError
		if errors.As(err, &ie) {
			return echo.NewHTTPError(http.StatusConflict, ie.Error())
		}
		return echo.NewHTTPError(http.StatusNotFound, "order not found")
	}
	return c.JSON(http.StatusOK, status)
}

func (h *Handler) GetOrderChain(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	chain, err := h.svc.Chain(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}
	return c.JSON(http.StatusOK, chain)
}

type discontinueRequest struct {
	ReasonCode     *string    `json:"reason_code,omitempty"`
	ReasonNonCoded *string    `json:"reason_non_coded,omitempty"`
	StopAt         *time.Time `json:"stop_at,omitempty"`
}

func (h *Handler) DiscontinueOrder(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req discontinueRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	dc, err := h.svc.Discontinue(c.Request().Context(), id, req.ReasonCode, req.ReasonNonCoded, req.StopAt)
	if err != nil {
		return domainHTTPError(err)
	}
	return c.JSON(http.StatusCreated, dc)
}

func (h *Handler) ReviseOrder(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	rev, err := h.svc.Revise(c.Request().Context(), id)
	if err != nil {
		return domainHTTPError(err)
	}
	return c.JSON(http.StatusCreated, rev)
}

func (h *Handler) RenewOrder(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	renewal, err := h.svc.Renew(c.Request().Context(), id)
	if err != nil {
		return domainHTTPError(err)
	}
	return c.JSON(http.StatusCreated, renewal)
}

type voidRequest struct {
	Reason string `json:"reason"`
}

func (h *Handler) VoidOrder(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req voidRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.Void(c.Request().Context(), id, req.Reason); err != nil {
		return domainHTTPError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// domainHTTPError maps service errors onto HTTP statuses. Integrity faults
// are 409 so data corruption is visible, not masked as a bad request.
func domainHTTPError(err error) *echo.HTTPError {
	var ie *IntegrityError
	switch {
	case errors.As(err, &ie):
		return echo.NewHTTPError(http.StatusConflict, ie.Error())
	case errors.Is(err, ErrNotActive):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	default:
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
}
