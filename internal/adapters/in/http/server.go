// Package http exposes the order lifecycle over a JSON REST API built on echo.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"mensajero/internal/core/application/usecases/commands"
	"mensajero/internal/core/application/usecases/queries"
	"mensajero/internal/core/domain/model/kernel"
	"mensajero/internal/core/domain/model/order"

	"github.com/labstack/echo/v4"
	"github.com/oapi-codegen/runtime"
	openapi_types "github.com/oapi-codegen/runtime/types"
)

const archiveTimeout = 10 * time.Second

// Handlers groups the use cases the server dispatches to. ArchiveOrder is
// optional; without it delivered orders are left for another process.
type Handlers struct {
	CreateOrder    commands.CreateOrderCommandHandler
	ClaimOrder     commands.ClaimOrderCommandHandler
	MarkInTransit  commands.MarkInTransitCommandHandler
	MarkDelivered  commands.MarkDeliveredCommandHandler
	ReportLocation commands.ReportLocationCommandHandler
	ArchiveOrder   *commands.ArchiveOrderCommandHandler
	GetOrder       queries.GetOrderQueryHandler
	ListOrders     queries.ListOrdersByStatusQueryHandler
}

// Server maps HTTP requests onto command and query handlers.
type Server struct {
	h         Handlers
	logger    *slog.Logger
	archivals sync.WaitGroup
}

func NewServer(h Handlers, logger *slog.Logger) *Server {
	return &Server{
		h:      h,
		logger: logger.With("component", "http_server"),
	}
}

// WaitArchivals blocks until every archival started by a delivery finished.
func (s *Server) WaitArchivals() {
	s.archivals.Wait()
}

// Health handles GET /health.
func (s *Server) Health(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Healthy")
}

// CreateOrder handles POST /api/v1/orders.
func (s *Server) CreateOrder(ctx echo.Context) error {
	var body NewOrder
	if err := bindBody(ctx, &body); err != nil {
		return s.fail(ctx, err)
	}

	orderID, err := kernel.UUIDFromString(body.ID)
	if err != nil {
		return s.fail(ctx, invalidParam("id", err))
	}

	pickup, err := body.Pickup.toGeoPoint("pickup")
	if err != nil {
		return s.fail(ctx, err)
	}
	dropoff, err := body.Dropoff.toGeoPoint("dropoff")
	if err != nil {
		return s.fail(ctx, err)
	}

	cmd, err := commands.NewCreateOrderCommand(orderID, body.Items, pickup, dropoff)
	if err != nil {
		return s.fail(ctx, err)
	}

	o, err := s.h.CreateOrder.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		return s.fail(ctx, err)
	}

	return ctx.JSON(http.StatusCreated, toOrderFromAggregate(o))
}

// ListOrders handles GET /api/v1/orders?status=...
func (s *Server) ListOrders(ctx echo.Context) error {
	name := ctx.QueryParam("status")
	if name == "" {
		return s.fail(ctx, badRequest("status query parameter is required"))
	}

	status, err := order.ParseStatus(name)
	if err != nil {
		return s.fail(ctx, err)
	}

	query, err := queries.NewListOrdersByStatusQuery(status)
	if err != nil {
		return s.fail(ctx, err)
	}

	orders, err := s.h.ListOrders.Handle(ctx.Request().Context(), query)
	if err != nil {
		return s.fail(ctx, err)
	}

	response := make([]Order, len(orders))
	for i, o := range orders {
		response[i] = toOrder(o)
	}

	return ctx.JSON(http.StatusOK, response)
}

// GetOrder handles GET /api/v1/orders/{orderId}.
func (s *Server) GetOrder(ctx echo.Context) error {
	orderID, err := bindOrderID(ctx)
	if err != nil {
		return s.fail(ctx, err)
	}

	query, err := queries.NewGetOrderQuery(orderID)
	if err != nil {
		return s.fail(ctx, err)
	}

	o, err := s.h.GetOrder.Handle(ctx.Request().Context(), query)
	if err != nil {
		return s.fail(ctx, err)
	}

	return ctx.JSON(http.StatusOK, toOrder(o))
}

// ClaimOrder handles POST /api/v1/orders/{orderId}/claim.
func (s *Server) ClaimOrder(ctx echo.Context) error {
	orderID, err := bindOrderID(ctx)
	if err != nil {
		return s.fail(ctx, err)
	}

	var body ClaimOrder
	if err = bindBody(ctx, &body); err != nil {
		return s.fail(ctx, err)
	}

	courierID, err := kernel.UUIDFromString(body.CourierID)
	if err != nil {
		return s.fail(ctx, invalidParam("courierId", err))
	}

	cmd, err := commands.NewClaimOrderCommand(orderID, courierID)
	if err != nil {
		return s.fail(ctx, err)
	}

	o, err := s.h.ClaimOrder.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		return s.fail(ctx, err)
	}

	return ctx.JSON(http.StatusOK, toOrderFromAggregate(o))
}

// MarkInTransit handles POST /api/v1/orders/{orderId}/in-transit.
func (s *Server) MarkInTransit(ctx echo.Context) error {
	orderID, err := bindOrderID(ctx)
	if err != nil {
		return s.fail(ctx, err)
	}

	cmd, err := commands.NewMarkInTransitCommand(orderID)
	if err != nil {
		return s.fail(ctx, err)
	}

	o, err := s.h.MarkInTransit.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		return s.fail(ctx, err)
	}

	return ctx.JSON(http.StatusOK, toOrderFromAggregate(o))
}

// MarkDelivered handles POST /api/v1/orders/{orderId}/deliver. The response
// does not wait for archival.
func (s *Server) MarkDelivered(ctx echo.Context) error {
	orderID, err := bindOrderID(ctx)
	if err != nil {
		return s.fail(ctx, err)
	}

	cmd, err := commands.NewMarkDeliveredCommand(orderID)
	if err != nil {
		return s.fail(ctx, err)
	}

	o, err := s.h.MarkDelivered.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		return s.fail(ctx, err)
	}

	s.archiveInBackground(ctx.Request().Context(), orderID)
	return ctx.JSON(http.StatusOK, toOrderFromAggregate(o))
}

// ReportLocation handles POST /api/v1/orders/{orderId}/location.
func (s *Server) ReportLocation(ctx echo.Context) error {
	orderID, err := bindOrderID(ctx)
	if err != nil {
		return s.fail(ctx, err)
	}

	var body Location
	if err = bindBody(ctx, &body); err != nil {
		return s.fail(ctx, err)
	}

	point, err := body.toGeoPoint("")
	if err != nil {
		return s.fail(ctx, err)
	}

	cmd, err := commands.NewReportLocationCommand(orderID, point)
	if err != nil {
		return s.fail(ctx, err)
	}

	report, err := s.h.ReportLocation.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		return s.fail(ctx, err)
	}

	if report.Transitioned && report.Status == order.Delivered {
		s.archiveInBackground(ctx.Request().Context(), orderID)
	}
	return ctx.JSON(http.StatusOK, toLocationReport(report))
}

func (s *Server) archiveInBackground(ctx context.Context, orderID kernel.UUID) {
	if s.h.ArchiveOrder == nil {
		return
	}

	cmd, err := commands.NewArchiveOrderCommand(orderID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Cannot build archive command", "order_id", orderID.String(), "error", err)
		return
	}

	ctx = context.WithoutCancel(ctx)
	s.archivals.Add(1)
	go func() {
		defer s.archivals.Done()

		ctx, cancel := context.WithTimeout(ctx, archiveTimeout)
		defer cancel()

		if err := s.h.ArchiveOrder.Handle(ctx, cmd); err != nil {
			s.logger.WarnContext(ctx, "Archival failed, left for reconciliation",
				"order_id", orderID.String(), "error", err)
		}
	}()
}

// bindBody decodes and validates a request body. It writes nothing; a
// rejected body comes back as a 400 *echo.HTTPError for the caller to render.
func bindBody(ctx echo.Context, dst any) error {
	if err := ctx.Bind(dst); err != nil {
		return badRequest("Invalid request body")
	}
	if err := ctx.Validate(dst); err != nil {
		return badRequest(err.Error())
	}
	return nil
}

func bindOrderID(ctx echo.Context) (kernel.UUID, error) {
	var orderID openapi_types.UUID
	err := runtime.BindStyledParameterWithOptions("simple", "orderId", ctx.Param("orderId"), &orderID,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		return kernel.UUID{}, invalidParam("orderId", err)
	}

	return kernel.UUIDFromRaw(orderID)
}
