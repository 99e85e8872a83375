package handlers

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/BruksfildServices01/clinic-pos/internal/audit"
	domain "github.com/BruksfildServices01/clinic-pos/internal/domain/order"
	"github.com/BruksfildServices01/clinic-pos/internal/httperr"
	"github.com/BruksfildServices01/clinic-pos/internal/httpresp"
	"github.com/BruksfildServices01/clinic-pos/internal/report"
	"github.com/BruksfildServices01/clinic-pos/internal/timezone"
	"github.com/BruksfildServices01/clinic-pos/internal/usecase/pos"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// OrderHandler is the point-of-sale API.
type OrderHandler struct {
	repo domain.Repository
	log  logrus.FieldLogger

	checkout *pos.Checkout
	refund   *pos.Refund
	get      *pos.GetOrder
}

// NewOrderHandler accepts a nil gateway and a nil completer.
func NewOrderHandler(
	repo domain.Repository,
	gateway pos.PaymentGateway,
	completer pos.AppointmentCompleter,
	dispatcher *audit.Dispatcher,
	log logrus.FieldLogger,
) *OrderHandler {
	return &OrderHandler{
		repo:     repo,
		log:      log,
		checkout: pos.NewCheckout(repo, gateway, completer, dispatcher),
		refund:   pos.NewRefund(repo, dispatcher),
		get:      pos.NewGetOrder(repo),
	}
}

// --------- Requests ---------

type OrderItemRequest struct {
	ProductID     *uint `json:"product_id"`
	ServiceID     *uint `json:"service_id"`
	AppointmentID *uint `json:"appointment_id"`
	Quantity      int   `json:"quantity"`
}

type CheckoutRequest struct {
	ClientID      *uint              `json:"client_id"`
	PaymentMethod string             `json:"payment_method"`
	Notes         string             `json:"notes"`
	Items         []OrderItemRequest `json:"items" binding:"required"`
}

// --------- Handlers ---------

func (h *OrderHandler) Checkout(c *gin.Context) {
	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", err.Error())
		return
	}

	in := pos.CheckoutInput{
		ClientID:      req.ClientID,
		PaymentMethod: req.PaymentMethod,
		Notes:         req.Notes,
	}
	for _, it := range req.Items {
		qty := it.Quantity
		if qty == 0 {
			qty = 1
		}
		in.Lines = append(in.Lines, domain.Line{
			ProductID:     it.ProductID,
			ServiceID:     it.ServiceID,
			AppointmentID: it.AppointmentID,
			Quantity:      qty,
		})
	}

	res, err := h.checkout.Execute(c.Request.Context(), currentActor(c), in)
	if err != nil {
		h.fail(c, err)
		return
	}

	body := gin.H{"order": res.Order}
	if res.PaymentLinkError != nil {
		h.log.WithError(res.PaymentLinkError).WithField("order_id", res.Order.ID).Warn("payment link failed")
		body["payment_link_error"] = "The payment link could not be created. The order is pending."
	}
	httpresp.Created(c, body)
}

func (h *OrderHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		httperr.NotFound(c, "order_not_found", httperr.Message("order_not_found"))
		return
	}

	o, err := h.get.Execute(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	httpresp.OK(c, o)
}

func (h *OrderHandler) Refund(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		httperr.NotFound(c, "order_not_found", httperr.Message("order_not_found"))
		return
	}

	o, err := h.refund.Execute(c.Request.Context(), currentActor(c), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	httpresp.OK(c, o)
}

// List returns orders created between ?from and ?to (inclusive clinic
// days). Both default to today.
func (h *OrderHandler) List(c *gin.Context) {
	from, to, ok := dayRange(c)
	if !ok {
		return
	}

	orders, err := h.repo.ListOrders(c.Request.Context(), from, to)
	if err != nil {
		h.fail(c, err)
		return
	}
	httpresp.List(c, orders)
}

// SalesReport streams the same range as an xlsx workbook.
func (h *OrderHandler) SalesReport(c *gin.Context) {
	from, to, ok := dayRange(c)
	if !ok {
		return
	}

	orders, err := h.repo.ListOrders(c.Request.Context(), from, to)
	if err != nil {
		h.fail(c, err)
		return
	}

	name := fmt.Sprintf("sales_%s_%s.xlsx", from.Format(time.DateOnly), to.AddDate(0, 0, -1).Format(time.DateOnly))
	c.Header("Content-Type", xlsxContentType)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	if err := report.WriteSales(c.Writer, orders, timezone.Clinic()); err != nil {
		h.log.WithError(err).Error("failed to write sales report")
	}
}

func dayRange(c *gin.Context) (time.Time, time.Time, bool) {
	today := timezone.Now()
	from := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, today.Location())
	to := from

	if raw := c.Query("from"); raw != "" {
		d, err := timezone.ParseDate(raw)
		if err != nil {
			httperr.BadRequest(c, "invalid_date", "Date must be YYYY-MM-DD.")
			return time.Time{}, time.Time{}, false
		}
		from = d
	}
	if raw := c.Query("to"); raw != "" {
		d, err := timezone.ParseDate(raw)
		if err != nil {
			httperr.BadRequest(c, "invalid_date", "Date must be YYYY-MM-DD.")
			return time.Time{}, time.Time{}, false
		}
		to = d
	}
	if to.Before(from) {
		httperr.BadRequest(c, "invalid_date_range", "The end date is before the start date.")
		return time.Time{}, time.Time{}, false
	}
	return from, to.AddDate(0, 0, 1), true
}

func (h *OrderHandler) fail(c *gin.Context, err error) {
	if httperr.Code(err) == "" {
		h.log.WithError(err).WithField("path", c.Request.URL.Path).Error("order request failed")
	}
	httperr.Business(c, err)
}
