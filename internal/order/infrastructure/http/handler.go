package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/dmehra2102/storefront/internal/order/application"
	"github.com/dmehra2102/storefront/internal/order/domain"
	"github.com/dmehra2102/storefront/pkg/apperr"
	"github.com/dmehra2102/storefront/pkg/idempotency"
	"github.com/dmehra2102/storefront/pkg/respond"
)

var listParams = []string{"status", "search", "range"}

type Handler struct {
	log     *slog.Logger
	service *application.Service
	idem    idempotency.Keeper
	now     func() time.Time
	tracer  trace.Tracer
}

func NewHandler(log *slog.Logger, service *application.Service, idem idempotency.Keeper) *Handler {
	return &Handler{
		log:     log,
		service: service,
		idem:    idem,
		now:     time.Now,
		tracer:  otel.Tracer("order-http"),
	}
}

type updateStatusReq struct {
	Status string `json:"status"`
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Get("/", h.listOrders)
	r.Get("/{id}", h.getOrder)
	r.Get("/{id}/tracking", h.getTracking)
	r.Post("/{id}/status", h.updateStatus)
	return r
}

func orderID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Validation("invalid order id", "id")
	}
	return id, nil
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var unknown []string
	for k := range q {
		if !slices.Contains(listParams, k) {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) > 0 {
		slices.Sort(unknown)
		respond.Error(w, h.log, apperr.Validation("unknown filter", unknown...))
		return
	}

	since, err := domain.HistoryRange(q.Get("range")).Since(h.now())
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}
	orders, err := h.service.UserOrders(r.Context(), application.ListFilter{
		Status:      q.Get("status"),
		Search:      q.Get("search"),
		PlacedAfter: since,
	})
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}
	respond.OK(w, orders)
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	id, err := orderID(r)
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}
	o, err := h.service.Get(r.Context(), id)
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}
	respond.OK(w, o)
}

func (h *Handler) getTracking(w http.ResponseWriter, r *http.Request) {
	id, err := orderID(r)
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}
	t, err := h.service.Tracking(r.Context(), id)
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}
	respond.OK(w, t)
}

func (h *Handler) updateStatus(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "UpdateOrderStatus")
	defer span.End()

	id, err := orderID(r)
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}
	var req updateStatusReq
	if err := respond.Decode(r.Body, &req); err != nil {
		respond.Error(w, h.log, err)
		return
	}

	key := r.Header.Get(idempotency.HeaderKey)
	if key != "" {
		key = idempotency.RequestKey("order-status:"+strconv.FormatInt(id, 10), key)
	}
	result, replayed, err := idempotency.Once(ctx, h.idem, key, func(ctx context.Context) (string, error) {
		o, err := h.service.UpdateStatus(ctx, id, req.Status)
		if err != nil {
			return "", err
		}
		b, err := json.Marshal(o)
		return string(b), err
	})
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}
	if replayed {
		w.Header().Set("Idempotent-Replayed", "true")
	}
	respond.OK(w, json.RawMessage(result))
}
