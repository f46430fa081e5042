package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/dmehra2102/storefront/internal/checkout/application"
	"github.com/dmehra2102/storefront/internal/checkout/domain"
	orderdomain "github.com/dmehra2102/storefront/internal/order/domain"
	"github.com/dmehra2102/storefront/pkg/idempotency"
	"github.com/dmehra2102/storefront/pkg/respond"
)

type Handler struct {
	log      *slog.Logger
	sessions *application.Sessions
	idem     idempotency.Keeper
	tracer   trace.Tracer
}

func NewHandler(log *slog.Logger, sessions *application.Sessions, idem idempotency.Keeper) *Handler {
	return &Handler{log: log, sessions: sessions, idem: idem, tracer: otel.Tracer("checkout-http")}
}

type paymentView struct {
	CardName   string `json:"cardName"`
	ExpiryDate string `json:"expiryDate"`
	Last4      string `json:"last4"`
}

// stateView never carries the card number or cvv.
type stateView struct {
	ID         string              `json:"id"`
	Step       domain.Step         `json:"step"`
	StepName   string              `json:"stepName"`
	Shipping   orderdomain.Address `json:"shipping"`
	Payment    paymentView         `json:"payment"`
	Processing bool                `json:"processing"`
	Order      *orderdomain.Order  `json:"order,omitempty"`
}

func view(id string, s domain.State) stateView {
	return stateView{
		ID:       id,
		Step:     s.Step,
		StepName: s.Step.String(),
		Shipping: s.Shipping,
		Payment: paymentView{
			CardName:   s.Payment.CardName,
			ExpiryDate: s.Payment.ExpiryDate,
			Last4:      s.Payment.Last4(),
		},
		Processing: s.Processing,
		Order:      s.Order,
	}
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Post("/", h.start)
	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.get)
		r.Delete("/", h.finish)
		r.Put("/shipping", h.shipping)
		r.Put("/payment", h.payment)
		r.Post("/back", h.back)
		r.Get("/review", h.review)
		r.Post("/place", h.place)
	})
	return r
}

func (h *Handler) wizard(w http.ResponseWriter, r *http.Request) (*application.Wizard, bool) {
	wz, err := h.sessions.Get(chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, h.log, err)
		return nil, false
	}
	return wz, true
}

func (h *Handler) start(w http.ResponseWriter, r *http.Request) {
	wz, err := h.sessions.Start(r.Context())
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}
	respond.JSON(w, http.StatusCreated, view(wz.ID(), wz.State()))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	if wz, ok := h.wizard(w, r); ok {
		respond.OK(w, view(wz.ID(), wz.State()))
	}
}

func (h *Handler) finish(w http.ResponseWriter, r *http.Request) {
	h.sessions.Finish(chi.URLParam(r, "id"))
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) shipping(w http.ResponseWriter, r *http.Request) {
	wz, ok := h.wizard(w, r)
	if !ok {
		return
	}
	var addr orderdomain.Address
	if err := respond.Decode(r.Body, &addr); err != nil {
		respond.Error(w, h.log, err)
		return
	}
	st, err := wz.SubmitShipping(addr)
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}
	respond.OK(w, view(wz.ID(), st))
}

func (h *Handler) payment(w http.ResponseWriter, r *http.Request) {
	wz, ok := h.wizard(w, r)
	if !ok {
		return
	}
	var p domain.PaymentInfo
	if err := respond.Decode(r.Body, &p); err != nil {
		respond.Error(w, h.log, err)
		return
	}
	st, err := wz.SubmitPayment(p)
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}
	respond.OK(w, view(wz.ID(), st))
}

func (h *Handler) back(w http.ResponseWriter, r *http.Request) {
	wz, ok := h.wizard(w, r)
	if !ok {
		return
	}
	st, err := wz.Back()
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}
	respond.OK(w, view(wz.ID(), st))
}

func (h *Handler) review(w http.ResponseWriter, r *http.Request) {
	wz, ok := h.wizard(w, r)
	if !ok {
		return
	}
	rv, err := wz.Review(r.Context())
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}
	respond.OK(w, rv)
}

// place accepts an Idempotency-Key so a client retrying after a lost
// response gets the original order instead of a second charge.
func (h *Handler) place(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "PlaceOrder")
	defer span.End()

	id := chi.URLParam(r, "id")
	key := r.Header.Get(idempotency.HeaderKey)
	if key != "" {
		key = idempotency.RequestKey("checkout:"+id, key)
	}
	result, replayed, err := idempotency.Once(ctx, h.idem, key, func(ctx context.Context) (string, error) {
		wz, err := h.sessions.Get(id)
		if err != nil {
			return "", err
		}
		o, err := wz.PlaceOrder(ctx)
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
	respond.JSON(w, http.StatusCreated, json.RawMessage(result))
}
