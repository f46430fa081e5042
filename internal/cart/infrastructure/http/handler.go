package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/dmehra2102/storefront/internal/cart/application"
	"github.com/dmehra2102/storefront/internal/cart/domain"
	"github.com/dmehra2102/storefront/pkg/apperr"
	"github.com/dmehra2102/storefront/pkg/respond"
)

type Handler struct {
	log     *slog.Logger
	service *application.Service
}

func NewHandler(log *slog.Logger, service *application.Service) *Handler {
	return &Handler{log: log, service: service}
}

type cartView struct {
	Items     []domain.LineItem `json:"items"`
	Total     decimal.Decimal   `json:"total"`
	ItemCount int               `json:"itemCount"`
}

type addItemReq struct {
	ProductID     int             `json:"productId"`
	ProductName   string          `json:"productName"`
	Price         decimal.Decimal `json:"price"`
	Quantity      int             `json:"quantity"`
	SelectedSize  string          `json:"selectedSize"`
	SelectedColor string          `json:"selectedColor"`
	Image         string          `json:"image"`
}

type updateQuantityReq struct {
	Quantity int `json:"quantity"`
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Get("/", h.getCart)
	r.Delete("/", h.clearCart)
	r.Get("/total", h.getTotal)
	r.Get("/count", h.getCount)
	r.Post("/items", h.addItem)
	r.Patch("/items/{id}", h.updateQuantity)
	r.Delete("/items/{id}", h.removeItem)
	return r
}

func (h *Handler) view(items []domain.LineItem) cartView {
	c := domain.Cart(items)
	return cartView{Items: items, Total: c.Total(), ItemCount: c.ItemCount()}
}

func (h *Handler) getCart(w http.ResponseWriter, r *http.Request) {
	respond.OK(w, h.view(h.service.Get(r.Context())))
}

func (h *Handler) addItem(w http.ResponseWriter, r *http.Request) {
	var req addItemReq
	if err := respond.Decode(r.Body, &req); err != nil {
		respond.Error(w, h.log, err)
		return
	}
	var missing []string
	if req.ProductID <= 0 {
		missing = append(missing, "productId")
	}
	if req.Quantity < 1 {
		missing = append(missing, "quantity")
	}
	// prices are whole cents
	if req.Price.IsNegative() || !req.Price.Equal(req.Price.Round(2)) {
		missing = append(missing, "price")
	}
	if len(missing) > 0 {
		respond.Error(w, h.log, apperr.Validation("invalid cart item", missing...))
		return
	}

	items := h.service.Add(r.Context(), domain.LineItem{
		ProductID:     req.ProductID,
		ProductName:   req.ProductName,
		Price:         req.Price,
		Quantity:      req.Quantity,
		SelectedSize:  req.SelectedSize,
		SelectedColor: req.SelectedColor,
		Image:         req.Image,
	})
	respond.JSON(w, http.StatusCreated, h.view(items))
}

func (h *Handler) updateQuantity(w http.ResponseWriter, r *http.Request) {
	var req updateQuantityReq
	if err := respond.Decode(r.Body, &req); err != nil {
		respond.Error(w, h.log, err)
		return
	}
	respond.OK(w, h.view(h.service.UpdateQuantity(r.Context(), chi.URLParam(r, "id"), req.Quantity)))
}

func (h *Handler) removeItem(w http.ResponseWriter, r *http.Request) {
	respond.OK(w, h.view(h.service.Remove(r.Context(), chi.URLParam(r, "id"))))
}

func (h *Handler) clearCart(w http.ResponseWriter, r *http.Request) {
	respond.OK(w, h.view(h.service.Clear(r.Context())))
}

func (h *Handler) getTotal(w http.ResponseWriter, r *http.Request) {
	respond.OK(w, h.service.Total(r.Context()))
}

func (h *Handler) getCount(w http.ResponseWriter, r *http.Request) {
	respond.OK(w, h.service.ItemCount(r.Context()))
}
