package http

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/dmehra2102/storefront/internal/wishlist/application"
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

type wishlistView struct {
	ProductIDs []int `json:"productIds"`
	Count      int   `json:"count"`
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Get("/", h.list)
	r.Delete("/", h.clear)
	r.Get("/count", h.count)
	r.Get("/{productId}", h.contains)
	r.Post("/{productId}", h.add)
	r.Delete("/{productId}", h.remove)
	return r
}

func productID(r *http.Request) (int, error) {
	id, err := strconv.Atoi(chi.URLParam(r, "productId"))
	if err != nil || id <= 0 {
		return 0, apperr.Validation("invalid product id", "productId")
	}
	return id, nil
}

func (h *Handler) view(ids []int) wishlistView {
	return wishlistView{ProductIDs: ids, Count: len(ids)}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	respond.OK(w, h.view(h.service.All(r.Context())))
}

func (h *Handler) count(w http.ResponseWriter, r *http.Request) {
	respond.OK(w, h.service.Count(r.Context()))
}

func (h *Handler) contains(w http.ResponseWriter, r *http.Request) {
	id, err := productID(r)
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}
	respond.OK(w, map[string]bool{"inWishlist": h.service.Contains(r.Context(), id)})
}

func (h *Handler) add(w http.ResponseWriter, r *http.Request) {
	id, err := productID(r)
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}
	status := http.StatusOK
	if h.service.Add(r.Context(), id) {
		status = http.StatusCreated
	}
	respond.JSON(w, status, h.view(h.service.All(r.Context())))
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	id, err := productID(r)
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}
	h.service.Remove(r.Context(), id)
	respond.OK(w, h.view(h.service.All(r.Context())))
}

func (h *Handler) clear(w http.ResponseWriter, r *http.Request) {
	h.service.Clear(r.Context())
	respond.OK(w, h.view([]int{}))
}
