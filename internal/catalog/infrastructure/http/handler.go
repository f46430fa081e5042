package http

import (
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/dmehra2102/storefront/internal/catalog/application"
	"github.com/dmehra2102/storefront/internal/catalog/domain"
	"github.com/dmehra2102/storefront/pkg/apperr"
	"github.com/dmehra2102/storefront/pkg/respond"
)

var filterParams = []string{"category", "search", "sizes", "colors", "minPrice", "maxPrice", "sortBy"}

type Handler struct {
	log        *slog.Logger
	products   *application.Service
	categories *application.CategoryService
}

func NewHandler(log *slog.Logger, products *application.Service, categories *application.CategoryService) *Handler {
	return &Handler{log: log, products: products, categories: categories}
}

// ProductRoutes is mounted under /products.
func (h *Handler) ProductRoutes() http.Handler {
	r := chi.NewRouter()
	r.Get("/", h.list)
	r.Get("/featured", h.featured)
	r.Get("/categories", h.categoryNames)
	r.Get("/{id}", h.get)
	r.Get("/{id}/related", h.related)
	return r
}

// CategoryRoutes is mounted under /categories.
func (h *Handler) CategoryRoutes() http.Handler {
	r := chi.NewRouter()
	r.Get("/", h.listCategories)
	r.Post("/", h.createCategory)
	r.Get("/{id}", h.getCategory)
	return r
}

func parseFilter(q url.Values) (domain.Filter, error) {
	var unknown []string
	for k := range q {
		if !slices.Contains(filterParams, k) {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) > 0 {
		slices.Sort(unknown)
		return domain.Filter{}, apperr.Validation("unknown filter", unknown...)
	}

	f := domain.Filter{
		Category: q.Get("category"),
		Search:   q.Get("search"),
		Sizes:    listParam(q["sizes"]),
		Colors:   listParam(q["colors"]),
	}
	var bad []string
	for _, p := range []struct {
		name string
		dst  *decimal.NullDecimal
	}{{"minPrice", &f.MinPrice}, {"maxPrice", &f.MaxPrice}} {
		raw := q.Get(p.name)
		if raw == "" {
			continue
		}
		d, err := decimal.NewFromString(raw)
		if err != nil {
			bad = append(bad, p.name)
			continue
		}
		*p.dst = decimal.NewNullDecimal(d)
	}
	if len(bad) > 0 {
		return domain.Filter{}, apperr.Validation("invalid price bound", bad...)
	}
	sortBy, err := domain.ParseSortOrder(q.Get("sortBy"))
	if err != nil {
		return domain.Filter{}, err
	}
	f.SortBy = sortBy
	return f, nil
}

// listParam accepts both repeated parameters and comma separated values.
func listParam(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func pathID(r *http.Request) (int, error) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		return 0, apperr.Validation("invalid id", "id")
	}
	return id, nil
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r.URL.Query())
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}
	products, err := h.products.List(r.Context(), f)
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}
	respond.OK(w, products)
}

func (h *Handler) featured(w http.ResponseWriter, r *http.Request) {
	products, err := h.products.Featured(r.Context())
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}
	respond.OK(w, products)
}

func (h *Handler) categoryNames(w http.ResponseWriter, r *http.Request) {
	names, err := h.products.Categories(r.Context())
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}
	respond.OK(w, names)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}
	p, err := h.products.Get(r.Context(), id)
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}
	respond.OK(w, p)
}

func (h *Handler) related(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if limit, err = strconv.Atoi(raw); err != nil || limit < 1 {
			respond.Error(w, h.log, apperr.Validation("invalid limit", "limit"))
			return
		}
	}
	products, err := h.products.Related(r.Context(), id, limit)
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}
	respond.OK(w, products)
}

func (h *Handler) listCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := h.categories.List(r.Context())
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}
	respond.OK(w, cats)
}

func (h *Handler) getCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}
	c, err := h.categories.Get(r.Context(), id)
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}
	respond.OK(w, c)
}

type createCategoryReq struct {
	Name          string   `json:"name"`
	Subcategories []string `json:"subcategories"`
}

func (h *Handler) createCategory(w http.ResponseWriter, r *http.Request) {
	var req createCategoryReq
	if err := respond.Decode(r.Body, &req); err != nil {
		respond.Error(w, h.log, err)
		return
	}
	c, err := h.categories.Create(r.Context(), req.Name, req.Subcategories)
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}
	respond.JSON(w, http.StatusCreated, c)
}
