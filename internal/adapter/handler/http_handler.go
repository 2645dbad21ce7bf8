package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/minimall/api/internal/core/domain"
	"github.com/minimall/api/internal/core/service"
)

type HTTPHandler struct {
	orders  *service.OrderService
	catalog *service.CatalogService
	logger  *zap.Logger
}

func NewHTTPHandler(orders *service.OrderService, catalog *service.CatalogService, logger *zap.Logger) *HTTPHandler {
	return &HTTPHandler{
		orders:  orders,
		catalog: catalog,
		logger:  logger.Named("http"),
	}
}

func (h *HTTPHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(h.requestLogger)

	r.Get("/health", h.HealthCheck)

	r.Route("/api", func(r chi.Router) {
		r.Get("/items", h.ListItems)
		r.Get("/items/{itemID}", h.GetItem)
		r.Get("/items/{itemID}/options", h.ListOptions)

		r.Group(func(r chi.Router) {
			r.Use(WithMember)
			r.Post("/orders", h.CreateOrder)
			r.Get("/orders", h.ListOrders)
			r.Get("/orders/{orderID}", h.GetOrder)
			r.Delete("/orders/{orderID}", h.CancelOrder)

			r.With(RequireAdmin).Patch("/orders/{orderID}/status", h.UpdateOrderStatus)
		})
	})

	return r
}

type orderLineRequest struct {
	ItemID   int64 `json:"item_id"`
	OptionID int64 `json:"option_id"`
	Quantity int64 `json:"quantity"`
}

type createOrderRequest struct {
	Lines []orderLineRequest `json:"lines"`
}

type orderItemResponse struct {
	ItemID   int64 `json:"item_id"`
	OptionID int64 `json:"option_id"`
	Quantity int64 `json:"quantity"`
	Price    int64 `json:"price"`
}

type orderResponse struct {
	OrderID    string              `json:"order_id"`
	MemberID   int64               `json:"member_id"`
	Status     string              `json:"status"`
	TotalPrice int64               `json:"total_price"`
	Items      []orderItemResponse `json:"items"`
	CreatedAt  time.Time           `json:"created_at"`
}

type itemResponse struct {
	ItemID      int64     `json:"item_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	BasePrice   int64     `json:"base_price"`
	Status      string    `json:"status"`
	Thumbnail   string    `json:"thumbnail,omitempty"`
	OpenAt      time.Time `json:"open_at"`
}

type optionResponse struct {
	OptionID    int64  `json:"option_id"`
	ItemID      int64  `json:"item_id"`
	Description string `json:"description"`
	OptionPrice int64  `json:"option_price"`
	Stock       int64  `json:"stock"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Stock   *int64 `json:"stock,omitempty"`
}

func (h *HTTPHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", "invalid request body")
		return
	}

	lines := make([]domain.OrderLine, 0, len(req.Lines))
	for _, ln := range req.Lines {
		lines = append(lines, domain.OrderLine{ItemID: ln.ItemID, OptionID: ln.OptionID, Quantity: ln.Quantity})
	}

	member := memberFrom(r.Context())
	order, err := h.orders.CreateOrder(r.Context(), member.ID, lines)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toOrderResponse(order))
}

func (h *HTTPHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.orders.GetOrder(r.Context(), memberFrom(r.Context()), chi.URLParam(r, "orderID"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(order))
}

func (h *HTTPHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	member := memberFrom(r.Context())
	memberID, _ := strconv.ParseInt(r.URL.Query().Get("member_id"), 10, 64)
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	size, _ := strconv.Atoi(r.URL.Query().Get("size"))

	orders, err := h.orders.ListOrders(r.Context(), member, memberID, page, size)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	resp := make([]orderResponse, 0, len(orders))
	for i := range orders {
		resp = append(resp, toOrderResponse(&orders[i]))
	}
	writeJSON(w, http.StatusOK, map[string]any{"orders": resp, "result_count": len(resp)})
}

func (h *HTTPHandler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	err := h.orders.CancelOrder(r.Context(), memberFrom(r.Context()), chi.URLParam(r, "orderID"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

func (h *HTTPHandler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", "invalid request body")
		return
	}
	status, err := domain.ParseOrderStatus(req.Status)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	order, err := h.orders.UpdateStatus(r.Context(), chi.URLParam(r, "orderID"), status)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(order))
}

func (h *HTTPHandler) GetItem(w http.ResponseWriter, r *http.Request) {
	itemID, err := strconv.ParseInt(chi.URLParam(r, "itemID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ITEM_ID", "item id must be an integer")
		return
	}
	item, err := h.catalog.GetItem(r.Context(), itemID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toItemResponse(item))
}

func (h *HTTPHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	size, _ := strconv.Atoi(r.URL.Query().Get("size"))

	items, err := h.catalog.ListItems(r.Context(), page, size)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	resp := make([]itemResponse, 0, len(items))
	for i := range items {
		resp = append(resp, toItemResponse(&items[i]))
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": resp, "result_count": len(resp)})
}

func (h *HTTPHandler) ListOptions(w http.ResponseWriter, r *http.Request) {
	itemID, err := strconv.ParseInt(chi.URLParam(r, "itemID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ITEM_ID", "item id must be an integer")
		return
	}
	options, err := h.catalog.ListOptions(r.Context(), itemID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	resp := make([]optionResponse, 0, len(options))
	for _, opt := range options {
		resp = append(resp, optionResponse{
			OptionID:    opt.ID,
			ItemID:      opt.ItemID,
			Description: opt.Description,
			OptionPrice: opt.OptionPrice,
			Stock:       opt.StockQuantity,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"options": resp})
}

func (h *HTTPHandler) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		h.logger.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("elapsed", time.Since(start)))
	})
}

func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeServiceError maps domain errors to stable codes so clients can
// tell retryable conflicts from malformed requests.
func (h *HTTPHandler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		invalidRef *domain.InvalidReferenceError
		notPublic  *domain.ItemNotPublicError
		outOfStock *domain.OutOfStockError
	)
	switch {
	case errors.As(err, &invalidRef):
		writeError(w, http.StatusBadRequest, "INVALID_ITEM_OPTION", invalidRef.Error())
	case errors.As(err, &notPublic):
		writeError(w, http.StatusConflict, "ITEM_NOT_PUBLIC", notPublic.Error())
	case errors.As(err, &outOfStock):
		body := errorBody{Code: "OUT_OF_STOCK", Message: outOfStock.Error(), Stock: &outOfStock.Stock}
		writeJSON(w, http.StatusConflict, errorResponse{Error: body})
	case errors.Is(err, domain.ErrOrderNotFound):
		writeError(w, http.StatusNotFound, "ORDER_NOT_FOUND", "order not found")
	case errors.Is(err, domain.ErrItemNotFound):
		writeError(w, http.StatusNotFound, "ITEM_NOT_FOUND", "item not found")
	case errors.Is(err, domain.ErrOrderAlreadyCompleted):
		writeError(w, http.StatusConflict, "ORDER_ALREADY_COMPLETED", "order already completed")
	case errors.Is(err, domain.ErrOrderAlreadyCancelled):
		writeError(w, http.StatusConflict, "ORDER_ALREADY_CANCELLED", "order already cancelled")
	case errors.Is(err, domain.ErrStoreContention):
		writeError(w, http.StatusServiceUnavailable, "RETRY_LATER", "temporary contention, retry the request")
	case errors.Is(err, domain.ErrEmptyOrder),
		errors.Is(err, domain.ErrInvalidQuantity),
		errors.Is(err, domain.ErrUnknownOrderStatus):
		writeError(w, http.StatusBadRequest, "INVALID_ORDER_REQUEST", err.Error())
	default:
		h.logger.Error("request failed",
			zap.String("path", r.URL.Path), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
	}
}

func toOrderResponse(order *domain.Order) orderResponse {
	items := make([]orderItemResponse, 0, len(order.Items))
	for _, it := range order.Items {
		items = append(items, orderItemResponse{
			ItemID:   it.ItemID,
			OptionID: it.OptionID,
			Quantity: it.Quantity,
			Price:    it.Price,
		})
	}
	return orderResponse{
		OrderID:    order.ID,
		MemberID:   order.MemberID,
		Status:     string(order.Status),
		TotalPrice: order.TotalPrice,
		Items:      items,
		CreatedAt:  order.CreatedAt,
	}
}

func toItemResponse(item *domain.Item) itemResponse {
	return itemResponse{
		ItemID:      item.ID,
		Name:        item.Name,
		Description: item.Description,
		BasePrice:   item.BasePrice,
		Status:      string(item.Status),
		Thumbnail:   item.Thumbnail,
		OpenAt:      item.OpenAt,
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Error: errorBody{Code: code, Message: message}})
}
