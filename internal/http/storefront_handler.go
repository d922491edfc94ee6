package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"google.golang.org/grpc/metadata"

	pb "github.com/fjod/storefront/pkg/api"
)

type StorefrontHandler struct {
	client  pb.StorefrontServiceClient
	timeout time.Duration
}

func NewStorefrontHandler(client pb.StorefrontServiceClient, timeout time.Duration) *StorefrontHandler {
	return &StorefrontHandler{
		client:  client,
		timeout: timeout,
	}
}

type CreateSessionRequestDTO struct {
	UserData     json.RawMessage `json:"user_data"`
	PersonalInfo json.RawMessage `json:"personal_info"`
}

type OrderItemDTO struct {
	ProductID int64 `json:"product_id"`
	Quantity  int32 `json:"quantity"`
}

type ProcessOrderRequestDTO struct {
	SessionID      string          `json:"session_id"`
	Items          []OrderItemDTO  `json:"items"`
	PaymentDetails json.RawMessage `json:"payment_details"`
}

type AddProductRequestDTO struct {
	ID             int64       `json:"id"`
	Name           string      `json:"name"`
	Description    string      `json:"description"`
	Price          json.Number `json:"price"`
	InventoryCount int32       `json:"inventory_count"`
}

// POST /api/v1/sessions
func (h *StorefrontHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.outgoing(r)
	defer cancel()

	var req CreateSessionRequestDTO
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
			return
		}
	}

	resp, err := h.client.CreateSession(ctx, &pb.CreateSessionRequest{
		UserData:     nullToEmpty(req.UserData),
		PersonalInfo: nullToEmpty(req.PersonalInfo),
	})
	if err != nil {
		handleGRPCError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, resp.Session)
}

// GET /api/v1/products
func (h *StorefrontHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.outgoing(r)
	defer cancel()

	resp, err := h.client.ListProducts(ctx, &pb.ListProductsRequest{})
	if err != nil {
		handleGRPCError(w, err)
		return
	}
	if resp.Products == nil {
		resp.Products = []*pb.Product{}
	}

	respondJSON(w, http.StatusOK, resp)
}

// POST /api/v1/products
func (h *StorefrontHandler) AddProduct(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.outgoing(r)
	defer cancel()

	var req AddProductRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		respondError(w, http.StatusBadRequest, "invalid_name", "name is required")
		return
	}
	if req.Price == "" {
		respondError(w, http.StatusBadRequest, "invalid_price", "price is required")
		return
	}
	if req.InventoryCount < 0 {
		respondError(w, http.StatusBadRequest, "invalid_inventory", "inventory_count must not be negative")
		return
	}

	resp, err := h.client.AddProduct(ctx, &pb.AddProductRequest{Product: &pb.Product{
		ID:             req.ID,
		Name:           req.Name,
		Description:    req.Description,
		Price:          req.Price.String(),
		InventoryCount: req.InventoryCount,
	}})
	if err != nil {
		handleGRPCError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, resp.Product)
}

// POST /api/v1/transactions
func (h *StorefrontHandler) ProcessOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.outgoing(r)
	defer cancel()

	var req ProcessOrderRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if req.SessionID == "" {
		respondError(w, http.StatusBadRequest, "invalid_session_id", "session_id is required")
		return
	}
	if len(req.Items) == 0 {
		respondError(w, http.StatusBadRequest, "invalid_items", "at least one item is required")
		return
	}
	items := make([]*pb.OrderItem, len(req.Items))
	for i, item := range req.Items {
		if item.ProductID <= 0 {
			respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id must be positive")
			return
		}
		if item.Quantity <= 0 {
			respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be positive")
			return
		}
		items[i] = &pb.OrderItem{ProductID: item.ProductID, Quantity: item.Quantity}
	}

	resp, err := h.client.ProcessOrder(ctx, &pb.ProcessOrderRequest{
		SessionID:      req.SessionID,
		Items:          items,
		PaymentDetails: nullToEmpty(req.PaymentDetails),
	})
	if err != nil {
		handleGRPCError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, resp)
}

type TransactionDTO struct {
	TransactionID  string          `json:"transaction_id"`
	SessionID      string          `json:"session_id"`
	Items          []*pb.OrderLine `json:"items"`
	Total          string          `json:"total"`
	PaymentDetails json.RawMessage `json:"payment_details,omitempty"`
	Status         string          `json:"status"`
	CreatedAt      string          `json:"created_at"`
}

type AnalyticsResponseDTO struct {
	Session          *pb.Session      `json:"session"`
	Transactions     []TransactionDTO `json:"transactions"`
	TotalSpent       string           `json:"total_spent"`
	TransactionCount int32            `json:"transaction_count"`
}

// GET /api/v1/analytics/{session_id}
func (h *StorefrontHandler) GetAnalytics(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.outgoing(r)
	defer cancel()

	sessionID := chi.URLParam(r, "session_id")
	if sessionID == "" {
		respondError(w, http.StatusBadRequest, "invalid_session_id", "session_id is required")
		return
	}

	resp, err := h.client.GetAnalytics(ctx, &pb.GetAnalyticsRequest{SessionID: sessionID})
	if err != nil {
		handleGRPCError(w, err)
		return
	}

	transactions := make([]TransactionDTO, len(resp.Transactions))
	for i, tx := range resp.Transactions {
		transactions[i] = TransactionDTO{
			TransactionID:  tx.TransactionID,
			SessionID:      tx.SessionID,
			Items:          tx.Items,
			Total:          tx.Total,
			PaymentDetails: paymentJSON(tx.PaymentDetails),
			Status:         tx.Status,
			CreatedAt:      tx.CreatedAt,
		}
	}

	respondJSON(w, http.StatusOK, AnalyticsResponseDTO{
		Session:          resp.Session,
		Transactions:     transactions,
		TotalSpent:       resp.TotalSpent,
		TransactionCount: resp.TransactionCount,
	})
}

// outgoing bounds the downstream call and propagates the request id
func (h *StorefrontHandler) outgoing(r *http.Request) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	ctx = metadata.AppendToOutgoingContext(ctx, "request-id", getRequestID(r.Context()))
	return ctx, cancel
}

func nullToEmpty(raw json.RawMessage) []byte {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	return raw
}

// paymentJSON returns stored payment details as JSON when they are JSON, and as a JSON string otherwise
func paymentJSON(b []byte) json.RawMessage {
	if len(b) == 0 {
		return nil
	}
	if json.Valid(b) {
		return b
	}
	quoted, _ := json.Marshal(string(b))
	return quoted
}
