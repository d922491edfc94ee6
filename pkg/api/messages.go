package api

import "encoding/json"

// Amounts are decimal strings, timestamps are RFC 3339.

type OrderItem struct {
	ProductID int64 `json:"product_id"`
	Quantity  int32 `json:"quantity"`
}

type ProcessOrderRequest struct {
	SessionID      string       `json:"session_id"`
	Items          []*OrderItem `json:"items"`
	PaymentDetails []byte       `json:"payment_details,omitempty"`
}

type ProcessOrderResponse struct {
	TransactionID string `json:"transaction_id"`
	Total         string `json:"total"`
	Status        string `json:"status"`
}

type GetAnalyticsRequest struct {
	SessionID string `json:"session_id"`
}

type Session struct {
	SessionID    string          `json:"session_id"`
	UserData     json.RawMessage `json:"user_data,omitempty"`
	PersonalInfo json.RawMessage `json:"personal_info,omitempty"`
	ExpiresAt    string          `json:"expires_at"`
}

type OrderLine struct {
	ProductID int64  `json:"product_id"`
	Quantity  int32  `json:"quantity"`
	UnitPrice string `json:"unit_price"`
}

type Transaction struct {
	TransactionID  string       `json:"transaction_id"`
	SessionID      string       `json:"session_id"`
	Items          []*OrderLine `json:"items"`
	Total          string       `json:"total"`
	PaymentDetails []byte       `json:"payment_details,omitempty"`
	Status         string       `json:"status"`
	CreatedAt      string       `json:"created_at"`
}

type GetAnalyticsResponse struct {
	Session          *Session       `json:"session"`
	Transactions     []*Transaction `json:"transactions"`
	TotalSpent       string         `json:"total_spent"`
	TransactionCount int32          `json:"transaction_count"`
}

type Product struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	Description    string `json:"description"`
	Price          string `json:"price"`
	InventoryCount int32  `json:"inventory_count"`
	CreatedAt      string `json:"created_at,omitempty"`
}

type AddProductRequest struct {
	Product *Product `json:"product"`
}

type AddProductResponse struct {
	Product *Product `json:"product"`
}

type ListProductsRequest struct{}

type ListProductsResponse struct {
	Products []*Product `json:"products"`
}

type CreateSessionRequest struct {
	UserData     json.RawMessage `json:"user_data,omitempty"`
	PersonalInfo json.RawMessage `json:"personal_info,omitempty"`
}

type CreateSessionResponse struct {
	Session *Session `json:"session"`
}
