package api

import "time"

// KeyResponse represents a key in API responses. Private material never
// leaves the keystore.
type KeyResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	PublicKey string    `json:"public_key"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateKeyRequest represents a request to create a new key.
type CreateKeyRequest struct {
	Name string `json:"name" binding:"required"`
}

// SignRequest represents a request to sign data.
type SignRequest struct {
	// Data is hex-encoded (0x-prefixed). With Prehashed set it must be
	// a 32-byte digest; otherwise it is signed under the personal_sign
	// envelope.
	Data      string `json:"data" binding:"required"`
	Prehashed bool   `json:"prehashed,omitempty"`
}

// SignResponse represents a signing response.
type SignResponse struct {
	Signature string `json:"signature"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// HealthResponse represents a health check response.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}
