package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mintforge/mintforge/cmd/mintwallet-lite/internal/keystore"
)

// KeysHandler serves the key management endpoints.
type KeysHandler struct {
	ks *keystore.Keystore
}

// NewKeysHandler creates a KeysHandler.
func NewKeysHandler(ks *keystore.Keystore) *KeysHandler {
	return &KeysHandler{ks: ks}
}

// ListKeys handles GET /v1/keys.
func (h *KeysHandler) ListKeys(c *gin.Context) {
	keys := h.ks.List()
	out := make([]KeyResponse, len(keys))
	for i, k := range keys {
		out[i] = toKeyResponse(k)
	}
	c.JSON(http.StatusOK, gin.H{"keys": out, "count": len(out)})
}

// GetKey handles GET /v1/keys/:id.
func (h *KeysHandler) GetKey(c *gin.Context) {
	key, err := h.ks.GetByID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "key not found"})
		return
	}
	c.JSON(http.StatusOK, toKeyResponse(key))
}

// CreateKey handles POST /v1/keys.
func (h *KeysHandler) CreateKey(c *gin.Context) {
	var req CreateKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request", Message: err.Error()})
		return
	}

	key, err := h.ks.Generate(req.Name)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "key generation failed", Message: err.Error()})
		return
	}

	keysCreatedTotal.Inc()
	c.JSON(http.StatusCreated, toKeyResponse(key))
}

// DeleteKey handles DELETE /v1/keys/:id.
func (h *KeysHandler) DeleteKey(c *gin.Context) {
	key, err := h.ks.GetByID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "key not found"})
		return
	}
	if err := h.ks.Delete(key.Address); err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "delete failed", Message: err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

func toKeyResponse(k *keystore.Key) KeyResponse {
	return KeyResponse{
		ID:        k.ID,
		Name:      k.Name,
		Address:   k.Address,
		PublicKey: k.PublicKey,
		CreatedAt: k.CreatedAt,
	}
}
