package api

import (
	"net/http"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/gin-gonic/gin"

	"github.com/mintforge/mintforge/cmd/mintwallet-lite/internal/keystore"
	"github.com/mintforge/mintforge/cmd/mintwallet-lite/internal/signer"
)

// SignHandler serves the raw signing endpoint.
type SignHandler struct {
	ks     *keystore.Keystore
	signer *signer.Signer
}

// NewSignHandler creates a SignHandler.
func NewSignHandler(ks *keystore.Keystore, s *signer.Signer) *SignHandler {
	return &SignHandler{ks: ks, signer: s}
}

// Sign handles POST /v1/keys/:id/sign.
func (h *SignHandler) Sign(c *gin.Context) {
	key, err := h.ks.GetByID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "key not found"})
		return
	}

	var req SignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request", Message: err.Error()})
		return
	}

	data, err := hexutil.Decode(req.Data)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid data", Message: "data must be 0x-prefixed hex"})
		return
	}

	var sig []byte
	if req.Prehashed {
		sig, err = h.signer.SignHash(data, key.PrivateKey)
	} else {
		sig, err = h.signer.SignMessage(data, key.PrivateKey)
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "signing failed", Message: err.Error()})
		return
	}

	signingOperationsTotal.Inc()
	c.JSON(http.StatusOK, SignResponse{Signature: hexutil.Encode(sig)})
}
