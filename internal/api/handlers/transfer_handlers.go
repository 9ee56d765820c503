package handlers

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/custodia-labs/cctp-courier/internal/cctp"
	"github.com/custodia-labs/cctp-courier/internal/pipeline"
	"github.com/custodia-labs/cctp-courier/pkg/logger"
)

// TransferRunner is the slice of the pipeline the API drives.
type TransferRunner interface {
	Execute(ctx context.Context, req pipeline.TransferRequest) (*pipeline.TransferResult, error)
	Resume(ctx context.Context, burnTxHash string, mode cctp.Mode) (*pipeline.TransferResult, error)
}

// TransferHandlers handles transfer endpoints. The pipeline moves real
// funds through a sequence of chain writes, so only one run may be in
// flight at a time; concurrent requests are rejected, not queued.
type TransferHandlers struct {
	runner    TransferRunner
	validator *validator.Validate
	logger    *logger.Logger

	running sync.Mutex

	mu     sync.RWMutex
	latest *pipeline.TransferResult
}

// NewTransferHandlers creates a new transfer handlers instance
func NewTransferHandlers(runner TransferRunner, logger *logger.Logger) *TransferHandlers {
	return &TransferHandlers{
		runner:    runner,
		validator: validator.New(),
		logger:    logger,
	}
}

// Request/Response models

// CreateTransferRequest represents the request to run a transfer
type CreateTransferRequest struct {
	Amount string `json:"amount" validate:"required"`
	Mode   string `json:"mode" validate:"omitempty,oneof=fast standard"`
}

// ResumeTransferRequest represents the request to resume a transfer from
// a confirmed burn transaction
type ResumeTransferRequest struct {
	BurnTxHash string `json:"burn_tx_hash" validate:"required,len=66,hexadecimal"`
	Mode       string `json:"mode" validate:"omitempty,oneof=fast standard"`
}

// CreateTransfer handles POST /v1/transfers. The pipeline runs
// synchronously; the response carries the completed stage results.
func (h *TransferHandlers) CreateTransfer(c *gin.Context) {
	ctx := c.Request.Context()

	var req CreateTransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    ErrCodeInvalidRequest,
			Message: "Invalid request body",
			Details: map[string]interface{}{"error": err.Error()},
		})
		return
	}

	if err := h.validator.Struct(req); err != nil {
		h.logger.Warn("Validation failed", "error", err)
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    ErrCodeValidationFailed,
			Message: "Request validation failed",
			Details: map[string]interface{}{"error": err.Error()},
		})
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err == nil {
		_, err = pipeline.ToBaseUnits(amount)
	}
	if err != nil {
		h.logger.Warn("Invalid transfer amount", "amount", req.Amount, "error", err)
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    ErrCodeInvalidAmount,
			Message: "Amount must be a positive USDC value with at most 6 decimal places",
			Details: map[string]interface{}{"amount": req.Amount},
		})
		return
	}

	if !h.running.TryLock() {
		c.JSON(http.StatusConflict, ErrorResponse{
			Code:    ErrCodeTransferInProgress,
			Message: "A transfer is already in flight",
		})
		return
	}
	defer h.running.Unlock()

	h.logger.Info("Starting transfer via API", "amount", req.Amount, "mode", req.Mode)

	result, err := h.runner.Execute(ctx, pipeline.TransferRequest{
		Amount: amount,
		Mode:   cctp.Mode(req.Mode),
	})
	if err != nil {
		h.sendTransferError(c, err)
		return
	}

	h.setLatest(result)
	c.JSON(http.StatusOK, result)
}

// ResumeTransfer handles POST /v1/transfers/resume. It re-enters the
// pipeline after the burn stage, for runs that timed out waiting on the
// attestation.
func (h *TransferHandlers) ResumeTransfer(c *gin.Context) {
	ctx := c.Request.Context()

	var req ResumeTransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    ErrCodeInvalidRequest,
			Message: "Invalid request body",
			Details: map[string]interface{}{"error": err.Error()},
		})
		return
	}

	if err := h.validator.Struct(req); err != nil {
		h.logger.Warn("Validation failed", "error", err)
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    ErrCodeValidationFailed,
			Message: "Request validation failed",
			Details: map[string]interface{}{"error": err.Error()},
		})
		return
	}

	if !h.running.TryLock() {
		c.JSON(http.StatusConflict, ErrorResponse{
			Code:    ErrCodeTransferInProgress,
			Message: "A transfer is already in flight",
		})
		return
	}
	defer h.running.Unlock()

	h.logger.Info("Resuming transfer via API", "burn_tx_hash", req.BurnTxHash, "mode", req.Mode)

	result, err := h.runner.Resume(ctx, req.BurnTxHash, cctp.Mode(req.Mode))
	if err != nil {
		h.sendTransferError(c, err)
		return
	}

	h.setLatest(result)
	c.JSON(http.StatusOK, result)
}

// GetLatestTransfer handles GET /v1/transfers/latest
func (h *TransferHandlers) GetLatestTransfer(c *gin.Context) {
	h.mu.RLock()
	latest := h.latest
	h.mu.RUnlock()

	if latest == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Code:    ErrCodeNoTransfers,
			Message: "No transfer has completed yet",
		})
		return
	}

	c.JSON(http.StatusOK, latest)
}

func (h *TransferHandlers) setLatest(result *pipeline.TransferResult) {
	h.mu.Lock()
	h.latest = result
	h.mu.Unlock()
}

// sendTransferError reports a pipeline failure. The wrapped error chain
// carries stage identifiers (burn tx hash, message hash) a caller needs
// to resume, so the message is passed through verbatim.
func (h *TransferHandlers) sendTransferError(c *gin.Context, err error) {
	status, code := transferErrorStatus(err)

	details := map[string]interface{}{"error": err.Error()}
	var perr *pipeline.Error
	if errors.As(err, &perr) {
		details["stage"] = string(perr.Stage)
		details["kind"] = string(perr.Kind)
	}

	h.logger.Error("Transfer failed", "error", err, "status", status)
	c.JSON(status, ErrorResponse{
		Code:    code,
		Message: "Transfer failed",
		Details: details,
	})
}
