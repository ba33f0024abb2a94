// Package payment uploads payment evidence for an order and reads it back.
package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/fjod/go_cart/storefront-client/internal/api"
	"github.com/fjod/go_cart/storefront-client/internal/domain"
	"github.com/fjod/go_cart/storefront-client/internal/logger"
	"github.com/fjod/go_cart/storefront-client/internal/metrics"
)

type Client interface {
	CreatePayment(ctx context.Context, orderID uuid.UUID, file api.ProofFile) (domain.Payment, error)
	FetchPaymentProof(ctx context.Context, paymentID uuid.UUID) (api.Binary, error)
}

type Result struct {
	Payment domain.Payment
	Proof   api.Binary
}

type Channel struct {
	client  Client
	metrics *metrics.Metrics
	log     *slog.Logger
}

func NewChannel(client Client, m *metrics.Metrics, log *slog.Logger) *Channel {
	return &Channel{client: client, metrics: m, log: logger.OrDiscard(log)}
}

// CanUpload reports whether order still takes evidence: it is pending or
// processing and has no payment yet.
func CanUpload(order domain.Order) bool {
	return order.Status.AcceptsPaymentProof() && !order.HasPayment()
}

// ProofPath is where the stored proof of a paid order can be fetched.
func ProofPath(order domain.Order) (string, bool) {
	if !order.HasPayment() {
		return "", false
	}
	return api.PaymentProofPath(order.Payment.ID), true
}

// Submit uploads file for order and then fetches it back by the returned
// payment id. The two steps are not atomic: a failed upload wraps
// ErrUploadFailed, a failed read-back is an *UnverifiedError.
func (c *Channel) Submit(ctx context.Context, order domain.Order, file api.ProofFile) (Result, error) {
	if len(file.Data) == 0 {
		return Result{}, ErrNoFile
	}
	if order.HasPayment() {
		return Result{}, ErrAlreadyPaid
	}
	if !order.Status.AcceptsPaymentProof() {
		return Result{}, ErrUploadNotAllowed
	}

	payment, err := c.client.CreatePayment(ctx, order.ID, file)
	if err != nil {
		c.metrics.ProofOutcome("upload_failed")
		c.log.Warn("payment proof upload failed", logger.Traced(ctx),
			slog.String("order_id", order.ID.String()), logger.Err(err))
		return Result{}, fmt.Errorf("%w: %w", ErrUploadFailed, err)
	}

	proof, err := c.verify(ctx, payment.ID)
	if err != nil {
		c.metrics.ProofOutcome("unverified")
		c.log.Warn("payment proof not verified", logger.Traced(ctx),
			slog.String("order_id", order.ID.String()), slog.String("payment_id", payment.ID.String()), logger.Err(err))
		return Result{Payment: payment}, &UnverifiedError{PaymentID: payment.ID, Err: err}
	}

	c.metrics.ProofOutcome("verified")
	c.log.Info("payment proof verified", logger.Traced(ctx),
		slog.String("order_id", order.ID.String()), slog.String("payment_id", payment.ID.String()))
	return Result{Payment: payment, Proof: proof}, nil
}

func (c *Channel) verify(ctx context.Context, paymentID uuid.UUID) (api.Binary, error) {
	if paymentID == uuid.Nil {
		return api.Binary{}, errors.New("upload response carried no payment id")
	}
	proof, err := c.client.FetchPaymentProof(ctx, paymentID)
	if err != nil {
		return api.Binary{}, err
	}
	if len(proof.Data) == 0 {
		return api.Binary{}, errors.New("stored proof is empty")
	}
	return proof, nil
}

// UserMessage maps a Submit error to the text shown to the shopper.
func UserMessage(err error) string {
	var unverified *UnverifiedError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &unverified):
		return ErrUploadedUnverified.Error()
	case errors.Is(err, ErrUploadFailed):
		return api.UserMessage(err, "Failed to upload payment proof")
	}
	return err.Error()
}
