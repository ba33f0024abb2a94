package api

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"

	"github.com/google/uuid"

	"github.com/fjod/go_cart/storefront-client/internal/domain"
)

// ProofFile is the evidence image picked by the shopper.
type ProofFile struct {
	Name string
	Data []byte
}

// Binary is a fetched protected asset.
type Binary struct {
	ContentType string
	Data        []byte
}

// CreatePayment uploads the proof as multipart {order_id, files}.
func (c *Client) CreatePayment(ctx context.Context, orderID uuid.UUID, file ProofFile) (domain.Payment, error) {
	const op = "create_payment"

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	if err := form.WriteField("order_id", orderID.String()); err != nil {
		return domain.Payment{}, fmt.Errorf("%s: write form: %w", op, err)
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="files"; filename=%q`, file.Name))
	header.Set("Content-Type", http.DetectContentType(file.Data))
	part, err := form.CreatePart(header)
	if err != nil {
		return domain.Payment{}, fmt.Errorf("%s: write form: %w", op, err)
	}
	if _, err := part.Write(file.Data); err != nil {
		return domain.Payment{}, fmt.Errorf("%s: write form: %w", op, err)
	}
	if err := form.Close(); err != nil {
		return domain.Payment{}, fmt.Errorf("%s: write form: %w", op, err)
	}

	resp, err := c.do(ctx, request{
		op:          op,
		method:      http.MethodPost,
		path:        "/payment/create",
		body:        &buf,
		contentType: form.FormDataContentType(),
	})
	if err != nil {
		return domain.Payment{}, err
	}

	var out struct {
		Message string         `json:"message"`
		Payment domain.Payment `json:"payment"`
	}
	if err := decode(op, resp.body, &out); err != nil {
		return domain.Payment{}, err
	}
	return out.Payment, nil
}

func PaymentProofPath(paymentID uuid.UUID) string {
	return fmt.Sprintf("/payment/proof/%s", paymentID)
}

func ProductImagePath(productID uuid.UUID) string {
	return fmt.Sprintf("/snack/image/%s", productID)
}

// FetchBinary GETs a protected asset. rawURL is an API path or an absolute
// URL; the bearer credential is attached only when it points at the API host.
func (c *Client) FetchBinary(ctx context.Context, op, rawURL string) (Binary, error) {
	resp, err := c.do(ctx, request{op: op, method: http.MethodGet, path: rawURL, accept: "image/*"})
	if err != nil {
		return Binary{}, err
	}
	contentType := resp.header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(resp.body)
	}
	return Binary{ContentType: contentType, Data: resp.body}, nil
}

func (c *Client) FetchPaymentProof(ctx context.Context, paymentID uuid.UUID) (Binary, error) {
	return c.FetchBinary(ctx, "fetch_payment_proof", PaymentProofPath(paymentID))
}
