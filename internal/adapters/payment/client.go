package payment

import (
	"bytes"
	crand "crypto/rand"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"bdbooking/internal/adapters/observability"
	"bdbooking/internal/domain"
)

// Client talks to the hosted payment gateway (SSLCommerz-style): it opens a
// session and gets back a redirect URL the customer is sent to. Outcomes
// come back later through the IPN webhook or the client redirect.
type Client struct {
	base      string
	storeID   string
	storePass string
	publicURL string // frontend base for success/fail redirect targets
	hc        *http.Client
	rl        *rate.Limiter
}

func New(base, storeID, storePass, publicURL string, rps int) (*Client, error) {
	if storeID == "" || storePass == "" {
		return nil, fmt.Errorf("gateway store credentials are required")
	}
	if rps <= 0 {
		rps = 5
	}
	return &Client{
		base:      base,
		storeID:   storeID,
		storePass: storePass,
		publicURL: publicURL,
		hc:        &http.Client{Timeout: 20 * time.Second},
		rl:        rate.NewLimiter(rate.Limit(rps), rps),
	}, nil
}

type sessionRequest struct {
	StoreID       string `json:"store_id"`
	StorePasswd   string `json:"store_passwd"`
	TotalAmount   int64  `json:"total_amount"`
	Currency      string `json:"currency"`
	TranID        string `json:"tran_id"`
	SuccessURL    string `json:"success_url"`
	FailURL       string `json:"fail_url"`
	CancelURL     string `json:"cancel_url"`
	IPNURL        string `json:"ipn_url"`
	ProductName   string `json:"product_name"`
	CustomerName  string `json:"cus_name"`
	CustomerEmail string `json:"cus_email"`
}

type sessionResponse struct {
	Status         string `json:"status"`
	GatewayPageURL string `json:"GatewayPageURL"`
	FailedReason   string `json:"failedreason"`
}

func (c *Client) CreateSession(ctx context.Context, pi domain.PaymentIntent, customerName, customerEmail string) (string, error) {
	body := sessionRequest{
		StoreID:       c.storeID,
		StorePasswd:   c.storePass,
		TotalAmount:   pi.Amount,
		Currency:      "BDT",
		TranID:        pi.TransactionID,
		SuccessURL:    fmt.Sprintf("%s/payment/success?bookingId=%d", c.publicURL, pi.BookingID),
		FailURL:       fmt.Sprintf("%s/payment/fail?bookingId=%d", c.publicURL, pi.BookingID),
		CancelURL:     fmt.Sprintf("%s/payment/cancel", c.publicURL),
		IPNURL:        fmt.Sprintf("%s/v1/payments/ipn", c.publicURL),
		ProductName:   "Hotel Booking",
		CustomerName:  customerName,
		CustomerEmail: customerEmail,
	}

	var resp sessionResponse
	if err := c.post(ctx, c.base+"/gwprocess/v4/api.php", body, &resp); err != nil {
		return "", err
	}
	if resp.GatewayPageURL == "" {
		return "", fmt.Errorf("%w: gateway refused session: %s", domain.ErrInvalidPaymentRequest, resp.FailedReason)
	}
	return resp.GatewayPageURL, nil
}

// post sends JSON with client-side rate limiting and retries on 429 and
// transient 5xx, honoring Retry-After when provided.
func (c *Client) post(ctx context.Context, url string, in, out any) error {
	if err := c.rl.Wait(ctx); err != nil {
		return err
	}
	payload, err := json.Marshal(in)
	if err != nil {
		return err
	}

	var lastErr error
	for i := 0; i < 4; i++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", "bdbooking/1.0")

		start := time.Now()
		resp, err := c.hc.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = err
			if i < 3 && sleepCtx(ctx, backoff(i)) {
				continue
			}
			return lastErr
		}
		observability.ObserveGateway("session", resp.StatusCode, time.Since(start))

		switch resp.StatusCode {
		case http.StatusOK, http.StatusCreated:
			err := json.NewDecoder(resp.Body).Decode(out)
			resp.Body.Close()
			return err

		case http.StatusTooManyRequests, http.StatusInternalServerError,
			http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			wait := retryAfter(resp)
			resp.Body.Close()
			if wait == 0 {
				wait = backoff(i)
			}
			lastErr = fmt.Errorf("gateway %d", resp.StatusCode)
			if i < 3 && sleepCtx(ctx, wait) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return lastErr

		default:
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			return fmt.Errorf("gateway status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
		}
	}
	if lastErr == nil {
		lastErr = errors.New("gateway request failed")
	}
	return lastErr
}

// sleepCtx waits for d or returns early if ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// retryAfter parses Retry-After header (seconds or HTTP-date). Returns 0 if absent/invalid.
func retryAfter(resp *http.Response) time.Duration {
	h := resp.Header.Get("Retry-After")
	if h == "" {
		return 0
	}
	if secs, err := strconv.Atoi(strings.TrimSpace(h)); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(h); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// backoff returns an exponential delay (200ms, 400ms, 800ms...) with up to
// +50% jitter from crypto/rand to avoid thundering herds.
func backoff(i int) time.Duration {
	base := time.Duration(1<<i) * 200 * time.Millisecond
	var b [1]byte
	if _, err := crand.Read(b[:]); err != nil {
		return base
	}
	f := float64(b[0]) / 255.0
	j := time.Duration(0.5 * f * float64(base))
	return base + j
}
