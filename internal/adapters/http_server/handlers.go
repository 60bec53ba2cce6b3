package httpserver

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"bdbooking/internal/adapters/auth"
	"bdbooking/internal/adapters/payment"
	"bdbooking/internal/app"
	"bdbooking/internal/domain"
)

const dateLayout = "2006-01-02"

type Handlers struct {
	Q        *app.QueryService
	Bookings *app.BookingService
	Payments *app.PaymentService
	Reviews  *app.ReviewService
	Auth     *auth.Verifier
	Notifier *payment.Notifier
}

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })

	s.mux.Get("/v1/hotels/featured", h.listFeatured)
	s.mux.Get("/v1/hotels/{id}", h.getHotel)
	s.mux.Get("/v1/hotels/{id}/reviews", h.listReviews)

	s.mux.Group(func(r chi.Router) {
		r.Use(RequireAuth(h.Auth))
		r.Post("/v1/hotels/{id}/reviews", h.addReview)
		r.Post("/v1/bookings", h.createBooking)
		r.Get("/v1/bookings/my", h.myBookings)
		r.Post("/v1/bookings/{id}/cancel", h.cancelBooking)
		r.Post("/v1/payments/session", h.openPaymentSession)
	})

	// reached by the customer's browser after the gateway redirect; proven
	// by the transaction id issued when the session was opened
	s.mux.Post("/v1/payments/success", h.paymentOutcome(true))
	s.mux.Post("/v1/payments/fail", h.paymentOutcome(false))
	// server-to-server notification, HMAC-signed by the gateway
	s.mux.Post("/v1/payments/ipn", h.paymentIPN)
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

// writeError maps domain sentinels onto problem responses.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrRoomUnavailable):
		writeProblem(w, http.StatusConflict, "Room Unavailable", err.Error())
	case errors.Is(err, domain.ErrDuplicateReview):
		writeProblem(w, http.StatusConflict, "Duplicate Review", err.Error())
	case errors.Is(err, domain.ErrInvalidRating):
		writeProblem(w, http.StatusUnprocessableEntity, "Invalid Review", err.Error())
	case errors.Is(err, domain.ErrPriceMismatch):
		writeProblem(w, http.StatusBadRequest, "Price Mismatch", err.Error())
	case errors.Is(err, domain.ErrInvalidDateRange):
		writeProblem(w, http.StatusBadRequest, "Invalid Date Range", err.Error())
	case errors.Is(err, domain.ErrInvalidPaymentRequest):
		writeProblem(w, http.StatusBadRequest, "Invalid Payment Request", err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		writeProblem(w, http.StatusForbidden, "Forbidden", err.Error())
	case errors.Is(err, domain.ErrBookingNotFound), errors.Is(err, domain.ErrNotFound):
		writeProblem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, domain.ErrStorageUnavailable):
		writeProblem(w, http.StatusServiceUnavailable, "Storage Unavailable", "temporary storage failure, retry later")
	default:
		log.Error().Err(err).Msg("unhandled error")
		writeProblem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("write JSON response failed")
	}
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

func identity(r *http.Request) domain.Identity {
	id, _ := auth.Identity(r.Context())
	return id
}

func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil
}

// ---- catalog ----

func (h *Handlers) getHotel(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "id must be a number")
		return
	}
	hv, err := h.Q.GetHotel(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	etag, body := calcETagAndBody(hv)
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write getHotel body")
	}
}

func (h *Handlers) listFeatured(w http.ResponseWriter, r *http.Request) {
	hotels, err := h.Q.ListFeatured(r.Context(), 4)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, hotels)
}

func (h *Handlers) listReviews(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "id must be a number")
		return
	}
	rs, err := h.Q.ListReviews(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rs)
}

// ---- reviews ----

type addReviewRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

func (h *Handlers) addReview(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "id must be a number")
		return
	}
	var req addReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid Body", "malformed JSON")
		return
	}
	rv, err := h.Reviews.AddReview(r.Context(), identity(r), id, req.Rating, req.Comment)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rv)
}

// ---- bookings ----

type createBookingRequest struct {
	HotelID      int64  `json:"hotelId"`
	RoomID       int64  `json:"roomId"`
	RoomNumberID int64  `json:"roomNumberId"`
	CheckInDate  string `json:"checkInDate"`
	CheckOutDate string `json:"checkOutDate"`
	TotalPrice   int64  `json:"totalPrice"`
}

func (h *Handlers) createBooking(w http.ResponseWriter, r *http.Request) {
	var req createBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid Body", "malformed JSON")
		return
	}
	checkIn, err := time.Parse(dateLayout, req.CheckInDate)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid Date", "checkInDate must be YYYY-MM-DD")
		return
	}
	checkOut, err := time.Parse(dateLayout, req.CheckOutDate)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid Date", "checkOutDate must be YYYY-MM-DD")
		return
	}

	b, err := h.Bookings.CreateBooking(r.Context(), identity(r), app.CreateBookingInput{
		HotelID:      req.HotelID,
		RoomID:       req.RoomID,
		RoomNumberID: req.RoomNumberID,
		CheckIn:      checkIn,
		CheckOut:     checkOut,
		TotalPrice:   req.TotalPrice,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

func (h *Handlers) myBookings(w http.ResponseWriter, r *http.Request) {
	out, err := h.Bookings.ListUserBookings(r.Context(), identity(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handlers) cancelBooking(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "id must be a number")
		return
	}
	if err := h.Bookings.CancelBooking(r.Context(), identity(r), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": string(domain.StatusCancelled)})
}

// ---- payments ----

type paymentSessionRequest struct {
	BookingID     int64  `json:"bookingId"`
	Amount        int64  `json:"amount"`
	CustomerName  string `json:"customerName"`
	CustomerEmail string `json:"customerEmail"`
}

func (h *Handlers) openPaymentSession(w http.ResponseWriter, r *http.Request) {
	var req paymentSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid Body", "malformed JSON")
		return
	}
	sess, err := h.Payments.OpenIntent(r.Context(), req.BookingID, req.Amount, req.CustomerName, req.CustomerEmail)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"paymentUrl":    sess.PaymentURL,
		"transactionId": sess.TransactionID,
	})
}

type paymentOutcomeRequest struct {
	BookingID     int64  `json:"bookingId"`
	TransactionID string `json:"transactionId"`
}

func (h *Handlers) paymentOutcome(success bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req paymentOutcomeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid Body", "malformed JSON")
			return
		}
		if req.BookingID == 0 || req.TransactionID == "" {
			writeProblem(w, http.StatusBadRequest, "Invalid Body", "bookingId and transactionId are required")
			return
		}
		if err := h.Payments.ConfirmWithTransaction(r.Context(), req.BookingID, req.TransactionID, success); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"success": true})
	}
}

type ipnRequest struct {
	TransactionID string `json:"tran_id"`
	Status        string `json:"status"` // VALID | FAILED | CANCELLED
}

func (h *Handlers) paymentIPN(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<16))
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid Body", "unreadable body")
		return
	}
	if !h.Notifier.Verify(body, r.Header.Get("X-Gateway-Signature")) {
		writeProblem(w, http.StatusForbidden, "Invalid Signature", "IPN signature verification failed")
		return
	}
	var req ipnRequest
	if err := json.Unmarshal(body, &req); err != nil || req.TransactionID == "" {
		writeProblem(w, http.StatusBadRequest, "Invalid Body", "malformed IPN payload")
		return
	}
	if err := h.Payments.Reconcile(r.Context(), req.TransactionID, req.Status == "VALID"); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
