package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"bdbooking/internal/adapters/observability"
	"bdbooking/internal/domain"
)

type PaymentService struct {
	bookings domain.BookingRepository
	gateway  domain.PaymentGateway
	locks    *RoomLocks
}

func NewPaymentService(b domain.BookingRepository, g domain.PaymentGateway, locks *RoomLocks) *PaymentService {
	return &PaymentService{bookings: b, gateway: g, locks: locks}
}

type PaymentSession struct {
	PaymentURL    string
	TransactionID string
}

// OpenIntent opens a hosted payment session for a Pending booking. The
// booking itself is untouched; the status only moves once a confirmation
// is reconciled.
func (s *PaymentService) OpenIntent(ctx context.Context, bookingID, amount int64, customerName, customerEmail string) (PaymentSession, error) {
	b, err := s.bookings.GetBooking(ctx, bookingID)
	if err != nil {
		return PaymentSession{}, err
	}
	if b.Status != domain.StatusPending {
		return PaymentSession{}, fmt.Errorf("%w: booking %d is %s", domain.ErrInvalidPaymentRequest, bookingID, b.Status)
	}
	if b.TotalPrice != amount {
		return PaymentSession{}, fmt.Errorf("%w: amount %d does not match booking total %d", domain.ErrInvalidPaymentRequest, amount, b.TotalPrice)
	}

	pi := domain.PaymentIntent{
		TransactionID: newTransactionID(),
		BookingID:     bookingID,
		Amount:        amount,
	}
	if err := s.bookings.SavePaymentIntent(ctx, pi); err != nil {
		return PaymentSession{}, err
	}

	url, err := s.gateway.CreateSession(ctx, pi, customerName, customerEmail)
	if err != nil {
		return PaymentSession{}, err
	}
	return PaymentSession{PaymentURL: url, TransactionID: pi.TransactionID}, nil
}

// ConfirmSuccess transitions the booking to Paid. Safe under at-least-once
// delivery: repeating the call on a Paid booking is a no-op success.
func (s *PaymentService) ConfirmSuccess(ctx context.Context, bookingID int64) error {
	if err := s.bookings.MarkPaid(ctx, bookingID); err != nil {
		observability.ObserveBooking("confirm_success", "error")
		return err
	}
	observability.ObserveBooking("confirm_success", "ok")
	return nil
}

// ConfirmFailure cancels the booking and releases its ledger dates.
// Idempotent; a repeated failure signal on a Cancelled booking is a no-op.
func (s *PaymentService) ConfirmFailure(ctx context.Context, bookingID int64) error {
	b, err := s.bookings.GetBooking(ctx, bookingID)
	if err != nil {
		return err
	}
	unlock := s.locks.lock(b.RoomNumberID)
	defer unlock()

	if err := s.bookings.CancelBooking(ctx, bookingID); err != nil {
		observability.ObserveBooking("confirm_failure", "error")
		return err
	}
	observability.ObserveBooking("confirm_failure", "ok")
	return nil
}

// ConfirmWithTransaction handles the client-driven callback after the
// gateway redirect. The transaction id must have been issued for exactly
// this booking, which keeps an unauthenticated caller from flipping an
// arbitrary booking to Paid.
func (s *PaymentService) ConfirmWithTransaction(ctx context.Context, bookingID int64, transactionID string, success bool) error {
	pi, err := s.bookings.GetPaymentIntent(ctx, transactionID)
	if err != nil {
		return err
	}
	if pi.BookingID != bookingID {
		return fmt.Errorf("%w: transaction %s was not opened for booking %d", domain.ErrInvalidPaymentRequest, transactionID, bookingID)
	}
	if success {
		return s.ConfirmSuccess(ctx, bookingID)
	}
	return s.ConfirmFailure(ctx, bookingID)
}

// Reconcile matches an out-of-band gateway outcome to the booking that
// opened the transaction, then applies the success or failure transition.
func (s *PaymentService) Reconcile(ctx context.Context, transactionID string, success bool) error {
	pi, err := s.bookings.GetPaymentIntent(ctx, transactionID)
	if err != nil {
		return err
	}
	log.Info().Str("txn", transactionID).Int64("booking", pi.BookingID).Bool("success", success).Msg("reconciling payment outcome")
	if success {
		return s.ConfirmSuccess(ctx, pi.BookingID)
	}
	return s.ConfirmFailure(ctx, pi.BookingID)
}

func newTransactionID() string {
	raw := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return "BDB-" + raw[:12]
}
