package wire

import (
	"travel-booking/internal/adaptor"
	"travel-booking/internal/data/repository"
	"travel-booking/pkg/idempotency"
	"travel-booking/pkg/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wirePayment(
	r chi.Router,
	paymentHandler *adaptor.PaymentHandler,
	repo *repository.Repository,
	guard *idempotency.Guard,
	log *zap.Logger,
) {
	// ==================== PROTECTED ROUTES ====================
	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthSession(repo.Session, log))
		r.Use(middleware.Idempotency(guard, log))

		// POST /api/payments/paytabs/book-and-pay - Book first, then pay
		r.Post("/api/payments/paytabs/book-and-pay", paymentHandler.BookAndPay)

		// POST /api/payments/paytabs/pay-then-book - Pay first, book on callback
		r.Post("/api/payments/paytabs/pay-then-book", paymentHandler.PayThenBook)
	})

	// ==================== GATEWAY CALLBACK ====================
	// POST /api/payments/paytabs/callback - PayTabs server-to-server callback.
	// Unauthenticated by nature; the transaction is re-verified against the
	// gateway before anything is trusted.
	r.Post("/api/payments/paytabs/callback", paymentHandler.PayTabsCallback)
}
