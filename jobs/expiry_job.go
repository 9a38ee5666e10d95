package jobs

import (
	"context"
	"log"
	"time"

	"github.com/legendaryias/ias_mentor/services"
)

// ExpireStalePayments returns a cron job that moves pending payments older
// than maxAge to expired.
func ExpireStalePayments(payments *services.PaymentService, maxAge time.Duration) func() {
	return func() {
		log.Println("Running job: ExpireStalePayments...")

		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		expired, err := payments.ExpireStale(ctx, maxAge)
		if err != nil {
			log.Printf("Error expiring stale payments: %v", err)
			return
		}
		if expired > 0 {
			log.Printf("✅ Expired %d pending payments older than %s", expired, maxAge)
		}
	}
}
