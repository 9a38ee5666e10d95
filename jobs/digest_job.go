package jobs

import (
	"context"
	"fmt"
	"html"
	"log"
	"strings"
	"time"

	config "github.com/legendaryias/ias_mentor/configs"
	"github.com/legendaryias/ias_mentor/models"
	"github.com/legendaryias/ias_mentor/notifications"
	"github.com/legendaryias/ias_mentor/services"
	"github.com/legendaryias/ias_mentor/store"
)

// PendingDigest renders the admin reminder listing payments that have waited
// longer than olderThan. count is zero when nothing is waiting.
func PendingDigest(ctx context.Context, payments *services.PaymentService, now time.Time, olderThan time.Duration) (subject, body string, count int, err error) {
	pending, err := payments.List(ctx, store.PaymentFilter{Status: models.PaymentPending, To: now.Add(-olderThan)})
	if err != nil {
		return "", "", 0, err
	}
	if len(pending) == 0 {
		return "", "", 0, nil
	}

	var b strings.Builder
	b.WriteString("<h1>Payments awaiting review</h1><table border='1' cellpadding='4'>")
	b.WriteString("<tr><th>Payment ID</th><th>Student</th><th>Product</th><th>Amount</th><th>Waiting since</th></tr>")
	for _, p := range pending {
		fmt.Fprintf(&b, "<tr><td>%s</td><td>%s</td><td>%s</td><td>%s %.2f</td><td>%s</td></tr>",
			html.EscapeString(p.ID),
			html.EscapeString(p.UserName),
			html.EscapeString(p.ProductTitle),
			p.Currency, p.Amount,
			p.CreatedAt.Format("02 Jan 15:04"))
	}
	b.WriteString("</table>")

	subject = fmt.Sprintf("%d payment(s) waiting for confirmation", len(pending))
	return subject, b.String(), len(pending), nil
}

// SendPendingDigest returns a cron job that emails ADMIN_NOTIFY_EMAIL the
// payments pending for more than olderThan.
func SendPendingDigest(payments *services.PaymentService, olderThan time.Duration) func() {
	return func() {
		log.Println("Running job: SendPendingDigest...")

		admin := config.Config("ADMIN_NOTIFY_EMAIL")
		if admin == "" {
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		subject, body, count, err := PendingDigest(ctx, payments, time.Now(), olderThan)
		if err != nil {
			log.Printf("Error building pending digest: %v", err)
			return
		}
		if count == 0 {
			return
		}
		notifications.SendEmail("Admin", admin, subject, body)
	}
}
