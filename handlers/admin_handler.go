package handlers

import (
	"bytes"
	"fmt"
	"log"
	"math"
	"strconv"
	"time"

	websocketcontrib "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/legendaryias/ias_mentor/middleware"
	"github.com/legendaryias/ias_mentor/models"
	"github.com/legendaryias/ias_mentor/services"
	"github.com/legendaryias/ias_mentor/store"
	"github.com/legendaryias/ias_mentor/websocket"
)

func parseStatusFilter(c *fiber.Ctx) (models.PaymentStatus, error) {
	raw := c.Query("status")
	if raw == "" || raw == "all" {
		return "", nil
	}
	return models.ParsePaymentStatus(raw)
}

// AdminGetPayments lists payments for the review panel. With group=status it
// returns every status bucket at once.
func (h *Handler) AdminGetPayments(c *fiber.Ctx) error {
	if c.Query("group") == "status" {
		grouped, err := h.payments.Grouped(c.UserContext())
		if err != nil {
			return respondError(c, err)
		}
		counts := make(fiber.Map, len(grouped))
		for st, list := range grouped {
			counts[string(st)] = len(list)
		}
		return c.JSON(fiber.Map{"data": grouped, "counts": counts})
	}

	status, err := parseStatusFilter(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "50"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 500 {
		limit = 50
	}

	payments, err := h.payments.List(c.UserContext(), store.PaymentFilter{Status: status})
	if err != nil {
		return respondError(c, err)
	}

	total := len(payments)
	start := (page - 1) * limit
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}

	return c.JSON(fiber.Map{
		"data": payments[start:end],
		"meta": fiber.Map{
			"total":     total,
			"page":      page,
			"last_page": int(math.Ceil(float64(total) / float64(limit))),
		},
	})
}

func (h *Handler) AdminGetPayment(c *fiber.Ctx) error {
	payment, err := h.payments.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(payment)
}

func (h *Handler) AdminUpdatePaymentStatus(c *fiber.Ctx) error {
	var req services.StatusUpdate
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Cannot parse JSON")
	}
	if err := validate.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	res, err := h.payments.UpdateStatus(c.UserContext(), c.Params("id"), req)
	if err != nil {
		return respondError(c, err)
	}

	log.Printf("Admin %s set payment %s to %s", middleware.AdminID(c), res.Payment.ID, res.Payment.Status)
	return c.JSON(fiber.Map{
		"success":       true,
		"payment":       res.Payment,
		"accessGranted": res.Granted,
	})
}

func (h *Handler) AdminListDuplicatePayments(c *fiber.Ctx) error {
	groups, err := h.payments.DuplicateGroups(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	redundant := 0
	for _, g := range groups {
		redundant += len(g.Payments) - 1
	}
	return c.JSON(fiber.Map{"groups": groups, "count": len(groups), "redundant": redundant})
}

func (h *Handler) AdminCleanupDuplicatePayments(c *fiber.Ctx) error {
	removed, err := h.payments.CleanupDuplicates(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	log.Printf("Admin %s removed %d duplicate pending payments", middleware.AdminID(c), removed)
	return c.JSON(fiber.Map{"success": true, "removed": removed})
}

func (h *Handler) AdminExportPayments(c *fiber.Ctx) error {
	startDateStr := c.Query("start_date", time.Now().AddDate(0, -1, 0).Format("2006-01-02"))
	endDateStr := c.Query("end_date", time.Now().Format("2006-01-02"))

	startDate, err := time.Parse("2006-01-02", startDateStr)
	if err != nil {
		return badRequest(c, "Invalid start_date format. Use YYYY-MM-DD.")
	}
	endDate, err := time.Parse("2006-01-02", endDateStr)
	if err != nil {
		return badRequest(c, "Invalid end_date format. Use YYYY-MM-DD.")
	}
	endOfDay := endDate.Add(24*time.Hour - time.Nanosecond)

	status, err := parseStatusFilter(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	payments, err := h.reports.Payments(c.UserContext(), startDate, endOfDay, status)
	if err != nil {
		return respondError(c, err)
	}

	b := new(bytes.Buffer)
	name := fmt.Sprintf("payments_%s_to_%s", startDate.Format("2006-01-02"), endDate.Format("2006-01-02"))
	switch c.Query("format", "csv") {
	case "csv":
		if err := h.reports.WriteCSV(b, payments); err != nil {
			return respondError(c, err)
		}
		c.Set(fiber.HeaderContentType, "text/csv")
		name += ".csv"
	case "xlsx":
		if err := h.reports.WriteXLSX(b, payments); err != nil {
			return respondError(c, err)
		}
		c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		name += ".xlsx"
	default:
		return badRequest(c, "format must be csv or xlsx")
	}

	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=\"%s\"", name))
	return c.Send(b.Bytes())
}

type DashboardResponse struct {
	TotalPayments    int64                          `json:"total_payments"`
	ByStatus         map[models.PaymentStatus]int64 `json:"by_status"`
	ConfirmedRevenue float64                        `json:"confirmed_revenue"`
	DuplicateGroups  int                            `json:"duplicate_groups"`
	FeedClients      int                            `json:"feed_clients"`
}

func (h *Handler) AdminGetDashboard(c *fiber.Ctx) error {
	stats, err := h.payments.Stats(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	groups, err := h.payments.DuplicateGroups(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}

	response := DashboardResponse{
		ByStatus:         stats.ByStatus,
		ConfirmedRevenue: stats.ConfirmedRevenue,
		DuplicateGroups:  len(groups),
	}
	for _, n := range stats.ByStatus {
		response.TotalPayments += n
	}
	if h.hub != nil {
		response.FeedClients = h.hub.ClientCount()
	}
	return c.JSON(response)
}

// AdminFeed streams payment notices to an admin review session until the
// client disconnects.
func (h *Handler) AdminFeed(c *websocketcontrib.Conn) {
	adminID := "unknown"
	if id, ok := c.Locals("admin_id").(string); ok && id != "" {
		adminID = id
	}

	client := &websocket.Client{AdminID: adminID, Conn: c}
	h.hub.Register(client)
	defer func() {
		h.hub.Unregister(client)
		c.Close()
	}()

	for {
		if _, _, err := c.ReadMessage(); err != nil {
			if !websocketcontrib.IsCloseError(err, websocketcontrib.CloseGoingAway, websocketcontrib.CloseNormalClosure) {
				log.Printf("Admin feed read error for %s: %v", adminID, err)
			}
			return
		}
	}
}
