package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/legendaryias/ias_mentor/database"
	"github.com/legendaryias/ias_mentor/handlers"
	"github.com/legendaryias/ias_mentor/models"
	"github.com/legendaryias/ias_mentor/routes"
	"github.com/legendaryias/ias_mentor/store"
)

const (
	adminEmail    = "admin@legendaryias.in"
	adminPassword = "s3cret-pass"
)

func newTestApp(t *testing.T) (*fiber.App, *store.MemoryStore) {
	t.Helper()
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("ADMIN_EMAIL", adminEmail)
	t.Setenv("ADMIN_PASSWORD", adminPassword)
	t.Setenv("DEFAULT_UPI_ID", "mentor@upi")
	t.Setenv("WHATSAPP_NUMBER", "911234567890")

	st := store.NewMemoryStore()
	if err := database.SeedAdmin(context.Background(), st); err != nil {
		t.Fatal(err)
	}
	return routes.NewApp(handlers.NewHandler(st, nil, nil), false), st
}

func call(t *testing.T, app *fiber.App, method, path string, body interface{}, token string) (*http.Response, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	return resp, data
}

func decode(t *testing.T, data []byte) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("decode %s: %v", data, err)
	}
	return out
}

func login(t *testing.T, app *fiber.App) string {
	t.Helper()
	resp, data := call(t, app, "POST", "/api/v1/auth/admin/login",
		map[string]string{"email": adminEmail, "password": adminPassword}, "")
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("login status %d: %s", resp.StatusCode, data)
	}
	token, _ := decode(t, data)["token"].(string)
	if token == "" {
		t.Fatal("login returned no token")
	}
	return token
}

func intakeBody(userID, productID, category string) map[string]interface{} {
	return map[string]interface{}{
		"userId":          userID,
		"userEmail":       "asha@example.com",
		"userName":        "Asha Verma",
		"userPhone":       "9876500000",
		"productId":       productID,
		"productTitle":    "UPSC Prelims Foundation",
		"productCategory": category,
		"amount":          9500,
	}
}

func requestPayment(t *testing.T, app *fiber.App, userID, productID, category string) map[string]interface{} {
	t.Helper()
	resp, data := call(t, app, "POST", "/api/v1/payments/request", intakeBody(userID, productID, category), "")
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("intake status %d: %s", resp.StatusCode, data)
	}
	return decode(t, data)
}

func TestPaymentIntake(t *testing.T) {
	app, _ := newTestApp(t)

	first := requestPayment(t, app, "U1", "P1", "course")
	id, _ := first["paymentId"].(string)
	if first["success"] != true || first["existing"] != false || !strings.HasPrefix(id, "PAY_") {
		t.Fatalf("unexpected intake response %v", first)
	}
	if first["upiId"] != "mentor@upi" {
		t.Fatalf("upiId = %v", first["upiId"])
	}
	if url, _ := first["whatsappUrl"].(string); !strings.HasPrefix(url, "https://wa.me/911234567890?text=") {
		t.Fatalf("whatsappUrl = %s", url)
	}

	second := requestPayment(t, app, "U1", "P1", "course")
	if second["paymentId"] != id || second["existing"] != true {
		t.Fatalf("second intake = %v, want existing %s", second, id)
	}
}

func TestPaymentIntakeValidation(t *testing.T) {
	app, st := newTestApp(t)

	body := intakeBody("U1", "P1", "course")
	delete(body, "userEmail")
	resp, data := call(t, app, "POST", "/api/v1/payments/request", body, "")
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("status %d: %s", resp.StatusCode, data)
	}
	out := decode(t, data)
	if out["success"] != false || !strings.Contains(out["error"].(string), "userEmail") {
		t.Fatalf("unexpected error body %v", out)
	}
	all, _ := st.ListPayments(context.Background(), store.PaymentFilter{})
	if len(all) != 0 {
		t.Fatalf("invalid intake wrote %d payments", len(all))
	}
}

func TestPaymentStatusQuery(t *testing.T) {
	app, _ := newTestApp(t)
	id := requestPayment(t, app, "U1", "P1", "course")["paymentId"].(string)

	tests := []struct {
		path string
		want int
	}{
		{"/api/v1/payments/" + id, fiber.StatusBadRequest},
		{"/api/v1/payments/" + id + "?userId=U2", fiber.StatusForbidden},
		{"/api/v1/payments/PAY_0_MISSING?userId=U1", fiber.StatusNotFound},
		{"/api/v1/payments/" + id + "?userId=U1", fiber.StatusOK},
	}
	for _, tt := range tests {
		resp, data := call(t, app, "GET", tt.path, nil, "")
		if resp.StatusCode != tt.want {
			t.Errorf("GET %s = %d, want %d (%s)", tt.path, resp.StatusCode, tt.want, data)
		}
	}

	_, data := call(t, app, "GET", "/api/v1/payments/"+id+"?userId=U1", nil, "")
	if decode(t, data)["status"] != "pending" {
		t.Fatalf("status body %s", data)
	}
}

func TestAdminRoutesRequireSession(t *testing.T) {
	app, st := newTestApp(t)

	resp, _ := call(t, app, "POST", "/api/v1/admin/payments/cleanup", nil, "")
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("no token: status %d", resp.StatusCode)
	}
	resp, _ = call(t, app, "POST", "/api/v1/admin/payments/cleanup", nil, "not-a-jwt")
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("bad token: status %d", resp.StatusCode)
	}

	resp, _ = call(t, app, "POST", "/api/v1/auth/admin/login",
		map[string]string{"email": adminEmail, "password": "wrong"}, "")
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("wrong password: status %d", resp.StatusCode)
	}

	st.EnsureUser(context.Background(), &models.User{ID: "U9", Email: "student@example.com", FullName: "Student", Role: models.RoleStudent})
	resp, _ = call(t, app, "POST", "/api/v1/auth/admin/login",
		map[string]string{"email": "student@example.com", "password": "anything"}, "")
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("student login: status %d", resp.StatusCode)
	}
}

func TestAdminConfirmGrantsAccess(t *testing.T) {
	app, _ := newTestApp(t)
	token := login(t, app)
	id := requestPayment(t, app, "U1", "M1", "material")["paymentId"].(string)

	resp, data := call(t, app, "GET", "/api/v1/payments/"+id+"/receipt?userId=U1", nil, "")
	if resp.StatusCode != fiber.StatusConflict {
		t.Fatalf("pending receipt status %d: %s", resp.StatusCode, data)
	}

	update := map[string]string{"status": "confirmed", "transactionId": "UTR42"}
	for i := 0; i < 2; i++ {
		resp, data = call(t, app, "PUT", "/api/v1/admin/payments/"+id+"/status", update, token)
		if resp.StatusCode != fiber.StatusOK {
			t.Fatalf("confirm #%d status %d: %s", i+1, resp.StatusCode, data)
		}
	}

	resp, data = call(t, app, "GET", "/api/v1/users/U1/materials", nil, "")
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("materials status %d", resp.StatusCode)
	}
	materials, _ := decode(t, data)["purchased_materials"].([]interface{})
	if len(materials) != 1 {
		t.Fatalf("purchased materials = %s", data)
	}

	resp, _ = call(t, app, "POST", "/api/v1/users/U1/materials/M1/download", nil, "")
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("download status %d", resp.StatusCode)
	}

	resp, data = call(t, app, "GET", "/api/v1/payments/"+id+"/receipt?userId=U1", nil, "")
	if resp.StatusCode != fiber.StatusOK || resp.Header.Get("Content-Type") != "application/pdf" {
		t.Fatalf("receipt status %d type %q", resp.StatusCode, resp.Header.Get("Content-Type"))
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Fatal("receipt is not a PDF")
	}

	resp, data = call(t, app, "PUT", "/api/v1/admin/payments/"+id+"/status", map[string]string{"status": "rejected"}, token)
	if resp.StatusCode != fiber.StatusConflict {
		t.Fatalf("confirmed -> rejected status %d: %s", resp.StatusCode, data)
	}
}

func TestAdminRejectLeavesProfileUntouched(t *testing.T) {
	app, _ := newTestApp(t)
	token := login(t, app)
	id := requestPayment(t, app, "U1", "P1", "course")["paymentId"].(string)

	resp, data := call(t, app, "PUT", "/api/v1/admin/payments/"+id+"/status",
		map[string]string{"status": "rejected", "notes": "duplicate transaction"}, token)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("reject status %d: %s", resp.StatusCode, data)
	}
	payment, _ := decode(t, data)["payment"].(map[string]interface{})
	if payment["status"] != "rejected" || payment["notes"] != "duplicate transaction" {
		t.Fatalf("payment after reject = %v", payment)
	}

	_, data = call(t, app, "GET", "/api/v1/users/U1/enrollments", nil, "")
	if courses, _ := decode(t, data)["enrolled_courses"].([]interface{}); len(courses) != 0 {
		t.Fatalf("reject granted access: %s", data)
	}

	resp, _ = call(t, app, "PUT", "/api/v1/admin/payments/PAY_0_MISSING/status", map[string]string{"status": "confirmed"}, token)
	if resp.StatusCode != fiber.StatusNotFound {
		t.Fatalf("unknown payment status %d", resp.StatusCode)
	}
	resp, _ = call(t, app, "PUT", "/api/v1/admin/payments/"+id+"/status", map[string]string{"status": "refunded"}, token)
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("unknown status value: %d", resp.StatusCode)
	}
}

func TestAdminDuplicateCleanup(t *testing.T) {
	app, st := newTestApp(t)
	token := login(t, app)

	now := time.Now()
	dup := func(id string, age time.Duration) models.Payment {
		return models.Payment{
			ID: id, UserID: "U1", UserEmail: "asha@example.com", UserName: "Asha",
			ProductID: "P1", ProductTitle: "Prelims", ProductCategory: models.CategoryCourse,
			Amount: 9500, Currency: "INR", UPIID: "mentor@upi", Status: models.PaymentPending,
			CreatedAt: now.Add(-age), UpdatedAt: now.Add(-age),
		}
	}
	st.Seed(dup("PAY_1_OLDEST", 3*time.Hour), dup("PAY_2_NEWER", time.Hour))

	resp, data := call(t, app, "GET", "/api/v1/admin/payments/duplicates", nil, token)
	if resp.StatusCode != fiber.StatusOK || decode(t, data)["count"] != float64(1) {
		t.Fatalf("duplicates %d: %s", resp.StatusCode, data)
	}

	resp, data = call(t, app, "POST", "/api/v1/admin/payments/cleanup", nil, token)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("cleanup status %d: %s", resp.StatusCode, data)
	}
	if removed := decode(t, data)["removed"]; removed != float64(1) {
		t.Fatalf("removed = %v", removed)
	}
	if _, err := st.GetPayment(context.Background(), "PAY_1_OLDEST"); err != nil {
		t.Fatalf("oldest payment removed: %v", err)
	}

	_, data = call(t, app, "GET", "/api/v1/admin/payments?group=status", nil, token)
	grouped := decode(t, data)
	counts, _ := grouped["counts"].(map[string]interface{})
	if counts["pending"] != float64(1) || counts["expired"] != float64(0) {
		t.Fatalf("grouped counts = %v", counts)
	}
}

func TestAdminExportAndDashboard(t *testing.T) {
	app, _ := newTestApp(t)
	token := login(t, app)
	requestPayment(t, app, "U1", "P1", "course")

	resp, data := call(t, app, "GET", "/api/v1/admin/payments/export?format=csv", nil, token)
	if resp.StatusCode != fiber.StatusOK || resp.Header.Get("Content-Type") != "text/csv" {
		t.Fatalf("csv export %d %q", resp.StatusCode, resp.Header.Get("Content-Type"))
	}
	if lines := strings.Split(strings.TrimSpace(string(data)), "\n"); len(lines) != 2 {
		t.Fatalf("csv lines = %d:\n%s", len(lines), data)
	}

	resp, _ = call(t, app, "GET", "/api/v1/admin/payments/export?format=pdf", nil, token)
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("unsupported format status %d", resp.StatusCode)
	}
	resp, _ = call(t, app, "GET", "/api/v1/admin/payments/export?start_date=yesterday", nil, token)
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("bad date status %d", resp.StatusCode)
	}

	resp, data = call(t, app, "GET", "/api/v1/admin/dashboard", nil, token)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("dashboard status %d", resp.StatusCode)
	}
	dash := decode(t, data)
	if dash["total_payments"] != float64(1) {
		t.Fatalf("dashboard = %v", dash)
	}
}

func TestCatalogRoutes(t *testing.T) {
	app, _ := newTestApp(t)
	token := login(t, app)

	resp, data := call(t, app, "POST", "/api/v1/admin/products", map[string]interface{}{
		"title": "Polity Notes", "category": "material", "price": 499,
	}, token)
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("create product %d: %s", resp.StatusCode, data)
	}
	id := decode(t, data)["id"].(string)

	resp, data = call(t, app, "GET", "/api/v1/products?category=material", nil, "")
	var products []map[string]interface{}
	json.Unmarshal(data, &products)
	if resp.StatusCode != fiber.StatusOK || len(products) != 1 || products[0]["slug"] != "polity-notes" {
		t.Fatalf("public list %d: %s", resp.StatusCode, data)
	}

	resp, _ = call(t, app, "DELETE", "/api/v1/admin/products/"+id, nil, token)
	if resp.StatusCode != fiber.StatusNoContent {
		t.Fatalf("deactivate status %d", resp.StatusCode)
	}
	resp, _ = call(t, app, "GET", "/api/v1/products/"+id, nil, "")
	if resp.StatusCode != fiber.StatusNotFound {
		t.Fatalf("inactive product status %d", resp.StatusCode)
	}
}

func TestHealth(t *testing.T) {
	app, _ := newTestApp(t)
	resp, _ := call(t, app, "GET", "/health", nil, "")
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("health status %d", resp.StatusCode)
	}
	resp, data := call(t, app, "GET", "/metrics", nil, "")
	if resp.StatusCode != fiber.StatusOK || !bytes.Contains(data, []byte("ias_http_requests_total")) {
		t.Fatalf("metrics status %d", resp.StatusCode)
	}
}
