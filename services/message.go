package services

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

type MessageInput struct {
	ProductTitle string
	Amount       float64
	UserName     string
	UserPhone    string
	PaymentID    string
}

// ComposeMessage builds the WhatsApp text a student sends after paying.
// Blank inputs leave the matching line blank.
func ComposeMessage(in MessageInput) string {
	var b strings.Builder
	b.WriteString("Hello Legendary IAS Mentor,\n\n")
	b.WriteString("I have made a UPI payment for:\n")
	fmt.Fprintf(&b, "Product: %s\n", in.ProductTitle)
	fmt.Fprintf(&b, "Amount: %s\n", formatAmount(in.Amount))
	fmt.Fprintf(&b, "Name: %s\n", in.UserName)
	fmt.Fprintf(&b, "Phone: %s\n", in.UserPhone)
	fmt.Fprintf(&b, "Payment ID: %s\n\n", in.PaymentID)
	b.WriteString("Please find the payment screenshot attached.")
	return b.String()
}

func formatAmount(amount float64) string {
	if amount <= 0 {
		return ""
	}
	return "₹" + strconv.FormatFloat(amount, 'f', -1, 64)
}

// DeepLink returns <baseURL>/<contact>?text=<text>, percent-encoding spaces
// as %20 so every WhatsApp client renders them.
func DeepLink(baseURL, contact, text string) string {
	escaped := strings.ReplaceAll(url.QueryEscape(text), "+", "%20")
	return fmt.Sprintf("%s/%s?text=%s", strings.TrimRight(baseURL, "/"), contact, escaped)
}
