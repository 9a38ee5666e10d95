package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

var loadOnce sync.Once

// Config returns the value of key from the process environment. A .env file
// in the working directory is loaded the first time any key is read.
func Config(key string) string {
	loadOnce.Do(func() {
		if err := godotenv.Load(".env"); err != nil {
			log.Println("Warning: .env file not found, reading from system environment variables")
		}
	})

	return strings.TrimSpace(os.Getenv(key))
}

// Get is Config with a fallback for unset or blank keys.
func Get(key, fallback string) string {
	if v := Config(key); v != "" {
		return v
	}
	return fallback
}

func GetInt(key string, fallback int) int {
	v := Config(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("⚠️ %s=%q is not an integer, using %d", key, v, fallback)
		return fallback
	}
	return n
}

func GetDuration(key string, fallback time.Duration) time.Duration {
	v := Config(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("⚠️ %s=%q is not a duration, using %s", key, v, fallback)
		return fallback
	}
	return d
}

// Defaults used when the environment does not override them.
const (
	DefaultUPIID          = "legendaryiasmentor@ybl"
	DefaultWhatsAppNumber = "919876543210"
	DefaultWhatsAppBase   = "https://wa.me"
	DefaultCurrency       = "INR"
)

func UPIID() string          { return Get("DEFAULT_UPI_ID", DefaultUPIID) }
func WhatsAppNumber() string { return Get("WHATSAPP_NUMBER", DefaultWhatsAppNumber) }
func WhatsAppBaseURL() string {
	return strings.TrimRight(Get("WHATSAPP_BASE_URL", DefaultWhatsAppBase), "/")
}
