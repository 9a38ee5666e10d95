package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	config "github.com/legendaryias/ias_mentor/configs"
	"github.com/legendaryias/ias_mentor/database"
	"github.com/legendaryias/ias_mentor/handlers"
	"github.com/legendaryias/ias_mentor/jobs"
	"github.com/legendaryias/ias_mentor/notifications"
	"github.com/legendaryias/ias_mentor/routes"
	"github.com/legendaryias/ias_mentor/services"
	"github.com/legendaryias/ias_mentor/websocket"
	"github.com/robfig/cron/v3"
)

func main() {
	st, err := database.OpenStore(config.Get("STORE_DRIVER", "postgres"), config.Config("DATABASE_URL"))
	if err != nil {
		log.Fatalf("🔥 Failed to open store: %v", err)
	}
	if err := database.SeedAdmin(context.Background(), st); err != nil {
		log.Fatalf("🔥 %v", err)
	}
	notifications.InitEmailService()

	events := services.NewEventPublisher(config.Config("KAFKA_BROKERS"), config.Get("KAFKA_TOPIC", "payments"))
	defer events.Close()

	hub := websocket.NewHub()
	go hub.Run()

	h := handlers.NewHandler(st, events, hub)

	c := cron.New()
	if hours := config.GetInt("PAYMENT_EXPIRY_HOURS", 0); hours > 0 {
		c.AddFunc("@every 15m", jobs.ExpireStalePayments(h.Payments(), time.Duration(hours)*time.Hour))
		log.Printf("✅ Cron job for payment expiry scheduled (%dh).", hours)
	}
	c.AddFunc("0 9,18 * * *", jobs.SendPendingDigest(h.Payments(), 6*time.Hour))
	c.Start()
	defer c.Stop()

	app := routes.NewApp(h, true)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		log.Println("Shutting down server...")
		hub.Stop()
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Printf("⚠️ Shutdown error: %v", err)
		}
	}()

	port := config.Get("PORT", "8080")
	log.Printf("✅ Server is running on port %s", port)
	if err := app.Listen(":" + port); err != nil {
		log.Fatalf("🔥 Server failed to start: %v", err)
	}
}
