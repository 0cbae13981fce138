package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/MikeMC777/storefront/internal/config"
	"github.com/MikeMC777/storefront/internal/events"
	"github.com/MikeMC777/storefront/internal/notify"
)

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func main() {
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mailer := notify.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.MailFrom, cfg.SMTPTimeout)
	direct := notify.NewDirect(mailer, cfg.ShopName, cfg.OpsMailbox)

	group := getenv("NOTIFIER_GROUP", "storefront-notifier")
	workers, err := strconv.Atoi(getenv("NOTIFIER_WORKERS", "4"))
	if err != nil || workers <= 0 {
		workers = 4
	}
	cons := events.NewConsumer(cfg.KafkaBrokers, group, events.TopicOrderPaid, workers)

	done := make(chan struct{})
	go func() {
		defer close(done)
		log.Printf("notifier consumer started: group=%s topic=%s workers=%d", group, events.TopicOrderPaid, workers)
		if err := cons.Start(ctx, notify.Relay(direct)); err != nil {
			log.Printf("consumer exit: %v", err)
			cancel()
		}
	}()

	// graceful shutdown
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sig:
	case <-ctx.Done():
	}
	log.Println("shutting down consumer...")
	cancel()
	<-done
}
