package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/MikeMC777/storefront/internal/auth"
	"github.com/MikeMC777/storefront/internal/basket"
	"github.com/MikeMC777/storefront/internal/catalog"
	"github.com/MikeMC777/storefront/internal/checkout"
	"github.com/MikeMC777/storefront/internal/contact"
	"github.com/MikeMC777/storefront/internal/config"
	"github.com/MikeMC777/storefront/internal/events"
	"github.com/MikeMC777/storefront/internal/gateway"
	"github.com/MikeMC777/storefront/internal/metrics"
	"github.com/MikeMC777/storefront/internal/notify"
	"github.com/MikeMC777/storefront/internal/order"
	"github.com/MikeMC777/storefront/internal/otp"
	"github.com/MikeMC777/storefront/internal/postgres"
	"github.com/MikeMC777/storefront/internal/redisx"
	"github.com/MikeMC777/storefront/internal/user"
	"github.com/MikeMC777/storefront/internal/wishlist"
)

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer db.Close()
	if err := postgres.Migrate(ctx, db); err != nil {
		log.Fatalf("db migrate: %v", err)
	}

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	mailer := notify.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.MailFrom, cfg.SMTPTimeout)

	// Order confirmations go out inline or through kafka to cmd/notifier.
	var notifier notify.Notifier = notify.NewDirect(mailer, cfg.ShopName, cfg.OpsMailbox)
	var prod *events.Producer
	if cfg.NotifyMode == "kafka" {
		prod = events.NewProducer(cfg.KafkaBrokers, events.TopicOrderPaid, 1024)
		prod.Start()
		notifier = notify.NewPublisher(prod, "storefront")
	}

	userRepo := user.NewPGRepo(db)
	orders := order.NewPGRepo(db)
	issuer := auth.NewIssuer(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	users := user.NewService(userRepo, issuer)
	baskets := basket.NewService(basket.NewPGRepo(db))
	m := metrics.NewServerMetrics(prometheus.DefaultRegisterer, "api")

	orch := checkout.New(checkout.Deps{
		Baskets:  baskets,
		Ledger:   orders,
		Gateway:  gateway.NewClient(cfg.GatewayBaseURL, cfg.GatewayKeyID, cfg.GatewayKeySecret, cfg.GatewayTimeout),
		Notifier: notifier,
		Users:    userRepo,
		Metrics:  m,
		Currency: cfg.GatewayCurrency,
	})
	codes := otp.NewService(otp.NewPGStore(db), userRepo, mailer,
		redisx.NewCooldown(rdb, cfg.CodeCooldown), cfg.CodeTTL, cfg.ShopName)

	gin.SetMode(gin.ReleaseMode)
	router := newRouter(&app{
		issuer:   issuer,
		users:    users,
		codes:    codes,
		catalog:  catalog.NewPGRepo(db),
		contact:  contact.NewService(contact.NewPGRepo(db), mailer, cfg.OpsMailbox, cfg.ShopName),
		baskets:  baskets,
		checkout: orch,
		orders:   orders,
		wishlist: wishlist.NewPGRepo(db),
		statuses: redisx.NewStatusCache(rdb),
		metrics:  m,
		shop:     cfg.ShopName,
		origins:  cfg.CORSOrigins,
		ping:     db.Ping,
	})

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		log.Printf("storefront listening on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	gs := startHealth(ctx, cfg.GRPCAddr, db)

	// graceful shutdown
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("shutting down...")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	gs.GracefulStop()
	cancel()
	if prod != nil {
		prod.Close()
		prod.WaitClosed()
	}
}

// startHealth serves grpc.health.v1 on addr, reporting SERVING while the database answers pings.
func startHealth(ctx context.Context, addr string, db *pgxpool.Pool) *grpc.Server {
	gs := grpc.NewServer()
	hs := health.NewServer()
	healthpb.RegisterHealthServer(gs, hs)

	lis, err := net.Listen("tcp", addr)
	if err != nil {
		log.Fatalf("grpc listen: %v", err)
	}
	go func() {
		log.Printf("grpc health listening on %s", addr)
		if err := gs.Serve(lis); err != nil {
			log.Printf("grpc serve: %v", err)
		}
	}()

	go func() {
		t := time.NewTicker(10 * time.Second)
		defer t.Stop()
		for {
			st := healthpb.HealthCheckResponse_SERVING
			pctx, pcancel := context.WithTimeout(ctx, 2*time.Second)
			if err := db.Ping(pctx); err != nil {
				st = healthpb.HealthCheckResponse_NOT_SERVING
			}
			pcancel()
			hs.SetServingStatus("", st)
			select {
			case <-ctx.Done():
				hs.Shutdown()
				return
			case <-t.C:
			}
		}
	}()
	return gs
}
