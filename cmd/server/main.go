package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"storefront_back_end/internal/auth"
	"storefront_back_end/internal/cache"
	"storefront_back_end/internal/config"
	"storefront_back_end/internal/database"
	"storefront_back_end/internal/handlers"
	"storefront_back_end/internal/middleware"
	"storefront_back_end/internal/routes"
	"storefront_back_end/internal/services"
	"storefront_back_end/internal/store"
)

func main() {
	config.Load()
	cfg := config.FromEnv()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("❌ Configuration invalide: %v", err)
	}

	ctx := context.Background()

	db, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatalf("❌ Base de données: %v", err)
	}
	defer db.Close(context.Background())

	if cfg.StripeSecretKey == "" {
		log.Println("⚠️ STRIPE_SECRET_KEY manquant, les paiements échoueront")
	}

	h := &handlers.Handler{
		Store:        db,
		Tokens:       auth.NewManager(cfg.JWTSecret, auth.DefaultTTL),
		Payments:     services.NewStripeGateway(cfg.StripeSecretKey, cfg.Currency, cfg.StripeWebhookSecret),
		CookieSecure: cfg.CookieSecure,
	}

	r := gin.Default()
	r.Use(middleware.RequestID())
	r.Use(cors.New(corsConfig(cfg)))

	redisClient, err := database.ConnectRedis(ctx, cfg)
	if err != nil {
		log.Printf("⚠️ Redis indisponible, cache désactivé: %v", err)
	}
	if redisClient != nil {
		rc := cache.NewRedis(redisClient)
		defer rc.Close()
		h.Cache = rc
		r.Use(middleware.APIRateLimit(rc, cfg.RateLimit, time.Minute))
	}

	es, err := database.ConnectElastic(cfg)
	if err != nil {
		log.Printf("⚠️ Elasticsearch indisponible: %v", err)
	}
	if es != nil {
		h.Search = services.NewProductIndex(es)
	}

	mc, err := database.ConnectMinIO(ctx, cfg)
	if err != nil {
		log.Printf("⚠️ MinIO indisponible: %v", err)
	}
	if mc != nil {
		h.Photos = services.NewPhotoStorage(mc, cfg.MinIOBucket)
	}

	if cfg.SMTPHost != "" {
		h.Mailer = services.NewMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPFrom)
		log.Println("✅ Envoi des reçus par e-mail activé")
	}

	routes.RegisterRoutes(r, h, middleware.Authenticate(h.Tokens, db))

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Println("🚀 Serveur lancé sur le port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("❌ Serveur: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("🛑 Arrêt du serveur...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("❌ Arrêt forcé: %v", err)
	}
}

func openStore(ctx context.Context, cfg config.Config) (store.Store, error) {
	if cfg.StoreDriver == "memory" {
		log.Println("⚠️ Store en mémoire : les données ne survivent pas au redémarrage")
		return store.NewMemory(), nil
	}

	client, err := database.ConnectMongo(ctx, cfg)
	if err != nil {
		return nil, err
	}
	m := store.NewMongo(client, cfg.DatabaseName, cfg.MongoTransactions)
	if err := m.EnsureIndexes(ctx); err != nil {
		log.Printf("⚠️ Création des index: %v", err)
	}
	return m, nil
}

// Le cookie de session exige AllowCredentials, donc pas de joker "*".
func corsConfig(cfg config.Config) cors.Config {
	c := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Idempotency-Key", "X-Request-ID"},
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.CORSOrigins) > 0 {
		c.AllowOrigins = cfg.CORSOrigins
	} else {
		c.AllowOriginFunc = func(origin string) bool { return true }
	}
	return c
}
