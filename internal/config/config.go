package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Load charge le fichier .env s'il existe. Les variables déjà présentes
// dans l'environnement du processus gardent la priorité.
func Load() {
	err := godotenv.Load(".env")
	if err != nil {
		log.Println("⚠️  Aucun fichier .env trouvé, on continue avec les variables d'environnement du système")
	} else {
		log.Println("✅ Fichier .env chargé avec succès")
	}
}

type Config struct {
	Port string

	StoreDriver       string // "mongo" ou "memory"
	MongoURI          string
	DatabaseName      string
	MongoTransactions bool

	JWTSecret    string
	CookieSecure bool

	StripeSecretKey     string
	StripeWebhookSecret string
	Currency            string

	RedisHost     string
	RedisPassword string
	RateLimit     int

	ElasticURL      string
	ElasticUser     string
	ElasticPassword string

	MinIOEndpoint  string
	MinIOAccessKey string
	MinIOSecretKey string
	MinIOBucket    string
	MinIOUseSSL    bool

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string

	CORSOrigins []string
}

// FromEnv lit la configuration depuis l'environnement du processus.
func FromEnv() Config {
	cfg := Config{
		Port:                getEnv("PORT", "4000"),
		StoreDriver:         getEnv("STORE_DRIVER", "mongo"),
		MongoURI:            os.Getenv("MONGODB_URI"),
		DatabaseName:        getEnv("DB_NAME", "shopDB"),
		MongoTransactions:   getBool("MONGO_TRANSACTIONS", true),
		JWTSecret:           os.Getenv("ACCESS_TOKEN_SECRET"),
		CookieSecure:        getBool("COOKIE_SECURE", true),
		StripeSecretKey:     os.Getenv("STRIPE_SECRET_KEY"),
		StripeWebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),
		Currency:            strings.ToLower(getEnv("PAYMENT_CURRENCY", "usd")),
		RedisHost:           os.Getenv("REDIS_HOST"),
		RedisPassword:       os.Getenv("REDIS_PASSWORD"),
		RateLimit:           getInt("API_RATE_LIMIT", 100),
		ElasticURL:          os.Getenv("ELASTIC_URL"),
		ElasticUser:         os.Getenv("ELASTIC_USER"),
		ElasticPassword:     os.Getenv("ELASTIC_PASSWORD"),
		MinIOEndpoint:       os.Getenv("MINIO_ENDPOINT"),
		MinIOAccessKey:      os.Getenv("MINIO_ACCESS_KEY"),
		MinIOSecretKey:      os.Getenv("MINIO_SECRET_KEY"),
		MinIOBucket:         getEnv("MINIO_BUCKET", "product-photos"),
		MinIOUseSSL:         getBool("MINIO_USE_SSL", false),
		SMTPHost:            os.Getenv("SMTP_HOST"),
		SMTPPort:            getInt("SMTP_PORT", 587),
		SMTPUsername:        os.Getenv("SMTP_USERNAME"),
		SMTPPassword:        os.Getenv("SMTP_PASSWORD"),
		SMTPFrom:            os.Getenv("SMTP_FROM"),
		CORSOrigins:         splitList(os.Getenv("CORS_ORIGINS")),
	}

	if cfg.MongoURI == "" && os.Getenv("DB_USER") != "" {
		cfg.MongoURI = fmt.Sprintf("mongodb+srv://%s:%s@%s/?retryWrites=true&w=majority",
			os.Getenv("DB_USER"), os.Getenv("DB_PASS"), getEnv("DB_HOST", "localhost"))
	}
	return cfg
}

// Validate vérifie les réglages sans lesquels le serveur ne peut pas démarrer.
func (c Config) Validate() error {
	var errs []error
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("ACCESS_TOKEN_SECRET manquant"))
	}
	switch c.StoreDriver {
	case "mongo":
		if c.MongoURI == "" {
			errs = append(errs, errors.New("MONGODB_URI ou DB_USER/DB_PASS manquant"))
		}
	case "memory":
	default:
		errs = append(errs, fmt.Errorf("STORE_DRIVER inconnu: %q", c.StoreDriver))
	}
	return errors.Join(errs...)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func getInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
