package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type Config struct {
	Port         string
	StudioName   string
	DBDriver     string // sqlite | mysql
	DBDSN        string
	DBMaxOpen    int
	MediaDir     string
	LogFile      string
	BodyLimitMB  int
	JWTSecret    string
	JWTTTL       time.Duration
	TaxRate      decimal.Decimal
	AdminEmail   string
	AdminPass    string
	Linkage      Linkage
	LowStockCron string
	Notify       Notify
	OTLPEndpoint string
	OTLPInsecure bool
	LoginRateMax int
	BookRateMax  int
}

// Linkage toggles the automatic cross-entity reactions. All off means every
// step is triggered by staff.
type Linkage struct {
	AutoJobCard         bool
	AutoCompleteBooking bool
	AutoInvoice         bool
}

type Notify struct {
	Provider     string // log | webhook | noop
	WebhookURL   string
	WebhookToken string
	Recipient    string
}

func Load() Config {
	// .env is optional; real env vars win.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("[warn] could not read .env: %v", err)
	}

	cfg := Config{
		Port:        getEnv("PORT", "8080"),
		StudioName:  getEnv("STUDIO_NAME", "DetailHub Studio"),
		DBDriver:    strings.ToLower(getEnv("DB_DRIVER", "sqlite")),
		DBDSN:       getEnv("DB_DSN", "detailhub.db"),
		DBMaxOpen:   getEnvInt("DB_MAX_OPEN_CONNS", 10),
		MediaDir:    getEnv("MEDIA_DIR", "./media"),
		LogFile:     getEnv("LOG_FILE", "./detailhub.log"),
		BodyLimitMB: getEnvInt("BODY_LIMIT_MB", 8),
		JWTSecret:   getEnv("JWT_SECRET", "change-me"),
		JWTTTL:      getEnvDuration("JWT_TTL", 12*time.Hour),
		TaxRate:     getEnvDecimal("TAX_RATE", decimal.NewFromFloat(0.18)),
		AdminEmail:  getEnv("ADMIN_EMAIL", "admin@detailhub.local"),
		AdminPass:   getEnv("ADMIN_PASSWORD", "Adm1n!pass"),
		Linkage: Linkage{
			AutoJobCard:         getEnvBool("LINK_AUTO_JOBCARD", false),
			AutoCompleteBooking: getEnvBool("LINK_AUTO_COMPLETE_BOOKING", false),
			AutoInvoice:         getEnvBool("LINK_AUTO_INVOICE", false),
		},
		LowStockCron: getEnv("LOW_STOCK_CRON", ""),
		Notify: Notify{
			Provider:     getEnv("NOTIFY_PROVIDER", "log"),
			WebhookURL:   getEnv("NOTIFY_WEBHOOK_URL", ""),
			WebhookToken: getEnv("NOTIFY_WEBHOOK_TOKEN", ""),
			Recipient:    getEnv("NOTIFY_RECIPIENT", "studio-manager"),
		},
		OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		OTLPInsecure: getEnvBool("OTEL_EXPORTER_OTLP_INSECURE", false),
		LoginRateMax: getEnvInt("RATE_LOGIN_MAX", 5),
		BookRateMax:  getEnvInt("RATE_PUBLIC_BOOKING_MAX", 10),
	}

	log.Printf("[config] PORT=%s DB_DRIVER=%s MEDIA_DIR=%s LOG_FILE=%s TAX_RATE=%s linkage=%+v",
		cfg.Port, cfg.DBDriver, cfg.MediaDir, cfg.LogFile, cfg.TaxRate, cfg.Linkage)
	return cfg
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
		log.Printf("[warn] %s=%q is not an integer, using %d", key, v, fallback)
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func getEnvDecimal(key string, fallback decimal.Decimal) decimal.Decimal {
	if v := os.Getenv(key); v != "" {
		if d, err := decimal.NewFromString(v); err == nil && !d.IsNegative() {
			return d
		}
		log.Printf("[warn] %s=%q is not a valid rate, using %s", key, v, fallback)
	}
	return fallback
}
