package config

import (
	"log"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

var loadEnv sync.Once

// Config returns the value of an environment variable, reading .env the
// first time it is called.
func Config(key string) string {
	loadEnv.Do(func() {
		if err := godotenv.Load(); err != nil {
			log.Println("no .env file found, using system environment")
		}
	})
	return os.Getenv(key)
}

type VNPay struct {
	TmnCode    string
	HashSecret string
	BaseURL    string
	ReturnURL  string
	IPNURL     string
}

type PayPal struct {
	ClientID     string
	ClientSecret string
	BaseURL      string
	ReturnURL    string
	CancelURL    string
	Currency     string
	// VND per one unit of Currency
	VNDRate float64
}

type SMTP struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type Settings struct {
	Env         string
	Port        string
	AppURL      string
	FrontendURL string

	DBHost     string
	DBPort     uint64
	DBUser     string
	DBPassword string
	DBName     string

	RedisAddr     string
	RedisPassword string

	JWTSecret string

	VNPay  VNPay
	PayPal PayPal
	SMTP   SMTP

	BookingHold time.Duration
}

func Load() Settings {
	appURL := withDefault("APP_URL", "http://localhost:8002")

	dbPort, err := strconv.ParseUint(withDefault("DB_PORT", "5432"), 10, 32)
	if err != nil {
		panic("failed to parse database port")
	}

	return Settings{
		Env:         withDefault("APP_ENV", "dev"),
		Port:        withDefault("APP_PORT", "8002"),
		AppURL:      appURL,
		FrontendURL: Config("FRONTEND_URL"),

		DBHost:     withDefault("DB_HOST", "localhost"),
		DBPort:     dbPort,
		DBUser:     Config("DB_USER"),
		DBPassword: Config("DB_PASSWORD"),
		DBName:     Config("DB_NAME"),

		RedisAddr:     withDefault("REDIS_ADDR", "localhost:6379"),
		RedisPassword: Config("REDIS_PASSWORD"),

		JWTSecret: Config("JWT_SECRET"),

		VNPay: VNPay{
			TmnCode:    Config("VNP_TMNCODE"),
			HashSecret: Config("VNP_HASHSECRET"),
			BaseURL:    withDefault("VNP_URL", "https://sandbox.vnpayment.vn/paymentv2/vpcpay.html"),
			ReturnURL:  appURL + "/vnpay/return",
			IPNURL:     appURL + "/vnpay/ipn",
		},
		PayPal: PayPal{
			ClientID:     Config("PAYPAL_CLIENT_ID"),
			ClientSecret: Config("PAYPAL_CLIENT_SECRET"),
			BaseURL:      withDefault("PAYPAL_BASE_URL", "https://api-m.sandbox.paypal.com"),
			ReturnURL:    appURL + "/paypal/return",
			CancelURL:    appURL + "/paypal/cancel",
			Currency:     withDefault("PAYPAL_CURRENCY", "USD"),
			VNDRate:      floatWithDefault("PAYPAL_VND_RATE", 25000),
		},
		SMTP: SMTP{
			Host:     Config("SMTP_HOST"),
			Port:     intWithDefault("SMTP_PORT", 587),
			Username: Config("SMTP_USERNAME"),
			Password: Config("SMTP_PASSWORD"),
			From:     Config("SMTP_FROM"),
		},

		BookingHold: time.Duration(intWithDefault("BOOKING_HOLD_MINUTES", 15)) * time.Minute,
	}
}

func withDefault(key, def string) string {
	if v := Config(key); v != "" {
		return v
	}
	return def
}

func intWithDefault(key string, def int) int {
	v := Config(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("invalid int for %s: %q, using %d", key, v, def)
		return def
	}
	return n
}

func floatWithDefault(key string, def float64) float64 {
	v := Config(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f <= 0 {
		log.Printf("invalid number for %s: %q, using %v", key, v, def)
		return def
	}
	return f
}
