package configs

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

var (
	JWTSecret string

	// Payment gateway settings
	PaymentProvider    string // "stripe" | "midtrans"
	StripeSecretKey    string
	MidtransServerKey  string
	MidtransProduction bool

	DonationCurrency   string
	CheckoutSuccessURL string
	CheckoutCancelURL  string
)

// =======================
// ENV LOADER
// =======================
func LoadEnv() {
	if os.Getenv("RAILWAY_ENVIRONMENT") == "" {
		if err := godotenv.Load(); err != nil {
			log.Println("[WARN] .env file not found, using system ENV")
		} else {
			log.Println("[INFO] .env file loaded")
		}
	} else {
		log.Println("[INFO] Running in Railway, using system ENV")
	}

	JWTSecret = GetEnv("JWT_SECRET")

	PaymentProvider = GetEnv("PAYMENT_PROVIDER", "stripe")
	StripeSecretKey = GetEnv("STRIPE_SECRET_KEY")
	MidtransServerKey = GetEnv("MIDTRANS_SERVER_KEY")
	MidtransProduction = getBool("MIDTRANS_USE_PROD", false)

	DonationCurrency = GetEnv("DONATION_CURRENCY", "usd")
	CheckoutSuccessURL = GetEnv("CHECKOUT_SUCCESS_URL", "http://localhost:3000/donations/result")
	CheckoutCancelURL = GetEnv("CHECKOUT_CANCEL_URL", "http://localhost:3000/donations/result")

	if JWTSecret == "" {
		log.Println("[ERROR] JWT_SECRET is not set!")
	}
	if PaymentProvider == "stripe" && StripeSecretKey == "" {
		log.Println("[ERROR] STRIPE_SECRET_KEY is not set!")
	}
	if PaymentProvider == "midtrans" && MidtransServerKey == "" {
		log.Println("[ERROR] MIDTRANS_SERVER_KEY is not set!")
	}
}

func GetEnv(key string, defaultValue ...string) string {
	value, exists := os.LookupEnv(key)
	if !exists && len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return value
}

func getBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}
