package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Settings holds everything read from the environment at startup.
type Settings struct {
	Port     string
	DBDriver string
	DBURL    string

	JWTSecret string
	JWTExpiry time.Duration

	Location    *time.Location
	PhoneRegion string

	RedisAddr string

	GCSBucket          string
	GCSCredentialsJSON string
	UploadDir          string
	UploadBaseURL      string

	TwilioAccountSID     string
	TwilioAuthToken      string
	TwilioPhoneNumber    string
	TwilioWhatsAppNumber string
	ReminderCron         string

	CORSOrigins []string
	LogLevel    string
}

// Load reads .env (if present) and the process environment.
func Load() (*Settings, error) {
	if err := godotenv.Load(); err != nil {
		GetLogger().Debug("No .env file found")
	}

	tz := stringFromEnv("APP_TIMEZONE", "America/Asuncion")
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("invalid APP_TIMEZONE %q: %w", tz, err)
	}

	s := &Settings{
		Port:                 stringFromEnv("PORT", "8080"),
		DBDriver:             stringFromEnv("DB_DRIVER", "postgres"),
		DBURL:                os.Getenv("DB_URL"),
		JWTSecret:            os.Getenv("JWT_SECRET"),
		JWTExpiry:            time.Duration(intFromEnv("JWT_EXPIRY_HOURS", 24)) * time.Hour,
		Location:             loc,
		PhoneRegion:          stringFromEnv("PHONE_REGION", "PY"),
		RedisAddr:            os.Getenv("REDIS_ADDR"),
		GCSBucket:            os.Getenv("GCS_BUCKET"),
		GCSCredentialsJSON:   os.Getenv("GCS_CREDENTIALS_JSON"),
		UploadDir:            stringFromEnv("UPLOAD_DIR", "uploads"),
		UploadBaseURL:        stringFromEnv("UPLOAD_BASE_URL", "/uploads"),
		TwilioAccountSID:     os.Getenv("TWILIO_ACCOUNT_SID"),
		TwilioAuthToken:      os.Getenv("TWILIO_AUTH_TOKEN"),
		TwilioPhoneNumber:    os.Getenv("TWILIO_PHONE_NUMBER"),
		TwilioWhatsAppNumber: os.Getenv("TWILIO_WHATSAPP_NUMBER"),
		ReminderCron:         stringFromEnv("REMINDER_CRON", "0 18 * * *"),
		CORSOrigins:          listFromEnv("CORS_ORIGINS", []string{"http://localhost:5173", "http://localhost:3000"}),
		LogLevel:             stringFromEnv("LOG_LEVEL", "info"),
	}
	return s, nil
}

// Now returns the current time in the business timezone.
func (s *Settings) Now() time.Time {
	return time.Now().In(s.Location)
}

// TwilioEnabled reports whether reminder delivery credentials are configured.
func (s *Settings) TwilioEnabled() bool {
	return s.TwilioAccountSID != "" && s.TwilioAuthToken != ""
}

func stringFromEnv(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func intFromEnv(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func listFromEnv(key string, def []string) []string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
