package config

import (
	"classrent/src/types"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"
)

// const dsn = "host=localhost user=postgres password=password dbname=classrent port=5432 sslmode=disable TimeZone=UTC"

var (
	API_ENV    = types.Local
	PORT       = "9090"
	JWT_SECRET = ""

	REDIS_HOST   = ""
	KAFKA_BROKER = ""

	NOTIFY_DRIVER  = "smtp"
	SMTP_HOST      = ""
	SMTP_PORT      = 587
	SMTP_USERNAME  = ""
	SMTP_PASSWORD  = ""
	MAIL_FROM      = "classrent2025@gmail.com"
	MAIL_FROM_NAME = "ClassRent"
	EMAIL_QUEUE    = "EmailsToSend"

	BOOKING_TIMEZONE          = "UTC"
	MIRROR_RECONCILE_INTERVAL = 15 * time.Minute
)

// Load reads the process environment into the package settings. Unset variables keep their defaults.
func Load() {
	API_ENV = types.Environment(getenv("API_ENV", string(API_ENV)))
	PORT = getenv("PORT", PORT)
	JWT_SECRET = getenv("JWT_SECRET", JWT_SECRET)
	REDIS_HOST = getenv("REDIS_HOST", REDIS_HOST)
	KAFKA_BROKER = getenv("KAFKA_BROKER", KAFKA_BROKER)
	NOTIFY_DRIVER = getenv("NOTIFY_DRIVER", NOTIFY_DRIVER)
	SMTP_HOST = getenv("SMTP_HOST", SMTP_HOST)
	SMTP_USERNAME = getenv("SMTP_USERNAME", SMTP_USERNAME)
	SMTP_PASSWORD = getenv("SMTP_PASSWORD", SMTP_PASSWORD)
	MAIL_FROM = getenv("MAIL_FROM", MAIL_FROM)
	MAIL_FROM_NAME = getenv("MAIL_FROM_NAME", MAIL_FROM_NAME)
	EMAIL_QUEUE = getenv("EMAIL_QUEUE", EMAIL_QUEUE)
	BOOKING_TIMEZONE = getenv("BOOKING_TIMEZONE", BOOKING_TIMEZONE)

	if v := os.Getenv("SMTP_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			log.Printf("Invalid SMTP_PORT %q, keeping %d: %s\n", v, SMTP_PORT, err.Error())
		} else {
			SMTP_PORT = port
		}
	}
	if v := os.Getenv("MIRROR_RECONCILE_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			log.Printf("Invalid MIRROR_RECONCILE_INTERVAL %q, keeping %s\n", v, MIRROR_RECONCILE_INTERVAL)
		} else {
			MIRROR_RECONCILE_INTERVAL = d
		}
	}
}

func getenv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func GetDSN() string {
	DATABASE_HOST := os.Getenv("DATABASE_HOST")
	DATABASE_PORT := os.Getenv("DATABASE_PORT")
	DATABASE_SSLMODE := os.Getenv("DATABASE_SSLMODE")
	DATABASE_TIMEZONE := os.Getenv("DATABASE_TIMEZONE")
	DATABASE_USER := os.Getenv("DATABASE_USER")
	DATABASE_PASSWORD := os.Getenv("DATABASE_PASSWORD")
	DATABASE_NAME := os.Getenv("DATABASE_NAME")
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s", DATABASE_HOST, DATABASE_USER, DATABASE_PASSWORD, DATABASE_NAME, DATABASE_PORT, DATABASE_SSLMODE, DATABASE_TIMEZONE)
	return dsn
}

// BookingLocation is the zone operating hours are expressed in.
func BookingLocation() *time.Location {
	loc, err := time.LoadLocation(BOOKING_TIMEZONE)
	if err != nil {
		log.Printf("Unknown BOOKING_TIMEZONE %q, using UTC: %s\n", BOOKING_TIMEZONE, err.Error())
		return time.UTC
	}
	return loc
}

func IsProd() bool {
	return API_ENV == types.Production
}

const (
	TIME_PARSE_FORMAT = "2006-01-02 15:04:05 -07:00"
	DATE_FORMAT       = "2006-01-02"
	CLOCK_FORMAT      = "15:04"
)
