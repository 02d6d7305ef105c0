package config // package config loads application configuration from environment variables

import (
	"log"
	"os"
	"strconv"
)

// Config holds all runtime configuration. Values are read once at startup
// and the struct is passed by reference everywhere; nothing mutates it after
// boot. The two signing secrets are independent so that a leaked access
// token can never mint a refresh token and vice versa.
type Config struct {
	Env           string // application environment (e.g. "dev", "prod")
	Port          string // HTTP port to listen on
	DBUser        string // database username
	DBPass        string // database password (optional)
	DBHost        string // database host address
	DBPort        string // database port number
	DBName        string // database name
	AccessSecret  string // HS256 secret for access tokens
	RefreshSecret string // HS256 secret for refresh tokens
	BcryptCost    int    // bcrypt cost for password/secret hashing
}

// Load reads configuration from the environment. Missing required variables
// are fatal: a misconfigured signing secret must stop the process at boot,
// never surface as a per-request error.
func Load() Config {
	return Config{
		Env:           must("APP_ENV"),
		Port:          must("APP_PORT"),
		DBUser:        must("DB_USER"),
		DBPass:        os.Getenv("DB_PASS"),
		DBHost:        must("DB_HOST"),
		DBPort:        must("DB_PORT"),
		DBName:        must("DB_NAME"),
		AccessSecret:  must("ACCESS_SECRET"),
		RefreshSecret: must("REFRESH_SECRET"),
		BcryptCost:    mustInt("BCRYPT_COST"),
	}
}

// must retrieves a required environment variable or exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// mustInt is like must() but converts the value to an integer.
func mustInt(key string) int {
	s := must(key)
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}
