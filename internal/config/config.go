package config // package config loads application configuration from environment variables

import (
    "log"     // log is used to report configuration errors and halt execution
    "os"      // os provides access to environment variables
    "strconv" // strconv converts strings to other types

    "github.com/joho/godotenv"
)

// Config holds the runtime configuration of the HTTP server.  Each field
// corresponds to an environment variable.
type Config struct {
    Env            string         // application environment (e.g. "dev", "prod")
    Port           string         // HTTP port to listen on
    Database       DatabaseConfig // connection settings for the spot/booking store
    JWTSecret      string         // secret used to sign JWTs
    AccessTTLMin   int            // access token time-to-live in minutes
    RefreshTTLDays int            // refresh token time-to-live in days
    BcryptCost     int            // bcrypt cost for password hashing
    AdminEmail     string         // bootstrap administrator login (optional)
    AdminPassword  string         // bootstrap administrator password (optional)
}

// DatabaseConfig selects the SQL driver and its connection parameters.
// Driver "mysql" uses the DB_* variables; driver "sqlite3" uses DBPath.
type DatabaseConfig struct {
    Driver string // mysql | sqlite3
    Path   string // sqlite3 file path
    User   string // mysql user
    Pass   string // mysql password (optional)
    Host   string // mysql host
    Port   string // mysql port
    Name   string // mysql database name
}

// LoadDotEnv reads a .env file into the process environment when one
// exists.  Variables already set in the environment win.
func LoadDotEnv(paths ...string) {
    if len(paths) == 0 {
        paths = []string{".env"}
    }
    for _, p := range paths {
        if _, err := os.Stat(p); err != nil {
            continue
        }
        if err := godotenv.Load(p); err != nil {
            log.Printf("config: failed to load %s: %v", p, err)
        }
    }
}

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.
func Load() Config {
    return Config{
        Env:            must("APP_ENV"),                     // environment (dev/test/prod)
        Port:           must("APP_PORT"),                    // port to bind the HTTP server
        Database:       LoadDatabaseConfig(),                // spot/booking store
        JWTSecret:      must("JWT_SECRET"),                  // secret used for signing JWTs
        AccessTTLMin:   mustInt("ACCESS_TOKEN_TTL_MIN"),     // TTL for access tokens in minutes
        RefreshTTLDays: mustInt("REFRESH_TOKEN_TTL_DAYS"),   // TTL for refresh tokens in days
        BcryptCost:     mustInt("BCRYPT_COST"),              // bcrypt cost factor
        AdminEmail:     os.Getenv("ADMIN_EMAIL"),            // optional admin bootstrap
        AdminPassword:  os.Getenv("ADMIN_PASSWORD"),
    }
}

// LoadDatabaseConfig reads DB_DRIVER (default mysql).  For mysql the
// connection variables are required; sqlite3 only needs DB_PATH, which
// defaults to parkease.db.
func LoadDatabaseConfig() DatabaseConfig {
    driver := envStr("DB_DRIVER", "mysql")
    if driver == "sqlite3" || driver == "sqlite" {
        return DatabaseConfig{Driver: "sqlite3", Path: envStr("DB_PATH", "parkease.db")}
    }
    return DatabaseConfig{
        Driver: "mysql",
        User:   must("DB_USER"),
        Pass:   os.Getenv("DB_PASS"), // empty allowed
        Host:   must("DB_HOST"),
        Port:   must("DB_PORT"),
        Name:   must("DB_NAME"),
    }
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
    v, ok := os.LookupEnv(key)
    if !ok || v == "" {
        log.Fatalf("missing required env var: %s", key)
    }
    return v
}

// mustInt is like must() but converts the retrieved string into an integer.
func mustInt(key string) int {
    s := must(key)
    n, err := strconv.Atoi(s)
    if err != nil {
        log.Fatalf("invalid int for %s: %q", key, s)
    }
    return n
}
