package config

import (
    "log"
    "os"
    "strconv"
    "strings"
    "time"
)

// Optional variables fall back to the supplied default when unset or
// unparsable.

func envStr(k, d string) string {
    if v := os.Getenv(k); v != "" {
        return v
    }
    return d
}

func envBool(k string, d bool) bool {
    switch strings.ToLower(strings.TrimSpace(os.Getenv(k))) {
    case "1", "true", "yes", "on":
        return true
    case "0", "false", "no", "off":
        return false
    }
    return d
}

func envInt(k string, d int) int {
    v := os.Getenv(k)
    if v == "" {
        return d
    }
    if n, err := strconv.Atoi(v); err == nil {
        return n
    }
    return d
}

func envDur(k string, d time.Duration) time.Duration {
    v := os.Getenv(k)
    if v == "" {
        return d
    }
    if dur, err := time.ParseDuration(v); err == nil {
        return dur
    }
    return d
}

func envList(k, d string) map[string]bool {
    m := map[string]bool{}
    for _, p := range strings.Split(envStr(k, d), ",") {
        p = strings.TrimSpace(strings.ToUpper(p))
        if p != "" {
            m[p] = true
        }
    }
    return m
}

// envLoc loads an IANA zone name such as "Asia/Karachi".  An unknown name
// is logged and the default used.
func envLoc(k string, d *time.Location) *time.Location {
    v := os.Getenv(k)
    if v == "" {
        return d
    }
    loc, err := time.LoadLocation(v)
    if err != nil {
        log.Printf("config: %s=%q: %v; using %s", k, v, err, d)
        return d
    }
    return loc
}
