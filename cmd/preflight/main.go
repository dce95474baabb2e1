// cmd/preflight/main.go
package main

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
)

func main() {
	fail := func(msg string) {
		fmt.Fprintln(os.Stderr, "✖", msg)
		os.Exit(1)
	}
	warn := func(msg string) { fmt.Fprintln(os.Stderr, "⚠", msg) }
	ok := func(msg string) { fmt.Println("✔", msg) }

	admin := strings.TrimSpace(os.Getenv("ADMIN_API_KEYS"))
	pub := strings.TrimSpace(os.Getenv("PUBLIC_API_KEYS"))
	apiAddr := strings.TrimSpace(os.Getenv("API_ADDR"))
	db := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	allowed := strings.TrimSpace(os.Getenv("ALLOWED_ORIGINS"))
	slack := strings.TrimSpace(os.Getenv("SLACK_WEBHOOK_URL"))

	if admin == "" {
		fail("ADMIN_API_KEYS is empty (admin routes are open).")
	}
	if pub == "" {
		warn("PUBLIC_API_KEYS is empty; read routes accept admin keys only.")
	}

	// no spaces around commas
	for name, v := range map[string]string{"ADMIN_API_KEYS": admin, "PUBLIC_API_KEYS": pub} {
		if strings.Contains(v, " ") {
			warn(name + " contains spaces; use comma-separated with no spaces, e.g. key1,key2")
		}
	}

	if apiAddr == "" {
		warn("API_ADDR is empty; 127.0.0.1:8080 will be used.")
	} else {
		ok("API_ADDR=" + apiAddr)
	}

	if db == "" {
		warn("DATABASE_URL empty; API will use the in-memory store; history is lost on restart.")
	} else if u, err := url.Parse(db); err != nil || (u.Scheme != "postgres" && u.Scheme != "postgresql") {
		fail("DATABASE_URL must be a postgres:// URL")
	} else {
		ok("DATABASE_URL present")
	}

	if allowed == "" {
		warn("ALLOWED_ORIGINS empty; any origin is allowed by CORS.")
	} else {
		ok("ALLOWED_ORIGINS=" + allowed)
	}

	if slack == "" {
		warn("SLACK_WEBHOOK_URL empty; status alerts are disabled.")
	} else if !strings.HasPrefix(slack, "https://") {
		fail("SLACK_WEBHOOK_URL must be an https URL")
	} else {
		ok("SLACK_WEBHOOK_URL present")
	}

	for _, name := range []string{"CHECK_INTERVAL_MS", "DNS_TIMEOUT_MS", "HTTP_TIMEOUT_MS", "ALERT_COOLDOWN_MS", "MIN_WORDS", "MAX_REDIRECTS"} {
		v := strings.TrimSpace(os.Getenv(name))
		if v == "" {
			continue
		}
		if n, err := strconv.Atoi(v); err != nil || n < 0 {
			fail(name + " must be a non-negative integer, got " + v)
		}
		ok(name + "=" + v)
	}

	ok("preflight passed")
}
