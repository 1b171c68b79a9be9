// cmd/preflight/main.go
package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/hamed0406/statuspage/internal/config"
	"github.com/hamed0406/statuspage/internal/repo/postgres"
	"github.com/hamed0406/statuspage/internal/storage"
)

func main() {
	os.Exit(check(os.Stdout, os.Stderr))
}

// check loads the configuration the way the API does and reports on it.
// Returns the process exit code.
func check(stdout, stderr io.Writer) int {
	fail := func(msg string) { fmt.Fprintln(stderr, "✖", msg) }
	warn := func(msg string) { fmt.Fprintln(stderr, "⚠", msg) }
	ok := func(msg string) { fmt.Fprintln(stdout, "✔", msg) }

	cfg, err := config.Load()
	if err != nil {
		fail(err.Error())
		return 1
	}
	ok("STATUSPAGE_WEBSITE_URL=" + cfg.WebsiteURL)
	ok(fmt.Sprintf("probing every %d minute(s), timeout %s", cfg.Frequency, cfg.ProbeTimeout()))
	ok("STATUSPAGE_ADDR=" + cfg.Addr)

	switch storage.Kind(cfg.DatabaseURL) {
	case "memory":
		warn("STATUSPAGE_DATABASE_URL empty; signals are kept in memory and lost on restart.")
	case "sqlite":
		ok("STATUSPAGE_DATABASE_URL selects sqlite")
	default:
		ok("STATUSPAGE_DATABASE_URL selects postgres, dialect " + dialectOf(cfg))
		if !cfg.Migrate {
			warn("STATUSPAGE_MIGRATE=false; the signals table must already exist.")
		}
	}

	if len(cfg.AllowedOrigins) == 0 {
		warn("STATUSPAGE_ALLOWED_ORIGINS empty; every origin is allowed.")
	} else {
		ok("STATUSPAGE_ALLOWED_ORIGINS=" + strings.Join(cfg.AllowedOrigins, ","))
	}
	if cfg.RateLimitRPM <= 0 {
		warn("STATUSPAGE_RATE_LIMIT_RPM <= 0; /signals is not rate limited.")
	}

	ok("preflight passed")
	return 0
}

func dialectOf(cfg config.Config) string {
	if d, err := postgres.ParseDialect(cfg.DatabaseDialect); err == nil && d != "" {
		return string(d)
	}
	pc, err := pgconn.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return "unknown (" + err.Error() + ")"
	}
	return string(postgres.DetectDialect(pc)) + " (detected)"
}
