package config

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"material-recon/internal/reconcile/model"
)

type Config struct {
	Host         string
	Port         int
	AllowOrigins []string
	LogLevel     string
	MaxUploadMB  int
	LogFile      string

	// дефолты сверки; форма/JSON запроса могут переопределить
	MatchThreshold float64
	NormalizeUnits bool
}

func Load() Config {
	return Config{
		Host:           getenv("HOST", "127.0.0.1"),
		Port:           getint("PORT", 8082),
		AllowOrigins:   splitList(getenv("ALLOW_ORIGINS", "*")),
		LogLevel:       getenv("LOG_LEVEL", "info"),
		MaxUploadMB:    getint("MAX_UPLOAD_MB", 64),
		LogFile:        getenv("LOG_FILE", "logs/material-recon.log"),
		MatchThreshold: getthreshold("MATCH_THRESHOLD", model.DefaultMatchThreshold),
		NormalizeUnits: getbool("NORMALIZE_UNITS", true),
	}
}

func (c Config) Addr() string { return fmt.Sprintf("%s:%d", c.Host, c.Port) }

func (c Config) Options() model.Options {
	return model.Options{MatchThreshold: c.MatchThreshold, NormalizeUnits: c.NormalizeUnits}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getint(k string, def int) int {
	n, err := strconv.Atoi(getenv(k, ""))
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func getbool(k string, def bool) bool {
	b, err := strconv.ParseBool(getenv(k, ""))
	if err != nil {
		return def
	}
	return b
}

// порог вне [0,1] — опечатка в окружении, берём дефолт
func getthreshold(k string, def float64) float64 {
	f, err := strconv.ParseFloat(getenv(k, ""), 64)
	if err != nil || math.IsNaN(f) || f < 0 || f > 1 {
		return def
	}
	return f
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
