package update

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type RuntimeConfig struct {
	DBPath          string
	ExportDir       string
	LockTimeout     time.Duration
	SchedulerBuffer int
	LogFile         string
	LogLevel        string
	Alarms          bool
}

func DefaultRuntimeConfig() RuntimeConfig {
	return RuntimeConfig{
		DBPath:          ".checkoff.db",
		ExportDir:       ".",
		LockTimeout:     5 * time.Second,
		SchedulerBuffer: 16,
		LogLevel:        "info",
		Alarms:          true,
	}
}

func RuntimeConfigFromEnv(base RuntimeConfig) RuntimeConfig {
	cfg := base
	if v, ok := getEnvString("CHECKOFF_DB"); ok {
		cfg.DBPath = v
	}
	if v, ok := getEnvString("CHECKOFF_EXPORT_DIR"); ok {
		cfg.ExportDir = v
	}
	if v, ok := getEnvDuration("CHECKOFF_LOCK_TIMEOUT"); ok && v > 0 {
		cfg.LockTimeout = v
	}
	if v, ok := getEnvInt("CHECKOFF_SCHEDULER_BUFFER"); ok && v > 0 {
		cfg.SchedulerBuffer = v
	}
	if v, ok := getEnvString("CHECKOFF_LOG_FILE"); ok {
		cfg.LogFile = v
	}
	if v, ok := getEnvString("CHECKOFF_LOG_LEVEL"); ok {
		cfg.LogLevel = strings.ToLower(v)
	}
	if v, ok := getEnvBool("CHECKOFF_ALARMS"); ok {
		cfg.Alarms = v
	}
	return cfg
}

// LockPath is where SQLite writes take their exclusive file lock.
func (c RuntimeConfig) LockPath() string {
	return c.DBPath + ".lock"
}

func getEnvString(name string) (string, bool) {
	raw := strings.TrimSpace(os.Getenv(name))
	return raw, raw != ""
}

func getEnvInt(name string) (int, bool) {
	raw, ok := getEnvString(name)
	if !ok {
		return 0, false
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}

func getEnvDuration(name string) (time.Duration, bool) {
	raw, ok := getEnvString(name)
	if !ok {
		return 0, false
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}

func getEnvBool(name string) (bool, bool) {
	raw := strings.TrimSpace(strings.ToLower(os.Getenv(name)))
	if raw == "" {
		return false, false
	}
	switch raw {
	case "1", "true", "yes", "y", "on":
		return true, true
	case "0", "false", "no", "n", "off":
		return false, true
	default:
		return false, false
	}
}
