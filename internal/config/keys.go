package config

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
)

// Key describes one configuration key.
type Key struct {
	Key         string // Full key name (e.g., "db.driver")
	Description string
	Default     any
	Secret      bool // Masked by "config show"
	Validate    func(string) error
}

// Key names
const (
	KeyDBDriver      = "db.driver"
	KeyDBPath        = "db.path"
	KeyMySQLHost     = "mysql.host"
	KeyMySQLPort     = "mysql.port"
	KeyMySQLUser     = "mysql.user"
	KeyMySQLPassword = "mysql.password"
	KeyMySQLDatabase = "mysql.database"
	KeyMySQLTLS      = "mysql.tls"
	KeyHTTPAddr      = "http.addr"
	KeyAPIURL        = "api.url"
	KeyAgentID       = "agent.id"
	KeyLogLevel      = "log.level"
	KeyLogJSON       = "log.json"
	KeyLogFile       = "log.file"
	KeyLogMaxSizeMB  = "log.max-size-mb"
	KeyLogMaxBackups = "log.max-backups"
	KeyLogMaxAgeDays = "log.max-age-days"
	KeyLogCompress   = "log.compress"
	KeyTelemetry     = "telemetry.enabled"
	KeyTelemetryOut  = "telemetry.stdout"
	KeyTelemetryOTLP = "telemetry.otlp-endpoint"
	KeyLockTerminal  = "engine.lock-terminal-content"
	KeyOutputJSON    = "json"
)

// Storage drivers
const (
	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"
)

const (
	defaultHTTPAddr   = "127.0.0.1:8000"
	defaultAPIURL     = "http://127.0.0.1:8000"
	defaultSQLitePath = ".ideas/ideas.db"
)

// Keys defines every configuration key with its default and validator.
var Keys = []Key{
	{Key: KeyDBDriver, Description: "Storage backend: sqlite or mysql", Default: DriverSQLite, Validate: validateDriver},
	{Key: KeyDBPath, Description: "SQLite database file", Default: defaultSQLitePath},
	{Key: KeyMySQLHost, Description: "MySQL server host", Default: "127.0.0.1"},
	{Key: KeyMySQLPort, Description: "MySQL server port", Default: 3306, Validate: validatePort},
	{Key: KeyMySQLUser, Description: "MySQL user", Default: "root"},
	{Key: KeyMySQLPassword, Description: "MySQL password", Default: "", Secret: true},
	{Key: KeyMySQLDatabase, Description: "MySQL database name", Default: "ideas"},
	{Key: KeyMySQLTLS, Description: "Use TLS for MySQL", Default: false, Validate: validateBool},
	{Key: KeyHTTPAddr, Description: "Listen address for ideas serve", Default: defaultHTTPAddr, Validate: validateListenAddr},
	{Key: KeyAPIURL, Description: "Base URL of the ideas server used by client commands", Default: defaultAPIURL, Validate: validateURL},
	{Key: KeyAgentID, Description: "Agent identity used by agent commands and the MCP server", Default: "mcp-agent"},
	{Key: KeyLogLevel, Description: "Log level: debug, info, warn, error", Default: "info", Validate: validateLogLevel},
	{Key: KeyLogJSON, Description: "Emit JSON log lines", Default: false, Validate: validateBool},
	{Key: KeyLogFile, Description: "Log file (rotated); empty logs to stderr", Default: ""},
	{Key: KeyLogMaxSizeMB, Description: "Rotate the log file after this many megabytes", Default: 50, Validate: validatePositive},
	{Key: KeyLogMaxBackups, Description: "Rotated log files to keep", Default: 7, Validate: validateNonNegative},
	{Key: KeyLogMaxAgeDays, Description: "Days to keep rotated log files", Default: 30, Validate: validateNonNegative},
	{Key: KeyLogCompress, Description: "Gzip rotated log files", Default: true, Validate: validateBool},
	{Key: KeyTelemetry, Description: "Enable OpenTelemetry tracing and metrics", Default: false, Validate: validateBool},
	{Key: KeyTelemetryOut, Description: "Export telemetry to stdout", Default: false, Validate: validateBool},
	{Key: KeyTelemetryOTLP, Description: "OTLP/HTTP collector host:port; empty disables OTLP export", Default: "", Validate: validateEndpoint},
	{Key: KeyLockTerminal, Description: "Reject content updates on completed, failed and cancelled ideas", Default: false, Validate: validateBool},
	{Key: KeyOutputJSON, Description: "Print command output as JSON", Default: false, Validate: validateBool},
}

// Lookup returns the Key definition for name.
func Lookup(name string) (Key, bool) {
	for _, k := range Keys {
		if k.Key == name {
			return k, true
		}
	}
	return Key{}, false
}

func validateDriver(value string) error {
	switch value {
	case DriverSQLite, DriverMySQL:
		return nil
	default:
		return fmt.Errorf("must be %s or %s, got %q", DriverSQLite, DriverMySQL, value)
	}
}

func validatePort(value string) error {
	port, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("must be a number, got %q", value)
	}
	if port < 1 || port > 65535 {
		return fmt.Errorf("must be between 1 and 65535, got %d", port)
	}
	return nil
}

func validateLogLevel(value string) error {
	switch strings.ToLower(value) {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("must be one of: debug, info, warn, error; got %q", value)
	}
}

func validateBool(value string) error {
	switch strings.ToLower(value) {
	case "true", "false", "1", "0", "yes", "no":
		return nil
	default:
		return fmt.Errorf("must be true or false, got %q", value)
	}
}

func validatePositive(value string) error {
	n, err := strconv.Atoi(value)
	if err != nil || n < 1 {
		return fmt.Errorf("must be a positive number, got %q", value)
	}
	return nil
}

func validateNonNegative(value string) error {
	n, err := strconv.Atoi(value)
	if err != nil || n < 0 {
		return fmt.Errorf("must be zero or a positive number, got %q", value)
	}
	return nil
}

func validateListenAddr(value string) error {
	_, port, err := net.SplitHostPort(value)
	if err != nil {
		return fmt.Errorf("must be host:port, got %q", value)
	}
	if port == "0" {
		return nil
	}
	return validatePort(port)
}

// validateEndpoint accepts an empty value or host:port.
func validateEndpoint(value string) error {
	if value == "" {
		return nil
	}
	host, port, err := net.SplitHostPort(value)
	if err != nil || host == "" {
		return fmt.Errorf("must be host:port, got %q", value)
	}
	return validatePort(port)
}

func validateURL(value string) error {
	u, err := url.Parse(value)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("must be an http or https URL, got %q", value)
	}
	return nil
}
