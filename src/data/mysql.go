package data

import (
	"os"
	"strings"
)

// GetMySQLDSN returns the MySQL DSN configured via environment, or "" when no
// settings store is configured (the bot then runs on environment config alone).
func GetMySQLDSN() string {
	return strings.TrimSpace(os.Getenv("MYSQL_DSN"))
}
