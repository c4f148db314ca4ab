package commands

import (
	"database/sql"
	"fmt"
	"net/url"
)

// maskDatabaseURL hides credentials in a connection URL for log output.
func maskDatabaseURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return raw
	}
	u.User = url.UserPassword("***", "***")
	return u.String()
}

// getDatabaseInfo describes the live connection for diagnostics.
func getDatabaseInfo(db *sql.DB) string {
	if db == nil {
		return "not connected"
	}

	var dbName string
	if err := db.QueryRow("SELECT current_database()").Scan(&dbName); err != nil {
		return "connected (unknown database)"
	}

	var host string
	if err := db.QueryRow("SELECT inet_server_addr()::text").Scan(&host); err != nil {
		return fmt.Sprintf("connected to %s", dbName)
	}
	return fmt.Sprintf("connected to %s on %s", dbName, host)
}
