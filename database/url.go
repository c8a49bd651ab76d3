package database

import (
	"net/url"
	"strings"
)

// ConstructDatabaseURL joins a server URL with a database name. When the name
// is empty the base URL is returned untouched. sslmode=disable is added if the
// URL does not already choose an sslmode.
func ConstructDatabaseURL(baseURL, databaseName string) string {
	if databaseName == "" {
		return baseURL
	}

	parsed, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil || parsed.Scheme == "" {
		// Not a URL we understand, fall back to plain concatenation
		return strings.TrimRight(baseURL, "/") + "/" + databaseName + "?sslmode=disable"
	}

	parsed.Path = "/" + databaseName

	query := parsed.Query()
	if query.Get("sslmode") == "" {
		query.Set("sslmode", "disable")
	}
	parsed.RawQuery = query.Encode()

	return parsed.String()
}
