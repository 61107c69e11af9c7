package app

import (
	"net/url"
	"strings"
)

// normalizeDBURL turns off binary prepared results when asked, which some
// Postgres poolers need for the lib/pq extended protocol.
func normalizeDBURL(raw string, disablePreparedBinaryResult bool) string {
	parsed, ok := parseDBURL(raw)
	if !disablePreparedBinaryResult || !ok {
		return raw
	}

	query := parsed.Query()
	if query.Get("disable_prepared_binary_result") != "" {
		return raw
	}
	query.Set("disable_prepared_binary_result", "yes")
	parsed.RawQuery = query.Encode()
	return parsed.String()
}

// dbNameFromURL reads the database name from URL or key=value DSNs.
func dbNameFromURL(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if parsed, ok := parseDBURL(trimmed); ok {
		if name := strings.TrimSpace(strings.TrimPrefix(parsed.Path, "/")); name != "" {
			return name
		}
	}

	for _, token := range strings.Fields(trimmed) {
		name, found := strings.CutPrefix(token, "dbname=")
		if !found {
			continue
		}
		if name = strings.Trim(strings.TrimSpace(name), `"'`); name != "" {
			return name
		}
	}
	return ""
}

// dbHostForLog returns host:port without credentials for startup logs.
func dbHostForLog(raw string) string {
	parsed, ok := parseDBURL(strings.TrimSpace(raw))
	if !ok {
		return ""
	}
	return parsed.Host
}

func parseDBURL(raw string) (*url.URL, bool) {
	parsed, err := url.Parse(raw)
	if err != nil || parsed == nil || parsed.Scheme == "" {
		return nil, false
	}
	return parsed, true
}
