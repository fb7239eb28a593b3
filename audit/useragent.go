package audit

import (
	"strconv"
	"strings"

	"github.com/firasghr/GoFingerprintEngine/database"
)

// ParseUserAgent extracts the browser family and major version a User-Agent
// string claims.
//
// Token precedence matters: Edge advertises "Chrome/" and every
// Chromium-family browser advertises "Safari/", so the more specific tokens
// are checked first.  Anything unrecognised (curl, SDKs, bots) parses to the
// unknown family with version 0 – the auditor's rules treat that as "makes
// no claim" rather than as a finding.
func ParseUserAgent(ua string) (family string, major int) {
	switch {
	case strings.Contains(ua, "Edg/"):
		return database.FamilyEdge, majorAfter(ua, "Edg/")
	case strings.Contains(ua, "Edge/"):
		return database.FamilyEdge, majorAfter(ua, "Edge/")
	case strings.Contains(ua, "Firefox/"):
		return database.FamilyFirefox, majorAfter(ua, "Firefox/")
	case strings.Contains(ua, "CriOS/"):
		return database.FamilyChrome, majorAfter(ua, "CriOS/")
	case strings.Contains(ua, "Chrome/"):
		return database.FamilyChrome, majorAfter(ua, "Chrome/")
	case strings.Contains(ua, "Safari/") && strings.Contains(ua, "Version/"):
		return database.FamilySafari, majorAfter(ua, "Version/")
	default:
		return database.FamilyUnknown, 0
	}
}

// majorAfter parses the decimal run that follows token in ua.
func majorAfter(ua, token string) int {
	idx := strings.Index(ua, token)
	if idx < 0 {
		return 0
	}
	rest := ua[idx+len(token):]
	end := 0
	for end < len(rest) && rest[end] >= '0' && rest[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0
	}
	major, err := strconv.Atoi(rest[:end])
	if err != nil {
		return 0
	}
	return major
}
