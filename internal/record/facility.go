package record

import "strings"

var facilityNames = [...]string{
	"kern", "user", "mail", "daemon", "auth", "syslog", "lpr", "news",
	"uucp", "cron", "authpriv", "ftp", "ntp", "audit", "alert", "clock",
	"local0", "local1", "local2", "local3", "local4", "local5", "local6", "local7",
}

var severityNames = [...]string{
	"emerg", "alert", "crit", "err", "warning", "notice", "info", "debug",
}

// FacilityName returns the canonical lowercase name for a facility code, or
// "" if f is out of the 0..23 range.
func FacilityName(f int) string {
	if f < 0 || f >= len(facilityNames) {
		return ""
	}
	return facilityNames[f]
}

// SeverityName returns the canonical lowercase name for a severity code, or
// "" if s is out of the 0..7 range.
func SeverityName(s int) string {
	if s < 0 || s >= len(severityNames) {
		return ""
	}
	return severityNames[s]
}

// FacilityByName resolves a facility name (case-insensitive) to its code.
// Returns false if the name is not recognized.
func FacilityByName(name string) (int, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, n := range facilityNames {
		if n == name {
			return i, true
		}
	}
	return 0, false
}

// SeverityByName resolves a severity name (case-insensitive) to its code.
// Both "err" and "error" resolve to severity 3, per common syslog usage.
// Returns false if the name is not recognized.
func SeverityByName(name string) (int, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "error" {
		name = "err"
	}
	for i, n := range severityNames {
		if n == name {
			return i, true
		}
	}
	return 0, false
}
