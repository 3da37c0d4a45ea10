// Package util provides common helpers and constants shared across the
// helper binary. It imports no other internal/* package so every layer can
// depend on it without cycles.
package util

const (
	// Version is reported by `helper --version`.
	Version = "0.100.500"

	// DefaultWrapper is the external SSH launcher invoked for Connect decisions.
	DefaultWrapper = "sudo -u auth /opt/auth/wrappers/ssh.py"

	// DefaultFieldSeparator joins printed host fields.
	DefaultFieldSeparator = " | "

	// DefaultRedisAddr and DefaultRedisKeyPattern locate host records in redis.
	DefaultRedisAddr       = "127.0.0.1:6379"
	DefaultRedisKeyPattern = "server_*"

	// MinDialAnywayLength is the shortest second token that may be dialed
	// directly when it matches nothing inside a project.
	MinDialAnywayLength = 2
)

// DefaultPrintFields is the default field list for host listings.
var DefaultPrintFields = []string{"server_id", "server_ip", "server_name"}
