package config

const (
	// DefaultPort is the default HTTP server port.
	DefaultPort = "8080"

	// DefaultBaseURL is used to build shareable task links.
	DefaultBaseURL = "http://localhost:8080"

	// DefaultDatabaseURL is empty; must be provided via flag or environment.
	DefaultDatabaseURL = ""

	// DefaultRedisURL is the local redis instance used for change notifications.
	DefaultRedisURL = "redis://localhost:6379/0"
)
