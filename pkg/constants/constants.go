package constants

const (
	ConfigName   = "config"
	ConfigFormat = "yaml"

	ServiceName = "evcare_backend"
)
