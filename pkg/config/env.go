package config

// EnvPrefix is passed to envconfig; individual fields carry fully prefixed
// names so the prefix stays empty.
const EnvPrefix = ""

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvDBDSN  = "SWIFTDROP_DB_DSN"
	EnvDBHost = "SWIFTDROP_DB_HOST"
	EnvDBUser = "SWIFTDROP_DB_USER"
	EnvDBName = "SWIFTDROP_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
