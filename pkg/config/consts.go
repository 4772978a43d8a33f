package config

const (
	// EnvPrefix namespaces every environment variable consumed by the service.
	EnvPrefix = "EMPLOYEES"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "EMPLOYEES_DB_DSN"
	EnvDBHost = "EMPLOYEES_DB_HOST"
	EnvDBUser = "EMPLOYEES_DB_USER"
	EnvDBName = "EMPLOYEES_DB_NAME"
)

var requiredDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
