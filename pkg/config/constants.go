package config

const EnvPrefix = "BUCKETCART"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "production"
)

const (
	EnvAppEnv         = "BUCKETCART_APP_ENV"
	EnvPort           = "BUCKETCART_APP_PORT"
	EnvBackendBaseURL = "BUCKETCART_BACKEND_BASE_URL"
	EnvRedisURL       = "BUCKETCART_REDIS_URL"
	EnvJWTSecret      = "BUCKETCART_JWT_SECRET"
	EnvJWTIssuer      = "BUCKETCART_JWT_ISSUER"
	EnvJWTExpMins     = "BUCKETCART_JWT_EXPIRATION_MINUTES"
)
