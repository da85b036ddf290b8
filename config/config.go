package config

import (
	"log"
	"os"
	"strconv"
	"time"
)

// Config armazena todas as configurações do gateway de autenticação.
type Config struct {
	// Geral
	Port        string
	Environment string
	LogLevel    string

	// Backends plugáveis dos stores
	IdentityStore string // "memory" | "postgres"
	SessionStore  string // "memory" | "redis"

	// Banco de Dados (PostgreSQL), exigido apenas com IdentityStore=postgres
	DatabaseURL string
	DBTimeout   time.Duration

	// Cache (Redis), exigido apenas com SessionStore=redis
	RedisAddr    string
	CacheTimeout time.Duration

	// Sessões: TTL fixo a partir da criação (sem expiração deslizante)
	SessionTTL time.Duration
}

// IsProduction informa se o ambiente é produção (liga o atributo Secure dos cookies).
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// LoadConfig carrega as configurações a partir das variáveis de ambiente.
func LoadConfig() *Config {
	return &Config{
		// 1. Geral
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENV", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		// 2. Backends
		IdentityStore: getEnv("IDENTITY_STORE", "memory"),
		SessionStore:  getEnv("SESSION_STORE", "memory"),

		// 3. Banco de Dados (PostgreSQL)
		DatabaseURL: getEnv("DATABASE_URL", ""),
		DBTimeout:   getDurationEnv("DB_TIMEOUT_SEC", 5) * time.Second,

		// 4. Cache (Redis)
		RedisAddr:    getEnv("REDIS_ADDR", "localhost:6379"),
		CacheTimeout: getDurationEnv("CACHE_TIMEOUT_SEC", 10) * time.Second,

		// 5. Sessões (24h padrão, como no contrato do cookie)
		SessionTTL: getDurationEnv("SESSION_TTL_HOURS", 24) * time.Hour,
	}
}

// --- Funções Helpers (Auxiliares) ---

// getEnv lê a variável de ambiente ou retorna um valor padrão.
func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getDurationEnv lê uma variável de ambiente numérica e retorna-a como time.Duration.
func getDurationEnv(key string, defaultValue int) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return time.Duration(defaultValue)
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("⚠️ Aviso: Valor de %s ('%s') não é um número inteiro válido. Usando padrão (%d).", key, valueStr, defaultValue)
		return time.Duration(defaultValue)
	}
	return time.Duration(value)
}
