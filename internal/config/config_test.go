package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")

	cfg, err := load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, ":8080", cfg.Addr())
	assert.Equal(t, 15*time.Minute, cfg.AccessTokenTTL)
	assert.Equal(t, 30*24*time.Hour, cfg.RefreshTokenTTL)
	assert.Equal(t, 10*time.Second, cfg.CheckoutLockTTL)
	assert.Equal(t, "order.events", cfg.KafkaOrderTopic)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.Empty(t, cfg.RedisAddr)
	assert.False(t, cfg.DBAutoMigrate)
	assert.False(t, cfg.IsProd())
	assert.Equal(t, 5.0, cfg.AuthRateLimit)
	assert.Equal(t, StoreDriverPostgres, cfg.StoreDriver)
}

func TestLoad_RequiresJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := load(viper.New())
	assert.ErrorContains(t, err, "JWT_SECRET")
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("PORT", ":9090")
	t.Setenv("GO_ENV", "prod")
	t.Setenv("ACCESS_TOKEN_TTL", "1h")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("DB_AUTO_MIGRATE", "true")

	cfg, err := load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Addr())
	assert.True(t, cfg.IsProd())
	assert.Equal(t, time.Hour, cfg.AccessTokenTTL)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.True(t, cfg.DBAutoMigrate)
}

func TestLoad_StoreDriver(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")

	t.Setenv("STORE_DRIVER", "Memory")
	cfg, err := load(viper.New())
	require.NoError(t, err)
	assert.Equal(t, StoreDriverMemory, cfg.StoreDriver)

	t.Setenv("STORE_DRIVER", "mysql")
	_, err = load(viper.New())
	assert.ErrorContains(t, err, "STORE_DRIVER")
}

func TestConfig_DSN(t *testing.T) {
	cfg := Config{
		PostgresHost:     "db",
		PostgresPort:     5433,
		PostgresUser:     "u",
		PostgresPassword: "p",
		PostgresDB:       "shop",
		PostgresSSLMode:  "disable",
	}
	assert.Equal(t, "host=db port=5433 user=u password=p dbname=shop sslmode=disable", cfg.DSN())
	assert.Equal(t, "postgres://u:p@db:5433/shop?sslmode=disable", cfg.MigrateURL())

	cfg.DatabaseURL = "postgres://x"
	assert.Equal(t, "postgres://x", cfg.DSN())
	assert.Equal(t, "postgres://x", cfg.MigrateURL())
}

func TestLoad_RefreshTokenTTLMustOutliveAccessToken(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("ACCESS_TOKEN_TTL", "1h")
	t.Setenv("REFRESH_TOKEN_TTL", "30m")

	_, err := load(viper.New())
	assert.ErrorContains(t, err, "REFRESH_TOKEN_TTL")
}
