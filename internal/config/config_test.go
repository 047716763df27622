package config

import (
	"os"
	"testing"
	"time"
)

var allEnvVars = []string{
	"HOST", "PORT", "READ_TIMEOUT", "WRITE_TIMEOUT", "IDLE_TIMEOUT", "ENVIRONMENT", "ALLOW_ORIGINS",
	"STORAGE_DRIVER", "STORAGE_FILE", "STORAGE_REDIS_KEY", "STORAGE_BREAKER_MAX_FAILURES", "STORAGE_BREAKER_TIMEOUT",
	"DB_HOST", "DB_PORT", "DB_USER", "DB_PASSWORD", "DB_NAME", "DB_SSL_MODE", "DB_SQLITE_PATH",
	"DB_MAX_OPEN_CONNS", "DB_MAX_IDLE_CONNS", "DB_CONN_MAX_LIFETIME", "DB_CONN_MAX_IDLE_TIME",
	"REDIS_HOST", "REDIS_PORT", "REDIS_PASSWORD", "REDIS_DB", "REDIS_POOL_SIZE",
	"REDIS_MIN_IDLE_CONNS", "REDIS_MAX_RETRIES", "REDIS_DIAL_TIMEOUT", "REDIS_READ_TIMEOUT", "REDIS_WRITE_TIMEOUT",
	"REMINDER_POLL_INTERVAL", "REMINDER_TOLERANCE", "REMINDER_WINDOW", "REMINDER_DELIVERY",
	"WORKER_ENABLED", "WORKER_CONCURRENCY", "WORKER_POLL_INTERVAL",
	"AUTH_ENABLED", "JWT_SECRET", "AUTH_PASSPHRASE_HASH", "ACCESS_TOKEN_TTL",
	"RATE_LIMIT_ENABLED", "RATE_LIMIT_RPM", "RATE_LIMIT_BURST", "RATE_LIMIT_CLEANUP",
	"LOG_LEVEL", "LOG_FORMAT",
}

func setEnvVars(vars map[string]string) {
	for k, v := range vars {
		os.Setenv(k, v)
	}
}

func clearEnvVars(vars []string) {
	for _, k := range vars {
		os.Unsetenv(k)
	}
}

func withEnv(t *testing.T, vars map[string]string) {
	t.Helper()
	clearEnvVars(allEnvVars)
	setEnvVars(vars)
	t.Cleanup(func() { clearEnvVars(allEnvVars) })
}

func TestLoadConfig_Defaults(t *testing.T) {
	withEnv(t, nil)

	config, err := LoadConfig()
	if err != nil {
		t.Fatalf("Expected no error with default config, got: %v", err)
	}

	if config.Server.Host != "localhost" {
		t.Errorf("Expected default host 'localhost', got %s", config.Server.Host)
	}

	if config.Server.Port != "8080" {
		t.Errorf("Expected default port '8080', got %s", config.Server.Port)
	}

	if config.Server.Environment != "development" {
		t.Errorf("Expected default environment 'development', got %s", config.Server.Environment)
	}

	if config.Storage.Driver != "file" {
		t.Errorf("Expected default storage driver 'file', got %s", config.Storage.Driver)
	}

	if config.Storage.FilePath != "data/study-planner.json" {
		t.Errorf("Expected default storage file, got %s", config.Storage.FilePath)
	}

	if config.Storage.RedisKey != "AceTrack.v1" {
		t.Errorf("Expected default redis key 'AceTrack.v1', got %s", config.Storage.RedisKey)
	}

	if config.Database.Name != "study_planner" {
		t.Errorf("Expected default DB name 'study_planner', got %s", config.Database.Name)
	}

	if config.Redis.Port != "6379" {
		t.Errorf("Expected default Redis port '6379', got %s", config.Redis.Port)
	}

	if config.Reminder.PollInterval != time.Minute {
		t.Errorf("Expected default poll interval 1m, got %v", config.Reminder.PollInterval)
	}

	if config.Reminder.Tolerance != time.Minute {
		t.Errorf("Expected default tolerance 1m, got %v", config.Reminder.Tolerance)
	}

	if config.Reminder.Delivery != "local" {
		t.Errorf("Expected default delivery 'local', got %s", config.Reminder.Delivery)
	}

	if config.Worker.Enabled {
		t.Error("Expected worker to be disabled by default")
	}

	if config.Auth.Enabled {
		t.Error("Expected auth to be disabled by default")
	}

	if !config.RateLimit.Enabled {
		t.Error("Expected rate limit to be enabled by default")
	}

	if config.Log.Level != "info" {
		t.Errorf("Expected default log level 'info', got %s", config.Log.Level)
	}

	if len(config.Server.AllowOrigins) != 1 || config.Server.AllowOrigins[0] != "http://localhost:3000" {
		t.Errorf("Unexpected default origins: %v", config.Server.AllowOrigins)
	}
}

func TestLoadConfig_CustomEnvironment(t *testing.T) {
	withEnv(t, map[string]string{
		"HOST":                   "0.0.0.0",
		"PORT":                   "9090",
		"ALLOW_ORIGINS":          "http://a.test, http://b.test",
		"STORAGE_DRIVER":         "sqlite",
		"DB_SQLITE_PATH":         "/tmp/planner.db",
		"REMINDER_POLL_INTERVAL": "30s",
		"REMINDER_DELIVERY":      "queue",
		"WORKER_ENABLED":         "true",
		"WORKER_CONCURRENCY":     "4",
		"REDIS_HOST":             "redis.internal",
		"LOG_FORMAT":             "json",
	})

	config, err := LoadConfig()
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if config.GetServerAddr() != "0.0.0.0:9090" {
		t.Errorf("Expected server addr 0.0.0.0:9090, got %s", config.GetServerAddr())
	}

	if len(config.Server.AllowOrigins) != 2 || config.Server.AllowOrigins[1] != "http://b.test" {
		t.Errorf("Unexpected origins: %v", config.Server.AllowOrigins)
	}

	if config.Storage.Driver != "sqlite" {
		t.Errorf("Expected storage driver 'sqlite', got %s", config.Storage.Driver)
	}

	if config.Database.SQLitePath != "/tmp/planner.db" {
		t.Errorf("Expected sqlite path, got %s", config.Database.SQLitePath)
	}

	if config.Reminder.PollInterval != 30*time.Second {
		t.Errorf("Expected poll interval 30s, got %v", config.Reminder.PollInterval)
	}

	if config.Reminder.Tolerance != 30*time.Second {
		t.Errorf("Expected tolerance to follow the poll interval, got %v", config.Reminder.Tolerance)
	}

	if config.Worker.Concurrency != 4 {
		t.Errorf("Expected worker concurrency 4, got %d", config.Worker.Concurrency)
	}

	if !config.NeedsRedis() {
		t.Error("Expected NeedsRedis with the worker enabled")
	}

	if config.Log.Format != "json" {
		t.Errorf("Expected log format 'json', got %s", config.Log.Format)
	}
}

func TestLoadConfig_Validation(t *testing.T) {
	tests := []struct {
		name     string
		envVars  map[string]string
		errorMsg string
	}{
		{
			name:     "unknown storage driver",
			envVars:  map[string]string{"STORAGE_DRIVER": "s3"},
			errorMsg: `unknown storage driver "s3"`,
		},
		{
			name:     "unknown delivery",
			envVars:  map[string]string{"REMINDER_DELIVERY": "sms"},
			errorMsg: `unknown reminder delivery "sms"`,
		},
		{
			name:     "queue delivery without worker",
			envVars:  map[string]string{"REMINDER_DELIVERY": "queue"},
			errorMsg: "queue reminder delivery requires WORKER_ENABLED",
		},
		{
			name:     "non-positive poll interval",
			envVars:  map[string]string{"REMINDER_POLL_INTERVAL": "0s"},
			errorMsg: "reminder poll interval must be positive",
		},
		{
			name: "tolerance shorter than poll interval",
			envVars: map[string]string{
				"REMINDER_POLL_INTERVAL": "5m",
				"REMINDER_TOLERANCE":     "1m",
			},
			errorMsg: "reminder tolerance 1m0s must not be shorter than the poll interval 5m0s",
		},
		{
			name: "postgres in production without password",
			envVars: map[string]string{
				"ENVIRONMENT":    "production",
				"STORAGE_DRIVER": "postgres",
			},
			errorMsg: "database password is required in production",
		},
		{
			name: "auth in production with default secret",
			envVars: map[string]string{
				"ENVIRONMENT":          "production",
				"AUTH_ENABLED":         "true",
				"AUTH_PASSPHRASE_HASH": "$2a$10$hash",
			},
			errorMsg: "JWT secret must be set in production",
		},
		{
			name: "auth without passphrase hash",
			envVars: map[string]string{
				"AUTH_ENABLED": "true",
			},
			errorMsg: "AUTH_PASSPHRASE_HASH is required when auth is enabled",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			withEnv(t, tt.envVars)

			_, err := LoadConfig()
			if err == nil {
				t.Fatalf("Expected error %q, got none", tt.errorMsg)
			}
			if err.Error() != tt.errorMsg {
				t.Errorf("Expected error '%s', got '%s'", tt.errorMsg, err.Error())
			}
		})
	}
}

func TestLoadConfig_ProductionWithFileStorage(t *testing.T) {
	withEnv(t, map[string]string{"ENVIRONMENT": "production"})

	config, err := LoadConfig()
	if err != nil {
		t.Fatalf("Expected file storage to need no DB password, got: %v", err)
	}
	if !config.IsProduction() {
		t.Error("Expected production config")
	}
}

func TestConfig_GetDatabaseDSN(t *testing.T) {
	config := &Config{
		Database: DatabaseConfig{
			Host:     "localhost",
			Port:     "5432",
			User:     "testuser",
			Password: "testpass",
			Name:     "testdb",
			SSLMode:  "require",
		},
	}

	expected := "host=localhost port=5432 user=testuser password=testpass dbname=testdb sslmode=require"
	actual := config.GetDatabaseDSN()

	if actual != expected {
		t.Errorf("Expected DSN '%s', got '%s'", expected, actual)
	}
}

func TestConfig_GetRedisAddr(t *testing.T) {
	config := &Config{
		Redis: RedisConfig{
			Host: "redis.example.com",
			Port: "6380",
		},
	}

	expected := "redis.example.com:6380"
	actual := config.GetRedisAddr()

	if actual != expected {
		t.Errorf("Expected Redis addr '%s', got '%s'", expected, actual)
	}
}

func TestConfig_NeedsRedis(t *testing.T) {
	tests := []struct {
		driver   string
		worker   bool
		expected bool
	}{
		{"file", false, false},
		{"redis", false, true},
		{"sqlite", true, true},
		{"memory", false, false},
	}

	for _, test := range tests {
		config := &Config{
			Storage: StorageConfig{Driver: test.driver},
			Worker:  WorkerConfig{Enabled: test.worker},
		}
		if actual := config.NeedsRedis(); actual != test.expected {
			t.Errorf("For driver %s worker %v, expected %v, got %v", test.driver, test.worker, test.expected, actual)
		}
	}
}

func TestGetEnvAsInt(t *testing.T) {
	key := "TEST_INT_VAR"
	defer os.Unsetenv(key)

	os.Unsetenv(key)
	if result := getEnvAsInt(key, 7); result != 7 {
		t.Errorf("Expected default value 7, got %d", result)
	}

	os.Setenv(key, "42")
	if result := getEnvAsInt(key, 7); result != 42 {
		t.Errorf("Expected env value 42, got %d", result)
	}

	os.Setenv(key, "forty-two")
	if result := getEnvAsInt(key, 7); result != 7 {
		t.Errorf("Expected default value for invalid int, got %d", result)
	}
}

func TestGetEnvAsBool(t *testing.T) {
	key := "TEST_BOOL_VAR"
	defaultValue := true

	os.Unsetenv(key)
	result := getEnvAsBool(key, defaultValue)
	if result != defaultValue {
		t.Errorf("Expected default value %v, got %v", defaultValue, result)
	}

	testCases := []struct {
		value    string
		expected bool
	}{
		{"true", true},
		{"false", false},
		{"1", true},
		{"0", false},
		{"invalid", defaultValue},
	}

	for _, tc := range testCases {
		os.Setenv(key, tc.value)
		result = getEnvAsBool(key, defaultValue)
		if result != tc.expected {
			t.Errorf("For value '%s', expected %v, got %v", tc.value, tc.expected, result)
		}
	}

	os.Unsetenv(key)
}

func TestGetEnvAsDuration(t *testing.T) {
	key := "TEST_DURATION_VAR"
	defaultValue := 30 * time.Second

	os.Unsetenv(key)
	result := getEnvAsDuration(key, defaultValue)
	if result != defaultValue {
		t.Errorf("Expected default value %v, got %v", defaultValue, result)
	}

	os.Setenv(key, "5m")
	defer os.Unsetenv(key)

	result = getEnvAsDuration(key, defaultValue)
	if result != 5*time.Minute {
		t.Errorf("Expected env value 5m, got %v", result)
	}

	os.Setenv(key, "not-a-duration")
	result = getEnvAsDuration(key, defaultValue)
	if result != defaultValue {
		t.Errorf("Expected default value %v for invalid duration, got %v", defaultValue, result)
	}
}

func TestGetEnvAsList(t *testing.T) {
	key := "TEST_LIST_VAR"
	defer os.Unsetenv(key)

	os.Setenv(key, " a , ,b ")
	result := getEnvAsList(key, []string{"x"})
	if len(result) != 2 || result[0] != "a" || result[1] != "b" {
		t.Errorf("Expected [a b], got %v", result)
	}

	os.Setenv(key, " , ")
	result = getEnvAsList(key, []string{"x"})
	if len(result) != 1 || result[0] != "x" {
		t.Errorf("Expected default for blank list, got %v", result)
	}
}

func BenchmarkLoadConfig(b *testing.B) {
	envVars := map[string]string{
		"HOST":        "0.0.0.0",
		"PORT":        "8080",
		"ENVIRONMENT": "production",
	}
	setEnvVars(envVars)
	defer func() {
		var keys []string
		for k := range envVars {
			keys = append(keys, k)
		}
		clearEnvVars(keys)
	}()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, err := LoadConfig()
		if err != nil {
			b.Fatalf("Failed to load config: %v", err)
		}
	}
}
