package config

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/authgate/authgate/hashing"
)

// Config holds library and deployment configuration aggregated from
// env/config files.
type Config struct {
	Server struct {
		Addr string
	}
	Mongo struct {
		URI      string
		Database string
	}
	Database struct {
		Path string
	}
	Users struct {
		Collection    string
		MainField     string
		PasswordField string
	}
	Tokens struct {
		Collection string
		Header     string
		Length     int
		MaxAllowed int
	}
	Silent bool

	// HashFunc is code-level configuration and never comes from a
	// config file. Leave nil to use the weak identity default, which
	// the auth service warns about on every verification.
	HashFunc hashing.Func `mapstructure:"-"`
}

// Default returns the built-in configuration without consulting the
// environment, for embedding the library directly.
func Default() Config {
	var cfg Config
	cfg.Server.Addr = "0.0.0.0:8080"
	cfg.Mongo.Database = "authgate"
	cfg.Database.Path = "data/authgate.db"
	cfg.Users.Collection = "users"
	cfg.Users.MainField = "username"
	cfg.Users.PasswordField = "password"
	cfg.Tokens.Collection = "tokens"
	cfg.Tokens.Header = "x-auth-token"
	cfg.Tokens.Length = 48
	cfg.Tokens.MaxAllowed = 10
	return cfg
}

// Load reads configuration from environment variables and optional
// config files.
func Load() (Config, error) {
	loadDotEnv()

	v := viper.New()
	v.SetEnvPrefix("AUTHGATE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server.addr", "0.0.0.0:8080")
	v.SetDefault("mongo.uri", "")
	v.SetDefault("mongo.database", "authgate")
	v.SetDefault("database.path", "data/authgate.db")
	v.SetDefault("users.collection", "users")
	v.SetDefault("users.mainfield", "username")
	v.SetDefault("users.passwordfield", "password")
	v.SetDefault("tokens.collection", "tokens")
	v.SetDefault("tokens.header", "x-auth-token")
	v.SetDefault("tokens.length", 48)
	v.SetDefault("tokens.maxallowed", 10)
	v.SetDefault("silent", false)

	v.SetConfigName("config")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // optional file

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate rejects settings that would weaken or break the token flows.
func (c Config) Validate() error {
	if c.Users.MainField == "" {
		return fmt.Errorf("users.mainfield is required")
	}
	if c.Users.PasswordField == "" {
		return fmt.Errorf("users.passwordfield is required")
	}
	if c.Tokens.Header == "" {
		return fmt.Errorf("tokens.header is required")
	}
	if c.Tokens.Length < 24 {
		return fmt.Errorf("tokens.length must be at least 24, got %d", c.Tokens.Length)
	}
	if c.Tokens.MaxAllowed < 1 {
		return fmt.Errorf("tokens.maxallowed must be at least 1, got %d", c.Tokens.MaxAllowed)
	}
	return nil
}

func loadDotEnv() {
	file, err := os.Open(".env")
	if err != nil {
		return
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		partsIndex := strings.Index(line, "=")
		if partsIndex <= 0 {
			continue
		}

		key := strings.TrimSpace(line[:partsIndex])
		value := strings.TrimSpace(line[partsIndex+1:])
		value = strings.Trim(value, `"'`)
		if key == "" {
			continue
		}

		if _, exists := os.LookupEnv(key); !exists {
			_ = os.Setenv(key, value)
		}
	}
}
