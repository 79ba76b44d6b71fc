package buildCFG

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/wb-go/wbf/config"
	"github.com/wb-go/wbf/dbpg"
)

type ServerConfig struct {
	Port string
}

type RabbitConfig struct {
	Url      string
	Exchange string
	Queue    string
}

type AuthConfig struct {
	JWTSecret string
}

type SMTPConfig struct {
	Host     string
	Port     int
	From     string
	Password string
}

type StorageConfig struct {
	// ResourceRoot is the directory resource file paths are resolved
	// against when serving downloads.
	ResourceRoot string
}

func BuildServerConfig(cfg *config.Config, log *zerolog.Logger) ServerConfig {
	port := cfg.GetString("server.port")
	if port == "" {
		port = "8080"
		log.Warn().Msg("server.port not set, defaulting to 8080")
	}
	return ServerConfig{Port: port}
}

func BuildDBConfig(cfg *config.Config, log *zerolog.Logger) (string, []string, *dbpg.Options, error) {
	masterDSN := cfg.GetString("database.master_dsn")
	if masterDSN == "" {
		return "", nil, nil, fmt.Errorf("database.master_dsn is required")
	}
	slaveDSNs := cfg.GetStringSlice("database.slave_dsns")

	opts := &dbpg.Options{
		MaxOpenConns:    cfg.GetInt("database.max_open_conns"),
		MaxIdleConns:    cfg.GetInt("database.max_idle_conns"),
		ConnMaxLifetime: time.Duration(cfg.GetInt("database.conn_max_lifetime_minutes")) * time.Minute,
	}
	if opts.MaxOpenConns == 0 {
		opts.MaxOpenConns = 10
	}
	if opts.MaxIdleConns == 0 {
		opts.MaxIdleConns = 5
	}

	log.Info().
		Int("max_open_conns", opts.MaxOpenConns).
		Int("slaves", len(slaveDSNs)).
		Msg("database config built")

	return masterDSN, slaveDSNs, opts, nil
}

func BuildRabbitConfig(cfg *config.Config, log *zerolog.Logger) (RabbitConfig, error) {
	rc := RabbitConfig{
		Url:      cfg.GetString("rabbit.url"),
		Exchange: cfg.GetString("rabbit.exchange"),
		Queue:    cfg.GetString("rabbit.queue"),
	}
	if rc.Url == "" {
		return RabbitConfig{}, fmt.Errorf("rabbit.url is required")
	}
	if rc.Exchange == "" {
		rc.Exchange = "venu.notifications"
	}
	if rc.Queue == "" {
		rc.Queue = "venu.notifications.mail"
	}
	log.Info().Str("exchange", rc.Exchange).Str("queue", rc.Queue).Msg("rabbit config built")
	return rc, nil
}

func BuildAuthConfig(cfg *config.Config) (AuthConfig, error) {
	secret := cfg.GetString("auth.jwt_secret")
	if secret == "" {
		return AuthConfig{}, fmt.Errorf("auth.jwt_secret is required")
	}
	return AuthConfig{JWTSecret: secret}, nil
}

func BuildSMTPConfig(cfg *config.Config, log *zerolog.Logger) SMTPConfig {
	sc := SMTPConfig{
		Host:     cfg.GetString("smtp.host"),
		Port:     cfg.GetInt("smtp.port"),
		From:     cfg.GetString("smtp.from"),
		Password: cfg.GetString("smtp.password"),
	}
	if sc.Host == "" {
		log.Warn().Msg("smtp.host not set, status emails disabled")
	}
	if sc.Port == 0 {
		sc.Port = 587
	}
	return sc
}

func BuildStorageConfig(cfg *config.Config) StorageConfig {
	root := cfg.GetString("storage.resource_root")
	if root == "" {
		root = "./resources"
	}
	return StorageConfig{ResourceRoot: root}
}
