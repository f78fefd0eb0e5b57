// Package config は環境変数ベースのアプリケーション設定を提供します。
// envconfig で読み込み、起動時に検証します。
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// MinSessionSecretLength はセッション署名鍵の最小長です。
const MinSessionSecretLength = 32

// Config はアプリケーション全体の設定を集約します。
type Config struct {
	// Server は HTTP サーバ設定です。
	Server ServerConfig `envconfig:"SERVER"`
	// Database は MySQL 接続設定です。
	Database DatabaseConfig `envconfig:"MYSQL"`
	// Redis はセッションストア用の Redis 接続設定です。
	Redis RedisConfig `envconfig:"REDIS"`
	// Session はセッションクッキーと排他制御の設定です。
	Session SessionConfig `envconfig:"SESSION"`
}

// ServerConfig は HTTP サーバの待受設定です。
type ServerConfig struct {
	// Host はバインドするネットワークインターフェースです。
	Host string `envconfig:"HOST" default:"0.0.0.0"`
	// Port は待受ポートです。
	Port int `envconfig:"PORT" default:"8080"`
}

// DatabaseConfig は MySQL の接続設定です。
type DatabaseConfig struct {
	Host     string `envconfig:"HOST" default:"localhost"`
	Port     int    `envconfig:"PORT" default:"3306"`
	User     string `envconfig:"USER" default:"portal"`
	Password string `envconfig:"PASSWORD"`
	Name     string `envconfig:"DATABASE" default:"portal"`
	// RunMigrations が true の場合、起動時に AutoMigrate を実行します。
	RunMigrations bool `envconfig:"RUN_MIGRATIONS" default:"true"`
	// ConnectTimeout は接続リトライの上限時間です。
	ConnectTimeout time.Duration `envconfig:"CONNECT_TIMEOUT" default:"60s"`
}

// RedisConfig は Redis の接続設定です。Addr が空の場合は
// インメモリのセッションストアにフォールバックします。
type RedisConfig struct {
	Addr     string `envconfig:"ADDR"`
	Password string `envconfig:"PASSWORD"`
	DB       int    `envconfig:"DB" default:"0"`
	// KeyPrefix はセッションレコードのキー接頭辞です。
	KeyPrefix string `envconfig:"KEY_PREFIX" default:"portal:session"`
}

// SessionConfig はセッションクッキーとリダイレクトループ検出の設定です。
type SessionConfig struct {
	// Secret はクッキー署名用の秘密鍵です(32文字以上)。
	Secret string `envconfig:"SECRET" required:"true"`
	// CookieName はクライアント状態クッキーの名前です。
	CookieName string `envconfig:"COOKIE_NAME" default:"portal_session"`
	// FailOpenOnPersistenceError が true の場合、永続化層の書き込み失敗時でも
	// リクエストを通します。false の場合は強制ログアウトします。
	FailOpenOnPersistenceError bool `envconfig:"FAIL_OPEN" default:"true"`
	// RedirectThreshold はループ判定を開始するリダイレクト回数です。
	RedirectThreshold int `envconfig:"REDIRECT_THRESHOLD" default:"5"`
	// HistoryLimit は保持するリダイレクト履歴の最大件数です。
	HistoryLimit int `envconfig:"HISTORY_LIMIT" default:"10"`
	// RepeatWindow は履歴末尾の何件で再訪を判定するかです。
	RepeatWindow int `envconfig:"REPEAT_WINDOW" default:"3"`
}

// Load は環境変数から設定を読み込み、検証して返します。
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

// Validate は設定値の妥当性を検証します。
func (c *Config) Validate() error {
	if c.Session.Secret == "" {
		return errors.New("session secret is required")
	}
	if len(c.Session.Secret) < MinSessionSecretLength {
		return fmt.Errorf("session secret must be at least %d characters long", MinSessionSecretLength)
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return errors.New("server port must be between 1 and 65535")
	}
	if c.Session.RedirectThreshold < 1 {
		return errors.New("redirect threshold must be positive")
	}
	if c.Session.HistoryLimit < c.Session.RepeatWindow {
		return errors.New("history limit must be at least the repeat window")
	}
	return nil
}

// Addr はサーバの待受アドレスを host:port 形式で返します。
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// DSN は MySQL の接続文字列を返します。
func (c *Config) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
	)
}
