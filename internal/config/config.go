package config

import (
	"fmt"
	"slices"
	"strings"
)

// Режимы обработки ошибок разбора CSV
const (
	ModeStrict     = "strict"     // IGNORE_ERRORS=FALSE: любая битая строка — ошибка
	ModePermissive = "permissive" // IGNORE_ERRORS=TRUE: битые строки отбрасываются
)

// Compressions — кодеки Parquet, которые принимает DuckDB в COPY ... (COMPRESSION ...)
var Compressions = []string{"zstd", "snappy", "gzip", "lz4", "brotli", "uncompressed"}

// LoggingConfig содержит настройки логирования
type LoggingConfig struct {
	Level   string `mapstructure:"Level"`   // debug, info, warn, error
	LogFile string `mapstructure:"LogFile"` // путь к файлу логов (только Error+)
}

// ClickHouseConfig содержит настройки подключения к ClickHouse для publish.
// Поля обязательны: Address, Database, Table
type ClickHouseConfig struct {
	Address     string `mapstructure:"Address"`
	Username    string `mapstructure:"Username"`
	Password    string `mapstructure:"Password"`
	Database    string `mapstructure:"Database"`
	Table       string `mapstructure:"Table"`
	Protocol    string `mapstructure:"Protocol"` // "native" или "http"
	CreateTable bool   `mapstructure:"CreateTable"`
}

// ConvertConfig — CSV → Parquet
type ConvertConfig struct {
	Source          string `mapstructure:"Source"`
	Destination     string `mapstructure:"Destination"`
	Compression     string `mapstructure:"Compression"`
	Mode            string `mapstructure:"Mode"`
	DateFormat      string `mapstructure:"DateFormat"`
	TimestampFormat string `mapstructure:"TimestampFormat"`
	Threads         int    `mapstructure:"Threads"`
	MemoryLimit     string `mapstructure:"MemoryLimit"`
}

// DiffConfig — сравнение lossless- и parsed-чтения CSV, запись Parquet без потерь
type DiffConfig struct {
	Source          string `mapstructure:"Source"`
	Destination     string `mapstructure:"Destination"`
	BadRows         string `mapstructure:"BadRows"`
	Schema          string `mapstructure:"Schema"`
	Table           string `mapstructure:"Table"`
	Compression     string `mapstructure:"Compression"`
	DateFormat      string `mapstructure:"DateFormat"`
	TimestampFormat string `mapstructure:"TimestampFormat"`
}

// S3Config — доступ DuckDB (httpfs) к S3. Ключи обычно приходят из окружения или .env
type S3Config struct {
	Region          string `mapstructure:"Region"`
	AccessKeyID     string `mapstructure:"AccessKeyID"`
	SecretAccessKey string `mapstructure:"SecretAccessKey"`
	Endpoint        string `mapstructure:"Endpoint"` // пусто — s3.amazonaws.com
	UseSSL          bool   `mapstructure:"UseSSL"`
	URLStyle        string `mapstructure:"URLStyle"` // "path" или "vhost"
	Verify          bool   `mapstructure:"Verify"`   // проверить наличие объекта до импорта
}

// ImportConfig — создание таблицы DuckDB из Parquet на S3
type ImportConfig struct {
	Source string `mapstructure:"Source"` // s3://bucket/key.parquet
	Schema string `mapstructure:"Schema"`
	Table  string `mapstructure:"Table"`
}

// PublishConfig — выгрузка таблицы DuckDB в ClickHouse пачками
type PublishConfig struct {
	Schema         string `mapstructure:"Schema"`
	Table          string `mapstructure:"Table"`
	BatchSize      int    `mapstructure:"BatchSize"`
	BatchInterval  int    `mapstructure:"BatchInterval"` // секунды
	CheckpointPath string `mapstructure:"CheckpointPath"`
}

// Config описывает настройки всех команд.
// Database — файл DuckDB; пусто — база в памяти.
// Загружается viper-ом из YAML, .env, переменных окружения и флагов.
type Config struct {
	Database   string           `mapstructure:"Database"`
	Logging    LoggingConfig    `mapstructure:"Logging"`
	Convert    ConvertConfig    `mapstructure:"Convert"`
	Diff       DiffConfig       `mapstructure:"Diff"`
	S3         S3Config         `mapstructure:"S3"`
	Import     ImportConfig     `mapstructure:"Import"`
	Publish    PublishConfig    `mapstructure:"Publish"`
	ClickHouse ClickHouseConfig `mapstructure:"ClickHouse"`
}

// Validate проверяет обязательные поля конвертации
func (c *ConvertConfig) Validate() error {
	if c.Source == "" {
		return fmt.Errorf("Convert.Source must not be empty")
	}
	if c.Destination == "" {
		return fmt.Errorf("Convert.Destination must not be empty")
	}
	if err := validateCompression(c.Compression); err != nil {
		return fmt.Errorf("Convert.Compression: %w", err)
	}
	if c.Mode != ModeStrict && c.Mode != ModePermissive {
		return fmt.Errorf("Convert.Mode must be %q or %q, got %q", ModeStrict, ModePermissive, c.Mode)
	}
	if c.Threads < 0 {
		return fmt.Errorf("Convert.Threads must not be negative")
	}
	return nil
}

// Validate проверяет обязательные поля diff
func (c *DiffConfig) Validate() error {
	if c.Source == "" {
		return fmt.Errorf("Diff.Source must not be empty")
	}
	if c.Destination == "" {
		return fmt.Errorf("Diff.Destination must not be empty")
	}
	if c.BadRows == "" {
		return fmt.Errorf("Diff.BadRows must not be empty")
	}
	if c.Schema == "" || c.Table == "" {
		return fmt.Errorf("Diff.Schema and Diff.Table must not be empty")
	}
	if err := validateCompression(c.Compression); err != nil {
		return fmt.Errorf("Diff.Compression: %w", err)
	}
	return nil
}

// Validate проверяет обязательные поля импорта из S3
func (c *ImportConfig) Validate() error {
	if !strings.HasPrefix(c.Source, "s3://") {
		return fmt.Errorf("Import.Source must be an s3:// URL, got %q", c.Source)
	}
	if c.Schema == "" || c.Table == "" {
		return fmt.Errorf("Import.Schema and Import.Table must not be empty")
	}
	return nil
}

// Validate проверяет настройки S3
func (c *S3Config) Validate() error {
	if c.Region == "" {
		return fmt.Errorf("S3.Region must not be empty (AWS_REGION)")
	}
	if c.URLStyle != "path" && c.URLStyle != "vhost" {
		return fmt.Errorf("S3.URLStyle must be \"path\" or \"vhost\", got %q", c.URLStyle)
	}
	return nil
}

// Validate проверяет настройки публикации
func (c *PublishConfig) Validate() error {
	if c.Schema == "" || c.Table == "" {
		return fmt.Errorf("Publish.Schema and Publish.Table must not be empty")
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("Publish.BatchSize must be positive")
	}
	if c.BatchInterval <= 0 {
		return fmt.Errorf("Publish.BatchInterval must be positive")
	}
	if c.CheckpointPath == "" {
		return fmt.Errorf("Publish.CheckpointPath must not be empty")
	}
	return nil
}

// Validate проверяет обязательные поля ClickHouse
func (c *ClickHouseConfig) Validate() error {
	if c.Address == "" {
		return fmt.Errorf("ClickHouse.Address must not be empty")
	}
	if c.Database == "" {
		return fmt.Errorf("ClickHouse.Database must not be empty")
	}
	if c.Table == "" {
		return fmt.Errorf("ClickHouse.Table must not be empty")
	}
	if c.Protocol != "native" && c.Protocol != "http" {
		return fmt.Errorf("ClickHouse.Protocol must be \"native\" or \"http\", got %q", c.Protocol)
	}
	return nil
}

func validateCompression(codec string) error {
	if !slices.Contains(Compressions, codec) {
		return fmt.Errorf("unsupported codec %q, expected one of %s", codec, strings.Join(Compressions, ", "))
	}
	return nil
}
