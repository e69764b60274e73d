package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix — префикс переменных окружения: HMDA_CLICKHOUSE_PASSWORD → ClickHouse.Password
const EnvPrefix = "HMDA"

var defaults = map[string]any{
	"Database":        "hmda_risk.duckdb",
	"Logging.Level":   "info",
	"Logging.LogFile": "",

	"Convert.Source":          "",
	"Convert.Destination":     "",
	"Convert.Compression":     "zstd",
	"Convert.Mode":            ModePermissive,
	"Convert.DateFormat":      "%Y-%m-%d",
	"Convert.TimestampFormat": "%Y-%m-%d %H:%M:%S",
	"Convert.Threads":         4,
	"Convert.MemoryLimit":     "2GB",

	"Diff.Source":          "",
	"Diff.Destination":     "",
	"Diff.BadRows":         "",
	"Diff.Schema":          "hmda",
	"Diff.Table":           "loan_applications",
	"Diff.Compression":     "zstd",
	"Diff.DateFormat":      "%Y-%m-%d",
	"Diff.TimestampFormat": "%Y-%m-%d %H:%M:%S",

	"S3.Region":          "",
	"S3.AccessKeyID":     "",
	"S3.SecretAccessKey": "",
	"S3.Endpoint":        "",
	"S3.UseSSL":          true,
	"S3.URLStyle":        "path",
	"S3.Verify":          false,

	"Import.Source": "",
	"Import.Schema": "hmda",
	"Import.Table":  "loan_applications",

	"Publish.Schema":         "hmda",
	"Publish.Table":          "loan_applications",
	"Publish.BatchSize":      10000,
	"Publish.BatchInterval":  5,
	"Publish.CheckpointPath": "publish_checkpoint.json",

	"ClickHouse.Address":     "",
	"ClickHouse.Username":    "default",
	"ClickHouse.Password":    "",
	"ClickHouse.Database":    "default",
	"ClickHouse.Table":       "loan_applications",
	"ClickHouse.Protocol":    "native",
	"ClickHouse.CreateTable": true,
}

// стандартные переменные AWS, как их читают SDK и python-dotenv скрипты
var awsEnv = map[string]string{
	"S3.Region":          "AWS_REGION",
	"S3.AccessKeyID":     "AWS_ACCESS_KEY_ID",
	"S3.SecretAccessKey": "AWS_SECRET_ACCESS_KEY",
	"S3.Endpoint":        "AWS_ENDPOINT_URL",
}

// Loader собирает Config из умолчаний, файла, .env, окружения и флагов.
// Приоритет: флаг > окружение > файл > умолчание.
type Loader struct {
	v *viper.Viper
}

// NewLoader создаёт загрузчик с умолчаниями и привязкой окружения
func NewLoader() *Loader {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range awsEnv {
		// ошибка возможна только при пустом ключе
		_ = v.BindEnv(key, EnvPrefix+"_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")), env)
	}
	return &Loader{v: v}
}

// BindFlag привязывает флаг cobra к ключу конфигурации
func (l *Loader) BindFlag(key string, flag *pflag.Flag) error {
	if flag == nil {
		return fmt.Errorf("bind %s: flag is nil", key)
	}
	if err := l.v.BindPFlag(key, flag); err != nil {
		return fmt.Errorf("bind %s: %w", key, err)
	}
	return nil
}

// Load читает конфиг.
// Шаги:
// 1. .env (если есть) — переменные, которых ещё нет в окружении
// 2. Файл конфигурации (если указан): чтение, очистка, разбор
// 3. Сборка структуры Config
// Валидация — на стороне команды: каждой нужна своя часть конфига.
func (l *Loader) Load(path, envFile string) (*Config, error) {
	// 1. .env
	if envFile != "" {
		if err := LoadEnvFile(envFile); err != nil {
			return nil, fmt.Errorf("load env file: %w", err)
		}
	}

	// 2. Файл
	if path != "" {
		raw, err := readFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		typ := configType(path)
		l.v.SetConfigType(typ)
		if err := l.v.ReadConfig(bytes.NewReader(sanitize(raw, typ))); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// 3. Сборка
	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.Convert.Mode = strings.ToLower(cfg.Convert.Mode)
	cfg.Convert.Compression = strings.ToLower(cfg.Convert.Compression)
	cfg.Diff.Compression = strings.ToLower(cfg.Diff.Compression)
	return &cfg, nil
}

// LoadConfig читает конфиг из файла без флагов
func LoadConfig(path string) (*Config, error) {
	return NewLoader().Load(path, "")
}

// LoadEnvFile выставляет переменные из .env, не перетирая уже заданные.
// Отсутствующий файл — не ошибка.
func LoadEnvFile(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	ev := viper.New()
	ev.SetConfigFile(path)
	ev.SetConfigType("env")
	if err := ev.ReadInConfig(); err != nil {
		return err
	}
	for _, key := range ev.AllKeys() {
		name := strings.ToUpper(key)
		if _, set := os.LookupEnv(name); set {
			continue
		}
		if err := os.Setenv(name, ev.GetString(key)); err != nil {
			return fmt.Errorf("setenv %s: %w", name, err)
		}
	}
	return nil
}

// readFile читает все байты из файла по пути
func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return data, nil
}

// sanitize удаляет BOM, а для YAML ещё и табуляции
func sanitize(data []byte, typ string) []byte {
	// Удаляем UTF-8 BOM
	data = bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})
	if typ == "yaml" {
		// Заменяем табы на два пробела, чтобы YAML-парсер не жаловался
		data = bytes.ReplaceAll(data, []byte("\t"), []byte("  "))
	}
	return data
}

func configType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return "json"
	case ".toml":
		return "toml"
	default:
		return "yaml"
	}
}
