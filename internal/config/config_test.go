package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "hmda_risk.duckdb", cfg.Database)
	assert.Equal(t, "zstd", cfg.Convert.Compression)
	assert.Equal(t, ModePermissive, cfg.Convert.Mode)
	assert.Equal(t, 4, cfg.Convert.Threads)
	assert.Equal(t, "2GB", cfg.Convert.MemoryLimit)
	assert.Equal(t, "hmda", cfg.Diff.Schema)
	assert.Equal(t, "loan_applications", cfg.Import.Table)
	assert.True(t, cfg.S3.UseSSL)
	assert.Equal(t, "path", cfg.S3.URLStyle)
	assert.Equal(t, 10000, cfg.Publish.BatchSize)
	assert.Equal(t, "native", cfg.ClickHouse.Protocol)
}

func TestLoadYAMLWithBOMAndTabs(t *testing.T) {
	content := "\xEF\xBB\xBFDatabase: /data/hmda.duckdb\nConvert:\n\tSource: in.csv\n\tDestination: out.parquet\n\tMode: STRICT\n\tCompression: Snappy\n"
	cfg, err := LoadConfig(writeFile(t, "config.yaml", content))
	require.NoError(t, err)

	assert.Equal(t, "/data/hmda.duckdb", cfg.Database)
	assert.Equal(t, "in.csv", cfg.Convert.Source)
	assert.Equal(t, "out.parquet", cfg.Convert.Destination)
	assert.Equal(t, ModeStrict, cfg.Convert.Mode)
	assert.Equal(t, "snappy", cfg.Convert.Compression)
	assert.NoError(t, cfg.Convert.Validate())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("AWS_REGION", "us-east-2")
	t.Setenv("AWS_ACCESS_KEY_ID", "AKIA")
	t.Setenv("HMDA_CLICKHOUSE_PASSWORD", "secret")

	cfg, err := LoadConfig(writeFile(t, "config.yaml", "S3:\n  Region: eu-west-1\n"))
	require.NoError(t, err)

	assert.Equal(t, "us-east-2", cfg.S3.Region)
	assert.Equal(t, "AKIA", cfg.S3.AccessKeyID)
	assert.Equal(t, "secret", cfg.ClickHouse.Password)
}

func TestLoadEnvFileDoesNotOverride(t *testing.T) {
	t.Setenv("AWS_REGION", "us-west-1")
	// заранее регистрируем переменную, чтобы t.Setenv восстановил её после теста
	t.Setenv("AWS_SECRET_ACCESS_KEY", "")
	require.NoError(t, os.Unsetenv("AWS_SECRET_ACCESS_KEY"))

	envFile := writeFile(t, ".env", "AWS_REGION=eu-central-1\nAWS_SECRET_ACCESS_KEY=from-dotenv\n")
	cfg, err := NewLoader().Load("", envFile)
	require.NoError(t, err)

	assert.Equal(t, "us-west-1", cfg.S3.Region)
	assert.Equal(t, "from-dotenv", cfg.S3.SecretAccessKey)
}

func TestLoadEnvFileMissingIsFine(t *testing.T) {
	_, err := NewLoader().Load("", filepath.Join(t.TempDir(), ".env"))
	assert.NoError(t, err)
}

func TestBindFlag(t *testing.T) {
	fs := pflag.NewFlagSet("convert", pflag.ContinueOnError)
	fs.String("source", "", "")
	fs.String("compression", "zstd", "")
	require.NoError(t, fs.Parse([]string{"--source", "flag.csv"}))

	l := NewLoader()
	require.NoError(t, l.BindFlag("Convert.Source", fs.Lookup("source")))
	require.NoError(t, l.BindFlag("Convert.Compression", fs.Lookup("compression")))
	assert.Error(t, l.BindFlag("Convert.Mode", fs.Lookup("mode")))

	cfg, err := l.Load(writeFile(t, "config.yaml", "Convert:\n  Source: file.csv\n  Compression: gzip\n"), "")
	require.NoError(t, err)

	// изменённый флаг важнее файла, неизменённый — нет
	assert.Equal(t, "flag.csv", cfg.Convert.Source)
	assert.Equal(t, "gzip", cfg.Convert.Compression)
}

func TestConvertValidate(t *testing.T) {
	valid := ConvertConfig{Source: "a.csv", Destination: "a.parquet", Compression: "zstd", Mode: ModeStrict}
	assert.NoError(t, valid.Validate())

	bad := valid
	bad.Compression = "rar"
	assert.ErrorContains(t, bad.Validate(), "unsupported codec")

	bad = valid
	bad.Mode = "lenient"
	assert.Error(t, bad.Validate())

	bad = valid
	bad.Source = ""
	assert.Error(t, bad.Validate())
}

func TestOtherValidators(t *testing.T) {
	assert.Error(t, (&ImportConfig{Source: "https://x/y.parquet", Schema: "s", Table: "t"}).Validate())
	assert.NoError(t, (&ImportConfig{Source: "s3://b/k.parquet", Schema: "s", Table: "t"}).Validate())

	assert.Error(t, (&S3Config{URLStyle: "path"}).Validate())
	assert.NoError(t, (&S3Config{Region: "us-east-1", URLStyle: "vhost"}).Validate())

	assert.Error(t, (&PublishConfig{Schema: "s", Table: "t", BatchInterval: 1, CheckpointPath: "c"}).Validate())
	assert.NoError(t, (&PublishConfig{Schema: "s", Table: "t", BatchSize: 1, BatchInterval: 1, CheckpointPath: "c"}).Validate())

	assert.Error(t, (&ClickHouseConfig{Address: "x:9000", Database: "d", Table: "t", Protocol: "grpc"}).Validate())
	assert.NoError(t, (&ClickHouseConfig{Address: "x:9000", Database: "d", Table: "t", Protocol: "http"}).Validate())

	assert.Error(t, (&DiffConfig{Source: "a", Destination: "b", Schema: "s", Table: "t", Compression: "zstd"}).Validate())
}
