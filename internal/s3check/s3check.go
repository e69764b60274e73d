package s3check

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"

	"HMDARiskPump/internal/config"
)

const defaultEndpoint = "s3.amazonaws.com"

// Object — bucket и ключ из s3://bucket/key
type Object struct {
	Bucket string
	Key    string
}

// ParseURL разбирает s3://bucket/path/to/key
func ParseURL(raw string) (Object, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return Object{}, fmt.Errorf("parse %q: %w", raw, err)
	}
	if u.Scheme != "s3" {
		return Object{}, fmt.Errorf("parse %q: scheme must be s3", raw)
	}
	key := strings.TrimPrefix(u.Path, "/")
	if u.Host == "" || key == "" {
		return Object{}, fmt.Errorf("parse %q: bucket and key are required", raw)
	}
	return Object{Bucket: u.Host, Key: key}, nil
}

// Host возвращает host[:port] без схемы: так endpoint ждут и minio, и s3_endpoint DuckDB
func Host(endpoint string) string {
	endpoint = strings.TrimPrefix(strings.TrimPrefix(endpoint, "https://"), "http://")
	return strings.TrimSuffix(endpoint, "/")
}

// Verifier проверяет наличие объекта до того, как DuckDB начнёт его читать
type Verifier struct {
	client *minio.Client
	logger *zap.Logger
}

// NewVerifier создаёт клиента minio с теми же ключами, что получает DuckDB
func NewVerifier(cfg config.S3Config, logger *zap.Logger) (*Verifier, error) {
	endpoint := Host(cfg.Endpoint)
	if endpoint == "" {
		endpoint = defaultEndpoint
	}

	lookup := minio.BucketLookupPath
	if cfg.URLStyle == "vhost" {
		lookup = minio.BucketLookupDNS
	}
	client, err := minio.New(endpoint, &minio.Options{
		Creds:        credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure:       cfg.UseSSL,
		Region:       cfg.Region,
		BucketLookup: lookup,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}
	return &Verifier{client: client, logger: logger}, nil
}

// Verify возвращает размер объекта или ошибку, если его нет/нет доступа
func (v *Verifier) Verify(ctx context.Context, rawURL string) (int64, error) {
	obj, err := ParseURL(rawURL)
	if err != nil {
		return 0, err
	}
	info, err := v.client.StatObject(ctx, obj.Bucket, obj.Key, minio.StatObjectOptions{})
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return 0, fmt.Errorf("s3 object %s: not found", rawURL)
		}
		return 0, fmt.Errorf("stat %s: %w", rawURL, err)
	}
	v.logger.Info("Объект S3 найден", zap.String("url", rawURL), zap.Int64("size", info.Size), zap.Time("modified", info.LastModified))
	return info.Size, nil
}
