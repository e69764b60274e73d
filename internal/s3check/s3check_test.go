package s3check

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"HMDARiskPump/internal/config"
)

func TestParseURL(t *testing.T) {
	obj, err := ParseURL("s3://hmda-bucket/processed/loan_applications.parquet")
	require.NoError(t, err)
	assert.Equal(t, Object{Bucket: "hmda-bucket", Key: "processed/loan_applications.parquet"}, obj)

	for _, bad := range []string{
		"https://hmda-bucket/x.parquet",
		"s3://hmda-bucket",
		"s3:///key.parquet",
	} {
		_, err := ParseURL(bad)
		assert.Error(t, err, bad)
	}
}

func TestNewVerifierEndpoint(t *testing.T) {
	v, err := NewVerifier(config.S3Config{
		Region:   "us-east-1",
		Endpoint: "http://localhost:9000",
		URLStyle: "path",
	}, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "localhost:9000", v.client.EndpointURL().Host)

	v, err = NewVerifier(config.S3Config{Region: "us-east-1", UseSSL: true, URLStyle: "vhost"}, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, defaultEndpoint, v.client.EndpointURL().Host)
	assert.Equal(t, "https", v.client.EndpointURL().Scheme)
}

func TestHost(t *testing.T) {
	assert.Equal(t, "minio.local:9000", Host("https://minio.local:9000/"))
	assert.Equal(t, "s3.us-east-2.amazonaws.com", Host("s3.us-east-2.amazonaws.com"))
	assert.Empty(t, Host(""))
}
