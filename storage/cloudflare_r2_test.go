package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublicURL(t *testing.T) {
	tests := []struct {
		name string
		base string
		key  string
		want string
	}{
		{"plain", "https://cdn.example.com", "snapshots/1.json", "https://cdn.example.com/snapshots/1.json"},
		{"base with slash", "https://cdn.example.com/", "/snapshots/1.json", "https://cdn.example.com/snapshots/1.json"},
		{"base with path", "https://cdn.example.com/padel", "snapshots/1.json", "https://cdn.example.com/padel/snapshots/1.json"},
		{"empty key", "https://cdn.example.com", "", ""},
		{"empty base", "", "snapshots/1.json", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, publicURL(tt.base, tt.key))
		})
	}
}

func TestCloudflareR2UploaderConfig(t *testing.T) {
	full := CloudflareR2UploaderConfig{
		AccountID: "acc", AccessKeyID: "key", SecretAccessKey: "secret",
		BucketName: "bucket", PublicBaseURL: "https://cdn.example.com",
	}
	assert.True(t, full.Enabled())
	assert.False(t, full.Partial())

	assert.False(t, CloudflareR2UploaderConfig{}.Enabled())
	assert.False(t, CloudflareR2UploaderConfig{}.Partial())

	partial := CloudflareR2UploaderConfig{BucketName: "bucket"}
	assert.True(t, partial.Partial())

	_, err := NewCloudflareR2Uploader(context.Background(), partial)
	require.ErrorIs(t, err, ErrNotConfigured)
}

func TestNewCloudflareR2Uploader(t *testing.T) {
	u, err := NewCloudflareR2Uploader(context.Background(), CloudflareR2UploaderConfig{
		AccountID: "acc", AccessKeyID: "key", SecretAccessKey: "secret",
		BucketName: "bucket", PublicBaseURL: "https://cdn.example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/snapshots/tournament_3.json", u.GetPublicURL("snapshots/tournament_3.json"))
}
