package authhttp

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadOptions(t *testing.T) {
	dir := t.TempDir()
	tokenPath := filepath.Join(dir, "tokens.json")
	configPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(`
baseURL: http://api.local/api/v1
refreshPath: /session/renew
timeout: 5s
oauth2:
  tokenURL: http://idp.local/token
  clientID: cli
store:
  type: file
  url: `+tokenPath+`
`), 0o600))

	var testCases = []struct {
		description string
		path        string
		env         map[string]string
		expect      func(t *testing.T, options *ClientOptions)
	}{
		{
			description: "file",
			path:        configPath,
			expect: func(t *testing.T, options *ClientOptions) {
				assert.Equal(t, "http://api.local/api/v1", options.BaseURL)
				assert.Equal(t, 5*time.Second, options.Timeout)
				assert.Equal(t, StoreFile, options.Store.Type)
				assert.Equal(t, tokenPath, options.Store.URL)
				assert.Equal(t, 15*time.Second, options.RefreshTimeout)
				assert.Equal(t, "/session/renew", options.RefreshPath)
				assert.Equal(t, "http://idp.local/token", options.OAuth2.TokenURL)
				assert.Equal(t, "cli", options.OAuth2.ClientID)
			},
		},
		{
			description: "env overrides file",
			path:        configPath,
			env:         map[string]string{"AUTHHTTP_BASE_URL": "http://override.local/api/v1"},
			expect: func(t *testing.T, options *ClientOptions) {
				assert.Equal(t, "http://override.local/api/v1", options.BaseURL)
				assert.Equal(t, StoreFile, options.Store.Type)
			},
		},
		{
			description: "config path from env",
			env:         map[string]string{configPathEnv: configPath},
			expect: func(t *testing.T, options *ClientOptions) {
				assert.Equal(t, StoreFile, options.Store.Type)
			},
		},
		{
			description: "env only defaults",
			env:         map[string]string{"AUTHHTTP_STORE": "redis"},
			expect: func(t *testing.T, options *ClientOptions) {
				assert.Equal(t, DefaultBaseURL, options.BaseURL)
				assert.Equal(t, StoreRedis, options.Store.Type)
				assert.Equal(t, "localhost:6379", options.Store.RedisAddr)
				assert.Equal(t, "authhttp:session", options.Store.RedisKey)
				assert.Equal(t, "/auth/refresh", options.RefreshPath)
				assert.Empty(t, options.OAuth2.TokenURL)
			},
		},
		{
			description: "refresh path from env",
			env:         map[string]string{"AUTHHTTP_REFRESH_PATH": "/token/rotate"},
			expect: func(t *testing.T, options *ClientOptions) {
				assert.Equal(t, "/token/rotate", options.RefreshPath)
			},
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.description, func(t *testing.T) {
			for k, v := range testCase.env {
				t.Setenv(k, v)
			}
			options, err := LoadOptions(testCase.path)
			require.NoError(t, err)
			testCase.expect(t, options)
		})
	}
}

func TestLoadOptions_MissingFile(t *testing.T) {
	_, err := LoadOptions(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestNew_StoreSelection(t *testing.T) {
	ctx := context.Background()
	tokenPath := filepath.Join(t.TempDir(), "tokens.json")

	client, err := New(ctx, &ClientOptions{Store: StoreOptions{Type: StoreFile, URL: tokenPath}})
	require.NoError(t, err)
	require.NoError(t, client.Store().Set(ctx, "A1", "R1"))

	reopened, err := New(ctx, &ClientOptions{Store: StoreOptions{Type: StoreFile, URL: tokenPath}})
	require.NoError(t, err)
	assert.True(t, authenticated(t, reopened))

	_, err = New(ctx, &ClientOptions{Store: StoreOptions{Type: StoreFile}})
	assert.Error(t, err)
	_, err = New(ctx, &ClientOptions{Store: StoreOptions{Type: "etcd"}})
	assert.Error(t, err)
}
