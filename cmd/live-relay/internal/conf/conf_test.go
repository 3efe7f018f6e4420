package conf

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	bc, m, err := Load("")
	require.NoError(t, err)
	defer m.Close()

	assert.Equal(t, "gemini-live-2.5-flash-preview-native-audio", bc.Upstream.Model)
	assert.Equal(t, "Puck", bc.Upstream.Voice)
	assert.Equal(t, 30*time.Second, bc.Relay.IdentityTimeout)
	assert.Equal(t, 25*time.Second, bc.Personalization.Timeout)
	assert.Equal(t, 512, bc.Relay.AudioQueueSize)
	assert.Equal(t, "/user/{uid}", bc.Backend.Endpoints.User)
	assert.Equal(t, []string{"https://www.googleapis.com/auth/cloud-platform"}, bc.Upstream.Scopes)
	assert.Equal(t, float32(0.3), bc.Summary.Temperature)
}

func TestLoad_FileAndEnv(t *testing.T) {
	// 准备测试数据
	path := filepath.Join(t.TempDir(), "relay.yaml")
	content := `
backend:
  base_url: http://backend:3000
  endpoints:
    save_summary: /backend/save-plan
consul:
  enabled: true
  address: consul:8500
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	t.Setenv("LIVE_RELAY_RELAY_AUDIO_QUEUE_SIZE", "64")

	// 执行加载
	bc, m, err := Load(path)
	require.NoError(t, err)
	defer m.Close()

	// 验证结果
	assert.Equal(t, "http://backend:3000", bc.Backend.BaseURL)
	assert.Equal(t, "/backend/save-plan", bc.Backend.Endpoints.SaveSummary)
	assert.Equal(t, "/save-name", bc.Backend.Endpoints.SaveName)
	assert.Equal(t, 64, bc.Relay.AudioQueueSize)
	assert.True(t, bc.Consul.Enabled)
	assert.Equal(t, "consul:8500", bc.Consul.Address)
}
