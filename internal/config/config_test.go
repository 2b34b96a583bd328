package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")
	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, "anthropic", cfg.Backend.Provider)
	assert.Equal(t, 30*time.Second, cfg.Backend.Timeout)
	assert.Equal(t, 5, cfg.Wallet.InitialBalance)
	assert.Equal(t, "memory", cfg.Store.Driver)
	assert.Equal(t, "a4", cfg.Render.PaperSize)
	assert.True(t, cfg.Render.PageNumbers)
	assert.Empty(t, cfg.APIKey())
}

func TestLoadFileEnvAndFlags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "xperience.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
listen_addr: ":9090"
backend:
  provider: gemini
  timeout: 5s
store:
  driver: sqlite
  path: /tmp/x.db
render:
  paper_size: Letter
  page_numbers: false
`), 0o600))
	t.Setenv("XPERIENCE_WALLET_INITIAL_BALANCE", "9")
	t.Setenv("GEMINI_API_KEY", "g-key")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("listen_addr", "", "")
	require.NoError(t, flags.Parse([]string{"--listen_addr=:7070"}))

	cfg, err := Load(path, flags)
	require.NoError(t, err)
	assert.Equal(t, ":7070", cfg.ListenAddr)
	assert.Equal(t, "gemini", cfg.Backend.Provider)
	assert.Equal(t, 5*time.Second, cfg.Backend.Timeout)
	assert.Equal(t, 9, cfg.Wallet.InitialBalance)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "g-key", cfg.APIKey())
	assert.Equal(t, "Letter", cfg.Render.PaperSize)
	assert.False(t, cfg.Render.PageNumbers)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), nil)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := &Config{
		Backend: BackendConfig{Provider: "openai", Timeout: 0},
		Wallet:  WalletConfig{InitialBalance: -1},
		Store:   StoreConfig{Driver: "postgres"},
		Render:  RenderConfig{PaperSize: "tabloid"},
	}
	err := cfg.Validate()
	require.Error(t, err)
	for _, want := range []string{"backend.provider", "backend.timeout", "wallet.initial_balance", "store.driver", "render.paper_size"} {
		assert.Contains(t, err.Error(), want)
	}
}
