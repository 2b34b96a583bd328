package main

import (
	"bytes"
	"context"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/joelkehle/xperience-reports/internal/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	t.Setenv("ANTHROPIC_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("XPERIENCE_BACKEND_ANTHROPIC_API_KEY", "")
	t.Setenv("XPERIENCE_TELEMETRY_OTLP_ENDPOINT", "")
	t.Setenv("XPERIENCE_LOG_LEVEL", "error")
	cfg, err := config.Load("", nil)
	require.NoError(t, err)
	return cfg
}

func TestServeStopsOnCancel(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	cfg := testConfig(t)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	base := "http://" + ln.Addr().String()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- serve(ctx, cfg, ln) }()

	client := &http.Client{Timeout: 2 * time.Second, Transport: &http.Transport{DisableKeepAlives: true}}
	require.Eventually(t, func() bool {
		resp, err := client.Get(base + "/v1/health")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	resp, err := client.Post(base+"/v1/sessions", "application/json", bytes.NewBufferString(`{"wallet_type":"metamask"}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(shutdownTimeout):
		t.Fatal("serve did not return after cancel")
	}

	_, err = net.DialTimeout("tcp", ln.Addr().String(), 200*time.Millisecond)
	assert.Error(t, err, "listener should be closed after shutdown")
}

func TestServeRejectsBadPaperSize(t *testing.T) {
	cfg := testConfig(t)
	cfg.Render.PaperSize = "tabloid"
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	err = serve(context.Background(), cfg, ln)
	assert.ErrorContains(t, err, "tabloid")
	_, err = net.DialTimeout("tcp", ln.Addr().String(), 200*time.Millisecond)
	assert.Error(t, err, "serve must close the listener on setup failure")
}

func TestServeCmdInvalidConfig(t *testing.T) {
	testConfig(t)
	t.Setenv("XPERIENCE_STORE_DRIVER", "postgres")
	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"serve", "--listen_addr", "127.0.0.1:0"})
	err := cmd.Execute()
	assert.ErrorContains(t, err, "store.driver")
}
