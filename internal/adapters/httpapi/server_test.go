package httpapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mikey/contact-relay/internal/adapters/store"
	"github.com/mikey/contact-relay/internal/allowlist"
	"github.com/mikey/contact-relay/internal/config"
	"github.com/mikey/contact-relay/internal/core"
	"github.com/mikey/contact-relay/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubVerifier struct {
	result *core.VerificationResult
	err    error
}

func (v *stubVerifier) Verify(context.Context, string, string) (*core.VerificationResult, error) {
	return v.result, v.err
}

type stubMailer struct {
	err  error
	sent int
}

func (m *stubMailer) Send(context.Context, *core.Message) error {
	if m.err != nil {
		return m.err
	}
	m.sent++
	return nil
}

func newPipelineRouter(t *testing.T, verifier core.Verifier, mailer core.Mailer) http.Handler {
	t.Helper()

	logger := zap.NewNop()
	rates := store.NewMemoryStore(logger, time.Hour, 0)
	t.Cleanup(rates.Stop)

	service := core.NewContactService(
		core.NewRateLimiter(rates, core.DefaultRateLimitPolicy(), logger),
		core.NewValidator(utils.NewTextProcessor(logger), true),
		verifier,
		mailer,
		nil,
		logger,
		core.ServiceConfig{
			VerificationEnabled: true,
			Identity: core.MailIdentity{
				FromAddress: "noreply@example.com",
				FromName:    "Contact Form",
				To:          "inbox@example.com",
			},
		},
	)

	return NewRouter(RouterDeps{
		Service: service,
		Origins: allowlist.NewChecker(nil, false, nil),
		Server:  config.ServerConfig{Path: "/", MaxBodyBytes: 64 * 1024},
		Logger:  logger,
	})
}

func TestPipelineRateLimitsAfterTenSends(t *testing.T) {
	mailer := &stubMailer{}
	router := newPipelineRouter(t, &stubVerifier{result: &core.VerificationResult{Success: true}}, mailer)

	for i := 0; i < 10; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, formRequest(http.MethodPost, "/", validForm()))
		require.Equal(t, http.StatusOK, w.Code, "request %d", i+1)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, formRequest(http.MethodPost, "/", validForm()))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.JSONEq(t, `{"success":false,"error":"Too many requests. Please try again later."}`, w.Body.String())
	assert.Equal(t, 10, mailer.sent)
}

func TestPipelineFailuresDoNotCountTowardsLimit(t *testing.T) {
	mailer := &stubMailer{err: errors.New("421 service not available")}
	router := newPipelineRouter(t, &stubVerifier{result: &core.VerificationResult{Success: true}}, mailer)

	for i := 0; i < 12; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, formRequest(http.MethodPost, "/", validForm()))
		require.Equal(t, http.StatusInternalServerError, w.Code)
		assert.JSONEq(t, `{"success":false,"error":"Failed to send message. Please try again later."}`, w.Body.String())
	}

	mailer.err = nil
	w := httptest.NewRecorder()
	router.ServeHTTP(w, formRequest(http.MethodPost, "/", validForm()))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestPipelineVerification(t *testing.T) {
	tests := []struct {
		name     string
		verifier *stubVerifier
		status   int
		message  string
	}{
		{"unreachable", &stubVerifier{err: errors.New("dial tcp: i/o timeout")}, 500, "Could not verify security check. Please try again."},
		{"rejected", &stubVerifier{result: &core.VerificationResult{Success: false}}, 422, "Security check failed. Please try again."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mailer := &stubMailer{}
			router := newPipelineRouter(t, tt.verifier, mailer)

			w := httptest.NewRecorder()
			router.ServeHTTP(w, formRequest(http.MethodPost, "/", validForm()))
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.message, decodeOutcome(t, w).Error)
			assert.Zero(t, mailer.sent)
		})
	}
}

func TestPipelineMissingToken(t *testing.T) {
	router := newPipelineRouter(t, &stubVerifier{result: &core.VerificationResult{Success: true}}, &stubMailer{})

	form := validForm()
	form.Del(TokenField)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, formRequest(http.MethodPost, "/", form))

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "Please complete the security check.", decodeOutcome(t, w).Error)
}

func TestServerStartStop(t *testing.T) {
	srv := NewServer(config.ServerConfig{
		ListenAddress:   "127.0.0.1:0",
		ReadTimeout:     time.Second,
		WriteTimeout:    time.Second,
		IdleTimeout:     time.Second,
		ShutdownTimeout: time.Second,
	}, newTestRouter(&fakeSubmitter{}, nil), zap.NewNop())

	require.NoError(t, srv.Start())

	resp, err := http.Get(fmt.Sprintf("http://%s/healthz", srv.Addr()))
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"success":true}`, string(body))

	require.NoError(t, srv.Stop())

	_, err = http.Get(fmt.Sprintf("http://%s/healthz", srv.Addr()))
	assert.Error(t, err)
}

func TestServerStartFailsOnBusyAddress(t *testing.T) {
	first := NewServer(config.ServerConfig{ListenAddress: "127.0.0.1:0"}, http.NotFoundHandler(), zap.NewNop())
	require.NoError(t, first.Start())
	defer first.Stop()

	second := NewServer(config.ServerConfig{ListenAddress: first.Addr()}, http.NotFoundHandler(), zap.NewNop())
	assert.Error(t, second.Start())
}
