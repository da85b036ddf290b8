package middleware_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"authgate/internal/domain"
	apperror "authgate/internal/errors"
	"authgate/internal/pkg/logger"
	"authgate/internal/pkg/middleware"
	"authgate/internal/service/policy"
)

// stubResolver devolve sempre o mesmo par (outcome, err).
type stubResolver struct {
	outcome domain.AuthOutcome
	err     error
}

func (s *stubResolver) Resolve(_ context.Context, _ string) (domain.AuthOutcome, error) {
	return s.outcome, s.err
}

func testLogger() logger.Logger {
	return logger.NewLoggerWithOutput("error", io.Discard)
}

func newGateway(resolver middleware.Resolver) *middleware.Gateway {
	return middleware.NewGateway(resolver, policy.Default(), false, testLogger())
}

// TestGateway_AnexaOutcomeAoContexto: em decisão Allow, o handler enxerga a
// identidade resolvida no contexto.
func TestGateway_AnexaOutcomeAoContexto(t *testing.T) {
	outcome := domain.Authenticated(domain.PublicUser{ID: "user_bob"}, []domain.Permission{domain.PermReadPosts})
	gw := newGateway(&stubResolver{outcome: outcome})

	var seen domain.AuthOutcome
	var ok bool
	handler := gw.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, ok = middleware.GetAuthOutcome(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/dashboard", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, ok)
	user, _, authenticated := seen.Identity()
	assert.True(t, authenticated)
	assert.Equal(t, "user_bob", user.ID)
}

// TestGateway_RedirecionaSemChamarHandler: decisão de redirect interrompe o
// pipeline antes do handler.
func TestGateway_RedirecionaSemChamarHandler(t *testing.T) {
	gw := newGateway(&stubResolver{outcome: domain.Unauthenticated(false)})

	called := false
	handler := gw.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/dashboard?tab=posts", nil))

	assert.False(t, called)
	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/login?returnUrl=%2Fdashboard%3Ftab%3Dposts", rr.Header().Get("Location"))
}

// TestGateway_LimpaCredencialObsoleta: outcome com pedido de limpeza expira
// o cookie no cliente, mesmo quando a requisição segue adiante.
func TestGateway_LimpaCredencialObsoleta(t *testing.T) {
	gw := newGateway(&stubResolver{outcome: domain.Unauthenticated(true)})

	handler := gw.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.AddCookie(&http.Cookie{Name: "session", Value: "token-obsoleto"})
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	cookies := rr.Result().Cookies()
	if assert.Len(t, cookies, 1) {
		assert.Equal(t, "session", cookies[0].Name)
		assert.Empty(t, cookies[0].Value)
		assert.Less(t, cookies[0].MaxAge, 0)
	}
}

// TestGateway_FalhaDeStoreVira5xx: erro de infraestrutura na resolução NÃO
// vira "deslogado": a resposta é 500 e o handler não roda.
func TestGateway_FalhaDeStoreVira5xx(t *testing.T) {
	gw := newGateway(&stubResolver{err: apperror.NewDBError("failed to load session", assert.AnError)})

	called := false
	handler := gw.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/dashboard", nil))

	assert.False(t, called)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Contains(t, rr.Body.String(), "INTERNAL_ERROR")
	// Nenhum redirect para login: o usuário não é tratado como anônimo.
	assert.Empty(t, rr.Header().Get("Location"))
}
