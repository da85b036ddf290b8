package panel_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"authgate/internal/api/panel"
	"authgate/internal/domain"
	apperror "authgate/internal/errors"
	"authgate/internal/pkg/logger"
	"authgate/internal/pkg/middleware"
)

type fixedCount int

func (c fixedCount) Count() int { return int(c) }

type fixedRoles []domain.Role

func (f fixedRoles) Roles(_ context.Context) ([]domain.Role, error) { return f, nil }

type brokenRoles struct{}

func (brokenRoles) Roles(_ context.Context) ([]domain.Role, error) {
	return nil, apperror.NewDBError("failed to list roles", assert.AnError)
}

func newPanelHandler() *panel.Handler {
	roles := fixedRoles{{ID: "role_editor", Name: "Editor", Permissions: []domain.Permission{domain.PermReadPosts}}}
	return panel.NewHandler(fixedCount(3), roles, "test", logger.NewLoggerWithOutput("error", io.Discard))
}

func requestWith(outcome domain.AuthOutcome, path string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	ctx := context.WithValue(req.Context(), middleware.AuthOutcomeKey, outcome)
	return req.WithContext(ctx)
}

// As checagens destes handlers são a camada autoritativa: valem mesmo se o
// gateway for retirado da frente (aqui os handlers são chamados diretamente,
// sem middleware).

func TestDashboard_SemSessaoRedireciona(t *testing.T) {
	h := newPanelHandler()

	rr := httptest.NewRecorder()
	h.DashboardHandler(rr, requestWith(domain.Unauthenticated(false), "/dashboard"))

	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/login", rr.Header().Get("Location"))
}

func TestDashboard_Autenticado(t *testing.T) {
	h := newPanelHandler()
	outcome := domain.Authenticated(domain.PublicUser{ID: "user_bob"}, []domain.Permission{domain.PermReadPosts})

	rr := httptest.NewRecorder()
	h.DashboardHandler(rr, requestWith(outcome, "/dashboard"))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "user_bob")
	assert.Contains(t, rr.Body.String(), "stats")
}

func TestAdmin_SemSessaoRedireciona(t *testing.T) {
	h := newPanelHandler()

	rr := httptest.NewRecorder()
	h.AdminHandler(rr, requestWith(domain.Unauthenticated(false), "/admin"))

	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/login?returnUrl=%2Fadmin", rr.Header().Get("Location"))
}

// TestAdmin_SemPermissao403Duro: diferente do gateway (redirect com aviso),
// o handler responde 403 com mensagem explícita.
func TestAdmin_SemPermissao403Duro(t *testing.T) {
	h := newPanelHandler()
	outcome := domain.Authenticated(domain.PublicUser{ID: "user_bob"}, []domain.Permission{domain.PermReadPosts})

	rr := httptest.NewRecorder()
	h.AdminHandler(rr, requestWith(outcome, "/admin"))

	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Contains(t, rr.Body.String(), "admin:system")
	assert.Contains(t, rr.Body.String(), "FORBIDDEN")
}

func TestAdmin_ComPermissao(t *testing.T) {
	h := newPanelHandler()
	outcome := domain.Authenticated(domain.PublicUser{ID: "user_alice"}, []domain.Permission{domain.PermAdminSystem})

	rr := httptest.NewRecorder()
	h.AdminHandler(rr, requestWith(outcome, "/admin"))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "sessionCount")
	assert.Contains(t, rr.Body.String(), `"sessionCount":3`)
	assert.Contains(t, rr.Body.String(), `"role_editor"`)
}

// TestAdmin_FalhaAoListarPapeis: falha do store de identidade na listagem de
// papéis é 5xx, não uma resposta parcial.
func TestAdmin_FalhaAoListarPapeis(t *testing.T) {
	h := panel.NewHandler(fixedCount(0), brokenRoles{}, "test", logger.NewLoggerWithOutput("error", io.Discard))
	outcome := domain.Authenticated(domain.PublicUser{ID: "user_alice"}, []domain.Permission{domain.PermAdminSystem})

	rr := httptest.NewRecorder()
	h.AdminHandler(rr, requestWith(outcome, "/admin"))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}
