package panel

import (
	"context"
	"encoding/json"
	"net/http"
	"runtime"

	"authgate/internal/domain"
	apperror "authgate/internal/errors"
	"authgate/internal/pkg/logger"
	"authgate/internal/pkg/middleware"
)

// SessionCounter expõe a contagem de sessões armazenadas (opcional; nem todo
// backend de sessão sabe contar barato).
type SessionCounter interface {
	Count() int
}

// RoleLister expõe os papéis cadastrados no store de identidade, para o
// painel administrativo.
type RoleLister interface {
	Roles(ctx context.Context) ([]domain.Role, error)
}

// Handler agrupa os handlers das páginas protegidas (dashboard e admin).
//
// Estes handlers repetem de propósito as checagens que o gateway já fez:
// o gateway é um guarda de caminho rápido, mas a checagem aqui é a
// autoritativa e não deve ser removida. Diferente do gateway, a falta de
// permissão aqui é um 403 duro, não um redirect com aviso.
type Handler struct {
	Sessions    SessionCounter
	Roles       RoleLister
	Environment string
	Logger      logger.Logger
}

// NewHandler cria uma nova instância do Handler do painel.
func NewHandler(sessions SessionCounter, roles RoleLister, environment string, log logger.Logger) *Handler {
	return &Handler{
		Sessions:    sessions,
		Roles:       roles,
		Environment: environment,
		Logger:      log,
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status, category, message := apperror.MapToHTTPStatus(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(domain.ErrorResponse{
		Code:     status,
		Category: category,
		Message:  message,
	})
}

// DashboardHandler lida com GET /dashboard.
// @Summary Dados do dashboard do usuário autenticado
// @Tags panel
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /dashboard [get]
func (h *Handler) DashboardHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
		return
	}

	// Camada 1 (defesa em profundidade): precisa estar autenticado, mesmo
	// que o gateway já tenha redirecionado anônimos.
	outcome, _ := middleware.GetAuthOutcome(r.Context())
	user, _, authenticated := outcome.Identity()
	if !authenticated {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"user": user,
		"stats": map[string]int{
			"posts":    12,
			"comments": 47,
			"views":    1823,
		},
		"recentActivity": []map[string]interface{}{
			{"id": 1, "action": "Published post", "time": "2 hours ago"},
			{"id": 2, "action": "Added comment", "time": "5 hours ago"},
			{"id": 3, "action": "Updated settings", "time": "Yesterday"},
		},
	})
}

// AdminHandler lida com GET /admin.
// @Summary Dados do painel administrativo
// @Tags panel
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} domain.ErrorResponse "Sem a permissão admin:system"
// @Router /admin [get]
func (h *Handler) AdminHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
		return
	}

	// Camada 1: precisa estar autenticado.
	outcome, _ := middleware.GetAuthOutcome(r.Context())
	user, _, authenticated := outcome.Identity()
	if !authenticated {
		http.Redirect(w, r, "/login?returnUrl=%2Fadmin", http.StatusSeeOther)
		return
	}

	// Camada 2: precisa da permissão admin:system. O gateway também guarda
	// esta rota, mas aqui a exigência é explícita e o veredito é 403 duro.
	if !outcome.HasPermission(domain.PermAdminSystem) {
		h.writeError(w, apperror.NewForbiddenError("You need the admin:system permission to access this page."))
		return
	}

	sessionCount := 0
	if h.Sessions != nil {
		sessionCount = h.Sessions.Count()
	}

	roles := []domain.Role{}
	if h.Roles != nil {
		listed, err := h.Roles.Roles(r.Context())
		if err != nil {
			h.Logger.Error("Falha ao listar papéis para o painel administrativo.", err)
			h.writeError(w, err)
			return
		}
		if listed != nil {
			roles = listed
		}
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"adminUser": user,
		"roles":     roles,
		"allUsers": []map[string]string{
			{"id": "user_alice", "email": "alice@example.com", "name": "Alice Admin", "role": "Admin"},
			{"id": "user_bob", "email": "bob@example.com", "name": "Bob Editor", "role": "Editor"},
		},
		"systemInfo": map[string]interface{}{
			"goVersion":    runtime.Version(),
			"environment":  h.Environment,
			"sessionCount": sessionCount,
		},
	})
}
