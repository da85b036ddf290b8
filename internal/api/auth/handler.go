package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"authgate/internal/domain"
	apperror "authgate/internal/errors"
	"authgate/internal/pkg/logger"
	"authgate/internal/pkg/middleware"
	"authgate/internal/pkg/sessioncookie"
)

// AuthService define o contrato do portão de credenciais consumido pelos
// handlers. Os dois transportes de login (JSON e formulário) chamam a MESMA
// operação. A lógica de checagem de credencial e criação de sessão não é
// duplicada por transporte.
type AuthService interface {
	Login(ctx context.Context, email, password string) (domain.Session, domain.PublicUser, error)
	Logout(ctx context.Context, token string) error
	Register(ctx context.Context, registration domain.UserRegistration) (domain.PublicUser, error)
	TTL() time.Duration
}

// LoginRequest representa o payload JSON de entrada para o login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SessionResponse é a projeção {user, permissions} devolvida ao cliente.
// É o sinal de revalidação pull: depois de login/logout o cliente refaz o
// GET em vez de confiar num snapshot antigo em memória.
type SessionResponse struct {
	User        *domain.PublicUser  `json:"user"`
	Permissions []domain.Permission `json:"permissions"`
}

// Handler agrupa os handlers de autenticação.
type Handler struct {
	Service       AuthService
	SecureCookies bool
	Logger        logger.Logger
}

// NewHandler cria uma nova instância do Handler, injetando o Service e o Logger.
func NewHandler(svc AuthService, secureCookies bool, log logger.Logger) *Handler {
	return &Handler{
		Service:       svc,
		SecureCookies: secureCookies,
		Logger:        log,
	}
}

// writeJSON serializa a resposta de sucesso.
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError traduz um erro tipado para o envelope padrão de erro da API.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status, category, message := apperror.MapToHTTPStatus(err)
	if status >= 500 {
		h.Logger.Error("Erro interno no serviço de autenticação.", err)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(domain.ErrorResponse{
		Code:     status,
		Category: category,
		Message:  message,
	})
}

// LoginJSONHandler lida com POST /api/auth/login.
// @Summary Autentica um usuário via JSON
// @Description Verifica as credenciais, cria uma sessão com TTL fixo e grava o cookie de sessão.
// @Tags auth
// @Accept json
// @Produce json
// @Param login body LoginRequest true "Credenciais do usuário (email e senha)"
// @Success 200 {object} map[string]interface{} "ok=true e o usuário público"
// @Failure 400 {object} domain.ErrorResponse "Campos obrigatórios ausentes"
// @Failure 401 {object} domain.ErrorResponse "Credenciais inválidas (mensagem genérica)"
// @Failure 500 {object} domain.ErrorResponse "Erro interno do servidor"
// @Router /api/auth/login [post]
func (h *Handler) LoginJSONHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
		return
	}

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, apperror.NewValidationError("Payload JSON inválido."))
		return
	}

	session, user, err := h.Service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		// Falha de credencial NÃO grava cookie. A resposta 401 tem a mesma
		// forma para email desconhecido e senha errada.
		h.writeError(w, err)
		return
	}

	sessioncookie.Set(w, session.Token, h.Service.TTL(), h.SecureCookies)
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true, "user": user})
}

// LoginFormHandler lida com /login no transporte de formulário.
// GET devolve o returnUrl pendente; POST autentica e redireciona (303) para
// o destino original. Mesmo portão de credenciais do transporte JSON.
func (h *Handler) LoginFormHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.writeJSON(w, http.StatusOK, map[string]interface{}{
			"returnUrl": r.URL.Query().Get("returnUrl"),
		})

	case http.MethodPost:
		if err := r.ParseForm(); err != nil {
			h.writeError(w, apperror.NewValidationError("Formulário inválido."))
			return
		}
		email := strings.TrimSpace(r.PostFormValue("email"))
		password := r.PostFormValue("password")

		session, _, err := h.Service.Login(r.Context(), email, password)
		if err != nil {
			h.writeError(w, err)
			return
		}

		sessioncookie.Set(w, session.Token, h.Service.TTL(), h.SecureCookies)
		http.Redirect(w, r, sanitizeReturnURL(r.URL.Query().Get("returnUrl")), http.StatusSeeOther)

	default:
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
	}
}

// LogoutJSONHandler lida com POST /api/auth/logout.
// @Summary Encerra a sessão atual
// @Description Remove a sessão do token apresentado (idempotente) e expira o cookie.
// @Tags auth
// @Produce json
// @Success 200 {object} map[string]bool "ok=true mesmo sem sessão válida"
// @Failure 500 {object} domain.ErrorResponse "Erro interno do servidor"
// @Router /api/auth/logout [post]
func (h *Handler) LogoutJSONHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
		return
	}

	// Sempre 200 com o mesmo corpo, token válido ou não: a resposta não
	// pode vazar a validade da sessão. Só falha de store vira erro.
	if err := h.Service.Logout(r.Context(), sessioncookie.Read(r)); err != nil {
		h.writeError(w, err)
		return
	}

	sessioncookie.Clear(w, h.SecureCookies)
	h.writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// LogoutFormHandler lida com POST /logout: mesmo portão, transporte de
// formulário, redireciona para a raiz.
func (h *Handler) LogoutFormHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
		return
	}

	if err := h.Service.Logout(r.Context(), sessioncookie.Read(r)); err != nil {
		h.writeError(w, err)
		return
	}

	sessioncookie.Clear(w, h.SecureCookies)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// SessionHandler lida com GET /api/auth/session.
// @Summary Retorna a identidade da sessão atual
// @Description Projeção {user, permissions} da sessão resolvida; user=null sem sessão válida.
// @Tags auth
// @Produce json
// @Success 200 {object} SessionResponse
// @Router /api/auth/session [get]
func (h *Handler) SessionHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
		return
	}

	resp := SessionResponse{Permissions: []domain.Permission{}}
	if outcome, ok := middleware.GetAuthOutcome(r.Context()); ok {
		if user, perms, authenticated := outcome.Identity(); authenticated {
			resp.User = &user
			resp.Permissions = perms
		}
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// RegisterHandler lida com POST /api/auth/register.
// @Summary Registra um novo usuário
// @Description Valida o payload, gera o hash da senha e persiste o usuário.
// @Tags auth
// @Accept json
// @Produce json
// @Param registration body domain.UserRegistration true "Dados de registro"
// @Success 201 {object} domain.PublicUser "Usuário criado"
// @Failure 400 {object} domain.ErrorResponse "Payload inválido"
// @Failure 409 {object} domain.ErrorResponse "Email já cadastrado"
// @Failure 500 {object} domain.ErrorResponse "Erro interno do servidor"
// @Router /api/auth/register [post]
func (h *Handler) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
		return
	}

	var reg domain.UserRegistration
	if err := json.NewDecoder(r.Body).Decode(&reg); err != nil {
		h.writeError(w, apperror.NewValidationError("Payload JSON inválido."))
		return
	}

	user, err := h.Service.Register(r.Context(), reg)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, user)
}

// sanitizeReturnURL aceita apenas caminhos do próprio site. Qualquer coisa
// que não comece com "/" (ou que seja protocol-relative "//host") cai no
// destino padrão.
func sanitizeReturnURL(returnURL string) string {
	if strings.HasPrefix(returnURL, "/") && !strings.HasPrefix(returnURL, "//") {
		return returnURL
	}
	return "/dashboard"
}
