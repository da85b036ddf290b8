package router

import (
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger/v2"

	"authgate/internal/api/auth"
	"authgate/internal/api/panel"
	"authgate/internal/pkg/middleware"
)

// NewRouter configura e retorna o roteador HTTP principal, já envolvido pelo
// gateway de sessão. Recebe os handlers inicializados por injeção de
// dependências. Toda requisição passa pelo pipeline
// cookie -> resolver -> política de rotas antes de chegar a um handler.
func NewRouter(authHandler *auth.Handler, panelHandler *panel.Handler, gateway *middleware.Gateway) http.Handler {

	// Usamos o ServeMux padrão do net/http para roteamento
	mux := http.NewServeMux()

	// --- 1. Health Check ---
	mux.HandleFunc("/ping", PingHandler)

	// --- 2. Portão de credenciais: transporte JSON ---
	mux.HandleFunc("/api/auth/login", authHandler.LoginJSONHandler)
	mux.HandleFunc("/api/auth/logout", authHandler.LogoutJSONHandler)
	mux.HandleFunc("/api/auth/register", authHandler.RegisterHandler)
	mux.HandleFunc("/api/auth/session", authHandler.SessionHandler)

	// --- 3. Portão de credenciais: transporte de formulário ---
	// Mesmas operações de serviço dos endpoints JSON, só muda o transporte.
	mux.HandleFunc("/login", authHandler.LoginFormHandler)
	mux.HandleFunc("/logout", authHandler.LogoutFormHandler)

	// --- 4. Páginas protegidas (com checagem própria de defesa em profundidade) ---
	mux.HandleFunc("/dashboard", panelHandler.DashboardHandler)
	mux.HandleFunc("/admin", panelHandler.AdminHandler)

	// --- 5. Documentação ---
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	// O gateway envolve o mux inteiro: a política de rotas decide por
	// prefixo, então rotas ainda não registradas continuam cobertas.
	return gateway.Middleware(mux)
}

// PingHandler é uma função utilitária para o health check.
func PingHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("pong"))
}
