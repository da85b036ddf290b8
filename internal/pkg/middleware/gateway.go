package middleware

import (
	"context"
	"encoding/json"
	"net/http"

	"authgate/internal/domain"
	apperror "authgate/internal/errors"
	"authgate/internal/pkg/logger"
	"authgate/internal/pkg/sessioncookie"
	"authgate/internal/service/policy"
)

// ContextKey é o tipo das chaves de contexto deste pacote. Um tipo próprio
// garante que a chave seja única e não colida com chaves string de terceiros.
type ContextKey int

const (
	// AuthOutcomeKey guarda o domain.AuthOutcome resolvido da requisição.
	AuthOutcomeKey ContextKey = iota
)

// Resolver define o contrato de resolução de sessão necessário para o gateway
// (implementado por authservice.AuthService).
type Resolver interface {
	Resolve(ctx context.Context, token string) (domain.AuthOutcome, error)
}

// Gateway é o middleware de autenticação: extrai o token do cookie, resolve
// a sessão, aplica a política de rotas e, quando a decisão é Allow, anexa a
// identidade resolvida ao contexto da requisição. É um guarda de caminho
// rápido. Os handlers protegidos repetem as checagens por conta própria
// (defesa em profundidade) e continuam sendo o ponto autoritativo.
type Gateway struct {
	Resolver      Resolver
	Policy        *policy.RoutePolicy
	SecureCookies bool
	Logger        logger.Logger
}

// NewGateway cria uma nova instância do gateway de requisições.
func NewGateway(resolver Resolver, pol *policy.RoutePolicy, secureCookies bool, log logger.Logger) *Gateway {
	return &Gateway{
		Resolver:      resolver,
		Policy:        pol,
		SecureCookies: secureCookies,
		Logger:        log,
	}
}

// Middleware envolve o próximo handler com o pipeline do gateway.
func (g *Gateway) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {

		// 1. Extrair o token do cookie de sessão (ausente -> string vazia).
		token := sessioncookie.Read(r)

		// 2. Resolver a sessão. Falha de infraestrutura do store é 5xx:
		// nunca dizemos "deslogado" quando a verdade é "store inacessível".
		outcome, err := g.Resolver.Resolve(r.Context(), token)
		if err != nil {
			g.Logger.Error("Falha ao resolver sessão no gateway.", err)
			writeError(w, err)
			return
		}

		// 3. Credencial obsoleta (token expirado, inexistente ou órfão):
		// expira o cookie no cliente antes de seguir.
		if outcome.ClearCredential() {
			sessioncookie.Clear(w, g.SecureCookies)
		}

		// 4. Aplicar a política de rotas e agir sobre a decisão.
		decision := g.Policy.Evaluate(r.URL.Path, r.URL.RawQuery, outcome)
		switch decision.Kind {
		case policy.DecisionRedirect:
			http.Redirect(w, r, decision.Location, http.StatusSeeOther)
		case policy.DecisionForbid:
			writeError(w, apperror.NewForbiddenError(decision.Reason))
		default:
			ctx := context.WithValue(r.Context(), AuthOutcomeKey, outcome)
			next.ServeHTTP(w, r.WithContext(ctx))
		}
	})
}

// GetAuthOutcome extrai o AuthOutcome do contexto. ok=false significa que o
// gateway não rodou para esta requisição; trate como não autenticado.
func GetAuthOutcome(ctx context.Context) (domain.AuthOutcome, bool) {
	outcome, ok := ctx.Value(AuthOutcomeKey).(domain.AuthOutcome)
	return outcome, ok
}

// writeError serializa um erro tipado no envelope padrão da API.
func writeError(w http.ResponseWriter, err error) {
	status, category, message := apperror.MapToHTTPStatus(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(domain.ErrorResponse{
		Code:     status,
		Category: category,
		Message:  message,
	})
}
