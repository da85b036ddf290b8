package policy

import (
	"net/url"
	"strings"

	"authgate/internal/domain"
)

// DecisionKind discrimina o resultado da avaliação de acesso a uma rota.
type DecisionKind uint8

const (
	// DecisionAllow deixa a requisição seguir para o handler, carregando o
	// AuthOutcome resolvido.
	DecisionAllow DecisionKind = iota
	// DecisionRedirect interrompe a requisição com um 303 para Location.
	DecisionRedirect
	// DecisionForbid interrompe com 403. O gateway em si nunca o produz
	// (preferimos redirect com aviso), mas o vocabulário de decisão é total
	// e a checagem de defesa em profundidade dos handlers usa 403 duro.
	DecisionForbid
)

// Decision é o veredito da política para um par (rota, outcome).
type Decision struct {
	Kind     DecisionKind
	Location string // alvo do redirect, quando Kind == DecisionRedirect
	Reason   string // motivo, quando Kind == DecisionForbid
}

// Allow constrói a decisão de passagem.
func Allow() Decision { return Decision{Kind: DecisionAllow} }

// RedirectTo constrói a decisão de redirecionamento (HTTP 303).
func RedirectTo(location string) Decision {
	return Decision{Kind: DecisionRedirect, Location: location}
}

// Forbid constrói a decisão de bloqueio duro.
func Forbid(reason string) Decision {
	return Decision{Kind: DecisionForbid, Reason: reason}
}

// RoutePolicy classifica caminhos em três conjuntos de regras, casados por
// prefixo. Função pura: nenhuma dependência além dos próprios conjuntos.
type RoutePolicy struct {
	// Protected exige qualquer sessão autenticada.
	Protected []string
	// AdminOnly exige sessão autenticada E a permissão admin:system.
	AdminOnly []string
	// GuestOnly são rotas que usuários logados não devem ver (login/registro).
	GuestOnly []string
}

// Default retorna a tabela de rotas padrão do gateway.
func Default() *RoutePolicy {
	return &RoutePolicy{
		Protected: []string{"/dashboard", "/settings", "/profile"},
		AdminOnly: []string{"/admin"},
		GuestOnly: []string{"/login", "/register"},
	}
}

// Evaluate decide o acesso para (caminho, query, outcome). A ordem de
// avaliação é fixa e importa:
//
//  1. Rota Protected ou AdminOnly sem sessão -> redirect para o login com
//     returnUrl. Roda ANTES da checagem de permissão do AdminOnly: um
//     visitante anônimo nunca recebe "forbidden", que revelaria que a rota
//     existe e exige privilégio.
//  2. Rota AdminOnly com sessão mas sem admin:system -> redirect para o
//     dashboard com aviso visível (escolha de UX; o 403 duro fica na
//     checagem dos handlers).
//  3. Rota GuestOnly com sessão -> redirect para o dashboard.
//  4. Caso contrário, Allow.
//
// Se um caminho casar AdminOnly e GuestOnly ao mesmo tempo, AdminOnly vence
// por ser avaliado primeiro. A função é total mesmo com tabelas mal formadas.
func (p *RoutePolicy) Evaluate(path, rawQuery string, outcome domain.AuthOutcome) Decision {
	isProtected := matchesAny(path, p.Protected)
	isAdminOnly := matchesAny(path, p.AdminOnly)
	isGuestOnly := matchesAny(path, p.GuestOnly)

	if (isProtected || isAdminOnly) && !outcome.IsAuthenticated() {
		target := path
		if rawQuery != "" {
			target += "?" + rawQuery
		}
		return RedirectTo("/login?returnUrl=" + url.QueryEscape(target))
	}

	if isAdminOnly && outcome.IsAuthenticated() && !outcome.HasPermission(domain.PermAdminSystem) {
		return RedirectTo("/dashboard?notice=no-admin-access")
	}

	if isGuestOnly && outcome.IsAuthenticated() {
		return RedirectTo("/dashboard")
	}

	return Allow()
}

func matchesAny(path string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}
