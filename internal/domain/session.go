package domain

import (
	"context"
	"time"
)

// Session associa um token opaco a um usuário com uma expiração fixa.
// Criada apenas por verificação de credencial bem-sucedida; nunca é
// atualizada no lugar (TTL fixo a partir da criação, sem expiração deslizante).
type Session struct {
	Token     string    `json:"token"`
	UserID    string    `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired informa se a sessão já passou da expiração no instante informado.
func (s Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// SessionRepository define o contrato de persistência para sessões.
// Implementações com estado mutável compartilhado devem serializar as
// mutações da coleção (write lock ou equivalente).
type SessionRepository interface {
	// Create gera um token criptograficamente aleatório e grava a sessão com
	// expiresAt = now + ttl. Colisão de token é falha dura, nunca sobrescrita.
	Create(ctx context.Context, userID string, ttl time.Duration) (Session, error)

	// FindByToken retorna NotFoundError se o token for desconhecido OU
	// expirado: sessões expiradas são logicamente ausentes, e a
	// implementação pode purgá-las preguiçosamente no acesso.
	FindByToken(ctx context.Context, token string) (Session, error)

	// DeleteByToken é idempotente: remover um token ausente não é erro.
	DeleteByToken(ctx context.Context, token string) error
}

// authStatus discrimina as variantes de AuthOutcome.
type authStatus uint8

const (
	statusUnauthenticated authStatus = iota
	statusAuthenticated
)

// AuthOutcome é o resultado total da resolução de sessão: ou não há sessão
// válida, ou há um usuário com seu conjunto de permissões. Os campos são
// privados de propósito: consumidores precisam passar por Identity() e
// verificar o ok antes de tocar no usuário, nunca há um "usuário talvez nulo"
// exposto sem checagem.
type AuthOutcome struct {
	status          authStatus
	user            PublicUser
	permissions     []Permission
	clearCredential bool
}

// Unauthenticated constrói a variante sem sessão válida. clearCredential
// indica ao chamador que a credencial apresentada é obsoleta (token expirado,
// inexistente ou órfão) e deve ser removida do cliente.
func Unauthenticated(clearCredential bool) AuthOutcome {
	return AuthOutcome{status: statusUnauthenticated, clearCredential: clearCredential}
}

// Authenticated constrói a variante com usuário resolvido e permissões já
// unificadas a partir dos papéis.
func Authenticated(user PublicUser, permissions []Permission) AuthOutcome {
	return AuthOutcome{status: statusAuthenticated, user: user, permissions: permissions}
}

// Identity devolve o usuário e as permissões quando a variante é
// Authenticated; ok=false força o branch de não autenticado.
func (o AuthOutcome) Identity() (PublicUser, []Permission, bool) {
	if o.status != statusAuthenticated {
		return PublicUser{}, nil, false
	}
	return o.user, o.permissions, true
}

// IsAuthenticated informa se há uma sessão válida por trás do outcome.
func (o AuthOutcome) IsAuthenticated() bool {
	return o.status == statusAuthenticated
}

// ClearCredential informa se o chamador deve apagar a credencial obsoleta
// do lado do cliente (cookie stale).
func (o AuthOutcome) ClearCredential() bool {
	return o.clearCredential
}

// HasPermission verifica a posse de uma permissão específica. Retorna false
// para a variante Unauthenticated.
func (o AuthOutcome) HasPermission(p Permission) bool {
	if o.status != statusAuthenticated {
		return false
	}
	for _, have := range o.permissions {
		if have == p {
			return true
		}
	}
	return false
}
