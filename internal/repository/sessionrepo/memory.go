package sessionrepo

import (
	"context"
	"sync"
	"time"

	"authgate/internal/domain"
	apperror "authgate/internal/errors"
	"authgate/internal/pkg/logger"
)

// TokenGenerator é o contrato da camada de token (internal/pkg/token).
type TokenGenerator interface {
	Generate() (string, error)
}

// MemoryRepository implementa domain.SessionRepository em memória.
// As mutações do mapa são serializadas por um RWMutex; leituras concorrentes
// de FindByToken rodam em paralelo sob o read lock.
type MemoryRepository struct {
	mu       sync.RWMutex
	sessions map[string]domain.Session
	tokens   TokenGenerator
	logger   logger.Logger

	// Now é o relógio do repositório. Substituível em testes de expiração.
	Now func() time.Time
}

// NewMemoryRepository cria uma nova instância do repositório de sessões em memória.
func NewMemoryRepository(tokens TokenGenerator, log logger.Logger) *MemoryRepository {
	return &MemoryRepository{
		sessions: make(map[string]domain.Session),
		tokens:   tokens,
		logger:   log,
		Now:      time.Now,
	}
}

// Create gera um token novo e grava a sessão com TTL fixo a partir de agora.
// Colisão de token (probabilidade desprezível com 256 bits) é falha dura:
// nunca sobrescrevemos uma sessão existente.
func (r *MemoryRepository) Create(_ context.Context, userID string, ttl time.Duration) (domain.Session, error) {
	tok, err := r.tokens.Generate()
	if err != nil {
		return domain.Session{}, apperror.NewInternalError("Falha ao gerar token de sessão.", err)
	}

	session := domain.Session{
		Token:     tok,
		UserID:    userID,
		ExpiresAt: r.Now().Add(ttl),
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.sessions[tok]; exists {
		r.logger.Error("Colisão de token de sessão detectada.", nil)
		return domain.Session{}, apperror.NewInternalError("Colisão de token de sessão.", nil)
	}
	r.sessions[tok] = session

	r.logger.Debug("Sessão criada.", map[string]interface{}{"user_id": userID, "expires_at": session.ExpiresAt})
	return session, nil
}

// FindByToken busca a sessão pelo token. Sessão expirada é logicamente
// ausente: retorna NotFoundError e purga o registro obsoleto no acesso.
func (r *MemoryRepository) FindByToken(_ context.Context, token string) (domain.Session, error) {
	r.mu.RLock()
	session, ok := r.sessions[token]
	r.mu.RUnlock()

	if !ok {
		return domain.Session{}, apperror.NewNotFoundError("Sessão não encontrada.")
	}

	if session.Expired(r.Now()) {
		// Purga preguiçosa: re-checa sob o write lock porque outra goroutine
		// pode ter removido o token entre os dois locks.
		r.mu.Lock()
		if current, still := r.sessions[token]; still && current.Expired(r.Now()) {
			delete(r.sessions, token)
		}
		r.mu.Unlock()
		return domain.Session{}, apperror.NewNotFoundError("Sessão expirada.")
	}

	return session, nil
}

// DeleteByToken remove a sessão do token apresentado. Idempotente: remover
// um token ausente não é erro, e afeta apenas o token apresentado, nunca
// "todas as sessões do usuário".
func (r *MemoryRepository) DeleteByToken(_ context.Context, token string) error {
	r.mu.Lock()
	delete(r.sessions, token)
	r.mu.Unlock()
	return nil
}

// Count informa quantas sessões estão fisicamente armazenadas (inclui as
// expiradas ainda não purgadas). Usado pelo painel administrativo.
func (r *MemoryRepository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
