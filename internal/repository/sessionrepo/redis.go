package sessionrepo

import (
	"context"
	"encoding/json"
	"time"

	"authgate/internal/domain"
	apperror "authgate/internal/errors"
	"authgate/internal/pkg/cache"
	"authgate/internal/pkg/logger"
)

// sessionKeyPrefix isola as chaves de sessão no keyspace do Redis.
const sessionKeyPrefix = "session:"

// redisSession é a forma serializada da sessão no Redis. O token não é
// gravado no valor: ele já é a chave.
type redisSession struct {
	UserID    string    `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

// RedisRepository implementa domain.SessionRepository sobre o cache.Client.
// A expiração é delegada ao TTL nativo do Redis: uma sessão expirada
// simplesmente deixa de existir, sem necessidade de purga explícita.
type RedisRepository struct {
	client cache.Client
	tokens TokenGenerator
	logger logger.Logger

	// Now é o relógio do repositório. Substituível em testes de expiração.
	Now func() time.Time
}

// NewRedisRepository cria uma nova instância do repositório de sessões em Redis.
func NewRedisRepository(client cache.Client, tokens TokenGenerator, log logger.Logger) *RedisRepository {
	return &RedisRepository{
		client: client,
		tokens: tokens,
		logger: log,
		Now:    time.Now,
	}
}

// Create gera um token novo e grava a sessão com SETNX + TTL. O NX garante
// que uma colisão de token nunca sobrescreva sessão existente: é falha dura.
func (r *RedisRepository) Create(ctx context.Context, userID string, ttl time.Duration) (domain.Session, error) {
	tok, err := r.tokens.Generate()
	if err != nil {
		return domain.Session{}, apperror.NewInternalError("Falha ao gerar token de sessão.", err)
	}

	session := domain.Session{
		Token:     tok,
		UserID:    userID,
		ExpiresAt: r.Now().Add(ttl),
	}

	payload, err := json.Marshal(redisSession{UserID: session.UserID, ExpiresAt: session.ExpiresAt})
	if err != nil {
		return domain.Session{}, apperror.NewInternalError("Falha ao serializar sessão.", err)
	}

	stored, err := r.client.SetNX(ctx, sessionKeyPrefix+tok, payload, ttl)
	if err != nil {
		return domain.Session{}, apperror.NewDBError("failed to store session", err)
	}
	if !stored {
		r.logger.Error("Colisão de token de sessão detectada no Redis.", nil)
		return domain.Session{}, apperror.NewInternalError("Colisão de token de sessão.", nil)
	}

	r.logger.Debug("Sessão criada no Redis.", map[string]interface{}{"user_id": userID, "expires_at": session.ExpiresAt})
	return session, nil
}

// FindByToken busca a sessão pelo token. Cache miss (expirada ou nunca
// existiu) vira NotFoundError; qualquer outra falha do Redis sobe como erro
// de infraestrutura. Indisponibilidade do store nunca vira "não autenticado".
func (r *RedisRepository) FindByToken(ctx context.Context, token string) (domain.Session, error) {
	raw, err := r.client.Get(ctx, sessionKeyPrefix+token)
	if err == cache.ErrCacheMiss {
		return domain.Session{}, apperror.NewNotFoundError("Sessão não encontrada.")
	}
	if err != nil {
		return domain.Session{}, apperror.NewDBError("failed to load session", err)
	}

	var rec redisSession
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return domain.Session{}, apperror.NewInternalError("Sessão corrompida no Redis.", err)
	}

	session := domain.Session{Token: token, UserID: rec.UserID, ExpiresAt: rec.ExpiresAt}

	// O TTL do Redis já deveria ter removido a chave; a checagem extra cobre
	// divergência de relógio entre o servidor e o Redis.
	if session.Expired(r.Now()) {
		_ = r.client.Delete(ctx, sessionKeyPrefix+token)
		return domain.Session{}, apperror.NewNotFoundError("Sessão expirada.")
	}

	return session, nil
}

// DeleteByToken remove a sessão do token apresentado. Idempotente (DEL de
// chave ausente não é erro no Redis).
func (r *RedisRepository) DeleteByToken(ctx context.Context, token string) error {
	if err := r.client.Delete(ctx, sessionKeyPrefix+token); err != nil {
		return apperror.NewDBError("failed to delete session", err)
	}
	return nil
}
