package sessionrepo_test

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	apperror "authgate/internal/errors"
	"authgate/internal/pkg/logger"
	"authgate/internal/pkg/token"
	"authgate/internal/repository/sessionrepo"
)

func testLogger() logger.Logger {
	return logger.NewLoggerWithOutput("error", io.Discard)
}

// fixedTokens é um TokenGenerator determinístico para provocar colisões.
type fixedTokens struct {
	tokens []string
	i      int
}

func (f *fixedTokens) Generate() (string, error) {
	if f.i >= len(f.tokens) {
		return "", errors.New("sem tokens")
	}
	tok := f.tokens[f.i]
	f.i++
	return tok, nil
}

func TestMemoryCreateEFindByToken(t *testing.T) {
	repo := sessionrepo.NewMemoryRepository(token.NewService(), testLogger())
	ctx := context.Background()

	session, err := repo.Create(ctx, "user_bob", 24*time.Hour)
	assert.NoError(t, err)
	assert.Len(t, session.Token, 64)
	assert.Equal(t, "user_bob", session.UserID)

	found, err := repo.FindByToken(ctx, session.Token)
	assert.NoError(t, err)
	assert.Equal(t, session, found)
}

// TestMemoryFindByToken_Desconhecido: todo token ausente do store resolve
// para NotFound.
func TestMemoryFindByToken_Desconhecido(t *testing.T) {
	repo := sessionrepo.NewMemoryRepository(token.NewService(), testLogger())

	_, err := repo.FindByToken(context.Background(), "token-que-nunca-existiu")

	var notFound *apperror.NotFoundError
	assert.ErrorAs(t, err, &notFound)
}

// TestMemoryExpiracao: a sessão é visível até o instante do TTL e ausente
// depois dele; o registro expirado é purgado no acesso.
func TestMemoryExpiracao(t *testing.T) {
	repo := sessionrepo.NewMemoryRepository(token.NewService(), testLogger())
	ctx := context.Background()

	base := time.Now()
	repo.Now = func() time.Time { return base }

	session, err := repo.Create(ctx, "user_bob", time.Hour)
	assert.NoError(t, err)

	// Um instante antes de expirar: ainda presente.
	repo.Now = func() time.Time { return base.Add(time.Hour - time.Second) }
	_, err = repo.FindByToken(ctx, session.Token)
	assert.NoError(t, err)

	// Um instante depois: logicamente ausente, idêntico a "não encontrada".
	repo.Now = func() time.Time { return base.Add(time.Hour + time.Second) }
	_, err = repo.FindByToken(ctx, session.Token)
	var notFound *apperror.NotFoundError
	assert.ErrorAs(t, err, &notFound)

	// Purga preguiçosa removeu o registro físico.
	assert.Equal(t, 0, repo.Count())
}

// TestMemoryDeleteByToken_Idempotente: deletar token ausente não é erro, e
// deletar duas vezes também não.
func TestMemoryDeleteByToken_Idempotente(t *testing.T) {
	repo := sessionrepo.NewMemoryRepository(token.NewService(), testLogger())
	ctx := context.Background()

	assert.NoError(t, repo.DeleteByToken(ctx, "token-inexistente"))

	session, err := repo.Create(ctx, "user_bob", time.Hour)
	assert.NoError(t, err)
	assert.NoError(t, repo.DeleteByToken(ctx, session.Token))
	assert.NoError(t, repo.DeleteByToken(ctx, session.Token))

	_, err = repo.FindByToken(ctx, session.Token)
	var notFound *apperror.NotFoundError
	assert.ErrorAs(t, err, &notFound)
}

// TestMemoryColisaoDeToken: colisão é falha dura, nunca sobrescrita da
// sessão existente.
func TestMemoryColisaoDeToken(t *testing.T) {
	gen := &fixedTokens{tokens: []string{"mesmo-token", "mesmo-token"}}
	repo := sessionrepo.NewMemoryRepository(gen, testLogger())
	ctx := context.Background()

	first, err := repo.Create(ctx, "user_alice", time.Hour)
	assert.NoError(t, err)

	_, err = repo.Create(ctx, "user_bob", time.Hour)
	var internal *apperror.InternalError
	assert.ErrorAs(t, err, &internal)

	// A sessão original permanece intacta.
	found, err := repo.FindByToken(ctx, "mesmo-token")
	assert.NoError(t, err)
	assert.Equal(t, first.UserID, found.UserID)
}

// TestMemoryDeleteNaoAfetaOutrasSessoes: logout remove só o token
// apresentado, não todas as sessões do usuário.
func TestMemoryDeleteNaoAfetaOutrasSessoes(t *testing.T) {
	repo := sessionrepo.NewMemoryRepository(token.NewService(), testLogger())
	ctx := context.Background()

	s1, err := repo.Create(ctx, "user_bob", time.Hour)
	assert.NoError(t, err)
	s2, err := repo.Create(ctx, "user_bob", time.Hour)
	assert.NoError(t, err)
	assert.NotEqual(t, s1.Token, s2.Token)

	assert.NoError(t, repo.DeleteByToken(ctx, s1.Token))

	_, err = repo.FindByToken(ctx, s2.Token)
	assert.NoError(t, err)
}
