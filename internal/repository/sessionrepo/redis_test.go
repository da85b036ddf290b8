package sessionrepo_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"

	apperror "authgate/internal/errors"
	"authgate/internal/pkg/cache"
	"authgate/internal/pkg/token"
	"authgate/internal/repository/sessionrepo"
)

func newRedisRepo(t *testing.T) (*sessionrepo.RedisRepository, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := cache.NewRedisClientFrom(redis.NewClient(&redis.Options{Addr: mr.Addr()}), time.Second)
	return sessionrepo.NewRedisRepository(client, token.NewService(), testLogger()), mr
}

func TestRedisCreateEFindByToken(t *testing.T) {
	repo, _ := newRedisRepo(t)
	ctx := context.Background()

	session, err := repo.Create(ctx, "user_bob", 24*time.Hour)
	assert.NoError(t, err)

	found, err := repo.FindByToken(ctx, session.Token)
	assert.NoError(t, err)
	assert.Equal(t, session.UserID, found.UserID)
	assert.WithinDuration(t, session.ExpiresAt, found.ExpiresAt, time.Second)
}

// TestRedisExpiracaoPorTTL: o TTL nativo do Redis remove a chave; sessão
// expirada é idêntica a "não encontrada".
func TestRedisExpiracaoPorTTL(t *testing.T) {
	repo, mr := newRedisRepo(t)
	ctx := context.Background()

	session, err := repo.Create(ctx, "user_bob", time.Hour)
	assert.NoError(t, err)

	mr.FastForward(time.Hour - time.Second)
	_, err = repo.FindByToken(ctx, session.Token)
	assert.NoError(t, err)

	mr.FastForward(2 * time.Second)
	_, err = repo.FindByToken(ctx, session.Token)
	var notFound *apperror.NotFoundError
	assert.ErrorAs(t, err, &notFound)
}

// TestRedisDivergenciaDeRelogio: mesmo com a chave ainda presente no Redis,
// a sessão além do expiresAt gravado é tratada como ausente e removida.
func TestRedisDivergenciaDeRelogio(t *testing.T) {
	repo, mr := newRedisRepo(t)
	ctx := context.Background()

	session, err := repo.Create(ctx, "user_bob", time.Hour)
	assert.NoError(t, err)

	repo.Now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	_, err = repo.FindByToken(ctx, session.Token)
	var notFound *apperror.NotFoundError
	assert.ErrorAs(t, err, &notFound)
	assert.False(t, mr.Exists("session:"+session.Token))
}

func TestRedisDeleteByToken_Idempotente(t *testing.T) {
	repo, _ := newRedisRepo(t)
	ctx := context.Background()

	assert.NoError(t, repo.DeleteByToken(ctx, "token-inexistente"))

	session, err := repo.Create(ctx, "user_bob", time.Hour)
	assert.NoError(t, err)
	assert.NoError(t, repo.DeleteByToken(ctx, session.Token))
	assert.NoError(t, repo.DeleteByToken(ctx, session.Token))
}

// TestRedisColisaoDeToken: o SETNX impede sobrescrita; colisão é falha dura.
func TestRedisColisaoDeToken(t *testing.T) {
	mr := miniredis.RunT(t)
	client := cache.NewRedisClientFrom(redis.NewClient(&redis.Options{Addr: mr.Addr()}), time.Second)
	gen := &fixedTokens{tokens: []string{"mesmo-token", "mesmo-token"}}
	repo := sessionrepo.NewRedisRepository(client, gen, testLogger())
	ctx := context.Background()

	_, err := repo.Create(ctx, "user_alice", time.Hour)
	assert.NoError(t, err)

	_, err = repo.Create(ctx, "user_bob", time.Hour)
	var internal *apperror.InternalError
	assert.ErrorAs(t, err, &internal)

	// A sessão original permanece intacta.
	found, err := repo.FindByToken(ctx, "mesmo-token")
	assert.NoError(t, err)
	assert.Equal(t, "user_alice", found.UserID)
}

// TestRedisIndisponivel: store inacessível sobe como erro de infraestrutura,
// nunca como NotFound: o resolvedor não pode confundir "Redis caiu" com
// "sessão inválida".
func TestRedisIndisponivel(t *testing.T) {
	repo, mr := newRedisRepo(t)
	ctx := context.Background()

	session, err := repo.Create(ctx, "user_bob", time.Hour)
	assert.NoError(t, err)

	mr.Close()

	_, err = repo.FindByToken(ctx, session.Token)
	assert.Error(t, err)
	var notFound *apperror.NotFoundError
	assert.False(t, errors.As(err, &notFound))
}
