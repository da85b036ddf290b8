package cache

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
)

// Client define o contrato de interface para o serviço de cache usado pelos
// repositórios. Segue o Princípio da Inversão de Dependência: a camada de
// repositório depende desta interface, não do driver Redis.
type Client interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error

	// SetNX grava apenas se a chave ainda não existir. Retorna false se a
	// chave já existia (usado como guarda de colisão de token de sessão).
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) (bool, error)

	Delete(ctx context.Context, key string) error
}

// ErrCacheMiss é retornado quando a chave não é encontrada no cache.
var ErrCacheMiss = redis.Nil

// RedisClient é a implementação concreta da interface Client, usando Redis.
// Cada operação é limitada por timeout, para que um Redis lento não segure
// a requisição além do configurado.
type RedisClient struct {
	rdb     *redis.Client
	timeout time.Duration
}

// NewRedisClient cria e retorna uma nova instância do cliente Redis.
// Esta função é chamada no main.go.
func NewRedisClient(addr string, timeout time.Duration) Client {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr, // Endereço do Redis (e.g., "localhost:6379")
	})
	return &RedisClient{rdb: rdb, timeout: timeout}
}

// NewRedisClientFrom embrulha um *redis.Client já construído (testes usam
// isto para apontar para um miniredis).
func NewRedisClientFrom(rdb *redis.Client, timeout time.Duration) Client {
	return &RedisClient{rdb: rdb, timeout: timeout}
}

// opContext deriva o contexto da operação com o timeout configurado.
// Timeout zero ou negativo desliga o limite.
func (c *RedisClient) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, c.timeout)
}

// Ping verifica a conectividade com o servidor Redis.
func (c *RedisClient) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Get recupera o valor associado a uma chave.
func (c *RedisClient) Get(ctx context.Context, key string) (string, error) {
	ctx, cancel := c.opContext(ctx)
	defer cancel()

	val, err := c.rdb.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", ErrCacheMiss
	}
	if err != nil {
		return "", err
	}
	return val, nil
}

// Set define um valor para uma chave com um tempo de expiração.
func (c *RedisClient) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	ctx, cancel := c.opContext(ctx)
	defer cancel()

	return c.rdb.Set(ctx, key, value, expiration).Err()
}

// SetNX grava o valor apenas se a chave não existir (SET ... NX).
func (c *RedisClient) SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) (bool, error) {
	ctx, cancel := c.opContext(ctx)
	defer cancel()

	return c.rdb.SetNX(ctx, key, value, expiration).Result()
}

// Delete remove uma chave do cache. Remover chave ausente não é erro (DEL
// retorna 0 chaves removidas).
func (c *RedisClient) Delete(ctx context.Context, key string) error {
	ctx, cancel := c.opContext(ctx)
	defer cancel()

	return c.rdb.Del(ctx, key).Err()
}
