package token

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// tokenBytes é o tamanho do token em bytes brutos. 32 bytes = 256 bits de
// entropia, o mínimo para que uma colisão ou adivinhação seja desprezível.
const tokenBytes = 32

// Service gera tokens de sessão opacos. O token não carrega nenhuma
// informação: é apenas um identificador impossível de adivinhar, resolvido
// contra o store de sessões a cada requisição, o que permite revogação
// imediata no logout.
type Service struct {
	size int
}

// NewService cria uma nova instância do serviço de tokens.
func NewService() *Service {
	return &Service{size: tokenBytes}
}

// Generate produz um novo token aleatório codificado em hexadecimal.
func (s *Service) Generate() (string, error) {
	buf := make([]byte, s.size)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("falha ao gerar token de sessão: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
