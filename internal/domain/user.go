package domain

import (
	"context"
	"time"
)

// User representa a entidade completa do usuário, incluindo o material de
// credencial. Nunca deve ser serializada diretamente em respostas da API;
// use PublicUser.
type User struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	Name          string    `json:"name"`
	AvatarURL     *string   `json:"avatar_url"`
	EmailVerified bool      `json:"email_verified"`
	PasswordHash  string    `json:"-"` // Oculta o hash da senha no JSON de resposta
	CreatedAt     time.Time `json:"created_at"`
}

// PublicUser é a projeção imutável do usuário exposta aos handlers e à API.
// Não carrega permissões nem material de credencial.
type PublicUser struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	Name          string    `json:"name"`
	AvatarURL     *string   `json:"avatar_url"`
	EmailVerified bool      `json:"email_verified"`
	CreatedAt     time.Time `json:"created_at"`
}

// Public projeta o usuário para a forma pública, descartando o hash da senha.
func (u User) Public() PublicUser {
	return PublicUser{
		ID:            u.ID,
		Email:         u.Email,
		Name:          u.Name,
		AvatarURL:     u.AvatarURL,
		EmailVerified: u.EmailVerified,
		CreatedAt:     u.CreatedAt,
	}
}

// Permission é um token de capacidade opaco, retirado de um vocabulário
// fechado. Nunca é texto livre.
type Permission string

// Vocabulário de permissões do sistema.
const (
	PermReadPosts      Permission = "read:posts"
	PermWritePosts     Permission = "write:posts"
	PermDeletePosts    Permission = "delete:posts"
	PermReadComments   Permission = "read:comments"
	PermWriteComments  Permission = "write:comments"
	PermDeleteComments Permission = "delete:comments"
	PermManageUsers    Permission = "manage:users"
	PermManageRoles    Permission = "manage:roles"
	PermAdminSystem    Permission = "admin:system"
)

// Role é um pacote nomeado de permissões. Dado de referência estático;
// relaciona-se com User via UserRole (N:N).
type Role struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Permissions []Permission `json:"permissions"`
}

// UserRole é a associação entre um usuário e um papel.
type UserRole struct {
	UserID string `json:"user_id"`
	RoleID string `json:"role_id"`
}

// UserRegistration representa o payload de entrada para o registro.
type UserRegistration struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

// IdentityRepository define o contrato de persistência para usuários, papéis
// e resolução de permissões. A busca por email é case-insensitive.
type IdentityRepository interface {
	FindByEmail(ctx context.Context, email string) (User, error)
	FindByID(ctx context.Context, id string) (User, error)
	Save(ctx context.Context, user User) (User, error)

	// VerifyCredential compara o segredo fornecido com o material armazenado
	// do usuário. A checagem é feita sempre contra o usuário informado, sem
	// vazar qual parte de (email, senha) estava errada.
	VerifyCredential(user User, secret string) bool

	// PermissionsFor resolve a união exata das permissões de todos os papéis
	// atribuídos ao usuário. Usuário sem papel retorna conjunto vazio, não erro.
	PermissionsFor(ctx context.Context, userID string) ([]Permission, error)
}
