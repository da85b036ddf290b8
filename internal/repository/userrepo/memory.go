package userrepo

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"authgate/internal/domain"
	apperror "authgate/internal/errors"
	"authgate/internal/pkg/logger"
)

// MemoryRepository implementa domain.IdentityRepository em memória, com
// dados de seed para desenvolvimento e testes. Papéis são dados de
// referência estáticos; usuários e associações podem ser mutados.
type MemoryRepository struct {
	mu        sync.RWMutex
	users     []domain.User
	roles     []domain.Role
	userRoles []domain.UserRole
	logger    logger.Logger
}

// SeedPassword é a senha dos usuários de seed (apenas desenvolvimento).
const SeedPassword = "password123"

// NewMemoryRepository cria o repositório com os usuários e papéis de seed:
// alice (Admin) e bob (Editor), ambos com a SeedPassword já em hash bcrypt.
func NewMemoryRepository(log logger.Logger) (*MemoryRepository, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(SeedPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperror.NewInternalError("Falha ao gerar hash das senhas de seed.", err)
	}

	return &MemoryRepository{
		users: []domain.User{
			{
				ID:            "user_alice",
				Email:         "alice@example.com",
				Name:          "Alice Admin",
				AvatarURL:     nil,
				EmailVerified: true,
				PasswordHash:  string(hash),
				CreatedAt:     time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			},
			{
				ID:            "user_bob",
				Email:         "bob@example.com",
				Name:          "Bob Editor",
				AvatarURL:     nil,
				EmailVerified: true,
				PasswordHash:  string(hash),
				CreatedAt:     time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
			},
		},
		roles: []domain.Role{
			{
				ID:   "role_admin",
				Name: "Admin",
				Permissions: []domain.Permission{
					domain.PermAdminSystem,
					domain.PermManageUsers,
					domain.PermManageRoles,
					domain.PermReadPosts,
					domain.PermWritePosts,
					domain.PermDeletePosts,
					domain.PermReadComments,
					domain.PermWriteComments,
					domain.PermDeleteComments,
				},
			},
			{
				ID:   "role_editor",
				Name: "Editor",
				Permissions: []domain.Permission{
					domain.PermReadPosts,
					domain.PermWritePosts,
					domain.PermReadComments,
					domain.PermWriteComments,
				},
			},
		},
		userRoles: []domain.UserRole{
			{UserID: "user_alice", RoleID: "role_admin"},
			{UserID: "user_bob", RoleID: "role_editor"},
		},
		logger: log,
	}, nil
}

// FindByEmail busca um usuário pelo email, case-insensitive.
func (r *MemoryRepository) FindByEmail(_ context.Context, email string) (domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return domain.User{}, apperror.NewNotFoundError("Usuário não encontrado.")
}

// FindByID busca um usuário pelo identificador.
func (r *MemoryRepository) FindByID(_ context.Context, id string) (domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if u.ID == id {
			return u, nil
		}
	}
	return domain.User{}, apperror.NewNotFoundError("Usuário não encontrado.")
}

// Save insere um novo usuário, gerando o identificador quando ausente.
// Email duplicado (case-insensitive) é conflito.
func (r *MemoryRepository) Save(_ context.Context, user domain.User) (domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if strings.EqualFold(u.Email, user.Email) {
			return domain.User{}, apperror.NewConflictError("O email '" + user.Email + "' já está em uso.")
		}
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	r.users = append(r.users, user)
	r.logger.Debug("Usuário salvo no repositório em memória.", map[string]interface{}{"user_id": user.ID})
	return user, nil
}

// VerifyCredential compara o segredo fornecido com o hash bcrypt armazenado.
// A comparação do bcrypt é de tempo constante sobre o hash.
func (r *MemoryRepository) VerifyCredential(user domain.User, secret string) bool {
	return bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(secret)) == nil
}

// PermissionsFor resolve a união exata das permissões de todos os papéis do
// usuário, nunca a união de todos os papéis do sistema. Usuário sem papel
// retorna conjunto vazio.
func (r *MemoryRepository) PermissionsFor(_ context.Context, userID string) ([]domain.Permission, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	set := make(map[domain.Permission]struct{})
	for _, ur := range r.userRoles {
		if ur.UserID != userID {
			continue
		}
		for _, role := range r.roles {
			if role.ID == ur.RoleID {
				for _, p := range role.Permissions {
					set[p] = struct{}{}
				}
			}
		}
	}

	perms := make([]domain.Permission, 0, len(set))
	for p := range set {
		perms = append(perms, p)
	}
	return perms, nil
}

// Roles lista os papéis cadastrados, em cópia, para que o chamador não
// consiga mutar os dados de referência.
func (r *MemoryRepository) Roles(_ context.Context) ([]domain.Role, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	roles := make([]domain.Role, len(r.roles))
	copy(roles, r.roles)
	return roles, nil
}

// AssignRole associa um papel a um usuário. Idempotente. A mudança vale a
// partir da próxima resolução de permissões, não retroativamente.
func (r *MemoryRepository) AssignRole(userID, roleID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, ur := range r.userRoles {
		if ur.UserID == userID && ur.RoleID == roleID {
			return
		}
	}
	r.userRoles = append(r.userRoles, domain.UserRole{UserID: userID, RoleID: roleID})
}

// RemoveRole desfaz a associação entre usuário e papel, se existir.
func (r *MemoryRepository) RemoveRole(userID, roleID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, ur := range r.userRoles {
		if ur.UserID == userID && ur.RoleID == roleID {
			r.userRoles = append(r.userRoles[:i], r.userRoles[i+1:]...)
			return
		}
	}
}

// RemoveUser apaga o usuário, deixando eventuais sessões dele órfãs. O
// resolvedor de sessão trata esse caso como não autenticado.
func (r *MemoryRepository) RemoveUser(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, u := range r.users {
		if u.ID == userID {
			r.users = append(r.users[:i], r.users[i+1:]...)
			return
		}
	}
}
