package userrepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"

	"authgate/internal/domain"
	apperror "authgate/internal/errors"
	"authgate/internal/pkg/logger"
)

// uniqueViolation é o código de erro do PostgreSQL para violação de chave única.
const uniqueViolation = "23505"

// PostgresRepository implementa domain.IdentityRepository sobre PostgreSQL.
// As permissões de cada papel ficam em uma coluna text[], e a resolução por
// usuário é um join users -> user_roles -> roles com união feita no SQL.
type PostgresRepository struct {
	DB        *sql.DB
	DBTimeout time.Duration
	logger    logger.Logger
}

// NewPostgresRepository cria uma nova instância do repositório, injetando o DB.
func NewPostgresRepository(db *sql.DB, dbTimeout time.Duration, log logger.Logger) *PostgresRepository {
	return &PostgresRepository{
		DB:        db,
		DBTimeout: dbTimeout,
		logger:    log,
	}
}

const selectUserColumns = `id, email, name, avatar_url, email_verified, password_hash, created_at`

// FindByEmail busca um usuário pelo email, case-insensitive (LOWER nos dois lados).
func (r *PostgresRepository) FindByEmail(ctx context.Context, email string) (domain.User, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `SELECT ` + selectUserColumns + ` FROM users WHERE LOWER(email) = LOWER($1)`
	return r.scanUser(r.DB.QueryRowContext(ctxTimeout, query, email), "email", email)
}

// FindByID busca um usuário pelo identificador.
func (r *PostgresRepository) FindByID(ctx context.Context, id string) (domain.User, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `SELECT ` + selectUserColumns + ` FROM users WHERE id = $1`
	return r.scanUser(r.DB.QueryRowContext(ctxTimeout, query, id), "id", id)
}

// scanUser mapeia uma linha para a struct User, traduzindo ErrNoRows para 404.
func (r *PostgresRepository) scanUser(row *sql.Row, field, value string) (domain.User, error) {
	var user domain.User
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&user.AvatarURL,
		&user.EmailVerified,
		&user.PasswordHash,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.logger.Debug("Usuário não encontrado no DB.", map[string]interface{}{field: value})
			return domain.User{}, apperror.NewNotFoundError(fmt.Sprintf("Usuário com %s '%s' não encontrado.", field, value))
		}
		r.logger.Error("Falha ao buscar usuário no DB.", err)
		return domain.User{}, apperror.NewDBError("failed to find user", err)
	}
	return user, nil
}

// Save insere um novo usuário, gerando ID e timestamp. Violação de unicidade
// no email vira ConflictError (409).
func (r *PostgresRepository) Save(ctx context.Context, user domain.User) (domain.User, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	user.ID = uuid.NewString()
	user.CreatedAt = time.Now()

	insertSQL := `INSERT INTO users (id, email, name, avatar_url, email_verified, password_hash, created_at)
	              VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.DB.ExecContext(
		ctxTimeout,
		insertSQL,
		user.ID,
		user.Email,
		user.Name,
		user.AvatarURL,
		user.EmailVerified,
		user.PasswordHash,
		user.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			return domain.User{}, apperror.NewConflictError(fmt.Sprintf("O email '%s' já está em uso.", user.Email))
		}
		r.logger.Error("Falha ao inserir usuário no DB.", err)
		return domain.User{}, apperror.NewDBError("failed to insert user", err)
	}

	r.logger.Info("Usuário salvo no repositório.", map[string]interface{}{"user_id": user.ID})
	return user, nil
}

// VerifyCredential compara o segredo fornecido com o hash bcrypt armazenado.
func (r *PostgresRepository) VerifyCredential(user domain.User, secret string) bool {
	return bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(secret)) == nil
}

// PermissionsFor resolve a união das permissões de todos os papéis do
// usuário. O unnest + DISTINCT faz a união no lado do banco; usuário sem
// papel produz zero linhas, que vira conjunto vazio (não erro).
func (r *PostgresRepository) PermissionsFor(ctx context.Context, userID string) ([]domain.Permission, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `SELECT DISTINCT unnest(roles.permissions)
	          FROM user_roles
	          JOIN roles ON roles.id = user_roles.role_id
	          WHERE user_roles.user_id = $1`

	rows, err := r.DB.QueryContext(ctxTimeout, query, userID)
	if err != nil {
		r.logger.Error("Falha ao resolver permissões no DB.", err)
		return nil, apperror.NewDBError("failed to resolve permissions", err)
	}
	defer rows.Close()

	perms := make([]domain.Permission, 0)
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, apperror.NewDBError("failed to scan permission", err)
		}
		perms = append(perms, domain.Permission(p))
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewDBError("failed to iterate permissions", err)
	}

	return perms, nil
}

// AssignRole associa um papel a um usuário. ON CONFLICT DO NOTHING torna a
// operação idempotente.
func (r *PostgresRepository) AssignRole(ctx context.Context, userID, roleID string) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	_, err := r.DB.ExecContext(
		ctxTimeout,
		`INSERT INTO user_roles (user_id, role_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		userID, roleID,
	)
	if err != nil {
		return apperror.NewDBError("failed to assign role", err)
	}
	return nil
}

// Roles lista os papéis cadastrados, com suas permissões (pq.Array decodifica
// a coluna text[]).
func (r *PostgresRepository) Roles(ctx context.Context) ([]domain.Role, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	rows, err := r.DB.QueryContext(ctxTimeout, `SELECT id, name, permissions FROM roles ORDER BY name`)
	if err != nil {
		return nil, apperror.NewDBError("failed to list roles", err)
	}
	defer rows.Close()

	var roles []domain.Role
	for rows.Next() {
		var role domain.Role
		var perms pq.StringArray
		if err := rows.Scan(&role.ID, &role.Name, &perms); err != nil {
			return nil, apperror.NewDBError("failed to scan role", err)
		}
		for _, p := range perms {
			role.Permissions = append(role.Permissions, domain.Permission(p))
		}
		roles = append(roles, role)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewDBError("failed to iterate roles", err)
	}
	return roles, nil
}
