package authservice

import (
	"context"
	"errors"
	"time"

	"golang.org/x/crypto/bcrypt"

	"authgate/internal/domain"
	apperror "authgate/internal/errors"
	"authgate/internal/pkg/logger"
)

// MsgInvalidCredentials é a mensagem única para qualquer falha de login.
// Email desconhecido e senha incorreta produzem exatamente o mesmo erro,
// impedindo enumeração de usuários pela resposta.
const MsgInvalidCredentials = "Invalid email or password"

// AuthService concentra as duas operações do núcleo: a resolução de sessão
// (token -> AuthOutcome) e o portão de credenciais (login/logout/registro).
type AuthService struct {
	IdentityRepo domain.IdentityRepository
	SessionRepo  domain.SessionRepository
	SessionTTL   time.Duration
	Logger       logger.Logger
}

// NewService cria uma nova instância do AuthService, injetando os repositórios.
func NewService(identity domain.IdentityRepository, sessions domain.SessionRepository, ttl time.Duration, log logger.Logger) *AuthService {
	return &AuthService{
		IdentityRepo: identity,
		SessionRepo:  sessions,
		SessionTTL:   ttl,
		Logger:       log,
	}
}

// TTL expõe a duração fixa das sessões (usada pelo Max-Age do cookie).
func (s *AuthService) TTL() time.Duration {
	return s.SessionTTL
}

// Resolve é a função total de resolução de sessão: todo token mapeia para
// exatamente um AuthOutcome. Os três caminhos de sessão inválida (ausente,
// expirada, usuário apagado) colapsam no mesmo outcome Unauthenticated,
// diferindo apenas no pedido de limpeza da credencial obsoleta. Falha de
// infraestrutura do store NÃO colapsa: sobe como erro para virar 5xx.
func (s *AuthService) Resolve(ctx context.Context, token string) (domain.AuthOutcome, error) {
	// 1. Nenhum token apresentado.
	if token == "" {
		return domain.Unauthenticated(false), nil
	}

	// 2. Token -> sessão. Ausente ou expirada: credencial obsoleta.
	session, err := s.SessionRepo.FindByToken(ctx, token)
	if err != nil {
		if isNotFound(err) {
			return domain.Unauthenticated(true), nil
		}
		return domain.AuthOutcome{}, err
	}

	// 3. Sessão -> usuário. Usuário apagado depois da emissão deixa a sessão
	// órfã: evita que uma conta removida continue autenticada. A sessão
	// obsoleta é removida do store no caminho.
	user, err := s.IdentityRepo.FindByID(ctx, session.UserID)
	if err != nil {
		if isNotFound(err) {
			s.Logger.Info("Sessão órfã detectada; removendo.", map[string]interface{}{"user_id": session.UserID})
			if delErr := s.SessionRepo.DeleteByToken(ctx, token); delErr != nil {
				return domain.AuthOutcome{}, delErr
			}
			return domain.Unauthenticated(true), nil
		}
		return domain.AuthOutcome{}, err
	}

	// 4. Usuário -> permissões, recomputadas a cada resolução: edição de
	// papéis vale na próxima requisição, sem cache entre requisições.
	perms, err := s.IdentityRepo.PermissionsFor(ctx, user.ID)
	if err != nil {
		return domain.AuthOutcome{}, err
	}

	return domain.Authenticated(user.Public(), perms), nil
}

// Login verifica as credenciais e, em caso de sucesso, cria uma sessão nova
// com TTL fixo. Cada login bem-sucedido gera um token fresco e distinto;
// nunca mutamos usuários ou papéis aqui.
func (s *AuthService) Login(ctx context.Context, email, password string) (domain.Session, domain.PublicUser, error) {
	if email == "" || password == "" {
		return domain.Session{}, domain.PublicUser{}, apperror.NewValidationError("Email and password are required")
	}

	user, err := s.IdentityRepo.FindByEmail(ctx, email)
	if err != nil {
		if isNotFound(err) {
			// Mesmo erro genérico do caminho de senha incorreta.
			return domain.Session{}, domain.PublicUser{}, apperror.NewUnauthorizedError(MsgInvalidCredentials)
		}
		return domain.Session{}, domain.PublicUser{}, err
	}

	if !s.IdentityRepo.VerifyCredential(user, password) {
		return domain.Session{}, domain.PublicUser{}, apperror.NewUnauthorizedError(MsgInvalidCredentials)
	}

	session, err := s.SessionRepo.Create(ctx, user.ID, s.SessionTTL)
	if err != nil {
		return domain.Session{}, domain.PublicUser{}, err
	}

	s.Logger.Info("Login bem-sucedido.", map[string]interface{}{"user_id": user.ID})
	return session, user.Public(), nil
}

// Logout remove a sessão do token apresentado. Sempre bem-sucedido para
// token ausente ou inválido; a resposta não pode vazar se o token era
// válido. Afeta apenas o token apresentado, nunca as demais sessões do usuário.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.SessionRepo.DeleteByToken(ctx, token)
}

// Register registra um novo usuário: valida, gera o hash bcrypt e persiste.
// Email duplicado vira ConflictError vindo do repositório.
func (s *AuthService) Register(ctx context.Context, registration domain.UserRegistration) (domain.PublicUser, error) {
	if registration.Email == "" || registration.Password == "" {
		return domain.PublicUser{}, apperror.NewValidationError("Email and password are required")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(registration.Password), bcrypt.DefaultCost)
	if err != nil {
		return domain.PublicUser{}, apperror.NewInternalError("Falha ao gerar hash da senha.", err)
	}

	newUser := domain.User{
		Email:        registration.Email,
		Name:         registration.Name,
		PasswordHash: string(hashed),
		CreatedAt:    time.Now(),
	}

	user, err := s.IdentityRepo.Save(ctx, newUser)
	if err != nil {
		return domain.PublicUser{}, err
	}

	s.Logger.Info("Usuário registrado.", map[string]interface{}{"user_id": user.ID})
	return user.Public(), nil
}

// isNotFound identifica o NotFoundError tipado dos repositórios. Qualquer
// outro erro é tratado como falha de infraestrutura pelo chamador.
func isNotFound(err error) bool {
	var notFound *apperror.NotFoundError
	return errors.As(err, &notFound)
}
