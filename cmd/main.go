package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"authgate/config"
	"authgate/internal/pkg/cache"
	"authgate/internal/pkg/database"
	"authgate/internal/pkg/logger"
	"authgate/internal/pkg/middleware"
	"authgate/internal/pkg/token"

	"authgate/internal/api/auth"
	"authgate/internal/api/panel"
	"authgate/internal/api/router"
	"authgate/internal/domain"
	"authgate/internal/repository/sessionrepo"
	"authgate/internal/repository/userrepo"
	"authgate/internal/service/authservice"
	"authgate/internal/service/policy"
)

func main() {
	// 0. CARREGAR VARIÁVEIS DE AMBIENTE (.env)
	// O godotenv.Load() procura por um arquivo chamado .env na raiz.
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️ Aviso: Arquivo .env não encontrado ou erro de leitura. Carregando configs apenas do ambiente do sistema.")
	}

	// 1. Configuração e Inicialização
	cfg := config.LoadConfig()
	appLog := logger.NewLogger(cfg.LogLevel)
	appLog.Info("Configurações carregadas.", map[string]interface{}{
		"identity_store": cfg.IdentityStore,
		"session_store":  cfg.SessionStore,
		"session_ttl":    cfg.SessionTTL.String(),
	})

	// 2. Serviço de tokens opacos (crypto/rand)
	tokenSvc := token.NewService()

	// 3. Store de sessões (plugável: memória ou Redis)
	var sessionRepo domain.SessionRepository
	var sessionCounter panel.SessionCounter
	switch cfg.SessionStore {
	case "redis":
		cacheClient := cache.NewRedisClient(cfg.RedisAddr, cfg.CacheTimeout)
		sessionRepo = sessionrepo.NewRedisRepository(cacheClient, tokenSvc, appLog)
		appLog.Info("Store de sessões Redis inicializado.", map[string]interface{}{"addr": cfg.RedisAddr})
	default:
		memSessions := sessionrepo.NewMemoryRepository(tokenSvc, appLog)
		sessionRepo = memSessions
		sessionCounter = memSessions
		appLog.Info("Store de sessões em memória inicializado.", nil)
	}

	// 4. Store de identidade (plugável: memória com seed ou PostgreSQL)
	var identityRepo domain.IdentityRepository
	var roleLister panel.RoleLister
	switch cfg.IdentityStore {
	case "postgres":
		if cfg.DatabaseURL == "" {
			appLog.Fatal("IDENTITY_STORE=postgres exige DATABASE_URL.", nil)
		}
		db, err := database.NewPostgresDB(cfg.DatabaseURL)
		if err != nil {
			appLog.Fatal("Falha ao conectar ao banco de dados.", err)
		}
		defer db.Close()
		pgIdentity := userrepo.NewPostgresRepository(db, cfg.DBTimeout, appLog)
		identityRepo = pgIdentity
		roleLister = pgIdentity
		appLog.Info("Store de identidade PostgreSQL inicializado.", nil)
	default:
		memIdentity, err := userrepo.NewMemoryRepository(appLog)
		if err != nil {
			appLog.Fatal("Falha ao inicializar o store de identidade em memória.", err)
		}
		identityRepo = memIdentity
		roleLister = memIdentity
		appLog.Info("Store de identidade em memória inicializado (seed: alice/bob).", nil)
	}

	// 5. INJEÇÃO DE DEPENDÊNCIAS (Repository -> Service -> Handler)
	authSvc := authservice.NewService(identityRepo, sessionRepo, cfg.SessionTTL, appLog)
	routePolicy := policy.Default()
	gateway := middleware.NewGateway(authSvc, routePolicy, cfg.IsProduction(), appLog)

	authHandler := auth.NewHandler(authSvc, cfg.IsProduction(), appLog)
	panelHandler := panel.NewHandler(sessionCounter, roleLister, cfg.Environment, appLog)

	// 6. Configuração e Início do Roteador/Servidor
	r := router.NewRouter(authHandler, panelHandler, gateway)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// 7. Execução e Graceful Shutdown
	go func() {
		appLog.Info("Gateway de autenticação ouvindo.", map[string]interface{}{"port": cfg.Port})
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLog.Fatal("Servidor falhou.", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	appLog.Info("Sinal de encerramento recebido. Desligando servidor...", nil)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		appLog.Error("Desligamento do servidor forçado.", err)
	}

	appLog.Info("Servidor encerrado com sucesso.", nil)
}
