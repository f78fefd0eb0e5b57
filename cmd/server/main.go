package main

import (
	"log"

	redisv9 "github.com/redis/go-redis/v9"

	"portal_backend/internal/app/di"
	"portal_backend/internal/app/router"
	"portal_backend/internal/config"
	auditadapters "portal_backend/internal/feature/audit/adapters"
	auditusecase "portal_backend/internal/feature/audit/usecase"
	authadapters "portal_backend/internal/feature/auth/adapters"
	authhandler "portal_backend/internal/feature/auth/transport/handler"
	authusecase "portal_backend/internal/feature/auth/usecase"
	portalhandler "portal_backend/internal/feature/portal/transport/handler"
	"portal_backend/internal/platform/clientsession"
	platformdb "portal_backend/internal/platform/db"
	"portal_backend/internal/platform/guard"
	platformredis "portal_backend/internal/platform/redis"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	// db
	db := platformdb.OpenDB(cfg)

	// Redis（未設定・接続不可ならインメモリストアで継続）
	var rdb *redisv9.Client
	if cfg.Redis.Addr != "" {
		if tmp, err := platformredis.NewRedisClient(cfg); err != nil {
			log.Println("[WARN] Redis unavailable. Falling back to in-process session store.")
		} else {
			rdb = tmp
			defer func() {
				if err := rdb.Close(); err != nil {
					log.Println("[ERROR] Failed to close Redis client:", err)
				}
			}()
		}
	}

	// Repository
	userRepo := authadapters.NewUserMySQL(db)
	logRepo := auditadapters.NewLogMySQL(db)
	store := di.NewSessionStore(rdb, cfg.Redis.KeyPrefix)

	// Usecase
	authUC := authusecase.NewAuthUsecase(userRepo, store)
	reconciler := authusecase.NewReconciler(store, userRepo, cfg.Session.FailOpenOnPersistenceError)
	recorder := auditusecase.NewRecorder(logRepo)

	// クライアント状態クッキーとリクエストライフサイクル
	codec := clientsession.NewCodec(cfg.Session.Secret, cfg.Session.CookieName)
	lifecycle := guard.Lifecycle(codec, reconciler, guard.Options{
		Loop: guard.LoopPolicy{
			Threshold:    cfg.Session.RedirectThreshold,
			HistoryLimit: cfg.Session.HistoryLimit,
			RepeatWindow: cfg.Session.RepeatWindow,
		},
	})

	// Handler
	authH := authhandler.NewAuthHandler(authUC, recorder)
	panelH := portalhandler.NewPanelHandler()

	// ルータ生成
	storeBackend := "memory"
	if rdb != nil {
		storeBackend = "redis"
	}
	r := router.NewRouter(lifecycle, authH, panelH, storeBackend)

	if err := r.Run(cfg.Addr()); err != nil {
		log.Fatal(err)
	}
}
