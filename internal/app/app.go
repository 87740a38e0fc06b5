package app

import (
	"context"
	"fmt"
	"log"
	"time"

	"Taskflow/internal/cache"
	"Taskflow/internal/config"
	"Taskflow/internal/repo"
	"Taskflow/internal/service"
	"Taskflow/internal/store"
	"Taskflow/internal/store/memstore"
	"Taskflow/internal/store/neo4jstore"
	"Taskflow/internal/store/pgstore"
	"Taskflow/migrations"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/redis/go-redis/v9"
)

type App struct {
	cfg    config.Config
	db     *pgxpool.Pool
	redis  *redis.Client
	neo4j  neo4j.DriverWithContext
	tasks  *service.TaskService
	router *gin.Engine
}

func New(cfg config.Config) (*App, error) {
	a := &App{cfg: cfg}

	db, err := newPostgres(cfg.PG.DSN)
	if err != nil {
		return nil, err
	}
	a.db = db

	rdb, err := newRedis(cfg.Redis)
	if err != nil {
		a.closeAll(context.Background())
		return nil, err
	}
	a.redis = rdb

	if err := migrations.Up(cfg.PG.DSN); err != nil {
		a.closeAll(context.Background())
		return nil, err
	}

	docs, err := a.newStore(cfg)
	if err != nil {
		a.closeAll(context.Background())
		return nil, err
	}
	log.Printf("document store: %s", cfg.Store.Driver)

	a.tasks = service.NewTaskService(docs, cache.NewTaskCache(rdb, cfg.Redis.DefaultTTL.Duration()))
	if err := a.tasks.Start(context.Background()); err != nil {
		a.closeAll(context.Background())
		return nil, fmt.Errorf("start task service: %w", err)
	}

	a.router = newRouter(cfg, Deps{
		Redis: rdb,
		Users: repo.NewPGUserRepo(db),
		Tasks: a.tasks,
	})
	return a, nil
}

func (a *App) Router() *gin.Engine {
	return a.router
}

func (a *App) Close(ctx context.Context) error {
	if a.tasks != nil {
		a.tasks.Close()
	}
	a.closeAll(ctx)
	return nil
}

func (a *App) closeAll(ctx context.Context) {
	if a.neo4j != nil {
		if err := a.neo4j.Close(ctx); err != nil {
			log.Printf("neo4j close: %v", err)
		}
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.db != nil {
		a.db.Close()
	}
}

func (a *App) newStore(cfg config.Config) (store.Store, error) {
	switch cfg.Store.Driver {
	case config.StoreNeo4j:
		driver, err := newNeo4j(cfg.Neo4j)
		if err != nil {
			return nil, err
		}
		a.neo4j = driver
		s := neo4jstore.New(driver)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.EnsureSchema(ctx); err != nil {
			return nil, fmt.Errorf("neo4j schema: %w", err)
		}
		return s, nil
	case config.StoreMemory:
		return memstore.New(), nil
	default:
		return pgstore.New(a.db), nil
	}
}

func newPostgres(dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("pg parse config: %w", err)
	}
	// Two of these are held by the tasks and history listeners.
	cfg.MaxConns = 12
	cfg.MinConns = 2
	cfg.MaxConnIdleTime = 5 * time.Minute
	cfg.MaxConnLifetime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(context.Background(), cfg)
	if err != nil {
		return nil, fmt.Errorf("pg connect: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pg ping: %w", err)
	}

	return pool, nil
}

func newRedis(cfg config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return rdb, nil
}

func newNeo4j(cfg config.Neo4jConfig) (neo4j.DriverWithContext, error) {
	driver, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.User, cfg.Password, ""))
	if err != nil {
		return nil, fmt.Errorf("neo4j driver: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(context.Background())
		return nil, fmt.Errorf("neo4j connect: %w", err)
	}
	return driver, nil
}

func newRouter(cfg config.Config, deps Deps) *gin.Engine {
	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS", "HEAD"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", "Cookie"},
		ExposeHeaders: []string{"Content-Length", "Content-Type"},
		MaxAge:        12 * time.Hour,
	}))

	Setup(r, cfg, deps)
	return r
}
