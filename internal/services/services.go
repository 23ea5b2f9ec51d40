package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/facebookgo/clock"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"github.com/curaious/dashboard/internal/config"
	"github.com/curaious/dashboard/internal/db"
	"github.com/curaious/dashboard/internal/notify"
	"github.com/curaious/dashboard/internal/services/activity"
	"github.com/curaious/dashboard/internal/services/auth"
	"github.com/curaious/dashboard/internal/services/project"
	"github.com/curaious/dashboard/internal/services/stats"
	"github.com/curaious/dashboard/internal/services/task"
	"github.com/curaious/dashboard/internal/services/teammember"
	"github.com/curaious/dashboard/internal/services/user"
	"github.com/curaious/dashboard/internal/store/memory"
)

type Services struct {
	Auth       *auth.AuthService
	User       *user.UserService
	Project    *project.ProjectService
	Task       *task.TaskService
	TeamMember *teammember.TeamMemberService
	Activity   *activity.ActivityService
	Stats      *stats.Engine

	Notifier notify.Notifier
	Clock    clock.Clock

	db    *sqlx.DB
	redis *redis.Client
}

// Repositories is the persistence a Services instance is built on.
type Repositories struct {
	Users       user.Repository
	Projects    project.Repository
	Tasks       task.Repository
	TeamMembers teammember.Repository
	Activity    activity.Repository
}

func PostgresRepositories(conn *sqlx.DB) Repositories {
	return Repositories{
		Users:       user.NewUserRepo(conn),
		Projects:    project.NewProjectRepo(conn),
		Tasks:       task.NewTaskRepo(conn),
		TeamMembers: teammember.NewTeamMemberRepo(conn),
		Activity:    activity.NewActivityRepo(conn),
	}
}

func MemoryRepositories(store *memory.Store) Repositories {
	return Repositories{
		Users:       store.Users(),
		Projects:    store.Projects(),
		Tasks:       store.Tasks(),
		TeamMembers: store.TeamMembers(),
		Activity:    store.Activity(),
	}
}

// New wires every service on top of repos. It performs no I/O.
func New(conf *config.Config, repos Repositories, notifier notify.Notifier, clk clock.Clock) *Services {
	activitySvc := activity.NewActivityService(repos.Activity, clk)
	engine := stats.NewEngine(repos.Tasks, repos.Projects, notifier, clk)
	members := teammember.NewTeamMemberService(repos.TeamMembers, clk, conf.DEFAULT_MAX_CAPACITY)

	policy := auth.Policy{
		InactivityTimeout:     conf.InactivityTimeout(),
		RememberMeTimeout:     conf.RememberMeTimeout(),
		ActivityTouchInterval: conf.ActivityTouchInterval(),
	}

	return &Services{
		Auth:       auth.NewAuthService(repos.Users, notifier, activitySvc, clk, policy),
		User:       user.NewUserService(repos.Users, notifier, activitySvc, clk),
		Project:    project.NewProjectService(repos.Projects, clk),
		Task:       task.NewTaskService(repos.Tasks, repos.Projects, members, engine, clk),
		TeamMember: members,
		Activity:   activitySvc,
		Stats:      engine,
		Notifier:   notifier,
		Clock:      clk,
	}
}

// NewServices builds the process-wide services from configuration. The
// returned value owns the database pool and the Redis client; Close releases them.
func NewServices(ctx context.Context, conf *config.Config) (*Services, error) {
	clk := clock.New()

	var (
		conn  *sqlx.DB
		repos Repositories
	)

	switch conf.STORE {
	case "memory":
		slog.Warn("Using in-memory store, data will not survive a restart")
		store := memory.New(clk, conf.DEFAULT_MAX_CAPACITY)
		repos = MemoryRepositories(store)
		if err := user.SeedSuperAdmin(ctx, repos.Users, conf.SEED_ADMIN_PASSWORD); err != nil {
			return nil, fmt.Errorf("unable to seed superadmin: %w", err)
		}
	case "postgres", "":
		var err error
		conn, err = db.NewConn(conf)
		if err != nil {
			return nil, err
		}
		repos = PostgresRepositories(conn)
	default:
		return nil, fmt.Errorf("unknown STORE %q", conf.STORE)
	}

	notifier, redisClient, err := newNotifier(ctx, conf, conn, clk)
	if err != nil {
		if conn != nil {
			_ = conn.Close()
		}
		return nil, err
	}

	svc := New(conf, repos, notifier, clk)
	svc.db = conn
	svc.redis = redisClient
	return svc, nil
}

func newNotifier(ctx context.Context, conf *config.Config, conn *sqlx.DB, clk clock.Clock) (notify.Notifier, *redis.Client, error) {
	switch conf.NOTIFIER {
	case "redis":
		client := NewRedisClient(conf)
		if err := client.Ping(ctx).Err(); err != nil {
			// Notifications are best effort; the publish path logs each failure.
			slog.WarnContext(ctx, "Redis is not reachable, notifications will be dropped", slog.Any("error", err))
		}
		return notify.NewRedisNotifier(client, clk), client, nil
	case "postgres":
		if conn == nil {
			slog.WarnContext(ctx, "Postgres notifier requires STORE=postgres, notifications disabled")
			return notify.Nop{}, nil, nil
		}
		return notify.NewPostgresNotifier(conn, clk), nil, nil
	case "none", "":
		return notify.Nop{}, nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown NOTIFIER %q", conf.NOTIFIER)
	}
}

func NewRedisClient(conf *config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", conf.REDIS_HOST, conf.REDIS_PORT),
		Username: conf.REDIS_USERNAME,
		Password: conf.REDIS_PASSWORD,
		DB:       conf.REDIS_DB,
	})
}

// Close releases the database pool and the Redis client.
func (s *Services) Close() error {
	var errs []error
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("redis: %w", err))
		}
	}
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			errs = append(errs, fmt.Errorf("database: %w", err))
		}
	}
	return errors.Join(errs...)
}

// DB returns the database pool, nil when running on the in-memory store.
func (s *Services) DB() *sqlx.DB {
	return s.db
}
