package app

import (
	"github.com/go-redis/redis"
	"github.com/xpanvictor/chrono/internal/config"
	"github.com/xpanvictor/chrono/internal/domains/notification"
	"github.com/xpanvictor/chrono/internal/domains/notification/sinks"
	"github.com/xpanvictor/chrono/internal/domains/schedule"
	"github.com/xpanvictor/chrono/internal/domains/scheduler"
	"github.com/xpanvictor/chrono/internal/domains/task"
	"github.com/xpanvictor/chrono/internal/domains/timeparse"
	"github.com/xpanvictor/chrono/internal/handlers"
	taskRepo "github.com/xpanvictor/chrono/internal/repository/task"
	"github.com/xpanvictor/chrono/internal/server"
	"github.com/xpanvictor/chrono/pkg/Logger"
	"github.com/xpanvictor/chrono/pkg/assistant"
	"github.com/xpanvictor/chrono/pkg/clock"
	"gorm.io/gorm"
)

// App represents the application with all its dependencies
type App struct {
	Config *config.Settings
	Logger *Logger.Logger
	DB     *gorm.DB
	RC     *redis.Client
	Clock  clock.Clock
	// engine
	TaskRepo   task.TaskRepository
	Manager    task.TaskManager
	Dispatcher *notification.Dispatcher
	Executor   *scheduler.Executor
	Poller     *scheduler.Poller
	ServerDeps server.Dependencies
}

// NewApp creates a new application instance with all dependencies properly wired
func NewApp(cfg *config.Settings, logger *Logger.Logger, db *gorm.DB, rc *redis.Client) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logger,
		DB:     db,
		RC:     rc,
		Clock:  clock.System(),
	}

	if err := app.setupDependencies(); err != nil {
		return nil, err
	}

	return app, nil
}

// setupDependencies initializes all application dependencies
func (a *App) setupDependencies() error {
	// 1. persistence
	a.TaskRepo = taskRepo.NewGormTaskRepo(a.DB)

	// 2. schedule math and time parsing
	calculator := schedule.New()
	parser := timeparse.New(a.Clock)

	// 3. management API facade
	a.Manager = task.NewTaskManager(a.TaskRepo, calculator, parser, a.Clock, a.Logger)

	// 4. notification sinks; sms/email fall back to the log sink until real
	// transports are attached
	redisSink := sinks.NewRedisSink(a.RC)
	logSink := sinks.NewLogSink(a.Logger)
	a.Dispatcher = notification.NewDispatcher(map[task.Channel]notification.Sink{
		task.ChannelInApp: redisSink,
		task.ChannelPush:  redisSink,
		task.ChannelSMS:   logSink,
		task.ChannelEmail: logSink,
	}, a.Logger)

	// 5. execution engine
	agent := assistant.NewAssistant(a.Config.AssistantKeys)
	execCfg := scheduler.DefaultExecutorConfig()
	if a.Config.Scheduler.AgentTimeout > 0 {
		execCfg.AgentTimeout = a.Config.Scheduler.AgentTimeout
	}
	a.Executor = scheduler.NewExecutor(a.TaskRepo, calculator, a.Dispatcher, agent, a.Clock, a.Logger, execCfg)

	a.Poller = scheduler.NewPoller(a.TaskRepo, a.Executor, a.Clock, a.Logger, scheduler.PollerConfig{
		Interval:       a.Config.Scheduler.PollInterval,
		BatchLimit:     a.Config.Scheduler.BatchLimit,
		Workers:        a.Config.Scheduler.Workers,
		QueueSize:      a.Config.Scheduler.QueueSize,
		StuckThreshold: a.Config.Scheduler.StuckThreshold,
		GracePeriod:    a.Config.Scheduler.GracePeriod,
	})

	// 6. HTTP surface
	taskHandler := handlers.NewTaskHandler(a.Manager, a.Logger)
	a.ServerDeps = server.NewServerDependencies(taskHandler, a.Logger, a.Config)

	return nil
}

// GetServerDependencies returns the server dependencies
func (a *App) GetServerDependencies() server.Dependencies {
	return a.ServerDeps
}
