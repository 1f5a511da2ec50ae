package cronrunner

import (
	"context"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Runner запускает фоновые задачи по расписанию с общим базовым контекстом
type Runner struct {
	cron    *cron.Cron
	logger  *zap.Logger
	baseCtx context.Context
}

func New(logger *zap.Logger, baseCtx context.Context) *Runner {
	if baseCtx == nil {
		baseCtx = context.Background()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		// Пропускаем запуск, если предыдущий ещё не закончился
		cron:    cron.New(cron.WithSeconds(), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		logger:  logger,
		baseCtx: baseCtx,
	}
}

// Add регистрирует задачу; name попадает в логи
func (r *Runner) Add(name, spec string, job func(context.Context) (int, error)) (cron.EntryID, error) {
	return r.cron.AddFunc(spec, func() {
		if r.baseCtx.Err() != nil {
			return
		}
		n, err := job(r.baseCtx)
		if err != nil {
			r.logger.Error("cron job failed", zap.String("job", name), zap.Error(err))
			return
		}
		if n > 0 {
			r.logger.Info("cron job done", zap.String("job", name), zap.Int("processed", n))
		}
	})
}

func (r *Runner) Start() {
	r.logger.Info("cron started")
	r.cron.Start()
}

func (r *Runner) Stop() {
	ctx := r.cron.Stop()
	<-ctx.Done()
	r.logger.Info("cron stopped")
}
