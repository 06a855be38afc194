package message

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// UnreadReconciler пересчитывает счётчики непрочитанных
type UnreadReconciler interface {
	ReconcileUnreadCounts(ctx context.Context) (int, error)
}

// Reconciler периодически сверяет счётчики непрочитанных с сообщениями
type Reconciler struct {
	target   UnreadReconciler
	interval time.Duration
	log      logrus.FieldLogger
}

// NewReconciler создает фоновую сверку счётчиков. interval <= 0 отключает её.
func NewReconciler(target UnreadReconciler, interval time.Duration, log logrus.FieldLogger) *Reconciler {
	return &Reconciler{target: target, interval: interval, log: log}
}

// Run выполняет сверку до отмены ctx
func (r *Reconciler) Run(ctx context.Context) {
	if r.interval <= 0 {
		r.log.Info("Сверка счётчиков непрочитанных отключена")
		return
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.RunOnce(ctx)
		}
	}
}

// RunOnce выполняет один проход сверки
func (r *Reconciler) RunOnce(ctx context.Context) int {
	fixed, err := r.target.ReconcileUnreadCounts(ctx)
	if err != nil {
		r.log.WithError(err).Error("Ошибка сверки счётчиков непрочитанных")
		return fixed
	}
	if fixed > 0 {
		r.log.WithField("fixed", fixed).Warn("Исправлены рассинхронизированные счётчики непрочитанных")
	}
	return fixed
}
