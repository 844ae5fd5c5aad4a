package snapshot

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Source hands out snapshots of a live network.
// Checkpoint reports false when nothing changed since the previous one.
type Source interface {
	Checkpoint() (Snapshot, bool)
	MarkDirty()
}

// Autosaver saves the network on a cron schedule, only when it changed.
type Autosaver struct {
	cron    *cron.Cron
	src     Source
	store   Store
	logger  *slog.Logger
	timeout time.Duration
}

// NewAutosaver schedules saves. schedule uses the standard five-field cron syntax
// or descriptors such as "@every 1m".
func NewAutosaver(schedule string, src Source, store Store, logger *slog.Logger) (*Autosaver, error) {
	cronLogger := cron.PrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelInfo))
	a := &Autosaver{
		cron:    cron.New(cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger))),
		src:     src,
		store:   store,
		logger:  logger,
		timeout: 30 * time.Second,
	}
	if _, err := a.cron.AddFunc(schedule, a.run); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *Autosaver) Start() {
	a.cron.Start()
	a.logger.Info("snapshot autosave scheduled")
}

// Stop waits for a running save and then saves once more.
func (a *Autosaver) Stop(ctx context.Context) error {
	<-a.cron.Stop().Done()
	_, err := a.SaveNow(ctx)
	return err
}

// SaveNow saves if the network changed since the last checkpoint. It reports whether it saved.
func (a *Autosaver) SaveNow(ctx context.Context) (bool, error) {
	return SaveIfDirty(ctx, a.src, a.store)
}

func (a *Autosaver) run() {
	ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
	defer cancel()
	saved, err := a.SaveNow(ctx)
	if err != nil {
		a.logger.Error("snapshot autosave failed", "error", err)
		return
	}
	if saved {
		a.logger.Debug("snapshot saved")
	}
}

// SaveIfDirty checkpoints src and saves it. A failed save marks src dirty again.
func SaveIfDirty(ctx context.Context, src Source, store Store) (bool, error) {
	s, dirty := src.Checkpoint()
	if !dirty {
		return false, nil
	}
	if err := store.Save(ctx, s); err != nil {
		src.MarkDirty()
		return false, err
	}
	return true, nil
}
