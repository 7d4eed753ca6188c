package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/coreos/go-systemd/v22/daemon"

	"quest/internal/catalog"
	"quest/internal/config"
	"quest/internal/dispatch"
	"quest/internal/history"
	"quest/internal/scheduler"
	logx "quest/pkg/logx"
)

func main() {
	var cfgPath string
	flag.StringVar(&cfgPath, "config", "./questd.yaml", "path to config yaml")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfgPath); err != nil {
		fmt.Println("fatal:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfgPath string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}

	logSvc, log := logx.New(cfg.LogConfig())
	defer logSvc.Close()

	histCfg, err := cfg.HistoryConfig()
	if err != nil {
		return err
	}
	store, err := history.Open(histCfg, log)
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
	}

	observers := dispatch.MultiObserver{dispatch.LogObserver{Log: log}}
	if store != nil {
		observers = append(observers, history.NewRecorder(store, log))
	}

	sched := scheduler.New(ctx, scheduler.Config{Timezone: cfg.Scheduler.Timezone}, newExecSink(log), observers, log)
	defer sched.Close()

	raw, err := os.ReadFile(cfg.Catalog.Path)
	if err != nil {
		return err
	}
	jobs, err := catalog.LoadBytes(cfg.Catalog.Path, raw, sched.Location())
	if jobs == nil && err != nil {
		return err
	}
	if err != nil {
		log.Warn("catalog loaded with errors", logx.Err(err))
	}
	names, _ := sched.Add(jobs...)
	if err := sched.Start(); err != nil {
		log.Warn("some jobs not armed", logx.Err(err))
	}
	log.Info("scheduler started", logx.Int("jobs", len(names)), logx.String("catalog", cfg.Catalog.Path))

	if cfg.Catalog.Watch {
		var mu sync.Mutex
		current := names
		w := catalog.NewWatcher(cfg.Catalog.Path, log, func(data []byte) {
			jobs, err := catalog.LoadBytes(cfg.Catalog.Path, data, sched.Location())
			if jobs == nil && err != nil {
				log.Warn("catalog reload rejected", logx.Err(err))
				return
			}
			if err != nil {
				log.Warn("catalog reloaded with errors", logx.Err(err))
			}
			mu.Lock()
			defer mu.Unlock()
			added, _ := sched.Add(jobs...)
			// Drop jobs that disappeared from the catalog.
			next := map[string]struct{}{}
			for _, n := range added {
				next[n] = struct{}{}
			}
			for _, n := range current {
				if _, keep := next[n]; !keep {
					sched.Remove(n)
				}
			}
			current = added
			if err := sched.Start(added...); err != nil {
				log.Warn("some jobs not armed", logx.Err(err))
			}
			log.Info("catalog applied", logx.Int("jobs", len(added)))
		})
		w.Prime(raw)
		go func() {
			if err := w.Watch(ctx); err != nil {
				log.Warn("catalog watch stopped", logx.Err(err))
			}
		}()
	}

	_, _ = daemon.SdNotify(false, daemon.SdNotifyReady)
	<-ctx.Done()
	_, _ = daemon.SdNotify(false, daemon.SdNotifyStopping)
	log.Info("shutting down")
	return nil
}
