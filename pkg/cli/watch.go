package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/bstardust/exif-analyzer/internal/batch"
	"github.com/bstardust/exif-analyzer/internal/config"
	"github.com/bstardust/exif-analyzer/internal/fileinfo"
	"github.com/bstardust/exif-analyzer/internal/logger"
	"github.com/fsnotify/fsnotify"
	"github.com/karrick/godirwalk"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newWatchCommand(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch [flags] <root>",
		Short: "Re-run the analysis whenever images below a directory change",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var root string
			if len(args) > 0 {
				root = args[0]
			}

			cfg, err := loadConfig(cmd, v, root)
			if err != nil {
				return err
			}

			p, err := newPipeline(cfg, afero.NewOsFs(), cmd.OutOrStdout())
			if err != nil {
				return err
			}
			if err := p.connect(cmd.Context()); err != nil {
				return err
			}

			exts, err := cfg.ExtensionSet()
			if err != nil {
				return err
			}

			w, err := newWatcher(cfg.Scan.Root, cfg.Scan.Recursive, exts, cfg.Watch.Debounce, func(ctx context.Context) error {
				_, err := p.run(ctx)
				return err
			})
			if err != nil {
				return err
			}
			defer w.Close()

			if _, err := p.run(cmd.Context()); err != nil {
				return err
			}
			logger.Info("Watching %s for changes (debounce %s)", cfg.Scan.Root, cfg.Watch.Debounce)
			return w.Run(cmd.Context())
		},
	}

	addPipelineFlags(cmd)
	cmd.Flags().Duration("debounce", config.New().Watch.Debounce, "Quiet period after the last change before re-running")
	return cmd
}

// watcher re-runs a batch once the watched tree has been quiet for the
// debounce period.
type watcher struct {
	fsw       *fsnotify.Watcher
	recursive bool
	exts      fileinfo.ExtensionSet
	debounce  time.Duration
	trigger   func(ctx context.Context) error

	retry chan struct{}
	wg    sync.WaitGroup
}

func newWatcher(root string, recursive bool, exts fileinfo.ExtensionSet, debounce time.Duration, trigger func(ctx context.Context) error) (*watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	w := &watcher{
		fsw:       fsw,
		recursive: recursive,
		exts:      exts,
		debounce:  debounce,
		trigger:   trigger,
		retry:     make(chan struct{}, 1),
	}
	if err := w.add(root); err != nil {
		fsw.Close()
		return nil, err
	}
	return w, nil
}

// add watches dir and, when recursive, every directory below it.
func (w *watcher) add(dir string) error {
	if !w.recursive {
		return w.fsw.Add(dir)
	}

	return godirwalk.Walk(dir, &godirwalk.Options{
		Unsorted: true,
		Callback: func(path string, de *godirwalk.Dirent) error {
			if !de.IsDir() {
				return nil
			}
			if err := w.fsw.Add(path); err != nil {
				return fmt.Errorf("failed to watch %s: %w", path, err)
			}
			return nil
		},
		ErrorCallback: func(path string, err error) godirwalk.ErrorAction {
			logger.Warn("Cannot watch %s: %v", path, err)
			return godirwalk.SkipNode
		},
	})
}

// relevant reports whether ev may change the batch result.
func (w *watcher) relevant(ev fsnotify.Event) bool {
	if ev.Has(fsnotify.Chmod) && !ev.Has(fsnotify.Write) {
		return false
	}
	if w.exts.Matches(ev.Name) {
		return true
	}
	// Removed or renamed directories cannot be stat'ed anymore.
	if ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename) {
		return w.recursive
	}
	info, err := os.Stat(ev.Name)
	return err == nil && info.IsDir() && w.recursive
}

// Run blocks until ctx is canceled, triggering a batch after each quiet
// period that followed a relevant change.
func (w *watcher) Run(ctx context.Context) error {
	defer w.wg.Wait()

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(ev) {
				continue
			}
			logger.Debug("Change detected: %s", ev)
			if ev.Has(fsnotify.Create) && w.recursive {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					if err := w.add(ev.Name); err != nil {
						logger.Warn("Failed to watch new directory %s: %v", ev.Name, err)
					}
				}
			}
			timer.Reset(w.debounce)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watcher error: %v", err)

		case <-w.retry:
			timer.Reset(w.debounce)

		case <-timer.C:
			w.wg.Add(1)
			go func() {
				defer w.wg.Done()
				w.fire(ctx)
			}()
		}
	}
}

func (w *watcher) fire(ctx context.Context) {
	err := w.trigger(ctx)
	switch {
	case err == nil:
	case errors.Is(err, batch.ErrBatchActive):
		logger.Info("Analysis still running, change will be picked up afterwards")
		select {
		case w.retry <- struct{}{}:
		default:
		}
	default:
		logger.Error("Analysis failed: %v", err)
	}
}

// Close stops watching.
func (w *watcher) Close() error {
	return w.fsw.Close()
}
