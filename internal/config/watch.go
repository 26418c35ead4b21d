package config

import (
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/mitchellh/go-homedir"
	"go.uber.org/zap"
)

// Watcher reloads a config file whenever it changes on disk.
type Watcher struct {
	fs      *fsnotify.Watcher
	path    string
	log     *zap.Logger
	changes chan *Config
	done    chan struct{}
}

// Watch starts watching path. The parent directory is watched rather than the
// file itself so editors that save by rename are picked up.
func Watch(path string, log *zap.Logger) (*Watcher, error) {
	path, err := homedir.Expand(path)
	if err != nil {
		return nil, err
	}
	path, err = filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(filepath.Dir(path)); err != nil {
		fw.Close()
		return nil, err
	}

	w := &Watcher{
		fs:      fw,
		path:    path,
		log:     log,
		changes: make(chan *Config, 1),
		done:    make(chan struct{}),
	}
	go w.run()
	return w, nil
}

// Changes delivers the freshly loaded config after each change. Only the
// latest config is kept if the receiver falls behind.
func (w *Watcher) Changes() <-chan *Config {
	return w.changes
}

// Close stops watching.
func (w *Watcher) Close() error {
	err := w.fs.Close()
	<-w.done
	return err
}

func (w *Watcher) run() {
	defer close(w.done)
	for {
		select {
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.path || ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			cfg := Default()
			if err := loadFromFile(cfg, w.path); err != nil {
				w.log.Warn("config reload failed", zap.String("path", w.path), zap.Error(err))
				continue
			}
			if err := cfg.Validate(); err != nil {
				w.log.Warn("ignoring invalid config", zap.String("path", w.path), zap.Error(err))
				continue
			}
			w.publish(cfg)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.log.Warn("config watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) publish(cfg *Config) {
	for {
		select {
		case w.changes <- cfg:
			return
		default:
		}
		select {
		case <-w.changes:
		default:
		}
	}
}
