package config

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/Adicc/macea-mapping/internal/pkg/logger"
	"github.com/fsnotify/fsnotify"
)

// DetectMappingChanges reports writes of mapping files under factory and user subdirectories of root.
// The channel is closed once ctx is done.
func DetectMappingChanges(ctx context.Context, root string) <-chan bool {
	var change = make(chan bool)

	go func() {
		defer close(change)
		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			log.Info(fmt.Sprintf("mapping watcher failed: %v", err), logger.Warning)
			return
		}

		go func() {
			<-ctx.Done()
			err := watcher.Close()
			if err != nil {
				log.Info(fmt.Sprintf("closing watcher failed: %v", err), logger.Debug)
			}
		}()

		for _, path := range []string{
			filepath.Join(root, FactoryDir),
			filepath.Join(root, UserDir),
		} {
			err = watcher.Add(path)
			if err != nil {
				log.Info(fmt.Sprintf("watching %s failed: %v", path, err), logger.Debug)
			}
		}

		for event := range watcher.Events {
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}

			if _, err := FormatFromPath(event.Name); err != nil {
				continue
			}
			log.Info(fmt.Sprintf("mapping change detected: %s", event.Name), logger.Info)
			select {
			case change <- true:
			case <-ctx.Done():
				return
			}
		}
	}()

	return change
}
