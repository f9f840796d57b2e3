package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// LoadSynonyms reads a synonym table from a YAML file mapping capability
// phrases to lists of broader search terms:
//
//	web scraping: [scrape, crawler, extract]
//	stock: [equity, ticker, market]
func LoadSynonyms(path string) (map[string][]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read synonyms %s: %w", path, err)
	}

	var table map[string][]string
	if err := yaml.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("parse synonyms %s: %w", path, err)
	}
	if len(table) == 0 {
		return nil, fmt.Errorf("synonyms %s: table is empty", path)
	}
	return table, nil
}

// SynonymWatcher hot-reloads a synonym file and delivers each valid table
// to a callback. A file that fails to parse keeps the previous table.
type SynonymWatcher struct {
	watcher *fsnotify.Watcher
	logger  zerolog.Logger
	done    chan struct{}
}

// WatchSynonyms starts watching path and invokes onReload with each
// successfully parsed table. The initial load is the caller's job; the
// watcher only reacts to changes.
func WatchSynonyms(path string, logger zerolog.Logger, onReload func(map[string][]string)) (*SynonymWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	// Watch the directory: editors replace files on save, which drops
	// a watch on the file itself.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("watch %s: %w", path, err)
	}

	w := &SynonymWatcher{
		watcher: watcher,
		logger:  logger.With().Str("component", "synonym-watcher").Logger(),
		done:    make(chan struct{}),
	}

	go w.run(path, onReload)
	return w, nil
}

func (w *SynonymWatcher) run(path string, onReload func(map[string][]string)) {
	target := filepath.Clean(path)
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			table, err := LoadSynonyms(path)
			if err != nil {
				w.logger.Warn().Err(err).Msg("Synonym reload failed, keeping previous table")
				continue
			}
			onReload(table)
			w.logger.Info().Int("entries", len(table)).Msg("Synonym table reloaded")
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn().Err(err).Msg("Synonym watcher error")
		}
	}
}

// Close stops the watcher.
func (w *SynonymWatcher) Close() error {
	close(w.done)
	return w.watcher.Close()
}
