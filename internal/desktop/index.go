// Package desktop resolves the desktop files installed by snaps.
package desktop

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
	"gopkg.in/ini.v1"

	"github.com/five82/snapdesk/internal/logging"
)

// DefaultDir is where snapd installs the desktop files of snaps.
const DefaultDir = "/var/lib/snapd/desktop/applications"

// Entry is what the daemon needs to present a snap on the desktop.
type Entry struct {
	VisibleName string
	// Icon is an icon name or path, empty when unknown.
	Icon string
	// DesktopFiles lists desktop file paths, nil when the snap has none.
	DesktopFiles []string
}

// Index looks up desktop files by snap name and caches the result until one
// of its directories changes.
type Index struct {
	dirs []string
	log  *logrus.Entry

	mu    sync.Mutex
	cache map[string]Entry
}

// NewIndex returns an Index over dirs. No dirs means DefaultDir.
func NewIndex(dirs []string, log *logrus.Entry) *Index {
	if len(dirs) == 0 {
		dirs = []string{DefaultDir}
	}
	if log == nil {
		log = logging.NewLogger("desktop")
	}
	return &Index{dirs: dirs, log: log, cache: make(map[string]Entry)}
}

// Lookup returns the desktop entry of snapName. Snap desktop files are named
// <snap>_<app>.desktop; <snap>_<snap>.desktop supplies the name and icon when
// present, otherwise the first file in name order does.
func (x *Index) Lookup(snapName string) Entry {
	x.mu.Lock()
	defer x.mu.Unlock()

	if entry, ok := x.cache[snapName]; ok {
		return entry
	}
	entry := x.scan(snapName)
	x.cache[snapName] = entry
	return entry
}

// Invalidate drops every cached entry.
func (x *Index) Invalidate() {
	x.mu.Lock()
	x.cache = make(map[string]Entry)
	x.mu.Unlock()
}

func (x *Index) scan(snapName string) Entry {
	var files []string
	for _, dir := range x.dirs {
		matches, err := filepath.Glob(filepath.Join(dir, globEscape(snapName)+"_*.desktop"))
		if err != nil {
			continue
		}
		files = append(files, matches...)
	}
	if len(files) == 0 {
		return Entry{}
	}
	sort.Strings(files)

	primary := files[0]
	for _, f := range files {
		if filepath.Base(f) == snapName+"_"+snapName+".desktop" {
			primary = f
			break
		}
	}

	entry := Entry{DesktopFiles: files}
	name, icon, err := readEntry(primary)
	if err != nil {
		x.log.WithError(err).WithField("file", primary).Debug("cannot read desktop file")
		return entry
	}
	entry.VisibleName = name
	entry.Icon = icon
	return entry
}

// readEntry returns Name and Icon of the [Desktop Entry] group. Localized
// keys such as Name[de] are left alone.
func readEntry(path string) (name, icon string, err error) {
	file, err := ini.LoadSources(desktopLoadOptions, path)
	if err != nil {
		return "", "", fmt.Errorf("parse desktop file: %w", err)
	}
	section, err := file.GetSection("Desktop Entry")
	if err != nil {
		return "", "", nil
	}
	return section.Key("Name").String(), section.Key("Icon").String(), nil
}

// Desktop entry values use ';' as a list separator, not a comment marker.
var desktopLoadOptions = ini.LoadOptions{
	IgnoreInlineComment:     true,
	SkipUnrecognizableLines: true,
	KeyValueDelimiters:      "=",
}

// Watch invalidates the cache whenever a watched directory changes, until ctx
// is cancelled. Directories that do not exist are skipped.
func (x *Index) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	watched := 0
	for _, dir := range x.dirs {
		if err := watcher.Add(dir); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				x.log.WithField("dir", dir).Debug("desktop dir missing, not watching")
				continue
			}
			return fmt.Errorf("watch %s: %w", dir, err)
		}
		watched++
	}
	if watched == 0 {
		<-ctx.Done()
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if strings.HasSuffix(ev.Name, ".desktop") {
				x.log.WithField("file", ev.Name).Trace("desktop files changed")
				x.Invalidate()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			x.log.WithError(err).Warn("desktop watcher error")
		}
	}
}

func globEscape(s string) string {
	replacer := strings.NewReplacer(`*`, `\*`, `?`, `\?`, `[`, `\[`, `\`, `\\`)
	return replacer.Replace(s)
}
