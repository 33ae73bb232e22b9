package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/godbus/dbus/v5"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/five82/snapdesk/internal/config"
	"github.com/five82/snapdesk/internal/desktop"
	"github.com/five82/snapdesk/internal/logging"
	"github.com/five82/snapdesk/internal/logtail"
	"github.com/five82/snapdesk/internal/notices"
	"github.com/five82/snapdesk/internal/notify"
	"github.com/five82/snapdesk/internal/prefs"
	"github.com/five82/snapdesk/internal/refresh"
	"github.com/five82/snapdesk/internal/snapd"
	"github.com/five82/snapdesk/internal/ui"
)

// appName is the application name shown by the notification server.
const appName = "Snap Desktop Integration"

// desktopEntry names the desktop file notifications are attributed to.
const desktopEntry = "io.snapcraft.SnapDesktopIntegration"

// Options configure a snapdesk run.
type Options struct {
	ConfigPath string
	PrefsPath  string // empty uses default ~/.config/snapdesk/prefs.toml
	LogLevel   string // overrides the configured level when set
	// Monitor runs the terminal monitor instead of the notification daemon.
	Monitor bool
	Version string
}

// Run wires the notice stream, reconciler and sinks together and blocks until
// ctx is cancelled, the monitor exits, or a component fails.
func Run(ctx context.Context, opts Options) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logOut, closeLog, err := openLogOutput(cfg.LogFile, opts.Monitor)
	if err != nil {
		return err
	}
	defer closeLog()

	level := cfg.LogLevel
	if opts.LogLevel != "" {
		level = opts.LogLevel
	}
	logging.Setup(logging.Options{Level: level, Format: cfg.LogFormat, Output: logOut})
	log := logging.NewLogger("app")

	client, err := snapd.NewClient(cfg.SocketPath)
	if err != nil {
		return fmt.Errorf("init snapd client: %w", err)
	}
	index := desktop.NewIndex(cfg.DesktopDirs, logging.NewLogger("desktop"))

	sinks := refresh.MultiSink{refresh.LogSink{Log: logging.NewLogger("events")}}

	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		log.WithError(err).Warn("session bus unavailable, desktop notifications disabled")
		conn = nil
	} else {
		defer conn.Close()
	}

	var notifySink *notify.Sink
	if conn != nil && !opts.Monitor {
		notifySink = newNotifySink(cfg, conn)
		sinks = append(sinks, notifySink)
	}

	var rec *refresh.Reconciler
	var program *tea.Program
	if opts.Monitor {
		userPrefs, _ := prefs.Load(opts.PrefsPath)
		model := ui.New(ui.Options{
			Ignore:    func(name string) error { return ignoreEverywhere(rec, conn, name, log) },
			ThemeName: userPrefs.Theme,
			PrefsPath: opts.PrefsPath,
		})
		program = tea.NewProgram(model, tea.WithContext(ctx), tea.WithAltScreen())
		sinks = append(sinks, ui.NewProgramSink(program))
	}

	rec = refresh.New(refresh.Options{
		Client:  client,
		Sink:    sinks,
		Desktop: index,
		Logger:  logging.NewLogger("refresh"),
	})

	if notifySink != nil {
		notifySink.SetIgnorer(rec)
		if err := notify.Export(conn, notify.NewService(rec, opts.Version, logging.NewLogger("service"))); err != nil {
			if errors.Is(err, notify.ErrNameTaken) {
				return fmt.Errorf("another snapdesk daemon is running: %w", err)
			}
			log.WithError(err).Warn("export ignore service failed")
		}
	}

	stream := notices.NewStream(client, notices.WithLogger(logging.NewLogger("notices")))
	events := make(chan notices.Event)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(runCtx)

	g.Go(func() error {
		return ignoreCanceled(stream.Run(gctx, events))
	})
	g.Go(func() error {
		return ignoreCanceled(rec.Run(gctx, events))
	})
	g.Go(func() error {
		if err := index.Watch(gctx); err != nil {
			log.WithError(err).Warn("desktop file watcher stopped")
		}
		return nil
	})
	if notifySink != nil {
		g.Go(func() error {
			if err := notifySink.Listen(gctx, conn); err != nil {
				log.WithError(err).Warn("notification signals unavailable")
			}
			return nil
		})
	}
	if program != nil {
		g.Go(func() error {
			defer cancel()
			_, err := program.Run()
			if errors.Is(err, tea.ErrProgramKilled) {
				return nil
			}
			return err
		})
	}

	log.WithFields(logrus.Fields{
		"socket":  cfg.SocketPath,
		"monitor": opts.Monitor,
		"version": opts.Version,
	}).Info("snapdesk started")

	err = g.Wait()
	log.Info("snapdesk stopped")
	return err
}

// IgnoreSnap asks the running daemon to stop reminding about name.
func IgnoreSnap(name string) error {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return fmt.Errorf("connect session bus: %w", err)
	}
	defer conn.Close()
	return notify.IgnoreSnap(conn, name)
}

// Logs writes the last n lines of the configured log file to w, highlighted
// when color is set.
func Logs(w io.Writer, configPath string, n int, color bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.LogFile == "" {
		return errors.New("no log_file configured")
	}
	lines, err := logtail.Read(cfg.LogFile, n)
	if err != nil {
		return err
	}
	if color {
		lines = logtail.DefaultPalette().ColorizeLines(lines)
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func newNotifySink(cfg config.Config, conn *dbus.Conn) *notify.Sink {
	opts := notify.Options{
		DesktopEntry: desktopEntry,
		Logger:       logging.NewLogger("notify"),
	}
	if cfg.Notifications {
		opts.Notifier = notify.NewDBusNotifier(conn, appName)
	}
	if cfg.LauncherProgress {
		opts.Emitter = conn
	}
	return notify.NewSink(opts)
}

// ignoreEverywhere silences name in the local reconciler and, when a daemon
// is running, in the daemon too.
func ignoreEverywhere(rec *refresh.Reconciler, conn *dbus.Conn, name string, log *logrus.Entry) error {
	if err := rec.Ignore(name); err != nil {
		return err
	}
	if conn == nil {
		return nil
	}
	if err := notify.IgnoreSnap(conn, name); err != nil {
		log.WithError(err).WithField("snap", name).Debug("daemon did not take ignore request")
	}
	return nil
}

func openLogOutput(path string, monitor bool) (io.Writer, func(), error) {
	if path == "" {
		if monitor {
			return io.Discard, func() {}, nil
		}
		return os.Stderr, func() {}, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create log dir: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	return file, func() { _ = file.Close() }, nil
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
