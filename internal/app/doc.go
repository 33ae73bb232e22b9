// Package app is the composition root of snapdesk.
//
// Run loads the configuration, sets up logging, and starts these components
// under one errgroup:
//
//   - notices.Stream long-polls snapd for change-update and
//     refresh-inhibit notices
//   - refresh.Reconciler turns those notices into refresh events
//   - desktop.Index watches the desktop file directories for changes
//   - notify.Sink listens for notification actions on the session bus
//   - the Bubble Tea monitor, when Options.Monitor is set
//
// Events fan out through a refresh.MultiSink to the event log, to desktop
// notifications and launcher progress (daemon mode), or to the terminal
// monitor (monitor mode). The daemon also claims the
// io.snapcraft.SnapDesktopIntegration bus name so that a second daemon
// refuses to start and `snapdesk ignore` can reach it.
//
// A missing session bus is not fatal: the daemon keeps logging events.
package app
