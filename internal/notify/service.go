package notify

import (
	"errors"
	"fmt"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"
	"github.com/sirupsen/logrus"
)

// D-Bus names of the daemon's own service.
const (
	BusName    = "io.snapcraft.SnapDesktopIntegration"
	ObjectPath = dbus.ObjectPath("/io/snapcraft/SnapDesktopIntegration")
	Interface  = "io.snapcraft.SnapDesktopIntegration"
)

// ErrNameTaken means another daemon already owns BusName.
var ErrNameTaken = errors.New("bus name already owned")

// Service is the DBus object exported under ObjectPath/Interface.
type Service struct {
	ignorer Ignorer
	version string
	log     *logrus.Entry
}

// NewService creates a Service that forwards IgnoreSnap calls to ig.
func NewService(ig Ignorer, version string, log *logrus.Entry) *Service {
	return &Service{ignorer: ig, version: version, log: log}
}

// IgnoreSnap stops pending-refresh reminders for name.
func (s *Service) IgnoreSnap(name string) *dbus.Error {
	if name == "" {
		return dbus.MakeFailedError(errors.New("snap name is empty"))
	}
	if err := s.ignorer.Ignore(name); err != nil {
		return dbus.MakeFailedError(err)
	}
	if s.log != nil {
		s.log.WithField("snap", name).Debug("IgnoreSnap called over DBus")
	}
	return nil
}

// GetVersion returns the daemon version string.
func (s *Service) GetVersion() (string, *dbus.Error) {
	return s.version, nil
}

// Export publishes svc on conn and claims BusName.
func Export(conn *dbus.Conn, svc *Service) error {
	if err := conn.Export(svc, ObjectPath, Interface); err != nil {
		return fmt.Errorf("export service: %w", err)
	}
	node := &introspect.Node{
		Name: string(ObjectPath),
		Interfaces: []introspect.Interface{
			introspect.IntrospectData,
			{Name: Interface, Methods: introspect.Methods(svc)},
		},
	}
	if err := conn.Export(introspect.NewIntrospectable(node), ObjectPath, "org.freedesktop.DBus.Introspectable"); err != nil {
		return fmt.Errorf("export introspection: %w", err)
	}

	reply, err := conn.RequestName(BusName, dbus.NameFlagDoNotQueue)
	if err != nil {
		return fmt.Errorf("request bus name %s: %w", BusName, err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		return ErrNameTaken
	}
	return nil
}

// IgnoreSnap asks the daemon owning BusName to silence reminders for name.
func IgnoreSnap(conn *dbus.Conn, name string) error {
	obj := conn.Object(BusName, ObjectPath)
	if err := obj.Call(Interface+".IgnoreSnap", 0, name).Err; err != nil {
		return fmt.Errorf("IgnoreSnap %s: %w", name, err)
	}
	return nil
}
