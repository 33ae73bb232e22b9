package snapd

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// response mirrors the envelope every snapd endpoint answers with.
type response struct {
	Type       string          `json:"type"`
	StatusCode int             `json:"status-code"`
	Status     string          `json:"status"`
	Result     json.RawMessage `json:"result"`
}

type errorResult struct {
	Message string `json:"message"`
	Kind    string `json:"kind"`
}

// Error is an error reported by snapd itself.
type Error struct {
	StatusCode int
	Kind       string
	Message    string
}

func (e *Error) Error() string {
	if e.Kind != "" {
		return fmt.Sprintf("snapd error %d (%s): %s", e.StatusCode, e.Kind, e.Message)
	}
	return fmt.Sprintf("snapd error %d: %s", e.StatusCode, e.Message)
}

// Is reports 404 responses as ErrNotFound.
func (e *Error) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == http.StatusNotFound
}

// IsNotFound reports whether err means the object does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// Notice mirrors an entry of /v2/notices.
type Notice struct {
	ID            string            `json:"id"`
	UserID        *uint32           `json:"user-id"`
	Type          string            `json:"type"`
	Key           string            `json:"key"`
	FirstOccurred time.Time         `json:"first-occurred"`
	LastOccurred  time.Time         `json:"last-occurred"`
	LastRepeated  time.Time         `json:"last-repeated"`
	Occurrences   int               `json:"occurrences"`
	LastData      map[string]string `json:"last-data,omitempty"`
	ExpireAfter   string            `json:"expire-after,omitempty"`
}

// Change mirrors /v2/changes/{id}.
type Change struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	Summary   string    `json:"summary"`
	Status    string    `json:"status"`
	Ready     bool      `json:"ready"`
	Err       string    `json:"err,omitempty"`
	Tasks     []Task    `json:"tasks"`
	SpawnTime time.Time `json:"spawn-time"`
	ReadyTime time.Time `json:"ready-time,omitempty"`
}

// Task is one unit of work within a change.
type Task struct {
	ID       string       `json:"id"`
	Kind     string       `json:"kind"`
	Summary  string       `json:"summary"`
	Status   string       `json:"status"`
	Progress TaskProgress `json:"progress"`
	Data     TaskData     `json:"data"`
}

// TaskProgress reports the fine grained progress of a task.
type TaskProgress struct {
	Label string `json:"label"`
	Done  int    `json:"done"`
	Total int    `json:"total"`
}

// TaskData carries the task attributes the daemon reads.
type TaskData struct {
	AffectedSnaps []string `json:"affected-snaps,omitempty"`
}

// Task statuses as reported by snapd.
const (
	StatusDefault = "Default"
	StatusDo      = "Do"
	StatusDoing   = "Doing"
	StatusDone    = "Done"
	StatusAbort   = "Abort"
	StatusUndo    = "Undo"
	StatusUndoing = "Undoing"
	StatusUndone  = "Undone"
	StatusHold    = "Hold"
	StatusError   = "Error"
	StatusWait    = "Wait"
)

// Snap mirrors the subset of snap metadata the daemon uses.
type Snap struct {
	Name           string          `json:"name"`
	Title          string          `json:"title,omitempty"`
	Summary        string          `json:"summary,omitempty"`
	Version        string          `json:"version,omitempty"`
	Revision       string          `json:"revision,omitempty"`
	Icon           string          `json:"icon,omitempty"`
	Apps           []App           `json:"apps,omitempty"`
	RefreshInhibit *RefreshInhibit `json:"refresh-inhibit,omitempty"`
}

// DisplayName prefers the store title over the snap name.
func (s Snap) DisplayName() string {
	if s.Title != "" {
		return s.Title
	}
	return s.Name
}

// App is an application shipped by a snap.
type App struct {
	Snap        string `json:"snap,omitempty"`
	Name        string `json:"name"`
	DesktopFile string `json:"desktop-file,omitempty"`
}

// RefreshInhibit describes why and until when a refresh is held back.
type RefreshInhibit struct {
	ProceedTime time.Time `json:"proceed-time"`
}
