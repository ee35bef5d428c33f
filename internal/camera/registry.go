package camera

import (
	"fmt"
	"strings"

	"github.com/keepmind9/camerabot/pkg/constants"
)

// Camera-scoped command verbs. A command name is "<verb>_<camera id>".
const (
	VerbGetPic             = "getpic"
	VerbGetFullPic         = "getfullpic"
	VerbMotionDetectionOn  = "motion_detection_on"
	VerbMotionDetectionOff = "motion_detection_off"
)

// CameraVerbs lists every camera-scoped verb in display order.
var CameraVerbs = []string{
	VerbGetPic,
	VerbGetFullPic,
	VerbMotionDetectionOn,
	VerbMotionDetectionOff,
}

// IsVerb reports whether v is a camera-scoped verb.
func IsVerb(v string) bool {
	for _, verb := range CameraVerbs {
		if verb == v {
			return true
		}
	}
	return false
}

// ValidID reports whether id has the form cam_<suffix> with a non-empty
// suffix that does not itself contain the prefix.
func ValidID(id string) bool {
	rest, ok := strings.CutPrefix(id, constants.CameraIDPrefix)
	if !ok || rest == "" {
		return false
	}
	return !strings.Contains(rest, constants.CameraIDPrefix)
}

// Commands builds the command names supported by a camera.
func Commands(id string, verbs []string) []string {
	commands := make([]string, 0, len(verbs))
	for _, verb := range verbs {
		commands = append(commands, verb+"_"+id)
	}
	return commands
}

// Entry is a registered camera with the commands it supports.
type Entry struct {
	ID       string
	Camera   Camera
	Commands []string
}

// Registry is an ordered, read-only set of cameras keyed by identifier.
type Registry struct {
	entries []Entry
	index   map[string]int
}

// NewRegistry builds a registry. Identifiers must be valid and unique.
func NewRegistry(entries ...Entry) (*Registry, error) {
	r := &Registry{
		entries: make([]Entry, 0, len(entries)),
		index:   make(map[string]int, len(entries)),
	}
	for _, e := range entries {
		if !ValidID(e.ID) {
			return nil, fmt.Errorf("invalid camera id %q: must look like %s<id>", e.ID, constants.CameraIDPrefix)
		}
		if e.Camera == nil {
			return nil, fmt.Errorf("camera %s has no instance", e.ID)
		}
		if _, exists := r.index[e.ID]; exists {
			return nil, fmt.Errorf("duplicate camera id %s", e.ID)
		}
		e.Commands = append([]string(nil), e.Commands...)
		r.index[e.ID] = len(r.entries)
		r.entries = append(r.entries, e)
	}
	return r, nil
}

// Lookup returns the entry registered under id.
func (r *Registry) Lookup(id string) (Entry, error) {
	i, ok := r.index[id]
	if !ok {
		return Entry{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return r.entries[i], nil
}

// Entries returns the registered cameras in registration order.
func (r *Registry) Entries() []Entry {
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Len returns the number of registered cameras.
func (r *Registry) Len() int {
	return len(r.entries)
}
