package supervisor

import (
	"strings"

	"github.com/jobq-io/jobq/model/types"
)

// Request describes one process to spawn. The protocol adapter is expected
// to have parsed loosely typed input into this structure already; Validate
// is the supervisor's last line of defence before any state mutation.
type Request struct {
	Title    string            `json:"title"`
	Name     string            `json:"name,omitempty"`
	Command  []string          `json:"command"`
	Env      map[string]string `json:"env,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Validate rejects malformed requests before any state mutation.
func (r *Request) Validate() error {
	if r == nil {
		return types.NewValidationError("", "request is nil")
	}
	if len(r.Command) == 0 {
		return types.NewValidationError("command", "command cannot be empty")
	}
	if strings.TrimSpace(r.Command[0]) == "" {
		return types.NewValidationError("command", "program name cannot be blank")
	}
	for key := range r.Env {
		if key == "" {
			return types.NewValidationError("env", "environment key cannot be empty")
		}
		if strings.Contains(key, "=") {
			return types.NewValidationError("env", "environment key cannot contain '='")
		}
	}
	return nil
}
