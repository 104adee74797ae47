// Package version identifies a running xjsf host: the build stamped in with
// -ldflags plus a per-process instance id. The same Info feeds log fields,
// the OpenTelemetry resource, the -version flag and the caller's User-Agent.
package version

import (
	"fmt"
	"os"
	"sync"

	"github.com/google/uuid"
)

var (
	// Overridden at build time, e.g. -ldflags "-X xjsf/internal/version.Version=v0.3.0".
	Version   = "unknown"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// Info is what a host reports about itself. The json tags match the log
// attribute names.
type Info struct {
	Version    string `json:"version"`
	GitCommit  string `json:"git_commit"`
	BuildDate  string `json:"build_date"`
	InstanceID string `json:"instance_id"`
	Hostname   string `json:"hostname"`
}

var (
	once sync.Once
	info Info
)

// GetInfo returns the host's Info. The instance id is minted once per process,
// so it stays stable across log lines, metrics and outgoing calls.
func GetInfo() Info {
	once.Do(func() {
		info = Info{
			Version:    Version,
			GitCommit:  GitCommit,
			BuildDate:  BuildDate,
			InstanceID: uuid.New().String(),
			Hostname:   getHostname(),
		}
	})
	return info
}

func getHostname() string {
	hostname, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	return hostname
}

// String is the -version output of cmd/xjsf.
func (i Info) String() string {
	return fmt.Sprintf("xjsf version %s (commit: %s, built: %s)", i.Version, i.GitCommit, i.BuildDate)
}

// UserAgent identifies the caller package to remote xjsf hosts.
func (i Info) UserAgent() string {
	return "xjsf-caller/" + i.Version
}
