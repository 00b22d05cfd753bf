package environ

import (
	"fmt"
	"os"
	"runtime"
	"runtime/debug"
)

// SystemInfoRetriever reports the platform and the process.
type SystemInfoRetriever struct{}

// NewSystemInfoRetriever creates a new SystemInfoRetriever.
func NewSystemInfoRetriever() *SystemInfoRetriever {
	return &SystemInfoRetriever{}
}

// Name returns the retriever name.
func (r *SystemInfoRetriever) Name() string {
	return "system"
}

// GetContext returns e.g. "linux/amd64 go1.23.0, 8 CPUs, pid 4242".
func (r *SystemInfoRetriever) GetContext() (string, error) {
	return fmt.Sprintf("%s/%s %s, %d CPUs, pid %d",
		runtime.GOOS, runtime.GOARCH, runtime.Version(), runtime.NumCPU(), os.Getpid()), nil
}

// BuildInfoRetriever reports the main module of the running binary.
type BuildInfoRetriever struct {
	read func() (*debug.BuildInfo, bool)
}

// NewBuildInfoRetriever creates a new BuildInfoRetriever.
func NewBuildInfoRetriever() *BuildInfoRetriever {
	return &BuildInfoRetriever{read: debug.ReadBuildInfo}
}

// Name returns the retriever name.
func (r *BuildInfoRetriever) Name() string {
	return "module"
}

// GetContext returns the main module path and version.
func (r *BuildInfoRetriever) GetContext() (string, error) {
	info, ok := r.read()
	if !ok {
		return "", fmt.Errorf("build information unavailable")
	}
	if info.Main.Path == "" {
		return "", nil
	}
	if info.Main.Version == "" {
		return info.Main.Path, nil
	}
	return info.Main.Path + " " + info.Main.Version, nil
}
