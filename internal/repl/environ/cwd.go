package environ

// DirSource reports a working directory.
type DirSource interface {
	ShellDir() string
}

// WorkingDirectoryRetriever reports the working directory of shell escapes.
type WorkingDirectoryRetriever struct {
	source DirSource
}

// NewWorkingDirectoryRetriever creates a new WorkingDirectoryRetriever.
func NewWorkingDirectoryRetriever(source DirSource) *WorkingDirectoryRetriever {
	return &WorkingDirectoryRetriever{source: source}
}

// Name returns the retriever name.
func (r *WorkingDirectoryRetriever) Name() string {
	return "working dir"
}

// GetContext returns the directory.
func (r *WorkingDirectoryRetriever) GetContext() (string, error) {
	return r.source.ShellDir(), nil
}
