// Package environ collects facts about the host process for the %env
// command: platform, main module, working directory and git checkout.
package environ

// Retriever produces one fact about the environment.
type Retriever interface {
	// Name is the label the fact is listed under.
	Name() string

	// GetContext returns the fact. An empty string means there is nothing
	// to report.
	GetContext() (string, error)
}
