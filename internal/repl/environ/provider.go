package environ

import "go.uber.org/zap"

// Entry is one collected fact.
type Entry struct {
	Name  string
	Value string
}

// Provider runs a set of retrievers.
type Provider struct {
	retrievers []Retriever
	logger     *zap.Logger
}

// NewProvider creates a Provider with the given retrievers.
func NewProvider(logger *zap.Logger, retrievers ...Retriever) *Provider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Provider{retrievers: retrievers, logger: logger}
}

// AddRetriever appends a retriever.
func (p *Provider) AddRetriever(r Retriever) {
	p.retrievers = append(p.retrievers, r)
}

// GetContext runs every retriever in order. Failing retrievers are logged
// and left out, as are empty results.
func (p *Provider) GetContext() []Entry {
	entries := make([]Entry, 0, len(p.retrievers))
	for _, r := range p.retrievers {
		value, err := r.GetContext()
		if err != nil {
			p.logger.Debug("environment retriever failed", zap.String("retriever", r.Name()), zap.Error(err))
			continue
		}
		if value == "" {
			continue
		}
		entries = append(entries, Entry{Name: r.Name(), Value: value})
	}
	return entries
}
