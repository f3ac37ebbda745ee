package processor

import (
	"log/slog"

	"github.com/INLOpen/nexusjoin/serde"
)

// Context is the ambient execution context a processor runs in. Components
// fall back to its defaults when the caller did not configure their own.
type Context interface {
	// ApplicationID identifies the running application; internal topic names derive from it.
	ApplicationID() string
	// KeySerde is the default key serde, erased to Serde[any].
	KeySerde() serde.Serde[any]
	Logger() *slog.Logger
}

// BasicContext is a fixed-value Context.
type BasicContext struct {
	applicationID string
	keySerde      serde.Serde[any]
	logger        *slog.Logger
}

var _ Context = (*BasicContext)(nil)

// NewContext creates a BasicContext. A nil logger is replaced with slog.Default().
func NewContext(applicationID string, keySerde serde.Serde[any], logger *slog.Logger) *BasicContext {
	if logger == nil {
		logger = slog.Default()
	}
	return &BasicContext{
		applicationID: applicationID,
		keySerde:      keySerde,
		logger:        logger.With("component", "processor", "application_id", applicationID),
	}
}

func (c *BasicContext) ApplicationID() string       { return c.applicationID }
func (c *BasicContext) KeySerde() serde.Serde[any] { return c.keySerde }
func (c *BasicContext) Logger() *slog.Logger       { return c.logger }

// InternalTopic returns a supplier of the application-scoped topic name
// "<applicationID>-<name>". With an empty applicationID the bare name is used.
func InternalTopic(applicationID, name string) func() string {
	return func() string {
		if applicationID == "" {
			return name
		}
		return applicationID + "-" + name
	}
}
