package telemetry

import (
	"sync/atomic"

	"github.com/h3platform/pciemon/internal/errors"
)

// noop is a Sink that accepts registrations and discards samples. Used when
// telemetry is disabled so the sampling loop needs no special casing.
type noop struct {
	nextID atomic.Int64
}

func NewNoop() Sink {
	return &noop{}
}

func (n *noop) CreateDomain(string) (DomainID, error) {
	return DomainID(n.nextID.Add(1)), nil
}

func (n *noop) RegisterSchema(DomainID, []string) (SchemaID, error) {
	return SchemaID(n.nextID.Add(1)), nil
}

func (n *noop) RegisterCounter(DomainID, SchemaID, string) (CounterID, error) {
	return CounterID(n.nextID.Add(1)), nil
}

func (n *noop) Publish(_ DomainID, _ CounterID, values []float64) error {
	if len(values) != SampleWidth {
		return errors.New().WithData(ErrInvalidSample, len(values))
	}
	return nil
}

func (*noop) Close() error {
	return nil
}
