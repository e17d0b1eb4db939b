package telemetry

// SampleWidth is the fixed number of numeric fields in every published
// sample; both monitoring modules emit exactly four values per entity.
const SampleWidth = 4

// Handles returned by sink registration calls. They are opaque to callers
// and stay valid for the lifetime of the sink.
type (
	DomainID  int64
	SchemaID  int64
	CounterID int64
)

// Sink is the telemetry publisher collaborator: one domain per monitored
// device, one schema per domain describing the sample fields, one counter
// per monitored port. Publish is atomic per call; a sample is either
// recorded whole or not at all.
type Sink interface {
	CreateDomain(name string) (DomainID, error)
	RegisterSchema(domain DomainID, fields []string) (SchemaID, error)
	RegisterCounter(domain DomainID, schema SchemaID, name string) (CounterID, error)
	Publish(domain DomainID, counter CounterID, values []float64) error
	Close() error
}
