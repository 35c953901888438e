package dom

import (
	"errors"
	"slices"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/net/html"
)

// maxFlushRounds limits how many times Flush re-delivers records produced by
// observers themselves.
const maxFlushRounds = 64

// ErrMutationLoop is returned by Flush when observers keep producing new
// mutations.
var ErrMutationLoop = errors.New("mutation observers did not settle")

// Kind is the type of mutation record.
type Kind int

const (
	NodeAdded Kind = iota
	NodeRemoved
	AttributeChanged
)

func (k Kind) String() string {
	switch k {
	case NodeAdded:
		return "node-added"
	case NodeRemoved:
		return "node-removed"
	case AttributeChanged:
		return "attribute-changed"
	}
	return "unknown"
}

// Origin tells who performed the mutation.
type Origin int

const (
	OriginHost   Origin = iota // user code, default
	OriginEngine               // styling engine bookkeeping
)

func (o Origin) String() string {
	if o == OriginEngine {
		return "engine"
	}
	return "host"
}

// MutationRecord describes a single change of the tree.
type MutationRecord struct {
	Kind   Kind
	Target *html.Node // changed element or parent of added/removed nodes
	Name   string     // attribute name for AttributeChanged
	// OldValue is previous attribute value, nil when attribute did not exist.
	OldValue *string
	Added    []*html.Node
	Removed  []*html.Node
	Origin   Origin
}

// Observer receives batches of mutation records.
type Observer func(doc *Document, records []MutationRecord) error

type observer struct {
	handle int
	fn     Observer
}

// Observe registers fn to receive mutation batches on Flush. Returned function
// cancels the registration.
func (d *Document) Observe(fn Observer) (cancel func()) {
	d.nextHandle++
	o := &observer{handle: d.nextHandle, fn: fn}
	d.observers = append(d.observers, o)
	return func() {
		d.observers = slices.DeleteFunc(d.observers, func(e *observer) bool {
			return e.handle == o.handle
		})
		if len(d.observers) == 0 {
			d.pending = nil
		}
	}
}

// As runs fn with every mutation it performs tagged with origin.
func (d *Document) As(origin Origin, fn func() error) error {
	prev := d.origin
	d.origin = origin
	defer func() { d.origin = prev }()
	return fn()
}

// Pending returns number of records waiting for delivery.
func (d *Document) Pending() int {
	return len(d.pending)
}

// TakeRecords returns and clears pending records without delivering them.
func (d *Document) TakeRecords() []MutationRecord {
	records := d.pending
	d.pending = nil
	return records
}

// Flush delivers pending records to all observers. Records produced while
// observers run are delivered in the following round. All observer errors
// are returned combined.
func (d *Document) Flush() (err error) {
	for round := range maxFlushRounds {
		if len(d.pending) == 0 {
			return err
		}
		batch := d.pending
		d.pending = nil

		d.log.Debug("Delivering mutations", zap.Int("round", round), zap.Int("records", len(batch)))
		for _, o := range slices.Clone(d.observers) {
			err = multierr.Append(err, o.fn(d, batch))
		}
	}
	if len(d.pending) > 0 {
		d.log.Warn("Dropping undelivered mutations", zap.Int("records", len(d.pending)))
		d.pending = nil
		err = multierr.Append(err, ErrMutationLoop)
	}
	return err
}

func (d *Document) record(r MutationRecord) {
	if len(d.observers) == 0 {
		return
	}
	r.Origin = d.origin
	d.pending = append(d.pending, r)
}
