package task

// Operation names a kind of queued work.
type Operation string

const (
	OperationRoot          Operation = "codescholar.root"
	OperationSearch        Operation = "codescholar.search"
	OperationRunSearch     Operation = "codescholar.search.run"
	OperationCorpus        Operation = "codescholar.corpus"
	OperationIngestDataset Operation = "codescholar.corpus.ingest"
	OperationWarmCache     Operation = "codescholar.oracle.warm_cache"
	OperationFlushCache    Operation = "codescholar.oracle.flush_cache"
)

// Payload keys shared by queue producers and handlers.
const (
	PayloadKeyRunID    = "run_id"
	PayloadKeySeed     = "seed"
	PayloadKeyDataset  = "dataset"
	PayloadKeyManifest = "manifest"
)

func (o Operation) String() string { return string(o) }

// PrescribedOperations lists the operations each workflow enqueues, so
// startup can verify a handler exists for every one of them before any
// work is accepted.
type PrescribedOperations struct {
	warmCache bool
}

// NewPrescribedOperations configures the workflows. With warmCache false,
// ingestion skips the oracle cache warm-up step.
func NewPrescribedOperations(warmCache bool) PrescribedOperations {
	return PrescribedOperations{warmCache: warmCache}
}

// RunSearch is the workflow behind a queued search request.
func (p PrescribedOperations) RunSearch() []Operation {
	return []Operation{OperationRunSearch}
}

// IngestDataset is the workflow behind loading a dataset manifest.
func (p PrescribedOperations) IngestDataset() []Operation {
	ops := []Operation{OperationIngestDataset}
	if p.warmCache {
		ops = append(ops, OperationWarmCache)
	}
	return ops
}

// All returns the union of every workflow's operations, in first-seen
// order.
func (p PrescribedOperations) All() []Operation {
	seen := make(map[Operation]struct{})
	var all []Operation
	add := func(ops []Operation) {
		for _, op := range ops {
			if _, ok := seen[op]; ok {
				continue
			}
			seen[op] = struct{}{}
			all = append(all, op)
		}
	}
	add(p.RunSearch())
	add(p.IngestDataset())
	return all
}
