package repository

// WithDataset filters by the "dataset" column.
func WithDataset(dataset string) Option {
	return WithCondition("dataset", dataset)
}

// WithRunID filters by the "run_id" column.
func WithRunID(runID string) Option {
	return WithCondition("run_id", runID)
}

// WithSize filters by the "size" column.
func WithSize(size int) Option {
	return WithCondition("size", size)
}

// WithSignature filters by the "signature" column.
func WithSignature(sig string) Option {
	return WithCondition("signature", sig)
}

// WithSignatureIn filters by the "signature" column using IN.
func WithSignatureIn(sigs []string) Option {
	return WithConditionIn("signature", sigs)
}

// WithProgramID filters by the "program_id" column.
func WithProgramID(id string) Option {
	return WithCondition("program_id", id)
}

// WithMinSupport filters rows whose support meets the threshold.
func WithMinSupport(n int) Option {
	return WithWhere("support >= ?", n)
}
