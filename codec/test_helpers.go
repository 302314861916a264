package codec

// TestCompressor is a recording implementation of Compressor for testing
// generator logic without a real codec. It captures the configuration and
// every scanline it is fed.
type TestCompressor struct {
	Cfg      Config
	Rows     [][]byte
	Started  bool
	Finished bool

	// StartErr, WriteErr and FinishErr are returned by the corresponding
	// methods when set, to exercise caller error paths.
	StartErr  error
	WriteErr  error
	FinishErr error
}

// NewTestCompressor creates a new TestCompressor
func NewTestCompressor() *TestCompressor {
	return &TestCompressor{}
}

// Start records the configuration
func (c *TestCompressor) Start(cfg Config) error {
	if c.StartErr != nil {
		return c.StartErr
	}
	c.Cfg = cfg
	c.Started = true
	return nil
}

// WriteScanline copies and records one row
func (c *TestCompressor) WriteScanline(row []byte) error {
	if c.WriteErr != nil {
		return c.WriteErr
	}
	dup := make([]byte, len(row))
	copy(dup, row)
	c.Rows = append(c.Rows, dup)
	return nil
}

// Finish marks the stream complete
func (c *TestCompressor) Finish() error {
	if c.FinishErr != nil {
		return c.FinishErr
	}
	c.Finished = true
	return nil
}
