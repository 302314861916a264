package codec

import "io"

// MaxBlocksPerMCU is the hard structural limit on the number of coded
// 8x8 sample blocks a single minimum coded unit may contain. The sum of
// H*V over all components of an interleaved scan must not exceed it.
const MaxBlocksPerMCU = 10

// SamplingFactor holds the per-component chroma sampling factors.
// Higher factors mean more samples for that component per MCU.
type SamplingFactor struct {
	H int // Horizontal sampling factor (1-4)
	V int // Vertical sampling factor (1-4)
}

// Blocks returns the number of coded blocks this component contributes
// to each MCU.
func (s SamplingFactor) Blocks() int {
	return s.H * s.V
}

// EncodingOptions selects the entropy-coding and scan structure of an
// encode run. Each field is drawn independently by the generator.
type EncodingOptions struct {
	// Quality controls quantization table scaling (0-100, higher is better).
	// 0 is treated as 1 by the engine.
	Quality int

	// ForceBaseline caps quantization values at 255 so the output stays
	// decodable by baseline-only decoders. Without it very low qualities
	// may produce 16-bit quantization tables.
	ForceBaseline bool

	// Arithmetic selects arithmetic entropy coding instead of Huffman.
	Arithmetic bool

	// OptimizeCoding derives Huffman tables from the actual symbol
	// frequencies instead of using the standard K.3 tables.
	// Ignored when Arithmetic is set.
	OptimizeCoding bool

	// RestartInterval is the number of MCUs between restart markers
	// (0 disables restarts).
	RestartInterval int

	// Progressive selects a multi-scan spectral-selection layout instead
	// of a single sequential scan.
	Progressive bool
}

// Config is the complete, immutable configuration for one encode run.
// It is assembled once by the generator and passed whole into the
// compressor; nothing mutates it afterwards.
type Config struct {
	Width  int
	Height int

	Options EncodingOptions

	// Sampling holds the per-component sampling factors, luma first.
	// Input is always 3-component RGB.
	Sampling [3]SamplingFactor
}

// Validate checks all per-field domains and the MCU block budget.
func (c Config) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return ErrInvalidDimensions
	}
	if c.Width >= 1<<16 || c.Height >= 1<<16 {
		return ErrInvalidDimensions
	}
	if c.Options.Quality < 0 || c.Options.Quality > 100 {
		return ErrInvalidQuality
	}
	if c.Options.RestartInterval < 0 || c.Options.RestartInterval > 65535 {
		return ErrInvalidParameter
	}
	blocks := 0
	for _, s := range c.Sampling {
		if s.H < 1 || s.H > 4 || s.V < 1 || s.V > 4 {
			return ErrInvalidSampling
		}
		blocks += s.Blocks()
	}
	if blocks > MaxBlocksPerMCU {
		return ErrBlockBudgetExceeded
	}
	return nil
}

// Compressor is the narrow surface the generator drives: configure the
// run, feed scanlines top to bottom, finish. Implementations write the
// encoded stream to the writer they were constructed with.
type Compressor interface {
	// Start validates the configuration and writes the stream headers.
	Start(cfg Config) error

	// WriteScanline consumes one row of interleaved RGB samples
	// (3*width bytes). Rows are never retained by the callee.
	WriteScanline(row []byte) error

	// Finish flushes the entropy coder and writes the stream trailer.
	Finish() error
}

// DecodeResult contains fully decoded pixel output.
type DecodeResult struct {
	PixelData  []byte // Interleaved samples (RGB or grayscale)
	Width      int
	Height     int
	Components int
}

// ComponentCoefficients holds the quantized DCT coefficient blocks of a
// single component, row-major, each block in natural (row) order.
type ComponentCoefficients struct {
	ID             byte
	WidthInBlocks  int
	HeightInBlocks int
	Blocks         [][64]int32
}

// CoefficientData is the decode-time internal state exposed for
// differential testing: the quantized coefficients exactly as read from
// the entropy-coded stream, before dequantization.
type CoefficientData struct {
	Components []ComponentCoefficients
}

// Codec bundles the compression and decompression entry points of one
// codec implementation for registry lookup.
type Codec interface {
	// Name returns the registry key.
	Name() string

	// NewCompressor returns a Compressor writing to w.
	NewCompressor(w io.Writer) Compressor

	// Decode decodes a complete encoded stream to pixels.
	Decode(data []byte) (*DecodeResult, error)

	// ReadCoefficients decodes a complete encoded stream but stops after
	// entropy decoding, returning the raw quantized coefficients.
	ReadCoefficients(data []byte) (*CoefficientData, error)
}
