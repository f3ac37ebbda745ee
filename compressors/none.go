package compressors

import (
	"bytes"
	"io"

	"github.com/INLOpen/nexusjoin/core"
)

// NoCompressionCompressor stores values as they are.
type NoCompressionCompressor struct{}

var _ core.Compressor = (*NoCompressionCompressor)(nil)

func NewNoCompressionCompressor() *NoCompressionCompressor {
	return &NoCompressionCompressor{}
}

// Compress returns a copy of data so the result never aliases the caller's buffer.
func (c *NoCompressionCompressor) Compress(data []byte) ([]byte, error) {
	return append([]byte{}, data...), nil
}

func (c *NoCompressionCompressor) CompressTo(dst *bytes.Buffer, src []byte) error {
	dst.Reset()
	_, err := dst.Write(src)
	return err
}

func (c *NoCompressionCompressor) Decompress(data []byte) (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (c *NoCompressionCompressor) Type() core.CompressionType {
	return core.CompressionNone
}
