package sink

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"
)

// parquetRowGroupSize keeps row groups near the conventional 128M target.
const parquetRowGroupSize = 128 * 1024 * 1024

// Codec maps a config compression name to a parquet codec. The empty name
// means snappy.
func Codec(name string) (parquet.CompressionCodec, error) {
	switch strings.ToLower(name) {
	case "", "snappy":
		return parquet.CompressionCodec_SNAPPY, nil
	case "gzip":
		return parquet.CompressionCodec_GZIP, nil
	case "none", "uncompressed":
		return parquet.CompressionCodec_UNCOMPRESSED, nil
	default:
		return 0, fmt.Errorf("unsupported sink.compression=%q", name)
	}
}

// writeParquet materializes rows into a single parquet file at dst, creating
// parent directories as needed. The schema comes from T's parquet struct tags.
func writeParquet[T any](dst string, rows []T, codec parquet.CompressionCodec) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	fw, err := local.NewLocalFileWriter(dst)
	if err != nil {
		return err
	}
	pw, err := writer.NewParquetWriter(fw, new(T), 4)
	if err != nil {
		fw.Close()
		return err
	}
	pw.RowGroupSize = parquetRowGroupSize
	pw.CompressionType = codec

	for _, r := range rows {
		if err := pw.Write(r); err != nil {
			fw.Close()
			return err
		}
	}
	if err := pw.WriteStop(); err != nil {
		fw.Close()
		return err
	}
	return fw.Close()
}
