package export

import (
	parquetbuffer "github.com/xitongsys/parquet-go-source/buffer"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"

	agility "agility-analyzer"
)

type recordParquetRow struct {
	ID        int64   `parquet:"name=id, type=INT64"`
	SubjectID string  `parquet:"name=p_id, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Date      string  `parquet:"name=date, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Stage     int64   `parquet:"name=stage, type=INT64"`
	Time      float64 `parquet:"name=time, type=DOUBLE"`
	VelMean   float64 `parquet:"name=vel_mean, type=DOUBLE"`
	AccMean   float64 `parquet:"name=acc_mean, type=DOUBLE"`
}

// MarshalParquet encodes records as a SNAPPY-compressed parquet file in
// memory.
func MarshalParquet(records []agility.PerformanceRecord) ([]byte, error) {
	fw := parquetbuffer.NewBufferFile()
	pw, err := writer.NewParquetWriter(fw, new(recordParquetRow), 4)
	if err != nil {
		return nil, err
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY
	for _, r := range records {
		row := recordParquetRow{
			ID:        r.ID,
			SubjectID: r.SubjectID,
			Date:      r.Date,
			Stage:     int64(r.Stage),
			Time:      r.Time,
			VelMean:   r.VelMean,
			AccMean:   r.AccMean,
		}
		if err := pw.Write(row); err != nil {
			_ = pw.WriteStop()
			return nil, err
		}
	}
	if err := pw.WriteStop(); err != nil {
		return nil, err
	}
	if err := fw.Close(); err != nil {
		return nil, err
	}
	return append([]byte(nil), fw.Bytes()...), nil
}
