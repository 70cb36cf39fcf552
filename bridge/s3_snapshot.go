package bridge

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/kadedb/kadedb"
	"github.com/kadedb/kadedb/internal/relational"
)

// snapshotMagic/snapshotVersion guard the blob EncodeSnapshot writes,
// the same header discipline as the root package's own binary codec.
const (
	snapshotMagic   uint32 = 0x4B444253 // "KDBS"
	snapshotVersion byte   = 1
)

// S3Uploader is the subset of *s3.Client (via the manager package)
// EncodeSnapshot's callers need, satisfied by *manager.Uploader and
// *manager.Downloader respectively.
type S3Uploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

type S3Downloader interface {
	Download(ctx context.Context, w io.WriterAt, input *s3.GetObjectInput, opts ...func(*manager.Downloader)) (int64, error)
}

// EncodeSnapshot serializes table's schema and every current row into
// a single binary blob: a magic/version header, the table schema (via
// the root package's EncodeTableSchema), a row count, then each row
// (via EncodeRow).
func EncodeSnapshot(src *relational.Engine, table string) ([]byte, error) {
	schema, err := src.TableSchema(table)
	if err != nil {
		return nil, err
	}
	rows, err := src.Select(table, nil, nil)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.LittleEndian, snapshotMagic); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.LittleEndian, snapshotVersion); err != nil {
		return nil, err
	}
	if err := kadedb.EncodeTableSchema(&buf, schema); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.LittleEndian, uint32(len(rows))); err != nil {
		return nil, err
	}
	for _, r := range rows {
		if err := kadedb.EncodeRow(&buf, r); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

// DecodeSnapshot reverses EncodeSnapshot, returning the table's schema
// and rows without inserting them anywhere.
func DecodeSnapshot(data []byte) (*kadedb.TableSchema, []*kadedb.Row, error) {
	r := bytes.NewReader(data)
	var magic uint32
	if err := binary.Read(r, binary.LittleEndian, &magic); err != nil {
		return nil, nil, err
	}
	if magic != snapshotMagic {
		return nil, nil, fmt.Errorf("decode snapshot: bad magic 0x%x", magic)
	}
	var version byte
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return nil, nil, err
	}
	if version != snapshotVersion {
		return nil, nil, fmt.Errorf("decode snapshot: unsupported version %d", version)
	}
	schema, err := kadedb.DecodeTableSchema(r)
	if err != nil {
		return nil, nil, err
	}
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return nil, nil, err
	}
	rows := make([]*kadedb.Row, n)
	for i := range rows {
		row, err := kadedb.DecodeRow(r)
		if err != nil {
			return nil, nil, err
		}
		rows[i] = row
	}
	return schema, rows, nil
}

// SnapshotToS3 encodes table's current contents and uploads it to
// bucket/key.
func (b *Bridge) SnapshotToS3(ctx context.Context, up S3Uploader, src *relational.Engine, table, bucket, key string) error {
	data, err := EncodeSnapshot(src, table)
	if err != nil {
		return err
	}
	err = guard(b.s3Breaker, func() error {
		_, err := up.Upload(ctx, &s3.PutObjectInput{
			Bucket: &bucket,
			Key:    &key,
			Body:   bytes.NewReader(data),
		})
		if err != nil {
			return kadedb.NewEngineError(kadedb.Internal, "upload snapshot to s3://%s/%s: %v", bucket, key, err)
		}
		return nil
	})
	if err != nil {
		return wrapCircuitOpen(err)
	}
	b.log.Infow("snapshot uploaded", "bucket", bucket, "key", key, "bytes", len(data))
	return nil
}

// RestoreFromS3 downloads bucket/key and decodes it into a schema and
// row set, creating destTable in dest and inserting every row.
func (b *Bridge) RestoreFromS3(ctx context.Context, down S3Downloader, bucket, key string, dest *relational.Engine, destTable string) (int, error) {
	buf := manager.NewWriteAtBuffer([]byte{})
	err := guard(b.s3Breaker, func() error {
		if _, err := down.Download(ctx, buf, &s3.GetObjectInput{Bucket: &bucket, Key: &key}); err != nil {
			return kadedb.NewEngineError(kadedb.Internal, "download snapshot from s3://%s/%s: %v", bucket, key, err)
		}
		return nil
	})
	if err != nil {
		return 0, wrapCircuitOpen(err)
	}

	schema, rows, err := DecodeSnapshot(buf.Bytes())
	if err != nil {
		return 0, kadedb.NewEngineError(kadedb.Internal, "decode snapshot s3://%s/%s: %v", bucket, key, err)
	}
	if err := dest.CreateTable(destTable, schema); err != nil {
		return 0, err
	}
	for _, row := range rows {
		if err := dest.InsertRow(destTable, row); err != nil {
			return 0, err
		}
	}
	b.log.Infow("snapshot restored", "bucket", bucket, "key", key, "rows", len(rows))
	return len(rows), nil
}
