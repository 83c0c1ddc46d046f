// Package export writes mapping snapshots to S3 so consumers without database access can read
// which label a contract traded under on each day.
package export

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/nholding/tenor/internal/contract"
	"github.com/nholding/tenor/internal/mapping"
	"github.com/nholding/tenor/internal/period/domain"
	clients "github.com/nholding/tenor/internal/repository"
)

// ObjectPutter is the subset of *s3.Client used by the exporter.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Entry is one mapping of a snapshot.
type Entry struct {
	Label             string `json:"label"`
	Offset            int    `json:"offset"`
	ReferencePeriodID string `json:"reference_period_id"`
	Start             string `json:"start"`
	End               string `json:"end"`
}

// Snapshot is the exported document for one contract and date range.
type Snapshot struct {
	Contract    contract.ContractSpec   `json:"contract"`
	Window      domain.TransitionWindow `json:"window"`
	From        string                  `json:"from"`
	To          string                  `json:"to"`
	Mappings    []Entry                 `json:"mappings"`
	GeneratedAt time.Time               `json:"generated_at"`
}

// NewSnapshot builds the snapshot of mappings computed for c over [from, to].
func NewSnapshot(c contract.ContractSpec, window domain.TransitionWindow, from, to time.Time, mappings []mapping.RelativePeriodMapping, now time.Time) Snapshot {
	entries := make([]Entry, len(mappings))
	for i, m := range mappings {
		entries[i] = Entry{
			Label:             m.Label.String(),
			Offset:            m.Offset,
			ReferencePeriodID: m.ReferencePeriod.ID(),
			Start:             m.Start.Format(time.DateOnly),
			End:               m.End.Format(time.DateOnly),
		}
	}
	return Snapshot{
		Contract:    c,
		Window:      window,
		From:        from.Format(time.DateOnly),
		To:          to.Format(time.DateOnly),
		Mappings:    entries,
		GeneratedAt: now.UTC(),
	}
}

// Key returns the object key: <prefix>/<code>/<from>_<to>.json.
func (s Snapshot) Key(prefix string) string {
	return path.Join(prefix, s.Contract.Code, s.From+"_"+s.To+".json")
}

type Exporter struct {
	client ObjectPutter
	bucket string
	prefix string
}

func NewExporter(client ObjectPutter, bucket, prefix string) *Exporter {
	return &Exporter{client: client, bucket: bucket, prefix: prefix}
}

// NewS3Exporter wraps the configured S3 client.
func NewS3Exporter(c *clients.S3Client, prefix string) *Exporter {
	return NewExporter(c.Client, c.BucketName, prefix)
}

// Export uploads the snapshot as JSON and returns its object key. Existing objects are overwritten.
func (e *Exporter) Export(ctx context.Context, s Snapshot) (string, error) {
	body, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal snapshot of %s: %w", s.Contract.Code, err)
	}

	key := s.Key(e.prefix)
	_, err = e.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(e.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload s3://%s/%s: %w", e.bucket, key, err)
	}
	return key, nil
}
