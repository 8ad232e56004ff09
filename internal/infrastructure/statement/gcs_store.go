// Package statement renders payout statements and stores them in Cloud Storage.
package statement

import (
	"bytes"
	"context"
	"encoding/csv"
	"io"
	"path"
	"strconv"
	"time"

	"cloud.google.com/go/storage"

	"github.com/oksasatya/invest-payout-engine/internal/domain/entity"
	"github.com/oksasatya/invest-payout-engine/pkg/helpers"
)

var header = []string{"investment_id", "owner_name", "owner_email", "principal", "month", "year", "rate", "amount", "cumulative", "processed_at"}

// Render writes one CSV row per payout, with a running total, dates in loc.
func Render(w io.Writer, inv *entity.Investment, owner *entity.OwnerInfo, loc *time.Location) error {
	if loc == nil {
		loc = time.UTC
	}
	var name, email string
	if owner != nil {
		name, email = owner.Name, owner.Email
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	var cumulative int64
	for _, p := range inv.Payouts {
		cumulative += p.Amount
		row := []string{
			inv.ID,
			name,
			email,
			strconv.FormatInt(inv.Amount, 10),
			strconv.Itoa(p.Month),
			strconv.Itoa(p.Year),
			p.Rate,
			strconv.FormatInt(p.Amount, 10),
			strconv.FormatInt(cumulative, 10),
			p.ProcessedAt.In(loc).Format(time.RFC3339),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ObjectPath is the bucket path of the statement as of the given month count.
func ObjectPath(inv *entity.Investment) string {
	return path.Join("statements", inv.OwnerID, inv.ID, "month-"+strconv.Itoa(inv.MonthsCompleted)+".csv")
}

type uploadFunc func(ctx context.Context, objectPath, contentType string, r io.Reader) (string, error)

// GCSStore uploads statements to a bucket and returns their public URL.
type GCSStore struct {
	upload uploadFunc
	loc    *time.Location
}

func NewGCSStore(client *storage.Client, bucket string, loc *time.Location) *GCSStore {
	return &GCSStore{
		upload: func(ctx context.Context, objectPath, contentType string, r io.Reader) (string, error) {
			return helpers.UploadObject(ctx, client, bucket, objectPath, contentType, r)
		},
		loc: loc,
	}
}

func (s *GCSStore) PutStatement(ctx context.Context, inv *entity.Investment, owner *entity.OwnerInfo) (string, error) {
	var buf bytes.Buffer
	if err := Render(&buf, inv, owner, s.loc); err != nil {
		return "", err
	}
	c, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	return s.upload(c, ObjectPath(inv), "text/csv", &buf)
}
