// Package search keeps an Elasticsearch copy of investments for admin search.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/oksasatya/invest-payout-engine/internal/domain/entity"
)

const (
	defaultSize = 10
	maxSize     = 50
	timeout     = 3 * time.Second
)

// InvestmentIndex writes and queries investment documents.
type InvestmentIndex struct {
	es    *elasticsearch.Client
	index string
}

func NewInvestmentIndex(es *elasticsearch.Client, index string) *InvestmentIndex {
	return &InvestmentIndex{es: es, index: index}
}

// Document is the indexed shape of an investment. Payout history is left out.
func Document(inv *entity.Investment, owner *entity.OwnerInfo) map[string]any {
	doc := map[string]any{
		"id":                 inv.ID,
		"owner_id":           inv.OwnerID,
		"amount":             inv.Amount,
		"plan_type":          inv.PlanType,
		"status":             string(inv.Status),
		"months_completed":   inv.MonthsCompleted,
		"current_year":       inv.CurrentYear,
		"total_returns_paid": inv.TotalReturnsPaid,
		"start_date":         inv.StartDate.Format(time.RFC3339Nano),
		"end_date":           inv.EndDate.Format(time.RFC3339Nano),
		"updated_at":         inv.UpdatedAt.Format(time.RFC3339Nano),
	}
	if inv.NextPaymentDate != nil {
		doc["next_payment_date"] = inv.NextPaymentDate.Format(time.RFC3339Nano)
	}
	if owner != nil {
		doc["owner_name"] = owner.Name
		doc["owner_email"] = owner.Email
	}
	return doc
}

func (x *InvestmentIndex) IndexInvestment(ctx context.Context, inv *entity.Investment, owner *entity.OwnerInfo) error {
	b, err := json.Marshal(Document(inv, owner))
	if err != nil {
		return err
	}
	req := esapi.IndexRequest{Index: x.index, DocumentID: inv.ID, Body: bytes.NewReader(b), Refresh: "false"}
	c, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	res, err := req.Do(c, x.es)
	if err != nil {
		return err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		return fmt.Errorf("es index %s: %s", inv.ID, res.Status())
	}
	return nil
}

// Query builds a multi_match over owner and plan fields, with exact id and status matches.
func Query(q string, size int) map[string]any {
	if size <= 0 || size > maxSize {
		size = defaultSize
	}
	return map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":  q,
				"fields": []string{"id^3", "owner_email^2", "owner_name", "plan_type", "status"},
			},
		},
		"sort": []any{map[string]any{"updated_at": map[string]any{"order": "desc", "unmapped_type": "date"}}},
		"size": size,
	}
}

func (x *InvestmentIndex) SearchInvestments(ctx context.Context, q string, size int) ([]map[string]any, error) {
	b, err := json.Marshal(Query(strings.TrimSpace(q), size))
	if err != nil {
		return nil, err
	}
	c, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	res, err := x.es.Search(x.es.Search.WithContext(c), x.es.Search.WithIndex(x.index), x.es.Search.WithBody(bytes.NewReader(b)))
	if err != nil {
		return nil, err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		return nil, fmt.Errorf("es search: %s", res.Status())
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				ID     string         `json:"_id"`
				Source map[string]any `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, err
	}
	out := make([]map[string]any, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		out = append(out, h.Source)
	}
	return out, nil
}
