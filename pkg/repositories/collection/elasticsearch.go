package collection

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/fadedpez/vaultspin/pkg/entities"
)

// ElasticsearchConfig holds configuration options for the open-history
// archive
type ElasticsearchConfig struct {
	URL             string
	Username        string
	Password        string
	IndexPrefix     string
	RetentionPeriod time.Duration // how long archived opens are kept
}

// DefaultElasticsearchConfig returns a default archive configuration
func DefaultElasticsearchConfig() *ElasticsearchConfig {
	return &ElasticsearchConfig{
		URL:             "http://localhost:9200",
		IndexPrefix:     "vaultspin",
		RetentionPeriod: 90 * 24 * time.Hour,
	}
}

// ElasticsearchRepository decorates a base repository with an open-history
// archive. Every saved card is mirrored into a monthly-rotated index for
// analytics; archive failures are logged and never block settlement.
type ElasticsearchRepository struct {
	baseRepo Repository
	client   *elasticsearch.Client
	config   *ElasticsearchConfig
}

// NewElasticsearchRepository creates an archive decorator around baseRepo
func NewElasticsearchRepository(baseRepo Repository, config *ElasticsearchConfig) (*ElasticsearchRepository, error) {
	if config == nil {
		config = DefaultElasticsearchConfig()
	}
	if config.IndexPrefix == "" {
		config.IndexPrefix = "vaultspin"
	}
	if config.RetentionPeriod == 0 {
		config.RetentionPeriod = 90 * 24 * time.Hour
	}

	cfg := elasticsearch.Config{
		Addresses: []string{config.URL},
	}
	if config.Username != "" && config.Password != "" {
		cfg.Username = config.Username
		cfg.Password = config.Password
	}

	client, err := elasticsearch.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("error creating Elasticsearch client: %w", err)
	}

	return &ElasticsearchRepository{
		baseRepo: baseRepo,
		client:   client,
		config:   config,
	}, nil
}

// openDocument is the indexed shape of an ownership record
type openDocument struct {
	RecordID string    `json:"record_id"`
	UserID   string    `json:"user_id"`
	TokenID  int64     `json:"token_id"`
	PackKey  string    `json:"pack_key"`
	CardID   string    `json:"card_id"`
	CardName string    `json:"card_name"`
	Rarity   string    `json:"rarity"`
	Value    int64     `json:"value"`
	OpenedAt time.Time `json:"opened_at"`
}

// indexFor returns the monthly index an open belongs in
func (r *ElasticsearchRepository) indexFor(t time.Time) string {
	return fmt.Sprintf("%s-opens-%s", r.config.IndexPrefix, t.UTC().Format("2006.01"))
}

// NextToken delegates to the base repository
func (r *ElasticsearchRepository) NextToken(ctx context.Context, userID string) (int64, error) {
	return r.baseRepo.NextToken(ctx, userID)
}

// SaveOwnedCard saves through the base repository, then mirrors the record
// into the archive
func (r *ElasticsearchRepository) SaveOwnedCard(ctx context.Context, card *entities.OwnedCard) (string, error) {
	id, err := r.baseRepo.SaveOwnedCard(ctx, card)
	if err != nil {
		return "", err
	}

	openedAt := card.OpenedAt
	if openedAt.IsZero() {
		openedAt = time.Now()
	}

	doc := openDocument{
		RecordID: id,
		UserID:   card.UserID,
		TokenID:  card.TokenID,
		PackKey:  card.PackKey,
		CardID:   card.CardID,
		CardName: card.CardName,
		Rarity:   string(card.Rarity),
		Value:    card.Value,
		OpenedAt: openedAt,
	}

	body, err := json.Marshal(doc)
	if err != nil {
		log.Printf("[ES_ARCHIVE] Error encoding open document: %v", err)
		return id, nil
	}

	req := esapi.IndexRequest{
		Index:      r.indexFor(openedAt),
		DocumentID: id,
		Body:       bytes.NewReader(body),
	}

	res, err := req.Do(ctx, r.client)
	if err != nil {
		log.Printf("[ES_ARCHIVE] Error indexing open %s: %v", id, err)
		return id, nil
	}
	defer res.Body.Close()

	if res.IsError() {
		snippet, _ := io.ReadAll(io.LimitReader(res.Body, 256))
		log.Printf("[ES_ARCHIVE] Index request for open %s returned %s: %s", id, res.Status(), string(snippet))
	}

	return id, nil
}

// ListOwned delegates to the base repository
func (r *ElasticsearchRepository) ListOwned(ctx context.Context, userID string, limit int) ([]*entities.OwnedCard, error) {
	return r.baseRepo.ListOwned(ctx, userID, limit)
}

// SearchRecentOpens queries the archive for a user's most recent opens
func (r *ElasticsearchRepository) SearchRecentOpens(ctx context.Context, userID string, limit int) ([]*entities.OwnedCard, error) {
	if limit <= 0 {
		limit = 20
	}

	query := map[string]interface{}{
		"size": limit,
		"query": map[string]interface{}{
			"term": map[string]interface{}{
				"user_id": userID,
			},
		},
		"sort": []map[string]interface{}{
			{"opened_at": map[string]interface{}{"order": "desc"}},
		},
	}

	body, err := json.Marshal(query)
	if err != nil {
		return nil, fmt.Errorf("error encoding search query: %w", err)
	}

	res, err := r.client.Search(
		r.client.Search.WithContext(ctx),
		r.client.Search.WithIndex(fmt.Sprintf("%s-opens-*", r.config.IndexPrefix)),
		r.client.Search.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		return nil, fmt.Errorf("error searching open history: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("open history search returned %s", res.Status())
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				Source openDocument `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("error decoding open history response: %w", err)
	}

	records := make([]*entities.OwnedCard, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		doc := hit.Source
		records = append(records, &entities.OwnedCard{
			ID:       doc.RecordID,
			UserID:   doc.UserID,
			TokenID:  doc.TokenID,
			PackKey:  doc.PackKey,
			CardID:   doc.CardID,
			CardName: doc.CardName,
			Rarity:   entities.Rarity(doc.Rarity),
			Value:    doc.Value,
			OpenedAt: doc.OpenedAt,
		})
	}

	return records, nil
}

// PruneExpiredIndices deletes monthly indices older than the retention
// period. Intended to run on a scheduler.
func (r *ElasticsearchRepository) PruneExpiredIndices(ctx context.Context) error {
	cutoff := time.Now().Add(-r.config.RetentionPeriod)

	// walk back far enough to cover any stragglers beyond retention
	var expired []string
	for i := 0; i < 12; i++ {
		month := cutoff.AddDate(0, -i, 0)
		expired = append(expired, r.indexFor(month))
	}

	res, err := r.client.Indices.Delete(
		expired,
		r.client.Indices.Delete.WithContext(ctx),
		r.client.Indices.Delete.WithIgnoreUnavailable(true),
	)
	if err != nil {
		return fmt.Errorf("error deleting expired indices: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("expired index deletion returned %s", res.Status())
	}

	log.Printf("[ES_ARCHIVE] Pruned indices older than %s", cutoff.Format("2006-01-02"))
	return nil
}

// Close closes the base repository
func (r *ElasticsearchRepository) Close() error {
	return r.baseRepo.Close()
}
