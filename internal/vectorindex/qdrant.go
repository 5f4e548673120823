package vectorindex

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/qdrant/go-client/qdrant"

	"github.com/bull/knowledge-pad/internal/domain"
)

// upsertBatchSize bounds the number of points per Qdrant upsert request.
const upsertBatchSize = 100

// QdrantOptions configures the Qdrant-backed index.
type QdrantOptions struct {
	Host       string
	Port       int
	APIKey     string
	UseTLS     bool
	Collection string
	Dimension  int
	Metric     Metric
	Rebuild    bool // recreate the collection if its vector config differs
}

// Qdrant is an Index backed by a Qdrant collection over gRPC. Qdrant orders
// equal scores by its own internal rules, so ties are not guaranteed to follow
// insertion order.
type Qdrant struct {
	client     *qdrant.Client
	collection string
	dimension  int
	metric     Metric
}

// OpenQdrant connects to Qdrant, waits for it to become healthy and ensures
// the collection exists with the configured dimension and distance.
func OpenQdrant(ctx context.Context, opts QdrantOptions) (*Qdrant, error) {
	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   opts.Host,
		Port:   opts.Port,
		APIKey: opts.APIKey,
		UseTLS: opts.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: create qdrant client: %v", domain.ErrStorage, err)
	}

	q := &Qdrant{
		client:     client,
		collection: opts.Collection,
		dimension:  opts.Dimension,
		metric:     opts.Metric,
	}

	if err := q.healthCheckWithRetry(ctx); err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: qdrant unreachable at %s:%d: %v", domain.ErrStorage, opts.Host, opts.Port, err)
	}

	if err := q.ensureCollection(ctx, opts.Rebuild); err != nil {
		client.Close()
		return nil, err
	}
	return q, nil
}

func newBackoff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 10 * time.Second
	b.MaxElapsedTime = 30 * time.Second
	return backoff.WithContext(b, ctx)
}

// healthCheckWithRetry performs health check with exponential backoff.
// Initial interval 500ms, max interval 10s, max elapsed 30s.
func (q *Qdrant) healthCheckWithRetry(ctx context.Context) error {
	return backoff.Retry(func() error { return q.Health(ctx) }, newBackoff(ctx))
}

// Health performs a single health check against Qdrant.
func (q *Qdrant) Health(ctx context.Context) error {
	result, err := q.client.HealthCheck(ctx)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	if result == nil || result.Title == "" {
		return fmt.Errorf("health check returned invalid response")
	}
	return nil
}

func (q *Qdrant) distance() qdrant.Distance {
	if q.metric == L2 {
		return qdrant.Distance_Euclid
	}
	return qdrant.Distance_Cosine
}

// ensureCollection creates the collection and its payload indexes if missing.
// An existing collection must match the configured size and distance.
func (q *Qdrant) ensureCollection(ctx context.Context, rebuild bool) error {
	exists, err := q.client.CollectionExists(ctx, q.collection)
	if err != nil {
		return fmt.Errorf("%w: check collection: %v", domain.ErrStorage, err)
	}

	if exists {
		info, err := q.client.GetCollectionInfo(ctx, q.collection)
		if err != nil {
			return fmt.Errorf("%w: get collection: %v", domain.ErrStorage, err)
		}
		params := info.GetConfig().GetParams().GetVectorsConfig().GetParams()
		if params.GetSize() == uint64(q.dimension) && params.GetDistance() == q.distance() {
			return nil
		}
		if !rebuild {
			return fmt.Errorf("%w: collection %s has %d dimensions (%s), configured %d (%s); run `kpad reindex`",
				domain.ErrDimensionMismatch, q.collection, params.GetSize(), params.GetDistance(), q.dimension, q.distance())
		}
		if err := q.client.DeleteCollection(ctx, q.collection); err != nil {
			return fmt.Errorf("%w: drop collection: %v", domain.ErrStorage, err)
		}
	}

	err = q.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: q.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(q.dimension),
			Distance: q.distance(),
		}),
	})
	if err != nil {
		return fmt.Errorf("%w: create collection: %v", domain.ErrStorage, err)
	}

	return q.createPayloadIndexes(ctx)
}

// createPayloadIndexes creates keyword indexes for the filterable fields.
func (q *Qdrant) createPayloadIndexes(ctx context.Context) error {
	for _, field := range []string{"document_id", "filename"} {
		_, err := q.client.CreateFieldIndex(ctx, &qdrant.CreateFieldIndexCollection{
			CollectionName: q.collection,
			FieldName:      field,
			FieldType:      qdrant.FieldType_FieldTypeKeyword.Enum(),
		})
		if err != nil {
			return fmt.Errorf("%w: create index for field %s: %v", domain.ErrStorage, field, err)
		}
	}
	return nil
}

// upsertWithRetry performs upsert operation with exponential backoff retry.
func (q *Qdrant) upsertWithRetry(ctx context.Context, points []*qdrant.PointStruct) error {
	operation := func() error {
		_, err := q.client.Upsert(ctx, &qdrant.UpsertPoints{
			CollectionName: q.collection,
			Wait:           qdrant.PtrOf(true),
			Points:         points,
		})
		return err
	}
	return backoff.Retry(operation, newBackoff(ctx))
}

func (q *Qdrant) Insert(ctx context.Context, records []Record) error {
	if err := checkRecords(q.dimension, records); err != nil {
		return err
	}

	for i := 0; i < len(records); i += upsertBatchSize {
		end := min(i+upsertBatchSize, len(records))

		batch := records[i:end]
		points := make([]*qdrant.PointStruct, len(batch))
		for j, r := range batch {
			points[j] = &qdrant.PointStruct{
				Id:      qdrant.NewIDUUID(r.ID),
				Vectors: qdrant.NewVectors(r.Vector...),
				Payload: qdrant.NewValueMap(payloadFor(r.Metadata)),
			}
		}

		if err := q.upsertWithRetry(ctx, points); err != nil {
			return fmt.Errorf("%w: upsert batch %d-%d: %v", domain.ErrStorage, i, end, err)
		}
	}
	return nil
}

func (q *Qdrant) Delete(ctx context.Context, filter Filter) error {
	if err := requireFilter(filter); err != nil {
		return err
	}

	_, err := q.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: q.collection,
		Wait:           qdrant.PtrOf(true),
		Points:         qdrant.NewPointsSelectorFilter(qdrantFilter(filter)),
	})
	if err != nil {
		return fmt.Errorf("%w: delete points: %v", domain.ErrStorage, err)
	}
	return nil
}

func (q *Qdrant) Search(ctx context.Context, query []float32, topK int, filter Filter) ([]Hit, error) {
	if err := checkDimension(q.dimension, query, "query"); err != nil {
		return nil, err
	}
	if topK <= 0 {
		return []Hit{}, nil
	}

	results, err := q.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: q.collection,
		Query:          qdrant.NewQuery(query...),
		Filter:         qdrantFilter(filter),
		Limit:          qdrant.PtrOf(uint64(topK)),
		WithPayload:    qdrant.NewWithPayload(true),
		WithVectors:    qdrant.NewWithVectors(false),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: search: %v", domain.ErrStorage, err)
	}

	hits := make([]Hit, 0, len(results))
	for _, result := range results {
		score := float64(result.Score)
		if q.metric == L2 {
			// Euclid scores are distances
			score = FromDistance(score)
		}
		hits = append(hits, Hit{
			ID:       result.Id.GetUuid(),
			Metadata: metadataFrom(result.Payload),
			Score:    score,
		})
	}
	return hits, nil
}

func (q *Qdrant) Count(ctx context.Context) (int, error) {
	n, err := q.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: q.collection,
		Exact:          qdrant.PtrOf(true),
	})
	if err != nil {
		return 0, fmt.Errorf("%w: count: %v", domain.ErrStorage, err)
	}
	return int(n), nil
}

// Reset deletes the collection and recreates it with the configured
// dimension and distance.
func (q *Qdrant) Reset(ctx context.Context) error {
	if err := q.client.DeleteCollection(ctx, q.collection); err != nil {
		return fmt.Errorf("%w: drop collection: %v", domain.ErrStorage, err)
	}
	return q.ensureCollection(ctx, false)
}

func (q *Qdrant) Dimension() int { return q.dimension }
func (q *Qdrant) Metric() Metric { return q.metric }

// Close closes the Qdrant client connection.
func (q *Qdrant) Close() error {
	if q.client != nil {
		return q.client.Close()
	}
	return nil
}

func qdrantFilter(f Filter) *qdrant.Filter {
	var must []*qdrant.Condition
	if f.DocumentID != "" {
		must = append(must, qdrant.NewMatch("document_id", f.DocumentID))
	}
	if f.Filename != "" {
		must = append(must, qdrant.NewMatch("filename", f.Filename))
	}
	if len(must) == 0 {
		return nil
	}
	return &qdrant.Filter{Must: must}
}

func payloadFor(m domain.ChunkMetadata) map[string]any {
	return map[string]any{
		"document_id": m.DocumentID,
		"filename":    m.Filename,
		"page":        m.Page,
		"chunk_index": m.ChunkIndex,
		"start":       m.Start,
		"end":         m.End,
		"snippet":     m.Snippet,
	}
}

func metadataFrom(payload map[string]*qdrant.Value) domain.ChunkMetadata {
	return domain.ChunkMetadata{
		DocumentID: payload["document_id"].GetStringValue(),
		Filename:   payload["filename"].GetStringValue(),
		Page:       int(payload["page"].GetIntegerValue()),
		ChunkIndex: int(payload["chunk_index"].GetIntegerValue()),
		Start:      int(payload["start"].GetIntegerValue()),
		End:        int(payload["end"].GetIntegerValue()),
		Snippet:    payload["snippet"].GetStringValue(),
	}
}
