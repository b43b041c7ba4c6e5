package ollama

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/kirillkom/safety-qa/internal/infrastructure/resilience"
)

type Client struct {
	baseURL    string
	embedModel string
	httpClient *http.Client
	limiter    *rate.Limiter
	executor   *resilience.Executor
}

type Options struct {
	RequestTimeout time.Duration

	// RateLimit caps embedding requests per second against the local model
	// server; zero disables the limiter.
	RateLimit float64
	RateBurst int

	Executor *resilience.Executor
}

func New(baseURL, embedModel string, options Options) *Client {
	timeout := options.RequestTimeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}

	var limiter *rate.Limiter
	if options.RateLimit > 0 {
		burst := options.RateBurst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(options.RateLimit), burst)
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		embedModel: embedModel,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    limiter,
		executor:   options.Executor,
	}
}

// Embedder adapts the client to the embedding port. Chunk batches and query
// text go through the same model so cosine scores stay comparable.
type Embedder struct {
	client *Client
}

func NewEmbedder(client *Client) *Embedder {
	return &Embedder{client: client}
}

func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	request := map[string]any{
		"model": e.client.embedModel,
		"input": texts,
	}

	var response struct {
		Embeddings [][]float32 `json:"embeddings"`
	}
	if err := e.client.call(ctx, "embed", request, &response); err != nil {
		return nil, err
	}
	if len(response.Embeddings) != len(texts) {
		return nil, fmt.Errorf("embed: got %d vectors for %d inputs", len(response.Embeddings), len(texts))
	}
	return response.Embeddings, nil
}

func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("empty embedding result")
	}
	return vectors[0], nil
}

func (c *Client) call(ctx context.Context, operation string, payload, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limit %s: %w", operation, err)
		}
	}

	do := func(ctx context.Context) error {
		return c.postJSON(ctx, "/api/embed", payload, out, operation)
	}

	var err error
	if c.executor != nil {
		err = c.executor.Execute(ctx, "ollama."+operation, do, classifyOllamaError)
	} else {
		err = do(ctx)
	}
	return wrapTemporaryIfNeeded(operation, err)
}
