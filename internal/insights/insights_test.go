package insights

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sweetlive/backend/internal/domain"
)

type stubGenerator struct {
	text  string
	err   error
	delay time.Duration
	calls int
}

func (g *stubGenerator) Generate(ctx context.Context, _ string) (string, error) {
	g.calls++
	if g.delay > 0 {
		select {
		case <-time.After(g.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return g.text, g.err
}

type mapCache struct {
	mu   sync.Mutex
	data map[string]domain.InsightResponse
}

func (c *mapCache) Get(_ context.Context, key string) (*domain.InsightResponse, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	if !ok {
		return nil, false, nil
	}
	return &v, true, nil
}

func (c *mapCache) Set(_ context.Context, key string, value *domain.InsightResponse, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = *value
	return nil
}

func sampleData() ([]domain.Product, []domain.Sale, []domain.Expense) {
	products := []domain.Product{{ID: "p1", Name: "Bun", Price: decimal.NewFromInt(10), Stock: decimal.NewFromInt(3), Unit: "pcs"}}
	sales := []domain.Sale{{ID: "s1", ProductID: "p1", TotalPrice: decimal.NewFromInt(120), AmountPaid: decimal.NewFromInt(120)}}
	expenses := []domain.Expense{{ID: "e1", Description: "Flour", Amount: decimal.NewFromInt(45), Category: domain.CategoryRawMaterial}}
	return products, sales, expenses
}

func TestInsightsReturnsGeneratedTextAndCaches(t *testing.T) {
	gen := &stubGenerator{text: "  Sell more buns.  "}
	c := &mapCache{data: map[string]domain.InsightResponse{}}
	var results []string
	advisor := NewAdvisor(gen, c, Options{OnResult: func(r string) { results = append(results, r) }})
	products, sales, expenses := sampleData()

	first := advisor.Insights(context.Background(), "shop", products, sales, expenses)
	second := advisor.Insights(context.Background(), "shop", products, sales, expenses)

	assert.Equal(t, "Sell more buns.", first.Text)
	assert.False(t, first.Cached)
	assert.True(t, second.Cached)
	assert.Equal(t, 1, gen.calls)
	assert.Equal(t, []string{"generated", "cached"}, results)
}

func TestInsightsFallsBackOnError(t *testing.T) {
	advisor := NewAdvisor(&stubGenerator{err: errors.New("quota exceeded")}, nil, Options{})
	products, sales, expenses := sampleData()

	resp := advisor.Insights(context.Background(), "shop", products, sales, expenses)
	assert.Equal(t, FallbackText, resp.Text)
}

func TestInsightsFallsBackOnTimeout(t *testing.T) {
	advisor := NewAdvisor(&stubGenerator{text: "late", delay: time.Second}, nil, Options{Timeout: 20 * time.Millisecond})
	products, sales, expenses := sampleData()

	start := time.Now()
	resp := advisor.Insights(context.Background(), "shop", products, sales, expenses)
	assert.Equal(t, FallbackText, resp.Text)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestInsightsFallsBackWithoutGeneratorOrText(t *testing.T) {
	products, sales, expenses := sampleData()
	assert.Equal(t, FallbackText, NewAdvisor(nil, nil, Options{}).Insights(context.Background(), "shop", products, sales, expenses).Text)
	assert.Equal(t, FallbackText, NewAdvisor(&stubGenerator{text: "   "}, nil, Options{}).Insights(context.Background(), "shop", products, sales, expenses).Text)
}

func TestBuildPromptSummarisesTotals(t *testing.T) {
	products, sales, expenses := sampleData()
	prompt, err := BuildPrompt("Sweet Live Bakery", products, sales, expenses)
	require.NoError(t, err)

	assert.Contains(t, prompt, `"Sweet Live Bakery"`)
	assert.Contains(t, prompt, "Total Products: 1")
	assert.Contains(t, prompt, "Total Sales Revenue: ৳120")
	assert.Contains(t, prompt, "Net Profit/Loss: ৳75")
	assert.Contains(t, prompt, "Bengali")
}

func TestBuildPromptKeepsLastTenSales(t *testing.T) {
	sales := make([]domain.Sale, 0, 15)
	for i := 0; i < 15; i++ {
		sales = append(sales, domain.Sale{ID: "sale-" + string(rune('a'+i)), TotalPrice: decimal.NewFromInt(1)})
	}
	prompt, err := BuildPrompt("x", nil, sales, nil)
	require.NoError(t, err)

	assert.False(t, strings.Contains(prompt, `"sale-e"`))
	assert.True(t, strings.Contains(prompt, `"sale-f"`))
	assert.Contains(t, prompt, "Total Sales Revenue: ৳15")
}
