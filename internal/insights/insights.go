// Package insights asks a language model for plain-language business advice
// about a workspace. Callers always get text back: any failure is replaced
// by FallbackText.
package insights

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"sweetlive/backend/internal/cache"
	"sweetlive/backend/internal/domain"
)

const FallbackText = "Could not generate insights at this time. Please check your data or try again later."

// recentWindow is how many of the latest sales and expenses go into the
// prompt verbatim.
const recentWindow = 10

// Generator turns a prompt into text.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type Options struct {
	BusinessName string
	Timeout      time.Duration
	CacheTTL     time.Duration
	Logger       *zap.Logger
	// OnResult observes each outcome: generated, cached or fallback.
	OnResult func(result string)
}

type Advisor struct {
	generator    Generator
	cache        cache.InsightCache
	businessName string
	timeout      time.Duration
	cacheTTL     time.Duration
	logger       *zap.Logger
	onResult     func(string)
	now          func() time.Time
}

func NewAdvisor(generator Generator, insightCache cache.InsightCache, opts Options) *Advisor {
	if insightCache == nil {
		insightCache = cache.NoopInsightCache{}
	}
	if opts.BusinessName == "" {
		opts.BusinessName = "Sweet Live Bakery"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 15 * time.Minute
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Advisor{
		generator:    generator,
		cache:        insightCache,
		businessName: opts.BusinessName,
		timeout:      opts.Timeout,
		cacheTTL:     opts.CacheTTL,
		logger:       opts.Logger,
		onResult:     opts.OnResult,
		now:          time.Now,
	}
}

// Insights never returns an error. A missing generator, a failed or slow
// call, or an empty answer all resolve to FallbackText.
func (a *Advisor) Insights(ctx context.Context, workspace string, products []domain.Product, sales []domain.Sale, expenses []domain.Expense) domain.InsightResponse {
	prompt, err := BuildPrompt(a.businessName, products, sales, expenses)
	if err != nil {
		a.logger.Warn("insight prompt failed", zap.String("workspace", workspace), zap.Error(err))
		return a.fallback()
	}
	key := fingerprint(workspace, prompt)

	if cached, ok, err := a.cache.Get(ctx, key); err != nil {
		a.logger.Warn("insight cache read failed", zap.Error(err))
	} else if ok && cached != nil {
		a.observe("cached")
		resp := *cached
		resp.Cached = true
		return resp
	}

	if a.generator == nil {
		return a.fallback()
	}

	callCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	text, err := a.generator.Generate(callCtx, prompt)
	if err != nil {
		fields := []zap.Field{zap.String("workspace", workspace), zap.Error(err)}
		if errors.Is(err, context.DeadlineExceeded) {
			fields = append(fields, zap.Duration("timeout", a.timeout))
		}
		a.logger.Warn("insight generation failed", fields...)
		return a.fallback()
	}
	text = strings.TrimSpace(text)
	if text == "" {
		a.logger.Warn("insight generation returned no text", zap.String("workspace", workspace))
		return a.fallback()
	}

	resp := domain.InsightResponse{Text: text, GeneratedAt: a.now().UTC()}
	if err := a.cache.Set(ctx, key, &resp, a.cacheTTL); err != nil {
		a.logger.Warn("insight cache write failed", zap.Error(err))
	}
	a.observe("generated")
	return resp
}

func (a *Advisor) fallback() domain.InsightResponse {
	a.observe("fallback")
	return domain.InsightResponse{Text: FallbackText, GeneratedAt: a.now().UTC()}
}

func (a *Advisor) observe(result string) {
	if a.onResult != nil {
		a.onResult(result)
	}
}

// BuildPrompt renders the consultant prompt: headline totals, the product
// list and the latest sales and expenses as JSON.
func BuildPrompt(businessName string, products []domain.Product, sales []domain.Sale, expenses []domain.Expense) (string, error) {
	totalSales := decimal.Zero
	for _, s := range sales {
		totalSales = totalSales.Add(s.TotalPrice)
	}
	totalExpenses := decimal.Zero
	for _, e := range expenses {
		totalExpenses = totalExpenses.Add(e.Amount)
	}

	productJSON, err := json.Marshal(products)
	if err != nil {
		return "", err
	}
	salesJSON, err := json.Marshal(tail(sales, recentWindow))
	if err != nil {
		return "", err
	}
	expenseJSON, err := json.Marshal(tail(expenses, recentWindow))
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "As a professional bakery business consultant, analyze the following data for my bakery called %q.\n\n", businessName)
	b.WriteString("Data Summary:\n")
	fmt.Fprintf(&b, "- Total Products: %d\n", len(products))
	fmt.Fprintf(&b, "- Total Sales Revenue: ৳%s\n", totalSales.String())
	fmt.Fprintf(&b, "- Total Expenses: ৳%s\n", totalExpenses.String())
	fmt.Fprintf(&b, "- Net Profit/Loss: ৳%s\n\n", totalSales.Sub(totalExpenses).String())
	fmt.Fprintf(&b, "Products: %s\n", productJSON)
	fmt.Fprintf(&b, "Recent Sales History: %s\n", salesJSON)
	fmt.Fprintf(&b, "Recent Expenses: %s\n\n", expenseJSON)
	b.WriteString("Please provide:\n")
	b.WriteString("1. A summary of current performance.\n")
	b.WriteString("2. Top 3 recommendations to increase profit.\n")
	b.WriteString("3. Warning if expenses are too high or stock is low.\n")
	b.WriteString("4. A prediction for the next month.\n\n")
	b.WriteString("Answer in a friendly tone. Use Bengali for the advice if possible, as the user is a Bengali speaker, but use English for technical terms.\n")
	return b.String(), nil
}

func tail[T any](items []T, n int) []T {
	if len(items) <= n {
		return items
	}
	return items[len(items)-n:]
}

func fingerprint(workspace, prompt string) string {
	sum := sha256.Sum256([]byte(workspace + "\x00" + prompt))
	return hex.EncodeToString(sum[:])
}
