// Package reconciler keeps remote product tag lists in sync with the
// desired compatibility tag sets.
package reconciler

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/fitsync/fitsync/pkg/catalog"
	"github.com/fitsync/fitsync/pkg/observability"
	"github.com/fitsync/fitsync/pkg/tags"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Config holds reconciler settings.
type Config struct {
	// Concurrency bounds parallel per-product reconciliations
	Concurrency int `yaml:"concurrency" default:"4"`
	// MaxAttempts bounds retries of a rate-limited call
	MaxAttempts int `yaml:"maxAttempts" default:"3"`
	// BackoffBase is the first retry delay; doubled per attempt with jitter
	BackoffBase time.Duration `yaml:"backoffBase" default:"500ms"`
}

// SetDefaults fills unset fields
func (c *Config) SetDefaults() {
	if c.Concurrency <= 0 {
		c.Concurrency = 4
	}

	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}

	if c.BackoffBase <= 0 {
		c.BackoffBase = 500 * time.Millisecond
	}
}

// Want is the desired tag state for one product.
type Want struct {
	Tags  []string
	Make  string
	Model string
}

// Result is the per-product outcome of a reconciliation batch. A failed
// product never aborts the batch and nothing is rolled back.
type Result struct {
	ProductGID string   `json:"productId"`
	Tags       []string `json:"tags,omitempty"`
	Err        error    `json:"-"`
	Error      string   `json:"error,omitempty"`
}

// Service reconciles product tags against the remote catalog.
type Service interface {
	// Reconcile merges the desired tags into one product's remote tag list,
	// replacing managed compatibility tags and keeping everything else.
	Reconcile(ctx context.Context, productGID string, desired []string, mk, model string) (*catalog.MutationResult, error)

	// ReconcileAll reconciles a batch of products with bounded concurrency.
	ReconcileAll(ctx context.Context, wants map[string]Want) []Result
}

type service struct {
	log     logrus.FieldLogger
	client  catalog.ClientInterface
	config  *Config
	sleepFn func(ctx context.Context, d time.Duration) error
}

// NewService creates a reconciler.
func NewService(log logrus.FieldLogger, client catalog.ClientInterface, cfg *Config) Service {
	cfg.SetDefaults()

	return &service{
		log:     log.WithField("service", "reconciler"),
		client:  client,
		config:  cfg,
		sleepFn: sleepCtx,
	}
}

func (s *service) Reconcile(ctx context.Context, productGID string, desired []string, mk, model string) (*catalog.MutationResult, error) {
	current, err := s.withRetry(ctx, func() ([]string, error) {
		return s.client.GetProductTags(ctx, productGID)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read tags for %s: %w", productGID, err)
	}

	merged := Merge(current, desired, mk, model)

	var result *catalog.MutationResult

	_, err = s.withRetry(ctx, func() ([]string, error) {
		var mutErr error
		result, mutErr = s.client.UpdateProductTags(ctx, productGID, merged)
		if mutErr != nil {
			return nil, mutErr
		}

		return result.Tags, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to write tags for %s: %w", productGID, err)
	}

	s.log.WithFields(logrus.Fields{
		"product": productGID,
		"tags":    len(merged),
	}).Debug("Reconciled product tags")

	return result, nil
}

func (s *service) ReconcileAll(ctx context.Context, wants map[string]Want) []Result {
	results := make([]Result, 0, len(wants))

	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.config.Concurrency)

	for gid, want := range wants {
		g.Go(func() error {
			start := time.Now()

			res := Result{ProductGID: gid}

			mutation, err := s.Reconcile(ctx, gid, want.Tags, want.Make, want.Model)
			if err != nil {
				// Recorded, not propagated: one product must not sink the batch
				res.Err = err
				res.Error = err.Error()

				s.log.WithError(err).WithField("product", gid).Error("Reconciliation failed")
				observability.RecordReconciliation("failed", time.Since(start).Seconds())
				observability.RecordError("reconciler", "reconcile_error")
			} else {
				res.Tags = mutation.Tags

				observability.RecordReconciliation("success", time.Since(start).Seconds())
			}

			mu.Lock()
			results = append(results, res)
			mu.Unlock()

			return nil
		})
	}

	_ = g.Wait()

	sort.Slice(results, func(i, j int) bool { return results[i].ProductGID < results[j].ProductGID })

	return results
}

// withRetry retries rate-limited calls with jittered exponential backoff.
// Other failures surface immediately.
func (s *service) withRetry(ctx context.Context, call func() ([]string, error)) ([]string, error) {
	var lastErr error

	for attempt := 0; attempt < s.config.MaxAttempts; attempt++ {
		if attempt > 0 {
			delay := s.config.BackoffBase << (attempt - 1)
			delay += time.Duration(rand.Int63n(int64(delay))) //nolint:gosec // jitter, not crypto

			if err := s.sleepFn(ctx, delay); err != nil {
				return nil, err
			}
		}

		out, err := call()
		if err == nil {
			return out, nil
		}

		lastErr = err

		if !errors.Is(err, catalog.ErrRateLimited) {
			return nil, err
		}

		observability.RecordRateLimit()
	}

	return nil, lastErr
}

// Merge computes the post-reconciliation tag list: current tags minus
// managed compatibility tags for this make/model, union the desired set.
// Order-insensitive, deduplicated, unmanaged tags survive untouched.
func Merge(current, desired []string, mk, model string) []string {
	out := make([]string, 0, len(current)+len(desired))
	seen := make(map[string]bool, len(current)+len(desired))

	for _, tag := range current {
		if tags.IsManaged(tag, mk, model) || seen[tag] {
			continue
		}

		seen[tag] = true
		out = append(out, tag)
	}

	for _, tag := range desired {
		if seen[tag] {
			continue
		}

		seen[tag] = true
		out = append(out, tag)
	}

	return out
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Verify interface compliance at compile time
var _ Service = (*service)(nil)
