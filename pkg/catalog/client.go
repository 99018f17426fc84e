// Package catalog talks to the remote product catalog's GraphQL Admin API.
package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"
)

// Define static errors
var (
	ErrRequestFailed = errors.New("catalog request failed")
	ErrRateLimited   = errors.New("catalog rate limited")
	ErrUserErrors    = errors.New("catalog mutation returned user errors")
	ErrGraphQLErrors = errors.New("catalog query returned errors")
)

const (
	productTagsQuery = `query ProductTags($id: ID!) {
  product(id: $id) {
    id
    tags
  }
}`

	productUpdateMutation = `mutation productUpdate($input: ProductInput!) {
  productUpdate(input: $input) {
    product {
      id
      tags
    }
    userErrors {
      field
      message
    }
  }
}`

	productsByTagQuery = `query ProductsByTag($query: String!) {
  products(first: 1, query: $query) {
    edges {
      node {
        id
        tags
      }
    }
  }
}`
)

// MutationResult is the outcome of a tag-write mutation.
type MutationResult struct {
	ProductGID string   `json:"productId"`
	Tags       []string `json:"tags"`
}

// ClientInterface defines the catalog operations the pipeline needs.
type ClientInterface interface {
	// GetProductTags returns the product's current tag list
	GetProductTags(ctx context.Context, productGID string) ([]string, error)
	// UpdateProductTags replaces the product's tag list
	UpdateProductTags(ctx context.Context, productGID string, tagList []string) (*MutationResult, error)
	// TagExists reports whether any product carries the tag
	TagExists(ctx context.Context, tag string) (bool, error)
}

// client implements ClientInterface over the GraphQL HTTP endpoint
type client struct {
	log        logrus.FieldLogger
	httpClient *http.Client
	endpoint   string
	token      string
	debug      bool
}

// NewClient creates a catalog API client.
func NewClient(log logrus.FieldLogger, cfg *Config) (ClientInterface, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	cfg.SetDefaults()

	shop := strings.TrimPrefix(strings.TrimPrefix(cfg.Shop, "https://"), "http://")

	return &client{
		log:        log.WithField("component", "catalog"),
		httpClient: &http.Client{Timeout: cfg.Timeout},
		endpoint:   fmt.Sprintf("https://%s/admin/api/%s/graphql.json", shop, cfg.APIVersion),
		token:      cfg.AccessToken,
		debug:      cfg.Debug,
	}, nil
}

// NewClientWithEndpoint creates a client against an explicit endpoint.
// Used by tests to point at a local fake.
func NewClientWithEndpoint(log logrus.FieldLogger, endpoint, token string) ClientInterface {
	return &client{
		log:        log.WithField("component", "catalog"),
		httpClient: &http.Client{},
		endpoint:   endpoint,
		token:      token,
	}
}

type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphqlError struct {
	Message string `json:"message"`
}

type userError struct {
	Field   []string `json:"field"`
	Message string   `json:"message"`
}

func (c *client) GetProductTags(ctx context.Context, productGID string) ([]string, error) {
	var resp struct {
		Data struct {
			Product *struct {
				ID   string   `json:"id"`
				Tags []string `json:"tags"`
			} `json:"product"`
		} `json:"data"`
		Errors []graphqlError `json:"errors"`
	}

	err := c.execute(ctx, graphqlRequest{
		Query:     productTagsQuery,
		Variables: map[string]any{"id": productGID},
	}, &resp)
	if err != nil {
		return nil, err
	}

	if len(resp.Errors) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrGraphQLErrors, resp.Errors[0].Message)
	}

	if resp.Data.Product == nil {
		return nil, fmt.Errorf("%w: product %s not found", ErrRequestFailed, productGID)
	}

	return resp.Data.Product.Tags, nil
}

func (c *client) UpdateProductTags(ctx context.Context, productGID string, tagList []string) (*MutationResult, error) {
	var resp struct {
		Data struct {
			ProductUpdate struct {
				Product *struct {
					ID   string   `json:"id"`
					Tags []string `json:"tags"`
				} `json:"product"`
				UserErrors []userError `json:"userErrors"`
			} `json:"productUpdate"`
		} `json:"data"`
		Errors []graphqlError `json:"errors"`
	}

	err := c.execute(ctx, graphqlRequest{
		Query: productUpdateMutation,
		Variables: map[string]any{
			"input": map[string]any{
				"id":   productGID,
				"tags": tagList,
			},
		},
	}, &resp)
	if err != nil {
		return nil, err
	}

	if len(resp.Errors) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrGraphQLErrors, resp.Errors[0].Message)
	}

	if ue := resp.Data.ProductUpdate.UserErrors; len(ue) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrUserErrors, ue[0].Message)
	}

	result := &MutationResult{ProductGID: productGID}
	if resp.Data.ProductUpdate.Product != nil {
		result.Tags = resp.Data.ProductUpdate.Product.Tags
	}

	return result, nil
}

func (c *client) TagExists(ctx context.Context, tag string) (bool, error) {
	var resp struct {
		Data struct {
			Products struct {
				Edges []struct {
					Node struct {
						ID string `json:"id"`
					} `json:"node"`
				} `json:"edges"`
			} `json:"products"`
		} `json:"data"`
		Errors []graphqlError `json:"errors"`
	}

	err := c.execute(ctx, graphqlRequest{
		Query:     productsByTagQuery,
		Variables: map[string]any{"query": fmt.Sprintf("tag:%s", tag)},
	}, &resp)
	if err != nil {
		return false, err
	}

	if len(resp.Errors) > 0 {
		return false, fmt.Errorf("%w: %s", ErrGraphQLErrors, resp.Errors[0].Message)
	}

	return len(resp.Data.Products.Edges) > 0, nil
}

func (c *client) execute(ctx context.Context, gql graphqlRequest, dest any) error {
	payload, err := json.Marshal(gql)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Shopify-Access-Token", c.token)

	if c.debug {
		c.log.WithField("request", string(payload)).Debug("Executing catalog request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrRequestFailed, err.Error())
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.log.WithError(closeErr).Debug("Failed to close response body")
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("%w (status %d)", ErrRateLimited, resp.StatusCode)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w (status %d): %s", ErrRequestFailed, resp.StatusCode, string(body))
	}

	if c.debug && len(body) < 1000 {
		c.log.WithField("response", string(body)).Debug("Catalog response")
	}

	if err := json.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	return nil
}

// Verify interface compliance at compile time
var _ ClientInterface = (*client)(nil)
