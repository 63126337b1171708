// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pubmed queries the NCBI E-utilities literature API.
//
// Both operations consult the cache first; a miss triggers a rate-limited
// HTTP call with bounded retries and the result is written back. Failure
// after exhausting retries is reported to the caller, who fails that
// query variant only.
package pubmed

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pdiddy/repurpose-engine/internal/cache"
	"github.com/pdiddy/repurpose-engine/internal/httputil"
	"github.com/pdiddy/repurpose-engine/pkg/types"
)

// API endpoints. Declared as vars so tests can substitute an httptest
// server.
var (
	esearchBase = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils/esearch.fcgi"
	efetchBase  = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils/efetch.fcgi"
)

// Client retrieves PMIDs and article records from PubMed.
type Client struct {
	http   *http.Client
	cache  *cache.Store
	cfg    types.RetrievalConfig
	logger *slog.Logger
}

// New constructs a Client over the given cache and configuration.
func New(store *cache.Store, cfg types.RetrievalConfig) *Client {
	return &Client{
		http:   &http.Client{Timeout: cfg.Timeout},
		cache:  store,
		cfg:    cfg,
		logger: slog.Default().With("component", "pubmed"),
	}
}

// esearchResponse mirrors the ESearch JSON envelope.
type esearchResponse struct {
	Result struct {
		IDList []string `json:"idlist"`
	} `json:"esearchresult"`
}

// Search returns the ordered PMIDs matching query, scoped to candidateID
// for cache isolation.
func (c *Client) Search(ctx context.Context, candidateID, query string) ([]string, error) {
	var pmids []string
	hit, err := c.cache.Get(candidateID, cache.StageSearch, query, &pmids)
	if err != nil {
		return nil, err
	}
	if hit {
		return pmids, nil
	}

	params := url.Values{
		"db":     {"pubmed"},
		"term":   {query},
		"retmax": {strconv.Itoa(c.maxResults())},
		"sort":   {"relevance"},
	}
	body, err := c.call(ctx, esearchBase, params)
	if err != nil {
		return nil, fmt.Errorf("esearch %q: %w", query, err)
	}

	var sr esearchResponse
	if err := json.Unmarshal(body, &sr); err != nil {
		return nil, fmt.Errorf("parsing esearch response: %w", err)
	}
	pmids = sr.Result.IDList

	if err := c.cache.Put(candidateID, cache.StageSearch, query, pmids); err != nil {
		// Cache write failure degrades to uncached operation.
		c.logger.Warn("cache write failed", "stage", "search", "err", err)
	}
	return pmids, nil
}

// efetch XML structures, reduced to the fields the pipeline consumes.
type efetchArticleSet struct {
	Articles []struct {
		Citation struct {
			PMID    string `xml:"PMID"`
			Article struct {
				Title    string `xml:"ArticleTitle"`
				Abstract struct {
					Sections []string `xml:"AbstractText"`
				} `xml:"Abstract"`
				Journal struct {
					Issue struct {
						PubDate struct {
							Year string `xml:"Year"`
						} `xml:"PubDate"`
					} `xml:"JournalIssue"`
				} `xml:"Journal"`
			} `xml:"Article"`
		} `xml:"MedlineCitation"`
	} `xml:"PubmedArticle"`
}

// Fetch returns full records for pmids, preserving input order where the
// API provides it. Unknown PMIDs are silently absent from the result.
func (c *Client) Fetch(ctx context.Context, candidateID string, pmids []string) ([]types.Document, error) {
	if len(pmids) == 0 {
		return nil, nil
	}

	idList := strings.Join(pmids, ",")

	var docs []types.Document
	hit, err := c.cache.Get(candidateID, cache.StageFetch, idList, &docs)
	if err != nil {
		return nil, err
	}
	if hit {
		return docs, nil
	}

	params := url.Values{
		"db":      {"pubmed"},
		"id":      {idList},
		"retmode": {"xml"},
	}
	body, err := c.call(ctx, efetchBase, params)
	if err != nil {
		return nil, fmt.Errorf("efetch %d ids: %w", len(pmids), err)
	}

	var set efetchArticleSet
	if err := xml.Unmarshal(body, &set); err != nil {
		return nil, fmt.Errorf("parsing efetch response: %w", err)
	}

	for _, a := range set.Articles {
		doc := types.Document{
			PMID:     strings.TrimSpace(a.Citation.PMID),
			Title:    strings.TrimSpace(a.Citation.Article.Title),
			Abstract: strings.TrimSpace(strings.Join(a.Citation.Article.Abstract.Sections, " ")),
		}
		if y, convErr := strconv.Atoi(a.Citation.Article.Journal.Issue.PubDate.Year); convErr == nil {
			doc.Year = y
		}
		if doc.PMID == "" {
			continue
		}
		docs = append(docs, doc)
	}

	if err := c.cache.Put(candidateID, cache.StageFetch, idList, docs); err != nil {
		c.logger.Warn("cache write failed", "stage", "fetch", "err", err)
	}
	return docs, nil
}

// call issues one rate-limited GET with retries and returns the body.
func (c *Client) call(ctx context.Context, base string, params url.Values) ([]byte, error) {
	if c.cfg.APIKey != "" {
		params.Set("api_key", c.cfg.APIKey)
	}

	if c.cfg.RequestDelay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.cfg.RequestDelay):
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, c.http, req, c.cfg.MaxRetries)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("E-utilities returned HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}
	return body, nil
}

func (c *Client) maxResults() int {
	if c.cfg.MaxResults > 0 {
		return c.cfg.MaxResults
	}
	return 100
}
