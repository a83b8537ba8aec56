package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/routerlab/routerbench/internal/model"
)

const defaultBaseURL = "https://datasets-server.huggingface.co"

// Options configures the Hugging Face prompt source.
type Options struct {
	Dataset   string
	Config    string
	Split     string
	CachePath string
	PageSize  int
	BaseURL   string
	UserAgent string
	// RPS throttles dataset page fetches. This protects the datasets
	// server during the one bulk download; routing calls are never
	// throttled or retried here.
	RPS float64
}

// HFSource loads prompts from the datasets-server rows API, caching
// them locally after the first successful fetch.
type HFSource struct {
	opts    Options
	http    *http.Client
	limiter *rate.Limiter
}

// New creates an HFSource with the given options.
func New(opts Options) *HFSource {
	if opts.BaseURL == "" {
		opts.BaseURL = defaultBaseURL
	}
	if opts.Config == "" {
		opts.Config = "default"
	}
	if opts.Split == "" {
		opts.Split = "train"
	}
	if opts.PageSize <= 0 || opts.PageSize > 100 {
		opts.PageSize = 100
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "routerbench/1.0"
	}
	if opts.RPS <= 0 {
		opts.RPS = 4
	}
	return &HFSource{
		opts: opts,
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 4,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		limiter: rate.NewLimiter(rate.Limit(opts.RPS), 1),
	}
}

// Load returns prompts in dataset order, fetching and caching them on
// first use. A corrupt cache is rebuilt from the network; when neither
// cache nor network can serve, the error wraps ErrUnavailable.
func (s *HFSource) Load(ctx context.Context, limit int) ([]model.PromptRecord, error) {
	if records, err := readCache(s.opts.CachePath); err == nil {
		zap.L().Debug("prompt cache hit",
			zap.String("path", s.opts.CachePath),
			zap.Int("prompts", len(records)),
		)
		return clip(records, limit), nil
	} else if !os.IsNotExist(eris.Cause(err)) {
		zap.L().Warn("invalid prompt cache, rebuilding", zap.Error(err))
		_ = os.Remove(s.opts.CachePath)
	}

	records, err := s.fetchAll(ctx)
	if err != nil {
		return nil, eris.Wrap(ErrUnavailable, err.Error())
	}

	if err := writeCache(s.opts.CachePath, records); err != nil {
		return nil, err
	}
	zap.L().Info("prompt cache written",
		zap.String("path", s.opts.CachePath),
		zap.Int("prompts", len(records)),
	)

	return clip(records, limit), nil
}

// rowsResponse is the datasets-server /rows payload, reduced to the
// fields this source reads.
type rowsResponse struct {
	Rows []struct {
		RowIdx int `json:"row_idx"`
		Row    struct {
			Prompt string `json:"prompt"`
		} `json:"row"`
	} `json:"rows"`
	NumRowsTotal int `json:"num_rows_total"`
}

func (s *HFSource) fetchAll(ctx context.Context) ([]model.PromptRecord, error) {
	zap.L().Info("fetching prompt dataset",
		zap.String("dataset", s.opts.Dataset),
		zap.String("split", s.opts.Split),
	)

	var records []model.PromptRecord
	total := -1
	for offset := 0; total < 0 || offset < total; offset += s.opts.PageSize {
		page, err := s.fetchPage(ctx, offset)
		if err != nil {
			return nil, err
		}
		total = page.NumRowsTotal
		if len(page.Rows) == 0 {
			break
		}
		for _, row := range page.Rows {
			records = append(records, model.PromptRecord{ID: row.RowIdx, Text: row.Row.Prompt})
		}
	}

	if len(records) == 0 {
		return nil, eris.Errorf("source: dataset %s returned no rows", s.opts.Dataset)
	}
	return records, nil
}

func (s *HFSource) fetchPage(ctx context.Context, offset int) (*rowsResponse, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "source: rate limiter wait")
	}

	q := url.Values{}
	q.Set("dataset", s.opts.Dataset)
	q.Set("config", s.opts.Config)
	q.Set("split", s.opts.Split)
	q.Set("offset", fmt.Sprint(offset))
	q.Set("length", fmt.Sprint(s.opts.PageSize))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.opts.BaseURL+"/rows?"+q.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "source: create request")
	}
	req.Header.Set("User-Agent", s.opts.UserAgent)

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, eris.Wrapf(err, "source: fetch rows offset %d", offset)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, eris.Errorf("source: rows offset %d: status %d: %s", offset, resp.StatusCode, body)
	}

	var page rowsResponse
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, eris.Wrapf(err, "source: decode rows offset %d", offset)
	}
	return &page, nil
}

func clip(records []model.PromptRecord, limit int) []model.PromptRecord {
	if limit > 0 && len(records) > limit {
		return records[:limit]
	}
	return records
}
