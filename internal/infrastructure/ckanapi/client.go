// Package ckanapi lists the datasets of a CKAN catalogue through the
// action API.
package ckanapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/statload/backend/internal/domain/ckan"
	"github.com/statload/backend/internal/domain/shared"
	"github.com/statload/backend/internal/infrastructure/logger"
)

// Getter fetches a URL body
type Getter interface {
	Get(ctx context.Context, url string) ([]byte, error)
}

// Client calls package_list and package_show
type Client struct {
	getter  Getter
	baseURL string
	logger  *zap.Logger
}

// New creates a client for the action API rooted at baseURL
// (e.g. https://dati-ustat.mur.gov.it/api/3/action).
func New(getter Getter, baseURL string, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{getter: getter, baseURL: strings.TrimRight(baseURL, "/"), logger: log}
}

type response[T any] struct {
	Success bool `json:"success"`
	Result  T    `json:"result"`
}

type tag struct {
	Name string `json:"name"`
}

type pkg struct {
	Name  string `json:"name"`
	Title string `json:"title"`
	Notes string `json:"notes"`
	Tags  []tag  `json:"tags"`
}

// PackageList returns the names of every dataset
func (c *Client) PackageList(ctx context.Context) ([]string, error) {
	body, err := c.getter.Get(ctx, c.baseURL+"/package_list")
	if err != nil {
		return nil, fmt.Errorf("package_list: %w", err)
	}
	var resp response[[]string]
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, shared.ErrUpstream.Wrap("package_list: invalid JSON", err)
	}
	if !resp.Success {
		return nil, shared.ErrUpstream.WithMessage("package_list: success=false")
	}
	return resp.Result, nil
}

// PackageShow returns the details of one dataset
func (c *Client) PackageShow(ctx context.Context, name string) (ckan.Dataset, error) {
	body, err := c.getter.Get(ctx, c.baseURL+"/package_show?id="+url.QueryEscape(name))
	if err != nil {
		return ckan.Dataset{}, fmt.Errorf("package_show %s: %w", name, err)
	}
	var resp response[pkg]
	if err := json.Unmarshal(body, &resp); err != nil {
		return ckan.Dataset{}, shared.ErrUpstream.Wrap("package_show "+name+": invalid JSON", err)
	}
	if !resp.Success {
		return ckan.Dataset{}, shared.ErrUpstream.WithMessage("package_show " + name + ": success=false")
	}
	return toDataset(resp.Result), nil
}

// Datasets fetches the list and then every dataset. Datasets whose details
// cannot be read are logged and skipped.
func (c *Client) Datasets(ctx context.Context) ([]ckan.Dataset, error) {
	names, err := c.PackageList(ctx)
	if err != nil {
		return nil, err
	}
	log := logger.L(ctx)
	log.Info("CKAN datasets listed", zap.Int("count", len(names)))

	out := make([]ckan.Dataset, 0, len(names))
	for i, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		ds, err := c.PackageShow(ctx, name)
		if err != nil {
			log.Warn("Skipping CKAN dataset",
				zap.String("dataset", name),
				zap.Int("position", i+1),
				zap.Error(err))
			continue
		}
		out = append(out, ds)
	}
	log.Info("CKAN datasets fetched", zap.Int("fetched", len(out)), zap.Int("listed", len(names)))
	return out, nil
}

func toDataset(p pkg) ckan.Dataset {
	title := p.Title
	if title == "" {
		title = p.Name
	}
	ds := ckan.Dataset{ID: p.Name, Name: title, Notes: HTMLToText(p.Notes)}
	for _, t := range p.Tags {
		if t.Name != "" {
			ds.Tags = append(ds.Tags, t.Name)
		}
	}
	return ds
}

// HTMLToText returns the text content of an HTML fragment with runs of
// whitespace collapsed.
func HTMLToText(s string) string {
	if strings.TrimSpace(s) == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return strings.TrimSpace(s)
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}
