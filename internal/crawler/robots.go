package crawler

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/temoto/robotstxt"
)

// RobotsFetcher performs a single unretried request. *fetch.Fetcher implements it.
type RobotsFetcher interface {
	FetchOnce(ctx context.Context, rawURL string) (int, []byte, error)
}

// RobotsPolicy answers whether a URL may be crawled according to the
// site's robots.txt. It implements model.URLPolicy.
type RobotsPolicy struct {
	data      *robotstxt.RobotsData
	userAgent string
}

// LoadRobots fetches and parses robots.txt from baseURL's host.
//
// The status code decides the outcome the usual way: 4xx allows everything,
// 5xx disallows everything. A transport error is returned to the caller.
func LoadRobots(ctx context.Context, fetcher RobotsFetcher, baseURL, userAgent string, logger *slog.Logger) (*RobotsPolicy, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	robotsURL := base.ResolveReference(&url.URL{Path: "/robots.txt"}).String()

	status, body, err := fetcher.FetchOnce(ctx, robotsURL)
	if err != nil {
		return nil, err
	}

	data, err := robotstxt.FromStatusAndBytes(status, body)
	if err != nil {
		return nil, fmt.Errorf("parse robots.txt: %w", err)
	}

	if logger != nil {
		logger.Debug("loaded robots.txt", "url", robotsURL, "status", status)
	}
	return &RobotsPolicy{data: data, userAgent: userAgent}, nil
}

// NewRobotsPolicy parses robots.txt content directly.
func NewRobotsPolicy(content []byte, userAgent string) (*RobotsPolicy, error) {
	data, err := robotstxt.FromBytes(content)
	if err != nil {
		return nil, fmt.Errorf("parse robots.txt: %w", err)
	}
	return &RobotsPolicy{data: data, userAgent: userAgent}, nil
}

// Allowed reports whether rawURL may be fetched. Unparseable URLs are disallowed.
func (p *RobotsPolicy) Allowed(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return p.data.TestAgent(u.RequestURI(), p.userAgent)
}
