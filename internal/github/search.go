// Package github finds candidate repositories through the GitHub search API.
package github

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	gh "github.com/google/go-github/v62/github"
	"golang.org/x/oauth2"
)

// MaxPerPage is the largest page the search API serves.
const MaxPerPage = 100

// ErrNoToken is returned when discovery is attempted without credentials.
var ErrNoToken = errors.New("GitHub token is not set (search.github_token or GITHUB_TOKEN)")

// RepositoryDescriptor is one search hit, in rank order.
type RepositoryDescriptor struct {
	FullName    string `json:"full_name"`
	Stars       int    `json:"stars"`
	CloneURL    string `json:"url"`
	Description string `json:"description"`
}

type Searcher struct {
	client *gh.Client
}

// NewSearcher authenticates with a static token. apiURL overrides the public
// API endpoint, for GitHub Enterprise or tests.
func NewSearcher(token, apiURL string) (*Searcher, error) {
	if token == "" {
		return nil, ErrNoToken
	}

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	client := gh.NewClient(oauth2.NewClient(context.Background(), ts))

	if apiURL != "" {
		if !strings.HasSuffix(apiURL, "/") {
			apiURL += "/"
		}
		base, err := url.Parse(apiURL)
		if err != nil {
			return nil, fmt.Errorf("invalid API URL %q: %w", apiURL, err)
		}
		client.BaseURL = base
	}

	return &Searcher{client: client}, nil
}

// Query is the search expression for a language and star floor.
func Query(language string, minStars int) string {
	return fmt.Sprintf("language:%s stars:>=%d", language, minStars)
}

// Search returns up to maxResults repositories ranked by stars, highest first.
func (s *Searcher) Search(ctx context.Context, language string, minStars, maxResults int) ([]RepositoryDescriptor, error) {
	if maxResults <= 0 {
		return nil, nil
	}

	perPage := maxResults
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}
	opts := &gh.SearchOptions{
		Sort:        "stars",
		Order:       "desc",
		ListOptions: gh.ListOptions{Page: 1, PerPage: perPage},
	}
	query := Query(language, minStars)

	results := make([]RepositoryDescriptor, 0, maxResults)
	for {
		page, resp, err := s.client.Search.Repositories(ctx, query, opts)
		if err != nil {
			var rle *gh.RateLimitError
			if errors.As(err, &rle) {
				return nil, fmt.Errorf("search rate limited until %s: %w", rle.Rate.Reset.Time.Format("15:04:05"), err)
			}
			return nil, fmt.Errorf("search %q page %d failed: %w", query, opts.Page, err)
		}

		for _, repo := range page.Repositories {
			results = append(results, RepositoryDescriptor{
				FullName:    repo.GetFullName(),
				Stars:       repo.GetStargazersCount(),
				CloneURL:    repo.GetCloneURL(),
				Description: repo.GetDescription(),
			})
			if len(results) >= maxResults {
				return results, nil
			}
		}

		if resp.NextPage == 0 || len(page.Repositories) == 0 {
			return results, nil
		}
		opts.Page = resp.NextPage
	}
}
