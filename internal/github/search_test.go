package github

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	FullName    string `json:"full_name"`
	Stars       int    `json:"stargazers_count"`
	CloneURL    string `json:"clone_url"`
	Description string `json:"description"`
}

// searchServer serves total ranked repositories, paginated with Link headers.
func searchServer(t *testing.T, total int, seen *[]http.Header) *httptest.Server {
	t.Helper()
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search/repositories", r.URL.Path)
		if seen != nil {
			*seen = append(*seen, r.Header.Clone())
		}

		q := r.URL.Query()
		assert.Equal(t, "language:Java stars:>=100", q.Get("q"))
		assert.Equal(t, "stars", q.Get("sort"))
		assert.Equal(t, "desc", q.Get("order"))

		page, _ := strconv.Atoi(q.Get("page"))
		if page == 0 {
			page = 1
		}
		perPage, _ := strconv.Atoi(q.Get("per_page"))

		var items []fakeRepo
		start := (page - 1) * perPage
		for i := start; i < start+perPage && i < total; i++ {
			items = append(items, fakeRepo{
				FullName:    fmt.Sprintf("org/repo%d", i),
				Stars:       10000 - i,
				CloneURL:    fmt.Sprintf("https://example.com/org/repo%d.git", i),
				Description: "repo " + strconv.Itoa(i),
			})
		}
		if start+perPage < total {
			next := fmt.Sprintf("%s/search/repositories?page=%d&per_page=%d", srv.URL, page+1, perPage)
			w.Header().Set("Link", fmt.Sprintf(`<%s>; rel="next"`, next))
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"total_count": total,
			"items":       items,
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestNewSearcherRequiresToken(t *testing.T) {
	_, err := NewSearcher("", "")
	assert.ErrorIs(t, err, ErrNoToken)
}

func TestSearch(t *testing.T) {
	var headers []http.Header
	srv := searchServer(t, 5, &headers)

	s, err := NewSearcher("secret-token", srv.URL)
	require.NoError(t, err)

	repos, err := s.Search(context.Background(), "Java", 100, 3)
	require.NoError(t, err)
	require.Len(t, repos, 3)
	assert.Equal(t, RepositoryDescriptor{
		FullName:    "org/repo0",
		Stars:       10000,
		CloneURL:    "https://example.com/org/repo0.git",
		Description: "repo 0",
	}, repos[0])
	assert.Equal(t, "org/repo2", repos[2].FullName)

	require.NotEmpty(t, headers)
	assert.Equal(t, "Bearer secret-token", headers[0].Get("Authorization"))
}

func TestSearchPaginates(t *testing.T) {
	var headers []http.Header
	srv := searchServer(t, 250, &headers)
	s, err := NewSearcher("t", srv.URL+"/")
	require.NoError(t, err)

	repos, err := s.Search(context.Background(), "Java", 100, 230)
	require.NoError(t, err)
	assert.Len(t, repos, 230)
	assert.Len(t, headers, 3)
	assert.Equal(t, "org/repo229", repos[229].FullName)
}

func TestSearchExhausted(t *testing.T) {
	srv := searchServer(t, 2, nil)
	s, err := NewSearcher("t", srv.URL)
	require.NoError(t, err)

	repos, err := s.Search(context.Background(), "Java", 100, 10)
	require.NoError(t, err)
	assert.Len(t, repos, 2)
}

func TestSearchError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"message":"Validation Failed"}`))
	}))
	defer srv.Close()

	s, err := NewSearcher("t", srv.URL)
	require.NoError(t, err)
	_, err = s.Search(context.Background(), "Java", 100, 10)
	assert.ErrorContains(t, err, "Validation Failed")
}

func TestQuery(t *testing.T) {
	assert.Equal(t, "language:Go stars:>=5", Query("Go", 5))
}
