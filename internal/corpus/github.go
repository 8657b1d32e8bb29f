package corpus

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/bull/grounded-chat/internal/github"
	"github.com/bull/grounded-chat/internal/storage"
)

// DefaultFetchConcurrency bounds parallel downloads from GitHub.
const DefaultFetchConcurrency = 4

// GitHubSource reads documents from a directory of a GitHub repository.
type GitHubSource struct {
	fetcher     *github.Fetcher
	concurrency int
}

// NewGitHubSource creates a source backed by fetcher. A concurrency below 1
// uses DefaultFetchConcurrency.
func NewGitHubSource(fetcher *github.Fetcher, concurrency int) *GitHubSource {
	if concurrency < 1 {
		concurrency = DefaultFetchConcurrency
	}
	return &GitHubSource{fetcher: fetcher, concurrency: concurrency}
}

// Documents downloads every document file. Results keep the sorted path
// order of ListDocs regardless of download completion order.
func (s *GitHubSource) Documents(ctx context.Context) ([]storage.Document, error) {
	paths, err := s.fetcher.ListDocs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list docs: %w", err)
	}

	docs := make([]storage.Document, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for i, p := range paths {
		g.Go(func() error {
			fetched, err := s.fetcher.FetchDoc(gctx, p)
			if err != nil {
				return fmt.Errorf("fetch %s: %w", p, err)
			}
			docs[i] = storage.Document{
				ID:      p,
				Title:   titleOrStem([]byte(fetched.Content), p),
				Content: fetched.Content,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return docs, nil
}
