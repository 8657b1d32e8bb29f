// Package github lists and downloads documentation files from a GitHub
// repository directory.
package github

import (
	"context"
	"encoding/base64"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/google/go-github/v81/github"
)

// DocExtensions are the file extensions treated as documents.
var DocExtensions = []string{".md", ".markdown", ".txt"}

// FetchedDoc is a document file downloaded from GitHub
type FetchedDoc struct {
	Path    string // Relative path within the base directory
	Content string
	SHA     string // File's Git blob SHA
}

// Fetcher reads document files below basePath of owner/repo at ref.
type Fetcher struct {
	client   *Client
	owner    string
	repo     string
	basePath string
	ref      string
}

// NewFetcher creates a new document fetcher. An empty ref uses the default branch.
func NewFetcher(client *Client, owner, repo, basePath, ref string) *Fetcher {
	return &Fetcher{
		client:   client,
		owner:    owner,
		repo:     repo,
		basePath: strings.Trim(basePath, "/"),
		ref:      ref,
	}
}

// Repository returns "owner/repo".
func (f *Fetcher) Repository() string { return f.owner + "/" + f.repo }

func (f *Fetcher) contentOptions() *github.RepositoryContentGetOptions {
	if f.ref == "" {
		return nil
	}
	return &github.RepositoryContentGetOptions{Ref: f.ref}
}

// ListDocs recursively lists all document files, sorted by path.
func (f *Fetcher) ListDocs(ctx context.Context) ([]string, error) {
	docs, err := f.listDocsRecursive(ctx, f.basePath, "")
	if err != nil {
		return nil, err
	}
	sort.Strings(docs)
	return docs, nil
}

func (f *Fetcher) listDocsRecursive(ctx context.Context, fullPath, relativePath string) ([]string, error) {
	_, dirContents, _, err := f.client.Repositories.GetContents(ctx, f.owner, f.repo, fullPath, f.contentOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to get contents of %s: %w", fullPath, err)
	}

	var docs []string
	for _, item := range dirContents {
		if item.Type == nil || item.Name == nil {
			continue
		}
		itemRelPath := path.Join(relativePath, *item.Name)

		switch *item.Type {
		case "file":
			if IsDocFile(*item.Name) {
				docs = append(docs, itemRelPath)
			}
		case "dir":
			subDocs, err := f.listDocsRecursive(ctx, path.Join(fullPath, *item.Name), itemRelPath)
			if err != nil {
				return nil, err
			}
			docs = append(docs, subDocs...)
		}
	}
	return docs, nil
}

// IsDocFile reports whether name has one of DocExtensions.
func IsDocFile(name string) bool {
	lower := strings.ToLower(name)
	for _, ext := range DocExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// FetchDoc downloads one document by its path relative to the base directory.
func (f *Fetcher) FetchDoc(ctx context.Context, relativePath string) (*FetchedDoc, error) {
	fullPath := path.Join(f.basePath, relativePath)

	fileContent, _, _, err := f.client.Repositories.GetContents(ctx, f.owner, f.repo, fullPath, f.contentOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to get content of %s: %w", fullPath, err)
	}
	if fileContent == nil || fileContent.Content == nil {
		return nil, fmt.Errorf("no file content returned for %s", fullPath)
	}

	content, err := base64.StdEncoding.DecodeString(*fileContent.Content)
	if err != nil {
		return nil, fmt.Errorf("failed to decode content of %s: %w", fullPath, err)
	}

	return &FetchedDoc{
		Path:    relativePath,
		Content: string(content),
		SHA:     fileContent.GetSHA(),
	}, nil
}
