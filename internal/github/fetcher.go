package github

import (
	"context"
	"fmt"
	"io"
	"path"
	"slices"
	"strings"

	"github.com/google/go-github/v81/github"
)

// FetchedFile is one document downloaded from a repository.
type FetchedFile struct {
	Path string // relative to the fetcher's base path
	Name string
	Data []byte
	SHA  string
}

// Fetcher walks one repository directory.
type Fetcher struct {
	client     *Client
	owner      string
	repo       string
	basePath   string
	ref        string
	extensions []string
}

// NewFetcher creates a fetcher for owner/repo beneath basePath. ref may be
// empty for the default branch. Only files whose extension is in extensions
// are listed.
func NewFetcher(client *Client, owner, repo, basePath, ref string, extensions []string) *Fetcher {
	exts := make([]string, len(extensions))
	for i, e := range extensions {
		exts[i] = strings.ToLower(e)
	}
	return &Fetcher{
		client:     client,
		owner:      owner,
		repo:       repo,
		basePath:   strings.Trim(basePath, "/"),
		ref:        ref,
		extensions: exts,
	}
}

func (f *Fetcher) options() *github.RepositoryContentGetOptions {
	if f.ref == "" {
		return nil
	}
	return &github.RepositoryContentGetOptions{Ref: f.ref}
}

// ListFiles recursively lists matching files, sorted by path.
func (f *Fetcher) ListFiles(ctx context.Context) ([]string, error) {
	files, err := f.listRecursive(ctx, f.basePath, "")
	if err != nil {
		return nil, err
	}
	slices.Sort(files)
	return files, nil
}

func (f *Fetcher) listRecursive(ctx context.Context, fullPath, relativePath string) ([]string, error) {
	var files []string

	_, dirContents, _, err := f.client.Repositories.GetContents(ctx, f.owner, f.repo, fullPath, f.options())
	if err != nil {
		return nil, fmt.Errorf("failed to get contents of %s: %w", fullPath, err)
	}

	for _, item := range dirContents {
		name := item.GetName()
		if name == "" {
			continue
		}
		itemRelPath := path.Join(relativePath, name)

		switch item.GetType() {
		case "file":
			if f.matches(name) {
				files = append(files, itemRelPath)
			}
		case "dir":
			sub, err := f.listRecursive(ctx, path.Join(fullPath, name), itemRelPath)
			if err != nil {
				return nil, err
			}
			files = append(files, sub...)
		}
	}

	return files, nil
}

func (f *Fetcher) matches(name string) bool {
	return slices.Contains(f.extensions, strings.ToLower(path.Ext(name)))
}

// FetchFile downloads one file listed by ListFiles.
func (f *Fetcher) FetchFile(ctx context.Context, relativePath string) (*FetchedFile, error) {
	fullPath := path.Join(f.basePath, relativePath)

	fileContent, _, _, err := f.client.Repositories.GetContents(ctx, f.owner, f.repo, fullPath, f.options())
	if err != nil {
		return nil, fmt.Errorf("failed to get content of %s: %w", fullPath, err)
	}
	if fileContent == nil {
		return nil, fmt.Errorf("%s is not a file", fullPath)
	}

	var data []byte
	if fileContent.GetEncoding() == "base64" {
		content, err := fileContent.GetContent()
		if err != nil {
			return nil, fmt.Errorf("failed to decode content of %s: %w", fullPath, err)
		}
		data = []byte(content)
	} else {
		// Files over 1 MB come back without inline content
		data, err = f.download(ctx, fullPath)
		if err != nil {
			return nil, err
		}
	}

	return &FetchedFile{
		Path: relativePath,
		Name: path.Base(relativePath),
		Data: data,
		SHA:  fileContent.GetSHA(),
	}, nil
}

func (f *Fetcher) download(ctx context.Context, fullPath string) ([]byte, error) {
	rc, _, err := f.client.Repositories.DownloadContents(ctx, f.owner, f.repo, fullPath, f.options())
	if err != nil {
		return nil, fmt.Errorf("failed to download %s: %w", fullPath, err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", fullPath, err)
	}
	return data, nil
}
