package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
)

// AzureFetcher reads network definitions from a blob container
type AzureFetcher struct {
	client    *azblob.Client
	container string
	prefix    string
}

// NewAzureFetcher connects with a shared key. Resource names are resolved
// below prefix inside container.
func NewAzureFetcher(accountName, accountKey, container, prefix string) (*AzureFetcher, error) {
	credential, err := azblob.NewSharedKeyCredential(accountName, accountKey)
	if err != nil {
		return nil, fmt.Errorf("azure credential: %w", err)
	}

	client, err := azblob.NewClientWithSharedKeyCredential(
		fmt.Sprintf("https://%s.blob.core.windows.net", accountName),
		credential,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("azure client: %w", err)
	}

	return &AzureFetcher{client: client, container: container, prefix: strings.Trim(prefix, "/")}, nil
}

func (s *AzureFetcher) blobName(name string) string {
	name = strings.TrimLeft(name, "/")
	if s.prefix == "" {
		return name
	}
	return s.prefix + "/" + name
}

func (s *AzureFetcher) FetchNet(ctx context.Context, name string) (io.ReadCloser, error) {
	resp, err := s.client.DownloadStream(ctx, s.container, s.blobName(name), nil)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", name, err)
	}
	return resp.Body, nil
}

func (s *AzureFetcher) List(ctx context.Context, prefix string) ([]string, error) {
	full := s.blobName(prefix)
	pager := s.client.NewListBlobsFlatPager(s.container, &azblob.ListBlobsFlatOptions{Prefix: &full})

	var names []string
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", prefix, err)
		}
		for _, item := range page.Segment.BlobItems {
			if item.Name == nil {
				continue
			}
			name := *item.Name
			if s.prefix != "" {
				name = strings.TrimPrefix(name, s.prefix+"/")
			}
			names = append(names, name)
		}
	}
	return names, nil
}
