package blobstore

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client lists and fetches raw document blobs by name.
type Client interface {
	// List returns the names of every blob in the container.
	List(ctx context.Context) ([]string, error)
	// Download fetches the bytes of a single blob. Failures are returned as
	// *TransferError so callers can report and continue with the next blob.
	Download(ctx context.Context, name string) ([]byte, error)
}

// TransferError reports a failed fetch of a single blob.
type TransferError struct {
	Name string
	Err  error
}

func (e *TransferError) Error() string {
	return fmt.Sprintf("transfer %s: %v", e.Name, e.Err)
}

func (e *TransferError) Unwrap() error { return e.Err }

// AzureClient reads a public Azure Blob Storage container through its
// anonymous REST interface.
type AzureClient struct {
	accountURL string
	container  string
	client     *http.Client
}

// NewAzureClient creates a client for the given storage account and container.
func NewAzureClient(accountURL, container string, timeout time.Duration) *AzureClient {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &AzureClient{
		accountURL: strings.TrimRight(accountURL, "/"),
		container:  container,
		client:     &http.Client{Timeout: timeout},
	}
}

// enumerationResults is the container listing document returned by the
// List Blobs operation.
type enumerationResults struct {
	Blobs struct {
		Blob []struct {
			Name string `xml:"Name"`
		} `xml:"Blob"`
	} `xml:"Blobs"`
	NextMarker string `xml:"NextMarker"`
}

func (c *AzureClient) List(ctx context.Context) ([]string, error) {
	var names []string
	marker := ""
	for {
		listURL := fmt.Sprintf("%s/%s?restype=container&comp=list", c.accountURL, c.container)
		if marker != "" {
			listURL += "&marker=" + url.QueryEscape(marker)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, listURL, nil)
		if err != nil {
			return nil, fmt.Errorf("build list request: %w", err)
		}
		resp, err := c.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("list blobs: %w", err)
		}

		var page enumerationResults
		decodeErr := xml.NewDecoder(resp.Body).Decode(&page)
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("list blobs returned %d", resp.StatusCode)
		}
		if decodeErr != nil {
			return nil, fmt.Errorf("decode blob listing: %w", decodeErr)
		}

		for _, b := range page.Blobs.Blob {
			names = append(names, b.Name)
		}
		if page.NextMarker == "" {
			return names, nil
		}
		marker = page.NextMarker
	}
}

func (c *AzureClient) Download(ctx context.Context, name string) ([]byte, error) {
	blobURL := fmt.Sprintf("%s/%s/%s", c.accountURL, c.container, url.PathEscape(name))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, blobURL, nil)
	if err != nil {
		return nil, &TransferError{Name: name, Err: err}
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &TransferError{Name: name, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &TransferError{Name: name, Err: fmt.Errorf("status %d", resp.StatusCode)}
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransferError{Name: name, Err: err}
	}
	return data, nil
}
