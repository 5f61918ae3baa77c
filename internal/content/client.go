// Copyright (c) 2026 Mintara. All rights reserved.

/*
Package content provides the HTTP client for the content-addressed store.

Covers and episode pages are uploaded once, addressed by hash, and served to
readers through the gateway. The store is an external collaborator; this
package only knows how to push bytes and derive public URLs.
*/
package content

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/mintara/mintara/internal/platform/apperr"
	"github.com/mintara/mintara/internal/platform/constants"
)

// Ref points at one stored object.
type Ref struct {
	// Hash is the content address assigned by the store.
	Hash string `json:"hash"`
	// URL is the public gateway URL for the object.
	URL string `json:"url"`
}

// Client talks to the content store gateway.
type Client struct {
	gatewayURL string
	httpClient *http.Client
}

// NewClient constructs a content store [Client] for the given gateway URL.
func NewClient(gatewayURL string) *Client {
	return &Client{
		gatewayURL: gatewayURL,
		httpClient: &http.Client{Timeout: constants.ContentRequestTimeout},
	}
}

/*
Upload stores one object and returns its content address.

Description: Sends a multipart form to the gateway. The store deduplicates by
hash, so re-uploading identical bytes is safe and returns the same Ref.

Parameters:
  - context: context.Context
  - filename: string (original name, informational only)
  - reader: io.Reader (object bytes)

Returns:
  - *Ref: Hash and public URL of the stored object
  - error: apperr.StorageError on transport or gateway failures
*/
func (client *Client) Upload(context context.Context, filename string, reader io.Reader) (*Ref, error) {
	var buffer bytes.Buffer
	form := multipart.NewWriter(&buffer)

	part, err := form.CreateFormFile("file", filename)
	if err != nil {
		return nil, apperr.StorageError(fmt.Errorf("content: failed to build form: %w", err))
	}
	if _, err := io.Copy(part, reader); err != nil {
		return nil, apperr.StorageError(fmt.Errorf("content: failed to read object: %w", err))
	}
	if err := form.Close(); err != nil {
		return nil, apperr.StorageError(fmt.Errorf("content: failed to finalize form: %w", err))
	}

	request, err := http.NewRequestWithContext(
		context, http.MethodPost, client.gatewayURL+"/v1/objects", &buffer)
	if err != nil {
		return nil, apperr.StorageError(fmt.Errorf("content: failed to build request: %w", err))
	}
	request.Header.Set("Content-Type", form.FormDataContentType())

	response, err := client.httpClient.Do(request)
	if err != nil {
		return nil, apperr.StorageError(fmt.Errorf("content: upload failed: %w", err))
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK && response.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(io.LimitReader(response.Body, 512))
		return nil, apperr.StorageError(fmt.Errorf("content: status %d: %s", response.StatusCode, string(body)))
	}

	var payload struct {
		Hash string `json:"hash"`
	}
	if err := json.NewDecoder(response.Body).Decode(&payload); err != nil {
		return nil, apperr.StorageError(fmt.Errorf("content: failed to decode response: %w", err))
	}
	if payload.Hash == "" {
		return nil, apperr.StorageError(fmt.Errorf("content: gateway returned empty hash"))
	}

	return &Ref{Hash: payload.Hash, URL: client.ObjectURL(payload.Hash)}, nil
}

// ObjectURL derives the public gateway URL for a content hash.
func (client *Client) ObjectURL(hash string) string {
	return client.gatewayURL + "/v1/objects/" + hash
}
