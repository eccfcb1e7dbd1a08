package remote

import (
	"context"
	"encoding/json"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
)

const documentsPath = "/databases/{databaseId}/collections/{collectionId}/documents"

func (c *Client) documents(ctx context.Context, collectionID string) *resty.Request {
	return c.request(ctx).SetPathParams(map[string]string{
		"databaseId":   c.opts.DatabaseID,
		"collectionId": collectionID,
	})
}

// ListDocuments returns the documents of a collection matching the queries.
func (c *Client) ListDocuments(ctx context.Context, collectionID string, queries []string) (*DocumentList, error) {
	started := time.Now()
	var list DocumentList

	req := c.documents(ctx, collectionID).SetResult(&list)
	if len(queries) > 0 {
		req.SetQueryParamsFromValues(url.Values{"queries[]": queries})
	}
	resp, err := req.Get(documentsPath)
	if err := check("list documents", resp, err, started); err != nil {
		return nil, err
	}
	return &list, nil
}

// GetDocument returns one document as raw JSON.
func (c *Client) GetDocument(ctx context.Context, collectionID, documentID string) (json.RawMessage, error) {
	started := time.Now()

	resp, err := c.documents(ctx, collectionID).
		SetPathParam("documentId", documentID).
		Get(documentsPath + "/{documentId}")
	if err := check("get document", resp, err, started); err != nil {
		return nil, err
	}
	return json.RawMessage(resp.Body()), nil
}

// CreateDocument stores data under documentID and returns the created document.
func (c *Client) CreateDocument(ctx context.Context, collectionID, documentID string, data interface{}) (json.RawMessage, error) {
	started := time.Now()

	resp, err := c.documents(ctx, collectionID).
		SetBody(map[string]interface{}{
			"documentId": documentID,
			"data":       data,
		}).
		Post(documentsPath)
	if err := check("create document", resp, err, started); err != nil {
		return nil, err
	}
	return json.RawMessage(resp.Body()), nil
}

// DeleteDocument removes a document.
func (c *Client) DeleteDocument(ctx context.Context, collectionID, documentID string) error {
	started := time.Now()

	resp, err := c.documents(ctx, collectionID).
		SetPathParam("documentId", documentID).
		Delete(documentsPath + "/{documentId}")
	return check("delete document", resp, err, started)
}
