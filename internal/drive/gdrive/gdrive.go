package gdrive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/Ning0612/pikpakcli/internal/domain"
)

const (
	// MimeTypeFolder is the MIME type for Google Drive folders
	MimeTypeFolder = "application/vnd.google-apps.folder"
	// PageSize is the number of files requested per listing page
	PageSize = 100

	fileFields = "id, name, mimeType, size, modifiedTime, parents, trashed"
)

// Client implements drive.Client on top of the Google Drive v3 API.
// It lets the same tree walker and download engine run against a
// Google Drive account instead of PikPak.
type Client struct {
	service *drive.Service
	rootID  string
}

// New creates a Google Drive client using a stored OAuth token
func New(ctx context.Context, clientID, clientSecret, tokenPath string) (*Client, error) {
	auth := NewAuthenticator(clientID, clientSecret, tokenPath)

	token, err := auth.GetClient(ctx)
	if err != nil {
		return nil, err
	}

	httpClient := auth.Config().Client(ctx, token)

	service, err := drive.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("failed to create Drive service: %w", err)
	}

	return &Client{service: service, rootID: "root"}, nil
}

// NewWithService creates a client from an existing Drive service,
// used by tests against a stub HTTP backend
func NewWithService(service *drive.Service) *Client {
	return &Client{service: service, rootID: "root"}
}

// ListChildren returns one page of children of the given directory
func (c *Client) ListChildren(ctx context.Context, parentID, pageToken string) ([]domain.Node, string, error) {
	folderID := parentID
	if folderID == domain.RootID {
		folderID = c.rootID
	}

	query := fmt.Sprintf("'%s' in parents", escapeQueryString(folderID))
	call := c.service.Files.List().
		Q(query).
		PageSize(PageSize).
		Fields(googleapi.Field("nextPageToken, files(" + fileFields + ")"))

	if pageToken != "" {
		call = call.PageToken(pageToken)
	}

	fileList, err := call.Context(ctx).Do()
	if err != nil {
		return nil, "", mapError(err)
	}

	nodes := make([]domain.Node, 0, len(fileList.Files))
	for _, f := range fileList.Files {
		nodes = append(nodes, nodeFromDrive(parentID, f))
	}

	return nodes, fileList.NextPageToken, nil
}

// OpenStream opens a media download stream starting at offset
func (c *Client) OpenStream(ctx context.Context, fileID string, offset int64) (io.ReadCloser, int64, error) {
	meta, err := c.service.Files.Get(fileID).
		Fields("id, size, mimeType").
		Context(ctx).Do()
	if err != nil {
		return nil, 0, &domain.AccessError{FileID: fileID, Err: mapError(err)}
	}

	call := c.service.Files.Get(fileID).Context(ctx)
	if offset > 0 {
		call.Header().Set("Range", fmt.Sprintf("bytes=%d-", offset))
	}

	resp, err := call.Download()
	if err != nil {
		return nil, 0, &domain.AccessError{FileID: fileID, Err: mapError(err)}
	}

	if offset > 0 && resp.StatusCode != http.StatusPartialContent {
		resp.Body.Close()
		return nil, 0, &domain.AccessError{FileID: fileID, Err: fmt.Errorf("server ignored range request at offset %d", offset)}
	}

	return resp.Body, meta.Size, nil
}

// Remove trashes an entry, or deletes it permanently
func (c *Client) Remove(ctx context.Context, id string, permanent bool) error {
	if permanent {
		return mapError(c.service.Files.Delete(id).Context(ctx).Do())
	}
	_, err := c.service.Files.Update(id, &drive.File{Trashed: true}).Context(ctx).Do()
	return mapError(err)
}

// Close releases client resources
func (c *Client) Close() error {
	return nil
}

// nodeFromDrive converts a Drive file to a domain node
func nodeFromDrive(parentID string, f *drive.File) domain.Node {
	kind := domain.KindFile
	size := f.Size
	if f.MimeType == MimeTypeFolder {
		kind = domain.KindDirectory
		size = 0
	}

	modTime := time.Time{}
	if f.ModifiedTime != "" {
		modTime, _ = time.Parse(time.RFC3339, f.ModifiedTime)
	}

	return domain.Node{
		ID:       f.Id,
		Name:     f.Name,
		Kind:     kind,
		Size:     size,
		ParentID: parentID,
		ModTime:  modTime,
		Trashed:  f.Trashed,
	}
}

// escapeQueryString escapes special characters in Drive query strings
func escapeQueryString(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "'", "\\'")
	return s
}

// mapError converts Google API errors to domain errors
func mapError(err error) error {
	if err == nil {
		return nil
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusNotFound:
			return domain.ErrNotFound
		case http.StatusUnauthorized:
			return fmt.Errorf("%w: %v", domain.ErrNotLoggedIn, err)
		case http.StatusForbidden:
			return domain.ErrPermissionDenied
		case http.StatusTooManyRequests:
			return fmt.Errorf("rate limit exceeded: %w", err)
		}
	}

	var oauthErr *oauth2.RetrieveError
	if errors.As(err, &oauthErr) {
		return fmt.Errorf("%w: %v", domain.ErrNotLoggedIn, err)
	}

	return err
}
