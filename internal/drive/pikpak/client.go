package pikpak

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/Ning0612/pikpakcli/internal/domain"
	"github.com/Ning0612/pikpakcli/internal/logger"
)

const (
	// UserBaseURL is the PikPak account service endpoint
	UserBaseURL = "https://user.mypikpak.com"
	// DriveBaseURL is the PikPak drive API endpoint
	DriveBaseURL = "https://api-drive.mypikpak.com"

	// FolderKind is the kind value the API reports for directories
	FolderKind = "drive#folder"

	// OctetStreamLink selects the raw byte-stream link of a file
	OctetStreamLink = "application/octet-stream"
)

// Client implements drive.Client against the PikPak REST API
type Client struct {
	userBase   string
	driveBase  string
	httpClient *http.Client
	auth       *Authenticator
}

// Options configures a PikPak client
type Options struct {
	UserBaseURL  string
	DriveBaseURL string

	// Timeout bounds the wait for response headers. It does not bound
	// the body read, so long downloads are unaffected.
	Timeout time.Duration

	// OnToken is called whenever the token changes (login or refresh)
	// so the session layer can persist it
	OnToken func(Token)
}

// New creates a new PikPak client. The token may be zero for a client
// that has not logged in yet.
func New(token Token, opts Options) *Client {
	if opts.UserBaseURL == "" {
		opts.UserBaseURL = UserBaseURL
	}
	if opts.DriveBaseURL == "" {
		opts.DriveBaseURL = DriveBaseURL
	}
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}

	return &Client{
		userBase:  opts.UserBaseURL,
		driveBase: opts.DriveBaseURL,
		httpClient: &http.Client{
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout:   10 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				MaxIdleConns:          100,
				IdleConnTimeout:       90 * time.Second,
				TLSHandshakeTimeout:   10 * time.Second,
				ResponseHeaderTimeout: opts.Timeout,
			},
		},
		auth: NewAuthenticator(opts.UserBaseURL, token, opts.OnToken),
	}
}

// fileResource is the wire representation of a drive entry.
// Sizes come back as decimal strings.
type fileResource struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Kind         string          `json:"kind"`
	Size         string          `json:"size"`
	ParentID     string          `json:"parent_id"`
	ModifiedTime string          `json:"modified_time"`
	Trashed      bool            `json:"trashed"`
	Audit        json.RawMessage `json:"audit"`
	Links        map[string]struct {
		URL    string `json:"url"`
		Expire string `json:"expire"`
	} `json:"links"`
}

type fileListResponse struct {
	Files         []fileResource `json:"files"`
	NextPageToken string         `json:"next_page_token"`
}

// toNode converts a wire resource into a domain node
func (f fileResource) toNode() domain.Node {
	size, _ := strconv.ParseInt(f.Size, 10, 64)

	kind := domain.KindFile
	if f.Kind == FolderKind {
		kind = domain.KindDirectory
		size = 0
	}

	modTime := time.Time{}
	if f.ModifiedTime != "" {
		modTime, _ = time.Parse(time.RFC3339, f.ModifiedTime)
	}

	return domain.Node{
		ID:           f.ID,
		Name:         f.Name,
		Kind:         kind,
		Size:         size,
		ParentID:     f.ParentID,
		ModTime:      modTime,
		Trashed:      f.Trashed,
		PendingAudit: len(f.Audit) > 0 && string(f.Audit) != "null",
	}
}

// ListChildren returns one page of children of the given directory
func (c *Client) ListChildren(ctx context.Context, parentID, pageToken string) ([]domain.Node, string, error) {
	params := url.Values{}
	params.Set("thumbnail_size", "SIZE_LARGE")
	params.Set("limit", "0")
	if parentID != domain.RootID {
		params.Set("parent_id", parentID)
	}
	if pageToken != "" {
		params.Set("page_token", pageToken)
	}

	var list fileListResponse
	if err := c.doJSON(ctx, "GET", c.driveBase+"/drive/v1/files?"+params.Encode(), nil, &list); err != nil {
		return nil, "", err
	}

	nodes := make([]domain.Node, 0, len(list.Files))
	for _, f := range list.Files {
		nodes = append(nodes, f.toNode())
	}

	return nodes, list.NextPageToken, nil
}

// OpenStream opens a download stream for the file starting at offset.
// The direct link is fetched fresh each time since links expire.
func (c *Client) OpenStream(ctx context.Context, fileID string, offset int64) (io.ReadCloser, int64, error) {
	var res fileResource
	if err := c.doJSON(ctx, "GET", c.driveBase+"/drive/v1/files/"+fileID, nil, &res); err != nil {
		return nil, 0, &domain.AccessError{FileID: fileID, Err: err}
	}

	link, ok := res.Links[OctetStreamLink]
	if !ok || link.URL == "" {
		return nil, 0, &domain.AccessError{FileID: fileID, Err: fmt.Errorf("no download link available")}
	}

	totalSize, _ := strconv.ParseInt(res.Size, 10, 64)

	req, err := http.NewRequestWithContext(ctx, "GET", link.URL, nil)
	if err != nil {
		return nil, 0, &domain.AccessError{FileID: fileID, Err: err}
	}
	if offset > 0 {
		req.Header.Set("Range", fmt.Sprintf("bytes=%d-", offset))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, &domain.AccessError{FileID: fileID, Err: err}
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusPartialContent {
		resp.Body.Close()
		return nil, 0, &domain.AccessError{FileID: fileID, Err: fmt.Errorf("download server returned %d", resp.StatusCode)}
	}

	// A server that ignores the Range header restarts at byte 0.
	// Callers depend on the offset, so reject the stream instead of
	// silently re-downloading the prefix.
	if offset > 0 && resp.StatusCode != http.StatusPartialContent {
		resp.Body.Close()
		return nil, 0, &domain.AccessError{FileID: fileID, Err: fmt.Errorf("server ignored range request at offset %d", offset)}
	}

	return resp.Body, totalSize, nil
}

// Remove trashes a remote entry, or deletes it permanently
func (c *Client) Remove(ctx context.Context, id string, permanent bool) error {
	endpoint := c.driveBase + "/drive/v1/files:batchTrash"
	if permanent {
		endpoint = c.driveBase + "/drive/v1/files:batchDelete"
	}

	body := map[string]any{"ids": []string{id}}
	return c.doJSON(ctx, "POST", endpoint, body, nil)
}

// Close releases client resources
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

// Login authenticates with account credentials and stores the token
func (c *Client) Login(ctx context.Context, account, password string) error {
	return c.auth.Login(ctx, c.httpClient, account, password)
}

// Token returns the current auth token
func (c *Client) Token() Token {
	return c.auth.Token()
}

// doJSON performs an authenticated API request and decodes the JSON
// response into out (when non-nil). A 401 triggers one token refresh
// followed by a single retry of the request.
func (c *Client) doJSON(ctx context.Context, method, rawURL string, body, out any) error {
	for attempt := 0; attempt < 2; attempt++ {
		token, err := c.auth.ValidToken(ctx, c.httpClient)
		if err != nil {
			return err
		}

		req, err := newJSONRequest(ctx, method, rawURL, body)
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", token.TokenType+" "+token.AccessToken)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("%s %s: %w", method, rawURL, err)
		}

		if resp.StatusCode == http.StatusUnauthorized && attempt == 0 {
			resp.Body.Close()
			logger.Get().Debug("token rejected, refreshing", "url", rawURL)
			if err := c.auth.Refresh(ctx, c.httpClient); err != nil {
				return err
			}
			continue
		}

		return decodeResponse(resp, out)
	}

	return domain.ErrNotLoggedIn
}

func newJSONRequest(ctx context.Context, method, rawURL string, body any) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

// decodeResponse maps API errors to domain errors and decodes the body
func decodeResponse(resp *http.Response, out any) error {
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var apiErr struct {
			Error            string `json:"error"`
			ErrorDescription string `json:"error_description"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)

		switch resp.StatusCode {
		case http.StatusNotFound:
			return domain.ErrNotFound
		case http.StatusUnauthorized:
			return fmt.Errorf("%w: %s", domain.ErrNotLoggedIn, apiErr.ErrorDescription)
		case http.StatusForbidden:
			return domain.ErrPermissionDenied
		}
		if apiErr.ErrorDescription != "" {
			return fmt.Errorf("api error %d: %s", resp.StatusCode, apiErr.ErrorDescription)
		}
		return fmt.Errorf("api error %d", resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
