package social

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const defaultGraphBase = "https://graph.facebook.com/v21.0"

// GraphError is a Meta Graph API error response. Rate limits are
// retryable on the next tick; an expired token needs operator action.
type GraphError struct {
	Op      string
	Code    int
	Message string
}

func (e *GraphError) Error() string {
	return fmt.Sprintf("%s: graph api error (code %d): %s", e.Op, e.Code, e.Message)
}

// RateLimited reports the throttling error codes (4, 32, 613).
func (e *GraphError) RateLimited() bool {
	return e.Code == 4 || e.Code == 32 || e.Code == 613
}

// TokenExpired reports code 190, an expired or invalidated access
// token.
func (e *GraphError) TokenExpired() bool {
	return e.Code == 190
}

// Poster publishes images to a Facebook Page and an Instagram
// business account through the Meta Graph API. Instagram has no
// direct upload: the image goes to Facebook unpublished first, and
// its CDN URL feeds the Instagram container.
type Poster struct {
	logger   *slog.Logger
	client   *http.Client
	token    string
	pageID   string
	igUserID string

	// BaseURL is swappable for tests.
	BaseURL string
	// DryRun logs what would be posted without calling the API.
	DryRun bool

	PollInterval time.Duration
	MaxPolls     int
}

func NewPoster(logger *slog.Logger, token string, pageID string, igUserID string) *Poster {
	return &Poster{
		logger:   logger,
		client:   &http.Client{Timeout: 60 * time.Second},
		token:    token,
		pageID:   pageID,
		igUserID: igUserID,

		BaseURL:      defaultGraphBase,
		PollInterval: 3 * time.Second,
		MaxPolls:     20,
	}
}

// Configured reports whether credentials are present; an unconfigured
// poster makes every publish a no-op with a log line.
func (p *Poster) Configured() bool {
	return p.token != "" && p.pageID != "" && p.igUserID != ""
}

type graphResponse struct {
	ID         string `json:"id"`
	PostID     string `json:"post_id"`
	StatusCode string `json:"status_code"`
	Images     []struct {
		Source string `json:"source"`
	} `json:"images"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (p *Poster) do(req *http.Request, op string) (graphResponse, error) {
	var parsed graphResponse

	resp, err := p.client.Do(req)
	if err != nil {
		return parsed, fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return parsed, fmt.Errorf("%s: %w", op, err)
	}

	if err = json.Unmarshal(body, &parsed); err != nil {
		return parsed, fmt.Errorf("%s: non-json response (%d): %.200s",
			op, resp.StatusCode, string(body))
	}

	if parsed.Error != nil {
		return parsed, &GraphError{
			Op:      op,
			Code:    parsed.Error.Code,
			Message: parsed.Error.Message,
		}
	}
	if resp.StatusCode != http.StatusOK {
		return parsed, fmt.Errorf("%s: unexpected status %d", op, resp.StatusCode)
	}
	return parsed, nil
}

func (p *Poster) postForm(ctx context.Context, endpoint string, form url.Values, op string) (graphResponse, error) {
	form.Set("access_token", p.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.BaseURL+endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return graphResponse{}, fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return p.do(req, op)
}

func (p *Poster) getForm(ctx context.Context, endpoint string, query url.Values, op string) (graphResponse, error) {
	query.Set("access_token", p.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		p.BaseURL+endpoint+"?"+query.Encode(), nil)
	if err != nil {
		return graphResponse{}, fmt.Errorf("%s: %w", op, err)
	}
	return p.do(req, op)
}

// uploadPhoto sends a multipart photo upload to the page's photo
// edge; published=false keeps it off the timeline (used as the
// Instagram staging step).
func (p *Poster) uploadPhoto(ctx context.Context, imagePath string, caption string, published bool) (graphResponse, error) {
	op := fmt.Sprintf("facebook upload (%s)", filepath.Base(imagePath))

	file, err := os.Open(imagePath)
	if err != nil {
		return graphResponse{}, fmt.Errorf("%s: %w", op, err)
	}
	defer file.Close()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("source", filepath.Base(imagePath))
	if err != nil {
		return graphResponse{}, fmt.Errorf("%s: %w", op, err)
	}
	if _, err = io.Copy(part, file); err != nil {
		return graphResponse{}, fmt.Errorf("%s: %w", op, err)
	}

	if caption != "" {
		//nolint:errcheck //bytes.Buffer writes don't fail
		writer.WriteField("caption", caption)
	}
	if !published {
		//nolint:errcheck //bytes.Buffer writes don't fail
		writer.WriteField("published", "false")
	}
	//nolint:errcheck //bytes.Buffer writes don't fail
	writer.WriteField("access_token", p.token)
	if err = writer.Close(); err != nil {
		return graphResponse{}, fmt.Errorf("%s: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		fmt.Sprintf("%s/%s/photos", p.BaseURL, p.pageID), &buf)
	if err != nil {
		return graphResponse{}, fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	return p.do(req, op)
}

// PostToFacebook publishes a photo with a caption to the page and
// returns the photo id.
func (p *Poster) PostToFacebook(ctx context.Context, imagePath string, caption string) (string, error) {
	if p.DryRun {
		p.logger.Info("dry run: facebook post",
			slog.String("image", imagePath), slog.Int("caption_len", len(caption)))
		return "dry-run", nil
	}

	resp, err := p.uploadPhoto(ctx, imagePath, caption, true)
	if err != nil {
		return "", err
	}
	return resp.ID, nil
}

// photoCDNURL fetches the public CDN URL of an uploaded photo; the
// images list comes back largest first.
func (p *Poster) photoCDNURL(ctx context.Context, photoID string) (string, error) {
	resp, err := p.getForm(ctx, "/"+photoID,
		url.Values{"fields": {"images"}}, "photo cdn url")
	if err != nil {
		return "", err
	}
	if len(resp.Images) == 0 {
		return "", fmt.Errorf("no images returned for photo %s", photoID)
	}
	return resp.Images[0].Source, nil
}

// waitForContainer polls an Instagram media container until it
// finishes processing.
func (p *Poster) waitForContainer(ctx context.Context, containerID string) error {
	for i := 0; i < p.MaxPolls; i++ {
		resp, err := p.getForm(ctx, "/"+containerID,
			url.Values{"fields": {"status_code"}}, "container status")
		if err != nil {
			return err
		}

		switch resp.StatusCode {
		case "FINISHED":
			return nil
		case "ERROR":
			return fmt.Errorf("instagram container %s failed", containerID)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(p.PollInterval):
		}
	}
	return fmt.Errorf("instagram container %s did not finish in time", containerID)
}

// PostToInstagram publishes an image by URL: create a media
// container, wait for processing, publish. imageURL must be publicly
// reachable, which is what the unpublished Facebook upload provides.
func (p *Poster) PostToInstagram(ctx context.Context, imageURL string, caption string) (string, error) {
	if p.DryRun {
		p.logger.Info("dry run: instagram post",
			slog.String("image_url", imageURL), slog.Int("caption_len", len(caption)))
		return "dry-run", nil
	}

	resp, err := p.postForm(ctx, "/"+p.igUserID+"/media", url.Values{
		"image_url": {imageURL},
		"caption":   {caption},
	}, "instagram create container")
	if err != nil {
		return "", err
	}
	containerID := resp.ID

	if err = p.waitForContainer(ctx, containerID); err != nil {
		return "", err
	}

	resp, err = p.postForm(ctx, "/"+p.igUserID+"/media_publish", url.Values{
		"creation_id": {containerID},
	}, "instagram publish")
	if err != nil {
		return "", err
	}
	return resp.ID, nil
}

// Publish posts one image to both platforms and returns the platform
// names that succeeded. A failure on one platform does not block the
// other.
func (p *Poster) Publish(ctx context.Context, imagePath string, captions CaptionSet) ([]string, error) {
	var posted []string
	var errs []error

	if _, err := p.PostToFacebook(ctx, imagePath, captions.Facebook); err != nil {
		errs = append(errs, err)
	} else {
		posted = append(posted, "facebook")
	}

	igErr := func() error {
		if p.DryRun {
			_, err := p.PostToInstagram(ctx, "dry-run://"+imagePath, captions.Instagram)
			return err
		}

		staged, err := p.uploadPhoto(ctx, imagePath, "", false)
		if err != nil {
			return err
		}
		cdnURL, err := p.photoCDNURL(ctx, staged.ID)
		if err != nil {
			return err
		}
		_, err = p.PostToInstagram(ctx, cdnURL, captions.Instagram)
		return err
	}()
	if igErr != nil {
		errs = append(errs, igErr)
	} else {
		posted = append(posted, "instagram")
	}

	return posted, errors.Join(errs...)
}
