package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/dmitrijs2005/flockapp/internal/client/models"
)

// LiveProgram returns the current program, or nil when nothing is scheduled.
func (c *Client) LiveProgram(ctx context.Context) (*models.Program, error) {
	var p *models.Program
	if err := c.do(ctx, http.MethodGet, "/livetv", nil, nil, &p); err != nil {
		return nil, err
	}
	if p != nil && p.ID == "" {
		return nil, nil
	}
	return p, nil
}

// LiveComments returns the program's full comment list in chronological order.
func (c *Client) LiveComments(ctx context.Context, programID string) ([]models.Comment, error) {
	var comments []models.Comment
	q := url.Values{"programId": {programID}}
	if err := c.do(ctx, http.MethodGet, "/livetv/comments", q, nil, &comments); err != nil {
		return nil, err
	}
	if comments == nil {
		comments = []models.Comment{}
	}
	return comments, nil
}

func (c *Client) PostComment(ctx context.Context, programID, userID, content string) error {
	req := map[string]string{"programId": programID, "userId": userID, "content": content}
	return c.do(ctx, http.MethodPost, "/livetv/comments", nil, req, nil)
}

func (c *Client) Participate(ctx context.Context, programID, userID string) error {
	req := map[string]string{"programId": programID, "userId": userID}
	return c.do(ctx, http.MethodPost, "/livetv/participate", nil, req, nil)
}
