package fetch

import (
	"context"
	"fmt"

	"github.com/fpl-tools/fpl-scorer/internal/model"
)

// /fixtures/
func (c *Client) FixturesRaw(ctx context.Context, force bool) ([]byte, error) {
	return c.FetchRaw(ctx, "/fixtures/", "fixtures/fixtures.json", force)
}

// /element-summary/{id}/
func (c *Client) ElementSummaryRaw(ctx context.Context, elementID int, force bool) ([]byte, error) {
	return c.FetchRaw(ctx,
		fmt.Sprintf("/element-summary/%d/", elementID),
		fmt.Sprintf("element-summary/%d.json", elementID),
		force,
	)
}

// /bootstrap-static/
func (c *Client) BootstrapStaticRaw(ctx context.Context, force bool) ([]byte, error) {
	return c.FetchRaw(ctx, "/bootstrap-static/", "bootstrap/bootstrap-static.json", force)
}

func (c *Client) Fixtures(ctx context.Context) ([]model.Fixture, error) {
	body, err := c.FixturesRaw(ctx, c.Refresh)
	if err != nil {
		return nil, err
	}
	var out []model.Fixture
	if err := decode("/fixtures/", body, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ElementSummary(ctx context.Context, elementID int) (*model.ElementSummary, error) {
	body, err := c.ElementSummaryRaw(ctx, elementID, c.Refresh)
	if err != nil {
		return nil, err
	}
	var out model.ElementSummary
	if err := decode(fmt.Sprintf("/element-summary/%d/", elementID), body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) BootstrapStatic(ctx context.Context) (*model.Bootstrap, error) {
	body, err := c.BootstrapStaticRaw(ctx, c.Refresh)
	if err != nil {
		return nil, err
	}
	var out model.Bootstrap
	if err := decode("/bootstrap-static/", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
