// Package relay implements the data provider by forwarding each source
// call as a message to whatever owns the browser data.
package relay

import (
	"context"
	"fmt"

	"github.com/nikbrunner/spotlight/internal/model"
	"github.com/nikbrunner/spotlight/internal/transport"
)

// Provider implements provider.Provider over a transport.Conn.
type Provider struct {
	conn transport.Conn
}

// New creates a Provider.
func New(conn transport.Conn) *Provider {
	return &Provider{conn: conn}
}

func (p *Provider) send(ctx context.Context, req transport.Request) (transport.Response, error) {
	resp, err := p.conn.Send(ctx, req)
	if err != nil {
		return transport.Response{}, fmt.Errorf("%s: %w", req.Action, err)
	}
	if err := resp.Err(); err != nil {
		return transport.Response{}, fmt.Errorf("%s: %w", req.Action, err)
	}
	return resp, nil
}

func (p *Provider) OpenTabs(ctx context.Context, query string) ([]model.TabRecord, error) {
	resp, err := p.send(ctx, transport.NewRequest(transport.ActionOpenTabs, query, ""))
	return resp.Tabs, err
}

func (p *Provider) RecentTabs(ctx context.Context, limit int) ([]model.TabRecord, error) {
	req := transport.NewRequest(transport.ActionRecentTabs, "", "")
	req.Limit = limit
	resp, err := p.send(ctx, req)
	return resp.Tabs, err
}

func (p *Provider) Bookmarks(ctx context.Context, query string) ([]model.BookmarkRecord, error) {
	resp, err := p.send(ctx, transport.NewRequest(transport.ActionBookmarks, query, ""))
	return resp.Bookmarks, err
}

func (p *Provider) History(ctx context.Context, query string) ([]model.HistoryRecord, error) {
	resp, err := p.send(ctx, transport.NewRequest(transport.ActionHistory, query, ""))
	return resp.History, err
}

func (p *Provider) TopSites(ctx context.Context) ([]model.SiteRecord, error) {
	resp, err := p.send(ctx, transport.NewRequest(transport.ActionTopSites, "", ""))
	return resp.Sites, err
}

func (p *Provider) Autocomplete(ctx context.Context, query string) ([]model.Result, error) {
	resp, err := p.send(ctx, transport.NewRequest(transport.ActionAutocomplete, query, ""))
	return resp.Results, err
}

func (p *Provider) PinnedTabs(ctx context.Context, query string) ([]model.PinnedTabRecord, error) {
	resp, err := p.send(ctx, transport.NewRequest(transport.ActionPinnedTabs, query, ""))
	return resp.PinnedTabs, err
}

// Suggestions asks the remote side for ranked suggestions. A request
// replaced by a newer one fails with transport.ErrSuperseded.
func (p *Provider) Suggestions(ctx context.Context, query string, mode model.Mode) ([]model.Result, error) {
	resp, err := p.send(ctx, transport.NewRequest(transport.ActionGetSuggestions, query, mode))
	return resp.Results, err
}

// Execute asks the remote side to perform the action for r.
func (p *Provider) Execute(ctx context.Context, r model.Result, mode model.Mode) error {
	req := transport.NewRequest(transport.ActionExecute, "", mode)
	req.Result = &r
	_, err := p.send(ctx, req)
	return err
}
