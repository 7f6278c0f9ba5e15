// Package notion wraps the remote page API behind the small connector
// surface the orchestrators use: typed blocks in and out, page metadata,
// and paced sequential calls.
package notion

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/jomei/notionapi"

	"github.com/matthewsinclair/arca-notionex/internal/logging"
	"github.com/matthewsinclair/arca-notionex/internal/model"
)

const (
	// listPageSize is the page size for paginated child listings.
	listPageSize = 100
	// maxTreeDepth bounds recursive block-tree fetches.
	maxTreeDepth = 32

	defaultHTTPTimeout = 30 * time.Second
)

// Options configures a Client.
type Options struct {
	// Token authenticates against the remote API.
	Token string
	// BaseURL redirects API traffic to an alternate host, keeping request
	// paths. Empty uses the real API; tests point it at a local server.
	BaseURL string
	// MinInterval is the minimum delay between consecutive remote calls.
	// Zero disables pacing.
	MinInterval time.Duration
	// HTTPTimeout bounds each HTTP request.
	HTTPTimeout time.Duration
}

// Client is the remote connector. Calls are sequential; each one waits
// out the remainder of MinInterval since the previous call before going
// on the wire.
type Client struct {
	api      *notionapi.Client
	interval time.Duration
	lastCall time.Time
}

// New builds a Client from options.
func New(opts Options) (*Client, error) {
	if opts.Token == "" {
		return nil, errors.New("remote token is required")
	}

	timeout := opts.HTTPTimeout
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	httpClient := &http.Client{Timeout: timeout}

	if opts.BaseURL != "" {
		base, err := url.Parse(opts.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("parse base url: %w", err)
		}
		httpClient.Transport = &rewriteTransport{base: base, next: http.DefaultTransport}
	}

	api := notionapi.NewClient(notionapi.Token(opts.Token), notionapi.WithHTTPClient(httpClient))
	return &Client{api: api, interval: opts.MinInterval}, nil
}

// pace sleeps out the remainder of the pacing interval since the last
// call. The first call goes through immediately.
func (c *Client) pace() {
	if c.interval <= 0 {
		return
	}
	if !c.lastCall.IsZero() {
		if wait := c.interval - time.Since(c.lastCall); wait > 0 {
			time.Sleep(wait)
		}
	}
	c.lastCall = time.Now()
}

// CreatePage creates a child page under parentID with the given title
// and content, returning the new page id. Content beyond the per-call
// block ceiling goes out in follow-up append calls; if one of those
// fails the id is still returned alongside the error so the caller can
// record the page.
func (c *Client) CreatePage(ctx context.Context, parentID, title string, blocks []model.Block) (string, error) {
	batches := model.SplitBatches(blocks, model.MaxBlocksPerRequest)
	var first []notionapi.Block
	if len(batches) > 0 {
		first = encodeBlocks(batches[0])
	}

	c.pace()
	page, err := c.api.Page.Create(ctx, &notionapi.PageCreateRequest{
		Parent: notionapi.Parent{
			Type:   notionapi.ParentTypePageID,
			PageID: notionapi.PageID(parentID),
		},
		Properties: notionapi.Properties{
			"title": notionapi.TitleProperty{
				Type:  notionapi.PropertyTypeTitle,
				Title: []notionapi.RichText{{Type: notionapi.ObjectTypeText, Text: &notionapi.Text{Content: title}}},
			},
		},
		Children: first,
	})
	if err != nil {
		return "", wrap("create page", parentID, err)
	}

	id := string(page.ID)
	for _, batch := range batches[1:] {
		if err := c.appendBatch(ctx, id, batch); err != nil {
			return id, err
		}
	}
	logging.Debug("created page", logging.Page(id), logging.Title(title), logging.Count(len(blocks)))
	return id, nil
}

// ReplacePageBlocks swaps a page's entire content: every existing
// top-level block is deleted, then the new blocks are appended in
// batches. Deleting a top-level block removes its descendants with it.
// Child-page blocks are left in place; deleting one would archive the
// page it anchors.
func (c *Client) ReplacePageBlocks(ctx context.Context, pageID string, blocks []model.Block) error {
	existing, err := c.childBlocks(ctx, pageID)
	if err != nil {
		return err
	}
	for _, nb := range existing {
		if nb.GetType() == notionapi.BlockTypeChildPage {
			continue
		}
		c.pace()
		if _, err := c.api.Block.Delete(ctx, nb.GetID()); err != nil {
			return wrap("delete block", string(nb.GetID()), err)
		}
	}
	for _, batch := range model.SplitBatches(blocks, model.MaxBlocksPerRequest) {
		if err := c.appendBatch(ctx, pageID, batch); err != nil {
			return err
		}
	}
	logging.Debug("replaced page content", logging.Page(pageID), logging.Count(len(blocks)))
	return nil
}

func (c *Client) appendBatch(ctx context.Context, pageID string, batch []model.Block) error {
	c.pace()
	_, err := c.api.Block.AppendChildren(ctx, notionapi.BlockID(pageID), &notionapi.AppendBlockChildrenRequest{
		Children: encodeBlocks(batch),
	})
	return wrap("append blocks", pageID, err)
}

// GetPage fetches a page's metadata.
func (c *Client) GetPage(ctx context.Context, pageID string) (model.RemotePage, error) {
	c.pace()
	page, err := c.api.Page.Get(ctx, notionapi.PageID(pageID))
	if err != nil {
		return model.RemotePage{}, wrap("get page", pageID, err)
	}
	return model.RemotePage{
		ID:           string(page.ID),
		Title:        pageTitle(page),
		LastEditedAt: page.LastEditedTime,
		ParentID:     parentPageID(page.Parent),
	}, nil
}

// GetPageBlocks fetches a page's content as a block tree, descending
// into children of the kinds the markdown renderer can place.
func (c *Client) GetPageBlocks(ctx context.Context, pageID string) ([]model.Block, error) {
	return c.blockTree(ctx, pageID, 0)
}

func (c *Client) blockTree(ctx context.Context, blockID string, depth int) ([]model.Block, error) {
	if depth >= maxTreeDepth {
		return nil, nil
	}
	raw, err := c.childBlocks(ctx, blockID)
	if err != nil {
		return nil, err
	}

	var out []model.Block
	for _, nb := range raw {
		b, ok := decodeBlock(nb)
		if !ok {
			continue
		}
		if nb.GetHasChildren() && wantsChildren(b.Kind) && len(b.Children) == 0 {
			children, err := c.blockTree(ctx, string(nb.GetID()), depth+1)
			if err != nil {
				return nil, err
			}
			b.Children = children
		}
		out = append(out, b)
	}
	return out, nil
}

func wantsChildren(kind model.BlockKind) bool {
	switch kind {
	case model.KindBulletedListItem, model.KindNumberedListItem, model.KindQuote, model.KindTable:
		return true
	}
	return false
}

// ListChildPages lists the page's direct child pages in remote order.
func (c *Client) ListChildPages(ctx context.Context, pageID string) ([]model.RemotePage, error) {
	raw, err := c.childBlocks(ctx, pageID)
	if err != nil {
		return nil, err
	}

	var out []model.RemotePage
	for _, nb := range raw {
		cp, ok := nb.(*notionapi.ChildPageBlock)
		if !ok {
			continue
		}
		// A child-page block's id is the page's own id.
		rp := model.RemotePage{ID: string(cp.ID), Title: cp.ChildPage.Title, ParentID: pageID}
		if cp.LastEditedTime != nil {
			rp.LastEditedAt = *cp.LastEditedTime
		}
		out = append(out, rp)
	}
	return out, nil
}

// DeleteBlock archives a block or child page.
func (c *Client) DeleteBlock(ctx context.Context, blockID string) error {
	c.pace()
	_, err := c.api.Block.Delete(ctx, notionapi.BlockID(blockID))
	return wrap("delete block", blockID, err)
}

func (c *Client) childBlocks(ctx context.Context, blockID string) (notionapi.Blocks, error) {
	var all notionapi.Blocks
	cursor := notionapi.Cursor("")
	for {
		c.pace()
		resp, err := c.api.Block.GetChildren(ctx, notionapi.BlockID(blockID), &notionapi.Pagination{
			StartCursor: cursor,
			PageSize:    listPageSize,
		})
		if err != nil {
			return nil, wrap("list blocks", blockID, err)
		}
		all = append(all, resp.Results...)
		if !resp.HasMore || resp.NextCursor == "" {
			break
		}
		cursor = notionapi.Cursor(resp.NextCursor)
	}
	return all, nil
}

func pageTitle(page *notionapi.Page) string {
	for _, prop := range page.Properties {
		switch tp := prop.(type) {
		case *notionapi.TitleProperty:
			return plainText(tp.Title)
		case notionapi.TitleProperty:
			return plainText(tp.Title)
		}
	}
	return ""
}

func parentPageID(p notionapi.Parent) string {
	if p.Type == notionapi.ParentTypePageID {
		return string(p.PageID)
	}
	return ""
}

// rewriteTransport sends requests to an alternate scheme and host,
// keeping the path and body intact.
type rewriteTransport struct {
	base *url.URL
	next http.RoundTripper
}

func (t *rewriteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	clone.URL.Scheme = t.base.Scheme
	clone.URL.Host = t.base.Host
	return t.next.RoundTrip(clone)
}
