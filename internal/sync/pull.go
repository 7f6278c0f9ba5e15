package sync

import (
	"context"
	"fmt"
	"path"
	"time"

	"github.com/matthewsinclair/arca-notionex/internal/document"
	"github.com/matthewsinclair/arca-notionex/internal/links"
	"github.com/matthewsinclair/arca-notionex/internal/logging"
	"github.com/matthewsinclair/arca-notionex/internal/markdown"
	"github.com/matthewsinclair/arca-notionex/internal/model"
	"github.com/matthewsinclair/arca-notionex/internal/similarity"
	"github.com/matthewsinclair/arca-notionex/internal/util"
)

// Scope selects which remote pages a pull run covers.
type Scope string

const (
	// ScopeLinked pulls only pages already linked to a local document.
	ScopeLinked Scope = "linked_only"

	// ScopeAllChildren pulls every page under the root page, creating
	// local documents for pages that have none.
	ScopeAllChildren Scope = "all_children"

	// ScopeExplicit pulls an explicit list of page ids.
	ScopeExplicit Scope = "explicit_list"
)

// DefaultScope is used when no scope is specified.
const DefaultScope = ScopeLinked

// IsValid reports whether the scope is a known value.
func (s Scope) IsValid() bool {
	switch s {
	case ScopeLinked, ScopeAllChildren, ScopeExplicit:
		return true
	}
	return false
}

// String returns the scope name.
func (s Scope) String() string {
	return string(s)
}

// ReviewFunc lets a caller decide conflicted documents interactively.
// It receives every conflict of the run at once and returns per-path
// strategy overrides; paths left out stay conflicted.
type ReviewFunc func([]ConflictEntry) map[string]Strategy

// BackupFunc snapshots the given local documents before the run
// overwrites them. A non-nil error aborts the run.
type BackupFunc func(paths []string) error

// PullOptions configures a pull run.
type PullOptions struct {
	// Scope selects which pages to pull. Defaults to ScopeLinked.
	Scope Scope

	// PageIDs lists the pages to pull under ScopeExplicit.
	PageIDs []string

	// RootPageID anchors the page walk under ScopeAllChildren.
	RootPageID string

	// Strategy decides diverged documents. Defaults to DefaultStrategy.
	Strategy Strategy

	// PreserveMetadata keeps underline and color annotations as inline
	// markers in the rendered markdown.
	PreserveMetadata bool

	// DryRun reports what would change without touching local files.
	DryRun bool

	// Review, when set, is consulted once with the run's conflicts.
	Review ReviewFunc

	// Backup, when set, runs over the documents about to be
	// overwritten.
	Backup BackupFunc

	// Progress, when set, receives per-page updates.
	Progress ProgressFunc
}

// Puller brings remote page content back into the local docs tree.
type Puller struct {
	store  *document.Store
	remote Connector
	opts   PullOptions
}

// NewPuller creates a Puller over the given store and remote.
func NewPuller(store *document.Store, remote Connector, opts PullOptions) *Puller {
	return &Puller{store: store, remote: remote, opts: opts}
}

// pullTarget pairs a remote page with its local counterpart, if any.
type pullTarget struct {
	page  model.RemotePage
	local *document.Document
	// hasChildren marks pages that anchor a subtree; their local
	// documents become per-directory index documents.
	hasChildren bool
	err         error
}

// Pull fetches the pages selected by the configured scope and writes
// their content back as markdown. Per-page failures are recorded in the
// result and do not stop the remaining pages.
func (p *Puller) Pull(ctx context.Context) (*PullResult, error) {
	defer logging.Timer("pull")()

	strategy := p.opts.Strategy
	if strategy == "" {
		strategy = DefaultStrategy
	}
	if !strategy.IsValid() {
		return nil, fmt.Errorf("unknown strategy %q", p.opts.Strategy)
	}
	scope := p.opts.Scope
	if scope == "" {
		scope = DefaultScope
	}
	if !scope.IsValid() {
		return nil, fmt.Errorf("unknown scope %q", p.opts.Scope)
	}

	result := &PullResult{Scope: scope, Strategy: strategy, DryRun: p.opts.DryRun}

	docs, err := p.store.Discover()
	if err != nil {
		return result, fmt.Errorf("discover documents: %w", err)
	}
	index := links.FromDocuments(docs)
	byPath := make(map[string]*document.Document, len(docs))
	for _, doc := range docs {
		byPath[doc.Path] = doc
	}

	logging.Debug("starting pull",
		logging.Operation(scope.String()),
		logging.Count(index.Len()),
		"dry_run", p.opts.DryRun)

	targets, err := p.collectTargets(ctx, scope, docs, index, byPath)
	if err != nil {
		return result, err
	}

	decisions := make([]Decision, len(targets))
	conflicted := 0
	for i, tgt := range targets {
		if tgt.err != nil {
			continue
		}
		status := DetectStatus(tgt.local, tgt.page)
		decisions[i] = Resolve(strategy, status, tgt.local, tgt.page)
		if decisions[i].Action == ResolveConflict {
			conflicted++
		}
	}

	if conflicted > 0 && p.opts.Review != nil {
		p.scoreConflicts(ctx, targets, decisions, index)
		conflicts := make([]ConflictEntry, 0, conflicted)
		for i, tgt := range targets {
			if tgt.err == nil && decisions[i].Action == ResolveConflict {
				conflicts = append(conflicts, *decisions[i].Entry)
			}
		}
		overrides := p.opts.Review(conflicts)
		for i, tgt := range targets {
			if tgt.err != nil || decisions[i].Action != ResolveConflict {
				continue
			}
			chosen, ok := overrides[decisions[i].Entry.Path]
			if !ok || !chosen.IsValid() {
				continue
			}
			decisions[i] = Resolve(chosen, DetectStatus(tgt.local, tgt.page), tgt.local, tgt.page)
		}
	}

	if p.opts.Backup != nil && !p.opts.DryRun {
		var overwrites []string
		for i, tgt := range targets {
			if tgt.err == nil && decisions[i].Action == ResolveUpdate && tgt.local != nil {
				overwrites = append(overwrites, tgt.local.Path)
			}
		}
		if len(overwrites) > 0 {
			if err := p.opts.Backup(overwrites); err != nil {
				return result, fmt.Errorf("backup before pull: %w", err)
			}
		}
	}

	for i, tgt := range targets {
		res := p.apply(ctx, tgt, decisions[i], index, byPath)
		result.Docs = append(result.Docs, res)
		if p.opts.Progress != nil {
			p.opts.Progress(i+1, len(targets), res.Path)
		}
		logging.Debug("pulled page",
			logging.Page(tgt.page.ID),
			logging.Action(string(res.Action)))
	}
	return result, nil
}

// scoreConflicts renders the remote side of each conflicted page and
// records how much of the local content it still shares, so a reviewer
// can see whether the divergence is cosmetic before picking a side. A
// page whose content cannot be fetched stays unscored.
func (p *Puller) scoreConflicts(ctx context.Context, targets []pullTarget, decisions []Decision, index *links.Index) {
	for i, tgt := range targets {
		if tgt.err != nil || decisions[i].Action != ResolveConflict {
			continue
		}
		blocks, err := p.remote.GetPageBlocks(ctx, tgt.page.ID)
		if err != nil {
			logging.Debug("conflict left unscored",
				logging.Page(tgt.page.ID),
				logging.Err(err))
			continue
		}
		remote := markdown.ToMarkdown(blocks, markdown.RenderOptions{
			PreserveMetadata: p.opts.PreserveMetadata,
			Links:            index,
		})
		decisions[i].Entry.Similarity = similarity.Score(tgt.local.Body, remote)
	}
}

func (p *Puller) collectTargets(ctx context.Context, scope Scope, docs []*document.Document, index *links.Index, byPath map[string]*document.Document) ([]pullTarget, error) {
	switch scope {
	case ScopeLinked:
		var targets []pullTarget
		for _, doc := range docs {
			if doc.RemoteID == "" {
				continue
			}
			page, err := p.remote.GetPage(ctx, doc.RemoteID)
			if err != nil {
				targets = append(targets, pullTarget{
					page:  model.RemotePage{ID: doc.RemoteID},
					local: doc,
					err:   fmt.Errorf("fetch page for %q: %w", doc.Path, err),
				})
				continue
			}
			targets = append(targets, pullTarget{page: page, local: doc})
		}
		return targets, nil

	case ScopeExplicit:
		if len(p.opts.PageIDs) == 0 {
			return nil, fmt.Errorf("explicit pull requires page ids")
		}
		seen := make(map[string]bool, len(p.opts.PageIDs))
		var targets []pullTarget
		for _, id := range p.opts.PageIDs {
			if seen[id] {
				continue
			}
			seen[id] = true
			page, err := p.remote.GetPage(ctx, id)
			if err != nil {
				targets = append(targets, pullTarget{
					page: model.RemotePage{ID: id},
					err:  fmt.Errorf("fetch page %s: %w", id, err),
				})
				continue
			}
			targets = append(targets, pullTarget{page: page, local: localFor(page.ID, index, byPath)})
		}
		return targets, nil

	case ScopeAllChildren:
		if p.opts.RootPageID == "" {
			return nil, fmt.Errorf("root page id is required to pull all children")
		}
		return p.walkChildren(ctx, index, byPath)
	}
	return nil, fmt.Errorf("unknown scope %q", scope)
}

// walkChildren collects every page under the root breadth-first, so a
// parent is always applied before its children and new documents land
// in directories that already exist locally.
func (p *Puller) walkChildren(ctx context.Context, index *links.Index, byPath map[string]*document.Document) ([]pullTarget, error) {
	var targets []pullTarget
	targetIdx := make(map[string]int)
	queue := []string{p.opts.RootPageID}
	visited := map[string]bool{p.opts.RootPageID: true}

	for len(queue) > 0 {
		parentID := queue[0]
		queue = queue[1:]

		children, err := p.remote.ListChildPages(ctx, parentID)
		if err != nil {
			if parentID == p.opts.RootPageID {
				return nil, fmt.Errorf("list children of root page: %w", err)
			}
			targets = append(targets, pullTarget{
				page: model.RemotePage{ID: parentID},
				err:  fmt.Errorf("list children of page %s: %w", parentID, err),
			})
			continue
		}
		if len(children) > 0 {
			if i, ok := targetIdx[parentID]; ok {
				targets[i].hasChildren = true
			}
		}

		for _, child := range children {
			if visited[child.ID] {
				continue
			}
			visited[child.ID] = true

			tgt := pullTarget{page: child, local: localFor(child.ID, index, byPath)}
			if tgt.local != nil {
				// Child listings carry block timestamps, which do not
				// move on page content edits. Conflict detection needs
				// the page's own edit time.
				page, err := p.remote.GetPage(ctx, child.ID)
				if err != nil {
					tgt.err = fmt.Errorf("fetch page for %q: %w", tgt.local.Path, err)
				} else {
					tgt.page = page
				}
			}
			targetIdx[child.ID] = len(targets)
			targets = append(targets, tgt)
			queue = append(queue, child.ID)
		}
	}
	return targets, nil
}

func (p *Puller) apply(ctx context.Context, tgt pullTarget, dec Decision, index *links.Index, byPath map[string]*document.Document) DocResult {
	res := DocResult{PageID: tgt.page.ID, Title: tgt.page.Title}
	if tgt.local != nil {
		res.Path = tgt.local.Path
		if res.Title == "" {
			res.Title = tgt.local.EffectiveTitle()
		}
	}
	if tgt.err != nil {
		res.Action = ActionFailed
		res.Error = tgt.err
		return res
	}

	switch dec.Action {
	case ResolveSkip:
		res.Action = ActionSkipped
		res.Message = dec.Reason
		return res
	case ResolveConflict:
		res.Action = ActionConflict
		res.Message = dec.Reason
		res.Conflict = dec.Entry
		return res
	}
	return p.writePage(ctx, tgt, dec, index, byPath, res)
}

func (p *Puller) writePage(ctx context.Context, tgt pullTarget, dec Decision, index *links.Index, byPath map[string]*document.Document, res DocResult) DocResult {
	blocks, err := p.remote.GetPageBlocks(ctx, tgt.page.ID)
	if err != nil {
		res.Action = ActionFailed
		res.Error = fmt.Errorf("fetch blocks for page %s: %w", tgt.page.ID, err)
		return res
	}
	body := markdown.ToMarkdown(blocks, markdown.RenderOptions{
		PreserveMetadata: p.opts.PreserveMetadata,
		Links:            index,
	})

	doc := tgt.local
	isNew := doc == nil
	if isNew {
		doc = p.newDocFor(tgt, index, byPath)
		res.Path = doc.Path
	}
	if tgt.page.Title != "" {
		doc.Title = tgt.page.Title
	}
	doc.Body = body

	if p.opts.DryRun {
		if isNew {
			// Register the would-be document so later pages of this run
			// place their files against it.
			doc.RemoteID = tgt.page.ID
			index.Add(doc.Path, doc.RemoteID)
			byPath[doc.Path] = doc
			res.Action = ActionCreated
			res.Message = "would create " + doc.Path
		} else {
			res.Action = ActionUpdated
			res.Message = "would update " + doc.Path
		}
		return res
	}

	doc.MarkSynced(tgt.page.ID, time.Now())
	if err := p.store.Write(doc); err != nil {
		res.Action = ActionFailed
		res.Error = fmt.Errorf("write %q: %w", doc.Path, err)
		return res
	}
	if isNew {
		index.Add(doc.Path, doc.RemoteID)
		byPath[doc.Path] = doc
		res.Action = ActionCreated
	} else {
		res.Action = ActionUpdated
	}
	res.Message = dec.Reason
	return res
}

// newDocFor chooses a local home for a page with no local counterpart.
// The page lands in the directory of its parent page's document; pages
// that anchor a subtree become that directory's index document instead,
// so a later push rebuilds the same hierarchy.
func (p *Puller) newDocFor(tgt pullTarget, index *links.Index, byPath map[string]*document.Document) *document.Document {
	dir := ""
	if parentPath, ok := index.PathFor(tgt.page.ParentID); ok {
		dir = util.DirOf(parentPath)
	}

	slug := document.Slugify(tgt.page.Title)
	var rel string
	if tgt.hasChildren {
		sub := slug
		rel = path.Join(dir, sub, p.store.IndexFilename)
		for n := 2; p.taken(rel, byPath); n++ {
			sub = fmt.Sprintf("%s-%d", slug, n)
			rel = path.Join(dir, sub, p.store.IndexFilename)
		}
	} else {
		rel = path.Join(dir, slug+document.Extension)
		for n := 2; p.taken(rel, byPath); n++ {
			rel = path.Join(dir, fmt.Sprintf("%s-%d%s", slug, n, document.Extension))
		}
	}

	return &document.Document{
		Path:  rel,
		Title: tgt.page.Title,
		Index: tgt.hasChildren,
	}
}

func (p *Puller) taken(rel string, byPath map[string]*document.Document) bool {
	if _, ok := byPath[rel]; ok {
		return true
	}
	return p.store.Exists(rel)
}

func localFor(pageID string, index *links.Index, byPath map[string]*document.Document) *document.Document {
	if rel, ok := index.PathFor(pageID); ok {
		return byPath[rel]
	}
	return nil
}
