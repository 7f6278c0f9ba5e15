package sync

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/matthewsinclair/arca-notionex/internal/document"
	"github.com/matthewsinclair/arca-notionex/internal/links"
	"github.com/matthewsinclair/arca-notionex/internal/logging"
	"github.com/matthewsinclair/arca-notionex/internal/markdown"
	"github.com/matthewsinclair/arca-notionex/internal/model"
	"github.com/matthewsinclair/arca-notionex/internal/security"
	"github.com/matthewsinclair/arca-notionex/internal/util"
	"github.com/matthewsinclair/arca-notionex/internal/validation"
)

// Connector is the remote surface the orchestrators drive.
// *notion.Client satisfies it; tests substitute fakes.
type Connector interface {
	CreatePage(ctx context.Context, parentID, title string, blocks []model.Block) (string, error)
	ReplacePageBlocks(ctx context.Context, pageID string, blocks []model.Block) error
	GetPage(ctx context.Context, pageID string) (model.RemotePage, error)
	GetPageBlocks(ctx context.Context, pageID string) ([]model.Block, error)
	ListChildPages(ctx context.Context, pageID string) ([]model.RemotePage, error)
}

// ProgressFunc receives per-document progress updates.
type ProgressFunc func(done, total int, path string)

// Options configures a push run.
type Options struct {
	// RootPageID is the remote page the docs tree syncs under.
	RootPageID string

	// ResolveLinks rewrites links between known documents to page
	// mentions.
	ResolveLinks bool

	// SkipChildLinks demotes links into a document's own subtree to
	// plain text.
	SkipChildLinks bool

	// DryRun reports what would change without calling the remote API
	// or touching local files.
	DryRun bool

	// ScanSecrets runs the credential scan over document bodies before
	// anything is pushed.
	ScanSecrets bool

	// Progress, when set, receives per-document updates.
	Progress ProgressFunc
}

// Syncer pushes local documents to the remote page tree.
type Syncer struct {
	store  *document.Store
	remote Connector
	opts   Options
}

// NewSyncer creates a Syncer over the given store and remote.
func NewSyncer(store *document.Store, remote Connector, opts Options) *Syncer {
	return &Syncer{store: store, remote: remote, opts: opts}
}

// Sync discovers documents under the store root and pushes each one to
// the remote tree. Per-document failures are recorded in the result and
// do not stop the remaining documents; only pre-flight problems abort
// the run.
func (s *Syncer) Sync(ctx context.Context) (*Result, error) {
	defer logging.Timer("sync")()

	result := &Result{DryRun: s.opts.DryRun, Passes: 1}
	if s.opts.RootPageID == "" {
		return result, fmt.Errorf("root page id is required")
	}

	docs, err := s.store.Discover()
	if err != nil {
		return result, fmt.Errorf("discover documents: %w", err)
	}
	if len(docs) == 0 {
		logging.Info("no documents to sync")
		return result, nil
	}

	vres := validation.CheckDocuments(docs)
	for _, w := range vres.Warnings {
		logging.Warn(w)
	}
	if vres.HasErrors() {
		return result, fmt.Errorf("pre-flight validation: %w", vres.Error())
	}

	if s.opts.ScanSecrets {
		sres := security.ScanDocuments(docs)
		for _, w := range sres.Warnings {
			logging.Warn(w)
		}
		if sres.HasErrors() {
			return result, fmt.Errorf("pre-flight credential scan: %w", sres.Error())
		}
	}

	logging.Debug("starting sync",
		logging.Count(len(docs)),
		logging.Page(s.opts.RootPageID),
		"dry_run", s.opts.DryRun)

	dirs := newDirMap(s.opts.RootPageID, docs, s.remote, s.opts.DryRun)

	if !s.opts.ResolveLinks || !anyUnlinked(docs) {
		var index *links.Index
		if s.opts.ResolveLinks {
			index = links.FromDocuments(docs)
		}
		result.Docs = s.runPass(ctx, docs, dirs, passConfig{index: index})
		return result, nil
	}

	// Some documents have no remote page yet, so links to them cannot
	// resolve. Pass one creates the missing pages with resolution off;
	// pass two rewrites content against the completed index.
	result.Passes = 2
	if s.opts.DryRun {
		// A dry run cannot learn the ids pass one would mint, so it
		// reports a single combined pass resolved against the ids
		// already on file.
		result.Docs = s.runPass(ctx, docs, dirs, passConfig{index: links.FromDocuments(docs)})
		return result, nil
	}

	first := s.runPass(ctx, docs, dirs, passConfig{createOnly: true})
	created := make(map[string]bool)
	for _, r := range first {
		if r.Action == ActionCreated {
			created[r.Path] = true
		}
	}

	second := s.runPass(ctx, docs, dirs, passConfig{
		index:        links.FromDocuments(docs),
		force:        created,
		skipUnlinked: true,
	})
	result.Docs = mergePasses(docs, first, second, created)
	return result, nil
}

// passConfig controls one pass over the document set.
type passConfig struct {
	// createOnly limits the pass to documents with no remote page.
	createOnly bool
	// skipUnlinked drops documents that still have no remote page,
	// left behind by creation failures in an earlier pass.
	skipUnlinked bool
	// force bypasses the content hash gate for these paths.
	force map[string]bool
	// index resolves document links to page mentions when set.
	index *links.Index
}

func (s *Syncer) runPass(ctx context.Context, docs []*document.Document, dirs *dirMap, cfg passConfig) []DocResult {
	var out []DocResult
	for i, doc := range docs {
		if cfg.createOnly && doc.RemoteID != "" {
			continue
		}
		if cfg.skipUnlinked && doc.RemoteID == "" {
			continue
		}
		res := s.processDoc(ctx, doc, dirs, cfg)
		out = append(out, res)
		if s.opts.Progress != nil {
			s.opts.Progress(i+1, len(docs), doc.Path)
		}
		logging.Debug("processed document",
			logging.Path(doc.Path),
			logging.Action(string(res.Action)))
	}
	return out
}

func (s *Syncer) processDoc(ctx context.Context, doc *document.Document, dirs *dirMap, cfg passConfig) DocResult {
	if doc.RemoteID == "" {
		if doc.Index {
			return s.createIndexDoc(ctx, doc, dirs, cfg)
		}
		return s.createDoc(ctx, doc, dirs, cfg)
	}
	return s.updateDoc(ctx, doc, cfg)
}

// createDoc creates a remote page for a document that has none.
func (s *Syncer) createDoc(ctx context.Context, doc *document.Document, dirs *dirMap, cfg passConfig) DocResult {
	res := DocResult{Path: doc.Path, Title: doc.EffectiveTitle(), Action: ActionCreated}

	parentID, err := dirs.resolve(ctx, util.DirOf(doc.Path))
	if err != nil {
		res.Action = ActionFailed
		res.Error = err
		return res
	}
	if s.opts.DryRun {
		res.Message = "would create page"
		return res
	}

	id, err := s.remote.CreatePage(ctx, parentID, res.Title, s.convert(doc, cfg))
	res.PageID = id
	if err != nil {
		if id != "" {
			// The page exists but part of its content did not land.
			// Record the id without a content hash so the next run
			// retries the body.
			doc.RemoteID = id
			if werr := s.store.Write(doc); werr != nil {
				logging.Warn("persist page id", logging.Path(doc.Path), logging.Err(werr))
			}
		}
		res.Action = ActionFailed
		res.Error = fmt.Errorf("create page for %q: %w", doc.Path, err)
		return res
	}

	doc.MarkSynced(id, time.Now())
	if err := s.store.Write(doc); err != nil {
		res.Action = ActionFailed
		res.Error = fmt.Errorf("persist header for %q: %w", doc.Path, err)
		return res
	}
	res.Message = "created page"
	return res
}

// createIndexDoc routes an index document's content to its directory's
// page, creating or adopting that page first when necessary.
func (s *Syncer) createIndexDoc(ctx context.Context, doc *document.Document, dirs *dirMap, cfg passConfig) DocResult {
	dir := util.DirOf(doc.Path)
	if dir == "" {
		// The root index document populates the configured root page
		// rather than getting a page of its own.
		return s.populateDirPage(ctx, doc, s.opts.RootPageID, cfg)
	}
	if id, ok := dirs.lookup(dir); ok && id != pendingPageID {
		return s.populateDirPage(ctx, doc, id, cfg)
	}

	res := DocResult{Path: doc.Path, Title: doc.EffectiveTitle(), Action: ActionCreated}
	parentID, err := dirs.resolve(ctx, parentDir(dir))
	if err != nil {
		res.Action = ActionFailed
		res.Error = err
		return res
	}
	if s.opts.DryRun {
		dirs.set(dir, pendingPageID)
		res.Message = "would create directory page"
		return res
	}

	// A previous run may have provisioned this directory's page before
	// the index document existed; adopt it instead of creating a twin.
	if id, ok, err := dirs.findChild(ctx, parentID, res.Title); err != nil {
		res.Action = ActionFailed
		res.Error = fmt.Errorf("create page for %q: %w", doc.Path, err)
		return res
	} else if ok {
		dirs.set(dir, id)
		return s.populateDirPage(ctx, doc, id, cfg)
	}

	id, err := s.remote.CreatePage(ctx, parentID, res.Title, s.convert(doc, cfg))
	res.PageID = id
	if err != nil {
		if id != "" {
			doc.RemoteID = id
			dirs.set(dir, id)
			if werr := s.store.Write(doc); werr != nil {
				logging.Warn("persist page id", logging.Path(doc.Path), logging.Err(werr))
			}
		}
		res.Action = ActionFailed
		res.Error = fmt.Errorf("create page for %q: %w", doc.Path, err)
		return res
	}

	dirs.set(dir, id)
	doc.MarkSynced(id, time.Now())
	if err := s.store.Write(doc); err != nil {
		res.Action = ActionFailed
		res.Error = fmt.Errorf("persist header for %q: %w", doc.Path, err)
		return res
	}
	res.Message = "created directory page"
	return res
}

// populateDirPage writes an index document's content into an existing
// page and links the document to it.
func (s *Syncer) populateDirPage(ctx context.Context, doc *document.Document, pageID string, cfg passConfig) DocResult {
	res := DocResult{Path: doc.Path, Title: doc.EffectiveTitle(), PageID: pageID, Action: ActionCreated}
	if s.opts.DryRun {
		res.Message = "would populate directory page"
		return res
	}

	if err := s.remote.ReplacePageBlocks(ctx, pageID, s.convert(doc, cfg)); err != nil {
		res.Action = ActionFailed
		res.Error = fmt.Errorf("populate page for %q: %w", doc.Path, err)
		return res
	}
	doc.MarkSynced(pageID, time.Now())
	if err := s.store.Write(doc); err != nil {
		res.Action = ActionFailed
		res.Error = fmt.Errorf("persist header for %q: %w", doc.Path, err)
		return res
	}
	res.Message = "populated directory page"
	return res
}

// updateDoc replaces a linked document's remote content when its body
// changed since the last sync.
func (s *Syncer) updateDoc(ctx context.Context, doc *document.Document, cfg passConfig) DocResult {
	res := DocResult{Path: doc.Path, Title: doc.EffectiveTitle(), PageID: doc.RemoteID}

	forced := cfg.force[doc.Path]
	if !doc.Dirty() && !forced {
		res.Action = ActionSkipped
		res.Message = "content unchanged"
		return res
	}
	if s.opts.DryRun {
		res.Action = ActionUpdated
		res.Message = "would update page"
		return res
	}

	if err := s.remote.ReplacePageBlocks(ctx, doc.RemoteID, s.convert(doc, cfg)); err != nil {
		res.Action = ActionFailed
		res.Error = fmt.Errorf("update page for %q: %w", doc.Path, err)
		return res
	}
	doc.MarkSynced(doc.RemoteID, time.Now())
	if err := s.store.Write(doc); err != nil {
		res.Action = ActionFailed
		res.Error = fmt.Errorf("persist header for %q: %w", doc.Path, err)
		return res
	}
	res.Action = ActionUpdated
	if forced {
		res.Message = "links resolved"
	} else {
		res.Message = "content changed"
	}
	return res
}

func (s *Syncer) convert(doc *document.Document, cfg passConfig) []model.Block {
	return markdown.ToBlocks(doc.Body, markdown.ConvertOptions{
		Links:          cfg.index,
		CurrentPath:    doc.Path,
		SkipChildLinks: s.opts.SkipChildLinks,
	})
}

// mergePasses combines two-pass results per document: creations come
// from pass one, updates and skips from pass two, failures from both.
// The link-resolution rewrite of a page created this run stays folded
// into its single created entry.
func mergePasses(docs []*document.Document, first, second []DocResult, created map[string]bool) []DocResult {
	firstByPath := make(map[string]DocResult, len(first))
	for _, r := range first {
		firstByPath[r.Path] = r
	}
	secondByPath := make(map[string]DocResult, len(second))
	for _, r := range second {
		secondByPath[r.Path] = r
	}

	var out []DocResult
	for _, doc := range docs {
		if r, ok := firstByPath[doc.Path]; ok {
			out = append(out, r)
		}
		if r, ok := secondByPath[doc.Path]; ok {
			if created[doc.Path] && r.Action != ActionFailed {
				continue
			}
			out = append(out, r)
		}
	}
	return out
}

func anyUnlinked(docs []*document.Document) bool {
	for _, doc := range docs {
		if doc.RemoteID == "" {
			return true
		}
	}
	return false
}

// parentDir returns the parent of a slash-separated directory path, ""
// for top-level directories.
func parentDir(dir string) string {
	if i := strings.LastIndex(dir, "/"); i >= 0 {
		return dir[:i]
	}
	return ""
}

// pendingPageID stands in for page ids a dry run would have created.
const pendingPageID = "(pending)"

// dirMap resolves docs-tree directories to remote page ids,
// provisioning missing directory pages one segment at a time.
type dirMap struct {
	remote Connector
	dryRun bool
	// ids maps directory paths to page ids; "" is the root.
	ids map[string]string
	// failed caches provisioning failures so every document under a
	// failed directory aborts without retrying it.
	failed map[string]error
}

func newDirMap(rootPageID string, docs []*document.Document, remote Connector, dryRun bool) *dirMap {
	m := &dirMap{
		remote: remote,
		dryRun: dryRun,
		ids:    map[string]string{"": rootPageID},
		failed: make(map[string]error),
	}
	// Index documents already linked to a page pin their directory.
	for _, doc := range docs {
		if !doc.Index || doc.RemoteID == "" {
			continue
		}
		if dir := util.DirOf(doc.Path); dir != "" {
			m.ids[dir] = doc.RemoteID
		}
	}
	return m
}

// resolve returns the page id for dir, provisioning any missing
// directory pages along the way.
func (m *dirMap) resolve(ctx context.Context, dir string) (string, error) {
	if id, ok := m.ids[dir]; ok {
		return id, nil
	}
	if err, ok := m.failed[dir]; ok {
		return "", err
	}

	parentID, err := m.resolve(ctx, parentDir(dir))
	if err != nil {
		m.failed[dir] = err
		return "", err
	}
	id, err := m.provision(ctx, parentID, dir)
	if err != nil {
		m.failed[dir] = err
		return "", err
	}
	m.ids[dir] = id
	return id, nil
}

func (m *dirMap) provision(ctx context.Context, parentID, dir string) (string, error) {
	title := document.TitleFromSegment(util.BaseOf(dir))
	if m.dryRun {
		logging.Debug("would provision directory page", logging.Dir(dir), logging.Title(title))
		return pendingPageID, nil
	}

	// Reuse a page a previous run created for this directory.
	if id, ok, err := m.findChild(ctx, parentID, title); err != nil {
		return "", fmt.Errorf("provision directory %q: %w", dir, err)
	} else if ok {
		logging.Debug("reusing directory page", logging.Dir(dir), logging.Page(id))
		return id, nil
	}

	id, err := m.remote.CreatePage(ctx, parentID, title, nil)
	if err != nil {
		return "", fmt.Errorf("provision directory %q: %w", dir, err)
	}
	logging.Debug("provisioned directory page", logging.Dir(dir), logging.Page(id))
	return id, nil
}

// findChild looks for a direct child page with the given title.
func (m *dirMap) findChild(ctx context.Context, parentID, title string) (string, bool, error) {
	children, err := m.remote.ListChildPages(ctx, parentID)
	if err != nil {
		return "", false, err
	}
	for _, child := range children {
		if child.Title == title {
			return child.ID, true, nil
		}
	}
	return "", false, nil
}

func (m *dirMap) lookup(dir string) (string, bool) {
	id, ok := m.ids[dir]
	return id, ok
}

func (m *dirMap) set(dir, id string) {
	m.ids[dir] = id
}
