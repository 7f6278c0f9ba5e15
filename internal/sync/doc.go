// Package sync orchestrates the two directions of document
// synchronization: pushing local markdown documents to a remote page
// tree, and pulling remote pages back into the local docs tree.
//
// # Push
//
// Syncer discovers documents under a store root in shallow-first order
// and mirrors them as one page per document under a configured root
// page:
//
//	syncer := sync.NewSyncer(store, client, sync.Options{
//	    RootPageID:   "abc123",
//	    ResolveLinks: true,
//	})
//	result, err := syncer.Sync(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Print(result.Summary())
//
// Push behavior:
//   - Directory pages are provisioned lazily, one path segment at a
//     time; index documents supply their directory's page content
//   - Content hashes recorded in document headers gate updates, so
//     unchanged documents cost no remote calls
//   - When link resolution is on and some documents have no page yet,
//     the run becomes two passes: the first creates missing pages, the
//     second rewrites content against the completed link index
//   - Per-document failures are recorded in the Result; a failed
//     directory page fails its whole subtree but not its siblings
//
// # Pull
//
// Puller fetches remote pages in one of three scopes (ScopeLinked,
// ScopeAllChildren, ScopeExplicit) and writes their content back as
// markdown. Pages without a local counterpart get new files with
// slugified names; pages that anchor a subtree become per-directory
// index documents.
//
// # Conflict Strategies
//
// Before overwriting a local document, the puller classifies how the
// two sides diverged since the last recorded sync and lets the
// configured Strategy decide:
//   - StrategyLocalWins: Keep local files; skip all remote changes
//   - StrategyRemoteWins: Take the remote version of every page
//   - StrategyNewestWins: Take whichever side changed most recently
//   - StrategyManual: Report conflicts for review without deciding
//
// Manual conflicts surface as ConflictEntry values carrying both sides'
// timestamps; a ReviewFunc can supply per-document strategy overrides
// in one round. Content is never merged.
package sync
