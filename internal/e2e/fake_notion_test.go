package e2e

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"
)

// fakeNotion is an in-memory stand-in for the remote page API, covering
// the endpoints the client drives: page create and get, block children
// list and append, block delete. Handlers mimic the real API's JSON
// closely enough for the client library to decode the responses.
type fakeNotion struct {
	mu     sync.Mutex
	token  string
	nextID int
	pages  map[string]*fakePage
	blocks map[string]*fakeBlock
	calls  []string
	// failTitles makes page creation fail for these titles.
	failTitles map[string]bool
	srv        *httptest.Server
}

type fakePage struct {
	id         string
	title      string
	parentID   string
	lastEdited time.Time
	children   []string
	archived   bool
}

type fakeBlock struct {
	id       string
	parentID string
	typ      string
	payload  map[string]any
	children []string
	archived bool
}

func newFakeNotion(t *testing.T) *fakeNotion {
	t.Helper()
	f := &fakeNotion{
		token:      "secret-test-token",
		pages:      make(map[string]*fakePage),
		blocks:     make(map[string]*fakeBlock),
		failTitles: make(map[string]bool),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/pages", f.handleCreatePage)
	mux.HandleFunc("GET /v1/pages/{id}", f.handleGetPage)
	mux.HandleFunc("GET /v1/blocks/{id}/children", f.handleListChildren)
	mux.HandleFunc("PATCH /v1/blocks/{id}/children", f.handleAppendChildren)
	mux.HandleFunc("DELETE /v1/blocks/{id}", f.handleDeleteBlock)

	f.srv = httptest.NewServer(f.auth(mux))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeNotion) auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.calls = append(f.calls, r.Method+" "+r.URL.Path)
		f.mu.Unlock()

		if r.Header.Get("Authorization") != "Bearer "+f.token {
			writeAPIError(w, http.StatusUnauthorized, "unauthorized", "invalid token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (f *fakeNotion) handleCreatePage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Parent struct {
			PageID string `json:"page_id"`
		} `json:"parent"`
		Properties struct {
			Title struct {
				Title []struct {
					PlainText string `json:"plain_text"`
					Text      struct {
						Content string `json:"content"`
					} `json:"text"`
				} `json:"title"`
			} `json:"title"`
		} `json:"properties"`
		Children []map[string]any `json:"children"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	parent, ok := f.pages[req.Parent.PageID]
	if !ok || parent.archived {
		writeAPIError(w, http.StatusNotFound, "object_not_found", "parent page not found")
		return
	}

	title := ""
	for _, rt := range req.Properties.Title.Title {
		if rt.PlainText != "" {
			title += rt.PlainText
		} else {
			title += rt.Text.Content
		}
	}
	if f.failTitles[title] {
		writeAPIError(w, http.StatusInternalServerError, "internal_server_error", "induced failure")
		return
	}

	page := f.newPageLocked(parent.id, title)
	for _, raw := range req.Children {
		f.insertBlockLocked(page.id, raw)
	}
	writeJSON(w, f.pageJSONLocked(page))
}

func (f *fakeNotion) handleGetPage(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	page, ok := f.pages[r.PathValue("id")]
	if !ok || page.archived {
		writeAPIError(w, http.StatusNotFound, "object_not_found", "page not found")
		return
	}
	writeJSON(w, f.pageJSONLocked(page))
}

func (f *fakeNotion) handleListChildren(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	ids, ok := f.childrenOfLocked(r.PathValue("id"))
	if !ok {
		writeAPIError(w, http.StatusNotFound, "object_not_found", "block not found")
		return
	}

	start := 0
	if c := r.URL.Query().Get("start_cursor"); c != "" {
		start, _ = strconv.Atoi(c)
	}
	size := 100
	if s := r.URL.Query().Get("page_size"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			size = n
		}
	}
	end := start + size
	if end > len(ids) {
		end = len(ids)
	}
	if start > len(ids) {
		start = len(ids)
	}

	results := []map[string]any{}
	for _, bid := range ids[start:end] {
		results = append(results, f.blockJSONLocked(f.blocks[bid]))
	}
	resp := map[string]any{
		"object":      "list",
		"results":     results,
		"has_more":    end < len(ids),
		"next_cursor": "",
	}
	if end < len(ids) {
		resp["next_cursor"] = strconv.Itoa(end)
	}
	writeJSON(w, resp)
}

func (f *fakeNotion) handleAppendChildren(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Children []map[string]any `json:"children"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	id := r.PathValue("id")
	if _, ok := f.childrenOfLocked(id); !ok {
		writeAPIError(w, http.StatusNotFound, "object_not_found", "block not found")
		return
	}
	for _, raw := range req.Children {
		f.insertBlockLocked(id, raw)
	}
	f.touchOwnerLocked(id)
	writeJSON(w, map[string]any{"object": "list", "results": []any{}})
}

func (f *fakeNotion) handleDeleteBlock(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	blk, ok := f.blocks[r.PathValue("id")]
	if !ok || blk.archived {
		writeAPIError(w, http.StatusNotFound, "object_not_found", "block not found")
		return
	}

	blk.archived = true
	f.removeChildLocked(blk.parentID, blk.id)
	if page, ok := f.pages[blk.id]; ok {
		// Deleting a child_page block archives the page it anchors.
		page.archived = true
	}
	f.touchOwnerLocked(blk.parentID)
	writeJSON(w, f.blockJSONLocked(blk))
}

// newPageLocked creates a page and, for non-root pages, the child_page
// block that anchors it in its parent. The block id is the page id.
func (f *fakeNotion) newPageLocked(parentID, title string) *fakePage {
	page := &fakePage{
		id:         f.newIDLocked("page"),
		title:      title,
		parentID:   parentID,
		lastEdited: time.Now().UTC(),
	}
	f.pages[page.id] = page
	if parentID != "" {
		f.blocks[page.id] = &fakeBlock{
			id:       page.id,
			parentID: parentID,
			typ:      "child_page",
			payload:  map[string]any{"title": title},
		}
		f.appendChildLocked(parentID, page.id)
	}
	return page
}

// insertBlockLocked stores one block under a parent. Inline children in
// the payload are split into blocks of their own, as the real API does.
func (f *fakeNotion) insertBlockLocked(parentID string, raw map[string]any) string {
	typ, _ := raw["type"].(string)
	payload, _ := raw[typ].(map[string]any)
	if payload == nil {
		payload = map[string]any{}
	}

	blk := &fakeBlock{
		id:       f.newIDLocked("block"),
		parentID: parentID,
		typ:      typ,
		payload:  payload,
	}
	f.blocks[blk.id] = blk
	f.appendChildLocked(parentID, blk.id)

	if nested, ok := payload["children"].([]any); ok {
		delete(payload, "children")
		for _, c := range nested {
			if cm, ok := c.(map[string]any); ok {
				f.insertBlockLocked(blk.id, cm)
			}
		}
	}
	return blk.id
}

func (f *fakeNotion) appendChildLocked(parentID, blockID string) {
	if p, ok := f.pages[parentID]; ok {
		p.children = append(p.children, blockID)
		return
	}
	if b, ok := f.blocks[parentID]; ok {
		b.children = append(b.children, blockID)
	}
}

func (f *fakeNotion) removeChildLocked(parentID, blockID string) {
	filter := func(ids []string) []string {
		out := ids[:0]
		for _, id := range ids {
			if id != blockID {
				out = append(out, id)
			}
		}
		return out
	}
	if p, ok := f.pages[parentID]; ok {
		p.children = filter(p.children)
		return
	}
	if b, ok := f.blocks[parentID]; ok {
		b.children = filter(b.children)
	}
}

func (f *fakeNotion) childrenOfLocked(id string) ([]string, bool) {
	if p, ok := f.pages[id]; ok && !p.archived {
		return p.children, true
	}
	if b, ok := f.blocks[id]; ok && !b.archived {
		return b.children, true
	}
	return nil, false
}

// touchOwnerLocked bumps the last-edited time of the page owning a
// block, following parent links up from nested blocks.
func (f *fakeNotion) touchOwnerLocked(id string) {
	for i := 0; i < 64; i++ {
		if p, ok := f.pages[id]; ok {
			p.lastEdited = time.Now().UTC()
			return
		}
		b, ok := f.blocks[id]
		if !ok {
			return
		}
		id = b.parentID
	}
}

func (f *fakeNotion) newIDLocked(kind string) string {
	f.nextID++
	return kind + "-" + strconv.Itoa(f.nextID)
}

func (f *fakeNotion) pageJSONLocked(p *fakePage) map[string]any {
	parent := map[string]any{"type": "workspace", "workspace": true}
	if p.parentID != "" {
		parent = map[string]any{"type": "page_id", "page_id": p.parentID}
	}
	return map[string]any{
		"object":           "page",
		"id":               p.id,
		"created_time":     p.lastEdited,
		"last_edited_time": p.lastEdited,
		"archived":         p.archived,
		"parent":           parent,
		"properties": map[string]any{
			"title": map[string]any{
				"id":    "title",
				"type":  "title",
				"title": []any{textSpan(p.title)},
			},
		},
		"url": "https://fake.notion.test/" + p.id,
	}
}

func (f *fakeNotion) blockJSONLocked(b *fakeBlock) map[string]any {
	out := map[string]any{
		"object":       "block",
		"id":           b.id,
		"type":         b.typ,
		"has_children": len(b.children) > 0,
		"archived":     b.archived,
	}
	payload := b.payload
	if b.typ == "child_page" {
		if p, ok := f.pages[b.id]; ok {
			payload = map[string]any{"title": p.title}
			out["has_children"] = len(p.children) > 0
			out["last_edited_time"] = p.lastEdited
		}
	}
	out[b.typ] = payload
	return out
}

func textSpan(content string) map[string]any {
	return map[string]any{
		"type":       "text",
		"text":       map[string]any{"content": content},
		"plain_text": content,
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeAPIError(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"object":  "error",
		"status":  status,
		"code":    code,
		"message": msg,
	})
}

// addPage seeds a remote page directly, bypassing the API. An empty
// parentID makes a root page.
func (f *fakeNotion) addPage(parentID, title string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.newPageLocked(parentID, title).id
}

// setParagraphs replaces a page's content with one paragraph per text,
// leaving child pages in place, and bumps its last-edited time.
func (f *fakeNotion) setParagraphs(pageID string, texts ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	p := f.pages[pageID]
	var kept []string
	for _, id := range p.children {
		if b := f.blocks[id]; b != nil && b.typ == "child_page" {
			kept = append(kept, id)
		}
	}
	p.children = kept
	for _, text := range texts {
		f.insertBlockLocked(pageID, map[string]any{
			"type": "paragraph",
			"paragraph": map[string]any{
				"rich_text": []any{any(textSpan(text))},
			},
		})
	}
	p.lastEdited = time.Now().UTC()
}

// setEdited overrides a page's last-edited time.
func (f *fakeNotion) setEdited(pageID string, at time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pages[pageID].lastEdited = at
}

// createCalls counts page creations seen so far.
func (f *fakeNotion) createCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == "POST /v1/pages" {
			n++
		}
	}
	return n
}

// pageIDByTitle finds a live page by title, empty when absent.
func (f *fakeNotion) pageIDByTitle(title string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.pages {
		if p.title == title && !p.archived {
			return p.id
		}
	}
	return ""
}

func (f *fakeNotion) pageParent(id string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.pages[id]; ok {
		return p.parentID
	}
	return ""
}

// pageText flattens every rich_text span stored under a page into one
// string, descending through nested blocks.
func (f *fakeNotion) pageText(pageID string) string {
	f.mu.Lock()
	defer f.mu.Unlock()

	var b strings.Builder
	var walk func(ids []string)
	walk = func(ids []string) {
		for _, id := range ids {
			blk := f.blocks[id]
			if blk == nil || blk.typ == "child_page" {
				continue
			}
			collectText(&b, blk.payload)
			walk(blk.children)
		}
	}
	if p, ok := f.pages[pageID]; ok {
		walk(p.children)
	}
	return b.String()
}

// mentionsIn collects the page ids mentioned anywhere in a page's rich
// text.
func (f *fakeNotion) mentionsIn(pageID string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []string
	var walk func(ids []string)
	walk = func(ids []string) {
		for _, id := range ids {
			blk := f.blocks[id]
			if blk == nil || blk.typ == "child_page" {
				continue
			}
			for _, span := range spansOf(blk.payload) {
				if m, ok := span["mention"].(map[string]any); ok {
					if pg, ok := m["page"].(map[string]any); ok {
						if pid, ok := pg["id"].(string); ok {
							out = append(out, pid)
						}
					}
				}
			}
			walk(blk.children)
		}
	}
	if p, ok := f.pages[pageID]; ok {
		walk(p.children)
	}
	return out
}

func spansOf(payload map[string]any) []map[string]any {
	var out []map[string]any
	if rts, ok := payload["rich_text"].([]any); ok {
		for _, rt := range rts {
			if span, ok := rt.(map[string]any); ok {
				out = append(out, span)
			}
		}
	}
	if cells, ok := payload["cells"].([]any); ok {
		for _, cell := range cells {
			if spans, ok := cell.([]any); ok {
				for _, rt := range spans {
					if span, ok := rt.(map[string]any); ok {
						out = append(out, span)
					}
				}
			}
		}
	}
	return out
}

func collectText(b *strings.Builder, payload map[string]any) {
	for _, span := range spansOf(payload) {
		if pt, ok := span["plain_text"].(string); ok && pt != "" {
			b.WriteString(pt)
			continue
		}
		if txt, ok := span["text"].(map[string]any); ok {
			if c, ok := txt["content"].(string); ok {
				b.WriteString(c)
			}
		}
	}
}
