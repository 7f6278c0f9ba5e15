package model

import "time"

// RemotePage is the metadata the remote store reports for one page.
type RemotePage struct {
	// ID is the remote page identifier.
	ID string
	// Title is the page's title property, flattened to plain text.
	Title string
	// LastEditedAt is the remote store's last-edited timestamp.
	LastEditedAt time.Time
	// ParentID is the id of the parent page, empty when unknown or when
	// the page hangs directly off the workspace.
	ParentID string
}
