package template

// guideTemplate is the built-in scaffold for task-oriented guides.
const guideTemplate = `# {{.Title}}

{{.Summary}}

## Before You Start

List what the reader needs in place before following this guide.

## Steps

1. Describe the first step.
2. Describe the next step.
3. Close with how to confirm the result.
{{- if .Topics}}

## Covers
{{range .Topics}}
- {{.}}{{- end}}
{{- end}}

## Troubleshooting

Note the failure modes readers hit most often and how to get unstuck.
`

// referenceTemplate is the built-in scaffold for reference pages.
const referenceTemplate = `# {{.Title}}

{{.Summary}}

## Overview

Summarize what this page documents and who it is for.

## Details

| Name | Description |
| --- | --- |
| Example | What it does and when to reach for it |
{{- if .Topics}}

## Related
{{range .Topics}}
- {{.}}{{- end}}
{{- end}}

_Last reviewed {{.Date.Format "2 January 2006"}}._
`

// indexTemplate is the built-in scaffold for directory index documents.
const indexTemplate = `# {{.Title}}

{{.Summary}}

## In This Section

Link the documents that live in this directory so readers can find them
from the section page.

- Add entries as documents land here.

## About

Describe how this section is organized and where new documents belong.
`
