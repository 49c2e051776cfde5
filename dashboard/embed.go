// Package dashboard provides the embedded web UI assets for CadenceBoard.
//
// This package uses Go's embed directive to include the dashboard HTML, CSS,
// and JavaScript at compile time. This enables single-binary deployment
// without external asset files.
//
// The page is served by the server package at "/", the script and
// stylesheet under "/static/".
package dashboard

import "embed"

// Assets is an embedded filesystem containing the dashboard web UI.
//
// The filesystem structure is:
//
//	assets/
//	  index.html    - Dashboard page, {{.Title}} is substituted on serve
//	  script.js     - Polls /api/data every second and drives the reset button
//	  style.css     - Layout and the --cadence-rate gauge
//
//go:embed assets/*
var Assets embed.FS
