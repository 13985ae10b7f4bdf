package photoblog

import "embed"

// EmbeddedAssets holds the static files served under /public/ (style.css).
//
//go:embed embedded/*
var EmbeddedAssets embed.FS
