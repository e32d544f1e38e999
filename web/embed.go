package web

import "embed"

// StaticFS embeds the frontend assets served at the site root.
//
//go:embed static/*
var StaticFS embed.FS
