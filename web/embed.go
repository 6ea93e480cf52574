// Package web embeds the static browser UI served by the HTTP server.
package web

import "embed"

//go:embed static/*
var StaticFS embed.FS
