// Package configs embeds the annotated configuration template written by
// `cranir config init`.
package configs

import _ "embed"

// ConfigTemplate documents every configuration key with its default.
// It is valid both as the user config (~/.config/cranir/config.yaml) and
// as a project file (.cranir.yaml).
//
//go:embed config.example.yaml
var ConfigTemplate string
