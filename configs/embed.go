// Package configs provides the embedded configuration template written
// by `munin init`. Embedding at build time keeps the template available
// in every distribution, source builds included.
package configs

import _ "embed"

// ConfigTemplate is the annotated starter configuration.
//
//go:embed munin.example.yaml
var ConfigTemplate string
