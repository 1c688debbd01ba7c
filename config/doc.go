// Package config loads the bookfinder service configuration.
//
// Values are layered with koanf: built-in defaults, then an optional YAML
// file, then BOOKFINDER_* environment variables. The result is validated
// with go-playground/validator struct tags.
//
// Example file:
//
//	database:
//	  path: /var/lib/bookfinder/catalog.db
//	ai:
//	  embedding_host: http://ollama:11434
//	  rerank_host: http://reranker:8080
//	search:
//	  top_n: 10
//	cache:
//	  enabled: true
//	  ttl: 10m
package config
