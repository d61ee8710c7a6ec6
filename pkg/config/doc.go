// Package config loads typed configuration structs from environment
// variables, with an optional .env file for local development. Each config
// type is parsed once and cached for the process lifetime, so packages can
// load their own config independently without re-reading the environment.
package config
