// Package config loads and validates the wdglance configuration.
//
// Two files are involved. The server configuration (conf.json) holds the
// listening address, backend transport options, the word distribution
// databases and the optional korpus API credentials. The client
// configuration (wdglance.json) declares the tiles, their backends and the
// dashboard layout. Both may be written in JSON or YAML.
package config
