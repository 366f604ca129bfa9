// Package confloader provides configuration loading mechanism.
//
// It loads YAML files and GOLDTODO_* environment variables through koanf
// and unmarshals them over a struct that already holds the defaults.
//
// Priority (highest to lowest):
//
//  1. Environment variables
//  2. Configuration file
//  3. Default values
//
// Watcher reports writes to a loaded file so that reloadable settings,
// such as the log level, can be applied without a restart.
package confloader
