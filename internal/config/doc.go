// Package config loads the autoseq config file (JSON or YAML), validates it
// and hot-reloads it. WatchFile is shared with the script watcher.
package config
