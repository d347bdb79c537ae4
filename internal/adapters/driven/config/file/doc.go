// Package file provides file-based implementations of driven port interfaces.
// These adapters persist data under the docs-agent data directory.
//
// Adapters:
//   - ConfigStore: TOML configuration with dot-notation keys
//   - PromptStore: user-editable answer prompts, hot-reloaded with fsnotify
//   - ProjectStore: the projects.json registry
package file
