// Parses flags and configures logging for the balena-preload CLI.
//
// Every preload option is paired with an environment variable (e.g.
// --app with APP_ID); flags take precedence. After parsing, the global
// logger is reconfigured to reflect the final level, the configuration
// is validated, and the preload run is started.
package cli
