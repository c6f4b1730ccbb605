// Provides platform-appropriate paths for per-run state.
//
// All paths follow XDG conventions on Linux and platform-native conventions
// on macOS and Windows. The tool name "balena-preload" is used as the
// subdirectory under each base path.
package paths
