// Package gitrepo provides the Git operations the installer needs:
// cloning a remote repository, moving a working tree to a pinned tag, and
// inspecting where HEAD points afterwards.
//
// All Git operations are performed via os/exec calls to the git binary,
// rather than using a Git library like go-git. This approach:
//   - Avoids CGO dependencies (libgit2)
//   - Uses the exact same Git behavior (credentials, proxies, progress
//     output) the user sees in their terminal
//
// Clone and Checkout stream git's own output to the terminal; inspection
// methods capture stdout and return it.
package gitrepo
