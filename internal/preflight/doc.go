// Package preflight provides readiness checks for the filesystem paths and
// listen address the runner depends on.
//
// These checks run in two contexts:
//   - daemonrun calls RunAll before taking the runner lock and refuses to
//     start when any check fails.
//   - The CLI "config validate" command prints every result as a table.
package preflight
