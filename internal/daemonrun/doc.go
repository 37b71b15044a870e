// Package daemonrun assembles a complete runner process: logger, metrics,
// queue database, segment store registry, workflow pools and the daemon
// lifecycle. cmd/musica calls Run for the "run" command.
package daemonrun
