// Package system runs the external commands the daemon depends on.
//
// Every interaction with the operating system (systemctl for services, nmcli
// for the radio) goes through the Runner interface so that the supervisor and
// the wifi package can be tested against fakes. ExecRunner is the production
// implementation built on os/exec.
//
// A Run call always returns a non-nil *Result describing what happened. The
// error return is a *CommandError when the command could not start or exited
// non-zero, and a *TimeoutError when the per-command timeout expired.
package system
