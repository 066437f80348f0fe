// Package logx wraps zerolog for autoseq. The console sink prints a short
// clock time and the caller's file:line; the optional file sink writes one
// JSON object per line. Service.Apply changes level and sinks while loggers
// derived from the Service are in use, which is how config reloads take
// effect.
package logx
