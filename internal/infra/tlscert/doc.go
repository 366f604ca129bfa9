// Package tlscert serves HTTPS certificates that reload from disk.
//
// A Reloader loads a PEM key pair once at startup, presents it through
// tls.Config.GetCertificate and swaps it in place when fsnotify reports a
// write to either file. A failed reload keeps the previous certificate.
package tlscert
