// Package wifi talks to the client-mode radio: it scans for visible networks
// and joins one with credentials.
//
// The Radio interface abstracts the three primitives the daemon needs from
// the connection manager (request a rescan, list visible networks, connect).
// NMCLI implements it on top of NetworkManager's command line client.
//
// # Scanning
//
// Scanner.Scan requests a rescan once per RescanInterval for the requested
// number of seconds and then lists the results once. Periodic rescans give
// fresher results than a single long wait. Listing output looks like:
//
//	SSID             SIGNAL
//	Cafe             80
//	My House WiFi    62
//	--               30
//
// The first line is a header. SSIDs may contain spaces, so each line is split
// on its last whitespace run. Unparseable lines and hidden networks are
// dropped. A failed listing yields an empty result, not an error.
//
// # Joining
//
// Joiner.Join waits DaemonSettleDelay for freshly started daemons to
// enumerate the radio, requests a rescan, waits ScanSettleDelay, then issues
// one connect request. It never retries.
//
// Neither Scanner nor Joiner starts or stops daemons; the caller must have
// the client daemons running already.
package wifi
