// Package supervisor starts and stops the network daemons that decide how the
// radio is used.
//
// Three systemd units are involved and they are mutually exclusive in pairs:
//
//   - the access point daemon (hostapd) serves the device's own network
//   - the connection manager (NetworkManager) scans and joins networks
//   - the supplicant (wpa_supplicant) performs the WPA handshake
//
// Ensure brings the live unit set in line with a Target. Every unit action is
// attempted even if an earlier one failed; the boolean result only reports
// whether all of them succeeded. Ensure never returns an error, the caller
// decides whether to proceed or roll back.
package supervisor
