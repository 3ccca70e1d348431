// Package discovery advertises the hotspoter portal over mDNS and finds
// other hotspoter devices on the local network.
//
// # Advertisement
//
// The daemon registers an "_http._tcp" service named "<hostname>-hotspoter"
// with these TXT records:
//
//	path=/           portal root
//	app=hotspoter    marks the service as ours
//	mode=ap_serving  current radio mode
//
// After a successful join the device is on a different network, so the
// Advertiser re-registers once the new link has settled. This is how a user
// finds the device again after provisioning it.
//
// # Discovery
//
// Browser collects advertisements for a fixed timeout and keeps only those
// carrying app=hotspoter:
//
//	devices, err := discovery.NewBrowser().Browse(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, device := range devices {
//	    fmt.Println(device.BaseURL())
//	}
//
// # Network Requirements
//
// - Requires multicast support on the network interface
// - Firewall must allow mDNS (UDP port 5353)
package discovery
