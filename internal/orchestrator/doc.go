// Package orchestrator arbitrates the single wireless radio between serving
// the device's own access point and acting as a client of another network.
//
// The Orchestrator is a four-mode state machine:
//
//	ap_serving ──RequestScan──▶ scanning ──▶ ap_serving (+ scanComplete)
//	ap_serving ──RequestJoin──▶ joining  ──▶ client_connected (success)
//	                                     └─▶ ap_serving (rollback on failure)
//	client_connected ──ReturnToAP──▶ ap_serving
//
// Requests are admitted only while the radio is serving the access point and
// nothing else is in flight; everything else is rejected with ErrBusy. Scans
// and joins run in the background and their results are delivered through a
// Publisher, never through the request's return value.
package orchestrator
