// Package field names the values inside a dissected record.
//
// Every value has a type and a dot-separated path. The record itself is the
// root with an empty path; a dissector reading "TIME.STAMP:request.receive.time"
// writes its "epoch" leaf to "TIME.EPOCH:request.receive.time.epoch".
//
// Path Syntax:
//   - Simple leaf: "IP:connection.client.host"
//   - Wildcard as the last segment: "STRING:request.firstline.uri.query.*"
package field
