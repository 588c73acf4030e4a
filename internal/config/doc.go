// Package config loads YAML parser descriptions.
//
// YAML Schema:
//
//	version: "1"
//	root: LINE
//	dissectors:
//	  - name: columns
//	    input: LINE
//	    settings: "sep= ;fields=MOD_UNIQUE_ID:id,TIME.STAMP:time"
//	  - name: timestamp
//	    settings: "[dd/MMM/yyyy:HH:mm:ss ZZ]"
//	prefer:
//	  TIME.STAMP: timestamp
//	fields:
//	  - field: TIME.EPOCH:time.epoch
//	    casts: [text, integer]
//	    policy: not_null
//	  - field: IP:id.ip
package config
