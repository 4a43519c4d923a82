// Package overlay applies overlay documents to contract documents before
// they are loaded.
//
// An overlay is a YAML (or JSON) document with an ordered list of actions.
// Each action selects nodes with a JSONPath target and either merges an
// update into them or removes them:
//
//	overlay: 1.0.0
//	info:
//	  title: tenant header
//	  version: "1"
//	actions:
//	  - target: $.scenarios[*].request.headers
//	    update:
//	      X-Tenant: (number)
//	  - target: $.scenarios[?(@.name == 'legacy')]
//	    remove: true
//
// Updates merge objects recursively, append to arrays and replace scalars.
// Actions whose target matches nothing are skipped with a warning unless
// the Applier is strict.
package overlay
