// Package document loads strip fixtures: a text plus the bindings its
// markers refer to.
//
// Documents are written in YAML or CUE:
//
//	name: example
//	text: "before @@n1@@ after"
//	bindings:
//	  - category: nowiki
//	    id: n1
//	    value: "<b>raw</b>"
//	  - category: general
//	    id: g1
//	    value: "computed"
//	    lazy: true
//
// Writing the control bytes of a real marker token by hand is impractical,
// so the authoring sigil @@id@@ in the text and in values expands to
// strip.Marker(id). Lazy bindings become strip.Producer values that return
// the expanded value each time they run.
package document
