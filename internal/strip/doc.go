// Package strip implements the strip state: a store of marker→value bindings
// used to hide spans of text behind opaque marker tokens while the rest of
// the text flows through further rewriting passes, and to put the hidden
// content back afterwards.
//
// # Markers
//
// A marker token is Prefix + identifier + Suffix. The delimiters are
// process-wide constants and the identifier excludes the bytes
// 0x7f < > & ' " so that a token can never be mistaken for markup:
//
//	tok := strip.Marker("nowiki-00000001")
//	st := strip.New()
//	_ = st.AddNoWiki(tok, strip.Text("<b>raw</b>"))
//	out, _ := st.UnstripBoth("before " + tok + " after")
//	// out == "before <b>raw</b> after"
//
// # Categories
//
// Bindings are partitioned into NoWiki (content never reparsed as markup)
// and General (everything else). UnstripBoth resolves NoWiki first, then
// General.
//
// # Resolution
//
// Bound values may contain further markers of the same category; they are
// resolved recursively. A marker already being resolved higher up the call
// stack is replaced by a loop warning span, and recursion deeper than the
// configured limit (DefaultRecursionLimit) is replaced by a limit span. The
// guard and depth counter belong to a single top-level call and are never
// stored on the State.
//
// # Algebra
//
// SubState carves out the bindings a text fragment references. Merge absorbs
// another State under freshly tagged identifiers and rewrites the markers in
// the accompanying texts to match.
//
// A State is not safe for concurrent use.
package strip
