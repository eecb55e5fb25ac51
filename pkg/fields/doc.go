// Package fields lists the variable names a node exposes to downstream nodes.
//
// Each node kind has its own extractor, registered in a Registry. An extractor
// may decline a node (for example a JSON node with no JSON text), in which case
// the output schema rule and then the declared outputs are tried. Extraction is
// pure: malformed configuration degrades to an empty or partial list and never
// surfaces as an error.
package fields
