// Package world defines the compiled world definition consumed by the
// runtime engine.
//
// A Definition is produced by an external compiler and loaded once per
// session. It is immutable after load: the engine never writes back into
// it, and all mutable session state lives elsewhere.
//
// DESIGN RULES:
//
// Closed variants:
// Conditions and effects are closed tagged-variant types. Every variant
// the engine can evaluate is declared here, and unknown kinds are
// rejected while decoding the document - never at evaluation time. This
// keeps the evaluators total: once a Definition decodes and validates,
// evaluation cannot encounter an unrecognised shape.
//
// No floats:
// Property values are Null, Str, Int, or Bool. Floats are forbidden
// because they break cross-host determinism (rounding and formatting
// differ between platforms and serializers). The decoder rejects any
// non-integral JSON number.
//
// Load-time rejection:
// Validate checks every cross-reference in the definition (entities,
// locations, sections, actions, rules, properties) and collects all
// errors instead of failing fast. A definition that validates cleanly
// can be executed without reference errors; one that does not is
// rejected wholesale and no session starts.
package world
