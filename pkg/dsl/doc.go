// Package dsl provides a fluent builder for assembling protocol
// definitions in Go code, as an alternative to YAML documents. It is
// mainly used by tests and by embedders that generate measurement
// sequences programmatically:
//
//	def, err := dsl.New("led-iv").
//		Step("smu/connect").Param("backend", "mock").
//		Step("smu/sweep").
//			Param("start", 0).Param("stop", 8).Param("points", 41).
//			Capture("iv").
//		Step("data/save").Param("data", "$iv").
//		Step("smu/disconnect").
//		Build()
//
// Build validates the result with the same rules the loader applies to
// YAML documents.
package dsl
