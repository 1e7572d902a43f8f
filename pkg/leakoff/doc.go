// Package leakoff computes steam and air leak-off through the annular
// clearances of a turbine valve stem.
//
// normalize.go turns catalog geometry (mm) and request data (any supported
// pressure unit) into SI working values and validates them.
//
// clearance.go holds the only root finder: a bounded bisection over gap
// velocity that makes the friction and loss corrected discharge equation
// self-consistent for one section.
//
// cascade.go walks sections 1..N through a fixed descriptor table, and
// mixing.go combines the section flows at the deaerator and ejector taps.
// result.go assembles the caller-facing record.
//
// Everything here is pure: a Calculator holds only immutable configuration
// and an injected Properties provider, so one value can serve concurrent
// requests.
package leakoff
