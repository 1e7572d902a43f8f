// Package service runs leak-off calculations on behalf of the API: it resolves
// the valve from the catalog, consults the result cache, runs the calculator
// inside a trace span, stores the record, publishes it on the live feed and
// evaluates alert rules.
package service
