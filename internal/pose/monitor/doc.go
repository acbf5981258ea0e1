// Package monitor renders offline traces of a processed session: PNG
// line plots via gonum/plot and an interactive HTML chart via go-echarts.
//
// It consumes pipeline.Metrics and never feeds anything back into a
// Session.
package monitor
