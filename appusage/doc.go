// Package appusage indexes declarations annotated with
// @compatgo.UnsupportedAppUsage.
//
// For every owner (a package, or a type within it) that has annotated
// elements, a CSV file named "<Type>.uau" is written into the package's output
// namespace. Package-level declarations go in "<package name>.uau". Each line
// holds a signature, the source range of the annotation and its remaining
// arguments, URL-encoded:
//
//	signature,file,startline,startcol,endline,endcol,properties
//	example.com/util.Widget.Spin,util/widget.go,12,4,12,44,MaxTargetSdk=28&TrackingBug=1234
//
// A merged index of every entry, sorted by signature, is also written to
// "unsupportedappusage/unsupportedappusage_index.csv" unless disabled.
package appusage
