// Package compatgo holds the annotation types used to declare compatibility
// changes and the runtime registry that generated code populates.
//
// Annotations are written in doc comments, after any descriptive text:
//
//	// Frobnicate widgets using the new algorithm.
//	//
//	// @compatgo.ChangeID
//	// @compatgo.EnabledSince{TargetSdkVersion: 31}
//	const FrobnicateWidgets int64 = 174228127
//
// The annotation block starts at the first line that holds only an annotation
// name, optionally followed by its value. Prose lines such as "@see Other"
// stay part of the description.
//
// The compatgo tool validates these declarations and writes a compat config
// XML document per owning type (see the changeid package).
package compatgo

// ChangeID marks an int64 constant as the identifier of a compatibility change.
// The constant's name becomes the change name and its doc comment (minus any
// annotations and @hide lines) becomes the change description.
type ChangeID struct {
	// OverrideSourcePosition replaces the computed position of the annotation
	// in generated output. It must have the form
	// "file:startline:startcol:endline:endcol".
	OverrideSourcePosition string
}

// Disabled marks a change that is disabled for all apps. It may not be
// combined with EnabledAfter or EnabledSince.
type Disabled bool

// EnabledAfter marks a change that is enabled only for apps whose target SDK
// is strictly greater than TargetSdkVersion.
type EnabledAfter struct {
	TargetSdkVersion int
}

// EnabledSince marks a change that is enabled for apps whose target SDK is
// greater than or equal to TargetSdkVersion. Prefer it over EnabledAfter.
type EnabledSince struct {
	TargetSdkVersion int
}

// LoggingOnly marks a change that is only logged and never gates behavior.
// It may not be combined with any other enablement annotation.
type LoggingOnly bool

// Overridable marks a change that can be overridden on production builds.
type Overridable bool

// UnsupportedAppUsage marks an API that is not part of the supported surface
// but is known to be used by apps. Annotated elements are recorded in a CSV
// index (see the appusage package).
type UnsupportedAppUsage struct {
	MaxTargetSdk       int
	TrackingBug        int64
	ImplicitMember     string
	PublicAlternatives string
	ExpectedSignature  string
	// OverrideSourcePosition has the same meaning as ChangeID's.
	OverrideSourcePosition string
}

// Compatibility is the type through which code reports and queries changes.
// Change IDs passed directly as arguments to its methods are not themselves
// treated as annotated declarations.
type Compatibility interface {
	ReportChange(changeID int64)
	IsChangeEnabled(changeID int64) bool
}
