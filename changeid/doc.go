// Package changeid validates declarations annotated with @compatgo.ChangeID
// and writes them out as compat config XML documents, one per owning type.
//
// A valid change ID is a package-level int64 constant:
//
//	// Frobnicate widgets using the new algorithm.
//	//
//	// @compatgo.ChangeID
//	// @compatgo.EnabledSince{TargetSdkVersion: 31}
//	const FrobnicateWidgets int64 = 174228127
//
// Constants typed with a named type declared in the same package are owned by
// that type; the rest are owned by the package. Each owner gets a document
// named "<Type>_compat_config.xml" (or "compat_config.xml" for the package)
// in the owner's package namespace:
//
//	<?xml version="1.0" encoding="UTF-8" standalone="no"?>
//	<config><compat-change description="Frobnicate widgets using the new algorithm." enableSinceTargetSdk="31" id="174228127" name="FrobnicateWidgets"><meta-data definedIn="example.com/widgets" sourcePosition="widgets/widgets.go:3"/></compat-change></config>
package changeid
