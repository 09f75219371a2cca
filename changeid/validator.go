package changeid

import (
	"reflect"

	"github.com/jhump/compatgo"
	"github.com/jhump/compatgo/processor"
)

var (
	changeIDType     = processor.TypeName(compatgo.ChangeID{})
	disabledType     = processor.TypeName(compatgo.Disabled(false))
	enabledAfterType = processor.TypeName(compatgo.EnabledAfter{})
	enabledSinceType = processor.TypeName(compatgo.EnabledSince{})
	loggingOnlyType  = processor.TypeName(compatgo.LoggingOnly(false))
	overridableType  = processor.TypeName(compatgo.Overridable(false))

	compatibilityType = func() string {
		rt := reflect.TypeOf((*compatgo.Compatibility)(nil)).Elem()
		return rt.PkgPath() + "." + rt.Name()
	}()
)

const (
	msgNonField    = "Non FIELD element annotated with @ChangeID."
	msgNonConstant = "Non constant/final variable annotated with @ChangeID."
	msgNotInt64    = "Variables annotated with @ChangeID must be of type int64."
	msgNonStatic   = "Non static variable annotated with @ChangeID."

	msgDisabledAndEnabled   = "ChangeID cannot be annotated with both @Disabled and (@EnabledAfter | @EnabledSince)."
	msgLoggingOnlyAndOther  = "ChangeID cannot be annotated with both @LoggingOnly and (@EnabledAfter | @EnabledSince | @Disabled)."
	msgEnabledAfterAndSince = "ChangeID cannot be annotated with both @EnabledAfter and @EnabledSince. Prefer using the latter."
	msgMissingTargetSdk     = "@%s must specify TargetSdkVersion."
	msgTargetSdkNotInteger  = "TargetSdkVersion of @%s must be an integer."
	msgDuplicateChangeID    = "Duplicate change id %d; it is already used by %s."
)

// SupportedAnnotations returns the annotation types this package handles.
func SupportedAnnotations() []string {
	return []string{changeIDType, disabledType, enabledAfterType, enabledSinceType, loggingOnlyType, overridableType}
}

// Options configure the change ID processor.
type Options struct {
	// Merged writes a single compat/compat_config.xml for the whole run
	// instead of one document per owner.
	Merged bool
	// GoRegistry also writes a <pkg>.compat.go file per package that
	// registers its changes with compatgo.RegisterChange.
	GoRegistry bool
	// PassThroughType is the qualified name of the type whose methods take
	// change IDs as plain arguments. Parameters of PassThroughMethods on that
	// type are not themselves treated as change IDs.
	PassThroughType    string
	PassThroughMethods []string
}

// DefaultOptions returns options that treat compatgo.Compatibility as the
// pass-through type.
func DefaultOptions() Options {
	return Options{
		PassThroughType:    compatibilityType,
		PassThroughMethods: []string{"ReportChange", "IsChangeEnabled"},
	}
}

// Validate checks that e has the shape of a change ID: a static, constant,
// int64 field. Every problem found is reported to msgr. It returns false if
// the element should not be built into a change.
func Validate(e *processor.Element, opts Options, msgr processor.Messager) bool {
	if isPassThroughArgument(e, opts) {
		return false
	}
	if e.Kind != processor.KindField {
		msgr.PrintMessage(processor.KindError, msgNonField, e)
		return false
	}
	ok := true
	if !e.Modifiers.Has(processor.ModFinal) || e.Constant == nil {
		msgr.PrintMessage(processor.KindError, msgNonConstant, e)
		ok = false
	}
	if e.Type != processor.TypeInt64 {
		msgr.PrintMessage(processor.KindError, msgNotInt64, e)
		ok = false
	}
	if !e.Modifiers.Has(processor.ModStatic) {
		msgr.PrintMessage(processor.KindError, msgNonStatic, e)
		ok = false
	}
	return ok
}

func isPassThroughArgument(e *processor.Element, opts Options) bool {
	if e.Kind != processor.KindParameter {
		return false
	}
	method := e.Enclosing
	if method == nil || method.Kind != processor.KindMethod || !contains(opts.PassThroughMethods, method.Name) {
		return false
	}
	owner := method.Enclosing
	if owner == nil || (owner.Kind != processor.KindClass && owner.Kind != processor.KindInterface) {
		return false
	}
	return owner.QualifiedName == opts.PassThroughType
}

func contains(strs []string, s string) bool {
	for _, str := range strs {
		if str == s {
			return true
		}
	}
	return false
}
