package appusage

import "github.com/jhump/compatgo/processor"

// Signer computes the signature under which an element is indexed. It returns
// false if the element has no signature, in which case it is left out of the
// index.
type Signer interface {
	Signature(e *processor.Element) (string, bool)
}

// SignerFunc adapts a function to the Signer interface.
type SignerFunc func(e *processor.Element) (string, bool)

// Signature implements Signer.
func (f SignerFunc) Signature(e *processor.Element) (string, bool) {
	return f(e)
}

// QualifiedNameSigner signs elements with their qualified name. Elements with
// no qualified name have no signature.
var QualifiedNameSigner Signer = SignerFunc(func(e *processor.Element) (string, bool) {
	return e.QualifiedName, e.QualifiedName != ""
})

// ExpectedSignatureSigner prefers the element's ExpectedSignature argument, if
// present, and otherwise defers to fallback.
func ExpectedSignatureSigner(fallback Signer) Signer {
	return SignerFunc(func(e *processor.Element) (string, bool) {
		if m, ok := e.FindAnnotation(annotationType); ok {
			if v, ok := m.Value("ExpectedSignature"); ok {
				if s, ok := v.AsString(); ok && s != "" {
					return s, true
				}
			}
		}
		return fallback.Signature(e)
	})
}
