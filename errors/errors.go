package errors

import (
	"fmt"
	"strings"
)

// Phase indicates which component raised the error.
type Phase string

const (
	PhaseContext    Phase = "context"    // module graph / compilation context lookups
	PhaseTypeStack  Phase = "type_stack" // compile-time type stack discipline
	PhaseTranslate  Phase = "translate"  // per-opcode bytecode translation
	PhaseABI        Phase = "abi"        // ABI pack/unpack code generation
	PhaseDispatch   Phase = "dispatch"   // selector table / entry point assembly
	PhaseNative     Phase = "native"     // native function and VM-handled-type resolution
)

// Kind categorizes the error within its Phase, mirroring §7's taxonomy.
type Kind string

const (
	// Context errors.
	KindModuleNotFound    Kind = "module_not_found"
	KindStructNotFound    Kind = "struct_not_found"
	KindEnumNotFound      Kind = "enum_not_found"
	KindSignatureNotFound Kind = "signature_not_found"
	KindExpectedStruct    Kind = "expected_struct"
	KindVariantHandleMismatch Kind = "variant_handle_mismatch"

	// Type-stack errors.
	KindEmptyStack          Kind = "empty_stack"
	KindEmptyStackExpecting Kind = "empty_stack_expecting"
	KindTypeMismatch        Kind = "type_mismatch"
	KindExpectedNElements   Kind = "expected_n_elements"
	KindMatchError          Kind = "match_error"

	// Translation errors.
	KindInvalidBinaryOperation         Kind = "invalid_binary_operation"
	KindInvalidOperation               Kind = "invalid_operation"
	KindUnsupportedOperation           Kind = "unsupported_operation"
	KindOperationTypeMismatch          Kind = "operation_type_mismatch"
	KindVectorInnerTypeNumberError     Kind = "vector_inner_type_number_error"
	KindFoundReferenceInsideStruct     Kind = "found_reference_inside_struct"
	KindFoundTypeParameterInsideStruct Kind = "found_type_parameter_inside_struct"
	KindPackingGenericEnumVariant      Kind = "packing_generic_enum_variant"

	// Native / VM-handled-type errors.
	KindInvalidVMHandledType Kind = "invalid_vm_handled_type"
)

// Error is the structured error type threaded through every phase of
// compilation. It carries enough context (Path, Detail) that a failure
// names exactly where in the module graph or bytecode it occurred, per
// §7's policy: "errors surface upward with full context".
type Error struct {
	Cause  error
	Phase  Phase
	Kind   Kind
	Detail string
	Path   []string
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Cause }

// Is reports whether target matches this error's Phase and Kind, ignoring
// Path/Detail/Cause — callers compare against errors.New(phase,
// kind).Build() sentinels with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Phase == t.Phase && e.Kind == t.Kind
}

// Builder provides fluent structured error construction:
// errors.New(errors.PhaseContext, errors.KindModuleNotFound).Path("0x1::coin").Build()
type Builder struct {
	err Error
}

func New(phase Phase, kind Kind) *Builder {
	return &Builder{err: Error{Phase: phase, Kind: kind}}
}

func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

func (b *Builder) Detail(format string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(format, args...)
	} else {
		b.err.Detail = format
	}
	return b
}

func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors, one per common shape.

func ModuleNotFound(path ...string) *Error {
	return New(PhaseContext, KindModuleNotFound).Path(path...).Build()
}

func StructNotFound(path ...string) *Error {
	return New(PhaseContext, KindStructNotFound).Path(path...).Build()
}

func EnumNotFound(path ...string) *Error {
	return New(PhaseContext, KindEnumNotFound).Path(path...).Build()
}

func SignatureNotFound(path ...string) *Error {
	return New(PhaseContext, KindSignatureNotFound).Path(path...).Build()
}

func ExpectedStruct(path ...string) *Error {
	return New(PhaseContext, KindExpectedStruct).Path(path...).Build()
}

func EmptyStack(path ...string) *Error {
	return New(PhaseTypeStack, KindEmptyStack).Path(path...).Build()
}

func EmptyStackExpecting(expected string, path ...string) *Error {
	return New(PhaseTypeStack, KindEmptyStackExpecting).Path(path...).Detail("expecting %s", expected).Build()
}

func TypeMismatch(expected, found string, path ...string) *Error {
	return New(PhaseTypeStack, KindTypeMismatch).Path(path...).Detail("expected %s, found %s", expected, found).Build()
}

func ExpectedNElements(n int, path ...string) *Error {
	return New(PhaseTypeStack, KindExpectedNElements).Path(path...).Detail("expected %d elements", n).Build()
}

func MatchError(expectedKind, found string, path ...string) *Error {
	return New(PhaseTypeStack, KindMatchError).Path(path...).Detail("expected kind %s, found %s", expectedKind, found).Build()
}

func UnsupportedOperation(opcode string, path ...string) *Error {
	return New(PhaseTranslate, KindUnsupportedOperation).Path(path...).Detail("unsupported opcode %s", opcode).Build()
}

func InvalidOperation(detail string, path ...string) *Error {
	return New(PhaseTranslate, KindInvalidOperation).Path(path...).Detail(detail).Build()
}

func InvalidBinaryOperation(op, lhs, rhs string, path ...string) *Error {
	return New(PhaseTranslate, KindInvalidBinaryOperation).Path(path...).
		Detail("%s not valid between %s and %s", op, lhs, rhs).Build()
}

func OperationTypeMismatch(op, found string, path ...string) *Error {
	return New(PhaseTranslate, KindOperationTypeMismatch).Path(path...).
		Detail("%s does not accept %s", op, found).Build()
}

func VectorInnerTypeNumberError(path ...string) *Error {
	return New(PhaseTranslate, KindVectorInnerTypeNumberError).Path(path...).Build()
}

func FoundReferenceInsideStruct(path ...string) *Error {
	return New(PhaseTranslate, KindFoundReferenceInsideStruct).Path(path...).Build()
}

func FoundTypeParameterInsideStruct(path ...string) *Error {
	return New(PhaseTranslate, KindFoundTypeParameterInsideStruct).Path(path...).Build()
}

func PackingGenericEnumVariant(path ...string) *Error {
	return New(PhaseTranslate, KindPackingGenericEnumVariant).Path(path...).Build()
}

func InvalidVMHandledType(identifier string, path ...string) *Error {
	return New(PhaseNative, KindInvalidVMHandledType).Path(path...).
		Detail("%s must originate from the framework address", identifier).Build()
}
