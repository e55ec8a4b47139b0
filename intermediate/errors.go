package intermediate

import "fmt"

func errWrongArgCount(name string, want, got int) error {
	return fmt.Errorf("intermediate: %s expects %d type arguments, got %d", name, want, got)
}

func errNonConcreteTypeArg(name string, arg Type) error {
	return fmt.Errorf("intermediate: %s instantiated with non-concrete type argument %s", name, arg)
}

func errf(format string, args ...any) error {
	return fmt.Errorf(format, args...)
}
