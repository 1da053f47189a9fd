package ports

// Option is one selectable row in an interactive menu. Level carries the
// is-a distance for ancestor menus and is -1 when not applicable.
type Option struct {
	CUI   int64
	Label string
	Level int
}

// Presenter abstracts operator interaction during mapping sessions. The
// terminal adapter implements it over stdin/stdout; tests script it.
// Implementations must only report ok with an index inside the options
// slice.
type Presenter interface {
	// Select shows a numbered menu and returns the chosen index.
	// ok is false when the operator declines (blank input).
	Select(prompt string, options []Option) (index int, ok bool)

	// Input asks for a free-form line. ok is false on blank input.
	Input(prompt string) (text string, ok bool)

	// Confirm asks a yes/no question, defaulting to no.
	Confirm(prompt string) bool
}
