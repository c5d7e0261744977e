package document

// Kind is the class of a text block. Blocks of the same mergeable kind in
// succession are spliced together rather than opened anew.
type Kind string

const (
	Stdout        Kind = "stdout"
	Stderr        Kind = "stderr"
	CursorControl Kind = "cursor-control"
)

// Mergeable reports whether consecutive output of this kind joins one block.
func (k Kind) Mergeable() bool {
	switch k {
	case Stdout, Stderr, CursorControl:
		return true
	}
	return false
}

// OpenTag is the prefix used to relocate the last block of this kind.
func (k Kind) OpenTag() string {
	return `<div class="` + EscapeAttr(string(k)) + `"`
}

func (k Kind) String() string {
	return string(k)
}
