package formula

// ResultType classifies what a formula evaluates to.
type ResultType string

const (
	TypeNumber  ResultType = "NUMBER"
	TypeText    ResultType = "TEXT"
	TypeBoolean ResultType = "BOOLEAN"
	TypeUnknown ResultType = "UNKNOWN"
)

// Node is the closed set of AST node kinds produced by Parse.
// Nodes are immutable once built; every pass over the tree (inference,
// extraction, execution) switches exhaustively over these kinds.
type Node interface {
	node()
}

// NumberLiteral is a numeric constant such as 42 or 12.5.
type NumberLiteral struct {
	Value float64
}

// StringLiteral is a quoted text constant.
type StringLiteral struct {
	Value string
}

// FieldReference is a bare identifier referring to a schema field.
type FieldReference struct {
	Name string
}

// UnaryOp is a prefix operator: "-" or "not".
type UnaryOp struct {
	Op      string
	Operand Node
}

// BinaryOp is an arithmetic operator: "+", "-", "*" or "/".
type BinaryOp struct {
	Op    string
	Left  Node
	Right Node
}

// LogicalOp is "and" or "or".
type LogicalOp struct {
	Op    string
	Left  Node
	Right Node
}

// Comparison is "==", "!=", "<", "<=", ">" or ">=".
type Comparison struct {
	Op    string
	Left  Node
	Right Node
}

// FunctionCall is an identifier applied to an argument list.
type FunctionCall struct {
	Name string
	Args []Node
}

func (*NumberLiteral) node()  {}
func (*StringLiteral) node()  {}
func (*FieldReference) node() {}
func (*UnaryOp) node()        {}
func (*BinaryOp) node()       {}
func (*LogicalOp) node()      {}
func (*Comparison) node()     {}
func (*FunctionCall) node()   {}
