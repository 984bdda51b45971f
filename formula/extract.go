package formula

import "sort"

// collectReferences walks the AST and gathers every field-reference
// identifier. Function names and literals are not references.
func collectReferences(n Node, into map[string]struct{}) {
	switch node := n.(type) {
	case *NumberLiteral, *StringLiteral:
	case *FieldReference:
		into[node.Name] = struct{}{}
	case *UnaryOp:
		collectReferences(node.Operand, into)
	case *BinaryOp:
		collectReferences(node.Left, into)
		collectReferences(node.Right, into)
	case *LogicalOp:
		collectReferences(node.Left, into)
		collectReferences(node.Right, into)
	case *Comparison:
		collectReferences(node.Left, into)
		collectReferences(node.Right, into)
	case *FunctionCall:
		for _, arg := range node.Args {
			collectReferences(arg, into)
		}
	}
}

// ReferencesOf returns the set of fields referenced by a parsed AST,
// sorted for deterministic output.
func ReferencesOf(n Node) []string {
	set := make(map[string]struct{})
	collectReferences(n, set)
	refs := make([]string, 0, len(set))
	for name := range set {
		refs = append(refs, name)
	}
	sort.Strings(refs)
	return refs
}

// References parses formula text and returns the referenced field ids
// without running full validation. Empty or whitespace-only text has no
// references. Dependency queries use this to build the schema-wide
// field -> dependencies map fed to cycle detection.
func References(text string) ([]string, error) {
	if isBlank(text) {
		return []string{}, nil
	}
	node, err := Parse(text)
	if err != nil {
		return nil, err
	}
	return ReferencesOf(node), nil
}
