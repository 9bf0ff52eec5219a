package sqlfunc

import "strings"

// reflectionFunctions describe r itself. r is filled in after these
// entries are built, so the closures read it lazily.
func reflectionFunctions(r *Registry) []Function {
	return []Function{
		{
			Name: "functions", Returns: TypeString,
			Doc: "Retrieves list of registered SQL functions.",
			Impl: func() any {
				if r.Len() == 0 {
					return nil
				}
				return strings.Join(r.Names(), ", ")
			},
		},
		{
			Name: "function_documentation", Params: []Param{str("function_name")}, Returns: TypeString,
			Doc: "Retrieves function description if function with given name exists.",
			Impl: func(name string) any {
				if doc, ok := r.Documentation(name); ok {
					return doc
				}
				return nil
			},
		},
		{
			Name: "function_annotations", Params: []Param{str("function_name")}, Returns: TypeString,
			Doc: "Retrieves function types annotations if function with given name exists.",
			Impl: func(name string) any {
				if sig, ok := r.Signature(name); ok {
					return sig
				}
				return nil
			},
		},
	}
}
