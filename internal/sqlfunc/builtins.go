package sqlfunc

// Default builds the stock registry.
func Default() (*Registry, error) {
	r := &Registry{}

	var fns []Function
	fns = append(fns, hashFunctions()...)
	fns = append(fns, stringFunctions()...)
	fns = append(fns, timeFunctions()...)
	fns = append(fns, reflectionFunctions(r)...)

	if err := r.add(fns...); err != nil {
		return nil, err
	}
	return r, nil
}

func str(name string) Param { return Param{Name: name, Type: TypeString} }
func integer(name string) Param { return Param{Name: name, Type: TypeInteger} }
