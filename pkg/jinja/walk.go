package jinja

// Walk calls fn for every node in the template, depth-first, parents before
// children. The switch below is the single place that knows each node's
// children; adding a node type without extending it will fail loudly in
// review rather than silently skipping the new kind.
func Walk(tpl *Template, fn func(Node)) {
	if tpl == nil {
		return
	}
	walkBody(tpl.Body, fn)
}

func walkBody(body []Node, fn func(Node)) {
	for _, n := range body {
		walkNode(n, fn)
	}
}

func walkNode(n Node, fn func(Node)) {
	if n == nil {
		return
	}
	fn(n)

	switch v := n.(type) {
	case *Output:
		walkNode(v.Expr, fn)
	case *If:
		walkNode(v.Test, fn)
		walkBody(v.Body, fn)
		walkBody(v.Else, fn)
	case *For:
		for _, target := range v.Targets {
			walkNode(target, fn)
		}
		walkNode(v.Iter, fn)
		walkBody(v.Body, fn)
		walkBody(v.Else, fn)
	case *Set:
		for _, target := range v.Targets {
			walkNode(target, fn)
		}
		walkNode(v.Value, fn)
	case *SetBlock:
		if v.Target != nil {
			walkNode(v.Target, fn)
		}
		walkBody(v.Body, fn)
	case *Block:
		walkBody(v.Body, fn)
	case *Macro:
		for _, param := range v.Params {
			walkNode(param.Default, fn)
		}
		walkBody(v.Body, fn)
	case *CallBlock:
		walkNode(v.Call, fn)
		walkBody(v.Body, fn)
	case *Extends:
		walkNode(v.Template, fn)
	case *Include:
		walkNode(v.Template, fn)
	case *Import:
		walkNode(v.Template, fn)
	case *FromImport:
		walkNode(v.Template, fn)
	case *CustomTag:
		walkBody(v.Args, fn)
	case *Name, *Literal:
		// leaves
	case *GetAttr:
		walkNode(v.Target, fn)
	case *GetItem:
		walkNode(v.Target, fn)
		walkNode(v.Index, fn)
	case *Call:
		walkNode(v.Target, fn)
		walkBody(v.Args, fn)
		for _, kw := range v.Kwargs {
			walkNode(kw.Value, fn)
		}
	case *Filter:
		walkNode(v.Target, fn)
		walkBody(v.Args, fn)
		for _, kw := range v.Kwargs {
			walkNode(kw.Value, fn)
		}
	case *Test:
		walkNode(v.Target, fn)
		walkBody(v.Args, fn)
	case *Binary:
		walkNode(v.Left, fn)
		walkNode(v.Right, fn)
	case *Unary:
		walkNode(v.Expr, fn)
	case *Group:
		walkNode(v.Expr, fn)
	case *ListLiteral:
		walkBody(v.Items, fn)
	case *TupleLiteral:
		walkBody(v.Items, fn)
	case *DictLiteral:
		for _, item := range v.Items {
			walkNode(item.Key, fn)
			walkNode(item.Value, fn)
		}
	}
}
