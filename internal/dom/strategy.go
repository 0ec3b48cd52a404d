package dom

// Strategy is one way of resolving a target within a scope.
type Strategy func(scope Root) Element

// First tries each strategy in order and returns the first hit.
func First(scope Root, strategies ...Strategy) Element {
	for _, s := range strategies {
		if el := s(scope); el != nil {
			return el
		}
	}
	return nil
}

// Selector returns a strategy resolving the first match of sel.
func Selector(sel string) Strategy {
	return func(scope Root) Element {
		return scope.Query(sel)
	}
}

// Selectors returns one strategy per selector, in order.
func Selectors(sels ...string) []Strategy {
	out := make([]Strategy, len(sels))
	for i, s := range sels {
		out[i] = Selector(s)
	}
	return out
}

// Filter returns a strategy resolving the first match of sel that satisfies keep.
func Filter(sel string, keep func(Element) bool) Strategy {
	return func(scope Root) Element {
		for _, el := range scope.QueryAll(sel) {
			if keep(el) {
				return el
			}
		}
		return nil
	}
}

// Dedupe removes repeated nodes, keeping first occurrences in order.
func Dedupe(els []Element) []Element {
	out := make([]Element, 0, len(els))
	for _, el := range els {
		seen := false
		for _, o := range out {
			if o.Same(el) {
				seen = true
				break
			}
		}
		if !seen {
			out = append(out, el)
		}
	}
	return out
}
