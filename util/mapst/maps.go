package mapst

// Each

func Each[K comparable, V any, M ~map[K]V](m M, fn func(K, V)) {
	for k, v := range m {
		fn(k, v)
	}
}

// Filter

func Filter[K comparable, V any, M ~map[K]V](m M, fn func(K, V) bool) M {
	result := make(M)
	for k, v := range m {
		if !fn(k, v) {
			continue
		}
		result[k] = v
	}
	return result
}

// Keys

func Keys[K comparable, V any, M ~map[K]V](m M) []K {
	result := make([]K, 0, len(m))
	for k := range m {
		result = append(result, k)
	}
	return result
}

// Values

func Values[K comparable, V any, M ~map[K]V](m M) []V {
	result := make([]V, 0, len(m))
	for _, v := range m {
		result = append(result, v)
	}
	return result
}
