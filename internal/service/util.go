package service

func Filter[T any](items []T, fn func(T) bool) []T {
	var result []T
	for _, v := range items {
		if fn(v) {
			result = append(result, v)
		}
	}
	return result
}

func Reverse[T any](items []T) []T {
	for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
		items[i], items[j] = items[j], items[i]
	}
	return items
}
