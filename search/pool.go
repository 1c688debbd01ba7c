package search

import "runtime"

func defaultPoolSize() int {
	n := runtime.NumCPU() * 2
	if n < 2 {
		n = 2
	}
	return n
}
